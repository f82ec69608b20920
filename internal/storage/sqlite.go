package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS snapshots (
	name       TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLite keeps the document as one row of a key/value table.
type SQLite struct {
	db   *sql.DB
	path string
	name string
}

// OpenSQLite opens (creating if needed) the database at path and prepares
// the snapshots table. name is the row key.
func OpenSQLite(ctx context.Context, path, name string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection keeps writes ordered.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return &SQLite{db: db, path: path, name: name}, nil
}

// Location implements Adapter.
func (s *SQLite) Location() string {
	return s.path + "#" + s.name
}

// Read implements Adapter.
func (s *SQLite) Read(ctx context.Context) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM snapshots WHERE name = ?`, s.name).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select snapshot: %w", err)
	}
	return body, nil
}

// Write implements Adapter.
func (s *SQLite) Write(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (name, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		s.name, data, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// Quarantine moves the stored row to <name>.corrupt-<unix nanos>.
func (s *SQLite) Quarantine(ctx context.Context) (string, error) {
	target := fmt.Sprintf("%s.corrupt-%d", s.name, time.Now().UnixNano())
	res, err := s.db.ExecContext(ctx, `UPDATE snapshots SET name = ? WHERE name = ?`, target, s.name)
	if err != nil {
		return "", fmt.Errorf("quarantine snapshot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", nil
	}
	return s.path + "#" + target, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
