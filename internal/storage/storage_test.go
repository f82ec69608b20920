package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_ReadMissingReturnsNotFound(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "missing.json"))

	_, err := f.Read(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFile_WriteCreatesDirsAndOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", DefaultDocumentName)
	f := NewFile(path)
	ctx := context.Background()

	require.NoError(t, f.Write(ctx, []byte(`{"a":1}`)))
	require.NoError(t, f.Write(ctx, []byte(`{"a":2}`)))

	got, err := f.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(got))
	assert.Equal(t, path, f.Location())
}

func TestFile_WriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f := NewFile(filepath.Join(dir, DefaultDocumentName))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.Write(context.Background(), []byte(`{"n":1}`))
		}()
	}
	wg.Wait()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), tempFilePrefix), "leftover temp file %s", e.Name())
	}
	assert.Len(t, entries, 1)
}

func TestFile_Quarantine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultDocumentName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	f := NewFile(path)
	moved, err := f.Quarantine(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(moved, path+".corrupt-"))

	_, err = f.Read(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)

	data, err := os.ReadFile(moved)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

func TestFile_QuarantineMissingIsNoop(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), DefaultDocumentName))
	moved, err := f.Quarantine(context.Background())
	require.NoError(t, err)
	assert.Empty(t, moved)
}

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sticky.db")

	db, err := OpenSQLite(ctx, path, DefaultDocumentName)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Read(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.Write(ctx, []byte(`{"v":1}`)))
	require.NoError(t, db.Write(ctx, []byte(`{"v":2}`)))

	got, err := db.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(got))

	moved, err := db.Quarantine(ctx)
	require.NoError(t, err)
	assert.Contains(t, moved, ".corrupt-")

	_, err = db.Read(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFile_RepeatedQuarantinesKeepEachDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultDocumentName)
	f := NewFile(path)

	var moved []string
	for _, body := range []string{"{first", "{second"} {
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		target, err := f.Quarantine(context.Background())
		require.NoError(t, err)
		moved = append(moved, target)
	}
	require.NotEqual(t, moved[0], moved[1])

	first, err := os.ReadFile(moved[0])
	require.NoError(t, err)
	assert.Equal(t, "{first", string(first))
}

func TestSQLite_RepeatedQuarantinesKeepEachRow(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "sticky.db"), DefaultDocumentName)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, body := range []string{"{first", "{second"} {
		require.NoError(t, db.Write(ctx, []byte(body)))
		moved, err := db.Quarantine(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, moved)
	}

	var kept int
	require.NoError(t, db.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snapshots WHERE name LIKE ?`, DefaultDocumentName+".corrupt-%").Scan(&kept))
	assert.Equal(t, 2, kept)
}

func TestMemory_CountsWritesAndFails(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Read(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Write(ctx, []byte("one")))
	assert.Equal(t, 1, m.Writes())

	boom := errors.New("disk full")
	m.FailWrites(boom)
	require.ErrorIs(t, m.Write(ctx, []byte("two")), boom)
	assert.Equal(t, 1, m.Writes())
	assert.Equal(t, "one", string(m.Bytes()))

	m.FailWrites(nil)
	require.NoError(t, m.Write(ctx, []byte("three")))
	assert.Equal(t, 2, m.Writes())
}

func TestOpen_SelectsBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	a, closeFn, err := Open(ctx, BackendFile, filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	assert.IsType(t, &File{}, a)
	require.NoError(t, closeFn())

	a, closeFn, err = Open(ctx, BackendMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, a)
	require.NoError(t, closeFn())

	a, closeFn, err = Open(ctx, BackendSQLite, filepath.Join(dir, "b.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, a)
	require.NoError(t, closeFn())

	_, _, err = Open(ctx, Backend("s3"), "")
	assert.Error(t, err)
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    Backend
		wantErr bool
	}{
		{"", BackendFile, false},
		{" SQLite ", BackendSQLite, false},
		{"memory", BackendMemory, false},
		{"redis", "", true},
	}
	for _, tt := range tests {
		got, err := ParseBackend(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
