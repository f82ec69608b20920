// Package storage provides the durable store adapters that hold the single
// snapshot document. Adapters move bytes only; they know nothing about the
// snapshot shape.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Read when nothing has been stored yet.
var ErrNotFound = errors.New("snapshot not found")

// Adapter reads and writes one named document.
type Adapter interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	// Location describes where the document lives, for logs and CLI output.
	Location() string
}

// Quarantiner is implemented by adapters that can move an unreadable
// document aside before it is overwritten. It returns the new location.
type Quarantiner interface {
	Quarantine(ctx context.Context) (string, error)
}

// Backend names a storage adapter implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

// ParseBackend normalizes a backend name. Empty selects the file backend.
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(name))); b {
	case "":
		return BackendFile, nil
	case BackendFile, BackendSQLite, BackendMemory:
		return b, nil
	default:
		return "", fmt.Errorf("unknown store backend %q", name)
	}
}

// Open builds the adapter for backend rooted at path. The returned close
// function releases backend resources and is always non-nil.
func Open(ctx context.Context, backend Backend, path string) (Adapter, func() error, error) {
	noop := func() error { return nil }
	switch backend {
	case BackendFile, "":
		return NewFile(path), noop, nil
	case BackendMemory:
		return NewMemory(), noop, nil
	case BackendSQLite:
		db, err := OpenSQLite(ctx, path, DefaultDocumentName)
		if err != nil {
			return nil, noop, err
		}
		return db, db.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", backend)
	}
}
