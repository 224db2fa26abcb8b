// Package session persists review snapshots so later runs can be compared
// against earlier ones.
package session

import (
	"database/sql"
	"fmt"
	"io"
	"sort"
)

// #region open
// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Open builds the configured backend, optionally wrapped in an LRU cache.
// The returned closer releases the backend.
func Open(backend, path string, cacheSize int) (Store, io.Closer, error) {
	var (
		store  Store
		closer io.Closer = nopCloser{}
	)
	switch backend {
	case BackendSQLite, "":
		s, err := NewSQLiteStore(path)
		if err != nil {
			return nil, nil, err
		}
		store, closer = s, s
	case BackendFile:
		s, err := NewFileStore(path)
		if err != nil {
			return nil, nil, err
		}
		store = s
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", backend)
	}

	if cacheSize > 0 {
		c, err := NewCached(store, cacheSize)
		if err != nil {
			closer.Close()
			return nil, nil, err
		}
		store = c
	}
	return store, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SQLiteDB returns the database behind store, looking through caches, or
// nil when the backend is not SQLite.
func SQLiteDB(store Store) *sql.DB {
	for {
		switch s := store.(type) {
		case *SQLiteStore:
			return s.DB()
		case interface{ Unwrap() Store }:
			store = s.Unwrap()
		default:
			return nil
		}
	}
}

// #endregion open

func sortNewestFirst(snaps []Snapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].Timestamp.After(snaps[j].Timestamp)
	})
}
