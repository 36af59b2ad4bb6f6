package models

import (
	"errors"
	"fmt"
)

var errNotInitialized = errors.New("store is not initialized")

// NewStore returns an uninitialized store of the given kind. path is the
// directory for "file" and the database file for "sqlite".
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "memory":
		return NewMemoryStore(), nil
	case "", "file":
		return NewFileStore(path), nil
	case "sqlite":
		return newSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
