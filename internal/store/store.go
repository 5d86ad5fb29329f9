// Package store provides the key-scoped blob stores that hold overrides and
// report metadata. Values are opaque JSON documents.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned by Get when no value is stored under a key.
var ErrNotFound = errors.New("store: not found")

// Store is a get/set blob contract. Reads are snapshots: a value read, merged
// and written back can race with another writer on the same key, and the
// last write wins.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Drivers accepted by Open.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Open returns the store for driver. path is a directory for the file driver
// and a database file for sqlite; memory ignores it.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverFile:
		return NewFile(path)
	case DriverSQLite:
		return NewSQL(path)
	default:
		return nil, fmt.Errorf("store.Open: unknown driver %q", driver)
	}
}

// Memory is an in-process Store.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Scoped prefixes every key with prefix + "/".
func Scoped(s Store, prefix string) Store {
	return scoped{s: s, prefix: prefix + "/"}
}

type scoped struct {
	s      Store
	prefix string
}

func (p scoped) Get(ctx context.Context, key string) ([]byte, error) {
	return p.s.Get(ctx, p.prefix+key)
}

func (p scoped) Set(ctx context.Context, key string, value []byte) error {
	return p.s.Set(ctx, p.prefix+key, value)
}
