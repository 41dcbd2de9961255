// ABOUTME: Keyed byte store abstraction shared by every persistent component
// ABOUTME: Provides the backend factory and a key copy helper for migrations

package kv

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned by Get when a key does not exist.
var ErrNotFound = errors.New("key not found")

// Supported backend names.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendCharm  = "charm"
	BackendMemory = "memory"
)

// Store is a flat namespace of byte values. Every Set is a full replace of
// the key's value; there are no cross-key transactions.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Keys returns all keys starting with prefix, sorted.
	Keys(prefix string) ([]string, error)
	Close() error
}

// Backends lists the backend names accepted by Open.
func Backends() []string {
	return []string{BackendBadger, BackendSQLite, BackendCharm, BackendMemory}
}

// Open creates a Store for the named backend rooted at dataDir.
func Open(backend, dataDir string) (Store, error) {
	switch backend {
	case BackendBadger:
		return OpenBadger(filepath.Join(dataDir, "badger"))
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dataDir, "beacon.db"))
	case BackendCharm:
		return NewCharmStore(nil)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// Copy writes every key under prefix from src into dst and returns the
// number of keys copied.
func Copy(dst, src Store, prefix string) (int, error) {
	keys, err := src.Keys(prefix)
	if err != nil {
		return 0, fmt.Errorf("list source keys: %w", err)
	}

	copied := 0
	for _, key := range keys {
		value, err := src.Get(key)
		if errors.Is(err, ErrNotFound) {
			// removed between Keys and Get
			continue
		}
		if err != nil {
			return copied, fmt.Errorf("get %s: %w", key, err)
		}
		if err := dst.Set(key, value); err != nil {
			return copied, fmt.Errorf("set %s: %w", key, err)
		}
		copied++
	}
	return copied, nil
}

func filterSorted(keys []string, prefix string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
