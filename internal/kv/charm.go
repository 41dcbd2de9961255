// ABOUTME: Charm KV backed Store using the transactional Do API
// ABOUTME: Short-lived connections to avoid lock contention with other processes

package kv

import (
	"errors"
	"os"

	charmkv "github.com/charmbracelet/charm/kv"
)

const (
	// CharmDBName is the name of the Charm KV database for beacon data.
	CharmDBName = "beacon"

	// DefaultCharmHost is the default Charm server to use.
	DefaultCharmHost = "charm.2389.dev"
)

// CharmConfig holds Charm store options.
type CharmConfig struct {
	// CharmHost is the Charm server to use (default: charm.2389.dev).
	CharmHost string
	// AutoSync enables automatic sync after writes.
	AutoSync bool
}

// DefaultCharmConfig returns the default configuration, honoring CHARM_HOST.
func DefaultCharmConfig() *CharmConfig {
	host := os.Getenv("CHARM_HOST")
	if host == "" {
		host = DefaultCharmHost
	}
	return &CharmConfig{
		CharmHost: host,
		AutoSync:  false,
	}
}

// Charm implements Store on Charm KV. It does NOT hold a persistent
// connection: each operation opens the database, runs, and closes it.
type Charm struct {
	dbName   string
	autoSync bool
}

// Compile-time check that Charm implements Store.
var _ Store = (*Charm)(nil)

// NewCharmStore creates a store with the given config.
func NewCharmStore(cfg *CharmConfig) (*Charm, error) {
	if cfg == nil {
		cfg = DefaultCharmConfig()
	}

	// CHARM_HOST must be set before any KV operations
	if err := os.Setenv("CHARM_HOST", cfg.CharmHost); err != nil {
		return nil, err
	}

	return &Charm{
		dbName:   CharmDBName,
		autoSync: cfg.AutoSync,
	}, nil
}

// NewCharmTestStore creates a store for testing without network access.
func NewCharmTestStore(dbName string) *Charm {
	return &Charm{dbName: dbName}
}

func (c *Charm) Get(key string) ([]byte, error) {
	var val []byte
	err := charmkv.DoReadOnly(c.dbName, func(k *charmkv.KV) error {
		var err error
		val, err = k.Get([]byte(key))
		return err
	})
	if errors.Is(err, charmkv.ErrMissingKey) {
		return nil, ErrNotFound
	}
	return val, err
}

func (c *Charm) Set(key string, value []byte) error {
	return c.do(func(k *charmkv.KV) error {
		return k.Set([]byte(key), value)
	})
}

func (c *Charm) Delete(key string) error {
	return c.do(func(k *charmkv.KV) error {
		err := k.Delete([]byte(key))
		if errors.Is(err, charmkv.ErrMissingKey) {
			return nil
		}
		return err
	})
}

func (c *Charm) Keys(prefix string) ([]string, error) {
	var raw [][]byte
	err := charmkv.DoReadOnly(c.dbName, func(k *charmkv.KV) error {
		var err error
		raw, err = k.Keys()
		return err
	})
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(raw))
	for i, k := range raw {
		keys[i] = string(k)
	}
	return filterSorted(keys, prefix), nil
}

// Sync triggers a manual sync with the charm server.
func (c *Charm) Sync() error {
	return charmkv.Do(c.dbName, func(k *charmkv.KV) error {
		return k.Sync()
	})
}

// Close is a no-op; connections are closed after each operation.
func (c *Charm) Close() error {
	return nil
}

func (c *Charm) do(fn func(k *charmkv.KV) error) error {
	return charmkv.Do(c.dbName, func(k *charmkv.KV) error {
		if err := fn(k); err != nil {
			return err
		}
		if c.autoSync {
			return k.Sync()
		}
		return nil
	})
}
