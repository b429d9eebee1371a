// Package bigcache adapts allegro/bigcache as a swrcache blob store. Use it
// when you want persistence-layer semantics (shared blobs, bounded memory)
// without touching disk; contents do not survive a restart.
package bigcache

import (
	"context"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/swrcache/store"
)

type Store struct {
	c *bc.BigCache
}

var _ store.Store = (*Store)(nil)

type Config struct {
	// LifeWindow bounds how long a blob is retained. Note swrcache entries
	// carry their own expiry; eviction here only means a disk-style miss.
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(cfg Config) (*Store, error) {
	conf := bc.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.New(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	return &Store{c: c}, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := s.c.Get(key)
	if err == bc.ErrEntryNotFound {
		return nil, false, nil
	}
	return b, err == nil, err
}

func (s *Store) Set(_ context.Context, key string, blob []byte) error {
	return s.c.Set(key, blob)
}

func (s *Store) Del(_ context.Context, key string) error {
	err := s.c.Delete(key)
	if err == bc.ErrEntryNotFound {
		return nil
	}
	return err
}

func (s *Store) Clear(_ context.Context) error {
	return s.c.Reset()
}

// Stats reports the live entry count; Bytes is the allocated capacity, which
// overstates actual payload size.
func (s *Store) Stats(_ context.Context) (store.Stats, error) {
	return store.Stats{
		Entries: s.c.Len(),
		Bytes:   int64(s.c.Capacity()),
	}, nil
}

func (s *Store) Close(_ context.Context) error {
	return s.c.Close()
}
