// Package ristretto adapts dgraph-io/ristretto as a swrcache blob store.
// Cost-based admission means a Set may be silently dropped under pressure;
// the engine treats that like any other missing blob on the next read.
package ristretto

import (
	"context"
	"errors"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/swrcache/store"
)

type Store struct {
	c *rc.Cache
}

var _ store.Store = (*Store)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
}

func New(cfg Config) (*Store, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     true, // Stats needs them
	})
	if err != nil {
		return nil, err
	}
	return &Store{c: c}, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		s.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

func (s *Store) Set(_ context.Context, key string, blob []byte) error {
	// Admission may reject the write; a rejected blob simply stays absent.
	s.c.Set(key, blob, int64(len(blob)))
	return nil
}

func (s *Store) Del(_ context.Context, key string) error {
	s.c.Del(key)
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.c.Clear()
	return nil
}

// Stats is approximate: ristretto tracks additions and evictions but not
// explicit deletes, so counts drift high on delete-heavy workloads.
func (s *Store) Stats(_ context.Context) (store.Stats, error) {
	m := s.c.Metrics
	entries := int64(m.KeysAdded()) - int64(m.KeysEvicted())
	bytes := int64(m.CostAdded()) - int64(m.CostEvicted())
	if entries < 0 {
		entries = 0
	}
	if bytes < 0 {
		bytes = 0
	}
	return store.Stats{Entries: int(entries), Bytes: bytes}, nil
}

func (s *Store) Close(_ context.Context) error {
	s.c.Wait()
	s.c.Close()
	return nil
}
