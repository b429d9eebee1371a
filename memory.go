package swrcache

import (
	"sync"
	"time"
)

// entry is one cached value plus freshness metadata. Entries are immutable
// once stored; every update swaps in a fresh copy so a concurrent reader
// never observes a half-written entry.
type entry[V any] struct {
	data       V
	expiresAt  time.Time     // zero => never expires
	revalidate time.Duration // 0 => revalidation disabled
	tags       []string
	persisted  bool // entry has (or should have) a blob in the store
}

func (e *entry[V]) fresh(now time.Time) bool {
	return e.expiresAt.IsZero() || now.Before(e.expiresAt)
}

// entryStore is the in-memory source of truth for current entries.
type entryStore[V any] struct {
	mu sync.RWMutex
	m  map[string]*entry[V]
}

func (s *entryStore[V]) get(key string) (*entry[V], bool) {
	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()
	return e, ok
}

func (s *entryStore[V]) set(key string, e *entry[V]) {
	s.mu.Lock()
	s.m[key] = e
	s.mu.Unlock()
}

// expire atomically replaces the entry with a copy whose expiry is at,
// returning the copy. Missing keys return (nil, false).
func (s *entryStore[V]) expire(key string, at time.Time) (*entry[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[key]
	if !ok {
		return nil, false
	}
	cp := *e
	cp.expiresAt = at
	s.m[key] = &cp
	return &cp, true
}

func (s *entryStore[V]) clear() {
	s.mu.Lock()
	s.m = make(map[string]*entry[V])
	s.mu.Unlock()
}

func (s *entryStore[V]) len() int {
	s.mu.RLock()
	n := len(s.m)
	s.mu.RUnlock()
	return n
}

// tagIndex maps tags to the keys carrying them. Keys accumulate for the life
// of the process; invalidation marks staleness instead of deleting, so the
// index is never pruned.
type tagIndex struct {
	mu sync.RWMutex
	m  map[string]map[string]struct{}
}

func (t *tagIndex) add(tags []string, key string) {
	if len(tags) == 0 {
		return
	}
	t.mu.Lock()
	for _, tag := range tags {
		set, ok := t.m[tag]
		if !ok {
			set = make(map[string]struct{})
			t.m[tag] = set
		}
		set[key] = struct{}{}
	}
	t.mu.Unlock()
}

func (t *tagIndex) keys(tag string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	set, ok := t.m[tag]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func (t *tagIndex) clear() {
	t.mu.Lock()
	t.m = make(map[string]map[string]struct{})
	t.mu.Unlock()
}
