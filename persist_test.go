package swrcache

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// gateStore blocks every Set until the test releases it, so tests can hold a
// write open while further saves arrive.
type gateStore struct {
	memStore
	started chan string
	proceed chan struct{}
}

func newGateStore() *gateStore {
	return &gateStore{
		memStore: memStore{m: make(map[string][]byte)},
		started:  make(chan string),
		proceed:  make(chan struct{}),
	}
}

func (g *gateStore) Set(ctx context.Context, key string, blob []byte) error {
	g.started <- key
	<-g.proceed
	return g.memStore.Set(ctx, key, blob)
}

func (s *saver) pendingGen(key string) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[key]
	if !ok {
		return 0, false
	}
	return p.gen, true
}

func TestSaverSingleWrite(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	s := newSaver(ms)

	if err := s.save(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ms.sets != 1 {
		t.Fatalf("store saw %d writes, want 1", ms.sets)
	}
	if b, ok, _ := ms.Get(ctx, "k"); !ok || !bytes.Equal(b, []byte("v")) {
		t.Fatalf("stored %q ok=%v", b, ok)
	}
	if _, ok := s.pendingGen("k"); ok {
		t.Fatalf("slot must be released after an uncontended save")
	}
}

// TestSaverCoalesces: a save arriving while another write for the same key is
// in flight supersedes its payload instead of starting a parallel write. The
// backend sees sequential writes ending with the newest payload, and both
// callers return once that write settles.
func TestSaverCoalesces(t *testing.T) {
	ctx := context.Background()
	gs := newGateStore()
	s := newSaver(gs)

	var wg sync.WaitGroup
	var errA, errB error
	wg.Add(1)
	go func() {
		defer wg.Done()
		errA = s.save(ctx, "k", []byte("A"))
	}()
	<-gs.started // A's write is in flight, slot held

	wg.Add(1)
	go func() {
		defer wg.Done()
		errB = s.save(ctx, "k", []byte("B"))
	}()
	waitUntil(t, time.Second, "B to attach", func() bool {
		gen, ok := s.pendingGen("k")
		return ok && gen == 1
	})

	gs.proceed <- struct{}{} // A's write settles stale; writer goes again
	<-gs.started
	gs.proceed <- struct{}{}
	wg.Wait()

	if errA != nil || errB != nil {
		t.Fatalf("save errors: A=%v B=%v", errA, errB)
	}
	gs.mu.Lock()
	sets := gs.sets
	final := append([]byte(nil), gs.m["k"]...)
	gs.mu.Unlock()
	if sets != 2 {
		t.Fatalf("store saw %d writes, want 2", sets)
	}
	if !bytes.Equal(final, []byte("B")) {
		t.Fatalf("final payload %q, want %q", final, "B")
	}
	if _, ok := s.pendingGen("k"); ok {
		t.Fatalf("slot must be released after the final write")
	}
}

func TestSaverErrorReachesAllWaiters(t *testing.T) {
	ctx := context.Background()
	gs := newGateStore()
	gs.setErr = errors.New("disk full")
	s := newSaver(gs)

	var wg sync.WaitGroup
	var errA, errB error
	wg.Add(1)
	go func() {
		defer wg.Done()
		errA = s.save(ctx, "k", []byte("A"))
	}()
	<-gs.started

	wg.Add(1)
	go func() {
		defer wg.Done()
		errB = s.save(ctx, "k", []byte("B"))
	}()
	waitUntil(t, time.Second, "B to attach", func() bool {
		gen, ok := s.pendingGen("k")
		return ok && gen == 1
	})

	gs.proceed <- struct{}{}
	<-gs.started // superseded write retried despite the error
	gs.proceed <- struct{}{}
	wg.Wait()

	if !errors.Is(errA, gs.setErr) || !errors.Is(errB, gs.setErr) {
		t.Fatalf("both callers must see the final write's error: A=%v B=%v", errA, errB)
	}
}

func TestSaverIndependentKeys(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	s := newSaver(ms)

	var wg sync.WaitGroup
	for _, key := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			if err := s.save(ctx, key, []byte(key)); err != nil {
				t.Errorf("save %q: %v", key, err)
			}
		}(key)
	}
	wg.Wait()

	if ms.len() != 3 {
		t.Fatalf("store has %d entries, want 3", ms.len())
	}
}
