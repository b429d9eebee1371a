package swrcache

import (
	"context"
	"sync"

	"github.com/unkn0wn-root/swrcache/store"
)

// saver coalesces concurrent writes to the same storage key. The first save
// for a key becomes the writer and owns the key's slot until it settles;
// saves arriving meanwhile replace the slot's payload instead of starting
// their own write. The writer re-writes while it keeps getting superseded, so
// the backend sees whole, latest-wins payloads, one at a time per key, and
// every caller is unblocked by the completion of the final write.
type saver struct {
	store store.Store

	mu      sync.Mutex
	pending map[string]*pendingSave
}

type pendingSave struct {
	blob []byte
	gen  uint64 // bumped on each supersede
	done chan struct{}
	err  error
}

func newSaver(st store.Store) *saver {
	return &saver{store: st, pending: make(map[string]*pendingSave)}
}

// save blocks until the write that carries this payload, or one that
// superseded it, has settled, and returns that write's outcome.
func (s *saver) save(ctx context.Context, key string, blob []byte) error {
	s.mu.Lock()
	if p, ok := s.pending[key]; ok {
		p.blob = blob
		p.gen++
		s.mu.Unlock()
		<-p.done
		return p.err
	}
	p := &pendingSave{blob: blob, done: make(chan struct{})}
	s.pending[key] = p
	s.mu.Unlock()

	var err error
	for {
		s.mu.Lock()
		cur, gen := p.blob, p.gen
		s.mu.Unlock()

		err = s.store.Set(ctx, key, cur)

		s.mu.Lock()
		if p.gen == gen {
			delete(s.pending, key)
			s.mu.Unlock()
			break
		}
		// superseded mid-write; go again with the newer payload
		s.mu.Unlock()
	}

	p.err = err
	close(p.done)
	return err
}
