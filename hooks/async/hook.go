// Package asynchook decouples hook callbacks from the cache's hot paths.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    LoadDroppedEvery: 10, // sample logs: ~every 10th dropped blob
//	    StaleServedEvery: 1,  // log every stale serve
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	cache, _ := swrcache.New[User](swrcache.Options[User]{
//	    Namespace: "app:prod:user",
//	    Store:     diskStore,
//	    Codec:     codec.MustCBOR[User](false),
//	    Hooks:     hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/swrcache"
)

type Hooks struct {
	inner swrcache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ swrcache.Hooks = (*Hooks)(nil)

func New(inner swrcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) StaleServed(k string)       { h.try(func() { h.inner.StaleServed(k) }) }
func (h *Hooks) PlaceholderServed(k string) { h.try(func() { h.inner.PlaceholderServed(k) }) }
func (h *Hooks) RevalidateStarted(k string, bg bool) {
	h.try(func() { h.inner.RevalidateStarted(k, bg) })
}
func (h *Hooks) RevalidateFailed(k string, err error) {
	h.try(func() { h.inner.RevalidateFailed(k, err) })
}
func (h *Hooks) LoadDropped(k, reason string) {
	h.try(func() { h.inner.LoadDropped(k, reason) })
}
func (h *Hooks) PersistError(k string, err error) {
	h.try(func() { h.inner.PersistError(k, err) })
}
func (h *Hooks) TagRevalidated(tag string, n int) {
	h.try(func() { h.inner.TagRevalidated(tag, n) })
}
