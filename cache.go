package swrcache

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	co "github.com/unkn0wn-root/swrcache/codec"
	"github.com/unkn0wn-root/swrcache/internal/keys"
	"github.com/unkn0wn-root/swrcache/internal/wire"
	st "github.com/unkn0wn-root/swrcache/store"
)

type cache[V any] struct {
	ns    string
	store st.Store
	codec co.Codec[V]
	log   Logger
	hooks Hooks

	enabled bool

	entries entryStore[V]
	tags    tagIndex
	flights flightGroup[V]
	saves   *saver

	now func() time.Time
}

func newCache[V any](opts Options[V]) (*cache[V], error) {
	if opts.Namespace == "" {
		return nil, fmt.Errorf("swrcache: namespace is required")
	}
	if opts.Store != nil && opts.Codec == nil {
		return nil, fmt.Errorf("swrcache: codec is required when a store is configured")
	}

	c := &cache[V]{
		ns:      opts.Namespace,
		store:   opts.Store,
		codec:   opts.Codec,
		enabled: !opts.Disabled,
		now:     time.Now,
	}
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.entries.m = make(map[string]*entry[V])
	c.tags.m = make(map[string]map[string]struct{})
	if opts.Store != nil {
		c.saves = newSaver(opts.Store)
	}
	return c, nil
}

func (c *cache[V]) Enabled() bool { return c.enabled }

func (c *cache[V]) Close(ctx context.Context) error {
	if c.store != nil {
		return c.store.Close(ctx)
	}
	return nil
}

// GetOrCompute decides, in order: fresh hit -> cached value; stale hit ->
// serve stale and refresh in the background, or block for fresh when the
// producer opts out of stale serving; miss -> attach to or start the single
// outstanding invocation, short-circuiting through the placeholder if one is
// supplied.
func (c *cache[V]) GetOrCompute(ctx context.Context, p Producer[V], args ...any) (V, error) {
	var zero V
	if p.Name == "" || p.Compute == nil {
		return zero, fmt.Errorf("swrcache: producer requires Name and Compute")
	}
	if !c.enabled {
		return p.Compute(ctx, args...)
	}

	key, err := keys.Derive(p.Name, p.KeyParts, args)
	if err != nil {
		return zero, &KeyError{Producer: p.Name, Err: err}
	}

	ent, ok := c.entries.get(key)
	if !ok && c.persists(p) {
		ent, ok = c.adoptFromStore(ctx, key)
	}
	if ok {
		if ent.fresh(c.now()) {
			return ent.data, nil
		}
		if !p.BlockOnStale {
			c.beginFlight(ctx, key, p, args, true)
			c.hooks.StaleServed(c.storageKey(key))
			return ent.data, nil
		}
		// BlockOnStale: the stale entry is bypassed for this call but kept in
		// the store. A successful fetch overwrites it; a failed one leaves it.
	}

	ch := c.beginFlight(ctx, key, p, args, false)
	if p.Placeholder != nil {
		c.hooks.PlaceholderServed(c.storageKey(key))
		return p.Placeholder(args...), nil
	}
	return await[V](ch)
}

// beginFlight routes every producer invocation - cold miss, forced-fresh and
// background refresh alike - through one flight group, so a foreground miss
// can never race a second producer run for the same key.
func (c *cache[V]) beginFlight(ctx context.Context, key string, p Producer[V], args []any, background bool) <-chan singleflight.Result {
	// Whoever triggered the invocation may return early with a stale value or
	// placeholder; the invocation itself must outlive that caller's context.
	runCtx := context.WithoutCancel(ctx)
	return c.flights.begin(key, func() (V, error) {
		c.hooks.RevalidateStarted(c.storageKey(key), background)
		v, err := p.Compute(runCtx, args...)
		if err != nil {
			c.hooks.RevalidateFailed(c.storageKey(key), err)
			c.log.Warn("producer failed", Fields{"producer": p.Name, "key": key, "err": err})
			return v, err
		}
		c.commit(runCtx, key, p, v)
		return v, nil
	})
}

// commit stores a freshly produced value: entry store, tag index, and
// (asynchronously) the blob store.
func (c *cache[V]) commit(ctx context.Context, key string, p Producer[V], v V) {
	ent := &entry[V]{
		data:       v,
		revalidate: p.Revalidate,
		tags:       p.Tags,
		persisted:  c.persists(p),
	}
	if p.Revalidate > 0 {
		ent.expiresAt = c.now().Add(p.Revalidate)
	}
	c.entries.set(key, ent)
	c.tags.add(p.Tags, key)
	if ent.persisted {
		c.persistAsync(ctx, key, ent)
	}
}

func (c *cache[V]) persists(p Producer[V]) bool {
	return c.store != nil && !p.NoPersist
}

func (c *cache[V]) storageKey(key string) string {
	return c.ns + ":" + key
}

func (c *cache[V]) encodeEntry(ent *entry[V]) ([]byte, error) {
	payload, err := c.codec.Encode(ent.data)
	if err != nil {
		return nil, err
	}
	var exp int64
	if !ent.expiresAt.IsZero() {
		exp = ent.expiresAt.UnixNano()
	}
	return wire.Encode(wire.Entry{
		ExpiresAt:  exp,
		Revalidate: int64(ent.revalidate),
		Tags:       ent.tags,
		Payload:    payload,
	})
}

// persistAsync writes the entry to the store off the caller's path. Failures
// are reported but never fail a request; memory stays authoritative.
func (c *cache[V]) persistAsync(ctx context.Context, key string, ent *entry[V]) {
	sk := c.storageKey(key)
	blob, err := c.encodeEntry(ent)
	if err != nil {
		c.hooks.PersistError(sk, err)
		c.log.Warn("encode entry for persist failed", Fields{"key": key, "err": err})
		return
	}
	go func() {
		if err := c.saves.save(ctx, sk, blob); err != nil {
			c.hooks.PersistError(sk, err)
			c.log.Warn("persist failed", Fields{"key": key, "err": err})
		}
	}()
}

// adoptFromStore pulls a persisted entry into memory and indexes its tags.
// Fresh blobs become ordinary entries; stale blobs are adopted as stale seeds
// so the normal stale-handling path decides between serving and refreshing.
// Missing, corrupt and unreadable blobs are all a miss; corrupt ones are
// deleted on the way out.
func (c *cache[V]) adoptFromStore(ctx context.Context, key string) (*entry[V], bool) {
	sk := c.storageKey(key)
	raw, ok, err := c.store.Get(ctx, sk)
	if err != nil {
		c.hooks.LoadDropped(sk, "io_error")
		c.log.Warn("store read failed", Fields{"key": key, "err": err})
		return nil, false
	}
	if !ok {
		return nil, false
	}
	we, err := wire.Decode(raw)
	if err != nil {
		_ = c.store.Del(ctx, sk) // self-heal corrupt
		c.hooks.LoadDropped(sk, "corrupt")
		return nil, false
	}
	v, err := c.codec.Decode(we.Payload)
	if err != nil {
		_ = c.store.Del(ctx, sk) // self-heal
		c.hooks.LoadDropped(sk, "value_decode")
		return nil, false
	}

	ent := &entry[V]{
		data:       v,
		revalidate: time.Duration(we.Revalidate),
		tags:       we.Tags,
		persisted:  true,
	}
	if we.ExpiresAt != 0 {
		ent.expiresAt = time.Unix(0, we.ExpiresAt)
	}
	c.entries.set(key, ent)
	c.tags.add(we.Tags, key)
	return ent, true
}

func (c *cache[V]) RevalidateTag(ctx context.Context, tag string) error {
	if !c.enabled {
		return nil
	}
	past := c.now().Add(-time.Nanosecond)
	marked := 0
	for _, key := range c.tags.keys(tag) {
		if c.markStale(ctx, key, past) {
			marked++
		}
	}
	c.hooks.TagRevalidated(tag, marked)
	if marked > 0 {
		c.log.Debug("tag revalidated", Fields{"tag": tag, "marked": marked})
	}
	return nil
}

func (c *cache[V]) InvalidateKey(ctx context.Context, producer string, keyParts []string, args ...any) error {
	if !c.enabled {
		return nil
	}
	key, err := keys.Derive(producer, keyParts, args)
	if err != nil {
		return &KeyError{Producer: producer, Err: err}
	}
	c.markStale(ctx, key, c.now().Add(-time.Nanosecond))
	return nil
}

// markStale sets the entry's expiry to a past instant - never deleting it -
// in memory and, for persisted entries, in the store. Entries absent from
// memory are resolved from the store first; keys with no resolvable entry
// are silently skipped. The next read observes staleness and its own policy
// decides whether to refresh in the background or block.
func (c *cache[V]) markStale(ctx context.Context, key string, past time.Time) bool {
	ent, ok := c.entries.expire(key, past)
	if !ok {
		if c.store == nil {
			return false
		}
		if _, ok = c.adoptFromStore(ctx, key); !ok {
			return false
		}
		ent, _ = c.entries.expire(key, past)
	}
	if ent == nil {
		return false
	}
	if ent.persisted {
		sk := c.storageKey(key)
		blob, err := c.encodeEntry(ent)
		if err == nil {
			err = c.saves.save(ctx, sk, blob)
		}
		if err != nil {
			c.hooks.PersistError(sk, err)
			c.log.Warn("persist stale mark failed", Fields{"key": key, "err": err})
		}
	}
	return true
}

func (c *cache[V]) Clear(ctx context.Context) error {
	c.entries.clear()
	c.tags.clear()
	if c.store != nil {
		return c.store.Clear(ctx)
	}
	return nil
}

func (c *cache[V]) Stats(ctx context.Context) (Stats, error) {
	out := Stats{MemoryEntries: c.entries.len()}
	if c.store != nil {
		ss, err := c.store.Stats(ctx)
		if err != nil {
			return out, err
		}
		out.StoreEntries = ss.Entries
		out.StoreBytes = ss.Bytes
	}
	return out, nil
}
