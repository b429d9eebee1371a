package swrcache

import (
	"context"
	"time"

	co "github.com/unkn0wn-root/swrcache/codec"
	st "github.com/unkn0wn-root/swrcache/store"
)

// ComputeFunc produces the value being cached.
type ComputeFunc[V any] func(ctx context.Context, args ...any) (V, error)

// Producer describes one cached computation and its policy. Name and Compute
// are required; everything else has a usable zero value.
type Producer[V any] struct {
	// Name is the stable identity of the computation. Keys derived for
	// different names never collide, so producers can safely share argument
	// shapes. Register a fixed name per cached function; do not derive it
	// from anything environment-dependent.
	Name string

	// KeyParts are extra strings folded into the cache key, for callers whose
	// closure state is not captured by the arguments.
	KeyParts []string

	// Compute produces the value. At most one invocation per key is
	// outstanding at any instant; a failure propagates to every attached
	// caller and is never retried by the cache. The context it receives is
	// detached from the triggering caller's cancellation - a started
	// invocation runs to completion.
	Compute ComputeFunc[V]

	// Revalidate is how long a computed value stays fresh. 0 means the value
	// never expires until tag- or key-invalidated.
	Revalidate time.Duration

	// Tags label entries for bulk invalidation via RevalidateTag.
	Tags []string

	// BlockOnStale disables stale-while-revalidate for this producer: a stale
	// hit blocks for a fresh value instead of returning the old one. The
	// stale entry is bypassed, not dropped; it survives a failed refresh.
	BlockOnStale bool

	// Placeholder, when set, is returned immediately whenever answering would
	// otherwise mean awaiting a producer invocation. Must not block.
	Placeholder func(args ...any) V

	// NoPersist keeps this producer's entries out of the configured Store.
	NoPersist bool
}

// Stats is a point-in-time snapshot of cache contents.
type Stats struct {
	MemoryEntries int
	StoreEntries  int
	StoreBytes    int64
}

// Cache is the stale-while-revalidate memoization engine.
// V is the caller's value type; one engine caches one value type.
type Cache[V any] interface {
	Enabled() bool
	Close(context.Context) error

	// GetOrCompute returns the cached value for {p, args}, computing or
	// refreshing it as the entry's freshness dictates. See package docs for
	// the decision order.
	GetOrCompute(ctx context.Context, p Producer[V], args ...any) (V, error)

	// RevalidateTag marks every entry carrying tag as stale, in memory and in
	// the configured store. Entries are not deleted; the next read of each
	// key refreshes or blocks per its producer's policy. Unknown tags no-op.
	RevalidateTag(ctx context.Context, tag string) error

	// InvalidateKey marks the single entry for {producer, keyParts, args}
	// stale, same mechanism as RevalidateTag.
	InvalidateKey(ctx context.Context, producer string, keyParts []string, args ...any) error

	// Clear drops all in-memory entries and deletes all persisted blobs.
	Clear(ctx context.Context) error

	// Stats counts in-memory entries and persisted blobs/bytes.
	Stats(ctx context.Context) (Stats, error)
}

// Options tune the engine. Only Namespace is required; a nil Store disables
// persistence, and Codec is required only when a Store is set.
type Options[V any] struct {
	// Required
	Namespace string // isolates storage keys, e.g. "user", "report"

	Store st.Store    // nil => persistence disabled
	Codec co.Codec[V] // e.g. codec.MustCBOR[V](false)

	Logger   Logger // if nil, NopLogger is used
	Hooks    Hooks  // if nil, NopHooks is used
	Disabled bool   // bypass caching entirely; producers run directly
}

func New[V any](opts Options[V]) (Cache[V], error) {
	return newCache[V](opts)
}

// Memoize binds a producer to a cache, giving it the call shape of a plain
// function:
//
//	userByID := swrcache.Memoize(cache, swrcache.Producer[User]{
//	    Name:       "user-by-id",
//	    Compute:    fetchUser,
//	    Revalidate: time.Minute,
//	    Tags:       []string{"users"},
//	})
//	u, err := userByID(ctx, id)
func Memoize[V any](c Cache[V], p Producer[V]) func(ctx context.Context, args ...any) (V, error) {
	return func(ctx context.Context, args ...any) (V, error) {
		return c.GetOrCompute(ctx, p, args...)
	}
}
