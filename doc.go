// Package swrcache implements a process-local memoization cache with
// stale-while-revalidate semantics for asynchronous producers. Expired entries
// are served immediately while a single background refresh recomputes them;
// concurrent requests for the same key share one producer invocation.
//
// Components:
//   - Producer[V]: a named async computation plus its caching policy
//     (revalidation interval, tags, stale handling, placeholder).
//   - Store: optional blob backend persisting entries across restarts
//     (disk by default; BigCache, Ristretto and Redis adapters provided).
//   - Codec[V]: (de)serializes V <-> []byte for persisted entries.
//
// Keys:
//
//	<producer>:<digest>  - digest over key parts + canonically encoded args
//
// SWR pattern:
//
//	v, _ := cache.GetOrCompute(ctx, userByID, "42")
//	// fresh entry -> cached value, no side effects
//	// stale entry -> previous value now, one refresh in the background
//	// cold miss   -> producer runs once; concurrent callers attach
//
// Tag invalidation marks entries stale rather than deleting them, so stale
// data stays servable until the next successful refresh:
//
//	_ = cache.RevalidateTag(ctx, "users")
package swrcache
