package swrcache

import (
	"golang.org/x/sync/singleflight"
)

// flightGroup deduplicates producer invocations per cache key. Foreground
// misses and background revalidations share the same group, so at most one
// invocation per key is outstanding no matter which path asked for it; late
// callers attach to the existing invocation and see its result or failure.
type flightGroup[V any] struct {
	g singleflight.Group
}

// begin attaches to the outstanding invocation for key, starting fn in a new
// goroutine if none is running. The returned channel delivers the shared
// result once. The registration is dropped when fn settles, success or not,
// unblocking the next invocation for the key.
func (f *flightGroup[V]) begin(key string, fn func() (V, error)) <-chan singleflight.Result {
	return f.g.DoChan(key, func() (any, error) {
		return fn()
	})
}

// await blocks for a result produced via begin.
func await[V any](ch <-chan singleflight.Result) (V, error) {
	r := <-ch
	if r.Err != nil {
		var zero V
		return zero, r.Err
	}
	v, _ := r.Val.(V)
	return v, nil
}
