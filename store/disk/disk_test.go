package disk

import (
	"bytes"
	"context"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestSetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	key := "ns:user-by-id:abcdef"
	blob := []byte("payload-bytes")

	if _, ok, err := s.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected miss before set, ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, key, blob); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := s.Get(ctx, key)
	if err != nil || !ok || !bytes.Equal(got, blob) {
		t.Fatalf("Get after set: ok=%v err=%v got=%q", ok, err, got)
	}
}

func TestSetReplacesAtomically(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.Set(ctx, "k", []byte("old")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "k", []byte("new")); err != nil {
		t.Fatalf("Set replace: %v", err)
	}
	got, _, _ := s.Get(ctx, "k")
	if string(got) != "new" {
		t.Fatalf("expected replacement, got %q", got)
	}
	// Temp files must not linger after writes.
	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Entries != 1 {
		t.Fatalf("expected 1 entry after replace, got %d", st.Entries)
	}
}

func TestDelMissingIsNoError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if err := s.Del(ctx, "never-set"); err != nil {
		t.Fatalf("Del missing: %v", err)
	}
}

func TestClearAndStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	blobs := map[string][]byte{
		"a": []byte("aa"),
		"b": []byte("bbbb"),
		"c": []byte("cccccc"),
	}
	var want int64
	for k, b := range blobs {
		if err := s.Set(ctx, k, b); err != nil {
			t.Fatalf("Set %q: %v", k, err)
		}
		want += int64(len(b))
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Entries != len(blobs) || st.Bytes != want {
		t.Fatalf("Stats got %+v, want entries=%d bytes=%d", st, len(blobs), want)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	st, err = s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats after clear: %v", err)
	}
	if st.Entries != 0 || st.Bytes != 0 {
		t.Fatalf("expected empty store after clear, got %+v", st)
	}
	for k := range blobs {
		if _, ok, _ := s.Get(ctx, k); ok {
			t.Fatalf("key %q survived Clear", k)
		}
	}
}

// Keys with path-hostile characters must be safe; filenames are digests.
func TestHostileKeys(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, k := range []string{"../../etc/passwd", "a/b/c", "k\x00null", ""} {
		if err := s.Set(ctx, k, []byte("v")); err != nil {
			t.Fatalf("Set %q: %v", k, err)
		}
		got, ok, err := s.Get(ctx, k)
		if err != nil || !ok || string(got) != "v" {
			t.Fatalf("Get %q: ok=%v err=%v got=%q", k, ok, err, got)
		}
	}
}
