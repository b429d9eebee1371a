package keys

import (
	"strings"
	"testing"
)

func mustDerive(t *testing.T, producer string, parts []string, args []any) string {
	t.Helper()
	k, err := Derive(producer, parts, args)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	return k
}

func TestDeriveStable(t *testing.T) {
	a := mustDerive(t, "user-by-id", []string{"v2"}, []any{"42", true})
	b := mustDerive(t, "user-by-id", []string{"v2"}, []any{"42", true})
	if a != b {
		t.Fatalf("same call derived different keys: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "user-by-id:") {
		t.Fatalf("key should be prefixed by producer name, got %q", a)
	}
}

func TestDeriveDistinguishes(t *testing.T) {
	base := mustDerive(t, "p", []string{"x"}, []any{1, "a"})
	for name, k := range map[string]string{
		"different producer": mustDerive(t, "q", []string{"x"}, []any{1, "a"}),
		"different parts":    mustDerive(t, "p", []string{"y"}, []any{1, "a"}),
		"different args":     mustDerive(t, "p", []string{"x"}, []any{2, "a"}),
		"extra arg":          mustDerive(t, "p", []string{"x"}, []any{1, "a", nil}),
	} {
		if k == base {
			t.Fatalf("%s collided with base key %q", name, base)
		}
	}
}

// Length prefixing must keep ["ab"] and ["a","b"] apart; plain concatenation
// would alias them.
func TestDeriveNoConcatenationAliasing(t *testing.T) {
	a := mustDerive(t, "p", []string{"ab"}, nil)
	b := mustDerive(t, "p", []string{"a", "b"}, nil)
	if a == b {
		t.Fatalf("parts [ab] and [a b] must not collide")
	}
}

// Canonical encoding: maps with identical contents hash identically no matter
// how they were built.
func TestDeriveCanonicalMaps(t *testing.T) {
	m1 := map[string]int{}
	for _, k := range []string{"a", "b", "c", "d"} {
		m1[k] = len(k)
	}
	m2 := map[string]int{}
	for _, k := range []string{"d", "c", "b", "a"} {
		m2[k] = len(k)
	}
	if mustDerive(t, "p", nil, []any{m1}) != mustDerive(t, "p", nil, []any{m2}) {
		t.Fatalf("structurally equal maps derived different keys")
	}
}

func TestDeriveUnencodableArg(t *testing.T) {
	if _, err := Derive("p", nil, []any{make(chan int)}); err == nil {
		t.Fatalf("expected error for unencodable argument")
	}
}
