package wire

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func mustEncode(t *testing.T, e Entry) []byte {
	t.Helper()
	b, err := Encode(e)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return b
}

func TestRoundTrip(t *testing.T) {
	now := time.Now()
	in := Entry{
		ExpiresAt:  now.Add(time.Minute).UnixNano(),
		Revalidate: int64(30 * time.Second),
		Tags:       []string{"users", "reports"},
		Payload:    []byte(`{"id":"1"}`),
	}
	out, err := Decode(mustEncode(t, in))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.ExpiresAt != in.ExpiresAt || out.Revalidate != in.Revalidate {
		t.Fatalf("timestamps mangled: got %+v want %+v", out, in)
	}
	if len(out.Tags) != 2 || out.Tags[0] != "users" || out.Tags[1] != "reports" {
		t.Fatalf("tags mangled: %v", out.Tags)
	}
	if !bytes.Equal(out.Payload, in.Payload) {
		t.Fatalf("payload mangled: %q", out.Payload)
	}
}

// Zero expiry ("never expires") and zero revalidate ("disabled") must survive
// the round trip as zeros, not as 1970 timestamps.
func TestRoundTripNeverExpires(t *testing.T) {
	out, err := Decode(mustEncode(t, Entry{Payload: []byte("x")}))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.ExpiresAt != 0 || out.Revalidate != 0 {
		t.Fatalf("expected zero expiry/revalidate, got %+v", out)
	}
	if len(out.Tags) != 0 {
		t.Fatalf("expected no tags, got %v", out.Tags)
	}
}

// Decode must reject trailing bytes (strict framing).
func TestDecodeRejectsTrailing(t *testing.T) {
	b := mustEncode(t, Entry{Payload: []byte("x"), Tags: []string{"t"}})
	b = append(b, 0xDE, 0xAD)
	if _, err := Decode(b); err == nil {
		t.Fatalf("Decode should reject trailing bytes")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, b := range [][]byte{
		nil,
		[]byte("not-wire-format"),
		{'S', 'W', 'R', 'C'},             // magic only
		{'S', 'W', 'R', 'C', 99},         // bad version
		{'X', 'X', 'X', 'X', 1, 0, 0, 0}, // bad magic
	} {
		if _, err := Decode(b); err == nil {
			t.Fatalf("Decode should fail on %q", b)
		}
	}
}

// A truncated frame must error cleanly, never panic or over-read.
func TestDecodeTruncated(t *testing.T) {
	full := mustEncode(t, Entry{
		ExpiresAt: 1, Revalidate: 2,
		Tags:    []string{"users"},
		Payload: []byte("payload"),
	})
	for i := 1; i < len(full); i++ {
		if _, err := Decode(full[:i]); err == nil {
			t.Fatalf("Decode should fail on truncation at %d", i)
		}
	}
}

// Encode should error on invalid tag lengths (0 and > 0xFFFF),
// and succeed on boundary length 0xFFFF.
func TestEncodeTagLengthValidation(t *testing.T) {
	if _, err := Encode(Entry{Tags: []string{""}}); err == nil {
		t.Fatalf("Encode should error on empty tag")
	}

	longTag := strings.Repeat("a", 0x10000)
	if _, err := Encode(Entry{Tags: []string{longTag}}); err == nil {
		t.Fatalf("Encode should error on tag length > 0xFFFF")
	}

	boundaryTag := strings.Repeat("b", 0xFFFF)
	if _, err := Encode(Entry{Tags: []string{boundaryTag}, Payload: []byte("x")}); err != nil {
		t.Fatalf("Encode should succeed at 0xFFFF tag length, got err: %v", err)
	}
}
