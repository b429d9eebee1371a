// Package keys derives stable cache keys from producer identity, caller key
// parts, and call arguments.
package keys

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/fxamacker/cbor/v2"
)

// Arguments are hashed through canonical CBOR (RFC 8949 Core Deterministic)
// so structurally equal values always produce the same key regardless of map
// iteration order or encoder state.
var detMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Derive builds the cache key for one call as "<producer>:<digest>". The
// producer name prefixes the key so distinct computations can never collide
// even with identical inputs. Every variable-length component is
// length-prefixed before hashing; concatenation ambiguity cannot alias two
// different calls.
func Derive(producer string, parts []string, args []any) (string, error) {
	h := sha256.New()
	writeString(h, producer)

	writeLen(h, len(parts))
	for _, p := range parts {
		writeString(h, p)
	}

	enc, err := detMode.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encode args: %w", err)
	}
	writeLen(h, len(enc))
	h.Write(enc)

	sum := h.Sum(nil)
	return producer + ":" + hex.EncodeToString(sum[:16]), nil
}

func writeString(h hash.Hash, s string) {
	writeLen(h, len(s))
	h.Write([]byte(s))
}

func writeLen(h hash.Hash, n int) {
	var u8 [8]byte
	binary.BigEndian.PutUint64(u8[:], uint64(n))
	h.Write(u8[:])
}
