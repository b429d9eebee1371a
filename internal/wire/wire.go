package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const version byte = 1

var (
	ErrCorrupt = errors.New("swrcache: corrupt entry")
	magic4     = [...]byte{'S', 'W', 'R', 'C'}
)

// Entry is the persisted form of one cache entry. Timestamps travel as unix
// nanoseconds; zero means "never expires" for ExpiresAt and "revalidation
// disabled" for Revalidate. Payload is the codec-encoded value, opaque here.
type Entry struct {
	ExpiresAt  int64
	Revalidate int64
	Tags       []string
	Payload    []byte
}

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Frame:
//
//	magic(4) | ver(1) | expiry(i64 be) | reval(i64 be) | ntags(u16 be)
//	{ tagLen(u16 be) | tag }* | vlen(u32 be) | payload(vlen)
func Encode(e Entry) ([]byte, error) {
	if len(e.Tags) > 0xFFFF {
		return nil, errors.New("swrcache: too many tags in entry")
	}

	total := 4 + 1 + 8 + 8 + 2
	for _, t := range e.Tags {
		if l := len(t); l == 0 || l > 0xFFFF {
			return nil, errors.New("swrcache: invalid tag length in entry")
		}
		total += 2 + len(t)
	}
	total += 4 + len(e.Payload)

	var buf bytes.Buffer
	buf.Grow(total)

	buf.Write(magic4[:])
	buf.WriteByte(version)

	var u8 [8]byte
	var u4 [4]byte
	var u2 [2]byte

	binary.BigEndian.PutUint64(u8[:], uint64(e.ExpiresAt))
	buf.Write(u8[:])

	binary.BigEndian.PutUint64(u8[:], uint64(e.Revalidate))
	buf.Write(u8[:])

	binary.BigEndian.PutUint16(u2[:], uint16(len(e.Tags)))
	buf.Write(u2[:])

	for _, t := range e.Tags {
		binary.BigEndian.PutUint16(u2[:], uint16(len(t)))
		buf.Write(u2[:])
		buf.WriteString(t)
	}

	binary.BigEndian.PutUint32(u4[:], uint32(len(e.Payload)))
	buf.Write(u4[:])
	buf.Write(e.Payload)

	return buf.Bytes(), nil
}

// Decode parses a frame produced by Encode. Framing is strict: trailing bytes
// after the payload mean corruption, not extensibility.
func Decode(b []byte) (Entry, error) {
	const hdr = 4 + 1 + 8 + 8 + 2
	if len(b) < hdr || !hasMagic(b) || b[4] != version {
		return Entry{}, ErrCorrupt
	}

	off := 5

	var e Entry
	e.ExpiresAt = int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8
	e.Revalidate = int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8

	n := int(binary.BigEndian.Uint16(b[off : off+2]))
	off += 2

	if n > 0 {
		e.Tags = make([]string, 0, n)
	}
	for i := 0; i < n; i++ {
		if off+2 > len(b) {
			return Entry{}, ErrCorrupt
		}
		tlen := int(binary.BigEndian.Uint16(b[off : off+2]))
		off += 2
		if tlen <= 0 || tlen > len(b)-off {
			return Entry{}, ErrCorrupt
		}
		e.Tags = append(e.Tags, string(b[off:off+tlen]))
		off += tlen
	}

	if off+4 > len(b) {
		return Entry{}, ErrCorrupt
	}
	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off { // overflow-safe, rejects trailing bytes
		return Entry{}, ErrCorrupt
	}
	e.Payload = b[off : off+vlen]

	return e, nil
}
