package core

// byteutil.go – big-endian integer pack/unpack, XOR, hex helpers, and
// length-prefixed framing (§4.2). Grounded on the teacher's ledger.go binary
// WAL-record handling, generalized into small pure functions with no
// package-level state.

import (
	"encoding/binary"
	"encoding/hex"
)

func hexEncode(b []byte) string { return hex.EncodeToString(b) }

func hexDecode(s string) ([]byte, error) { return hex.DecodeString(s) }

// PutUint8 writes v at buf[off].
func PutUint8(buf []byte, off int, v uint8) { buf[off] = v }

// Uint8 reads a byte at buf[off].
func Uint8(buf []byte, off int) uint8 { return buf[off] }

// PutUint16 writes v big-endian at buf[off:off+2].
func PutUint16(buf []byte, off int, v uint16) { binary.BigEndian.PutUint16(buf[off:], v) }

// Uint16 reads a big-endian uint16 at buf[off:off+2].
func Uint16(buf []byte, off int) uint16 { return binary.BigEndian.Uint16(buf[off:]) }

// PutUint32 writes v big-endian at buf[off:off+4].
func PutUint32(buf []byte, off int, v uint32) { binary.BigEndian.PutUint32(buf[off:], v) }

// Uint32 reads a big-endian uint32 at buf[off:off+4].
func Uint32(buf []byte, off int) uint32 { return binary.BigEndian.Uint32(buf[off:]) }

// PutUint64 writes v big-endian at buf[off:off+8].
func PutUint64(buf []byte, off int, v uint64) { binary.BigEndian.PutUint64(buf[off:], v) }

// Uint64 reads a big-endian uint64 at buf[off:off+8].
func Uint64(buf []byte, off int) uint64 { return binary.BigEndian.Uint64(buf[off:]) }

// XORBytes returns a ⊕ b. Both slices must have equal length.
func XORBytes(a, b []byte) ([]byte, error) {
	if len(a) != len(b) {
		return nil, ErrLengthMismatch(len(a), len(b))
	}
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out, nil
}

// XORAll combines two or more equal-length byte slices with XOR.
func XORAll(bufs ...[]byte) ([]byte, error) {
	if len(bufs) == 0 {
		return nil, ErrValidationFailed("xor: no inputs")
	}
	out := make([]byte, len(bufs[0]))
	copy(out, bufs[0])
	for _, b := range bufs[1:] {
		var err error
		out, err = XORBytes(out, b)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// lengthTag enumerates the size of the length field in a framed payload.
type lengthTag uint8

const (
	tagU8 lengthTag = iota
	tagU16
	tagU32
	tagU64
)

// EncodeFramed writes a one-byte tag, a tag-sized big-endian length, then
// payload, choosing the smallest tag that can hold len(payload).
func EncodeFramed(payload []byte) []byte {
	n := len(payload)
	switch {
	case n <= 0xFF:
		buf := make([]byte, 1+1+n)
		buf[0] = byte(tagU8)
		buf[1] = byte(n)
		copy(buf[2:], payload)
		return buf
	case n <= 0xFFFF:
		buf := make([]byte, 1+2+n)
		buf[0] = byte(tagU16)
		PutUint16(buf, 1, uint16(n))
		copy(buf[3:], payload)
		return buf
	case n <= 0xFFFFFFFF:
		buf := make([]byte, 1+4+n)
		buf[0] = byte(tagU32)
		PutUint32(buf, 1, uint32(n))
		copy(buf[5:], payload)
		return buf
	default:
		buf := make([]byte, 1+8+n)
		buf[0] = byte(tagU64)
		PutUint64(buf, 1, uint64(n))
		copy(buf[9:], payload)
		return buf
	}
}

// DecodeFramed reverses EncodeFramed, returning the payload and the number
// of bytes consumed from buf.
func DecodeFramed(buf []byte) (payload []byte, consumed int, err error) {
	if len(buf) < 1 {
		return nil, 0, ErrValidationFailed("framed: truncated tag")
	}
	tag := lengthTag(buf[0])
	var lenFieldSize int
	var n int
	switch tag {
	case tagU8:
		lenFieldSize = 1
		if len(buf) < 2 {
			return nil, 0, ErrValidationFailed("framed: truncated u8 length")
		}
		n = int(Uint8(buf, 1))
	case tagU16:
		lenFieldSize = 2
		if len(buf) < 3 {
			return nil, 0, ErrValidationFailed("framed: truncated u16 length")
		}
		n = int(Uint16(buf, 1))
	case tagU32:
		lenFieldSize = 4
		if len(buf) < 5 {
			return nil, 0, ErrValidationFailed("framed: truncated u32 length")
		}
		n = int(Uint32(buf, 1))
	case tagU64:
		lenFieldSize = 8
		if len(buf) < 9 {
			return nil, 0, ErrValidationFailed("framed: truncated u64 length")
		}
		n = int(Uint64(buf, 1))
	default:
		return nil, 0, ErrValidationFailed("framed: unknown length tag")
	}
	start := 1 + lenFieldSize
	end := start + n
	if end > len(buf) {
		return nil, 0, ErrValidationFailed("framed: truncated payload")
	}
	return buf[start:end], end, nil
}

// PadWithLengthPrefix frames payload (via EncodeFramed) then zero-pads the
// result up to size bytes. Fails if the framed payload already exceeds size.
func PadWithLengthPrefix(payload []byte, size int) ([]byte, error) {
	framed := EncodeFramed(payload)
	if len(framed) > size {
		return nil, ErrValidationFailed("padded payload exceeds block size")
	}
	out := make([]byte, size)
	copy(out, framed)
	return out, nil
}

// UnpadLengthPrefix reverses PadWithLengthPrefix, ignoring trailing padding.
func UnpadLengthPrefix(padded []byte) ([]byte, error) {
	payload, _, err := DecodeFramed(padded)
	return payload, err
}

// ZeroPad returns data right-padded with zero bytes to size. Fails if data
// is already longer than size.
func ZeroPad(data []byte, size int) ([]byte, error) {
	if len(data) > size {
		return nil, ErrValidationFailed("payload exceeds block size")
	}
	out := make([]byte, size)
	copy(out, data)
	return out, nil
}

// RandomPad returns data right-padded to size using the supplied random
// source for the pad bytes (used for raw-chunk padding, §3).
func RandomPad(data []byte, size int, rnd func(int) ([]byte, error)) ([]byte, error) {
	if len(data) > size {
		return nil, ErrValidationFailed("payload exceeds block size")
	}
	out := make([]byte, size)
	copy(out, data)
	if size > len(data) {
		pad, err := rnd(size - len(data))
		if err != nil {
			return nil, err
		}
		copy(out[len(data):], pad)
	}
	return out, nil
}
