// Package varint implements the compressed integer format used by index
// files: 7 bits per byte, most significant group first, high bit set on every
// byte except the last one.
//
// The layout differs from encoding/binary's uvarint (which stores the least
// significant group first), so index files written by the indexer can only be
// decoded with this package.
package varint

// MaxLen64 is the longest encoding of a 64-bit value.
const MaxLen64 = 10

// RowID identifies a document row inside a segment.
type RowID uint32

// WordID identifies a dictionary word (CRC or sequential id).
type WordID uint64

// ByteSource yields the next byte of a stream. Readers never report errors
// through it: a source that runs dry returns zero bytes and remembers the
// condition on its own.
type ByteSource interface {
	NextByte() byte
}

// Len returns the number of bytes Put would write for v.
func Len(v uint64) int {
	n := 1
	for v >>= 7; v != 0; v >>= 7 {
		n++
	}
	return n
}

// Put encodes v into dst and returns the number of bytes written.
// dst must hold at least Len(v) bytes.
func Put(dst []byte, v uint64) int {
	n := Len(v)
	for i := n - 1; i >= 0; i-- {
		b := byte(v & 0x7f)
		if i != n-1 {
			b |= 0x80
		}
		dst[i] = b
		v >>= 7
	}
	return n
}

// Append appends the encoding of v to dst.
func Append(dst []byte, v uint64) []byte {
	var buf [MaxLen64]byte
	n := Put(buf[:], v)
	return append(dst, buf[:n]...)
}

// Decode reads one value from src.
func Decode(src ByteSource) uint64 {
	var res uint64
	for {
		b := src.NextByte()
		res = res<<7 | uint64(b&0x7f)
		if b&0x80 == 0 {
			return res
		}
	}
}

// DecodeU32 reads one value that is known to fit 32 bits.
func DecodeU32(src ByteSource) uint32 {
	var res uint32
	for {
		b := src.NextByte()
		res = res<<7 | uint32(b&0x7f)
		if b&0x80 == 0 {
			return res
		}
	}
}

// DecodeOffset reads a file offset (or an offset delta).
func DecodeOffset(src ByteSource) uint64 { return Decode(src) }

// DecodeRowID reads a row id (or a row id delta).
func DecodeRowID(src ByteSource) RowID { return RowID(DecodeU32(src)) }

// DecodeWordID reads a word id (or a word id delta).
func DecodeWordID(src ByteSource) WordID { return WordID(Decode(src)) }

// Bytes adapts a byte slice to ByteSource. Reading past the end yields zeros
// and sets Overrun.
type Bytes struct {
	Buf     []byte
	Off     int
	Overrun bool
}

// NextByte implements ByteSource.
func (b *Bytes) NextByte() byte {
	if b.Off >= len(b.Buf) {
		b.Overrun = true
		return 0
	}
	c := b.Buf[b.Off]
	b.Off++
	return c
}
