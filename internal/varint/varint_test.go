package varint

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPut_KnownEncodings(t *testing.T) {
	tests := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x81, 0x00}},
		{300, []byte{0x82, 0x2c}},
		{16383, []byte{0xff, 0x7f}},
		{16384, []byte{0x81, 0x80, 0x00}},
	}

	for _, tt := range tests {
		got := Append(nil, tt.v)
		assert.Equal(t, tt.want, got, "value %d", tt.v)
		assert.Equal(t, len(tt.want), Len(tt.v), "len of %d", tt.v)
	}
}

func TestRoundTrip_U32(t *testing.T) {
	values := []uint32{0, 1, 2, 126, 127, 128, 255, 256, 16383, 16384, 1 << 21, 1<<28 - 1, 1 << 28, math.MaxUint32 - 1, math.MaxUint32}
	var buf []byte
	for _, v := range values {
		buf = Append(buf, uint64(v))
	}

	src := &Bytes{Buf: buf}
	for _, v := range values {
		require.Equal(t, v, DecodeU32(src))
	}
	assert.False(t, src.Overrun)
	assert.Equal(t, len(buf), src.Off)
}

func TestRoundTrip_U32_Stride(t *testing.T) {
	// walk the whole 32-bit range with a prime stride
	var buf [MaxLen64]byte
	for v := uint64(0); v <= math.MaxUint32; v += 104729 {
		n := Put(buf[:], v)
		src := &Bytes{Buf: buf[:n]}
		if got := DecodeU32(src); uint64(got) != v {
			t.Fatalf("round trip of %d gave %d", v, got)
		}
	}
}

func TestRoundTrip_TypedDecoders(t *testing.T) {
	var buf []byte
	buf = Append(buf, math.MaxUint64)
	buf = Append(buf, 1<<40)
	buf = Append(buf, 77)
	buf = Append(buf, 1<<35+5)

	src := &Bytes{Buf: buf}
	assert.Equal(t, uint64(math.MaxUint64), DecodeOffset(src))
	assert.Equal(t, WordID(1<<40), DecodeWordID(src))
	assert.Equal(t, RowID(77), DecodeRowID(src))
	assert.Equal(t, uint64(1<<35+5), Decode(src))
	assert.Len(t, Append(nil, math.MaxUint64), MaxLen64)
}

func TestDecode_DiffersFromUvarint(t *testing.T) {
	// guard against someone "simplifying" to encoding/binary
	le := binary.AppendUvarint(nil, 300)
	be := Append(nil, 300)
	assert.NotEqual(t, le, be)
}

func TestBytes_Overrun(t *testing.T) {
	src := &Bytes{Buf: []byte{0x81}}
	v := DecodeU32(src)
	assert.True(t, src.Overrun)
	assert.Equal(t, uint32(1<<7), v)
}
