package hprof_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudssf/jvm-hprof-go/hprof"
)

func TestReaderBigEndian(t *testing.T) {
	r := hprof.NewReader([]byte{0x01, 0x02, 0x03, 0x04}, 4)

	v, err := r.ReadU4()
	require.NoError(t, err)
	assert.Equal(t, uint32(16909060), v)
	assert.Equal(t, 0, r.Remaining())
}

func TestReaderPrimitives(t *testing.T) {
	data := []byte{
		0xAB,                   // u1
		0x12, 0x34,             // u2
		0xFF, 0xFF, 0xFF, 0xFE, // i4 = -2
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x2A, // u8
		0x3F, 0x80, 0x00, 0x00, // f4 = 1.0
	}
	r := hprof.NewReader(data, 4)

	u1, err := r.ReadU1()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAB), u1)

	u2, err := r.ReadU2()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u2)

	i4, err := r.ReadI4()
	require.NoError(t, err)
	assert.Equal(t, int32(-2), i4)

	u8, err := r.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), u8)

	f4, err := r.ReadF4()
	require.NoError(t, err)
	assert.Equal(t, float32(1.0), f4)

	assert.Equal(t, 0, r.Remaining())
}

func TestReaderIdentifierWidth(t *testing.T) {
	data := []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88}

	r4 := hprof.NewReader(data, 4)
	id, err := r4.ReadID()
	require.NoError(t, err)
	assert.Equal(t, hprof.ID(0x11223344), id)
	assert.Equal(t, 4, r4.Remaining())

	r8 := hprof.NewReader(data, 8)
	id, err = r8.ReadID()
	require.NoError(t, err)
	assert.Equal(t, hprof.ID(0x1122334455667788), id)
	assert.Equal(t, 0, r8.Remaining())
}

func TestReaderTruncation(t *testing.T) {
	r := hprof.NewReader([]byte{0x01, 0x02}, 4)

	_, err := r.ReadU4()
	assert.ErrorIs(t, err, hprof.ErrTruncated)

	// The failed read must not consume anything.
	u2, err := r.ReadU2()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), u2)

	_, err = r.ReadU1()
	assert.ErrorIs(t, err, hprof.ErrTruncated)
}

func TestReaderNBytesBorrowsRange(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	r := hprof.NewReader(data, 4)

	b, err := r.ReadNBytes(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, b)

	// Zero-copy: the returned slice aliases the input.
	data[0] = 9
	assert.Equal(t, byte(9), b[0])
}

func TestReaderString(t *testing.T) {
	r := hprof.NewReader([]byte("hello\x00rest"), 4)

	s, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
	assert.Equal(t, 4, r.Remaining())

	_, err = r.ReadString()
	assert.ErrorIs(t, err, hprof.ErrTruncated)
}
