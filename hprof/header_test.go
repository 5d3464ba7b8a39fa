package hprof_test

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudssf/jvm-hprof-go/hprof"
	"github.com/sudssf/jvm-hprof-go/hprof/hproftest"
)

func TestParseHeader(t *testing.T) {
	w := hproftest.NewWriter(8, 0x0000017C9F3B4E20)

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)

	h := d.Header()
	assert.Equal(t, "JAVA PROFILE 1.0.2", h.Format)
	assert.Equal(t, uint32(8), h.IdentifierSize)
	assert.Equal(t, time.UnixMilli(0x0000017C9F3B4E20), h.Timestamp)
	assert.Equal(t, len("JAVA PROFILE 1.0.2")+1+4+8, h.BodyOffset)

	// No records: the iterator yields an empty sequence.
	it := d.Records()
	_, err = it.Next()
	assert.Equal(t, io.EOF, err)
}

func TestParseHeaderPreservesFormatTag(t *testing.T) {
	w := hproftest.NewWriterFormat("JAVA PROFILE 1.0.1", 4, 42)

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "JAVA PROFILE 1.0.1", d.Header().Format)
	assert.Equal(t, uint32(4), d.Header().IdentifierSize)
}

func TestParseHeaderRejectsIdentifierSize(t *testing.T) {
	for _, size := range []uint32{0, 2, 16} {
		w := hproftest.NewWriterFormat(hproftest.Format, size, 0)
		_, err := hprof.Open(w.Bytes())
		assert.ErrorIs(t, err, hprof.ErrIDSize, "identifier size %d", size)
	}
}

func TestParseHeaderTruncated(t *testing.T) {
	full := hproftest.NewWriter(8, 0).Bytes()
	for _, n := range []int{0, 5, len("JAVA PROFILE 1.0.2") + 1, len(full) - 1} {
		_, err := hprof.Open(full[:n])
		assert.ErrorIs(t, err, hprof.ErrTruncated, "prefix of %d bytes", n)
	}
}
