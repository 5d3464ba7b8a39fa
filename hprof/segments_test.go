package hprof_test

import (
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudssf/jvm-hprof-go/hprof"
	"github.com/sudssf/jvm-hprof-go/hprof/hproftest"
)

// buildSegmentedDump writes a dump with several heap dump segments
// interleaved with metadata records.
func buildSegmentedDump(t *testing.T) *hprof.Dump {
	t.Helper()
	w := hproftest.NewWriter(8, 0)
	w.UTF8(0x10, "com/example/Widget")
	w.LoadClass(1, 0xC1, 0, 0x10)
	w.HeapDumpSegment(func(s *hproftest.SegmentWriter) {
		s.RootStickyClass(0xC1)
		s.ClassDump(0xC1, hprof.NullID, 8, nil, []hproftest.Field{
			{NameID: 0x71, Type: hprof.HPROF_LONG},
		})
	})
	w.StackTrace(1, 1)
	w.HeapDumpSegment(func(s *hproftest.SegmentWriter) {
		for i := 0; i < 10; i++ {
			s.InstanceDump(hprof.ID(0xE00+i), 0, 0xC1, hproftest.U8(uint64(i)))
		}
	})
	w.HeapDumpSegment(func(s *hproftest.SegmentWriter) {
		s.LongArrayDump(0xA0, 0, 4, 5, 6)
		s.ObjectArrayDump(0xB0, 0, 0xC1, 0xE00, 0xE01)
	})
	w.HeapDumpEnd()

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)
	return d
}

// describe renders a sub-record as a comparable string.
func describe(sub hprof.HeapSubRecord) string {
	switch s := sub.(type) {
	case *hprof.GCRootStickyClass:
		return fmt.Sprintf("sticky:%x", uint64(s.ObjectID))
	case *hprof.ClassDump:
		return fmt.Sprintf("class:%x:super=%x:fields=%d", uint64(s.ClassObjectID),
			uint64(s.SuperClassObjectID), len(s.InstanceFields))
	case *hprof.GCInstanceDump:
		return fmt.Sprintf("instance:%x:class=%x:%d", uint64(s.ObjectID),
			uint64(s.ClassObjectID), len(s.InstanceData))
	case *hprof.GCObjectArrayDump:
		return fmt.Sprintf("objarray:%x:len=%d", uint64(s.ObjectID), s.Length)
	case *hprof.GCPrimitiveArrayDump:
		return fmt.Sprintf("primarray:%x:%s:len=%d", uint64(s.ObjectID), s.Type, s.Length)
	default:
		return fmt.Sprintf("%T", sub)
	}
}

func TestSegmentsEnumeratesBodies(t *testing.T) {
	d := buildSegmentedDump(t)

	segments, err := d.Segments()
	require.NoError(t, err)
	require.Len(t, segments, 3)

	for i, seg := range segments {
		assert.Equal(t, hprof.HPROF_HEAP_DUMP_SEGMENT, seg.Type, "segment %d", i)
		assert.Greater(t, seg.Length, uint32(0), "segment %d", i)
		// The located body must decode cleanly on its own.
		it := d.SegmentIterator(seg)
		for {
			_, err := it.Next()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
		}
	}

	// Segments appear in file order, bodies non-overlapping.
	for i := 1; i < len(segments); i++ {
		assert.GreaterOrEqual(t, segments[i].Offset,
			segments[i-1].Offset+int64(segments[i-1].Length))
	}
}

func TestParallelSegmentDecodeMatchesSequential(t *testing.T) {
	d := buildSegmentedDump(t)

	var sequential []string
	for _, rec := range readAll(t, d) {
		if rec.Type != hprof.HPROF_HEAP_DUMP && rec.Type != hprof.HPROF_HEAP_DUMP_SEGMENT {
			continue
		}
		it := rec.HeapDump()
		for {
			sub, err := it.Next()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			sequential = append(sequential, describe(sub))
		}
	}

	segments, err := d.Segments()
	require.NoError(t, err)

	// One worker per segment; workers share only the immutable mapping.
	results := make([][]string, len(segments))
	var wg sync.WaitGroup
	for i, seg := range segments {
		wg.Add(1)
		go func(i int, seg hprof.SegmentRange) {
			defer wg.Done()
			it := d.SegmentIterator(seg)
			for {
				sub, err := it.Next()
				if err != nil {
					return
				}
				results[i] = append(results[i], describe(sub))
			}
		}(i, seg)
	}
	wg.Wait()

	var parallel []string
	for _, r := range results {
		parallel = append(parallel, r...)
	}
	assert.ElementsMatch(t, sequential, parallel)
}

func TestSegmentsTruncatedFile(t *testing.T) {
	w := hproftest.NewWriter(8, 0)
	w.RawRecordHeader(hprof.HPROF_HEAP_DUMP_SEGMENT, 0, 500)
	w.Raw(make([]byte, 10))

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)

	_, err = d.Segments()
	assert.ErrorIs(t, err, hprof.ErrTruncated)
}
