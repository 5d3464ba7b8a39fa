package hprof_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudssf/jvm-hprof-go/hprof"
	"github.com/sudssf/jvm-hprof-go/hprof/hproftest"
)

// readAll drains the iterator, failing the test on any decode error.
func readAll(t *testing.T, d *hprof.Dump) []*hprof.HprofRecord {
	t.Helper()
	var records []*hprof.HprofRecord
	it := d.Records()
	for {
		rec, err := it.Next()
		if err == io.EOF {
			return records
		}
		require.NoError(t, err)
		records = append(records, rec)
	}
}

func TestUTF8Record(t *testing.T) {
	w := hproftest.NewWriter(8, 0)
	w.UTF8(0x1122334455667788, "java/lang/String")

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)

	records := readAll(t, d)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, hprof.HPROF_UTF8, rec.Type)
	assert.Equal(t, uint32(0), rec.TimeOffset)
	assert.Equal(t, uint32(24), rec.Length)

	utf8, err := rec.UTF8()
	require.NoError(t, err)
	assert.Equal(t, hprof.ID(0x1122334455667788), utf8.StringID)
	assert.Equal(t, []byte("java/lang/String"), utf8.Bytes)
	assert.Equal(t, "java/lang/String", utf8.Text())
}

func TestLoadClassResolvesName(t *testing.T) {
	const (
		classID = hprof.ID(0xCAFE)
		nameID  = hprof.ID(0xBEEF)
	)

	w := hproftest.NewWriter(8, 0)
	w.LoadClass(1, classID, 0, nameID)
	w.UTF8(nameID, "java/lang/String")

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)

	// Resolve class names the way a caller would: string table plus
	// load-class table.
	names := map[hprof.ID]string{}
	classes := map[hprof.ID]hprof.ID{}
	for _, rec := range readAll(t, d) {
		switch rec.Type {
		case hprof.HPROF_UTF8:
			body, err := rec.UTF8()
			require.NoError(t, err)
			names[body.StringID] = body.Text()
		case hprof.HPROF_LOAD_CLASS:
			body, err := rec.LoadClass()
			require.NoError(t, err)
			assert.Equal(t, hprof.SerialNum(1), body.ClassSerialNumber)
			classes[body.ObjectID] = body.ClassNameID
		}
	}

	assert.Equal(t, "java/lang/String", names[classes[classID]])
}

func TestRecordLengthsTileFile(t *testing.T) {
	w := hproftest.NewWriter(4, 0)
	w.UTF8(0x10, "main")
	w.LoadClass(1, 0x20, 0, 0x10)
	w.StackFrame(0x30, 0x10, 0x10, 0x10, 1, hprof.LineNative)
	w.StackTrace(1, 1, 0x30)
	w.HeapSummary(1024, 16, 4096, 64)
	w.Record(0x42, 7, []byte{1, 2, 3}) // unknown tag
	w.HeapDumpSegment(func(s *hproftest.SegmentWriter) {
		s.RootStickyClass(0x20)
	})
	w.HeapDumpEnd()

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)

	total := 0
	for _, rec := range readAll(t, d) {
		total += 1 + 4 + 4 + int(rec.Length)
	}
	assert.Equal(t, d.Size()-d.Header().BodyOffset, total)
}

func TestUnknownTagIsNotAnError(t *testing.T) {
	w := hproftest.NewWriter(4, 0)
	w.Record(0x42, 7, []byte{0xDE, 0xAD})
	w.UTF8(0x10, "after")

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)

	records := readAll(t, d)
	require.Len(t, records, 2)
	assert.False(t, records[0].Type.Known())
	assert.Equal(t, hprof.HProfTagRecord(0x42), records[0].Type)
	assert.Equal(t, []byte{0xDE, 0xAD}, records[0].Data)
	assert.Equal(t, hprof.HPROF_UTF8, records[1].Type)
}

func TestTruncatedBodyTerminatesIterator(t *testing.T) {
	w := hproftest.NewWriter(8, 0)
	w.RawRecordHeader(hprof.HPROF_UTF8, 0, 1000)
	w.Raw(make([]byte, 100))

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)

	it := d.Records()
	_, err = it.Next()
	assert.ErrorIs(t, err, hprof.ErrTruncated)

	_, err = it.Next()
	assert.Equal(t, io.EOF, err)
}

func TestStackTrace(t *testing.T) {
	w := hproftest.NewWriter(8, 0)
	w.StackTrace(5, 2, 0xA1, 0xA2, 0xA3)

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)

	records := readAll(t, d)
	require.Len(t, records, 1)

	trace, err := records[0].StackTrace()
	require.NoError(t, err)
	assert.Equal(t, hprof.SerialNum(5), trace.StackTraceSerialNumber)
	assert.Equal(t, hprof.SerialNum(2), trace.ThreadSerialNumber)
	require.Equal(t, uint32(3), trace.NumFrames)
	for i, want := range []hprof.ID{0xA1, 0xA2, 0xA3} {
		assert.Equal(t, want, trace.StackFrameID(i))
	}
}

func TestStackTraceShortTail(t *testing.T) {
	// Declares 4 frames but carries only 1.
	body := append(hproftest.U4(5), hproftest.U4(2)...)
	body = append(body, hproftest.U4(4)...)
	body = append(body, hproftest.EncodeID(0xA1, 8)...)

	w := hproftest.NewWriter(8, 0)
	w.Record(hprof.HPROF_TRACE, 0, body)

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)

	_, err = readAll(t, d)[0].StackTrace()
	assert.ErrorIs(t, err, hprof.ErrLength)
}

func TestStackFrame(t *testing.T) {
	w := hproftest.NewWriter(4, 0)
	w.StackFrame(0x31, 0x11, 0x12, 0x13, 9, hprof.LineCompiled)

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)

	frame, err := readAll(t, d)[0].StackFrame()
	require.NoError(t, err)
	assert.Equal(t, hprof.ID(0x31), frame.StackFrameID)
	assert.Equal(t, hprof.ID(0x11), frame.MethodNameID)
	assert.Equal(t, hprof.ID(0x12), frame.MethodSignatureID)
	assert.Equal(t, hprof.ID(0x13), frame.SourceFileNameID)
	assert.Equal(t, hprof.SerialNum(9), frame.ClassSerialNumber)
	assert.Equal(t, hprof.LineCompiled, frame.LineNumber)
}

func TestThreadRecords(t *testing.T) {
	w := hproftest.NewWriter(8, 0)
	w.StartThread(3, 0x100, 7, 0x200, 0x201, 0x202)
	w.EndThread(3)

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)
	records := readAll(t, d)
	require.Len(t, records, 2)

	start, err := records[0].StartThread()
	require.NoError(t, err)
	assert.Equal(t, hprof.SerialNum(3), start.ThreadSerialNumber)
	assert.Equal(t, hprof.ID(0x100), start.ThreadObjectID)
	assert.Equal(t, hprof.SerialNum(7), start.StackTraceSerialNumber)
	assert.Equal(t, hprof.ID(0x200), start.ThreadNameID)

	end, err := records[1].EndThread()
	require.NoError(t, err)
	assert.Equal(t, hprof.SerialNum(3), end.ThreadSerialNumber)
}

func TestHeapSummary(t *testing.T) {
	w := hproftest.NewWriter(4, 0)
	w.HeapSummary(1024, 16, 1<<33, 100)

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)

	summary, err := readAll(t, d)[0].HeapSummary()
	require.NoError(t, err)
	assert.Equal(t, uint32(1024), summary.LiveBytes)
	assert.Equal(t, uint32(16), summary.LiveInstances)
	assert.Equal(t, uint64(1<<33), summary.BytesAlloc)
	assert.Equal(t, uint64(100), summary.InstancesAlloc)
}

func TestControlSettings(t *testing.T) {
	w := hproftest.NewWriter(4, 0)
	w.ControlSettings(hprof.CONTROL_CPU_SAMPLING, 32)

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)

	cs, err := readAll(t, d)[0].ControlSettings()
	require.NoError(t, err)
	assert.False(t, cs.IsAllocTracesEnabled())
	assert.True(t, cs.IsCPUSamplingEnabled())
	assert.Equal(t, uint16(32), cs.StackTraceDepth)
}

func TestAllocSites(t *testing.T) {
	var body []byte
	body = append(body, 0x00, 0x02) // flags: sorted by allocation
	body = append(body, hproftest.U4(512)...)
	body = append(body, hproftest.U4(2048)...) // total live bytes
	body = append(body, hproftest.U4(10)...)   // total live instances
	body = append(body, hproftest.U8(4096)...)
	body = append(body, hproftest.U8(20)...)
	body = append(body, hproftest.U4(2)...) // two sites
	for i := byte(1); i <= 2; i++ {
		body = append(body, 0) // not an array
		body = append(body, hproftest.U4(uint32(i))...)
		body = append(body, hproftest.U4(1)...)
		body = append(body, hproftest.U4(100*uint32(i))...)
		body = append(body, hproftest.U4(uint32(i))...)
		body = append(body, hproftest.U4(200*uint32(i))...)
		body = append(body, hproftest.U4(2*uint32(i))...)
	}

	w := hproftest.NewWriter(4, 0)
	w.Record(hprof.HPROF_ALLOC_SITES, 0, body)

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)

	sites, err := readAll(t, d)[0].AllocSites()
	require.NoError(t, err)
	assert.True(t, sites.IsSortedByAllocation())
	assert.False(t, sites.IsIncremental())
	assert.Equal(t, uint32(2), sites.NumSites)

	second, err := sites.Site(1)
	require.NoError(t, err)
	assert.Equal(t, hprof.SerialNum(2), second.ClassSerialNumber)
	assert.Equal(t, uint32(200), second.BytesAlive)

	_, err = sites.Site(2)
	assert.ErrorIs(t, err, hprof.ErrLength)
}

func TestCPUSamples(t *testing.T) {
	var body []byte
	body = append(body, hproftest.U4(30)...) // total samples
	body = append(body, hproftest.U4(1)...)  // one trace
	body = append(body, hproftest.U4(30)...)
	body = append(body, hproftest.U4(12)...)

	w := hproftest.NewWriter(4, 0)
	w.Record(hprof.HPROF_CPU_SAMPLES, 0, body)

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)

	samples, err := readAll(t, d)[0].CPUSamples()
	require.NoError(t, err)
	assert.Equal(t, uint32(30), samples.TotalSamples)

	trace, err := samples.Trace(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(30), trace.NumSamples)
	assert.Equal(t, hprof.SerialNum(12), trace.StackTraceSerialNumber)

	_, err = samples.Trace(1)
	assert.ErrorIs(t, err, hprof.ErrLength)
}
