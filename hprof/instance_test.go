package hprof_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudssf/jvm-hprof-go/hprof"
	"github.com/sudssf/jvm-hprof-go/hprof/hproftest"
)

// classTable collects the class dumps of every segment, keyed by class
// object ID, keeping the first occurrence of duplicates.
func classTable(t *testing.T, d *hprof.Dump) map[hprof.ID]*hprof.ClassDump {
	t.Helper()
	classes := map[hprof.ID]*hprof.ClassDump{}
	for _, sub := range drainAllSegments(t, d) {
		if class, ok := sub.(*hprof.ClassDump); ok {
			if _, seen := classes[class.ClassObjectID]; !seen {
				classes[class.ClassObjectID] = class
			}
		}
	}
	return classes
}

func instanceOf(t *testing.T, d *hprof.Dump, objID hprof.ID) *hprof.GCInstanceDump {
	t.Helper()
	for _, sub := range drainAllSegments(t, d) {
		if inst, ok := sub.(*hprof.GCInstanceDump); ok && inst.ObjectID == objID {
			return inst
		}
	}
	t.Fatalf("no instance dump for 0x%x", uint64(objID))
	return nil
}

func drainAllSegments(t *testing.T, d *hprof.Dump) []hprof.HeapSubRecord {
	t.Helper()
	var subs []hprof.HeapSubRecord
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
			subs = append(subs, sub)
		}
	}
	return subs
}

func projectFields(inst *hprof.GCInstanceDump, classes map[hprof.ID]*hprof.ClassDump) ([]hprof.ProjectedField, error) {
	lookup := func(id hprof.ID) (*hprof.ClassDump, bool) {
		c, ok := classes[id]
		return c, ok
	}
	var fields []hprof.ProjectedField
	it := inst.Fields(lookup)
	for {
		f, err := it.Next()
		if err == io.EOF {
			return fields, nil
		}
		if err != nil {
			return fields, err
		}
		fields = append(fields, f)
	}
}

func TestInstanceFieldProjection(t *testing.T) {
	const (
		classID = hprof.ID(0xC1)
		nameA   = hprof.ID(0x61)
		nameB   = hprof.ID(0x62)
		refID   = hprof.ID(0xD00D)
	)

	w := hproftest.NewWriter(8, 0)
	w.HeapDumpSegment(func(s *hproftest.SegmentWriter) {
		s.ClassDump(classID, hprof.NullID, 12, nil, []hproftest.Field{
			{NameID: nameA, Type: hprof.HPROF_INT},
			{NameID: nameB, Type: hprof.HPROF_NORMAL_OBJECT},
		})
		fieldData := append(hproftest.U4(1234), hproftest.EncodeID(refID, 8)...)
		s.InstanceDump(0xE1, 0, classID, fieldData)
	})

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)

	classes := classTable(t, d)
	fields, err := projectFields(instanceOf(t, d, 0xE1), classes)
	require.NoError(t, err)
	require.Len(t, fields, 2)

	assert.Equal(t, classID, fields[0].ClassObjectID)
	assert.Equal(t, nameA, fields[0].NameID)
	assert.Equal(t, int32(1234), fields[0].Value.Int)

	assert.Equal(t, nameB, fields[1].NameID)
	assert.Equal(t, refID, fields[1].Value.ID)
	assert.True(t, fields[1].Value.IsReference())
}

func TestInstanceFieldsWalkSuperChainInOrder(t *testing.T) {
	const (
		child  = hprof.ID(0xC2)
		parent = hprof.ID(0xC1)
	)

	w := hproftest.NewWriter(4, 0)
	w.HeapDumpSegment(func(s *hproftest.SegmentWriter) {
		s.ClassDump(parent, hprof.NullID, 8, nil, []hproftest.Field{
			{NameID: 0x71, Type: hprof.HPROF_LONG},
		})
		s.ClassDump(child, parent, 12, nil, []hproftest.Field{
			{NameID: 0x72, Type: hprof.HPROF_INT},
		})
		// Emission order: immediate class fields first, then supers.
		fieldData := append(hproftest.U4(7), hproftest.U8(900)...)
		s.InstanceDump(0xE1, 0, child, fieldData)
	})

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)

	fields, err := projectFields(instanceOf(t, d, 0xE1), classTable(t, d))
	require.NoError(t, err)
	require.Len(t, fields, 2)

	assert.Equal(t, child, fields[0].ClassObjectID)
	assert.Equal(t, hprof.ID(0x72), fields[0].NameID)
	assert.Equal(t, int32(7), fields[0].Value.Int)

	assert.Equal(t, parent, fields[1].ClassObjectID)
	assert.Equal(t, hprof.ID(0x71), fields[1].NameID)
	assert.Equal(t, int64(900), fields[1].Value.Long)
}

func TestInstanceFieldsBlobTooShort(t *testing.T) {
	w := hproftest.NewWriter(4, 0)
	w.HeapDumpSegment(func(s *hproftest.SegmentWriter) {
		s.ClassDump(0xC1, hprof.NullID, 8, nil, []hproftest.Field{
			{NameID: 0x71, Type: hprof.HPROF_LONG},
		})
		s.InstanceDump(0xE1, 0, 0xC1, hproftest.U4(1)) // 4 bytes, needs 8
	})

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)

	_, err = projectFields(instanceOf(t, d, 0xE1), classTable(t, d))
	assert.ErrorIs(t, err, hprof.ErrFieldBlob)
}

func TestInstanceFieldsTrailingBytes(t *testing.T) {
	w := hproftest.NewWriter(4, 0)
	w.HeapDumpSegment(func(s *hproftest.SegmentWriter) {
		s.ClassDump(0xC1, hprof.NullID, 4, nil, []hproftest.Field{
			{NameID: 0x71, Type: hprof.HPROF_INT},
		})
		s.InstanceDump(0xE1, 0, 0xC1, append(hproftest.U4(1), 0xFF)) // one spare byte
	})

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)

	fields, err := projectFields(instanceOf(t, d, 0xE1), classTable(t, d))
	assert.ErrorIs(t, err, hprof.ErrFieldBlob)
	assert.Len(t, fields, 1) // the valid field was yielded before the error
}

func TestInstanceFieldsSuperCycle(t *testing.T) {
	w := hproftest.NewWriter(4, 0)
	w.HeapDumpSegment(func(s *hproftest.SegmentWriter) {
		s.ClassDump(0xC1, 0xC2, 0, nil, nil)
		s.ClassDump(0xC2, 0xC1, 0, nil, nil)
		s.InstanceDump(0xE1, 0, 0xC1, nil)
	})

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)

	_, err = projectFields(instanceOf(t, d, 0xE1), classTable(t, d))
	assert.ErrorIs(t, err, hprof.ErrSuperCycle)
}

func TestInstanceFieldsMissingClass(t *testing.T) {
	w := hproftest.NewWriter(4, 0)
	w.HeapDumpSegment(func(s *hproftest.SegmentWriter) {
		s.InstanceDump(0xE1, 0, 0xC9, hproftest.U4(1))
	})

	d, err := hprof.Open(w.Bytes())
	require.NoError(t, err)

	_, err = projectFields(instanceOf(t, d, 0xE1), classTable(t, d))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no class dump")
}

// buildWidthFixture writes the same logical dump at a given identifier
// size. All identifiers fit in 32 bits so the decoded values must match
// across widths.
func buildWidthFixture(idSize uint32) []byte {
	w := hproftest.NewWriter(idSize, 1234)
	w.UTF8(0x10, "com/example/Box")
	w.LoadClass(1, 0xC1, 0, 0x10)
	w.HeapDumpSegment(func(s *hproftest.SegmentWriter) {
		s.RootThreadObj(0x99, 1, 2)
		s.ClassDump(0xC1, hprof.NullID, 0, nil, []hproftest.Field{
			{NameID: 0x71, Type: hprof.HPROF_INT},
			{NameID: 0x72, Type: hprof.HPROF_NORMAL_OBJECT},
		})
		fieldData := append(hproftest.U4(42), hproftest.EncodeID(0xA0, idSize)...)
		s.InstanceDump(0xE1, 0, 0xC1, fieldData)
		s.LongArrayDump(0xA0, 0, -1, 7)
	})
	w.HeapDumpEnd()
	return w.Bytes()
}

func TestIdentifierWidthDeterminism(t *testing.T) {
	type decoded struct {
		className string
		fields    []hprof.ProjectedField
		longs     []int64
	}

	decode := func(data []byte) decoded {
		d, err := hprof.Open(data)
		require.NoError(t, err)

		var out decoded
		names := map[hprof.ID]string{}
		var loaded *hprof.LoadClassBody
		for _, rec := range readAll(t, d) {
			switch rec.Type {
			case hprof.HPROF_UTF8:
				body, err := rec.UTF8()
				require.NoError(t, err)
				names[body.StringID] = body.Text()
			case hprof.HPROF_LOAD_CLASS:
				loaded, err = rec.LoadClass()
				require.NoError(t, err)
			}
		}
		require.NotNil(t, loaded)
		out.className = names[loaded.ClassNameID]

		classes := classTable(t, d)
		fields, err := projectFields(instanceOf(t, d, 0xE1), classes)
		require.NoError(t, err)
		out.fields = fields

		for _, sub := range drainAllSegments(t, d) {
			if array, ok := sub.(*hprof.GCPrimitiveArrayDump); ok {
				for i := 0; i < int(array.Length); i++ {
					out.longs = append(out.longs, array.Element(i).Long)
				}
			}
		}
		return out
	}

	narrow := decode(buildWidthFixture(4))
	wide := decode(buildWidthFixture(8))

	assert.Equal(t, narrow.className, wide.className)
	assert.Equal(t, narrow.fields, wide.fields)
	assert.Equal(t, []int64{-1, 7}, narrow.longs)
	assert.Equal(t, narrow.longs, wide.longs)
}
