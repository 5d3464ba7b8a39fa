// Package scan aggregates heap dump contents for the CLI. The parser
// itself builds no indexes; this package is the caller-side lookup it
// expects, built by streaming the record and sub-record iterators.
package scan

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/sudssf/jvm-hprof-go/hprof"
)

// ClassStat tallies the live objects attributed to one class.
type ClassStat struct {
	Count uint64
	Bytes uint64
}

// Tables is the aggregation the subcommands work from: the string
// table, loaded classes, class dumps and per-class object tallies.
// Duplicate class dumps across segments keep the first occurrence.
type Tables struct {
	Strings    map[hprof.ID]string
	Loaded     map[hprof.ID]*hprof.LoadClassBody      // by class object ID
	ClassDumps map[hprof.ID]*hprof.ClassDump          // first occurrence wins
	Instances  map[hprof.ID]*ClassStat                // instances + object arrays, by class object ID
	PrimArrays map[hprof.HProfTagFieldType]*ClassStat // primitive arrays, by element type
	Records    map[hprof.HProfTagRecord]*RecordStat   // per top-level tag
	SubRecords map[hprof.HProfTagSubRecord]uint64     // per sub-record tag
}

// RecordStat tallies top-level records of one tag.
type RecordStat struct {
	Count uint64
	Bytes uint64 // body bytes
}

func newTables() *Tables {
	return &Tables{
		Strings:    make(map[hprof.ID]string),
		Loaded:     make(map[hprof.ID]*hprof.LoadClassBody),
		ClassDumps: make(map[hprof.ID]*hprof.ClassDump),
		Instances:  make(map[hprof.ID]*ClassStat),
		PrimArrays: make(map[hprof.HProfTagFieldType]*ClassStat),
		Records:    make(map[hprof.HProfTagRecord]*RecordStat),
		SubRecords: make(map[hprof.HProfTagSubRecord]uint64),
	}
}

// ClassName resolves a class object ID to its name as recorded in the
// string table (slash-separated JVM form, e.g. java/lang/String), or a
// hex placeholder when the dump never named it.
func (t *Tables) ClassName(classID hprof.ID) string {
	if lc, ok := t.Loaded[classID]; ok {
		if name, ok := t.Strings[lc.ClassNameID]; ok {
			return name
		}
	}
	return fmt.Sprintf("class@0x%x", uint64(classID))
}

// ClassDump implements the lookup the field projection needs.
func (t *Tables) ClassDump(classID hprof.ID) (*hprof.ClassDump, bool) {
	c, ok := t.ClassDumps[classID]
	return c, ok
}

// Collect streams the whole dump once, sequentially.
func Collect(d *hprof.Dump) (*Tables, error) {
	tables := newTables()

	it := d.Records()
	for {
		rec, err := it.Next()
		if err == io.EOF {
			return tables, nil
		}
		if err != nil {
			return tables, err
		}

		tables.countRecord(rec)
		if err := tables.addRecord(rec); err != nil {
			return tables, err
		}

		if rec.Type == hprof.HPROF_HEAP_DUMP || rec.Type == hprof.HPROF_HEAP_DUMP_SEGMENT {
			if err := tables.addSegment(rec.HeapDump()); err != nil {
				return tables, err
			}
		}
	}
}

// CollectParallel streams metadata sequentially, then decodes heap dump
// segments on workers goroutines. Workers share only the immutable
// mapping; partial tallies merge in segment order once all workers
// finish, so the first class dump occurrence wins as in Collect.
func CollectParallel(ctx context.Context, d *hprof.Dump, workers int) (*Tables, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	tables := newTables()

	// Metadata pass: record headers plus the cheap fixed-shape bodies.
	it := d.Records()
	for {
		rec, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return tables, err
		}
		tables.countRecord(rec)
		if err := tables.addRecord(rec); err != nil {
			return tables, err
		}
	}

	segments, err := d.Segments()
	if err != nil {
		return tables, err
	}

	partials := make([]*Tables, len(segments))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, seg := range segments {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			partial := newTables()
			if err := partial.addSegment(d.SegmentIterator(seg)); err != nil {
				return fmt.Errorf("segment at offset %d: %w", seg.Offset, err)
			}
			partials[i] = partial
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return tables, err
	}
	for _, partial := range partials {
		tables.merge(partial)
	}
	return tables, nil
}

func (t *Tables) countRecord(rec *hprof.HprofRecord) {
	stat, ok := t.Records[rec.Type]
	if !ok {
		stat = &RecordStat{}
		t.Records[rec.Type] = stat
	}
	stat.Count++
	stat.Bytes += uint64(rec.Length)
}

// addRecord ingests the fixed-shape metadata records.
func (t *Tables) addRecord(rec *hprof.HprofRecord) error {
	switch rec.Type {
	case hprof.HPROF_UTF8:
		body, err := rec.UTF8()
		if err != nil {
			return fmt.Errorf("failed to parse UTF8 record: %w", err)
		}
		t.Strings[body.StringID] = body.Text()

	case hprof.HPROF_LOAD_CLASS:
		body, err := rec.LoadClass()
		if err != nil {
			return fmt.Errorf("failed to parse LOAD_CLASS record: %w", err)
		}
		t.Loaded[body.ObjectID] = body
	}
	return nil
}

// addSegment drains one heap dump segment into the tables.
func (t *Tables) addSegment(it *hprof.HeapDumpIterator) error {
	for {
		sub, err := it.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		t.SubRecords[sub.HeapSubTag()]++

		switch s := sub.(type) {
		case *hprof.ClassDump:
			if _, seen := t.ClassDumps[s.ClassObjectID]; !seen {
				t.ClassDumps[s.ClassObjectID] = s
			}
		case *hprof.GCInstanceDump:
			t.tally(s.ClassObjectID, uint64(len(s.InstanceData)))
		case *hprof.GCObjectArrayDump:
			t.tally(s.ClassObjectID, uint64(len(s.ElementBytes())))
		case *hprof.GCPrimitiveArrayDump:
			stat, ok := t.PrimArrays[s.Type]
			if !ok {
				stat = &ClassStat{}
				t.PrimArrays[s.Type] = stat
			}
			stat.Count++
			stat.Bytes += uint64(len(s.ElementBytes()))
		case *hprof.GCRootUnknown:
			return fmt.Errorf("sub-record tag 0x%02x: %w", byte(s.Tag), hprof.ErrBadSubTag)
		}
	}
}

func (t *Tables) tally(classID hprof.ID, bytes uint64) {
	stat, ok := t.Instances[classID]
	if !ok {
		stat = &ClassStat{}
		t.Instances[classID] = stat
	}
	stat.Count++
	stat.Bytes += bytes
}

func (t *Tables) merge(other *Tables) {
	for id, c := range other.ClassDumps {
		if _, seen := t.ClassDumps[id]; !seen {
			t.ClassDumps[id] = c
		}
	}
	for id, stat := range other.Instances {
		dst, ok := t.Instances[id]
		if !ok {
			t.Instances[id] = stat
			continue
		}
		dst.Count += stat.Count
		dst.Bytes += stat.Bytes
	}
	for ft, stat := range other.PrimArrays {
		dst, ok := t.PrimArrays[ft]
		if !ok {
			t.PrimArrays[ft] = stat
			continue
		}
		dst.Count += stat.Count
		dst.Bytes += stat.Bytes
	}
	for tag, n := range other.SubRecords {
		t.SubRecords[tag] += n
	}
}
