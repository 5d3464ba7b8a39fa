package hprof

import "fmt"

/*
*	Heap dump segments tile the heap and sub-records never straddle a
*	segment boundary, so segment bodies are safe split points for
*	parallel decoding. Segments enumerates them with a header-only walk:
*	9 bytes read per record, bodies skipped, nothing materialised.
 */

// SegmentRange locates one HPROF_HEAP_DUMP or HPROF_HEAP_DUMP_SEGMENT
// body within the file.
type SegmentRange struct {
	Type       HProfTagRecord
	TimeOffset uint32
	Offset     int64 // absolute byte offset of the body
	Length     uint32
}

// Segments walks the record stream reading only record headers and
// returns the byte ranges of every heap dump (segment) body, in file
// order. The ranges can be handed to worker goroutines, each decoding
// its segment independently via SegmentIterator; the library itself
// owns no parallelism.
func (d *Dump) Segments() ([]SegmentRange, error) {
	r := NewReader(d.data[d.header.BodyOffset:], d.header.IdentifierSize)

	var segments []SegmentRange
	for r.Remaining() > 0 {
		tag, err := r.ReadU1()
		if err != nil {
			return segments, fmt.Errorf("failed to read record type: %w", err)
		}

		timeOffset, err := r.ReadU4()
		if err != nil {
			return segments, fmt.Errorf("failed to read time offset: %w", err)
		}

		length, err := r.ReadU4()
		if err != nil {
			return segments, fmt.Errorf("failed to read record length: %w", err)
		}

		bodyOffset := int64(d.header.BodyOffset) + int64(r.Offset())
		if err := r.Skip(int(length)); err != nil {
			return segments, fmt.Errorf("record %s declares %d byte body: %w",
				HProfTagRecord(tag), length, err)
		}

		switch HProfTagRecord(tag) {
		case HPROF_HEAP_DUMP, HPROF_HEAP_DUMP_SEGMENT:
			segments = append(segments, SegmentRange{
				Type:       HProfTagRecord(tag),
				TimeOffset: timeOffset,
				Offset:     bodyOffset,
				Length:     length,
			})
		}
	}
	return segments, nil
}

// SegmentIterator returns a sub-record iterator over one segment body.
// Iterators over distinct segments share only the immutable mapping and
// may run on different goroutines.
func (d *Dump) SegmentIterator(seg SegmentRange) *HeapDumpIterator {
	body := d.data[seg.Offset : seg.Offset+int64(seg.Length)]
	return &HeapDumpIterator{r: NewReader(body, d.header.IdentifierSize)}
}
