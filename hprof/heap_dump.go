package hprof

import (
	"fmt"
	"io"
)

/*
*	A HPROF_HEAP_DUMP or HPROF_HEAP_DUMP_SEGMENT body is itself a stream
*	of sub-records that tiles the body exactly:
*
*	u1    				Sub-record tag (see HProfTagSubRecord)
*	[data]				Sub-record data; length implicit in the tag,
*						the identifier size and payload-declared counts
*
*	Dumps larger than 2 GiB are split across segments; a sub-record never
*	straddles a segment boundary, so each body decodes independently.
 */

// HeapSubRecord is one entry of a heap dump segment: a GC root, a class
// dump, an instance dump or an array dump. Concrete types are the
// GCRoot*, ClassDump, GCInstanceDump, GCObjectArrayDump and
// GCPrimitiveArrayDump structs.
type HeapSubRecord interface {
	HeapSubTag() HProfTagSubRecord
}

// HeapDumpIterator scans the sub-records of one heap dump (segment)
// body. It is forward-only; construct a new one to rescan.
type HeapDumpIterator struct {
	r    *Reader
	done bool
}

// HeapDump returns an iterator over the record's sub-records. It is
// meaningful only for HPROF_HEAP_DUMP and HPROF_HEAP_DUMP_SEGMENT
// records.
func (rec *HprofRecord) HeapDump() *HeapDumpIterator {
	return &HeapDumpIterator{r: rec.reader()}
}

// Next returns the next sub-record. io.EOF signals that the body was
// consumed exactly. A sub-record that would read past the body yields an
// error; an unrecognised sub-tag yields a *GCRootUnknown carrying the
// undecodable remainder, after which the iterator is terminated (the
// stream is not self-delimiting, so there is no way to resynchronise).
func (it *HeapDumpIterator) Next() (HeapSubRecord, error) {
	if it.done {
		return nil, io.EOF
	}
	if it.r.Remaining() == 0 {
		it.done = true
		return nil, io.EOF
	}

	minSubRecord := 1 + int(it.r.IdentifierSize())
	if it.r.Remaining() < minSubRecord {
		it.done = true
		return nil, fmt.Errorf("trailing garbage in heap dump segment (%d bytes): %w",
			it.r.Remaining(), ErrLength)
	}

	offset := it.r.Offset()
	subTagRaw, err := it.r.ReadU1()
	if err != nil {
		it.done = true
		return nil, fmt.Errorf("failed to read sub-record tag: %w", err)
	}
	subTag := HProfTagSubRecord(subTagRaw)

	sub, err := it.readSubRecord(subTag)
	if err != nil {
		it.done = true
		return nil, fmt.Errorf("failed to parse sub-record %s at offset %d: %w", subTag, offset, err)
	}
	return sub, nil
}

func (it *HeapDumpIterator) readSubRecord(subTag HProfTagSubRecord) (HeapSubRecord, error) {
	switch subTag {
	case HPROF_GC_ROOT_JNI_GLOBAL:
		return readGCRootJniGlobal(it.r)
	case HPROF_GC_ROOT_JNI_LOCAL:
		return readGCRootJniLocal(it.r)
	case HPROF_GC_ROOT_JAVA_FRAME:
		return readGCRootJavaFrame(it.r)
	case HPROF_GC_ROOT_NATIVE_STACK:
		return readGCRootNativeStack(it.r)
	case HPROF_GC_ROOT_STICKY_CLASS:
		return readGCRootStickyClass(it.r)
	case HPROF_GC_ROOT_THREAD_BLOCK:
		return readGCRootThreadBlock(it.r)
	case HPROF_GC_ROOT_MONITOR_USED:
		return readGCRootMonitorUsed(it.r)
	case HPROF_GC_ROOT_THREAD_OBJ:
		return readGCRootThreadObject(it.r)
	case HPROF_GC_CLASS_DUMP:
		return readClassDump(it.r)
	case HPROF_GC_INSTANCE_DUMP:
		return readInstanceDump(it.r)
	case HPROF_GC_OBJ_ARRAY_DUMP:
		return readObjectArrayDump(it.r)
	case HPROF_GC_PRIM_ARRAY_DUMP:
		return readPrimitiveArrayDump(it.r)
	default:
		// Sub-record length is implicit in the tag, so an unrecognised
		// tag ends the scan; the remainder stays raw.
		remainder, _ := it.r.ReadNBytes(it.r.Remaining())
		it.done = true
		return &GCRootUnknown{Tag: subTag, Remainder: remainder}, nil
	}
}
