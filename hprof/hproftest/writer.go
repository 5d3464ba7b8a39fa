// Package hproftest synthesizes small HPROF dumps in memory. It exists
// for the parser's test suite but is usable anywhere a hand-built dump
// beats a captured one.
package hproftest

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/sudssf/jvm-hprof-go/hprof"
)

// Format is the header tag emitted by HotSpot since JDK 6.
const Format = "JAVA PROFILE 1.0.2"

// Writer accumulates an HPROF file: header first, then records appended
// through the helper methods. Writers are test helpers; malformed input
// (such as an identifier that does not fit the declared size) panics.
type Writer struct {
	buf    bytes.Buffer
	idSize uint32
}

// NewWriter starts a dump with the standard format tag and the given
// identifier size (4 or 8) and header timestamp.
func NewWriter(idSize uint32, timestampMilli uint64) *Writer {
	return NewWriterFormat(Format, idSize, timestampMilli)
}

func NewWriterFormat(format string, idSize uint32, timestampMilli uint64) *Writer {
	w := &Writer{idSize: idSize}
	w.buf.WriteString(format)
	w.buf.WriteByte(0)
	writeU4(&w.buf, idSize)
	writeU8(&w.buf, timestampMilli)
	return w
}

func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

func (w *Writer) IdentifierSize() uint32 {
	return w.idSize
}

// Record appends one top-level record with the given tag, time offset
// and body.
func (w *Writer) Record(tag hprof.HProfTagRecord, timeOffset uint32, body []byte) {
	w.buf.WriteByte(byte(tag))
	writeU4(&w.buf, timeOffset)
	writeU4(&w.buf, uint32(len(body)))
	w.buf.Write(body)
}

// RawRecordHeader appends a record header without its body, to fabricate
// truncated files.
func (w *Writer) RawRecordHeader(tag hprof.HProfTagRecord, timeOffset, length uint32) {
	w.buf.WriteByte(byte(tag))
	writeU4(&w.buf, timeOffset)
	writeU4(&w.buf, length)
}

// Raw appends arbitrary bytes verbatim.
func (w *Writer) Raw(p []byte) {
	w.buf.Write(p)
}

func (w *Writer) UTF8(stringID hprof.ID, text string) {
	var body bytes.Buffer
	writeID(&body, stringID, w.idSize)
	body.WriteString(text)
	w.Record(hprof.HPROF_UTF8, 0, body.Bytes())
}

func (w *Writer) LoadClass(serial hprof.SerialNum, objectID hprof.ID, stackSerial hprof.SerialNum, nameID hprof.ID) {
	var body bytes.Buffer
	writeU4(&body, uint32(serial))
	writeID(&body, objectID, w.idSize)
	writeU4(&body, uint32(stackSerial))
	writeID(&body, nameID, w.idSize)
	w.Record(hprof.HPROF_LOAD_CLASS, 0, body.Bytes())
}

func (w *Writer) UnloadClass(serial hprof.SerialNum) {
	var body bytes.Buffer
	writeU4(&body, uint32(serial))
	w.Record(hprof.HPROF_UNLOAD_CLASS, 0, body.Bytes())
}

func (w *Writer) StackFrame(frameID, methodNameID, methodSigID, sourceFileID hprof.ID, classSerial hprof.SerialNum, line int32) {
	var body bytes.Buffer
	writeID(&body, frameID, w.idSize)
	writeID(&body, methodNameID, w.idSize)
	writeID(&body, methodSigID, w.idSize)
	writeID(&body, sourceFileID, w.idSize)
	writeU4(&body, uint32(classSerial))
	writeU4(&body, uint32(line))
	w.Record(hprof.HPROF_FRAME, 0, body.Bytes())
}

func (w *Writer) StackTrace(stackSerial, threadSerial hprof.SerialNum, frameIDs ...hprof.ID) {
	var body bytes.Buffer
	writeU4(&body, uint32(stackSerial))
	writeU4(&body, uint32(threadSerial))
	writeU4(&body, uint32(len(frameIDs)))
	for _, id := range frameIDs {
		writeID(&body, id, w.idSize)
	}
	w.Record(hprof.HPROF_TRACE, 0, body.Bytes())
}

func (w *Writer) StartThread(threadSerial hprof.SerialNum, threadObjID hprof.ID, stackSerial hprof.SerialNum, nameID, groupNameID, parentGroupNameID hprof.ID) {
	var body bytes.Buffer
	writeU4(&body, uint32(threadSerial))
	writeID(&body, threadObjID, w.idSize)
	writeU4(&body, uint32(stackSerial))
	writeID(&body, nameID, w.idSize)
	writeID(&body, groupNameID, w.idSize)
	writeID(&body, parentGroupNameID, w.idSize)
	w.Record(hprof.HPROF_START_THREAD, 0, body.Bytes())
}

func (w *Writer) EndThread(threadSerial hprof.SerialNum) {
	var body bytes.Buffer
	writeU4(&body, uint32(threadSerial))
	w.Record(hprof.HPROF_END_THREAD, 0, body.Bytes())
}

func (w *Writer) HeapSummary(liveBytes, liveInstances uint32, bytesAlloc, instancesAlloc uint64) {
	var body bytes.Buffer
	writeU4(&body, liveBytes)
	writeU4(&body, liveInstances)
	writeU8(&body, bytesAlloc)
	writeU8(&body, instancesAlloc)
	w.Record(hprof.HPROF_HEAP_SUMMARY, 0, body.Bytes())
}

func (w *Writer) ControlSettings(flags uint32, depth uint16) {
	var body bytes.Buffer
	writeU4(&body, flags)
	writeU2(&body, depth)
	w.Record(hprof.HPROF_CONTROL_SETTINGS, 0, body.Bytes())
}

// HeapDumpSegment appends a HPROF_HEAP_DUMP_SEGMENT record whose body is
// built by fill.
func (w *Writer) HeapDumpSegment(fill func(*SegmentWriter)) {
	s := &SegmentWriter{idSize: w.idSize}
	fill(s)
	w.Record(hprof.HPROF_HEAP_DUMP_SEGMENT, 0, s.Bytes())
}

// HeapDump appends a legacy single-record HPROF_HEAP_DUMP.
func (w *Writer) HeapDump(fill func(*SegmentWriter)) {
	s := &SegmentWriter{idSize: w.idSize}
	fill(s)
	w.Record(hprof.HPROF_HEAP_DUMP, 0, s.Bytes())
}

func (w *Writer) HeapDumpEnd() {
	w.Record(hprof.HPROF_HEAP_DUMP_END, 0, nil)
}

// SegmentWriter builds the sub-record stream of one heap dump segment.
type SegmentWriter struct {
	buf    bytes.Buffer
	idSize uint32
}

func (s *SegmentWriter) Bytes() []byte {
	return s.buf.Bytes()
}

// Raw appends arbitrary bytes verbatim, for malformed-stream fixtures.
func (s *SegmentWriter) Raw(p []byte) {
	s.buf.Write(p)
}

func (s *SegmentWriter) RootJniGlobal(objectID, jniRefID hprof.ID) {
	s.buf.WriteByte(byte(hprof.HPROF_GC_ROOT_JNI_GLOBAL))
	writeID(&s.buf, objectID, s.idSize)
	writeID(&s.buf, jniRefID, s.idSize)
}

func (s *SegmentWriter) RootJniLocal(objectID hprof.ID, threadSerial, frameNum hprof.SerialNum) {
	s.buf.WriteByte(byte(hprof.HPROF_GC_ROOT_JNI_LOCAL))
	writeID(&s.buf, objectID, s.idSize)
	writeU4(&s.buf, uint32(threadSerial))
	writeU4(&s.buf, uint32(frameNum))
}

func (s *SegmentWriter) RootJavaFrame(objectID hprof.ID, threadSerial, frameNum hprof.SerialNum) {
	s.buf.WriteByte(byte(hprof.HPROF_GC_ROOT_JAVA_FRAME))
	writeID(&s.buf, objectID, s.idSize)
	writeU4(&s.buf, uint32(threadSerial))
	writeU4(&s.buf, uint32(frameNum))
}

func (s *SegmentWriter) RootNativeStack(objectID hprof.ID, threadSerial hprof.SerialNum) {
	s.buf.WriteByte(byte(hprof.HPROF_GC_ROOT_NATIVE_STACK))
	writeID(&s.buf, objectID, s.idSize)
	writeU4(&s.buf, uint32(threadSerial))
}

func (s *SegmentWriter) RootStickyClass(objectID hprof.ID) {
	s.buf.WriteByte(byte(hprof.HPROF_GC_ROOT_STICKY_CLASS))
	writeID(&s.buf, objectID, s.idSize)
}

func (s *SegmentWriter) RootThreadBlock(objectID hprof.ID, threadSerial hprof.SerialNum) {
	s.buf.WriteByte(byte(hprof.HPROF_GC_ROOT_THREAD_BLOCK))
	writeID(&s.buf, objectID, s.idSize)
	writeU4(&s.buf, uint32(threadSerial))
}

func (s *SegmentWriter) RootMonitorUsed(objectID hprof.ID) {
	s.buf.WriteByte(byte(hprof.HPROF_GC_ROOT_MONITOR_USED))
	writeID(&s.buf, objectID, s.idSize)
}

func (s *SegmentWriter) RootThreadObj(threadObjID hprof.ID, threadSerial, stackSerial hprof.SerialNum) {
	s.buf.WriteByte(byte(hprof.HPROF_GC_ROOT_THREAD_OBJ))
	writeID(&s.buf, threadObjID, s.idSize)
	writeU4(&s.buf, uint32(threadSerial))
	writeU4(&s.buf, uint32(stackSerial))
}

// Field describes one instance field declaration for ClassDump.
type Field struct {
	NameID hprof.ID
	Type   hprof.HProfTagFieldType
}

// Static describes one static field with an encoded value for ClassDump.
type Static struct {
	NameID hprof.ID
	Type   hprof.HProfTagFieldType
	Value  []byte
}

// ClassDump appends a GC_CLASS_DUMP with an empty constant pool.
func (s *SegmentWriter) ClassDump(classID, superID hprof.ID, instanceSize uint32, statics []Static, fields []Field) {
	s.buf.WriteByte(byte(hprof.HPROF_GC_CLASS_DUMP))
	writeID(&s.buf, classID, s.idSize)
	writeU4(&s.buf, 0) // stack trace serial
	writeID(&s.buf, superID, s.idSize)
	writeID(&s.buf, 0, s.idSize) // class loader
	writeID(&s.buf, 0, s.idSize) // signers
	writeID(&s.buf, 0, s.idSize) // protection domain
	writeID(&s.buf, 0, s.idSize) // reserved
	writeID(&s.buf, 0, s.idSize) // reserved
	writeU4(&s.buf, instanceSize)

	writeU2(&s.buf, 0) // constant pool entries

	writeU2(&s.buf, uint16(len(statics)))
	for _, st := range statics {
		writeID(&s.buf, st.NameID, s.idSize)
		s.buf.WriteByte(byte(st.Type))
		if len(st.Value) != st.Type.Size(s.idSize) {
			panic(fmt.Sprintf("static value for type %s must be %d bytes, got %d",
				st.Type, st.Type.Size(s.idSize), len(st.Value)))
		}
		s.buf.Write(st.Value)
	}

	writeU2(&s.buf, uint16(len(fields)))
	for _, f := range fields {
		writeID(&s.buf, f.NameID, s.idSize)
		s.buf.WriteByte(byte(f.Type))
	}
}

func (s *SegmentWriter) InstanceDump(objectID hprof.ID, stackSerial hprof.SerialNum, classID hprof.ID, fieldData []byte) {
	s.buf.WriteByte(byte(hprof.HPROF_GC_INSTANCE_DUMP))
	writeID(&s.buf, objectID, s.idSize)
	writeU4(&s.buf, uint32(stackSerial))
	writeID(&s.buf, classID, s.idSize)
	writeU4(&s.buf, uint32(len(fieldData)))
	s.buf.Write(fieldData)
}

func (s *SegmentWriter) ObjectArrayDump(objectID hprof.ID, stackSerial hprof.SerialNum, classID hprof.ID, elements ...hprof.ID) {
	s.buf.WriteByte(byte(hprof.HPROF_GC_OBJ_ARRAY_DUMP))
	writeID(&s.buf, objectID, s.idSize)
	writeU4(&s.buf, uint32(stackSerial))
	writeU4(&s.buf, uint32(len(elements)))
	writeID(&s.buf, classID, s.idSize)
	for _, e := range elements {
		writeID(&s.buf, e, s.idSize)
	}
}

func (s *SegmentWriter) PrimitiveArrayDump(objectID hprof.ID, stackSerial hprof.SerialNum, elemType hprof.HProfTagFieldType, elements []byte) {
	size := elemType.Size(s.idSize)
	if size == 0 || len(elements)%size != 0 {
		panic(fmt.Sprintf("element data for type %s must be a multiple of %d bytes", elemType, size))
	}
	s.buf.WriteByte(byte(hprof.HPROF_GC_PRIM_ARRAY_DUMP))
	writeID(&s.buf, objectID, s.idSize)
	writeU4(&s.buf, uint32(stackSerial))
	writeU4(&s.buf, uint32(len(elements)/size))
	s.buf.WriteByte(byte(elemType))
	s.buf.Write(elements)
}

// LongArrayDump appends a GC_PRIM_ARRAY_DUMP of Java longs.
func (s *SegmentWriter) LongArrayDump(objectID hprof.ID, stackSerial hprof.SerialNum, values ...int64) {
	elems := make([]byte, 8*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint64(elems[i*8:], uint64(v))
	}
	s.PrimitiveArrayDump(objectID, stackSerial, hprof.HPROF_LONG, elems)
}

// U4 encodes a big-endian u4, for building field data blobs.
func U4(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// U8 encodes a big-endian u8.
func U8(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// EncodeID encodes an identifier at the given width.
func EncodeID(id hprof.ID, idSize uint32) []byte {
	if idSize == 4 {
		if uint64(id) > 0xFFFFFFFF {
			panic(fmt.Sprintf("identifier 0x%x does not fit in 4 bytes", uint64(id)))
		}
		return U4(uint32(id))
	}
	return U8(uint64(id))
}

func writeU2(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU4(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU8(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeID(buf *bytes.Buffer, id hprof.ID, idSize uint32) {
	buf.Write(EncodeID(id, idSize))
}
