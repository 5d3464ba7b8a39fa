package hprof

import "fmt"

/*
*	GC root sub-records. Each names an object the collector treats as
*	always reachable, plus where the reference lives.
*
*	GC_ROOT_JNI_GLOBAL:		id obj, id JNI global ref
*	GC_ROOT_JNI_LOCAL:		id obj, u4 thread serial, u4 frame number
*	GC_ROOT_JAVA_FRAME:		id obj, u4 thread serial, u4 frame number
*	GC_ROOT_NATIVE_STACK:	id obj, u4 thread serial
*	GC_ROOT_STICKY_CLASS:	id obj
*	GC_ROOT_THREAD_BLOCK:	id obj, u4 thread serial
*	GC_ROOT_MONITOR_USED:	id obj
*	GC_ROOT_THREAD_OBJ:		id obj, u4 thread serial, u4 stack trace serial
 */

// GCRootUnknown carries a sub-record whose tag this package does not
// recognise. Sub-record length is implicit in the tag, so the scan cannot
// advance past one; Remainder is the rest of the segment body and the
// iterator terminates after yielding it.
type GCRootUnknown struct {
	Tag       HProfTagSubRecord
	Remainder []byte // borrowed, undecodable tail of the segment
}

type GCRootJniGlobal struct {
	ObjectID       ID
	JniGlobalRefID ID
}

type GCRootJniLocal struct {
	ObjectID           ID
	ThreadSerialNumber SerialNum
	FrameNumber        SerialNum // 0xFFFFFFFF (-1 on the wire) for empty/unknown frame
}

type GCRootJavaFrame struct {
	ObjectID           ID
	ThreadSerialNumber SerialNum
	FrameNumber        SerialNum // 0xFFFFFFFF (-1 on the wire) for empty/unknown frame
}

type GCRootNativeStack struct {
	ObjectID           ID
	ThreadSerialNumber SerialNum
}

type GCRootStickyClass struct {
	ObjectID ID
}

type GCRootThreadBlock struct {
	ObjectID           ID
	ThreadSerialNumber SerialNum
}

type GCRootMonitorUsed struct {
	ObjectID ID
}

type GCRootThreadObject struct {
	ThreadObjectID         ID // may be 0 for threads attached via JNI
	ThreadSerialNumber     SerialNum
	StackTraceSerialNumber SerialNum
}

func (r *GCRootUnknown) HeapSubTag() HProfTagSubRecord      { return r.Tag }
func (r *GCRootJniGlobal) HeapSubTag() HProfTagSubRecord    { return HPROF_GC_ROOT_JNI_GLOBAL }
func (r *GCRootJniLocal) HeapSubTag() HProfTagSubRecord     { return HPROF_GC_ROOT_JNI_LOCAL }
func (r *GCRootJavaFrame) HeapSubTag() HProfTagSubRecord    { return HPROF_GC_ROOT_JAVA_FRAME }
func (r *GCRootNativeStack) HeapSubTag() HProfTagSubRecord  { return HPROF_GC_ROOT_NATIVE_STACK }
func (r *GCRootStickyClass) HeapSubTag() HProfTagSubRecord  { return HPROF_GC_ROOT_STICKY_CLASS }
func (r *GCRootThreadBlock) HeapSubTag() HProfTagSubRecord  { return HPROF_GC_ROOT_THREAD_BLOCK }
func (r *GCRootMonitorUsed) HeapSubTag() HProfTagSubRecord  { return HPROF_GC_ROOT_MONITOR_USED }
func (r *GCRootThreadObject) HeapSubTag() HProfTagSubRecord { return HPROF_GC_ROOT_THREAD_OBJ }

func readGCRootJniGlobal(r *Reader) (*GCRootJniGlobal, error) {
	root := &GCRootJniGlobal{}
	var err error

	root.ObjectID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read object ID: %w", err)
	}

	root.JniGlobalRefID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read JNI global ref ID: %w", err)
	}

	return root, nil
}

func readGCRootJniLocal(r *Reader) (*GCRootJniLocal, error) {
	root := &GCRootJniLocal{}
	var err error

	root.ObjectID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read object ID: %w", err)
	}

	threadSerial, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread serial: %w", err)
	}
	root.ThreadSerialNumber = SerialNum(threadSerial)

	frameNumber, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read frame number: %w", err)
	}
	root.FrameNumber = SerialNum(frameNumber)

	return root, nil
}

func readGCRootJavaFrame(r *Reader) (*GCRootJavaFrame, error) {
	root := &GCRootJavaFrame{}
	var err error

	root.ObjectID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read object ID: %w", err)
	}

	threadSerial, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread serial: %w", err)
	}
	root.ThreadSerialNumber = SerialNum(threadSerial)

	frameNumber, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read frame number: %w", err)
	}
	root.FrameNumber = SerialNum(frameNumber)

	return root, nil
}

func readGCRootNativeStack(r *Reader) (*GCRootNativeStack, error) {
	root := &GCRootNativeStack{}
	var err error

	root.ObjectID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read object ID: %w", err)
	}

	threadSerial, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread serial: %w", err)
	}
	root.ThreadSerialNumber = SerialNum(threadSerial)

	return root, nil
}

func readGCRootStickyClass(r *Reader) (*GCRootStickyClass, error) {
	objectID, err := r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read object ID: %w", err)
	}
	return &GCRootStickyClass{ObjectID: objectID}, nil
}

func readGCRootThreadBlock(r *Reader) (*GCRootThreadBlock, error) {
	root := &GCRootThreadBlock{}
	var err error

	root.ObjectID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read object ID: %w", err)
	}

	threadSerial, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread serial: %w", err)
	}
	root.ThreadSerialNumber = SerialNum(threadSerial)

	return root, nil
}

func readGCRootMonitorUsed(r *Reader) (*GCRootMonitorUsed, error) {
	objectID, err := r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read object ID: %w", err)
	}
	return &GCRootMonitorUsed{ObjectID: objectID}, nil
}

func readGCRootThreadObject(r *Reader) (*GCRootThreadObject, error) {
	root := &GCRootThreadObject{}
	var err error

	root.ThreadObjectID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread object ID: %w", err)
	}

	threadSerial, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread serial: %w", err)
	}
	root.ThreadSerialNumber = SerialNum(threadSerial)

	stackTraceSerial, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read stack trace serial: %w", err)
	}
	root.StackTraceSerialNumber = SerialNum(stackTraceSerial)

	return root, nil
}
