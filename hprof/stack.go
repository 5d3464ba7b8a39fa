package hprof

import "fmt"

/*
*	StackFrame parses a HPROF_FRAME record:
*
*	id      Stack frame ID
*	id      Method name ID (UTF8 reference)
*	id      Method signature ID (UTF8 reference)
*	id      Source file name ID (UTF8 reference)
*	u4      Class serial number
*	i4      Line number. 	>0: normal line
*							-1: unknown
*							-2: compiled method
*							-3: native method
 */

type FrameBody struct {
	StackFrameID      ID
	MethodNameID      ID // References UTF8
	MethodSignatureID ID // References UTF8
	SourceFileNameID  ID // References UTF8
	ClassSerialNumber SerialNum
	LineNumber        int32
}

func (rec *HprofRecord) StackFrame() (*FrameBody, error) {
	r := rec.reader()
	body := &FrameBody{}
	var err error

	body.StackFrameID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read stack frame ID: %w", err)
	}

	body.MethodNameID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read method name ID: %w", err)
	}

	body.MethodSignatureID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read method signature ID: %w", err)
	}

	body.SourceFileNameID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read source file name ID: %w", err)
	}

	classSerial, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read class serial number: %w", err)
	}
	body.ClassSerialNumber = SerialNum(classSerial)

	body.LineNumber, err = r.ReadI4()
	if err != nil {
		return nil, fmt.Errorf("failed to read line number: %w", err)
	}

	return body, nil
}

/*
*	StackTrace parses a HPROF_TRACE record:
*
*	u4          Stack trace serial number
*	u4          Thread serial number that produced this trace
*	u4          Number of frames
*	[id]*       Stack frame IDs (references HPROF_FRAME records)
 */

type TraceBody struct {
	StackTraceSerialNumber SerialNum
	ThreadSerialNumber     SerialNum
	NumFrames              uint32
	frameData              []byte // borrowed, NumFrames identifiers
	identifierSize         uint32
}

// StackFrameID returns the i-th frame ID of the trace.
func (b *TraceBody) StackFrameID(i int) ID {
	off := i * int(b.identifierSize)
	return readID(b.frameData[off:], b.identifierSize)
}

func (rec *HprofRecord) StackTrace() (*TraceBody, error) {
	r := rec.reader()
	body := &TraceBody{identifierSize: rec.identifierSize}

	serial, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read stack trace serial number: %w", err)
	}
	body.StackTraceSerialNumber = SerialNum(serial)

	threadSerial, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread serial number: %w", err)
	}
	body.ThreadSerialNumber = SerialNum(threadSerial)

	body.NumFrames, err = r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read number of frames: %w", err)
	}

	// The tail must contain exactly NumFrames identifiers.
	want := int(body.NumFrames) * int(rec.identifierSize)
	if r.Remaining() != want {
		return nil, fmt.Errorf("malformed stack trace: %d frames need %d bytes, have %d: %w",
			body.NumFrames, want, r.Remaining(), ErrLength)
	}
	body.frameData, _ = r.ReadNBytes(want)

	return body, nil
}
