package hprof

import "fmt"

/*
*	readObjectArrayDump parses a HPROF_GC_OBJ_ARRAY_DUMP sub-record:
*
*	id    						Array object ID
*	u4    						Stack trace serial number
*	u4    						Array length (number of elements)
*	id    						Array class object ID
*	[id]*                       Array elements (object references)
 */

type GCObjectArrayDump struct {
	ObjectID               ID
	StackTraceSerialNumber SerialNum
	Length                 uint32
	ClassObjectID          ID

	elements       []byte // borrowed, Length identifiers
	identifierSize uint32
}

func (a *GCObjectArrayDump) HeapSubTag() HProfTagSubRecord { return HPROF_GC_OBJ_ARRAY_DUMP }

// ElementID returns the i-th element reference, 0 ≤ i < Length.
// Elements may be NullID.
func (a *GCObjectArrayDump) ElementID(i int) ID {
	off := i * int(a.identifierSize)
	return readID(a.elements[off:], a.identifierSize)
}

// ElementBytes returns the raw borrowed element region
// (Length × identifier size bytes).
func (a *GCObjectArrayDump) ElementBytes() []byte {
	return a.elements
}

func readObjectArrayDump(r *Reader) (*GCObjectArrayDump, error) {
	array := &GCObjectArrayDump{identifierSize: r.IdentifierSize()}
	var err error

	array.ObjectID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read array object ID: %w", err)
	}

	stackTraceSerial, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read stack trace serial: %w", err)
	}
	array.StackTraceSerialNumber = SerialNum(stackTraceSerial)

	array.Length, err = r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read array length: %w", err)
	}

	array.ClassObjectID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read array class ID: %w", err)
	}

	array.elements, err = r.ReadNBytes(int(array.Length) * int(array.identifierSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %d array elements: %w", array.Length, err)
	}

	return array, nil
}

/*
*	readPrimitiveArrayDump parses a HPROF_GC_PRIM_ARRAY_DUMP sub-record:
*
*	id    						Array object ID
*	u4    						Stack trace serial number
*	u4    						Array length (number of elements)
*	u1    						Element type (see HProfTagFieldType)
*	[u1]*                       Array elements (packed primitive data)
 */

type GCPrimitiveArrayDump struct {
	ObjectID               ID
	StackTraceSerialNumber SerialNum
	Length                 uint32
	Type                   HProfTagFieldType // primitive only

	elements []byte // borrowed, Length × Type.Size bytes
}

func (a *GCPrimitiveArrayDump) HeapSubTag() HProfTagSubRecord { return HPROF_GC_PRIM_ARRAY_DUMP }

// Element decodes the i-th element, 0 ≤ i < Length.
func (a *GCPrimitiveArrayDump) Element(i int) FieldValue {
	size := a.Type.Size(0) // primitive sizes never depend on identifier size
	r := NewReader(a.elements[i*size:], 0)
	v, _ := readFieldValue(r, a.Type)
	return v
}

// ElementBytes returns the raw borrowed element region.
func (a *GCPrimitiveArrayDump) ElementBytes() []byte {
	return a.elements
}

func readPrimitiveArrayDump(r *Reader) (*GCPrimitiveArrayDump, error) {
	array := &GCPrimitiveArrayDump{}
	var err error

	array.ObjectID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read array object ID: %w", err)
	}

	stackTraceSerial, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read stack trace serial: %w", err)
	}
	array.StackTraceSerialNumber = SerialNum(stackTraceSerial)

	array.Length, err = r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read array length: %w", err)
	}

	elementTypeRaw, err := r.ReadU1()
	if err != nil {
		return nil, fmt.Errorf("failed to read element type: %w", err)
	}
	array.Type = HProfTagFieldType(elementTypeRaw)

	elementSize := array.Type.Size(0)
	if elementSize == 0 || array.Type == HPROF_NORMAL_OBJECT || array.Type == HPROF_ARRAY_OBJECT {
		return nil, fmt.Errorf("primitive array element type 0x%02x: %w", elementTypeRaw, ErrLength)
	}

	array.elements, err = r.ReadNBytes(int(array.Length) * elementSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read %d array elements: %w", array.Length, err)
	}

	return array, nil
}
