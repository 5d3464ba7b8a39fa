package hprof

import (
	"fmt"
	"io"
)

/*
*	readInstanceDump parses a HPROF_GC_INSTANCE_DUMP sub-record:
*
*	id    						Object ID
*	u4    						Stack trace serial number
*	id    						Class object ID
*	u4    						Instance data size in bytes
*	[u1]*                       Instance field data (raw bytes)
*
*	The field data is opaque without the class definition: values are
*	packed in declaration order, immediate class first, then each
*	superclass in turn. Fields exposes them given a class lookup.
 */

type GCInstanceDump struct {
	ObjectID               ID
	StackTraceSerialNumber SerialNum
	ClassObjectID          ID
	InstanceData           []byte // borrowed field value blob

	identifierSize uint32
}

func (inst *GCInstanceDump) HeapSubTag() HProfTagSubRecord { return HPROF_GC_INSTANCE_DUMP }

func readInstanceDump(r *Reader) (*GCInstanceDump, error) {
	instance := &GCInstanceDump{identifierSize: r.IdentifierSize()}
	var err error

	instance.ObjectID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read object ID: %w", err)
	}

	stackTraceSerial, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read stack trace serial: %w", err)
	}
	instance.StackTraceSerialNumber = SerialNum(stackTraceSerial)

	instance.ClassObjectID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read class object ID: %w", err)
	}

	size, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read instance data size: %w", err)
	}

	instance.InstanceData, err = r.ReadNBytes(int(size))
	if err != nil {
		return nil, fmt.Errorf("failed to read instance data: %w", err)
	}

	return instance, nil
}

// ClassLookup resolves a class object ID to its class dump. The parser
// builds no index of its own; callers supply one (see internal/scan for
// the aggregation this CLI uses).
type ClassLookup func(ID) (*ClassDump, bool)

// ProjectedField is one decoded instance field: the class that declared
// it, the field name reference, and the value.
type ProjectedField struct {
	ClassObjectID ID
	NameID        ID // References UTF8
	Value         FieldValue
}

// FieldIterator walks an instance's field values in HPROF emission
// order: the immediate class's fields first, then each superclass up the
// chain until the null superclass ID.
type FieldIterator struct {
	r       *Reader
	classOf ClassLookup

	current  *ClassDump
	fieldIdx int
	visited  map[ID]bool
	done     bool
}

// Fields returns an iterator over the instance's field values. The
// caller-supplied lookup must resolve every class in the superclass
// chain, or iteration fails.
func (inst *GCInstanceDump) Fields(classOf ClassLookup) *FieldIterator {
	return &FieldIterator{
		r:       NewReader(inst.InstanceData, inst.identifierSize),
		classOf: classOf,
		visited: map[ID]bool{},
		current: &ClassDump{SuperClassObjectID: inst.ClassObjectID}, // walk starts at the instance's class
		// fieldIdx already past the sentinel's empty field list
	}
}

// Next returns the next field. io.EOF signals that the chain completed
// and the field data was consumed exactly. Over- or under-consumption
// yields an error wrapping ErrFieldBlob; a repeated class in the
// superclass chain yields ErrSuperCycle.
func (it *FieldIterator) Next() (ProjectedField, error) {
	if it.done {
		return ProjectedField{}, io.EOF
	}

	for it.fieldIdx >= len(it.current.InstanceFields) {
		superID := it.current.SuperClassObjectID
		if superID == NullID {
			it.done = true
			if it.r.Remaining() > 0 {
				return ProjectedField{}, fmt.Errorf("%d trailing bytes after superclass chain: %w",
					it.r.Remaining(), ErrFieldBlob)
			}
			return ProjectedField{}, io.EOF
		}
		if it.visited[superID] {
			it.done = true
			return ProjectedField{}, fmt.Errorf("class 0x%x seen twice: %w", uint64(superID), ErrSuperCycle)
		}
		it.visited[superID] = true

		next, ok := it.classOf(superID)
		if !ok {
			it.done = true
			return ProjectedField{}, fmt.Errorf("no class dump for class 0x%x", uint64(superID))
		}
		it.current = next
		it.fieldIdx = 0
	}

	field := it.current.InstanceFields[it.fieldIdx]
	it.fieldIdx++

	value, err := readFieldValue(it.r, field.Type)
	if err != nil {
		it.done = true
		return ProjectedField{}, fmt.Errorf("field data exhausted at field 0x%x: %w",
			uint64(field.NameID), ErrFieldBlob)
	}

	return ProjectedField{
		ClassObjectID: it.current.ClassObjectID,
		NameID:        field.NameID,
		Value:         value,
	}, nil
}
