package hprof

import "fmt"

/*
*	readClassDump parses a HPROF_GC_CLASS_DUMP sub-record:
*
*	id    						Class object ID
*	u4    						Stack trace serial number
*	id    						Superclass object ID (0 for java.lang.Object)
*	id    						Class loader object ID (0 for bootstrap)
*	id    						Signers object ID (usually 0)
*	id    						Protection domain object ID (usually 0)
*	id    						Reserved field (always 0)
*	id    						Reserved field (always 0)
*	u4    						Size of instances of this class in bytes
*
*	u2							Number of constant pool entries
*	[constant_pool_entry]*		u2 index, u1 type, value
*
*	u2							Number of static fields
*	[static_field]*				id name, u1 type, value
*
*	u2							Number of instance fields
*	[instance_field]*			id name, u1 type (values live in INSTANCE_DUMP)
 */

type ConstantPoolEntry struct {
	Index uint16
	Value FieldValue
}

type StaticField struct {
	NameID ID // References UTF8
	Value  FieldValue
}

type InstanceField struct {
	NameID ID // References UTF8
	Type   HProfTagFieldType
}

type ClassDump struct {
	ClassObjectID            ID
	StackTraceSerialNumber   SerialNum
	SuperClassObjectID       ID // NullID for java.lang.Object
	ClassLoaderObjectID      ID
	SignerObjectID           ID
	ProtectionDomainObjectID ID
	Reserved1                ID
	Reserved2                ID
	InstanceSize             uint32 // bytes per instance of this class

	ConstantPool   []ConstantPoolEntry
	StaticFields   []StaticField
	InstanceFields []InstanceField
}

func (c *ClassDump) HeapSubTag() HProfTagSubRecord { return HPROF_GC_CLASS_DUMP }

func readClassDump(r *Reader) (*ClassDump, error) {
	classDump := &ClassDump{}
	var err error

	classDump.ClassObjectID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read class object ID: %w", err)
	}

	stackTraceSerial, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read stack trace serial: %w", err)
	}
	classDump.StackTraceSerialNumber = SerialNum(stackTraceSerial)

	classDump.SuperClassObjectID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read superclass object ID: %w", err)
	}

	classDump.ClassLoaderObjectID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read class loader object ID: %w", err)
	}

	classDump.SignerObjectID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read signer object ID: %w", err)
	}

	classDump.ProtectionDomainObjectID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read protection domain object ID: %w", err)
	}

	classDump.Reserved1, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read reserved1: %w", err)
	}

	classDump.Reserved2, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read reserved2: %w", err)
	}

	classDump.InstanceSize, err = r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read instance size: %w", err)
	}

	cpCount, err := r.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read constant pool size: %w", err)
	}
	classDump.ConstantPool = make([]ConstantPoolEntry, cpCount)
	for i := uint16(0); i < cpCount; i++ {
		entry, err := readConstantPoolEntry(r)
		if err != nil {
			return nil, fmt.Errorf("failed to parse constant pool entry %d: %w", i, err)
		}
		classDump.ConstantPool[i] = entry
	}

	staticCount, err := r.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read static fields count: %w", err)
	}
	classDump.StaticFields = make([]StaticField, staticCount)
	for i := uint16(0); i < staticCount; i++ {
		field, err := readStaticField(r)
		if err != nil {
			return nil, fmt.Errorf("failed to parse static field %d: %w", i, err)
		}
		classDump.StaticFields[i] = field
	}

	instanceCount, err := r.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read instance fields count: %w", err)
	}
	classDump.InstanceFields = make([]InstanceField, instanceCount)
	for i := uint16(0); i < instanceCount; i++ {
		field, err := readInstanceField(r)
		if err != nil {
			return nil, fmt.Errorf("failed to parse instance field %d: %w", i, err)
		}
		classDump.InstanceFields[i] = field
	}

	return classDump, nil
}

func readConstantPoolEntry(r *Reader) (ConstantPoolEntry, error) {
	index, err := r.ReadU2()
	if err != nil {
		return ConstantPoolEntry{}, fmt.Errorf("failed to read constant pool index: %w", err)
	}

	typeValue, err := r.ReadU1()
	if err != nil {
		return ConstantPoolEntry{}, fmt.Errorf("failed to read constant pool type: %w", err)
	}

	value, err := readFieldValue(r, HProfTagFieldType(typeValue))
	if err != nil {
		return ConstantPoolEntry{}, fmt.Errorf("failed to read constant pool value: %w", err)
	}

	return ConstantPoolEntry{Index: index, Value: value}, nil
}

func readStaticField(r *Reader) (StaticField, error) {
	nameID, err := r.ReadID()
	if err != nil {
		return StaticField{}, fmt.Errorf("failed to read static field name ID: %w", err)
	}

	typeValue, err := r.ReadU1()
	if err != nil {
		return StaticField{}, fmt.Errorf("failed to read static field type: %w", err)
	}

	value, err := readFieldValue(r, HProfTagFieldType(typeValue))
	if err != nil {
		return StaticField{}, fmt.Errorf("failed to read static field value: %w", err)
	}

	return StaticField{NameID: nameID, Value: value}, nil
}

func readInstanceField(r *Reader) (InstanceField, error) {
	nameID, err := r.ReadID()
	if err != nil {
		return InstanceField{}, fmt.Errorf("failed to read instance field name ID: %w", err)
	}

	typeValue, err := r.ReadU1()
	if err != nil {
		return InstanceField{}, fmt.Errorf("failed to read instance field type: %w", err)
	}

	// Instance fields carry no values here; those live in each INSTANCE_DUMP.
	return InstanceField{NameID: nameID, Type: HProfTagFieldType(typeValue)}, nil
}
