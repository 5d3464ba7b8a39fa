package hprof

import "fmt"

// FieldValue is a decoded HPROF value. Type selects which of the other
// fields carries the value; object references (including arrays) are in
// ID, primitives in their Java-named field.
type FieldValue struct {
	Type HProfTagFieldType

	ID     ID
	Bool   bool
	Char   uint16
	Float  float32
	Double float64
	Byte   int8
	Short  int16
	Int    int32
	Long   int64
}

func (v FieldValue) IsReference() bool {
	return v.Type == HPROF_NORMAL_OBJECT || v.Type == HPROF_ARRAY_OBJECT
}

func (v FieldValue) String() string {
	switch v.Type {
	case HPROF_NORMAL_OBJECT, HPROF_ARRAY_OBJECT:
		return fmt.Sprintf("0x%x", uint64(v.ID))
	case HPROF_BOOLEAN:
		return fmt.Sprintf("%t", v.Bool)
	case HPROF_CHAR:
		return fmt.Sprintf("%q", rune(v.Char))
	case HPROF_FLOAT:
		return fmt.Sprintf("%g", v.Float)
	case HPROF_DOUBLE:
		return fmt.Sprintf("%g", v.Double)
	case HPROF_BYTE:
		return fmt.Sprintf("%d", v.Byte)
	case HPROF_SHORT:
		return fmt.Sprintf("%d", v.Short)
	case HPROF_INT:
		return fmt.Sprintf("%d", v.Int)
	case HPROF_LONG:
		return fmt.Sprintf("%d", v.Long)
	default:
		return fmt.Sprintf("FieldValue(0x%02X)", byte(v.Type))
	}
}

// readFieldValue decodes one value of the given type from the cursor.
func readFieldValue(r *Reader, fieldType HProfTagFieldType) (FieldValue, error) {
	v := FieldValue{Type: fieldType}
	var err error

	switch fieldType {
	case HPROF_NORMAL_OBJECT, HPROF_ARRAY_OBJECT:
		v.ID, err = r.ReadID()
	case HPROF_BOOLEAN:
		var b uint8
		b, err = r.ReadU1()
		v.Bool = b != 0
	case HPROF_CHAR:
		v.Char, err = r.ReadU2()
	case HPROF_FLOAT:
		v.Float, err = r.ReadF4()
	case HPROF_DOUBLE:
		v.Double, err = r.ReadF8()
	case HPROF_BYTE:
		var b uint8
		b, err = r.ReadU1()
		v.Byte = int8(b)
	case HPROF_SHORT:
		var s uint16
		s, err = r.ReadU2()
		v.Short = int16(s)
	case HPROF_INT:
		v.Int, err = r.ReadI4()
	case HPROF_LONG:
		var l uint64
		l, err = r.ReadU8()
		v.Long = int64(l)
	default:
		return v, fmt.Errorf("unknown field type 0x%02x: %w", byte(fieldType), ErrLength)
	}
	if err != nil {
		return v, fmt.Errorf("failed to read %s value: %w", fieldType, err)
	}
	return v, nil
}
