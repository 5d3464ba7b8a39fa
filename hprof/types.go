package hprof

import (
	"encoding/binary"
	"fmt"
)

type ID uint64        // Object, class, thread or string identifier; 4 or 8 bytes on the wire
type SerialNum uint32 // u4, just a counter

// NullID terminates superclass chains and marks absent references.
const NullID ID = 0

type HProfTagRecord byte

const (
	// top-level records
	HPROF_UTF8             HProfTagRecord = 0x01
	HPROF_LOAD_CLASS       HProfTagRecord = 0x02
	HPROF_UNLOAD_CLASS     HProfTagRecord = 0x03
	HPROF_FRAME            HProfTagRecord = 0x04
	HPROF_TRACE            HProfTagRecord = 0x05
	HPROF_ALLOC_SITES      HProfTagRecord = 0x06
	HPROF_HEAP_SUMMARY     HProfTagRecord = 0x07
	HPROF_START_THREAD     HProfTagRecord = 0x0A
	HPROF_END_THREAD       HProfTagRecord = 0x0B
	HPROF_HEAP_DUMP        HProfTagRecord = 0x0C
	HPROF_CPU_SAMPLES      HProfTagRecord = 0x0D
	HPROF_CONTROL_SETTINGS HProfTagRecord = 0x0E

	// 1.0.2 record types
	HPROF_HEAP_DUMP_SEGMENT HProfTagRecord = 0x1C
	HPROF_HEAP_DUMP_END     HProfTagRecord = 0x2C
)

func (h HProfTagRecord) String() string {
	switch h {
	case HPROF_UTF8:
		return "UTF8"
	case HPROF_LOAD_CLASS:
		return "LOAD_CLASS"
	case HPROF_UNLOAD_CLASS:
		return "UNLOAD_CLASS"
	case HPROF_FRAME:
		return "STACK_FRAME"
	case HPROF_TRACE:
		return "STACK_TRACE"
	case HPROF_ALLOC_SITES:
		return "ALLOC_SITES"
	case HPROF_HEAP_SUMMARY:
		return "HEAP_SUMMARY"
	case HPROF_START_THREAD:
		return "START_THREAD"
	case HPROF_END_THREAD:
		return "END_THREAD"
	case HPROF_HEAP_DUMP:
		return "HEAP_DUMP"
	case HPROF_CPU_SAMPLES:
		return "CPU_SAMPLES"
	case HPROF_CONTROL_SETTINGS:
		return "CONTROL_SETTINGS"
	case HPROF_HEAP_DUMP_SEGMENT:
		return "HEAP_DUMP_SEGMENT"
	case HPROF_HEAP_DUMP_END:
		return "HEAP_DUMP_END"
	default:
		return fmt.Sprintf("HProfTagRecord(0x%02X)", byte(h))
	}
}

// Known reports whether the tag maps to a record type this package can
// decode. Unknown tags are not errors; their bodies stay raw.
func (h HProfTagRecord) Known() bool {
	switch h {
	case HPROF_UTF8, HPROF_LOAD_CLASS, HPROF_UNLOAD_CLASS, HPROF_FRAME,
		HPROF_TRACE, HPROF_ALLOC_SITES, HPROF_HEAP_SUMMARY,
		HPROF_START_THREAD, HPROF_END_THREAD, HPROF_HEAP_DUMP,
		HPROF_CPU_SAMPLES, HPROF_CONTROL_SETTINGS,
		HPROF_HEAP_DUMP_SEGMENT, HPROF_HEAP_DUMP_END:
		return true
	}
	return false
}

type HProfTagFieldType byte

const (
	HPROF_ARRAY_OBJECT  HProfTagFieldType = 0x01
	HPROF_NORMAL_OBJECT HProfTagFieldType = 0x02
	HPROF_BOOLEAN       HProfTagFieldType = 0x04
	HPROF_CHAR          HProfTagFieldType = 0x05
	HPROF_FLOAT         HProfTagFieldType = 0x06
	HPROF_DOUBLE        HProfTagFieldType = 0x07
	HPROF_BYTE          HProfTagFieldType = 0x08
	HPROF_SHORT         HProfTagFieldType = 0x09
	HPROF_INT           HProfTagFieldType = 0x0A
	HPROF_LONG          HProfTagFieldType = 0x0B
)

// Size returns the wire size of a value of this type, or 0 for an
// unrecognised type. Object references take identifierSize bytes.
func (ft HProfTagFieldType) Size(identifierSize uint32) int {
	switch ft {
	case HPROF_BOOLEAN, HPROF_BYTE:
		return 1
	case HPROF_CHAR, HPROF_SHORT:
		return 2
	case HPROF_INT, HPROF_FLOAT:
		return 4
	case HPROF_LONG, HPROF_DOUBLE:
		return 8
	case HPROF_NORMAL_OBJECT, HPROF_ARRAY_OBJECT:
		return int(identifierSize)
	default:
		return 0
	}
}

func (ft HProfTagFieldType) String() string {
	switch ft {
	case HPROF_ARRAY_OBJECT:
		return "array"
	case HPROF_NORMAL_OBJECT:
		return "object"
	case HPROF_BOOLEAN:
		return "boolean"
	case HPROF_CHAR:
		return "char"
	case HPROF_FLOAT:
		return "float"
	case HPROF_DOUBLE:
		return "double"
	case HPROF_BYTE:
		return "byte"
	case HPROF_SHORT:
		return "short"
	case HPROF_INT:
		return "int"
	case HPROF_LONG:
		return "long"
	default:
		return fmt.Sprintf("HProfTagFieldType(0x%02X)", byte(ft))
	}
}

type HProfTagSubRecord byte

const (
	HPROF_GC_ROOT_UNKNOWN      HProfTagSubRecord = 0xFF
	HPROF_GC_ROOT_JNI_GLOBAL   HProfTagSubRecord = 0x01
	HPROF_GC_ROOT_JNI_LOCAL    HProfTagSubRecord = 0x02
	HPROF_GC_ROOT_JAVA_FRAME   HProfTagSubRecord = 0x03
	HPROF_GC_ROOT_NATIVE_STACK HProfTagSubRecord = 0x04
	HPROF_GC_ROOT_STICKY_CLASS HProfTagSubRecord = 0x05
	HPROF_GC_ROOT_THREAD_BLOCK HProfTagSubRecord = 0x06
	HPROF_GC_ROOT_MONITOR_USED HProfTagSubRecord = 0x07
	HPROF_GC_ROOT_THREAD_OBJ   HProfTagSubRecord = 0x08
	HPROF_GC_CLASS_DUMP        HProfTagSubRecord = 0x20
	HPROF_GC_INSTANCE_DUMP     HProfTagSubRecord = 0x21
	HPROF_GC_OBJ_ARRAY_DUMP    HProfTagSubRecord = 0x22
	HPROF_GC_PRIM_ARRAY_DUMP   HProfTagSubRecord = 0x23
)

func (st HProfTagSubRecord) String() string {
	switch st {
	case HPROF_GC_ROOT_UNKNOWN:
		return "GC_ROOT_UNKNOWN"
	case HPROF_GC_ROOT_JNI_GLOBAL:
		return "GC_ROOT_JNI_GLOBAL"
	case HPROF_GC_ROOT_JNI_LOCAL:
		return "GC_ROOT_JNI_LOCAL"
	case HPROF_GC_ROOT_JAVA_FRAME:
		return "GC_ROOT_JAVA_FRAME"
	case HPROF_GC_ROOT_NATIVE_STACK:
		return "GC_ROOT_NATIVE_STACK"
	case HPROF_GC_ROOT_STICKY_CLASS:
		return "GC_ROOT_STICKY_CLASS"
	case HPROF_GC_ROOT_THREAD_BLOCK:
		return "GC_ROOT_THREAD_BLOCK"
	case HPROF_GC_ROOT_MONITOR_USED:
		return "GC_ROOT_MONITOR_USED"
	case HPROF_GC_ROOT_THREAD_OBJ:
		return "GC_ROOT_THREAD_OBJ"
	case HPROF_GC_CLASS_DUMP:
		return "GC_CLASS_DUMP"
	case HPROF_GC_INSTANCE_DUMP:
		return "GC_INSTANCE_DUMP"
	case HPROF_GC_OBJ_ARRAY_DUMP:
		return "GC_OBJ_ARRAY_DUMP"
	case HPROF_GC_PRIM_ARRAY_DUMP:
		return "GC_PRIM_ARRAY_DUMP"
	default:
		return fmt.Sprintf("HProfTagSubRecord(0x%02X)", byte(st))
	}
}

// Stack frame line number sentinels.
const (
	LineUnknown  int32 = -1
	LineCompiled int32 = -2
	LineNative   int32 = -3
)

// AllocSitesBody and ControlSettings flag bits.
const (
	ALLOC_TYPE = 0x0001 // incremental vs complete
	ALLOC_SORT = 0x0002 // sorted by allocation vs live
	ALLOC_GC   = 0x0004 // force GC

	CONTROL_ALLOC_TRACES = 0x00000001 // Allocation traces on/off
	CONTROL_CPU_SAMPLING = 0x00000002 // CPU sampling on/off
)

// readID decodes one identifier from the front of data, which must hold
// at least identifierSize bytes.
func readID(data []byte, identifierSize uint32) ID {
	if identifierSize == 4 {
		return ID(binary.BigEndian.Uint32(data))
	}
	return ID(binary.BigEndian.Uint64(data))
}
