// Package hprof implements the binary grammar of the JVM HPROF heap dump
// format: the file header, the top-level tagged record stream, and the
// nested sub-record grammar carried inside heap-dump segments.
//
// All decoders in this package are resumable at record boundaries: given a
// byte slice shorter than a fully framed record, a decoder returns
// ErrNeedMore instead of blocking or partially committing state. Callers
// (see internal/pipeline) are responsible for retaining unconsumed bytes
// and supplying more input before retrying.
package hprof

// Tag identifies a top-level HPROF record.
type Tag uint8

const (
	TagString          Tag = 0x01
	TagLoadClass       Tag = 0x02
	TagUnloadClass      Tag = 0x03
	TagStackFrame       Tag = 0x04
	TagStackTrace       Tag = 0x05
	TagAllocSites       Tag = 0x06
	TagHeapSummary      Tag = 0x07
	TagStartThread      Tag = 0x0A
	TagEndThread        Tag = 0x0B
	TagHeapDump         Tag = 0x0C
	TagCPUSamples       Tag = 0x0D
	TagControlSettings  Tag = 0x0E
	TagHeapDumpSegment  Tag = 0x1C
	TagHeapDumpEnd      Tag = 0x2C
)

// String renders a tag name for debug logging and error messages.
func (t Tag) String() string {
	switch t {
	case TagString:
		return "UTF8_STRING"
	case TagLoadClass:
		return "LOAD_CLASS"
	case TagUnloadClass:
		return "UNLOAD_CLASS"
	case TagStackFrame:
		return "STACK_FRAME"
	case TagStackTrace:
		return "STACK_TRACE"
	case TagAllocSites:
		return "ALLOC_SITES"
	case TagHeapSummary:
		return "HEAP_SUMMARY"
	case TagStartThread:
		return "START_THREAD"
	case TagEndThread:
		return "END_THREAD"
	case TagHeapDump:
		return "HEAP_DUMP"
	case TagCPUSamples:
		return "CPU_SAMPLES"
	case TagControlSettings:
		return "CONTROL_SETTINGS"
	case TagHeapDumpSegment:
		return "HEAP_DUMP_SEGMENT"
	case TagHeapDumpEnd:
		return "HEAP_DUMP_END"
	default:
		return "UNKNOWN"
	}
}

// GCTag identifies a sub-record inside a heap-dump segment.
type GCTag uint8

const (
	GCTagRootUnknown       GCTag = 0xFF
	GCTagRootJNIGlobal     GCTag = 0x01
	GCTagRootJNILocal      GCTag = 0x02
	GCTagRootJavaFrame     GCTag = 0x03
	GCTagRootNativeStack   GCTag = 0x04
	GCTagRootStickyClass   GCTag = 0x05
	GCTagRootThreadBlock   GCTag = 0x06
	GCTagRootMonitorUsed   GCTag = 0x07
	GCTagRootThreadObject  GCTag = 0x08
	GCTagClassDump         GCTag = 0x20
	GCTagInstanceDump      GCTag = 0x21
	GCTagObjectArrayDump   GCTag = 0x22
	GCTagPrimitiveArrayDump GCTag = 0x23
)

func (t GCTag) String() string {
	switch t {
	case GCTagRootUnknown:
		return "ROOT_UNKNOWN"
	case GCTagRootJNIGlobal:
		return "ROOT_JNI_GLOBAL"
	case GCTagRootJNILocal:
		return "ROOT_JNI_LOCAL"
	case GCTagRootJavaFrame:
		return "ROOT_JAVA_FRAME"
	case GCTagRootNativeStack:
		return "ROOT_NATIVE_STACK"
	case GCTagRootStickyClass:
		return "ROOT_STICKY_CLASS"
	case GCTagRootThreadBlock:
		return "ROOT_THREAD_BLOCK"
	case GCTagRootMonitorUsed:
		return "ROOT_MONITOR_USED"
	case GCTagRootThreadObject:
		return "ROOT_THREAD_OBJECT"
	case GCTagClassDump:
		return "CLASS_DUMP"
	case GCTagInstanceDump:
		return "INSTANCE_DUMP"
	case GCTagObjectArrayDump:
		return "OBJECT_ARRAY_DUMP"
	case GCTagPrimitiveArrayDump:
		return "PRIMITIVE_ARRAY_DUMP"
	default:
		return "UNKNOWN"
	}
}

// FieldType is the Java basic-type enumeration used by class field
// declarations, constant-pool entries, and primitive array element types.
type FieldType uint8

const (
	FieldTypeObject  FieldType = 2
	FieldTypeBoolean FieldType = 4
	FieldTypeChar    FieldType = 5
	FieldTypeFloat   FieldType = 6
	FieldTypeDouble  FieldType = 7
	FieldTypeByte    FieldType = 8
	FieldTypeShort   FieldType = 9
	FieldTypeInt     FieldType = 10
	FieldTypeLong    FieldType = 11
)

// Size returns the wire width in bytes of a value of this type, given the
// configured identifier size (idSize only matters for FieldTypeObject).
func (t FieldType) Size(idSize int) int {
	switch t {
	case FieldTypeObject:
		return idSize
	case FieldTypeBoolean, FieldTypeByte:
		return 1
	case FieldTypeChar, FieldTypeShort:
		return 2
	case FieldTypeFloat, FieldTypeInt:
		return 4
	case FieldTypeDouble, FieldTypeLong:
		return 8
	default:
		return 0
	}
}

func (t FieldType) String() string {
	switch t {
	case FieldTypeObject:
		return "Object"
	case FieldTypeBoolean:
		return "Boolean"
	case FieldTypeChar:
		return "Char"
	case FieldTypeFloat:
		return "Float"
	case FieldTypeDouble:
		return "Double"
	case FieldTypeByte:
		return "Byte"
	case FieldTypeShort:
		return "Short"
	case FieldTypeInt:
		return "Int"
	case FieldTypeLong:
		return "Long"
	default:
		return "Unknown"
	}
}
