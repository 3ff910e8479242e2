package hprof

// GCKind identifies the payload carried by a GCRecord (a sub-record inside
// a heap-dump segment).
type GCKind uint8

const (
	GCRootUnknown GCKind = iota
	GCRootJNIGlobal
	GCRootJNILocal
	GCRootJavaFrame
	GCRootNativeStack
	GCRootStickyClass
	GCRootThreadBlock
	GCRootMonitorUsed
	GCRootThreadObject
	GCClassDump
	GCInstanceDump
	GCObjectArrayDump
	GCPrimitiveArrayDump
)

// GCRecord is one decoded sub-record from inside a heap-dump segment.
type GCRecord struct {
	Kind    GCKind
	Payload interface{}
}

type GCRootUnknownRecord struct{ ObjectID uint64 }
type GCRootJNIGlobalRecord struct {
	ObjectID       uint64
	JNIGlobalRefID uint64
}
type GCRootJNILocalRecord struct {
	ObjectID      uint64
	ThreadSerial  uint32
	FrameNumber   uint32
}
type GCRootJavaFrameRecord struct {
	ObjectID     uint64
	ThreadSerial uint32
	FrameNumber  uint32
}
type GCRootNativeStackRecord struct {
	ObjectID     uint64
	ThreadSerial uint32
}
type GCRootStickyClassRecord struct{ ObjectID uint64 }
type GCRootThreadBlockRecord struct {
	ObjectID     uint64
	ThreadSerial uint32
}
type GCRootMonitorUsedRecord struct{ ObjectID uint64 }
type GCRootThreadObjectRecord struct {
	ThreadObjectID       uint64
	ThreadSequenceNumber uint32
	StackSequenceNumber  uint32
}

// ConstPoolEntry is one entry of a ClassDump's constant pool.
type ConstPoolEntry struct {
	Index int
	Type  FieldType
	Value interface{}
}

// StaticFieldEntry is one static field declaration plus its stored value.
type StaticFieldEntry struct {
	NameID int
	Type  FieldType
	Value interface{}
}

// InstanceFieldDecl declares an instance field's name and type; instance
// field values live in InstanceDump's (skipped) data bytes, not here.
type InstanceFieldDecl struct {
	NameID uint64
	Type   FieldType
}

type ClassDumpRecord struct {
	ClassObjectID        uint64
	StackTraceSerial     uint32
	SuperClassObjectID    uint64
	InstanceSize          uint32
	ConstantPoolSize      uint16
	ConstFields           []ConstPoolEntry
	StaticFields          []StaticFieldEntry
	InstanceFields        []InstanceFieldDecl
}

type InstanceDumpRecord struct {
	ObjectID          uint64
	StackTraceSerial  uint32
	ClassObjectID     uint64
	DataSize          uint32
}

type ObjectArrayDumpRecord struct {
	ObjectID          uint64
	StackTraceSerial  uint32
	NumberOfElements  uint32
	ArrayClassID      uint64
}

type PrimitiveArrayDumpRecord struct {
	ObjectID          uint64
	StackTraceSerial  uint32
	NumberOfElements  uint32
	ElementType       FieldType
}

// DecodeSubRecord decodes exactly one heap-dump sub-record starting at
// b[0] (the sub-record's own tag byte). This function never materializes
// instance data, array element ids, or primitive array values: it advances
// past them with Skip. This mirrors spec.md §4.1's
// "payload skipping" design choice — aggregate analyses only need the
// headers.
func DecodeSubRecord(b []byte, idSize int) (GCRecord, int, []byte, error) {
	origLen := len(b)
	tagByte, rest, err := ReadU8(b)
	if err != nil {
		return GCRecord{}, 0, b, err
	}

	switch GCTag(tagByte) {
	case GCTagRootUnknown:
		id, rest, err := ReadID(rest, idSize)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		return finishGC(GCRootUnknown, GCRootUnknownRecord{ObjectID: id}, origLen, rest)

	case GCTagRootJNIGlobal:
		id, rest, err := ReadID(rest, idSize)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		ref, rest, err := ReadID(rest, idSize)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		return finishGC(GCRootJNIGlobal, GCRootJNIGlobalRecord{ObjectID: id, JNIGlobalRefID: ref}, origLen, rest)

	case GCTagRootJNILocal:
		id, rest, err := ReadID(rest, idSize)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		thread, rest, err := ReadU32(rest)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		frame, rest, err := ReadU32(rest)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		return finishGC(GCRootJNILocal, GCRootJNILocalRecord{ObjectID: id, ThreadSerial: thread, FrameNumber: frame}, origLen, rest)

	case GCTagRootJavaFrame:
		id, rest, err := ReadID(rest, idSize)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		thread, rest, err := ReadU32(rest)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		frame, rest, err := ReadU32(rest)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		return finishGC(GCRootJavaFrame, GCRootJavaFrameRecord{ObjectID: id, ThreadSerial: thread, FrameNumber: frame}, origLen, rest)

	case GCTagRootNativeStack:
		id, rest, err := ReadID(rest, idSize)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		thread, rest, err := ReadU32(rest)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		return finishGC(GCRootNativeStack, GCRootNativeStackRecord{ObjectID: id, ThreadSerial: thread}, origLen, rest)

	case GCTagRootStickyClass:
		id, rest, err := ReadID(rest, idSize)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		return finishGC(GCRootStickyClass, GCRootStickyClassRecord{ObjectID: id}, origLen, rest)

	case GCTagRootThreadBlock:
		id, rest, err := ReadID(rest, idSize)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		thread, rest, err := ReadU32(rest)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		return finishGC(GCRootThreadBlock, GCRootThreadBlockRecord{ObjectID: id, ThreadSerial: thread}, origLen, rest)

	case GCTagRootMonitorUsed:
		id, rest, err := ReadID(rest, idSize)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		return finishGC(GCRootMonitorUsed, GCRootMonitorUsedRecord{ObjectID: id}, origLen, rest)

	case GCTagRootThreadObject:
		id, rest, err := ReadID(rest, idSize)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		seq, rest, err := ReadU32(rest)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		stackSeq, rest, err := ReadU32(rest)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		return finishGC(GCRootThreadObject, GCRootThreadObjectRecord{
			ThreadObjectID:       id,
			ThreadSequenceNumber: seq,
			StackSequenceNumber:  stackSeq,
		}, origLen, rest)

	case GCTagClassDump:
		return decodeClassDump(b, rest, idSize, origLen)

	case GCTagInstanceDump:
		objID, rest, err := ReadID(rest, idSize)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		stSerial, rest, err := ReadU32(rest)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		classID, rest, err := ReadID(rest, idSize)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		dataSize, rest, err := ReadU32(rest)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		rest, err = Skip(rest, int(dataSize))
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		return finishGC(GCInstanceDump, InstanceDumpRecord{
			ObjectID:         objID,
			StackTraceSerial: stSerial,
			ClassObjectID:    classID,
			DataSize:         dataSize,
		}, origLen, rest)

	case GCTagObjectArrayDump:
		objID, rest, err := ReadID(rest, idSize)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		stSerial, rest, err := ReadU32(rest)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		numElems, rest, err := ReadU32(rest)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		arrClassID, rest, err := ReadID(rest, idSize)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		rest, err = Skip(rest, int(numElems)*idSize)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		return finishGC(GCObjectArrayDump, ObjectArrayDumpRecord{
			ObjectID:         objID,
			StackTraceSerial: stSerial,
			NumberOfElements: numElems,
			ArrayClassID:     arrClassID,
		}, origLen, rest)

	case GCTagPrimitiveArrayDump:
		objID, rest, err := ReadID(rest, idSize)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		stSerial, rest, err := ReadU32(rest)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		numElems, rest, err := ReadU32(rest)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		elemTypeByte, rest, err := ReadU8(rest)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		elemType := FieldType(elemTypeByte)
		if elemType == FieldTypeObject {
			return GCRecord{}, 0, b, Malformed("primitive array dump declares element type Object")
		}
		elemSize := elemType.Size(idSize)
		if elemSize == 0 {
			return GCRecord{}, 0, b, Malformed("primitive array dump declares unknown element type %d", elemTypeByte)
		}
		rest, err = Skip(rest, int(numElems)*elemSize)
		if err != nil {
			return GCRecord{}, 0, b, err
		}
		return finishGC(GCPrimitiveArrayDump, PrimitiveArrayDumpRecord{
			ObjectID:         objID,
			StackTraceSerial: stSerial,
			NumberOfElements: numElems,
			ElementType:      elemType,
		}, origLen, rest)

	default:
		return GCRecord{}, 0, b, Malformed("unknown heap-dump sub-record tag 0x%02X", tagByte)
	}
}

func finishGC(kind GCKind, payload interface{}, origLen int, rest []byte) (GCRecord, int, []byte, error) {
	return GCRecord{Kind: kind, Payload: payload}, origLen - len(rest), rest, nil
}

// decodeClassDump implements spec.md §4.1's ClassDump layout: class_object_id,
// stack_trace_serial_number, super_class_object_id, four ignored id-sized
// fields, two ignored u32s, instance_size, constant_pool_size, then the
// constant pool, static fields and instance field declarations.
func decodeClassDump(orig, rest []byte, idSize int, origLen int) (GCRecord, int, []byte, error) {
	classID, rest, err := ReadID(rest, idSize)
	if err != nil {
		return GCRecord{}, 0, orig, err
	}
	stSerial, rest, err := ReadU32(rest)
	if err != nil {
		return GCRecord{}, 0, orig, err
	}
	superID, rest, err := ReadID(rest, idSize)
	if err != nil {
		return GCRecord{}, 0, orig, err
	}
	for i := 0; i < 4; i++ {
		_, rest, err = ReadID(rest, idSize)
		if err != nil {
			return GCRecord{}, 0, orig, err
		}
	}
	for i := 0; i < 2; i++ {
		_, rest, err = ReadU32(rest)
		if err != nil {
			return GCRecord{}, 0, orig, err
		}
	}
	instanceSize, rest, err := ReadU32(rest)
	if err != nil {
		return GCRecord{}, 0, orig, err
	}
	poolSize, rest, err := ReadU16(rest)
	if err != nil {
		return GCRecord{}, 0, orig, err
	}

	constFields := make([]ConstPoolEntry, 0, poolSize)
	for i := uint16(0); i < poolSize; i++ {
		idx, r2, err := ReadU16(rest)
		if err != nil {
			return GCRecord{}, 0, orig, err
		}
		typeByte, r2, err := ReadU8(r2)
		if err != nil {
			return GCRecord{}, 0, orig, err
		}
		ft := FieldType(typeByte)
		val, r2, err := ReadValue(r2, ft, idSize)
		if err != nil {
			return GCRecord{}, 0, orig, err
		}
		rest = r2
		constFields = append(constFields, ConstPoolEntry{Index: int(idx), Type: ft, Value: val})
	}

	staticCount, rest, err := ReadU16(rest)
	if err != nil {
		return GCRecord{}, 0, orig, err
	}
	staticFields := make([]StaticFieldEntry, 0, staticCount)
	for i := uint16(0); i < staticCount; i++ {
		nameID, r2, err := ReadID(rest, idSize)
		if err != nil {
			return GCRecord{}, 0, orig, err
		}
		typeByte, r2, err := ReadU8(r2)
		if err != nil {
			return GCRecord{}, 0, orig, err
		}
		ft := FieldType(typeByte)
		val, r2, err := ReadValue(r2, ft, idSize)
		if err != nil {
			return GCRecord{}, 0, orig, err
		}
		rest = r2
		staticFields = append(staticFields, StaticFieldEntry{NameID: int(nameID), Type: ft, Value: val})
	}

	instanceCount, rest, err := ReadU16(rest)
	if err != nil {
		return GCRecord{}, 0, orig, err
	}
	instanceFields := make([]InstanceFieldDecl, 0, instanceCount)
	for i := uint16(0); i < instanceCount; i++ {
		nameID, r2, err := ReadID(rest, idSize)
		if err != nil {
			return GCRecord{}, 0, orig, err
		}
		typeByte, r2, err := ReadU8(r2)
		if err != nil {
			return GCRecord{}, 0, orig, err
		}
		rest = r2
		instanceFields = append(instanceFields, InstanceFieldDecl{NameID: nameID, Type: FieldType(typeByte)})
	}

	rec := ClassDumpRecord{
		ClassObjectID:      classID,
		StackTraceSerial:   stSerial,
		SuperClassObjectID: superID,
		InstanceSize:       instanceSize,
		ConstantPoolSize:   poolSize,
		ConstFields:        constFields,
		StaticFields:       staticFields,
		InstanceFields:     instanceFields,
	}
	return GCRecord{Kind: GCClassDump, Payload: rec}, origLen - len(rest), rest, nil
}
