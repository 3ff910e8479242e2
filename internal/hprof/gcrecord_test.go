package hprof

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSubRecordRootUnknown(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(byte(GCTagRootUnknown))
	buf.Write(u64(0xABCD))

	rec, consumed, rest, err := DecodeSubRecord(buf.Bytes(), 8)
	require.NoError(t, err)
	assert.Equal(t, buf.Len(), consumed)
	assert.Empty(t, rest)
	assert.Equal(t, GCRootUnknown, rec.Kind)
	assert.Equal(t, uint64(0xABCD), rec.Payload.(GCRootUnknownRecord).ObjectID)
}

func TestDecodeSubRecordInstanceDumpSkipsBody(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(byte(GCTagInstanceDump))
	buf.Write(u64(1))           // object id
	buf.Write(u32(0))           // stack trace serial
	buf.Write(u64(2))           // class object id
	buf.Write(u32(4))           // data size
	buf.Write([]byte{9, 9, 9, 9}) // data bytes, skipped not interpreted

	rec, consumed, rest, err := DecodeSubRecord(buf.Bytes(), 8)
	require.NoError(t, err)
	assert.Equal(t, buf.Len(), consumed)
	assert.Empty(t, rest)
	p := rec.Payload.(InstanceDumpRecord)
	assert.Equal(t, uint64(1), p.ObjectID)
	assert.Equal(t, uint64(2), p.ClassObjectID)
	assert.Equal(t, uint32(4), p.DataSize)
}

func TestDecodeSubRecordObjectArrayDump(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(byte(GCTagObjectArrayDump))
	buf.Write(u64(10))
	buf.Write(u32(0))
	buf.Write(u32(2)) // 2 elements
	buf.Write(u64(20))
	buf.Write(u64(100))
	buf.Write(u64(200))

	rec, consumed, rest, err := DecodeSubRecord(buf.Bytes(), 8)
	require.NoError(t, err)
	assert.Equal(t, buf.Len(), consumed)
	assert.Empty(t, rest)
	p := rec.Payload.(ObjectArrayDumpRecord)
	assert.Equal(t, uint32(2), p.NumberOfElements)
	assert.Equal(t, uint64(20), p.ArrayClassID)
}

func TestDecodeSubRecordPrimitiveArrayDumpRejectsObjectType(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(byte(GCTagPrimitiveArrayDump))
	buf.Write(u64(10))
	buf.Write(u32(0))
	buf.Write(u32(1))
	buf.WriteByte(byte(FieldTypeObject))

	_, _, _, err := DecodeSubRecord(buf.Bytes(), 8)
	assert.IsType(t, ErrMalformed{}, err)
}

func TestDecodeSubRecordPrimitiveArrayDumpInts(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(byte(GCTagPrimitiveArrayDump))
	buf.Write(u64(10))
	buf.Write(u32(0))
	buf.Write(u32(3))
	buf.WriteByte(byte(FieldTypeInt))
	buf.Write(make([]byte, 3*4))

	rec, consumed, rest, err := DecodeSubRecord(buf.Bytes(), 8)
	require.NoError(t, err)
	assert.Equal(t, buf.Len(), consumed)
	assert.Empty(t, rest)
	p := rec.Payload.(PrimitiveArrayDumpRecord)
	assert.Equal(t, FieldTypeInt, p.ElementType)
	assert.Equal(t, uint32(3), p.NumberOfElements)
}

func TestDecodeClassDump(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(byte(GCTagClassDump))
	buf.Write(u64(1))  // class object id
	buf.Write(u32(0))  // stack trace serial
	buf.Write(u64(0))  // super class object id (0: root of chain)
	for i := 0; i < 4; i++ {
		buf.Write(u64(0)) // ignored id fields
	}
	for i := 0; i < 2; i++ {
		buf.Write(u32(0)) // ignored u32 fields
	}
	buf.Write(u32(24)) // instance_size
	buf.Write([]byte{0, 0}) // constant_pool_size = 0
	buf.Write([]byte{0, 0}) // static field count = 0
	buf.Write([]byte{0, 0}) // instance field count = 0

	rec, consumed, rest, err := DecodeSubRecord(buf.Bytes(), 8)
	require.NoError(t, err)
	assert.Equal(t, buf.Len(), consumed)
	assert.Empty(t, rest)
	p := rec.Payload.(ClassDumpRecord)
	assert.Equal(t, uint64(1), p.ClassObjectID)
	assert.Equal(t, uint32(24), p.InstanceSize)
	assert.Equal(t, uint64(0), p.SuperClassObjectID)
}

func TestDecodeSubRecordUnknownTag(t *testing.T) {
	_, _, _, err := DecodeSubRecord([]byte{0x99}, 8)
	assert.IsType(t, ErrMalformed{}, err)
}
