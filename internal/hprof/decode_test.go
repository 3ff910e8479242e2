package hprof

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPrimitives(t *testing.T) {
	t.Run("ReadU8 short input", func(t *testing.T) {
		_, _, err := ReadU8(nil)
		assert.Equal(t, ErrNeedMore{N: 1}, err)
	})

	t.Run("ReadU16 big-endian", func(t *testing.T) {
		v, rest, err := ReadU16([]byte{0x01, 0x02, 0xFF})
		require.NoError(t, err)
		assert.Equal(t, uint16(0x0102), v)
		assert.Equal(t, []byte{0xFF}, rest)
	})

	t.Run("ReadU32 needs more", func(t *testing.T) {
		_, _, err := ReadU32([]byte{0x01, 0x02})
		assert.Equal(t, ErrNeedMore{N: 4}, err)
	})

	t.Run("ReadU64 big-endian", func(t *testing.T) {
		v, rest, err := ReadU64([]byte{0, 0, 0, 0, 0, 0, 0, 1, 0xAA})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), v)
		assert.Equal(t, []byte{0xAA}, rest)
	})
}

func TestReadID(t *testing.T) {
	t.Run("4-byte id", func(t *testing.T) {
		v, rest, err := ReadID([]byte{0, 0, 0, 7, 0xFF}, 4)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), v)
		assert.Equal(t, []byte{0xFF}, rest)
	})

	t.Run("8-byte id", func(t *testing.T) {
		v, rest, err := ReadID([]byte{0, 0, 0, 0, 0, 0, 0, 7, 0xFF}, 8)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), v)
		assert.Equal(t, []byte{0xFF}, rest)
	})
}

func TestReadCString(t *testing.T) {
	t.Run("terminated", func(t *testing.T) {
		s, rest, err := ReadCString([]byte("abc\x00def"))
		require.NoError(t, err)
		assert.Equal(t, "abc", s)
		assert.Equal(t, []byte("def"), rest)
	})

	t.Run("unterminated asks for more", func(t *testing.T) {
		_, _, err := ReadCString([]byte("abc"))
		assert.Equal(t, ErrNeedMore{N: 4}, err)
	})
}

func TestSkip(t *testing.T) {
	rest, err := Skip([]byte{1, 2, 3, 4}, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 4}, rest)

	_, err = Skip([]byte{1}, 5)
	assert.Equal(t, ErrNeedMore{N: 4}, err)
}

func TestReadValue(t *testing.T) {
	v, rest, err := ReadValue([]byte{0, 0, 0, 42, 0xFF}, FieldTypeInt, 8)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), v)
	assert.Equal(t, []byte{0xFF}, rest)

	_, _, err = ReadValue([]byte{0}, FieldType(99), 8)
	assert.IsType(t, ErrMalformed{}, err)
}
