package hprof

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildHeader(format string, idSize int, tsMillis uint64) []byte {
	var buf bytes.Buffer
	buf.WriteString(format)
	buf.WriteByte(0)
	binary.Write(&buf, binary.BigEndian, uint32(idSize))
	binary.Write(&buf, binary.BigEndian, tsMillis)
	return buf.Bytes()
}

func TestParseHeader(t *testing.T) {
	t.Run("well-formed 8-byte id header", func(t *testing.T) {
		raw := buildHeader("JAVA PROFILE 1.0.2", 8, 1700000000000)
		require.Len(t, raw, HeaderLength)

		h, rest, err := ParseHeader(raw)
		require.NoError(t, err)
		assert.Empty(t, rest)
		assert.Equal(t, "JAVA PROFILE 1.0.2", h.Format)
		assert.Equal(t, 8, h.IDSize)
	})

	t.Run("4-byte id is parsed but not rejected here", func(t *testing.T) {
		raw := buildHeader("JAVA PROFILE 1.0.2", 4, 0)
		h, _, err := ParseHeader(raw)
		require.NoError(t, err)
		assert.Equal(t, 4, h.IDSize)
	})

	t.Run("truncated header asks for more", func(t *testing.T) {
		raw := buildHeader("JAVA PROFILE 1.0.2", 8, 1700000000000)
		_, _, err := ParseHeader(raw[:len(raw)-3])
		assert.IsType(t, ErrNeedMore{}, err)
	})
}
