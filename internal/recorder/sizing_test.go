package recorder

import (
	"testing"

	"github.com/agourlay/hprof-slurp/internal/hprof"
	"github.com/stretchr/testify/assert"
)

func TestPad8OverPadsRatherThanRoundsDown(t *testing.T) {
	// size + size%8, not ceil-to-multiple-of-8: for 37 this gives 42, not 40.
	assert.Equal(t, uint64(42), pad8(37))
	assert.Equal(t, uint64(18), pad8(17))
}

func TestPad8ExactMultipleIsUnchanged(t *testing.T) {
	assert.Equal(t, uint64(0), pad8(0))
	assert.Equal(t, uint64(8), pad8(8))
	assert.Equal(t, uint64(16), pad8(16))
}

func TestHeaderSize(t *testing.T) {
	assert.Equal(t, uint64(16), headerSize(8))
	assert.Equal(t, uint64(12), headerSize(4))
}

func TestInstanceSizeWalksSuperclassChain(t *testing.T) {
	classInfo := map[uint64]classInfoEntry{
		1: {superClassObjectID: 2, instanceSize: 8},
		2: {superClassObjectID: 0, instanceSize: 4},
	}
	// fieldsTotal = 8 + 4 = 12, + header(16) = 28, pad8(28) = 28 + 4 = 32.
	assert.Equal(t, uint64(32), instanceSize(1, classInfo, 8))
}

func TestInstanceSizeGuardsCycles(t *testing.T) {
	classInfo := map[uint64]classInfoEntry{
		1: {superClassObjectID: 2, instanceSize: 8},
		2: {superClassObjectID: 1, instanceSize: 8}, // cyclic chain
	}
	assert.NotPanics(t, func() {
		instanceSize(1, classInfo, 8)
	})
}

func TestPrimitiveArrayLargestIsPadded(t *testing.T) {
	c := arrayCounter{}
	c.addArray(3)
	c.addArray(10)
	// largest = header(16) + 4*10 = 56, pad8(56) = 56 + 0 = 56.
	assert.Equal(t, uint64(56), primitiveArrayLargest(c, primitiveByteSize(hprof.FieldTypeInt, 8), 8))
}

func TestObjectArrayTotalAndLargest(t *testing.T) {
	c := arrayCounter{}
	c.addArray(2)
	c.addArray(5)
	assert.Equal(t, uint64(2*16+7*8), objectArrayTotal(c, 8))
	assert.Equal(t, uint64(16+5*8), objectArrayLargest(c, 8))
}
