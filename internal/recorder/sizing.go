package recorder

import "github.com/agourlay/hprof-slurp/internal/hprof"

// headerSize is the object header and array header size, id_size + 4 + 4: mark word,
// klass word, and the field/length slot that follows, adding to 16 bytes on
// the only id-size this tool supports (64-bit).
func headerSize(idSize int) uint64 {
	return uint64(idSize) + 4 + 4
}

// pad8 applies the padding formula used throughout this package: size plus
// size-mod-8, NOT size rounded up to the next multiple of 8. This over-pads
// by up to 7 bytes whenever size isn't already a multiple of 8; it is kept
// intentionally for output parity with the tool this was ported from.
func pad8(size uint64) uint64 {
	return size + size%8
}

func primitiveByteSize(t hprof.FieldType, idSize int) uint64 {
	return uint64(t.Size(idSize))
}

// instanceSize resolves a class's total per-instance allocation: its own
// declared instance_size plus every ancestor's instance_size up the
// super_class_object_id chain, plus the object header, padded to 8 bytes.
// classInfo terminates the walk at super_class_object_id == 0.
func instanceSize(classID uint64, classInfo map[uint64]classInfoEntry, idSize int) uint64 {
	var fieldsTotal uint64
	seen := make(map[uint64]bool)
	cur := classID
	for cur != 0 {
		if seen[cur] {
			break // defends against a cyclic superclass chain in a malformed dump
		}
		seen[cur] = true
		info, ok := classInfo[cur]
		if !ok {
			break
		}
		fieldsTotal += uint64(info.instanceSize)
		cur = info.superClassObjectID
	}
	return pad8(fieldsTotal + headerSize(idSize))
}

// primitiveArrayTotal computes the estimated aggregate allocation for all
// arrays of a given primitive element type, per spec's estimated-padding
// convention (4 bytes/array instead of exact per-array padding).
func primitiveArrayTotal(c arrayCounter, elemSize uint64, idSize int) uint64 {
	headers := headerSize(idSize) * c.count
	values := elemSize * c.totalElements
	estimatedPadding := 4 * c.count
	return headers + values + estimatedPadding
}

// primitiveArrayLargest computes the exact allocation of the single
// largest array of a primitive element type, padded to 8 bytes.
func primitiveArrayLargest(c arrayCounter, elemSize uint64, idSize int) uint64 {
	return pad8(headerSize(idSize) + elemSize*c.maxSeenLen)
}

// objectArrayTotal mirrors primitiveArrayTotal for reference-element arrays;
// object arrays carry no per-array padding estimate since each element is
// already id_size-aligned.
func objectArrayTotal(c arrayCounter, idSize int) uint64 {
	headers := headerSize(idSize) * c.count
	refs := uint64(idSize) * c.totalElements
	return headers + refs
}

func objectArrayLargest(c arrayCounter, idSize int) uint64 {
	return headerSize(idSize) + uint64(idSize)*c.maxSeenLen
}
