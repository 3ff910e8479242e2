package hprof

import (
	"encoding/binary"
	"fmt"
)

// ErrNeedMore signals that the supplied input is shorter than what the
// decoder needs to make progress. N is a byte count known to be sufficient
// for the next attempt, not always the smallest one: the fixed-width
// primitive decoders report the full width of the field they were reading,
// ReadCString reports one more than the length it scanned, and Skip and the
// length-prefixed record bodies report the number of bytes still missing.
//
// Decoders never partially commit state when returning ErrNeedMore: the
// caller must retry the same logical decode from the same offset once more
// bytes are appended to the buffer.
type ErrNeedMore struct {
	N int
}

func (e ErrNeedMore) Error() string {
	return fmt.Sprintf("need %d more byte(s)", e.N)
}

// NeedMore constructs an ErrNeedMore carrying n.
func NeedMore(n int) error {
	return ErrNeedMore{N: n}
}

// ErrMalformed signals a grammar violation: an unknown tag, an impossible
// field-type, or any other decode failure that is not simply "not enough
// bytes yet". It is always fatal.
type ErrMalformed struct {
	Reason string
}

func (e ErrMalformed) Error() string {
	return "invalid HPROF file: " + e.Reason
}

func Malformed(reason string, args ...interface{}) error {
	return ErrMalformed{Reason: fmt.Sprintf(reason, args...)}
}

// ReadU8 decodes a single byte.
func ReadU8(b []byte) (uint8, []byte, error) {
	if len(b) < 1 {
		return 0, b, NeedMore(1)
	}
	return b[0], b[1:], nil
}

// ReadU16 decodes a big-endian uint16.
func ReadU16(b []byte) (uint16, []byte, error) {
	if len(b) < 2 {
		return 0, b, NeedMore(2)
	}
	return binary.BigEndian.Uint16(b), b[2:], nil
}

// ReadU32 decodes a big-endian uint32.
func ReadU32(b []byte) (uint32, []byte, error) {
	if len(b) < 4 {
		return 0, b, NeedMore(4)
	}
	return binary.BigEndian.Uint32(b), b[4:], nil
}

// ReadU64 decodes a big-endian uint64.
func ReadU64(b []byte) (uint64, []byte, error) {
	if len(b) < 8 {
		return 0, b, NeedMore(8)
	}
	return binary.BigEndian.Uint64(b), b[8:], nil
}

// ReadID decodes an identifier of the given width (4 or 8 bytes), always
// widened to uint64.
func ReadID(b []byte, idSize int) (uint64, []byte, error) {
	if idSize == 4 {
		v, rest, err := ReadU32(b)
		return uint64(v), rest, err
	}
	return ReadU64(b)
}

// ReadCString decodes a null-terminated byte string. The terminator is
// consumed (rest starts after it) but is not part of the returned string.
func ReadCString(b []byte) (string, []byte, error) {
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), b[i+1:], nil
		}
	}
	// The whole buffer was scanned without finding a terminator: we cannot
	// know how many extra bytes are needed, so report a length one byte
	// longer than what was scanned.
	return "", b, NeedMore(len(b) + 1)
}

// Skip advances past n bytes without interpreting them.
func Skip(b []byte, n int) ([]byte, error) {
	if len(b) < n {
		return b, NeedMore(n - len(b))
	}
	return b[n:], nil
}

// ReadValue decodes a value of the given field type, returning it boxed as
// an interface{}; Object values are returned as uint64 ids. This is used
// only where values must actually be inspected (constant pool entries,
// static fields) — instance data, array elements and instance-field
// declarations are skipped by the caller without going through ReadValue.
func ReadValue(b []byte, t FieldType, idSize int) (interface{}, []byte, error) {
	switch t {
	case FieldTypeObject:
		v, rest, err := ReadID(b, idSize)
		return v, rest, err
	case FieldTypeBoolean, FieldTypeByte:
		v, rest, err := ReadU8(b)
		return v, rest, err
	case FieldTypeChar, FieldTypeShort:
		v, rest, err := ReadU16(b)
		return v, rest, err
	case FieldTypeFloat, FieldTypeInt:
		v, rest, err := ReadU32(b)
		return v, rest, err
	case FieldTypeDouble, FieldTypeLong:
		v, rest, err := ReadU64(b)
		return v, rest, err
	default:
		return nil, b, Malformed("unknown field type %d", t)
	}
}
