package hprof

import "time"

// HeaderLength is the exact byte length of the supported HPROF file header:
// a null-terminated format string, a 4-byte id-size, and an 8-byte
// timestamp. The scenario in spec.md §8 fixes this at 31 bytes for the
// "JAVA PROFILE 1.0.2" format string.
const HeaderLength = 31

// Header is the fixed-layout prefix of every HPROF file.
type Header struct {
	Format    string
	IDSize    int
	Timestamp time.Time
}

// ParseHeader decodes the file header from b. It returns ErrNeedMore if b
// is shorter than required to find the terminator and the two trailing
// fixed-width fields. Any bytes after the timestamp are returned as rest
// unchanged; rejecting leftover bytes as an invalid header size is the
// caller's job (internal/slurp).
//
// ParseHeader does not itself reject id-size 4; that validation belongs to
// the driver (internal/slurp), which surfaces the "unsupported id size"
// error distinctly from "invalid id size" per spec.md §7.
func ParseHeader(b []byte) (Header, []byte, error) {
	format, rest, err := ReadCString(b)
	if err != nil {
		return Header{}, b, err
	}
	idSize, rest, err := ReadU32(rest)
	if err != nil {
		return Header{}, b, err
	}
	tsMillis, rest, err := ReadU64(rest)
	if err != nil {
		return Header{}, b, err
	}
	return Header{
		Format:    format,
		IDSize:    int(idSize),
		Timestamp: time.UnixMilli(int64(tsMillis)),
	}, rest, nil
}
