package hprof

// Kind identifies which payload a Record carries. It mirrors Tag but also
// distinguishes the two states a heap-dump segment can be observed in: the
// start-of-segment marker (KindHeapDumpStart) and each individual
// sub-record streamed out of it (KindGCSegment).
type Kind uint8

const (
	KindUTF8String Kind = iota
	KindLoadClass
	KindUnloadClass
	KindStackFrame
	KindStackTrace
	KindAllocSites
	KindHeapSummary
	KindStartThread
	KindEndThread
	KindHeapDumpStart
	KindHeapDumpEnd
	KindCPUSamples
	KindControlSettings
	KindGCSegment
)

// Record is one decoded unit of the top-level HPROF stream. Payload holds
// one of the *Record / *GCRecord types below depending on Kind; it is
// never reassigned after decode, so a Record value can be copied freely
// into a pooled batch slice.
type Record struct {
	Kind    Kind
	Payload interface{}
}

type UTF8StringRecord struct {
	ID    uint64
	Value string
}

type LoadClassRecord struct {
	SerialNumber          uint32
	ClassObjectID         uint64
	StackTraceSerial      uint32
	ClassNameID           uint64
}

type UnloadClassRecord struct {
	SerialNumber uint32
}

type StackFrameRecord struct {
	StackFrameID       uint64
	MethodNameID       uint64
	MethodSignatureID  uint64
	SourceFileNameID   uint64
	ClassSerialNumber  uint32
	LineNumber         int32
}

type StackTraceRecord struct {
	SerialNumber      uint32
	ThreadSerial      uint32
	NumberOfFrames    uint32
	StackFrameIDs     []uint64
}

type AllocationSite struct {
	IsArray                 uint8
	ClassSerialNumber       uint32
	StackTraceSerialNumber  uint32
	BytesAlive              uint32
	InstancesAlive          uint32
	BytesAllocated          uint32
	InstancesAllocated      uint32
}

type AllocSitesRecord struct {
	Flags                   uint16
	CutoffRatio             uint32
	TotalLiveBytes          uint32
	TotalLiveInstances      uint32
	TotalBytesAllocated     uint64
	TotalInstancesAllocated uint64
	Sites                   []AllocationSite
}

type HeapSummaryRecord struct {
	TotalLiveBytes          uint32
	TotalLiveInstances      uint32
	TotalBytesAllocated     uint64
	TotalInstancesAllocated uint64
}

type StartThreadRecord struct {
	ThreadSerialNumber       uint32
	ThreadObjectID           uint64
	StackTraceSerialNumber   uint32
	ThreadNameID             uint64
	ThreadGroupNameID        uint64
	ThreadGroupParentNameID  uint64
}

type EndThreadRecord struct {
	ThreadSerialNumber uint32
}

// HeapDumpStartRecord marks the beginning of a heap-dump (or heap-dump
// segment) record; Length is the declared body length in bytes, which the
// caller uses to track when sub-record mode ends.
type HeapDumpStartRecord struct {
	Length uint32
}

type CPUSample struct {
	NumberOfSamples        uint32
	StackTraceSerialNumber uint32
}

type CPUSamplesRecord struct {
	TotalNumberOfSamples uint32
	NumberOfTraces       uint32
	Samples              []CPUSample
}

type ControlSettingsRecord struct {
	Flags            uint32
	StackTraceDepth  uint16
}

// recordHeader is the (timestamp, length) pair prefixing every top-level
// record body except the payload of an already-open heap-dump segment.
type recordHeader struct {
	Timestamp uint32
	Length    uint32
}

func decodeRecordHeader(b []byte) (recordHeader, []byte, error) {
	ts, rest, err := ReadU32(b)
	if err != nil {
		return recordHeader{}, b, err
	}
	length, rest, err := ReadU32(rest)
	if err != nil {
		return recordHeader{}, b, err
	}
	return recordHeader{Timestamp: ts, Length: length}, rest, nil
}

// DecodeTopLevel decodes exactly one top-level record starting at b[0],
// which must be the tag byte. It returns the decoded Record, the number of
// bytes consumed from b, and the remaining unconsumed slice.
//
// For TagHeapDump / TagHeapDumpSegment, DecodeTopLevel stops after the
// (timestamp, length) header and returns a KindHeapDumpStart record: it
// does not attempt to decode the segment body itself. The caller (see
// internal/pipeline.Parser) is responsible for entering sub-record mode
// and calling DecodeSubRecord in a loop until the segment's declared
// length is exhausted — this is what lets a multi-gigabyte segment stream
// through without ever being buffered whole.
func DecodeTopLevel(b []byte, idSize int) (Record, int, []byte, error) {
	origLen := len(b)
	tag, rest, err := ReadU8(b)
	if err != nil {
		return Record{}, 0, b, err
	}

	switch Tag(tag) {
	case TagString:
		hdr, rest, err := decodeRecordHeader(rest)
		if err != nil {
			return Record{}, 0, b, err
		}
		if hdr.Length < uint32(idSize) {
			return Record{}, 0, b, Malformed("utf8 string record shorter than id size")
		}
		id, rest, err := ReadID(rest, idSize)
		if err != nil {
			return Record{}, 0, b, err
		}
		strLen := int(hdr.Length) - idSize
		if len(rest) < strLen {
			return Record{}, 0, b, NeedMore(strLen - len(rest))
		}
		value := string(rest[:strLen])
		rest = rest[strLen:]
		rec := Record{Kind: KindUTF8String, Payload: UTF8StringRecord{ID: id, Value: value}}
		return rec, origLen - len(rest), rest, nil

	case TagLoadClass:
		return decodeFixedHeaderRecord(b, rest, idSize, KindLoadClass, func(body []byte, idSize int) (interface{}, []byte, error) {
			serial, body, err := ReadU32(body)
			if err != nil {
				return nil, body, err
			}
			classID, body, err := ReadID(body, idSize)
			if err != nil {
				return nil, body, err
			}
			stSerial, body, err := ReadU32(body)
			if err != nil {
				return nil, body, err
			}
			nameID, body, err := ReadID(body, idSize)
			if err != nil {
				return nil, body, err
			}
			return LoadClassRecord{
				SerialNumber:     serial,
				ClassObjectID:    classID,
				StackTraceSerial: stSerial,
				ClassNameID:      nameID,
			}, body, nil
		})

	case TagUnloadClass:
		return decodeFixedHeaderRecord(b, rest, idSize, KindUnloadClass, func(body []byte, _ int) (interface{}, []byte, error) {
			serial, body, err := ReadU32(body)
			return UnloadClassRecord{SerialNumber: serial}, body, err
		})

	case TagStackFrame:
		return decodeFixedHeaderRecord(b, rest, idSize, KindStackFrame, func(body []byte, idSize int) (interface{}, []byte, error) {
			frameID, body, err := ReadID(body, idSize)
			if err != nil {
				return nil, body, err
			}
			methodNameID, body, err := ReadID(body, idSize)
			if err != nil {
				return nil, body, err
			}
			methodSigID, body, err := ReadID(body, idSize)
			if err != nil {
				return nil, body, err
			}
			sourceFileID, body, err := ReadID(body, idSize)
			if err != nil {
				return nil, body, err
			}
			classSerial, body, err := ReadU32(body)
			if err != nil {
				return nil, body, err
			}
			line, body, err := ReadU32(body)
			if err != nil {
				return nil, body, err
			}
			return StackFrameRecord{
				StackFrameID:      frameID,
				MethodNameID:      methodNameID,
				MethodSignatureID: methodSigID,
				SourceFileNameID:  sourceFileID,
				ClassSerialNumber: classSerial,
				LineNumber:        int32(line),
			}, body, nil
		})

	case TagStackTrace:
		hdr, rest, err := decodeRecordHeader(rest)
		if err != nil {
			return Record{}, 0, b, err
		}
		if len(rest) < int(hdr.Length) {
			return Record{}, 0, b, NeedMore(int(hdr.Length) - len(rest))
		}
		body := rest[:hdr.Length]
		after := rest[hdr.Length:]
		serial, body, err := ReadU32(body)
		if err != nil {
			return Record{}, 0, b, Malformed("truncated stack trace record")
		}
		threadSerial, body, err := ReadU32(body)
		if err != nil {
			return Record{}, 0, b, Malformed("truncated stack trace record")
		}
		numFrames, body, err := ReadU32(body)
		if err != nil {
			return Record{}, 0, b, Malformed("truncated stack trace record")
		}
		ids := make([]uint64, 0, numFrames)
		for i := uint32(0); i < numFrames; i++ {
			var id uint64
			id, body, err = ReadID(body, idSize)
			if err != nil {
				return Record{}, 0, b, Malformed("truncated stack trace frame list")
			}
			ids = append(ids, id)
		}
		rec := Record{Kind: KindStackTrace, Payload: StackTraceRecord{
			SerialNumber:   serial,
			ThreadSerial:   threadSerial,
			NumberOfFrames: numFrames,
			StackFrameIDs:  ids,
		}}
		return rec, origLen - len(after), after, nil

	case TagAllocSites:
		hdr, rest, err := decodeRecordHeader(rest)
		if err != nil {
			return Record{}, 0, b, err
		}
		if len(rest) < int(hdr.Length) {
			return Record{}, 0, b, NeedMore(int(hdr.Length) - len(rest))
		}
		body := rest[:hdr.Length]
		after := rest[hdr.Length:]
		flags, body, _ := ReadU16(body)
		cutoff, body, _ := ReadU32(body)
		liveBytes, body, _ := ReadU32(body)
		liveInstances, body, _ := ReadU32(body)
		allocBytes, body, _ := ReadU64(body)
		allocInstances, body, _ := ReadU64(body)
		numSites, body, err := ReadU32(body)
		if err != nil {
			return Record{}, 0, b, Malformed("truncated allocation sites record")
		}
		sites := make([]AllocationSite, 0, numSites)
		for i := uint32(0); i < numSites; i++ {
			isArray, b2, err1 := ReadU8(body)
			classSerial, b2, err2 := ReadU32(b2)
			stSerial, b2, err3 := ReadU32(b2)
			bAlive, b2, err4 := ReadU32(b2)
			iAlive, b2, err5 := ReadU32(b2)
			bAlloc, b2, err6 := ReadU32(b2)
			iAlloc, b2, err7 := ReadU32(b2)
			if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil || err6 != nil || err7 != nil {
				return Record{}, 0, b, Malformed("truncated allocation site entry")
			}
			body = b2
			sites = append(sites, AllocationSite{
				IsArray:                isArray,
				ClassSerialNumber:      classSerial,
				StackTraceSerialNumber: stSerial,
				BytesAlive:             bAlive,
				InstancesAlive:         iAlive,
				BytesAllocated:         bAlloc,
				InstancesAllocated:     iAlloc,
			})
		}
		rec := Record{Kind: KindAllocSites, Payload: AllocSitesRecord{
			Flags:                   flags,
			CutoffRatio:             cutoff,
			TotalLiveBytes:          liveBytes,
			TotalLiveInstances:      liveInstances,
			TotalBytesAllocated:     allocBytes,
			TotalInstancesAllocated: allocInstances,
			Sites:                   sites,
		}}
		return rec, origLen - len(after), after, nil

	case TagHeapSummary:
		return decodeFixedHeaderRecord(b, rest, idSize, KindHeapSummary, func(body []byte, _ int) (interface{}, []byte, error) {
			liveBytes, body, err := ReadU32(body)
			if err != nil {
				return nil, body, err
			}
			liveInstances, body, err := ReadU32(body)
			if err != nil {
				return nil, body, err
			}
			allocBytes, body, err := ReadU64(body)
			if err != nil {
				return nil, body, err
			}
			allocInstances, body, err := ReadU64(body)
			if err != nil {
				return nil, body, err
			}
			return HeapSummaryRecord{
				TotalLiveBytes:          liveBytes,
				TotalLiveInstances:      liveInstances,
				TotalBytesAllocated:     allocBytes,
				TotalInstancesAllocated: allocInstances,
			}, body, nil
		})

	case TagStartThread:
		return decodeFixedHeaderRecord(b, rest, idSize, KindStartThread, func(body []byte, idSize int) (interface{}, []byte, error) {
			serial, body, err := ReadU32(body)
			if err != nil {
				return nil, body, err
			}
			objID, body, err := ReadID(body, idSize)
			if err != nil {
				return nil, body, err
			}
			stSerial, body, err := ReadU32(body)
			if err != nil {
				return nil, body, err
			}
			nameID, body, err := ReadID(body, idSize)
			if err != nil {
				return nil, body, err
			}
			groupID, body, err := ReadID(body, idSize)
			if err != nil {
				return nil, body, err
			}
			parentID, body, err := ReadID(body, idSize)
			if err != nil {
				return nil, body, err
			}
			return StartThreadRecord{
				ThreadSerialNumber:      serial,
				ThreadObjectID:          objID,
				StackTraceSerialNumber:  stSerial,
				ThreadNameID:            nameID,
				ThreadGroupNameID:       groupID,
				ThreadGroupParentNameID: parentID,
			}, body, nil
		})

	case TagEndThread:
		return decodeFixedHeaderRecord(b, rest, idSize, KindEndThread, func(body []byte, _ int) (interface{}, []byte, error) {
			serial, body, err := ReadU32(body)
			return EndThreadRecord{ThreadSerialNumber: serial}, body, err
		})

	case TagHeapDump, TagHeapDumpSegment:
		hdr, rest, err := decodeRecordHeader(rest)
		if err != nil {
			return Record{}, 0, b, err
		}
		rec := Record{Kind: KindHeapDumpStart, Payload: HeapDumpStartRecord{Length: hdr.Length}}
		return rec, origLen - len(rest), rest, nil

	case TagHeapDumpEnd:
		hdr, rest, err := decodeRecordHeader(rest)
		if err != nil {
			return Record{}, 0, b, err
		}
		if len(rest) < int(hdr.Length) {
			return Record{}, 0, b, NeedMore(int(hdr.Length) - len(rest))
		}
		rest = rest[hdr.Length:]
		return Record{Kind: KindHeapDumpEnd}, origLen - len(rest), rest, nil

	case TagCPUSamples:
		hdr, rest, err := decodeRecordHeader(rest)
		if err != nil {
			return Record{}, 0, b, err
		}
		if len(rest) < int(hdr.Length) {
			return Record{}, 0, b, NeedMore(int(hdr.Length) - len(rest))
		}
		body := rest[:hdr.Length]
		after := rest[hdr.Length:]
		total, body, err := ReadU32(body)
		if err != nil {
			return Record{}, 0, b, Malformed("truncated cpu samples record")
		}
		numTraces, body, err := ReadU32(body)
		if err != nil {
			return Record{}, 0, b, Malformed("truncated cpu samples record")
		}
		samples := make([]CPUSample, 0, total)
		for i := uint32(0); i < total; i++ {
			n, b2, err1 := ReadU32(body)
			st, b2, err2 := ReadU32(b2)
			if err1 != nil || err2 != nil {
				return Record{}, 0, b, Malformed("truncated cpu sample entry")
			}
			body = b2
			samples = append(samples, CPUSample{NumberOfSamples: n, StackTraceSerialNumber: st})
		}
		rec := Record{Kind: KindCPUSamples, Payload: CPUSamplesRecord{
			TotalNumberOfSamples: total,
			NumberOfTraces:       numTraces,
			Samples:              samples,
		}}
		return rec, origLen - len(after), after, nil

	case TagControlSettings:
		return decodeFixedHeaderRecord(b, rest, idSize, KindControlSettings, func(body []byte, _ int) (interface{}, []byte, error) {
			flags, body, err := ReadU32(body)
			if err != nil {
				return nil, body, err
			}
			depth, body, err := ReadU16(body)
			return ControlSettingsRecord{Flags: flags, StackTraceDepth: depth}, body, err
		})

	default:
		return Record{}, 0, b, Malformed("unknown top-level record tag 0x%02X", tag)
	}
}

// decodeFixedHeaderRecord is shared plumbing for records whose body is
// fully described by the (timestamp, length) header followed by a fixed
// set of fields with no variable-length trailer handled by the caller's
// own slicing. decodeBody receives the bytes immediately following the
// header (NOT length-bounded) and must return the bytes remaining after
// its fixed fields; the length field itself is trusted to match since
// every caller here recomputes bytes consumed from decodeBody's returned
// rest rather than from length.
func decodeFixedHeaderRecord(orig []byte, afterTag []byte, idSize int, kind Kind, decodeBody func([]byte, int) (interface{}, []byte, error)) (Record, int, []byte, error) {
	hdr, body, err := decodeRecordHeader(afterTag)
	if err != nil {
		return Record{}, 0, orig, err
	}
	if len(body) < int(hdr.Length) {
		return Record{}, 0, orig, NeedMore(int(hdr.Length) - len(body))
	}
	payload, rest, err := decodeBody(body, idSize)
	if err != nil {
		if _, ok := err.(ErrNeedMore); ok {
			// The length-gate above already guarantees hdr.Length bytes are
			// present, so a NeedMore from decodeBody means the record is
			// internally inconsistent, not merely split across chunks.
			return Record{}, 0, orig, Malformed("record body shorter than declared length")
		}
		return Record{}, 0, orig, err
	}
	return Record{Kind: kind, Payload: payload}, len(orig) - len(rest), rest, nil
}
