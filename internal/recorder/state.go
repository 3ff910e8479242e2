// Package recorder consumes decoded HPROF records and renders the final
// analysis report. Its state is the only unbounded structure in the
// pipeline: O(classes + threads), not O(objects).
package recorder

import (
	"sort"

	"github.com/agourlay/hprof-slurp/internal/hprof"
)

type classInfoEntry struct {
	superClassObjectID uint64
	instanceSize       uint32
}

type arrayCounter struct {
	count         uint64
	maxSeenLen    uint64
	totalElements uint64
}

func (c *arrayCounter) addArray(elements uint32) {
	c.count++
	c.totalElements += uint64(elements)
	if uint64(elements) > c.maxSeenLen {
		c.maxSeenLen = uint64(elements)
	}
}

// Recorder accumulates the aggregation state described in the data model
// and, once the record stream ends, renders it via Render.
type Recorder struct {
	idSize      int
	top         int
	listStrings bool

	// Tag counters.
	classesUnloaded   int
	stackFrames       int
	stackTraces       int
	startThreads      int
	endThreads        int
	heapSummaries     int
	heapDumps         int
	allocationSites   int
	controlSettings   int
	cpuSamples        int

	// GC sub-record tag counters.
	gcAllSubRecords      int
	gcRootUnknown        int
	gcRootThreadObject   int
	gcRootJNIGlobal      int
	gcRootJNILocal       int
	gcRootJavaFrame      int
	gcRootNativeStack    int
	gcRootStickyClass    int
	gcRootThreadBlock    int
	gcRootMonitorUsed    int
	gcObjectArrayDump    int
	gcPrimitiveArrayDump int
	gcClassDump          int

	// Captured state.
	utf8Strings       map[uint64]string
	classNameIDByID   map[uint64]uint64
	classDataBySerial map[uint32]hprof.LoadClassRecord
	classInfo         map[uint64]classInfoEntry
	instanceCounter   map[uint64]uint64

	primitiveArrayCounters map[hprof.FieldType]*arrayCounter
	objectArrayCounters    map[uint64]*arrayCounter

	stackFrameByID     map[uint64]hprof.StackFrameRecord
	stackTraceBySerial map[uint32]hprof.StackTraceRecord
}

// New creates an empty Recorder. top is the row count for the allocation
// tables; listStrings additionally requests a dump of every captured
// UTF-8 string in the final report.
func New(idSize, top int, listStrings bool) *Recorder {
	return &Recorder{
		idSize:                 idSize,
		top:                    top,
		listStrings:            listStrings,
		utf8Strings:            make(map[uint64]string),
		classNameIDByID:        make(map[uint64]uint64),
		classDataBySerial:      make(map[uint32]hprof.LoadClassRecord),
		classInfo:              make(map[uint64]classInfoEntry),
		instanceCounter:        make(map[uint64]uint64),
		primitiveArrayCounters: make(map[hprof.FieldType]*arrayCounter),
		objectArrayCounters:    make(map[uint64]*arrayCounter),
		stackFrameByID:         make(map[uint64]hprof.StackFrameRecord),
		stackTraceBySerial:     make(map[uint32]hprof.StackTraceRecord),
	}
}

// Record folds one batch of decoded records into the aggregation state.
// It implements pipeline.Recorder.
func (r *Recorder) Record(batch []hprof.Record) {
	for _, rec := range batch {
		switch rec.Kind {
		case hprof.KindUTF8String:
			p := rec.Payload.(hprof.UTF8StringRecord)
			r.utf8Strings[p.ID] = p.Value

		case hprof.KindLoadClass:
			p := rec.Payload.(hprof.LoadClassRecord)
			r.classNameIDByID[p.ClassObjectID] = p.ClassNameID
			r.classDataBySerial[p.SerialNumber] = p

		case hprof.KindUnloadClass:
			r.classesUnloaded++

		case hprof.KindStackFrame:
			p := rec.Payload.(hprof.StackFrameRecord)
			r.stackFrameByID[p.StackFrameID] = p
			r.stackFrames++

		case hprof.KindStackTrace:
			p := rec.Payload.(hprof.StackTraceRecord)
			r.stackTraceBySerial[p.SerialNumber] = p
			r.stackTraces++

		case hprof.KindStartThread:
			r.startThreads++
		case hprof.KindEndThread:
			r.endThreads++
		case hprof.KindAllocSites:
			r.allocationSites++
		case hprof.KindHeapSummary:
			r.heapSummaries++
		case hprof.KindControlSettings:
			r.controlSettings++
		case hprof.KindCPUSamples:
			r.cpuSamples++
		case hprof.KindHeapDumpStart:
			r.heapDumps++
		case hprof.KindHeapDumpEnd:
			// nothing to tally

		case hprof.KindGCSegment:
			r.gcAllSubRecords++
			gc := rec.Payload.(hprof.GCRecord)
			switch gc.Kind {
			case hprof.GCRootUnknown:
				r.gcRootUnknown++
			case hprof.GCRootThreadObject:
				r.gcRootThreadObject++
			case hprof.GCRootJNIGlobal:
				r.gcRootJNIGlobal++
			case hprof.GCRootJNILocal:
				r.gcRootJNILocal++
			case hprof.GCRootJavaFrame:
				r.gcRootJavaFrame++
			case hprof.GCRootNativeStack:
				r.gcRootNativeStack++
			case hprof.GCRootStickyClass:
				r.gcRootStickyClass++
			case hprof.GCRootThreadBlock:
				r.gcRootThreadBlock++
			case hprof.GCRootMonitorUsed:
				r.gcRootMonitorUsed++
			case hprof.GCClassDump:
				p := gc.Payload.(hprof.ClassDumpRecord)
				r.classInfo[p.ClassObjectID] = classInfoEntry{
					superClassObjectID: p.SuperClassObjectID,
					instanceSize:       p.InstanceSize,
				}
				r.gcClassDump++
			case hprof.GCInstanceDump:
				p := gc.Payload.(hprof.InstanceDumpRecord)
				r.instanceCounter[p.ClassObjectID]++
			case hprof.GCObjectArrayDump:
				p := gc.Payload.(hprof.ObjectArrayDumpRecord)
				c := r.objectArrayCounters[p.ArrayClassID]
				if c == nil {
					c = &arrayCounter{}
					r.objectArrayCounters[p.ArrayClassID] = c
				}
				c.addArray(p.NumberOfElements)
				r.gcObjectArrayDump++
			case hprof.GCPrimitiveArrayDump:
				p := gc.Payload.(hprof.PrimitiveArrayDumpRecord)
				c := r.primitiveArrayCounters[p.ElementType]
				if c == nil {
					c = &arrayCounter{}
					r.primitiveArrayCounters[p.ElementType] = c
				}
				c.addArray(p.NumberOfElements)
				r.gcPrimitiveArrayDump++
			}
		}
	}
}

// className resolves a class_object_id to its dotted Java name, via the
// class-name-id indirection populated by LoadClass and UTF8String records.
func (r *Recorder) className(classObjectID uint64) string {
	nameID, ok := r.classNameIDByID[classObjectID]
	if !ok {
		return "<unknown class>"
	}
	name, ok := r.utf8Strings[nameID]
	if !ok {
		return "<unknown class>"
	}
	return javaBinaryName(name)
}

func javaBinaryName(raw string) string {
	out := make([]byte, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == '/' {
			out[i] = '.'
		} else {
			out[i] = raw[i]
		}
	}
	return string(out)
}

// duplicateStringCount is the number of captured UTF-8 values that are
// equal to some other captured value under a different id: total values
// minus the count after a stable dedup by value. Computed over values, not
// (id, value) pairs, per the tool's long-standing semantics.
func (r *Recorder) duplicateStringCount() int {
	seen := make(map[string]struct{}, len(r.utf8Strings))
	unique := 0
	for _, v := range r.utf8Strings {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			unique++
		}
	}
	return len(r.utf8Strings) - unique
}

func (r *Recorder) sortedStringValues() []string {
	values := make([]string, 0, len(r.utf8Strings))
	for _, v := range r.utf8Strings {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
