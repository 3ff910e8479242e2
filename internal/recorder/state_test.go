package recorder

import (
	"testing"

	"github.com/agourlay/hprof-slurp/internal/hprof"
	"github.com/stretchr/testify/assert"
)

func TestRecordTallyCounters(t *testing.T) {
	r := New(8, 20, false)
	r.Record([]hprof.Record{
		{Kind: hprof.KindUTF8String, Payload: hprof.UTF8StringRecord{ID: 1, Value: "a.b.C"}},
		{Kind: hprof.KindLoadClass, Payload: hprof.LoadClassRecord{SerialNumber: 1, ClassObjectID: 100, ClassNameID: 1}},
		{Kind: hprof.KindUnloadClass, Payload: hprof.UnloadClassRecord{SerialNumber: 1}},
		{Kind: hprof.KindStartThread},
		{Kind: hprof.KindEndThread},
		{Kind: hprof.KindHeapSummary},
		{Kind: hprof.KindAllocSites},
		{Kind: hprof.KindControlSettings},
		{Kind: hprof.KindCPUSamples},
		{Kind: hprof.KindHeapDumpStart, Payload: hprof.HeapDumpStartRecord{Length: 0}},
	})

	assert.Equal(t, 1, r.classesUnloaded)
	assert.Equal(t, 1, r.startThreads)
	assert.Equal(t, 1, r.endThreads)
	assert.Equal(t, 1, r.heapSummaries)
	assert.Equal(t, 1, r.allocationSites)
	assert.Equal(t, 1, r.controlSettings)
	assert.Equal(t, 1, r.cpuSamples)
	assert.Equal(t, 1, r.heapDumps)
	assert.Equal(t, "a.b.C", r.className(100))
}

func TestRecordGCSegmentCounters(t *testing.T) {
	r := New(8, 20, false)
	r.Record([]hprof.Record{
		{Kind: hprof.KindGCSegment, Payload: hprof.GCRecord{Kind: hprof.GCRootUnknown, Payload: hprof.GCRootUnknownRecord{ObjectID: 1}}},
		{Kind: hprof.KindGCSegment, Payload: hprof.GCRecord{Kind: hprof.GCClassDump, Payload: hprof.ClassDumpRecord{ClassObjectID: 5, InstanceSize: 8}}},
		{Kind: hprof.KindGCSegment, Payload: hprof.GCRecord{Kind: hprof.GCInstanceDump, Payload: hprof.InstanceDumpRecord{ClassObjectID: 5}}},
		{Kind: hprof.KindGCSegment, Payload: hprof.GCRecord{Kind: hprof.GCInstanceDump, Payload: hprof.InstanceDumpRecord{ClassObjectID: 5}}},
		{Kind: hprof.KindGCSegment, Payload: hprof.GCRecord{Kind: hprof.GCObjectArrayDump, Payload: hprof.ObjectArrayDumpRecord{ArrayClassID: 9, NumberOfElements: 3}}},
		{Kind: hprof.KindGCSegment, Payload: hprof.GCRecord{Kind: hprof.GCPrimitiveArrayDump, Payload: hprof.PrimitiveArrayDumpRecord{ElementType: hprof.FieldTypeInt, NumberOfElements: 4}}},
	})

	assert.Equal(t, 6, r.gcAllSubRecords)
	assert.Equal(t, 1, r.gcRootUnknown)
	assert.Equal(t, 1, r.gcClassDump)
	assert.Equal(t, uint64(2), r.instanceCounter[5])
	assert.Equal(t, uint64(1), r.objectArrayCounters[9].count)
	assert.Equal(t, uint64(1), r.primitiveArrayCounters[hprof.FieldTypeInt].count)
}

func TestDuplicateStringCountIsByValue(t *testing.T) {
	r := New(8, 20, false)
	r.Record([]hprof.Record{
		{Kind: hprof.KindUTF8String, Payload: hprof.UTF8StringRecord{ID: 1, Value: "same"}},
		{Kind: hprof.KindUTF8String, Payload: hprof.UTF8StringRecord{ID: 2, Value: "same"}},
		{Kind: hprof.KindUTF8String, Payload: hprof.UTF8StringRecord{ID: 3, Value: "different"}},
	})
	assert.Equal(t, 1, r.duplicateStringCount())
}

func TestJavaBinaryNameSubstitutesSlashes(t *testing.T) {
	assert.Equal(t, "java.lang.String", javaBinaryName("java/lang/String"))
	assert.Equal(t, "NoSlashes", javaBinaryName("NoSlashes"))
}

func TestClassNameUnknownWhenNotLoaded(t *testing.T) {
	r := New(8, 20, false)
	assert.Equal(t, "<unknown class>", r.className(999))
}
