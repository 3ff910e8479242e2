package recorder

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/agourlay/hprof-slurp/internal/hprof"
	"github.com/stretchr/testify/require"
)

func TestWriteJSONProducesTopNRows(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	r := New(8, 1, false)
	r.Record([]hprof.Record{
		{Kind: hprof.KindUTF8String, Payload: hprof.UTF8StringRecord{ID: 1, Value: "A"}},
		{Kind: hprof.KindUTF8String, Payload: hprof.UTF8StringRecord{ID: 2, Value: "B"}},
		{Kind: hprof.KindLoadClass, Payload: hprof.LoadClassRecord{SerialNumber: 1, ClassObjectID: 10, ClassNameID: 1}},
		{Kind: hprof.KindLoadClass, Payload: hprof.LoadClassRecord{SerialNumber: 2, ClassObjectID: 20, ClassNameID: 2}},
		{Kind: hprof.KindGCSegment, Payload: hprof.GCRecord{Kind: hprof.GCClassDump, Payload: hprof.ClassDumpRecord{ClassObjectID: 10, InstanceSize: 8}}},
		{Kind: hprof.KindGCSegment, Payload: hprof.GCRecord{Kind: hprof.GCClassDump, Payload: hprof.ClassDumpRecord{ClassObjectID: 20, InstanceSize: 800}}},
		{Kind: hprof.KindGCSegment, Payload: hprof.GCRecord{Kind: hprof.GCInstanceDump, Payload: hprof.InstanceDumpRecord{ClassObjectID: 10}}},
		{Kind: hprof.KindGCSegment, Payload: hprof.GCRecord{Kind: hprof.GCInstanceDump, Payload: hprof.InstanceDumpRecord{ClassObjectID: 20}}},
	})

	path, err := r.WriteJSON(1700000000000)
	require.NoError(t, err)
	require.Equal(t, "hprof-slurp-1700000000000.json", path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var result jsonResult
	require.NoError(t, json.Unmarshal(raw, &result))
	require.Len(t, result.TopAllocatedClasses, 1)
	require.Len(t, result.TopLargestInstances, 1)
	require.Equal(t, "B", result.TopAllocatedClasses[0].ClassName)
}
