package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// ClassAllocationStats is one row of the optional JSON export.
type ClassAllocationStats struct {
	ClassName              string `json:"class_name"`
	InstanceCount          uint64 `json:"instance_count"`
	LargestAllocationBytes uint64 `json:"largest_allocation_bytes"`
	AllocationSizeBytes    uint64 `json:"allocation_size_bytes"`
}

type jsonResult struct {
	TopAllocatedClasses  []ClassAllocationStats `json:"top_allocated_classes"`
	TopLargestInstances  []ClassAllocationStats `json:"top_largest_instances"`
}

// WriteJSON renders the top-N tables as a "hprof-slurp-<epochMillis>.json"
// file in the current directory and returns the path written.
func (r *Recorder) WriteJSON(epochMillis int64) (string, error) {
	rows := r.buildRows()
	stats := make([]ClassAllocationStats, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, ClassAllocationStats{
			ClassName:              row.label,
			InstanceCount:          row.count,
			LargestAllocationBytes: row.largest,
			AllocationSizeBytes:    row.total,
		})
	}

	byAllocation := append([]ClassAllocationStats(nil), stats...)
	sort.Slice(byAllocation, func(i, j int) bool {
		return byAllocation[i].AllocationSizeBytes > byAllocation[j].AllocationSizeBytes
	})
	if len(byAllocation) > r.top {
		byAllocation = byAllocation[:r.top]
	}

	byLargest := append([]ClassAllocationStats(nil), stats...)
	sort.Slice(byLargest, func(i, j int) bool {
		return byLargest[i].LargestAllocationBytes > byLargest[j].LargestAllocationBytes
	})
	if len(byLargest) > r.top {
		byLargest = byLargest[:r.top]
	}

	result := jsonResult{TopAllocatedClasses: byAllocation, TopLargestInstances: byLargest}

	path := fmt.Sprintf("hprof-slurp-%d.json", epochMillis)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	if err := enc.Encode(result); err != nil {
		return "", err
	}
	return path, nil
}
