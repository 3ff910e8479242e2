// Package pipeline wires the three concurrent stages that turn a raw HPROF
// file into an aggregated report: a prefetch reader, a record parser, and a
// result recorder, connected by bounded channels.
package pipeline

import (
	"sync"

	"github.com/agourlay/hprof-slurp/internal/hprof"
)

// ChunkSize is the amount of input the prefetch reader asks the OS for on
// each read call.
const ChunkSize = 64 * 1024 * 1024

// chunkPool recycles the large byte slices the prefetch reader fills. Reuse
// matters here because a multi-gigabyte heap dump would otherwise churn
// through thousands of 64 MiB allocations over the life of a run.
var chunkPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, ChunkSize)
		return &b
	},
}

// GetChunk gets a buffer from the pool, sized exactly to ChunkSize.
func GetChunk() *[]byte {
	b := chunkPool.Get().(*[]byte)
	if cap(*b) < ChunkSize {
		*b = make([]byte, ChunkSize)
	}
	*b = (*b)[:ChunkSize]
	return b
}

// PutChunk returns a buffer to the pool.
func PutChunk(b *[]byte) {
	chunkPool.Put(b)
}

// batchPool recycles the slices of decoded records the parser hands to the
// recorder, avoiding one allocation per batch on a run with millions of
// records.
var batchPool = sync.Pool{
	New: func() interface{} {
		s := make([]hprof.Record, 0, batchCapacity)
		return &s
	},
}

// batchCapacity is the number of records a single batch carries across the
// parser-to-recorder channel.
const batchCapacity = 1024

// GetBatch gets an empty record batch from the pool.
func GetBatch() *[]hprof.Record {
	s := batchPool.Get().(*[]hprof.Record)
	*s = (*s)[:0]
	return s
}

// PutBatch clears and returns a record batch to the pool.
func PutBatch(s *[]hprof.Record) {
	*s = (*s)[:0]
	batchPool.Put(s)
}
