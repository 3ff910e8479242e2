package pipeline

import (
	"context"

	"github.com/agourlay/hprof-slurp/internal/hprof"
)

// Parser turns the raw byte stream delivered by Reader into batches of
// decoded Records. It owns a carryover buffer that accumulates bytes across
// chunk boundaries and a sub-record-remaining counter that tracks whether
// decoding is currently inside a heap-dump segment.
//
// Grounded on the original record-parser iterator: pull one batch's worth
// of records, and on running out of input, fold the unconsumed tail back
// into the carryover and wait for the next chunk rather than blocking
// mid-decode.
type Parser struct {
	idSize int

	carryover []byte
	inSegment bool
	remaining uint32

	chunks     <-chan *[]byte
	bufferPool chan<- *[]byte
	batches    chan<- *[]hprof.Record
}

// NewParser builds a Parser. chunks delivers filled buffers from the
// reader; bufferPool is where the parser returns a chunk buffer once its
// bytes have been folded into the carryover; batches is where completed
// record batches are sent (pulled from the pooled batch allocator so the
// recorder can recycle them after use).
func NewParser(idSize int, chunks <-chan *[]byte, bufferPool chan<- *[]byte, batches chan<- *[]hprof.Record) *Parser {
	return &Parser{
		idSize:     idSize,
		chunks:     chunks,
		bufferPool: bufferPool,
		batches:    batches,
	}
}

// Run decodes records until the chunk channel closes, then closes batches.
func (p *Parser) Run(ctx context.Context) error {
	defer close(p.batches)

	batch := GetBatch()
	flush := func() error {
		if len(*batch) == 0 {
			return nil
		}
		select {
		case p.batches <- batch:
		case <-ctx.Done():
			return ctx.Err()
		}
		batch = GetBatch()
		return nil
	}

	for {
		rec, consumed, err := p.decodeNext()
		if err == nil {
			*batch = append(*batch, rec)
			p.carryover = p.carryover[consumed:]
			if len(*batch) == batchCapacity {
				if ferr := flush(); ferr != nil {
					return ferr
				}
			}
			continue
		}

		need, isNeedMore := err.(hprof.ErrNeedMore)
		if !isNeedMore {
			return err
		}

		if ferr := flush(); ferr != nil {
			return ferr
		}

		chunk, ok := <-p.chunks
		if !ok {
			if len(p.carryover) == 0 {
				return nil
			}
			return hprof.Malformed("truncated HPROF file: needed %d more byte(s) at EOF", need.N)
		}
		p.carryover = append(p.carryover, (*chunk)...)
		select {
		case p.bufferPool <- chunk:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// decodeNext decodes exactly one record (top-level or sub-record,
// depending on current mode) from the head of the carryover buffer.
func (p *Parser) decodeNext() (hprof.Record, int, error) {
	if len(p.carryover) == 0 {
		return hprof.Record{}, 0, hprof.NeedMore(1)
	}

	if p.inSegment && p.remaining == 0 {
		p.inSegment = false
	}

	if p.inSegment {
		gc, consumed, _, err := hprof.DecodeSubRecord(p.carryover, p.idSize)
		if err != nil {
			return hprof.Record{}, 0, err
		}
		p.remaining -= uint32(consumed)
		return hprof.Record{Kind: hprof.KindGCSegment, Payload: gc}, consumed, nil
	}

	rec, consumed, _, err := hprof.DecodeTopLevel(p.carryover, p.idSize)
	if err != nil {
		return hprof.Record{}, 0, err
	}
	if rec.Kind == hprof.KindHeapDumpStart {
		start := rec.Payload.(hprof.HeapDumpStartRecord)
		p.inSegment = start.Length > 0
		p.remaining = start.Length
	}
	return rec, consumed, nil
}
