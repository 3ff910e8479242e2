package pipeline

import (
	"context"
	"io"

	"github.com/agourlay/hprof-slurp/internal/hprof"
	"golang.org/x/sync/errgroup"
)

// Recorder is the sink the pipeline drives: it consumes batches of decoded
// records and, once the batch channel closes, has nothing further to do
// (the caller renders its report afterwards).
type Recorder interface {
	Record(batch []hprof.Record)
}

// Run wires the reader, parser and recorder stages together and blocks
// until the whole file has been processed or a stage fails. fileLen and
// headerLen are in bytes; progress receives cumulative bytes read.
//
// Grounded on the teacher's errgroup-supervised fan-out (internal/parser/hprof/parallel.go):
// one goroutine per stage, first error cancels the shared context, all
// goroutines are joined before Run returns.
func Run(ctx context.Context, src io.Reader, fileLen, headerLen int64, idSize int, rec Recorder, progress chan<- int64) error {
	g, ctx := errgroup.WithContext(ctx)

	bufferPool := make(chan *[]byte, 2)
	bufferPool <- GetChunk()
	bufferPool <- GetChunk()

	chunks := make(chan *[]byte, 2)
	batches := make(chan *[]hprof.Record, 2)

	reader := NewReader(src, fileLen, headerLen, chunks, bufferPool, progress)
	parser := NewParser(idSize, chunks, bufferPool, batches)

	g.Go(func() error {
		return reader.Run(ctx)
	})
	g.Go(func() error {
		return parser.Run(ctx)
	})
	g.Go(func() error {
		for {
			select {
			case batch, ok := <-batches:
				if !ok {
					close(progress)
					return nil
				}
				rec.Record(*batch)
				PutBatch(batch)
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	return g.Wait()
}
