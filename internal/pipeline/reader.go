package pipeline

import (
	"context"
	"io"
)

// Reader reads the source file in fixed-size chunks and pushes them onto
// chunks for the parser to consume. It pulls its buffers from bufferPool so
// that, once the parser releases a chunk it has fully consumed, the reader
// can reuse it instead of allocating again.
//
// Grounded on the original prefetch reader: a single blocking read loop that
// exits once it has delivered exactly fileLen-headerLen bytes, without
// regard to what downstream stages do with them.
type Reader struct {
	src       io.Reader
	fileLen   int64
	headerLen int64
	processed int64

	chunks     chan<- *[]byte
	bufferPool <-chan *[]byte
	progress   chan<- int64
}

// NewReader builds a Reader. chunks is the channel the parser receives
// filled buffers from; bufferPool is the recycle channel empty buffers flow
// back through; progress receives cumulative bytes read so the driver can
// update a progress indicator.
func NewReader(src io.Reader, fileLen, headerLen int64, chunks chan<- *[]byte, bufferPool <-chan *[]byte, progress chan<- int64) *Reader {
	return &Reader{
		src:        src,
		fileLen:    fileLen,
		headerLen:  headerLen,
		processed:  headerLen,
		chunks:     chunks,
		bufferPool: bufferPool,
		progress:   progress,
	}
}

// Run reads until the whole file has been delivered, a read fails, or ctx
// is cancelled. It never inspects errors from downstream stages; a
// cancelled context is the only way they can stop it early.
func (r *Reader) Run(ctx context.Context) error {
	defer close(r.chunks)
	for r.processed != r.fileLen {
		remaining := r.fileLen - r.processed
		next := int64(ChunkSize)
		if remaining < next {
			next = remaining
		}

		var buf *[]byte
		select {
		case buf = <-r.bufferPool:
		case <-ctx.Done():
			return ctx.Err()
		}
		*buf = (*buf)[:next]

		if _, err := io.ReadFull(r.src, *buf); err != nil {
			return err
		}
		r.processed += next

		select {
		case r.chunks <- buf:
		case <-ctx.Done():
			return ctx.Err()
		}
		select {
		case r.progress <- r.processed:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// Progress reporting is best-effort: a full channel never
			// blocks the reader.
		}
	}
	return nil
}
