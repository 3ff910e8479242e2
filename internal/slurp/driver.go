// Package slurp sequences a full run: open the file, validate the header,
// wire the three pipeline stages, drive a progress indicator, and render
// the final report.
package slurp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/agourlay/hprof-slurp/internal/hprof"
	"github.com/agourlay/hprof-slurp/internal/pipeline"
	"github.com/agourlay/hprof-slurp/internal/recorder"
	"github.com/agourlay/hprof-slurp/internal/slurperrors"
	"github.com/agourlay/hprof-slurp/internal/slurplog"
)

// Options configures a run.
type Options struct {
	InputFile   string
	Top         int
	Debug       bool
	ListStrings bool
	JSONExport  bool
	EpochMillis int64 // used only when JSONExport is set
}

// Run executes one full slurp: validate options, parse the header, drive
// the pipeline to completion, then render the report to stdout.
func Run(ctx context.Context, opts Options, stdout *os.File) error {
	if opts.Top <= 0 {
		return slurperrors.BadArgument("top must be a positive integer")
	}

	log := slurplog.NewFromDebugFlag(opts.Debug)

	f, err := os.Open(opts.InputFile)
	if err != nil {
		if os.IsNotExist(err) {
			return slurperrors.InputNotFound(opts.InputFile, err)
		}
		return slurperrors.IOError(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return slurperrors.IOError(err)
	}
	fileLen := info.Size()

	reader := bufio.NewReaderSize(f, 1<<16)
	headerBuf := make([]byte, hprof.HeaderLength)
	if _, err := readFull(reader, headerBuf); err != nil {
		return slurperrors.IOError(err)
	}
	header, rest, err := hprof.ParseHeader(headerBuf)
	if err != nil {
		return slurperrors.Malformed(err)
	}
	if len(rest) != 0 {
		return slurperrors.InvalidHeaderSize()
	}
	if header.IDSize != 4 && header.IDSize != 8 {
		return slurperrors.InvalidIDSize(header.IDSize)
	}
	if header.IDSize != 8 {
		return slurperrors.UnsupportedIDSize(header.IDSize)
	}

	fmt.Fprintf(stdout, "Processing %s binary hprof file in %q format.\n", prettySize(fileLen), header.Format)

	rec := recorder.New(header.IDSize, opts.Top, opts.ListStrings)

	progress := make(chan int64, 1)
	bar := NewProgressBar(fileLen)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			bar.Set(p)
		}
		bar.Finish()
	}()

	runErr := pipeline.Run(ctx, reader, fileLen, int64(hprof.HeaderLength), header.IDSize, rec, progress)
	<-done
	if runErr != nil {
		log.Error("pipeline failed: %v", runErr)
		return classifyPipelineError(runErr)
	}

	rec.Render(stdout)

	if opts.JSONExport {
		path, err := rec.WriteJSON(opts.EpochMillis)
		if err != nil {
			return slurperrors.IOError(err)
		}
		fmt.Fprintf(stdout, "\nOutput JSON result file %s\n", path)
	}

	return nil
}

// classifyPipelineError maps a pipeline failure to its spec.md §7 error
// category: a grammar violation or truncated record is "invalid HPROF
// file", not a worker failure; an I/O error reading the underlying file is
// reported as such; anything else (for example a context cancellation) is
// a genuine worker failure.
func classifyPipelineError(err error) error {
	var malformed hprof.ErrMalformed
	if errors.As(err, &malformed) {
		return slurperrors.Malformed(err)
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.ErrClosedPipe) {
		return slurperrors.IOError(err)
	}

	return slurperrors.WorkerFailure(err)
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func prettySize(n int64) string {
	const (
		kb = 1024.0
		mb = kb * 1024.0
		gb = mb * 1024.0
	)
	f := float64(n)
	switch {
	case f > gb:
		return fmt.Sprintf("%.2fGiB", f/gb)
	case f > mb:
		return fmt.Sprintf("%.2fMiB", f/mb)
	case f > kb:
		return fmt.Sprintf("%.2fKiB", f/kb)
	default:
		return fmt.Sprintf("%.2fbytes", f)
	}
}
