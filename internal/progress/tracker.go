// Package progress renders a progress bar for multi-database operations.
package progress

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Tracker counts finished items and draws them on a bar.
type Tracker struct {
	bar       *progressbar.ProgressBar
	total     int
	current   atomic.Int64
	startTime time.Time
	out       io.Writer
}

// New creates a tracker for total items drawing to w.
func New(w io.Writer, total int, description string) *Tracker {
	return &Tracker{
		total:     total,
		startTime: time.Now(),
		out:       w,
		bar: progressbar.NewOptions(
			total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(description),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		),
	}
}

// Add records one finished item.
func (t *Tracker) Add() {
	t.current.Add(1)
	t.bar.Add(1)
}

// Current returns the number of finished items.
func (t *Tracker) Current() int64 {
	return t.current.Load()
}

// Finish completes the bar and prints a one-line summary.
func (t *Tracker) Finish(noun string) {
	t.bar.Finish()
	fmt.Fprintf(t.out, "Checked %d of %d %s in %s\n",
		t.current.Load(), t.total, noun, time.Since(t.startTime).Round(time.Millisecond))
}
