// Package progress shows a progress bar while rows are normalized.
package progress

import (
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Modes accepted by Enabled.
const (
	ModeAuto   = "auto"
	ModeAlways = "always"
	ModeNever  = "never"
)

// Enabled reports whether a bar should be drawn on w. In auto mode the bar is
// shown only when w is a terminal, so redirected stderr stays clean.
func Enabled(mode string, w io.Writer) bool {
	switch mode {
	case ModeAlways:
		return true
	case ModeNever:
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Tracker counts processed rows and, when a writer is set, renders a bar.
// Add is safe for concurrent use.
type Tracker struct {
	out       io.Writer
	bar       *progressbar.ProgressBar
	total     int64
	current   atomic.Int64
	startTime time.Time
}

// New returns a Tracker drawing on out. A nil out only counts.
func New(out io.Writer) *Tracker {
	return &Tracker{out: out, startTime: time.Now()}
}

// SetTotal sets the number of rows expected and creates the bar.
func (t *Tracker) SetTotal(total int64) {
	t.total = total
	if t.out == nil {
		return
	}
	t.bar = progressbar.NewOptions64(
		total,
		progressbar.OptionSetWriter(t.out),
		progressbar.OptionSetDescription("Normalizing"),
		progressbar.OptionShowBytes(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Add increments the counter by n.
func (t *Tracker) Add(n int64) {
	t.current.Add(n)
	if t.bar != nil {
		_ = t.bar.Add64(n)
	}
}

// Inc is Add(1), usable as a callback.
func (t *Tracker) Inc() { t.Add(1) }

// Current returns the current count.
func (t *Tracker) Current() int64 {
	return t.current.Load()
}

// Total returns the value passed to SetTotal.
func (t *Tracker) Total() int64 {
	return t.total
}

// Finish completes the bar and returns the time since New.
func (t *Tracker) Finish() time.Duration {
	if t.bar != nil {
		_ = t.bar.Finish()
	}
	return time.Since(t.startTime)
}
