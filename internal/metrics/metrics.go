// Package metrics records counters and stage timings for a seedgen run.
//
// Call sites depend only on Backend. A process-wide backend defaults to a
// no-op so instrumentation is always safe to call; a Recorder lets a single
// run report to its own backend (typically a Tally used for the run summary)
// in addition to the global one.
package metrics

import (
	"sync"
	"time"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

// Metric names.
const (
	StepTotal           = "seedgen_step_total"
	StepDurationSeconds = "seedgen_step_duration_seconds"
	RowsTotal           = "seedgen_rows_total"
)

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a process-wide backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

// Global returns the process-wide backend.
func Global() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the process-wide backend.
func Flush() error {
	return Global().Flush()
}

// RecordStep records one step outcome on the process-wide backend.
func RecordStep(job, step string, err error, d time.Duration) {
	Recorder{Job: job, Backend: Global()}.Step(step, err, d)
}

// RecordRow increments a row counter on the process-wide backend.
func RecordRow(job, kind string, delta int64) {
	Recorder{Job: job, Backend: Global()}.Rows(kind, delta)
}

// Recorder binds a job name to a backend.
type Recorder struct {
	Job     string
	Backend Backend
}

func (r Recorder) backend() Backend {
	if r.Backend == nil {
		return nopBackend{}
	}
	return r.Backend
}

// Step counts a step as success or failure and observes its duration.
func (r Recorder) Step(step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"job":    r.Job,
		"step":   step,
		"status": status,
	}
	b := r.backend()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// Time runs fn as step and records its outcome.
func (r Recorder) Time(step string, fn func() error) error {
	start := time.Now()
	err := fn()
	r.Step(step, err, time.Since(start))
	return err
}

// Rows increments the row counter for kind. Kinds used by the pipeline are
// read, filtered, skipped_malformed, skipped_duplicate and emitted.
// Non-positive deltas are ignored.
func (r Recorder) Rows(kind string, delta int64) {
	if delta <= 0 {
		return
	}
	r.backend().IncCounter(RowsTotal, float64(delta), Labels{
		"job":  r.Job,
		"kind": kind,
	})
}

// Multi fans every call out to all backends. Flush returns the first error.
type Multi []Backend

func (m Multi) IncCounter(name string, delta float64, labels Labels) {
	for _, b := range m {
		b.IncCounter(name, delta, labels)
	}
}

func (m Multi) ObserveHistogram(name string, value float64, labels Labels) {
	for _, b := range m {
		b.ObserveHistogram(name, value, labels)
	}
}

func (m Multi) Flush() error {
	var first error
	for _, b := range m {
		if err := b.Flush(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
