package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	callsCounters   []counterCall
	callsHistograms []histCall
	flushCount      int
	flushErr        error
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsCounters = append(f.callsCounters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsHistograms = append(f.callsHistograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return f.flushErr
}

// swapGlobal installs b as the process-wide backend until the test ends.
func swapGlobal(t *testing.T, b Backend) {
	t.Helper()
	orig := Global()
	mu.Lock()
	backend = b
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		backend = orig
		mu.Unlock()
	})
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	fb := &fakeBackend{}
	swapGlobal(t, fb)

	RecordStep("jobA", "read", nil, 2*time.Second)
	RecordStep("jobB", "emit", errors.New("boom"), 1500*time.Millisecond)

	if len(fb.callsCounters) != 2 || len(fb.callsHistograms) != 2 {
		t.Fatalf("calls = %d counters, %d histograms; want 2 and 2", len(fb.callsCounters), len(fb.callsHistograms))
	}

	cc0 := fb.callsCounters[0]
	if cc0.name != StepTotal || cc0.delta != 1 {
		t.Fatalf("counter[0] = %#v; want name=%s, delta=1", cc0, StepTotal)
	}
	if cc0.labels["job"] != "jobA" || cc0.labels["step"] != "read" || cc0.labels["status"] != "success" {
		t.Fatalf("counter[0].labels = %v", cc0.labels)
	}

	h0 := fb.callsHistograms[0]
	if h0.name != StepDurationSeconds || h0.value < 2.0-0.001 || h0.value > 2.0+0.001 {
		t.Fatalf("hist[0] = %#v; want %s ~2.0", h0, StepDurationSeconds)
	}

	if fb.callsCounters[1].labels["status"] != "failure" {
		t.Fatalf("counter[1].labels[status]=%q; want failure", fb.callsCounters[1].labels["status"])
	}
}

func TestRecordRow_IgnoresNonPositive(t *testing.T) {
	fb := &fakeBackend{}
	swapGlobal(t, fb)

	RecordRow("jobX", "read", 3)
	RecordRow("jobX", "read", 0)
	RecordRow("jobX", "emitted", -1)

	if len(fb.callsCounters) != 1 {
		t.Fatalf("expected 1 counter call, got %d", len(fb.callsCounters))
	}
	c0 := fb.callsCounters[0]
	if c0.name != RowsTotal || c0.delta != 3 || c0.labels["kind"] != "read" {
		t.Fatalf("counter[0] = %#v", c0)
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	fb := &fakeBackend{}
	swapGlobal(t, nopBackend{})

	SetBackend(fb)
	if Global() != fb {
		t.Fatal("SetBackend did not replace global backend")
	}
	if err := Flush(); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if fb.flushCount != 1 {
		t.Fatalf("expected flushCount=1, got %d", fb.flushCount)
	}

	SetBackend(nil)
	if Global() != fb {
		t.Fatal("SetBackend(nil) should not change backend")
	}
}

func TestRecorder_NilBackendIsSafe(t *testing.T) {
	t.Parallel()

	r := Recorder{Job: "j"}
	r.Step("read", nil, time.Millisecond)
	r.Rows("read", 1)
	if err := r.Time("emit", func() error { return nil }); err != nil {
		t.Fatalf("Time() = %v", err)
	}
}

func TestMultiAndTally(t *testing.T) {
	t.Parallel()

	tally := NewTally()
	fb := &fakeBackend{flushErr: errors.New("push failed")}
	r := Recorder{Job: "cilebar", Backend: Multi{tally, fb}}

	r.Rows("read", 10)
	r.Rows("read", 2)
	r.Rows("emitted", 9)
	r.Step("read", nil, 200*time.Millisecond)
	r.Step("read", nil, 300*time.Millisecond)
	wantErr := errors.New("bad header")
	if err := r.Time("build", func() error { return wantErr }); !errors.Is(err, wantErr) {
		t.Fatalf("Time() = %v, want %v", err, wantErr)
	}
	Recorder{Job: "other", Backend: tally}.Rows("read", 99)

	if got := tally.Rows("cilebar", "read"); got != 12 {
		t.Fatalf("Rows(read) = %d, want 12", got)
	}
	if got := tally.Rows("cilebar", "emitted"); got != 9 {
		t.Fatalf("Rows(emitted) = %d, want 9", got)
	}
	if got := tally.Rows("cilebar", "skipped_malformed"); got != 0 {
		t.Fatalf("Rows(skipped_malformed) = %d, want 0", got)
	}
	if got := tally.Total(StepTotal, Labels{"job": "cilebar", "step": "build", "status": "failure"}); got != 1 {
		t.Fatalf("failed build steps = %v, want 1", got)
	}

	steps := tally.Steps("cilebar")
	if len(steps) != 2 || steps[0].Step != "build" || steps[1].Step != "read" {
		t.Fatalf("Steps() = %+v, want build then read", steps)
	}
	if d := steps[1].Duration; d < 499*time.Millisecond || d > 501*time.Millisecond {
		t.Fatalf("read duration = %v, want ~500ms", d)
	}

	if len(fb.callsCounters) != 6 {
		t.Fatalf("fan-out counters = %d, want 6", len(fb.callsCounters))
	}
	if err := (Multi{tally, fb}).Flush(); err == nil || err.Error() != "push failed" {
		t.Fatalf("Multi.Flush() = %v, want push failed", err)
	}
}
