package metrics

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Tally is an in-memory Backend. It keeps counter totals and the sum of
// observed values per metric name and label set, which is enough to print a
// run summary.
type Tally struct {
	mu     sync.Mutex
	series map[string]*series
}

type series struct {
	name   string
	labels Labels
	total  float64
}

// NewTally returns an empty Tally.
func NewTally() *Tally {
	return &Tally{series: make(map[string]*series)}
}

func (t *Tally) add(name string, v float64, labels Labels) {
	key := seriesKey(name, labels)
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.series[key]
	if !ok {
		cp := make(Labels, len(labels))
		for k, v := range labels {
			cp[k] = v
		}
		s = &series{name: name, labels: cp}
		t.series[key] = s
	}
	s.total += v
}

func (t *Tally) IncCounter(name string, delta float64, labels Labels) { t.add(name, delta, labels) }

func (t *Tally) ObserveHistogram(name string, value float64, labels Labels) {
	t.add(name, value, labels)
}

func (t *Tally) Flush() error { return nil }

// Total returns the counter total, or the sum of observations, for name and
// labels.
func (t *Tally) Total(name string, labels Labels) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.series[seriesKey(name, labels)]; ok {
		return s.total
	}
	return 0
}

// Rows returns the row counter for job and kind.
func (t *Tally) Rows(job, kind string) int64 {
	return int64(t.Total(RowsTotal, Labels{"job": job, "kind": kind}))
}

// StepTiming is the accumulated duration of one step.
type StepTiming struct {
	Step     string
	Duration time.Duration
}

// Steps returns accumulated step durations for job, sorted by step name.
func (t *Tally) Steps(job string) []StepTiming {
	t.mu.Lock()
	byStep := map[string]float64{}
	for _, s := range t.series {
		if s.name == StepDurationSeconds && s.labels["job"] == job {
			byStep[s.labels["step"]] += s.total
		}
	}
	t.mu.Unlock()

	out := make([]StepTiming, 0, len(byStep))
	for step, secs := range byStep {
		out = append(out, StepTiming{Step: step, Duration: time.Duration(secs * float64(time.Second))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Step < out[j].Step })
	return out
}

// seriesKey renders name{k1="v1",k2="v2"} with keys sorted.
func seriesKey(name string, labels Labels) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteString(`="`)
		sb.WriteString(strings.ReplaceAll(labels[k], `"`, `\"`))
		sb.WriteByte('"')
	}
	sb.WriteByte('}')
	return sb.String()
}
