// Package rejects writes a CSV report of rows dropped from the seed script.
//
// The report has a fixed header:
//
//	reason,line,column,value,name
//
// A nil *Report is valid and discards everything, so callers do not need to
// check whether reporting is enabled.
package rejects

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
)

// Reasons written by the pipeline.
const (
	ReasonMissingName = "missing_name"
	ReasonMalformed   = "malformed_count"
	ReasonDuplicate   = "duplicate_npsn"
)

// Header is the first record of every report.
var Header = []string{"reason", "line", "column", "value", "name"}

// Entry is one dropped row.
type Entry struct {
	Reason string
	Line   int
	Column string
	Value  string
	Name   string
}

// Report accumulates entries and per-reason counts.
type Report struct {
	mu      sync.Mutex
	w       *csv.Writer
	reasons map[string]int
}

// New writes the header to w and returns a Report that appends to it.
func New(w io.Writer) (*Report, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return nil, fmt.Errorf("rejects: write header: %w", err)
	}
	return &Report{w: cw, reasons: make(map[string]int)}, nil
}

// Add records e.
func (r *Report) Add(e Entry) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons[e.Reason]++
	line := ""
	if e.Line > 0 {
		line = strconv.Itoa(e.Line)
	}
	if err := r.w.Write([]string{e.Reason, line, e.Column, e.Value, e.Name}); err != nil {
		return fmt.Errorf("rejects: %w", err)
	}
	return nil
}

// Counts returns the number of entries per reason.
func (r *Report) Counts() map[string]int {
	out := map[string]int{}
	if r == nil {
		return out
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range r.reasons {
		out[k] = v
	}
	return out
}

// Summary renders Counts as "reason=n" pairs sorted by reason.
func (r *Report) Summary() string {
	counts := r.Counts()
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := ""
	for i, k := range keys {
		if i > 0 {
			s += " "
		}
		s += k + "=" + strconv.Itoa(counts[k])
	}
	return s
}

// Flush writes buffered records to the underlying writer.
func (r *Report) Flush() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w.Flush()
	return r.w.Error()
}
