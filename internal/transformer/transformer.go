// Package transformer turns validated source rows into the relational records
// written by the seed script.
//
// Row-level filters and cleanups implement Transformer and are composed with
// Chain (see the builtin subpackage). NormalizeRow and NormalizeAll build the
// Organization/SchoolStats pair for each row.
package transformer

import (
	"fmt"

	"github.com/muhammadJRahmat-dev/datadik-cilebar/pkg/records"
)

// Transformer rewrites or filters a slice of rows. Implementations may reuse
// the input backing array. A non-nil error aborts the run.
type Transformer interface {
	Apply([]records.Row) ([]records.Row, error)
}

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply runs every transformer in order, stopping at the first error.
func (c Chain) Apply(in []records.Row) ([]records.Row, error) {
	out := in
	for _, t := range c {
		var err error
		if out, err = t.Apply(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Policy decides what happens to a row that fails a check.
type Policy string

const (
	// PolicyAbort fails the whole run on the first offending row.
	PolicyAbort Policy = "abort"
	// PolicySkip drops the offending row and reports it.
	PolicySkip Policy = "skip"
	// PolicyKeep keeps the row and only reports it. Only meaningful for
	// duplicate detection.
	PolicyKeep Policy = "keep"
)

// ParsePolicy validates s. An empty string yields PolicyAbort.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "":
		return PolicyAbort, nil
	case PolicyAbort, PolicySkip, PolicyKeep:
		return Policy(s), nil
	}
	return "", &PolicyError{Value: s}
}

// PolicyError reports an unknown policy name.
type PolicyError struct{ Value string }

func (e *PolicyError) Error() string {
	return fmt.Sprintf("unknown policy %q (want abort, skip or keep)", e.Value)
}
