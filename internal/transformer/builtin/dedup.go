package builtin

import (
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/transformer"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/pkg/records"
)

// DeDup detects rows sharing the same value in Field (the school NPSN).
// Blank values are never considered duplicates.
//
// Policy decides what happens on the second and later occurrences:
//
//   - abort: Apply fails with *transformer.DuplicateKeyError
//   - skip:  the row is dropped, the first occurrence wins
//   - keep:  the row is kept; OnDuplicate still reports it
type DeDup struct {
	Field  string
	Label  string // column label used in errors, e.g. "NPSN"
	Policy transformer.Policy

	// OnDuplicate, when set, is called for every duplicate row regardless of
	// policy (before Apply fails under abort).
	OnDuplicate func(row records.Row, err *transformer.DuplicateKeyError)
}

type seenKey struct {
	value string
	line  int
}

// Apply keeps first occurrences in input order. Keys are bucketed by their
// xxh3 hash and compared in full, so a hash collision cannot merge two
// distinct identifiers.
func (d DeDup) Apply(in []records.Row) ([]records.Row, error) {
	policy := d.Policy
	if policy == "" {
		policy = transformer.PolicyAbort
	}
	label := d.Label
	if label == "" {
		label = d.Field
	}

	seen := make(map[uint64][]seenKey, len(in))
	out := in[:0]
	for _, row := range in {
		v := strings.TrimSpace(transformer.Text(row.Fields[d.Field]))
		if v == "" {
			out = append(out, row)
			continue
		}

		h := xxh3.HashString(v)
		first, found := 0, false
		for _, k := range seen[h] {
			if k.value == v {
				first, found = k.line, true
				break
			}
		}
		if !found {
			seen[h] = append(seen[h], seenKey{value: v, line: row.Line})
			out = append(out, row)
			continue
		}

		dup := &transformer.DuplicateKeyError{Column: label, Value: v, FirstLine: first, Line: row.Line}
		if d.OnDuplicate != nil {
			d.OnDuplicate(row, dup)
		}
		switch policy {
		case transformer.PolicyAbort:
			return nil, dup
		case transformer.PolicyKeep:
			out = append(out, row)
		}
	}
	return out, nil
}
