// Package builtin contains the row-level transformers of the seed pipeline.
package builtin

import "github.com/muhammadJRahmat-dev/datadik-cilebar/pkg/records"

// Require removes any row missing a value for one of the specified fields.
type Require struct {
	Fields []string

	// OnDrop, when set, is called for every removed row with the first field
	// found missing.
	OnDrop func(row records.Row, field string)
}

// Apply returns a filtered slice containing only rows that have all required
// fields present and non-blank. It never fails.
func (r Require) Apply(in []records.Row) ([]records.Row, error) {
	out := in[:0]
	for _, row := range in {
		missing := ""
		for _, f := range r.Fields {
			if records.IsBlank(row.Fields[f]) {
				missing = f
				break
			}
		}
		if missing != "" {
			if r.OnDrop != nil {
				r.OnDrop(row, missing)
			}
			continue
		}
		out = append(out, row)
	}
	return out, nil
}
