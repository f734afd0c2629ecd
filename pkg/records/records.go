// Package records defines the row shapes passed between the parser and the
// transformation stages.
package records

import (
	"strings"
	"unicode"
)

// Record maps a column name to a scalar cell value. Values are one of string,
// an integer kind, float64, or nil for an empty cell. After header resolution
// the keys are canonical field names (see internal/schema).
type Record map[string]any

// Row is a Record tagged with the 1-based line number it was read from, so
// errors and reject reports can point back at the spreadsheet.
type Row struct {
	Line   int
	Fields Record
}

// IsBlank reports whether v is nil or a string made only of whitespace
// (including the no-break space spreadsheets like to leave behind).
func IsBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimFunc(t, unicode.IsSpace) == ""
	}
	return false
}
