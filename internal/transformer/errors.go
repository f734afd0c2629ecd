package transformer

import (
	"fmt"
)

// MalformedRowError reports a cell that cannot be used as a count. Line is
// the source line number and Column the header label of the cell.
type MalformedRowError struct {
	Line   int
	Column string
	Value  any
	Err    error
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("row %d: column %s: invalid count %q: %v", e.Line, e.Column, Text(e.Value), e.Err)
}

func (e *MalformedRowError) Unwrap() error { return e.Err }

// DuplicateKeyError reports a second row carrying an identifier already seen
// on FirstLine.
type DuplicateKeyError struct {
	Column    string
	Value     string
	FirstLine int
	Line      int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("row %d: duplicate %s %q (first seen on row %d)", e.Line, e.Column, e.Value, e.FirstLine)
}

// EmptyResultError is advisory: every row was filtered out, so the script
// only carries the preamble and reset statements.
type EmptyResultError struct {
	Read int
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no valid rows after filtering (%d read)", e.Read)
}
