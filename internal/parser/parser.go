// Package parser turns a spreadsheet or CSV file into a Table of rows keyed by
// canonical field names.
//
// Format readers (parser/xlsx, parser/csv) only produce a Grid of raw cell
// text. Build then locates the header row, resolves it through
// internal/schema and converts the body into records.Row values.
package parser

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/schema"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/pkg/records"
)

// Supported input formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// Line is one physical row of a sheet. Number is 1-based.
type Line struct {
	Number int
	Cells  []string
}

// Grid is the raw cell text of a single sheet.
type Grid struct {
	Sheet string
	Lines []Line
}

// Reader reads a Grid from r.
type Reader interface {
	Read(ctx context.Context, r io.Reader) (*Grid, error)
}

// Table is a Grid after header resolution.
type Table struct {
	Sheet      string
	HeaderLine int
	Header     []string
	Mapping    schema.Mapping
	Rows       []records.Row
}

// TableOptions controls header detection.
type TableOptions struct {
	// HeaderRow pins the header to this 1-based line number. Zero means
	// auto-detect.
	HeaderRow int

	// ScanRows bounds auto-detection to the first ScanRows non-empty lines.
	// Zero means 10.
	ScanRows int

	// Columns pins canonical fields to exact header texts.
	Columns map[string]string
}

// DetectFormat returns the input format for path, honoring an explicit format
// when one is given.
func DetectFormat(path, format string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	if f == "" {
		f = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch f {
	case "xlsx", "xlsm":
		return FormatXLSX, nil
	case "csv", "txt":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported input format %q (want xlsx or csv)", f)
}

// Build locates the header in g and converts the lines below it into rows.
//
// With auto-detection the header is the first line, among the first ScanRows
// non-empty ones, that resolves every required column. Dapodik exports put a
// title line above the header, which this skips. When no line qualifies, the
// MissingColumnError of the closest candidate is returned.
func Build(g *Grid, opt TableOptions) (*Table, error) {
	headerIdx, mapping, err := findHeader(g, opt)
	if err != nil {
		return nil, err
	}

	hdr := g.Lines[headerIdx]
	t := &Table{
		Sheet:      g.Sheet,
		HeaderLine: hdr.Number,
		Header:     hdr.Cells,
		Mapping:    mapping,
	}
	for _, ln := range g.Lines[headerIdx+1:] {
		if isEmptyLine(ln.Cells) {
			continue
		}
		rec := make(records.Record, len(mapping))
		for field, idx := range mapping {
			rec[field] = cell(ln.Cells, idx)
		}
		t.Rows = append(t.Rows, records.Row{Line: ln.Number, Fields: rec})
	}
	return t, nil
}

func findHeader(g *Grid, opt TableOptions) (int, schema.Mapping, error) {
	if opt.HeaderRow > 0 {
		for i, ln := range g.Lines {
			if ln.Number == opt.HeaderRow {
				m, err := schema.Resolve(ln.Cells, opt.Columns)
				if err != nil {
					return 0, nil, fmt.Errorf("header row %d: %w", opt.HeaderRow, err)
				}
				return i, m, nil
			}
		}
		return 0, nil, fmt.Errorf("header row %d not found; sheet %q has %d lines", opt.HeaderRow, g.Sheet, len(g.Lines))
	}

	scan := opt.ScanRows
	if scan <= 0 {
		scan = 10
	}
	var best *schema.MissingColumnError
	seen := 0
	for i, ln := range g.Lines {
		if isEmptyLine(ln.Cells) {
			continue
		}
		if seen == scan {
			break
		}
		seen++
		m, err := schema.Resolve(ln.Cells, opt.Columns)
		if err == nil {
			return i, m, nil
		}
		mce, ok := err.(*schema.MissingColumnError)
		if !ok {
			return 0, nil, err
		}
		if best == nil || len(mce.Columns) < len(best.Columns) {
			best = mce
		}
	}
	if best == nil {
		best = &schema.MissingColumnError{}
		for _, c := range schema.Columns {
			best.Columns = append(best.Columns, c.Label)
		}
	}
	return 0, nil, best
}

// cell returns the trimmed text at idx, or nil when it is absent or empty.
func cell(cells []string, idx int) any {
	if idx >= len(cells) {
		return nil
	}
	v := strings.TrimSpace(cells[idx])
	if v == "" {
		return nil
	}
	return v
}

func isEmptyLine(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
