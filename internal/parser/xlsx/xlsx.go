// Package xlsx reads one worksheet of an Excel workbook into a parser.Grid
// using excelize.
package xlsx

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/parser"
)

// Options selects the worksheet to read.
type Options struct {
	// Sheet is the worksheet name. Empty selects the first sheet.
	Sheet string
}

// Reader implements parser.Reader for .xlsx workbooks.
type Reader struct{ opt Options }

// NewReader constructs a Reader with the provided Options.
func NewReader(opt Options) *Reader { return &Reader{opt: opt} }

// Read opens the workbook from r and returns the raw cell values of the
// selected sheet. Cell values are read without number formatting so counts
// and NPSN codes arrive as plain digits rather than "1.234" style text.
func (p *Reader) Read(ctx context.Context, r io.Reader) (*parser.Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet, err := pickSheet(f.GetSheetList(), p.opt.Sheet)
	if err != nil {
		return nil, err
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("xlsx: rows of sheet %q: %w", sheet, err)
	}
	defer func() { _ = rows.Close() }()

	g := &parser.Grid{Sheet: sheet}
	for n := 1; rows.Next(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cells, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("xlsx: sheet %q row %d: %w", sheet, n, err)
		}
		g.Lines = append(g.Lines, parser.Line{Number: n, Cells: cells})
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("xlsx: sheet %q: %w", sheet, err)
	}
	return g, nil
}

// Sheets lists the worksheet names of the workbook in r.
func Sheets(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	return f.GetSheetList(), nil
}

func pickSheet(sheets []string, want string) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("xlsx: workbook has no sheets")
	}
	if want == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if strings.EqualFold(s, want) {
			return s, nil
		}
	}
	return "", fmt.Errorf("xlsx: sheet %q not found (have %s)", want, strings.Join(sheets, ", "))
}
