// Package csv reads a delimited text export of the school sheet into a
// parser.Grid.
//
// The reader is lenient in the same places spreadsheet exports are sloppy:
// quotes inside unquoted fields, ragged rows and a leading BOM. Header
// detection and column mapping are left to parser.Build.
package csv

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/parser"
)

// Options configures the CSV reader. The zero value sniffs the delimiter.
type Options struct {
	// Comma specifies the field delimiter. When zero, the first line is
	// sniffed: ';' wins over ',' when it occurs more often, which is what
	// spreadsheet tools using a decimal comma locale produce.
	Comma rune
}

// Reader implements parser.Reader for CSV input.
type Reader struct{ opt Options }

// NewReader constructs a Reader with the provided Options.
func NewReader(opt Options) *Reader { return &Reader{opt: opt} }

// Read consumes all records from r. Line numbers are the physical line on
// which each record starts, so multi-line quoted cells do not shift them.
func (p *Reader) Read(ctx context.Context, r io.Reader) (*parser.Grid, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	comma := p.opt.Comma
	if comma == 0 {
		peek, _ := br.Peek(4096)
		comma = sniffComma(peek)
	}

	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	g := &parser.Grid{Sheet: "csv"}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if len(g.Lines) == 0 {
			rec = StripHeaderBOM(rec)
		}
		g.Lines = append(g.Lines, parser.Line{Number: line, Cells: rec})
	}
	return g, nil
}

// sniffComma picks ';' or ',' from the first line of sample.
func sniffComma(sample []byte) rune {
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		sample = sample[:i]
	}
	if bytes.Count(sample, []byte{';'}) > bytes.Count(sample, []byte{','}) {
		return ';'
	}
	if bytes.Count(sample, []byte{'\t'}) > bytes.Count(sample, []byte{','}) {
		return '\t'
	}
	return ','
}
