package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/config"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/parser"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/parser/csv"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/parser/xlsx"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/schema"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/transformer"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/pkg/records"
)

// ColumnMatch is one resolved input column.
type ColumnMatch struct {
	Field  string `json:"field"`  // canonical field
	Label  string `json:"label"`  // reference export label
	Header string `json:"header"` // header text found in the source
	Index  int    `json:"index"`  // 0-based column index
}

// Inspection describes a source without generating anything.
type Inspection struct {
	Source     string        `json:"source"`
	Format     string        `json:"format"`
	Sheets     []string      `json:"sheets,omitempty"` // xlsx only
	Sheet      string        `json:"sheet"`
	HeaderLine int           `json:"header_line"`
	Columns    []ColumnMatch `json:"columns"` // in reference export order

	DataRows      int `json:"data_rows"`
	MissingName   int `json:"missing_name"`
	BlankNPSN     int `json:"blank_npsn"`
	DuplicateNPSN int `json:"duplicate_npsn"`
}

// Inspect reads the source of cfg and reports how it would be interpreted.
func Inspect(ctx context.Context, cfg config.Config) (*Inspection, error) {
	return Runner{Stdin: os.Stdin}.Inspect(ctx, cfg)
}

// Inspect reads the source of cfg and reports how it would be interpreted.
// Only the source section of cfg is used.
func (r Runner) Inspect(ctx context.Context, cfg config.Config) (*Inspection, error) {
	s := cfg.Source
	if strings.TrimSpace(s.Path) == "" {
		return nil, fmt.Errorf("source.path must not be empty")
	}
	src := newSource(s, r.Stdin)
	format, err := parser.DetectFormat(src.Name(), s.Format)
	if err != nil {
		return nil, err
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src.Name(), err)
	}

	ins := &Inspection{Source: src.Name(), Format: format}
	var rd parser.Reader
	switch format {
	case parser.FormatXLSX:
		if ins.Sheets, err = xlsx.Sheets(bytes.NewReader(data)); err != nil {
			return nil, err
		}
		rd = xlsx.NewReader(xlsx.Options{Sheet: s.Sheet})
	default:
		rd = csv.NewReader(csv.Options{Comma: commaRune(s.Comma)})
	}
	grid, err := rd.Read(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	ins.Sheet = grid.Sheet

	table, err := parser.Build(grid, tableOptions(s))
	if err != nil {
		return ins, fmt.Errorf("%s: %w", ins.Source, err)
	}
	ins.HeaderLine = table.HeaderLine

	for _, c := range schema.Columns {
		idx, ok := table.Mapping[c.Field]
		if !ok {
			continue
		}
		hdr := ""
		if idx < len(table.Header) {
			hdr = table.Header[idx]
		}
		ins.Columns = append(ins.Columns, ColumnMatch{Field: c.Field, Label: c.Label, Header: hdr, Index: idx})
	}

	ins.DataRows = len(table.Rows)
	seen := map[string]bool{}
	for _, row := range table.Rows {
		if records.IsBlank(row.Fields[schema.FieldName]) {
			ins.MissingName++
			continue
		}
		npsn := strings.TrimSpace(transformer.Text(row.Fields[schema.FieldNPSN]))
		switch {
		case npsn == "":
			ins.BlankNPSN++
		case seen[npsn]:
			ins.DuplicateNPSN++
		default:
			seen[npsn] = true
		}
	}
	return ins, nil
}
