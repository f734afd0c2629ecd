// Package pipeline wires the seed generator together: it reads the source
// sheet, filters and normalizes the rows and writes the SQL script.
//
// All work happens in a single pass. Nothing is written when the run fails,
// so a failed run never leaves a partial script or reject report behind.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/config"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/datasource"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/datasource/file"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/datasource/httpds"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/logging"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/metrics"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/output"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/parser"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/parser/csv"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/parser/xlsx"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/progress"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/rejects"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/schema"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/slug"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/sqlgen"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/transformer"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/transformer/builtin"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/version"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/pkg/records"
)

// Step names recorded in metrics and Result.Steps.
const (
	StepRead      = "read"
	StepHeader    = "header"
	StepFilter    = "filter"
	StepNormalize = "normalize"
	StepEmit      = "emit"
	StepWrite     = "write"
)

// Row kinds recorded in metrics.
const (
	RowsRead             = "read"
	RowsFiltered         = "filtered"
	RowsSkippedMalformed = "skipped_malformed"
	RowsSkippedDuplicate = "skipped_duplicate"
	RowsEmitted          = "emitted"
)

// Result summarizes a successful run.
type Result struct {
	Job        string
	Source     string
	Sheet      string
	HeaderLine int

	// Row accounting: Read == Filtered + SkippedMalformed + SkippedDuplicate + Emitted.
	Read             int
	Filtered         int
	SkippedMalformed int
	SkippedDuplicate int
	DuplicatesKept   int
	Emitted          int

	Statements int
	Bytes      int64
	Output     string

	// Warnings holds advisory errors such as *transformer.EmptyResultError.
	Warnings []error
	Steps    []metrics.StepTiming
}

// Runner executes runs. The zero value reads and writes nothing but files;
// Run fills in the process streams.
type Runner struct {
	// Stdin is read when source.path is "-".
	Stdin io.Reader
	// Stdout receives the script when output.path is "-".
	Stdout io.Writer
	// Progress, when set, receives a progress bar.
	Progress io.Writer
	// Metrics receives step and row metrics in addition to the global backend.
	Metrics metrics.Backend
}

// Run executes cfg with the process streams. A progress bar is drawn on
// stderr according to runtime.progress.
func Run(ctx context.Context, cfg config.Config) (*Result, error) {
	r := Runner{Stdin: os.Stdin, Stdout: os.Stdout}
	if progress.Enabled(cfg.Runtime.Progress, os.Stderr) {
		r.Progress = os.Stderr
	}
	return r.Run(ctx, cfg)
}

// Run executes cfg. Configuration errors, a missing required column, a
// malformed row under abort and a duplicate NPSN under abort all fail the
// run before any output is written.
func (r Runner) Run(ctx context.Context, cfg config.Config) (*Result, error) {
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}

	tally := metrics.NewTally()
	backends := metrics.Multi{metrics.Global(), tally}
	if r.Metrics != nil {
		backends = append(backends, r.Metrics)
	}
	rec := metrics.Recorder{Job: cfg.Job, Backend: backends}

	res := &Result{Job: cfg.Job, Output: cfg.Output.Path}
	stdout := r.Stdout
	if stdout == nil {
		stdout = io.Discard
	}

	var rep *rejects.Report
	var repBuf bytes.Buffer
	if cfg.Transform.RejectPath != "" {
		var err error
		if rep, err = rejects.New(&repBuf); err != nil {
			return nil, err
		}
	}

	// read
	src := newSource(cfg.Source, r.Stdin)
	res.Source = src.Name()
	var grid *parser.Grid
	err := rec.Time(StepRead, func() error {
		var err error
		grid, err = readGrid(ctx, src, cfg.Source)
		return err
	})
	if err != nil {
		return nil, err
	}
	res.Sheet = grid.Sheet
	logging.Debug("read %d line(s) from %s (sheet %q)", len(grid.Lines), res.Source, grid.Sheet)

	// header
	var table *parser.Table
	err = rec.Time(StepHeader, func() error {
		var err error
		table, err = parser.Build(grid, tableOptions(cfg.Source))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", res.Source, err)
	}
	res.HeaderLine = table.HeaderLine
	res.Read = len(table.Rows)
	rec.Rows(RowsRead, int64(res.Read))
	logging.Info("header on line %d of sheet %q, %d data row(s)", table.HeaderLine, table.Sheet, res.Read)

	// Names are looked up by line for reject entries of later stages.
	names := make(map[int]string, len(table.Rows))
	for _, row := range table.Rows {
		names[row.Line] = strings.TrimSpace(transformer.Text(row.Fields[schema.FieldName]))
	}

	// filter
	dupPolicy, err := transformer.ParsePolicy(cfg.Transform.OnDuplicate)
	if err != nil {
		return nil, err
	}
	var repErr error
	report := func(e rejects.Entry) {
		if err := rep.Add(e); err != nil && repErr == nil {
			repErr = err
		}
	}
	chain := transformer.Chain{
		builtin.Normalize{},
		builtin.Require{
			Fields: []string{schema.FieldName},
			OnDrop: func(row records.Row, field string) {
				res.Filtered++
				logging.Debug("row %d: no %s, skipped", row.Line, field)
				report(rejects.Entry{Reason: rejects.ReasonMissingName, Line: row.Line})
			},
		},
		builtin.DeDup{
			Field:  schema.FieldNPSN,
			Label:  "NPSN",
			Policy: dupPolicy,
			OnDuplicate: func(row records.Row, dup *transformer.DuplicateKeyError) {
				switch dupPolicy {
				case transformer.PolicySkip:
					res.SkippedDuplicate++
					logging.Warn("%v, skipped", dup)
					report(rejects.Entry{
						Reason: rejects.ReasonDuplicate,
						Line:   row.Line,
						Column: dup.Column,
						Value:  dup.Value,
						Name:   names[row.Line],
					})
				case transformer.PolicyKeep:
					res.DuplicatesKept++
					logging.Warn("%v, kept", dup)
				}
			},
		},
	}
	var rows []records.Row
	err = rec.Time(StepFilter, func() error {
		var err error
		rows, err = chain.Apply(table.Rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", res.Source, err)
	}
	rec.Rows(RowsFiltered, int64(res.Filtered))
	rec.Rows(RowsSkippedDuplicate, int64(res.SkippedDuplicate))

	// normalize
	malPolicy, err := transformer.ParsePolicy(cfg.Transform.OnMalformed)
	if err != nil {
		return nil, err
	}
	tracker := progress.New(r.Progress)
	tracker.SetTotal(int64(len(rows)))
	var norm *transformer.Normalized
	err = rec.Time(StepNormalize, func() error {
		var err error
		norm, err = transformer.NormalizeAll(ctx, rows, transformer.Options{
			Slug: slug.Options{
				FoldDiacritics: cfg.Transform.FoldDiacritics,
				MaxLen:         cfg.Transform.SlugMaxLen,
			},
			OnMalformed: malPolicy,
			Workers:     cfg.Runtime.TransformWorkers,
			OnRow:       tracker.Inc,
		})
		return err
	})
	elapsed := tracker.Finish()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", res.Source, err)
	}
	logging.Debug("normalized %d row(s) in %s", tracker.Current(), elapsed.Round(time.Millisecond))
	for _, mre := range norm.Skipped {
		logging.Warn("%v, skipped", mre)
		report(rejects.Entry{
			Reason: rejects.ReasonMalformed,
			Line:   mre.Line,
			Column: mre.Column,
			Value:  transformer.Text(mre.Value),
			Name:   names[mre.Line],
		})
	}
	res.SkippedMalformed = len(norm.Skipped)
	res.Emitted = len(norm.Schools)
	rec.Rows(RowsSkippedMalformed, int64(res.SkippedMalformed))
	rec.Rows(RowsEmitted, int64(res.Emitted))
	if repErr != nil {
		return nil, repErr
	}

	if res.Emitted == 0 {
		w := &transformer.EmptyResultError{Read: res.Read}
		logging.Warn("%v", w)
		res.Warnings = append(res.Warnings, w)
	}

	// emit
	dialect, err := newDialect(cfg.Output)
	if err != nil {
		return nil, err
	}
	emitter := sqlgen.NewEmitter(dialect, sqlgen.Options{
		IncludeSchemaPreamble: cfg.Output.IncludeSchemaPreamble,
		ResetBeforeInsert:     cfg.Output.ResetBeforeInsert,
		Source:                res.Source,
	})
	var script bytes.Buffer
	err = rec.Time(StepEmit, func() error {
		stmts, err := emitter.Emit(norm.Schools)
		if err != nil {
			return err
		}
		res.Statements = len(stmts)
		res.Bytes, err = sqlgen.WriteScript(&script, stmts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("emit: %w", err)
	}

	// write
	err = rec.Time(StepWrite, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := output.Write(cfg.Output.Path, stdout, script.Bytes()); err != nil {
			return err
		}
		if rep == nil {
			return nil
		}
		if err := rep.Flush(); err != nil {
			return err
		}
		return output.Write(cfg.Transform.RejectPath, stdout, repBuf.Bytes())
	})
	if err != nil {
		return nil, err
	}
	if rep != nil {
		if s := rep.Summary(); s != "" {
			logging.Info("rejects: %s written to %s", s, cfg.Transform.RejectPath)
		}
	}

	if err := metrics.Flush(); err != nil {
		logging.Warn("metrics flush: %v", err)
	}
	res.Steps = tally.Steps(cfg.Job)
	logSummary(res)
	return res, nil
}

// checkConfig logs warnings and joins every error issue into one error.
func checkConfig(cfg config.Config) error {
	var errs []error
	for _, iss := range config.Validate(cfg) {
		if iss.Severity == config.SeverityWarning {
			logging.Warn("config: %v", iss)
			continue
		}
		errs = append(errs, iss)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// newSource picks the datasource for s.Path: stdin, an http(s) URL or a
// local file.
func newSource(s config.Source, stdin io.Reader) datasource.Source {
	if httpds.IsURL(s.Path) {
		return httpds.New(s.Path, httpds.NewClient(httpds.Config{
			Timeout:    s.HTTP.Timeout,
			MaxRetries: s.HTTP.MaxRetries,
			UserAgent:  version.Name + "/" + version.Version,
		}))
	}
	return file.New(s.Path, stdin)
}

// readGrid detects the format from the source name so URLs with a query
// string still resolve their extension.
func readGrid(ctx context.Context, src datasource.Source, s config.Source) (*parser.Grid, error) {
	format, err := parser.DetectFormat(src.Name(), s.Format)
	if err != nil {
		return nil, err
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var rd parser.Reader
	switch format {
	case parser.FormatXLSX:
		rd = xlsx.NewReader(xlsx.Options{Sheet: s.Sheet})
	default:
		rd = csv.NewReader(csv.Options{Comma: commaRune(s.Comma)})
	}
	return rd.Read(ctx, rc)
}

func tableOptions(s config.Source) parser.TableOptions {
	return parser.TableOptions{
		HeaderRow: s.HeaderRow,
		ScanRows:  s.HeaderScanRows,
		Columns:   s.Columns,
	}
}

func commaRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func newDialect(o config.Output) (sqlgen.Dialect, error) {
	opt := sqlgen.DialectOptions{
		Tables: sqlgen.Tables{
			Organizations: o.OrganizationsTable,
			SchoolData:    o.SchoolDataTable,
		},
		IDMode: o.IDMode,
	}
	if ns := strings.TrimSpace(o.IDNamespace); ns != "" {
		id, err := uuid.Parse(ns)
		if err != nil {
			return nil, fmt.Errorf("output.id_namespace: %w", err)
		}
		opt.IDNamespace = id
	}
	return sqlgen.NewDialect(o.Dialect, opt)
}

// logSummary prints the run statistics and checks that every row read is
// accounted for.
func logSummary(res *Result) {
	logging.Info(
		"summary: job=%s read=%d filtered=%d skipped_malformed=%d skipped_duplicate=%d kept_duplicate=%d emitted=%d statements=%d bytes=%d",
		res.Job,
		res.Read,
		res.Filtered,
		res.SkippedMalformed,
		res.SkippedDuplicate,
		res.DuplicatesKept,
		res.Emitted,
		res.Statements,
		res.Bytes,
	)
	for _, st := range res.Steps {
		logging.Debug("step %s took %s", st.Step, st.Duration.Round(time.Microsecond))
	}

	accounted := res.Filtered + res.SkippedMalformed + res.SkippedDuplicate + res.Emitted
	if accounted != res.Read {
		logging.Warn("row accounting mismatch: read=%d accounted=%d (delta=%d)",
			res.Read, accounted, res.Read-accounted)
	}
}
