package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/config"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/logging"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/output"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/pipeline"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/version"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logging.Error("%v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    version.Name,
		Usage:   version.Description,
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (YAML or JSON)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"SEEDGEN_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:  "log-format",
				Value: "text",
				Usage: "Log format (text, json)",
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			{
				Name:      "generate",
				Usage:     "Generate the SQL seed script",
				ArgsUsage: "[source]",
				Flags:     append(sourceFlags(), generateFlags()...),
				Action:    generate,
			},
			{
				Name:      "validate",
				Usage:     "Check the configuration without reading the source",
				ArgsUsage: "[source]",
				Flags:     append(sourceFlags(), generateFlags()...),
				Action:    validate,
			},
			{
				Name:      "inspect",
				Usage:     "Show how the source sheet is interpreted",
				ArgsUsage: "[source]",
				Flags: append(sourceFlags(), &cli.BoolFlag{
					Name:  "json",
					Usage: "Print the inspection as JSON",
				}),
				Action: inspect,
			},
		},
	}
}

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Usage: `Input spreadsheet, or "-" for stdin`},
		&cli.StringFlag{Name: "format", Usage: "Input format (xlsx, csv); default from the file extension"},
		&cli.StringFlag{Name: "sheet", Usage: "Worksheet name; default is the first sheet"},
		&cli.IntFlag{Name: "header-row", Usage: "1-based header line; 0 auto-detects"},
		&cli.StringFlag{Name: "comma", Usage: "CSV field delimiter; default is sniffed"},
	}
}

func generateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: `Output script, or "-" for stdout`},
		&cli.StringFlag{Name: "dialect", Usage: "Target SQL dialect (postgres, sqlite)"},
		&cli.BoolFlag{Name: "schema", Usage: "Include CREATE TABLE and policy statements"},
		&cli.BoolFlag{Name: "reset", Usage: "Clear both tables before inserting"},
		&cli.StringFlag{Name: "id-mode", Usage: "Organization ids (generated, derived)"},
		&cli.StringFlag{Name: "on-malformed", Usage: "Malformed count cells (abort, skip)"},
		&cli.StringFlag{Name: "on-duplicate", Usage: "Duplicate NPSN values (abort, skip, keep)"},
		&cli.BoolFlag{Name: "fold-diacritics", Usage: "Fold accented letters in slugs instead of treating them as separators"},
		&cli.StringFlag{Name: "reject-path", Usage: "Write skipped rows to this CSV file"},
		&cli.IntFlag{Name: "workers", Usage: "Rows normalized in parallel"},
		&cli.StringFlag{Name: "progress", Usage: "Progress bar (auto, always, never)"},
		&cli.StringFlag{Name: "job", Usage: "Job name used in logs and metrics"},
		&cli.StringFlag{Name: "summary-file", Usage: `Write the run summary as JSON to this path ("-" for stdout)`},
	}
}

func setupLogging(c *cli.Context) error {
	lvl, err := logging.ParseLevel(c.String("log-level"))
	if err != nil {
		return err
	}
	logging.SetLevel(lvl)
	logging.SetFormat(c.String("log-format"))
	return nil
}

// loadConfig builds the effective config: file, then environment, then flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}
	if err := config.ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return config.Config{}, err
	}
	applyFlags(c, &cfg)
	return cfg, nil
}

// applyFlags overrides cfg with every flag set on the command line. A
// positional argument is taken as the source path unless --source is given.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.Args().Len() > 0 && !c.IsSet("source") {
		cfg.Source.Path = c.Args().First()
	}
	if c.IsSet("source") {
		cfg.Source.Path = c.String("source")
	}
	if c.IsSet("format") {
		cfg.Source.Format = c.String("format")
	}
	if c.IsSet("sheet") {
		cfg.Source.Sheet = c.String("sheet")
	}
	if c.IsSet("header-row") {
		cfg.Source.HeaderRow = c.Int("header-row")
	}
	if c.IsSet("comma") {
		cfg.Source.Comma = c.String("comma")
	}
	if c.IsSet("output") {
		cfg.Output.Path = c.String("output")
	}
	if c.IsSet("dialect") {
		cfg.Output.Dialect = c.String("dialect")
	}
	if c.IsSet("schema") {
		cfg.Output.IncludeSchemaPreamble = c.Bool("schema")
	}
	if c.IsSet("reset") {
		cfg.Output.ResetBeforeInsert = c.Bool("reset")
	}
	if c.IsSet("id-mode") {
		cfg.Output.IDMode = c.String("id-mode")
	}
	if c.IsSet("on-malformed") {
		cfg.Transform.OnMalformed = c.String("on-malformed")
	}
	if c.IsSet("on-duplicate") {
		cfg.Transform.OnDuplicate = c.String("on-duplicate")
	}
	if c.IsSet("fold-diacritics") {
		cfg.Transform.FoldDiacritics = c.Bool("fold-diacritics")
	}
	if c.IsSet("reject-path") {
		cfg.Transform.RejectPath = c.String("reject-path")
	}
	if c.IsSet("workers") {
		cfg.Runtime.TransformWorkers = c.Int("workers")
	}
	if c.IsSet("progress") {
		cfg.Runtime.Progress = c.String("progress")
	}
	if c.IsSet("job") {
		cfg.Job = c.String("job")
	}
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logging.Warn("interrupted, nothing was written")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func generate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	res, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}
	if cfg.Output.Path != output.StdoutPath {
		logging.Info("wrote %d statement(s) to %s", res.Statements, cfg.Output.Path)
	}
	if path := c.String("summary-file"); path != "" {
		return writeSummary(path, c.App.Writer, res)
	}
	return nil
}

// runSummary is the JSON form of a pipeline.Result.
type runSummary struct {
	Job              string             `json:"job"`
	Source           string             `json:"source"`
	Sheet            string             `json:"sheet"`
	HeaderLine       int                `json:"header_line"`
	Read             int                `json:"read"`
	Filtered         int                `json:"filtered"`
	SkippedMalformed int                `json:"skipped_malformed"`
	SkippedDuplicate int                `json:"skipped_duplicate"`
	DuplicatesKept   int                `json:"duplicates_kept"`
	Emitted          int                `json:"emitted"`
	Statements       int                `json:"statements"`
	Bytes            int64              `json:"bytes"`
	Output           string             `json:"output"`
	Warnings         []string           `json:"warnings"`
	StepSeconds      map[string]float64 `json:"step_seconds"`
}

func newRunSummary(res *pipeline.Result) runSummary {
	s := runSummary{
		Job:              res.Job,
		Source:           res.Source,
		Sheet:            res.Sheet,
		HeaderLine:       res.HeaderLine,
		Read:             res.Read,
		Filtered:         res.Filtered,
		SkippedMalformed: res.SkippedMalformed,
		SkippedDuplicate: res.SkippedDuplicate,
		DuplicatesKept:   res.DuplicatesKept,
		Emitted:          res.Emitted,
		Statements:       res.Statements,
		Bytes:            res.Bytes,
		Output:           res.Output,
		Warnings:         []string{},
		StepSeconds:      map[string]float64{},
	}
	for _, w := range res.Warnings {
		s.Warnings = append(s.Warnings, w.Error())
	}
	for _, st := range res.Steps {
		s.StepSeconds[st.Step] = st.Duration.Seconds()
	}
	return s
}

func writeSummary(path string, stdout io.Writer, res *pipeline.Result) error {
	data, err := json.MarshalIndent(newRunSummary(res), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	return output.Write(path, stdout, append(data, '\n'))
}

func validate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintln(c.App.Writer, iss.Error())
	}
	if config.HasErrors(issues) {
		return fmt.Errorf("configuration has errors")
	}
	fmt.Fprintln(c.App.Writer, "configuration OK")
	return nil
}

func inspect(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	ins, err := pipeline.Inspect(ctx, cfg)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(ins)
	}
	printInspection(c.App.Writer, ins)
	return nil
}

func printInspection(w io.Writer, ins *pipeline.Inspection) {
	fmt.Fprintf(w, "Source:      %s (%s)\n", ins.Source, ins.Format)
	if len(ins.Sheets) > 0 {
		fmt.Fprintf(w, "Sheets:      %v\n", ins.Sheets)
	}
	fmt.Fprintf(w, "Sheet:       %s\n", ins.Sheet)
	fmt.Fprintf(w, "Header line: %d\n\n", ins.HeaderLine)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tCOLUMN\tHEADER")
	for _, col := range ins.Columns {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", col.Field, col.Index+1, col.Header)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\nData rows:      %d\n", ins.DataRows)
	fmt.Fprintf(w, "Missing name:   %d\n", ins.MissingName)
	fmt.Fprintf(w, "Blank NPSN:     %d\n", ins.BlankNPSN)
	fmt.Fprintf(w, "Duplicate NPSN: %d\n", ins.DuplicateNPSN)
}
