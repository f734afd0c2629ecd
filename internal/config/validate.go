package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/schema"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block the run.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into the
// config (e.g. "output.dialect", "source.columns.npsn").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be returned as an error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether issues contains at least one SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static checks over cfg. It does not touch the filesystem
// and does not mutate cfg.
func Validate(cfg Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(cfg.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; the run summary will be unlabeled",
		})
	}
	issues = append(issues, validateSource(cfg.Source)...)
	issues = append(issues, validateTransform(cfg.Transform)...)
	issues = append(issues, validateOutput(cfg.Output)...)
	issues = append(issues, validateRuntime(cfg.Runtime)...)
	issues = append(issues, validatePaths(cfg)...)

	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.path",
			Message:  "source.path must not be empty",
		})
	}

	if s.Path == "-" && s.Format == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.format",
			Message:  "source.format is required when reading from stdin",
		})
	}

	switch strings.ToLower(s.Format) {
	case "", "xlsx", "xlsm", "csv", "txt":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.format",
			Message:  fmt.Sprintf("unknown format %q (want xlsx or csv)", s.Format),
		})
	}

	if s.HeaderRow < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.header_row",
			Message:  "header_row must be >= 0 (0 auto-detects)",
		})
	}
	if s.HeaderScanRows < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.header_scan_rows",
			Message:  "header_scan_rows must be >= 0",
		})
	}
	if s.HeaderRow > 0 && s.HeaderScanRows > 0 && s.HeaderRow > s.HeaderScanRows {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.header_scan_rows",
			Message:  "header_scan_rows is ignored when header_row is set",
		})
	}

	if len([]rune(s.Comma)) > 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.comma",
			Message:  fmt.Sprintf("comma must be a single character, got %q", s.Comma),
		})
	}

	if s.HTTP.Timeout < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.http.timeout",
			Message:  "timeout must be >= 0",
		})
	}
	if s.HTTP.MaxRetries < 0 || s.HTTP.MaxRetries > 10 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.http.max_retries",
			Message:  fmt.Sprintf("max_retries must be between 0 and 10, got %d", s.HTTP.MaxRetries),
		})
	}

	// Sorted so the issue order is stable across runs.
	fields := make([]string, 0, len(s.Columns))
	for f := range s.Columns {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		path := "source.columns." + f
		if _, ok := schema.Lookup(f); !ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  fmt.Sprintf("unknown column %q", f),
			})
			continue
		}
		if strings.TrimSpace(s.Columns[f]) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  "header text must not be empty",
			})
		}
	}

	return issues
}

func validateTransform(t Transform) []Issue {
	var issues []Issue

	switch t.OnMalformed {
	case "", "abort", "skip":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "transform.on_malformed",
			Message:  fmt.Sprintf("unknown policy %q (want abort or skip)", t.OnMalformed),
		})
	}
	switch t.OnDuplicate {
	case "", "abort", "skip", "keep":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "transform.on_duplicate",
			Message:  fmt.Sprintf("unknown policy %q (want abort, skip or keep)", t.OnDuplicate),
		})
	}
	if t.OnDuplicate == "keep" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "transform.on_duplicate",
			Message:  "duplicate NPSNs are kept; the UNIQUE constraint on school_data.npsn will reject them at load time",
		})
	}

	switch {
	case t.SlugMaxLen < 0:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "transform.slug_max_len",
			Message:  "slug_max_len must be >= 0 (0 disables truncation)",
		})
	case t.SlugMaxLen > 0 && t.SlugMaxLen < 8:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "transform.slug_max_len",
			Message:  fmt.Sprintf("slug_max_len %d is short; distinct schools are likely to share a slug", t.SlugMaxLen),
		})
	}

	return issues
}

func validateOutput(o Output) []Issue {
	var issues []Issue

	if strings.TrimSpace(o.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.path",
			Message:  `output.path must not be empty (use "-" for stdout)`,
		})
	}

	dialect := strings.ToLower(strings.TrimSpace(o.Dialect))
	switch dialect {
	case "", "postgres", "postgresql", "supabase", "sqlite", "sqlite3":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.dialect",
			Message:  fmt.Sprintf("unknown dialect %q (want postgres or sqlite)", o.Dialect),
		})
	}

	mode := strings.ToLower(strings.TrimSpace(o.IDMode))
	switch mode {
	case "", "generated":
	case "derived":
		if dialect == "sqlite" || dialect == "sqlite3" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.id_mode",
				Message:  "id_mode derived requires the postgres dialect",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.id_mode",
			Message:  fmt.Sprintf("unknown id_mode %q (want generated or derived)", o.IDMode),
		})
	}

	if ns := strings.TrimSpace(o.IDNamespace); ns != "" {
		if _, err := uuid.Parse(ns); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.id_namespace",
				Message:  fmt.Sprintf("id_namespace is not a UUID: %v", err),
			})
		} else if mode != "derived" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "output.id_namespace",
				Message:  "id_namespace is only used with id_mode derived",
			})
		}
	}

	orgs, data := strings.TrimSpace(o.OrganizationsTable), strings.TrimSpace(o.SchoolDataTable)
	if orgs != "" && strings.EqualFold(orgs, data) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.school_data_table",
			Message:  "school_data_table must differ from organizations_table",
		})
	}

	return issues
}

func validateRuntime(r Runtime) []Issue {
	var issues []Issue

	if r.TransformWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.transform_workers",
			Message:  "transform_workers must be >= 0",
		})
	} else if r.TransformWorkers > 64 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.transform_workers",
			Message:  fmt.Sprintf("transform_workers=%d is very high for a spreadsheet-sized input", r.TransformWorkers),
		})
	}

	switch r.Progress {
	case "", "auto", "always", "never":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.progress",
			Message:  fmt.Sprintf("unknown progress mode %q (want auto, always or never)", r.Progress),
		})
	}

	return issues
}

// validatePaths rejects configurations that would overwrite the input.
func validatePaths(cfg Config) []Issue {
	var issues []Issue

	same := func(a, b string) bool {
		if a == "" || b == "" || a == "-" || b == "-" {
			return false
		}
		return filepath.Clean(a) == filepath.Clean(b)
	}
	if same(cfg.Source.Path, cfg.Output.Path) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.path",
			Message:  "output.path must not be the source file",
		})
	}
	if same(cfg.Transform.RejectPath, cfg.Output.Path) || same(cfg.Transform.RejectPath, cfg.Source.Path) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "transform.reject_path",
			Message:  "reject_path must differ from source.path and output.path",
		})
	}
	if cfg.Transform.RejectPath == "-" && cfg.Output.Path == "-" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "transform.reject_path",
			Message:  "reject_path and output.path cannot both be stdout",
		})
	}

	return issues
}
