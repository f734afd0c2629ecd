package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validConfig() Config {
	cfg := Default()
	cfg.Source.Path = "data.xlsx"
	return cfg
}

func TestValidate_DefaultsWithSourceAreClean(t *testing.T) {
	t.Parallel()

	if issues := Validate(validConfig()); len(issues) != 0 {
		t.Fatalf("Validate() = %+v, want no issues", issues)
	}
	if issues := Validate(Default()); !hasIssue(t, issues, SeverityError, "source.path", "must not be empty") {
		t.Fatalf("Validate(Default()) = %+v, want source.path error", issues)
	}
}

func TestValidate_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		sev    IssueSeverity
		path   string
		msg    string
	}{
		{"empty job", func(c *Config) { c.Job = " " }, SeverityWarning, "job", "unlabeled"},
		{"stdin needs format", func(c *Config) { c.Source.Path = "-" }, SeverityError, "source.format", "stdin"},
		{"bad format", func(c *Config) { c.Source.Format = "ods" }, SeverityError, "source.format", `"ods"`},
		{"negative header row", func(c *Config) { c.Source.HeaderRow = -1 }, SeverityError, "source.header_row", ">= 0"},
		{"negative scan rows", func(c *Config) { c.Source.HeaderScanRows = -2 }, SeverityError, "source.header_scan_rows", ">= 0"},
		{"scan rows ignored", func(c *Config) { c.Source.HeaderRow = 12 }, SeverityWarning, "source.header_scan_rows", "ignored"},
		{"long comma", func(c *Config) { c.Source.Comma = ";;" }, SeverityError, "source.comma", "single character"},
		{"negative http timeout", func(c *Config) { c.Source.HTTP.Timeout = -1 }, SeverityError, "source.http.timeout", ">= 0"},
		{"too many retries", func(c *Config) { c.Source.HTTP.MaxRetries = 50 }, SeverityError, "source.http.max_retries", "between 0 and 10"},
		{"unknown column", func(c *Config) { c.Source.Columns = map[string]string{"kepsek": "Kepala Sekolah"} }, SeverityError, "source.columns.kepsek", "unknown column"},
		{"blank column header", func(c *Config) { c.Source.Columns = map[string]string{"npsn": ""} }, SeverityError, "source.columns.npsn", "must not be empty"},
		{"keep is not a malformed policy", func(c *Config) { c.Transform.OnMalformed = "keep" }, SeverityError, "transform.on_malformed", "want abort or skip"},
		{"unknown duplicate policy", func(c *Config) { c.Transform.OnDuplicate = "merge" }, SeverityError, "transform.on_duplicate", "merge"},
		{"keep duplicates warns", func(c *Config) { c.Transform.OnDuplicate = "keep" }, SeverityWarning, "transform.on_duplicate", "UNIQUE"},
		{"negative slug len", func(c *Config) { c.Transform.SlugMaxLen = -1 }, SeverityError, "transform.slug_max_len", ">= 0"},
		{"short slug len", func(c *Config) { c.Transform.SlugMaxLen = 4 }, SeverityWarning, "transform.slug_max_len", "short"},
		{"empty output", func(c *Config) { c.Output.Path = "" }, SeverityError, "output.path", "stdout"},
		{"unknown dialect", func(c *Config) { c.Output.Dialect = "mysql" }, SeverityError, "output.dialect", "mysql"},
		{"unknown id mode", func(c *Config) { c.Output.IDMode = "serial" }, SeverityError, "output.id_mode", "serial"},
		{"derived on sqlite", func(c *Config) { c.Output.Dialect = "sqlite"; c.Output.IDMode = "derived" }, SeverityError, "output.id_mode", "postgres"},
		{"bad namespace", func(c *Config) { c.Output.IDMode = "derived"; c.Output.IDNamespace = "nope" }, SeverityError, "output.id_namespace", "not a UUID"},
		{"unused namespace", func(c *Config) { c.Output.IDNamespace = "6ba7b811-9dad-11d1-80b4-00c04fd430c8" }, SeverityWarning, "output.id_namespace", "only used"},
		{"same tables", func(c *Config) { c.Output.SchoolDataTable = "Organizations" }, SeverityError, "output.school_data_table", "differ"},
		{"negative workers", func(c *Config) { c.Runtime.TransformWorkers = -1 }, SeverityError, "runtime.transform_workers", ">= 0"},
		{"many workers", func(c *Config) { c.Runtime.TransformWorkers = 500 }, SeverityWarning, "runtime.transform_workers", "very high"},
		{"bad progress", func(c *Config) { c.Runtime.Progress = "sometimes" }, SeverityError, "runtime.progress", "sometimes"},
		{"output overwrites source", func(c *Config) { c.Output.Path = "./data.xlsx" }, SeverityError, "output.path", "source file"},
		{"both on stdout", func(c *Config) { c.Output.Path = "-"; c.Transform.RejectPath = "-" }, SeverityError, "transform.reject_path", "stdout"},
		{"reject overwrites output", func(c *Config) { c.Transform.RejectPath = c.Output.Path }, SeverityError, "transform.reject_path", "differ"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(&cfg)
			issues := Validate(cfg)
			if !hasIssue(t, issues, tt.sev, tt.path, tt.msg) {
				t.Fatalf("expected %s at %s containing %q; got issues: %+v", tt.sev, tt.path, tt.msg, issues)
			}
			if got := HasErrors(issues); got != (tt.sev == SeverityError) {
				t.Fatalf("HasErrors() = %v for %+v", got, issues)
			}
		})
	}
}

func TestIssue_Error(t *testing.T) {
	t.Parallel()

	iss := Issue{Severity: SeverityError, Path: "output.dialect", Message: "boom"}
	if got, want := iss.Error(), "error at output.dialect: boom"; got != want {
		t.Fatalf("Issue.Error() = %q, want %q", got, want)
	}
}
