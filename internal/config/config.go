// Package config defines the configuration model for a seedgen run.
//
// A config file is YAML (JSON is accepted too, being a YAML subset). Values not
// present in the file keep their defaults, environment variables override the
// file, and CLI flags override both.
//
// Example:
//
//	job: cilebar-2025
//	source:
//	  path: "Data Peserta Didik Kec. Cilebar.xlsx"
//	  sheet: Sheet1
//	transform:
//	  on_malformed: skip
//	  reject_path: rejects.csv
//	output:
//	  path: supabase_seed.sql
//	  include_schema_preamble: true
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level object decoded from a config file.
type Config struct {
	// Job names the run in logs and the run summary.
	Job       string    `yaml:"job" json:"job"`
	Source    Source    `yaml:"source" json:"source"`
	Transform Transform `yaml:"transform" json:"transform"`
	Output    Output    `yaml:"output" json:"output"`
	Runtime   Runtime   `yaml:"runtime" json:"runtime"`
}

// Source locates the spreadsheet and its header.
type Source struct {
	Path string `yaml:"path" json:"path"`

	// Format is "xlsx" or "csv". Empty detects it from the file extension.
	Format string `yaml:"format" json:"format"`

	// Sheet selects a workbook sheet by name. Empty selects the first one.
	Sheet string `yaml:"sheet" json:"sheet"`

	// HeaderRow fixes the 1-based header line. Zero auto-detects it within
	// the first HeaderScanRows non-empty lines.
	HeaderRow      int `yaml:"header_row" json:"header_row"`
	HeaderScanRows int `yaml:"header_scan_rows" json:"header_scan_rows"`

	// Columns pins canonical fields (name, npsn, bp, status, pd, guru,
	// pegawai, rombel) to exact header texts.
	Columns map[string]string `yaml:"columns" json:"columns"`

	// Comma is the CSV delimiter. Empty sniffs it from the first line.
	Comma string `yaml:"comma" json:"comma"`

	// HTTP applies when Path is an http(s) URL.
	HTTP HTTP `yaml:"http" json:"http"`
}

// HTTP configures downloads of a remote source.
type HTTP struct {
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	MaxRetries int           `yaml:"max_retries" json:"max_retries"`
}

// Transform holds row policies and slug options.
type Transform struct {
	// OnMalformed is "abort" or "skip".
	OnMalformed string `yaml:"on_malformed" json:"on_malformed"`
	// OnDuplicate is "abort", "skip" or "keep" and applies to NPSN.
	OnDuplicate    string `yaml:"on_duplicate" json:"on_duplicate"`
	FoldDiacritics bool   `yaml:"fold_diacritics" json:"fold_diacritics"`
	SlugMaxLen     int    `yaml:"slug_max_len" json:"slug_max_len"`
	// RejectPath receives a CSV report of dropped rows. Empty disables it.
	RejectPath string `yaml:"reject_path" json:"reject_path"`
}

// Output configures the generated script.
type Output struct {
	// Path is the script file; "-" writes to stdout.
	Path                  string `yaml:"path" json:"path"`
	Dialect               string `yaml:"dialect" json:"dialect"`
	IncludeSchemaPreamble bool   `yaml:"include_schema_preamble" json:"include_schema_preamble"`
	ResetBeforeInsert     bool   `yaml:"reset_before_insert" json:"reset_before_insert"`
	OrganizationsTable    string `yaml:"organizations_table" json:"organizations_table"`
	SchoolDataTable       string `yaml:"school_data_table" json:"school_data_table"`
	// IDMode is "generated" or "derived".
	IDMode      string `yaml:"id_mode" json:"id_mode"`
	IDNamespace string `yaml:"id_namespace" json:"id_namespace"`
}

// Runtime controls execution details that do not change the output.
type Runtime struct {
	TransformWorkers int `yaml:"transform_workers" json:"transform_workers"`
	// Progress is "auto" (terminal only), "always" or "never".
	Progress string `yaml:"progress" json:"progress"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Job: "seedgen",
		Source: Source{
			HeaderScanRows: 10,
			HTTP: HTTP{
				Timeout:    30 * time.Second,
				MaxRetries: 3,
			},
		},
		Transform: Transform{
			OnMalformed: "abort",
			OnDuplicate: "abort",
		},
		Output: Output{
			Path:               "supabase_seed.sql",
			Dialect:            "postgres",
			ResetBeforeInsert:  true,
			OrganizationsTable: "organizations",
			SchoolDataTable:    "school_data",
			IDMode:             "generated",
		},
		Runtime: Runtime{
			TransformWorkers: 1,
			Progress:         "auto",
		},
	}
}

// Load reads path over Default. Unknown keys are rejected so typos surface
// instead of silently keeping a default.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Decode(bytes.NewReader(b))
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads a YAML or JSON document over Default. An empty document yields
// the defaults.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

// Environment variables read by ApplyEnv.
const (
	EnvSource  = "SEEDGEN_SOURCE"
	EnvOutput  = "SEEDGEN_OUTPUT"
	EnvSheet   = "SEEDGEN_SHEET"
	EnvDialect = "SEEDGEN_DIALECT"
	EnvWorkers = "SEEDGEN_WORKERS"
)

// ApplyEnv overrides cfg from the environment. lookup is usually os.LookupEnv.
// Empty values are ignored.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	if v, ok := get(EnvSource); ok {
		cfg.Source.Path = v
	}
	if v, ok := get(EnvOutput); ok {
		cfg.Output.Path = v
	}
	if v, ok := get(EnvSheet); ok {
		cfg.Source.Sheet = v
	}
	if v, ok := get(EnvDialect); ok {
		cfg.Output.Dialect = v
	}
	if v, ok := get(EnvWorkers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q: %w", EnvWorkers, v, err)
		}
		cfg.Runtime.TransformWorkers = n
	}
	return nil
}
