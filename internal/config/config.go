// Package config defines the canonical, JSON-serializable configuration model
// for the ingestion pipeline. It is intentionally small and explicit so that
// pipeline files can be loaded from disk and passed through the program
// without additional glue code.
//
// Example (trimmed):
//
//	{
//	  "job":        "event_ingest",
//	  "source":     { "kind": "dir", "dir": { "path": "data/raw", "glob": "*.csv" } },
//	  "parser":     { "kind": "csv", "options": { "lazy_quotes": true } },
//	  "validation": { "options": { "bare_time": "reject" } },
//	  "quarantine": { "dir": "data/quarantine" },
//	  "storage":    { "kind": "sqlite", "db": { "dsn": "data/processed/events.db", "table": "raw_events", "log_table": "pipeline_logs", "auto_create_table": true } }
//	}
package config

import "encoding/json"

// Pipeline describes one ingestion pipeline in JSON. It is the top-level
// object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run for metrics labeling and log identification.
	Job string `json:"job"`

	// Source describes where input files come from.
	Source Source `json:"source"`

	// Parser configures how raw bytes become records. Current kind: "csv".
	Parser Parser `json:"parser"`

	// Validation carries row-validation options (bare-time policy).
	Validation Validation `json:"validation"`

	// Quarantine configures the side channel for rejected rows.
	Quarantine Quarantine `json:"quarantine"`

	// Storage describes the persistence boundary.
	Storage Storage `json:"storage"`

	Runtime RuntimeConfig `json:"runtime"`
}

// RuntimeConfig controls file-level concurrency.
type RuntimeConfig struct {
	// FileWorkers bounds concurrent per-file processing. Files are
	// independent; each file still contributes exactly one bulk insert and
	// one run-log append, serialized with respect to each other.
	FileWorkers int `json:"file_workers"`
}

// Source identifies where input files are found.
type Source struct {
	// Kind selects the source implementation. Current value: "dir".
	Kind string `json:"kind"`

	// Dir carries options for the "dir" source kind.
	Dir SourceDir `json:"dir"`
}

// SourceDir scans a local directory for input files.
type SourceDir struct {
	// Path is the directory holding input files.
	Path string `json:"path"`

	// Glob filters filenames; defaults to "*.csv".
	Glob string `json:"glob"`
}

// Parser selects how to parse raw source bytes into rows.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the parser implementation.
	// For CSV, recognized keys are:
	//   comma (string), trim_space (bool), lazy_quotes (bool),
	//   null_values ([]string)
	Options Options `json:"options"`
}

// Validation carries the row validator's options bag. Recognized keys:
//
//	bare_time   ("reject" or "anchor")
//	anchor_date ("YYYY-MM-DD", required when bare_time is "anchor")
type Validation struct {
	Options Options `json:"options"`
}

// Quarantine configures where per-file quarantine CSVs are written.
type Quarantine struct {
	// Dir receives one "{stem}_errors.csv" per file with rejected rows.
	Dir string `json:"dir"`
}

// Storage selects the sink used to persist validated events and run logs.
type Storage struct {
	// Kind selects the storage implementation: "sqlite", "postgres", or
	// "mssql".
	Kind string `json:"kind"`

	DB DBConfig `json:"db"`
}

// DBConfig configures the database sink.
type DBConfig struct {
	// DSN is the backend connection string (file path for sqlite,
	// postgresql:// URL for pgx, sqlserver:// URL for mssql).
	DSN string `json:"dsn"`

	// Table is the events relation, e.g. "raw_events" or "public.raw_events".
	Table string `json:"table"`

	// LogTable is the append-only run-log relation, e.g. "pipeline_logs".
	LogTable string `json:"log_table"`

	// AutoCreateTable bootstraps both relations at startup when set.
	AutoCreateTable bool `json:"auto_create_table"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps.
// It performs only minimal type coercion and returns the provided default
// when a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64,
// so this accepts float64 and casts.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def when missing
// or empty. Used for single-character parser settings such as the delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringSlice returns a []string for key when the value is an array of
// strings. Returns nil when the key is missing or not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// Has reports whether key is present at all, letting callers distinguish
// "unset" from an explicit empty value.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// UnmarshalJSON decodes a missing or null "options" object to a non-nil,
// empty Options map so call sites never nil-check.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
