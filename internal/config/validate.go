// This file adds a lightweight linter for Pipeline values. It performs static
// checks over a decoded Pipeline and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
	"time"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that should be surfaced to users
	// but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind"); Message is
// human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error in contexts that expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

var storageKinds = map[string]struct{}{
	"sqlite":   {},
	"postgres": {},
	"mssql":    {},
}

// ValidatePipeline performs static validation of a Pipeline. It does not
// mutate the pipeline; callers decide whether warnings are fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue
	errf := func(path, format string, a ...any) {
		issues = append(issues, Issue{SeverityError, path, fmt.Sprintf(format, a...)})
	}
	warnf := func(path, format string, a ...any) {
		issues = append(issues, Issue{SeverityWarning, path, fmt.Sprintf(format, a...)})
	}

	if strings.TrimSpace(p.Job) == "" {
		warnf("job", "job is empty; metrics and logs will use the default job name")
	}

	if p.Source.Kind != "" && p.Source.Kind != "dir" {
		errf("source.kind", "unsupported source kind %q (supported: dir)", p.Source.Kind)
	}
	if strings.TrimSpace(p.Source.Dir.Path) == "" {
		errf("source.dir.path", "input directory is required")
	}

	if p.Parser.Kind != "" && p.Parser.Kind != "csv" {
		errf("parser.kind", "unsupported parser kind %q (supported: csv)", p.Parser.Kind)
	}

	switch bt := p.Validation.Options.String("bare_time", "reject"); bt {
	case "reject":
	case "anchor":
		anchor := p.Validation.Options.String("anchor_date", "")
		if anchor == "" {
			errf("validation.options.anchor_date", "anchor_date is required when bare_time is %q", bt)
		} else if _, err := time.Parse("2006-01-02", anchor); err != nil {
			errf("validation.options.anchor_date", "anchor_date %q is not a YYYY-MM-DD date", anchor)
		}
	default:
		errf("validation.options.bare_time", "unsupported bare_time %q (supported: reject, anchor)", bt)
	}

	if _, ok := storageKinds[p.Storage.Kind]; !ok {
		errf("storage.kind", "unsupported storage kind %q (supported: sqlite, postgres, mssql)", p.Storage.Kind)
	}
	if strings.TrimSpace(p.Storage.DB.DSN) == "" {
		errf("storage.db.dsn", "dsn is required")
	}
	if strings.TrimSpace(p.Storage.DB.Table) == "" {
		warnf("storage.db.table", "table is empty; defaulting to raw_events")
	}
	if strings.TrimSpace(p.Storage.DB.LogTable) == "" {
		warnf("storage.db.log_table", "log_table is empty; defaulting to pipeline_logs")
	}

	if p.Runtime.FileWorkers < 0 {
		errf("runtime.file_workers", "file_workers must be >= 0")
	}
	return issues
}
