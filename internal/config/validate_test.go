package config

import (
	"strings"
	"testing"
)

func goodPipeline() Pipeline {
	return Pipeline{
		Job: "events",
		Source: Source{
			Kind: "dir",
			Dir:  SourceDir{Path: "/data/incoming", Glob: "*.csv"},
		},
		Parser: Parser{Kind: "csv", Options: Options{}},
		Validation: Validation{
			Options: Options{"bare_time": "reject"},
		},
		Storage: Storage{
			Kind: "sqlite",
			DB: DBConfig{
				DSN:      "file:events.db",
				Table:    "raw_events",
				LogTable: "pipeline_logs",
			},
		},
	}
}

func issueAt(issues []Issue, path string) *Issue {
	for i := range issues {
		if issues[i].Path == path {
			return &issues[i]
		}
	}
	return nil
}

func TestValidatePipeline_Clean(t *testing.T) {
	t.Parallel()

	for _, iss := range ValidatePipeline(goodPipeline()) {
		if iss.Severity == SeverityError {
			t.Errorf("unexpected error issue: %v", iss)
		}
	}
}

func TestValidatePipeline_Issues(t *testing.T) {
	t.Parallel()

	type tc struct {
		name     string
		mutate   func(*Pipeline)
		wantPath string
		wantSev  IssueSeverity
		wantMsg  string // substring
	}
	cases := []tc{
		{
			name:     "empty job warns",
			mutate:   func(p *Pipeline) { p.Job = "" },
			wantPath: "job", wantSev: SeverityWarning, wantMsg: "job is empty",
		},
		{
			name:     "bad source kind",
			mutate:   func(p *Pipeline) { p.Source.Kind = "s3" },
			wantPath: "source.kind", wantSev: SeverityError, wantMsg: "unsupported source kind",
		},
		{
			name:     "missing input dir",
			mutate:   func(p *Pipeline) { p.Source.Dir.Path = " " },
			wantPath: "source.dir.path", wantSev: SeverityError, wantMsg: "required",
		},
		{
			name:     "bad parser kind",
			mutate:   func(p *Pipeline) { p.Parser.Kind = "parquet" },
			wantPath: "parser.kind", wantSev: SeverityError, wantMsg: "unsupported parser kind",
		},
		{
			name:     "bad bare_time",
			mutate:   func(p *Pipeline) { p.Validation.Options["bare_time"] = "guess" },
			wantPath: "validation.options.bare_time", wantSev: SeverityError, wantMsg: "unsupported bare_time",
		},
		{
			name:     "anchor without date",
			mutate:   func(p *Pipeline) { p.Validation.Options["bare_time"] = "anchor" },
			wantPath: "validation.options.anchor_date", wantSev: SeverityError, wantMsg: "anchor_date is required",
		},
		{
			name: "anchor with bad date",
			mutate: func(p *Pipeline) {
				p.Validation.Options["bare_time"] = "anchor"
				p.Validation.Options["anchor_date"] = "01/05/2024"
			},
			wantPath: "validation.options.anchor_date", wantSev: SeverityError, wantMsg: "not a YYYY-MM-DD date",
		},
		{
			name:     "bad storage kind",
			mutate:   func(p *Pipeline) { p.Storage.Kind = "duckdb" },
			wantPath: "storage.kind", wantSev: SeverityError, wantMsg: "unsupported storage kind",
		},
		{
			name:     "missing dsn",
			mutate:   func(p *Pipeline) { p.Storage.DB.DSN = "" },
			wantPath: "storage.db.dsn", wantSev: SeverityError, wantMsg: "dsn is required",
		},
		{
			name:     "empty table warns",
			mutate:   func(p *Pipeline) { p.Storage.DB.Table = "" },
			wantPath: "storage.db.table", wantSev: SeverityWarning, wantMsg: "defaulting to raw_events",
		},
		{
			name:     "negative workers",
			mutate:   func(p *Pipeline) { p.Runtime.FileWorkers = -1 },
			wantPath: "runtime.file_workers", wantSev: SeverityError, wantMsg: ">= 0",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			p := goodPipeline()
			c.mutate(&p)
			iss := issueAt(ValidatePipeline(p), c.wantPath)
			if iss == nil {
				t.Fatalf("no issue at %q", c.wantPath)
			}
			if iss.Severity != c.wantSev || !strings.Contains(iss.Message, c.wantMsg) {
				t.Fatalf("issue = %v, want severity %s containing %q", iss, c.wantSev, c.wantMsg)
			}
		})
	}
}

// Empty kinds are treated as defaults, not errors, so a minimal config with
// just a directory and a DSN lints clean of kind errors.
func TestValidatePipeline_DefaultsAreQuiet(t *testing.T) {
	t.Parallel()

	p := goodPipeline()
	p.Source.Kind = ""
	p.Parser.Kind = ""
	for _, path := range []string{"source.kind", "parser.kind"} {
		if iss := issueAt(ValidatePipeline(p), path); iss != nil {
			t.Errorf("unexpected issue at %s: %v", path, iss)
		}
	}
}
