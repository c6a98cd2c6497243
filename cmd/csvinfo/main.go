// csvinfo inspects an event CSV before it is ingested: it reconciles the
// header row against the canonical schema, counts how many rows would pass
// validation, and can emit a starter pipeline config for the file's
// directory.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eljeilany/ecom-analytics-studdy/internal/config"
	"github.com/eljeilany/ecom-analytics-studdy/internal/datasource/file"
	"github.com/eljeilany/ecom-analytics-studdy/internal/header"
	csvparser "github.com/eljeilany/ecom-analytics-studdy/internal/parser/csv"
	"github.com/eljeilany/ecom-analytics-studdy/internal/rows"
	"github.com/eljeilany/ecom-analytics-studdy/internal/validate"
)

var (
	flagPath      = flag.String("file", "", "path of the CSV file to inspect")
	flagDelimiter = flag.String("delimiter", ",", "CSV field delimiter (single character)")
	flagJSON      = flag.Bool("json", false, "output a starter pipeline config for the file's directory instead of a report")
)

func main() {
	flag.Parse()
	if *flagPath == "" {
		fmt.Fprintln(os.Stderr, "usage: csvinfo -file <path> [-delimiter ,] [-json]")
		os.Exit(2)
	}

	src := file.NewLocal(*flagPath)
	rc, err := src.Open(context.Background())
	if err != nil {
		fatalf("%v", err)
	}
	defer rc.Close()

	opts := config.Options{"comma": *flagDelimiter}
	headers, raw, err := csvparser.ReadRows(rc, opts)
	if err != nil {
		fatalf("read csv: %v", err)
	}

	plan := header.EmptyPlan()
	if headers != nil {
		plan = header.BuildPlan(headers)
	}

	if *flagJSON {
		emitConfig(*flagPath)
		return
	}

	fmt.Printf("file:       %s\n", *flagPath)
	fmt.Printf("headers:    %v\n", plan.Report.RawHeaders)
	fmt.Printf("normalized: %v\n", plan.Report.NormalizedHeaders)
	if plan.DeriveTimestamp {
		fmt.Println("timestamp:  derived from date + time columns")
	}
	if len(plan.Report.ExtraColumns) > 0 {
		fmt.Printf("extra:      %v\n", plan.Report.ExtraColumns)
	}
	if len(plan.Report.MissingCore) > 0 {
		fmt.Printf("missing:    %v\n", plan.Report.MissingCore)
	}

	v := validate.New(validate.Options{})
	pass, fail := 0, 0
	for _, row := range raw {
		if _, errs := v.Validate(rows.Normalize(row, plan)); len(errs) == 0 {
			pass++
		} else {
			fail++
		}
	}
	fmt.Printf("rows:       %d (%d would pass validation, %d would quarantine)\n", len(raw), pass, fail)
}

// emitConfig prints a pipeline config pre-filled for the inspected file's
// directory, ready to hand to the ingest binary.
func emitConfig(path string) {
	dir := filepath.Dir(path)
	p := config.Pipeline{
		Job: "event_ingest",
		Source: config.Source{
			Kind: "dir",
			Dir:  config.SourceDir{Path: dir, Glob: "*.csv"},
		},
		Parser:     config.Parser{Kind: "csv", Options: config.Options{"lazy_quotes": true}},
		Validation: config.Validation{Options: config.Options{"bare_time": "reject"}},
		Quarantine: config.Quarantine{Dir: dir},
		Storage: config.Storage{
			Kind: "sqlite",
			DB: config.DBConfig{
				DSN:             filepath.Join(dir, "events.db"),
				Table:           "raw_events",
				LogTable:        "pipeline_logs",
				AutoCreateTable: true,
			},
		},
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		fatalf("encode config: %v", err)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
