package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/eljeilany/ecom-analytics-studdy/internal/config"
	"github.com/eljeilany/ecom-analytics-studdy/internal/pipeline"
)

// main runs the validation-only pass: same gate as the ingest binary, but
// nothing is persisted. Exit status 1 signals that at least one row failed,
// so the tool can gate a downstream load in CI or cron.
func main() {
	cfgPath := flag.String("config", "configs/pipelines/events.json", "pipeline config JSON path")
	flag.Parse()

	f, err := os.Open(*cfgPath)
	if err != nil {
		log.Fatalf("open config: %v", err)
	}
	var p config.Pipeline
	err = json.NewDecoder(f).Decode(&p)
	f.Close()
	if err != nil {
		log.Fatalf("decode config: %v", err)
	}

	hasError := false
	for _, iss := range config.ValidatePipeline(p) {
		// Storage settings are irrelevant here; a dry run only needs the
		// source, parser and validation sections.
		if iss.Path == "storage.kind" || iss.Path == "storage.db.dsn" {
			continue
		}
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		log.Fatalf("Configuration is invalid: %v", *cfgPath)
	}

	rep, err := pipeline.New(p, nil).Check(context.Background())
	if err != nil {
		log.Fatalf("%v", err)
	}

	fmt.Printf("Checked %d files: %d rows passed, %d rows failed\n",
		len(rep.Files), rep.Passed, rep.Failed)
	fmt.Println("Top validation errors:")
	if len(rep.Top) == 0 {
		fmt.Println("  (none)")
	}
	for i, mc := range rep.Top {
		fmt.Printf("  %d. %dx %s\n", i+1, mc.Count, mc.Message)
	}

	if rep.HasFailures() {
		os.Exit(1)
	}
}
