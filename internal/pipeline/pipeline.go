// Package pipeline drives the per-file ingestion pass: discover CSV files,
// normalize headers and rows, validate records, bulk-insert the survivors and
// quarantine the rest, then append one audit entry per file.
//
// Files are independent units of work. A failed row never aborts its file and
// a row-level failure never aborts the run; infrastructure errors (unreadable
// file, failed insert, failed log append) do.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eljeilany/ecom-analytics-studdy/internal/config"
	"github.com/eljeilany/ecom-analytics-studdy/internal/datasource/file"
	"github.com/eljeilany/ecom-analytics-studdy/internal/header"
	"github.com/eljeilany/ecom-analytics-studdy/internal/metrics"
	csvparser "github.com/eljeilany/ecom-analytics-studdy/internal/parser/csv"
	"github.com/eljeilany/ecom-analytics-studdy/internal/rows"
	"github.com/eljeilany/ecom-analytics-studdy/internal/schema"
	"github.com/eljeilany/ecom-analytics-studdy/internal/storage"
	"github.com/eljeilany/ecom-analytics-studdy/internal/validate"
)

// FileResult is the outcome of one processed file, mirroring the run-log
// entry written for it.
type FileResult struct {
	Path            string
	Report          schema.HeaderReport
	RowsRead        int64
	RowsInserted    int64
	RowsQuarantined int64
	Status          string
	Checksum        string
	QuarantinePath  string // empty when no rows were quarantined
}

// Summary aggregates a whole run.
type Summary struct {
	Files   []FileResult
	Read    int64
	Failed  int64 // rows quarantined
	Written int64 // rows inserted
}

// Pipeline processes a directory of CSV files. A nil Repository puts the
// pipeline in validation-only mode: no inserts, no run-log appends, but
// quarantine side files are still written so failures can be inspected.
type Pipeline struct {
	cfg       config.Pipeline
	repo      storage.Repository
	validator *validate.Validator

	// persistMu serializes the insert+log pair so each file's audit entry
	// lands adjacent to its insert even when file workers run concurrently.
	persistMu sync.Mutex
}

// New builds a Pipeline from a validated config. repo may be nil for
// validation-only runs.
func New(cfg config.Pipeline, repo storage.Repository) *Pipeline {
	return &Pipeline{
		cfg:  cfg,
		repo: repo,
		validator: validate.New(validate.Options{
			BareTime:   cfg.Validation.Options.String("bare_time", validate.BareTimeReject),
			AnchorDate: cfg.Validation.Options.String("anchor_date", ""),
		}),
	}
}

// Run processes every matching file under the configured source directory and
// returns the per-file results. Row-level failures are reflected in the
// summary; only infrastructure failures surface as the returned error.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	paths, err := file.Scan(p.cfg.Source.Dir.Path, p.cfg.Source.Dir.Glob)
	if err != nil {
		return Summary{}, fmt.Errorf("scan source dir: %w", err)
	}
	if len(paths) == 0 {
		log.Printf("no files matched %q under %s", p.cfg.Source.Dir.Glob, p.cfg.Source.Dir.Path)
		return Summary{}, nil
	}

	workers := pickInt(p.cfg.Runtime.FileWorkers, getenvInt("INGEST_FILE_WORKERS", 1))

	results := make([]FileResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			start := time.Now()
			res, err := p.processFile(ctx, path, nil)
			metrics.RecordFile(p.cfg.Job, filepath.Base(path), err, time.Since(start))
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	var sum Summary
	sum.Files = results
	for _, r := range results {
		sum.Read += r.RowsRead
		sum.Failed += r.RowsQuarantined
		sum.Written += r.RowsInserted
	}
	log.Printf("ingestion complete: files=%d read=%d inserted=%d quarantined=%d",
		len(results), sum.Read, sum.Written, sum.Failed)
	return sum, nil
}

// processFile runs the full gate for one file. When tally is non-nil each
// per-field validation message is counted into it (validation-only reporting).
func (p *Pipeline) processFile(ctx context.Context, path string, tally *errTally) (FileResult, error) {
	res := FileResult{Path: path}

	src := file.NewLocal(path)
	rc, err := src.Open(ctx)
	if err != nil {
		return res, err
	}
	defer rc.Close()

	sum := newChecksummer(rc)
	headers, raw, err := csvparser.ReadRows(sum, p.cfg.Parser.Options)
	if err != nil {
		return res, fmt.Errorf("read csv: %w", err)
	}
	res.Checksum = sum.Hex()

	plan := header.EmptyPlan()
	if headers != nil {
		plan = header.BuildPlan(headers)
	}
	res.Report = plan.Report
	logHeaderFindings(path, plan.Report)

	events := make([]schema.Event, 0, len(raw))
	var quarantined []validate.Quarantined
	for _, row := range raw {
		normalized := rows.Normalize(row, plan)
		event, errs := p.validator.Validate(normalized)
		if len(errs) == 0 {
			events = append(events, event)
			continue
		}
		if tally != nil {
			for _, fe := range errs {
				tally.add(fe.String())
			}
		}
		quarantined = append(quarantined, validate.Quarantine(normalized, errs))
	}
	res.RowsRead = int64(len(raw))
	res.RowsQuarantined = int64(len(quarantined))

	if len(quarantined) > 0 {
		qpath := quarantinePath(p.cfg.Quarantine.Dir, path)
		if err := writeQuarantine(qpath, quarantined); err != nil {
			return res, fmt.Errorf("write quarantine file: %w", err)
		}
		res.QuarantinePath = qpath
		log.Printf("quarantined %d rows from %s -> %s", len(quarantined), filepath.Base(path), qpath)
	}

	if p.repo != nil {
		inserted, err := p.persist(ctx, events)
		if err != nil {
			return res, err
		}
		res.RowsInserted = inserted
	} else {
		// Validation-only mode counts would-be inserts as passes.
		res.RowsInserted = int64(len(events))
	}
	res.Status = statusFor(res.RowsInserted, res.RowsQuarantined)

	metrics.RecordRows(p.cfg.Job, "read", res.RowsRead)
	metrics.RecordRows(p.cfg.Job, "inserted", res.RowsInserted)
	metrics.RecordRows(p.cfg.Job, "quarantined", res.RowsQuarantined)

	if p.repo != nil {
		entry := schema.RunLogEntry{
			Filename:        filepath.Base(path),
			RunTimestamp:    time.Now().UTC(),
			RowsRead:        res.RowsRead,
			RowsInserted:    res.RowsInserted,
			RowsQuarantined: res.RowsQuarantined,
			Status:          res.Status,
			Checksum:        res.Checksum,
		}
		p.persistMu.Lock()
		err := p.repo.AppendRunLog(ctx, entry)
		p.persistMu.Unlock()
		if err != nil {
			return res, fmt.Errorf("append run log: %w", err)
		}
	}

	log.Printf("processed %s: read=%d inserted=%d quarantined=%d status=%s",
		filepath.Base(path), res.RowsRead, res.RowsInserted, res.RowsQuarantined, res.Status)
	return res, nil
}

// persist performs the file's single bulk insert under the persistence lock.
func (p *Pipeline) persist(ctx context.Context, events []schema.Event) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}
	p.persistMu.Lock()
	defer p.persistMu.Unlock()
	inserted, err := p.repo.InsertEvents(ctx, events)
	if err != nil {
		return 0, fmt.Errorf("insert events: %w", err)
	}
	return inserted, nil
}

// statusFor derives the audit status from the file's row accounting. A file
// whose every row was quarantined is FAILED even though the run continues.
func statusFor(inserted, quarantined int64) string {
	switch {
	case quarantined > 0 && inserted == 0:
		return schema.StatusFailed
	case quarantined > 0:
		return schema.StatusPartialFailure
	default:
		return schema.StatusCompleted
	}
}

// logHeaderFindings reports schema drift without failing the file. Missing
// core columns almost always mean every row will quarantine, hence the louder
// prefix.
func logHeaderFindings(path string, r schema.HeaderReport) {
	if len(r.ExtraColumns) > 0 {
		log.Printf("WARNING: file %s has extra columns: %v", filepath.Base(path), r.ExtraColumns)
	}
	if len(r.MissingCore) > 0 {
		log.Printf("CRITICAL WARNING: file %s is missing core columns: %v", filepath.Base(path), r.MissingCore)
	}
}

// quarantinePath places the side file next to the source file unless a
// dedicated quarantine directory is configured.
func quarantinePath(dir, srcPath string) string {
	base := filepath.Base(srcPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	name := stem + "_errors.csv"
	if dir == "" {
		return filepath.Join(filepath.Dir(srcPath), name)
	}
	return filepath.Join(dir, name)
}

// EnsureStorage opens the configured repository and optionally bootstraps its
// tables.
func EnsureStorage(ctx context.Context, cfg config.Pipeline) (storage.Repository, error) {
	scfg := storage.Config{
		Kind:     cfg.Storage.Kind,
		DSN:      cfg.Storage.DB.DSN,
		Table:    cfg.Storage.DB.Table,
		LogTable: cfg.Storage.DB.LogTable,
	}
	if scfg.Table == "" {
		scfg.Table = "raw_events"
	}
	if scfg.LogTable == "" {
		scfg.LogTable = "pipeline_logs"
	}
	repo, err := storage.New(ctx, scfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if cfg.Storage.DB.AutoCreateTable {
		if err := storage.EnsureTables(ctx, scfg, repo); err != nil {
			repo.Close()
			return nil, fmt.Errorf("apply DDL: %w", err)
		}
		log.Printf("tables ensured: %s, %s", scfg.Table, scfg.LogTable)
	}
	return repo, nil
}

// pickInt returns v when positive, otherwise the fallback.
func pickInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// getenvInt reads an integer environment override, falling back on absence or
// garbage.
func getenvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
