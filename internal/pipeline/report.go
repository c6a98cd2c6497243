package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/eljeilany/ecom-analytics-studdy/internal/datasource/file"
	"github.com/eljeilany/ecom-analytics-studdy/internal/metrics"
)

// Report summarizes a validation-only pass over the source directory.
type Report struct {
	Files  []FileResult
	Passed int64
	Failed int64
	Top    []MessageCount // most frequent validation messages, capped at 5
}

// HasFailures reports whether any row was rejected; callers use it to set a
// non-zero exit status.
func (r Report) HasFailures() bool { return r.Failed > 0 }

// Check runs the same gate as Run but never touches storage: rows are
// validated, quarantine side files are written, and every per-field message
// is tallied for the digest. The repository is not used even if present.
func (p *Pipeline) Check(ctx context.Context) (Report, error) {
	paths, err := file.Scan(p.cfg.Source.Dir.Path, p.cfg.Source.Dir.Glob)
	if err != nil {
		return Report{}, fmt.Errorf("scan source dir: %w", err)
	}

	tally := newErrTally()
	dry := &Pipeline{cfg: p.cfg, validator: p.validator}

	results := make([]FileResult, 0, len(paths))
	var rep Report
	for _, path := range paths {
		start := time.Now()
		res, err := dry.processFile(ctx, path, tally)
		metrics.RecordFile(p.cfg.Job, filepath.Base(path), err, time.Since(start))
		if err != nil {
			return Report{}, fmt.Errorf("%s: %w", path, err)
		}
		results = append(results, res)
		rep.Passed += res.RowsInserted
		rep.Failed += res.RowsQuarantined
	}
	rep.Files = results
	rep.Top = tally.top(5)
	return rep, nil
}
