// Package file implements the local filesystem data source: directory scans
// for input files and context-aware opens.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Local is a filesystem data source that opens one file from local disk.
type Local struct{ path string }

// NewLocal returns a data source bound to the provided path. The returned
// value is safe for concurrent use as long as the underlying location is
// valid for concurrent reads.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open opens the configured path for reading.
//
// Behavior:
//   - If the context is already canceled at the time of the call, Open
//     returns the context error immediately without touching the filesystem.
//   - Any filesystem error is wrapped with the path for context while still
//     permitting errors.Is/As checks by callers (e.g. errors.Is(err,
//     os.ErrNotExist)).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// Scan lists the files under dir whose base name matches glob, sorted by
// filename so runs are deterministic. A missing directory is an error; an
// empty match set is not.
func Scan(dir, glob string) ([]string, error) {
	if glob == "" {
		glob = "*.csv"
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := filepath.Match(glob, e.Name())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", glob, err)
		}
		if ok {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}
