// Package storage contains the storage-agnostic persistence contract for the
// ingestion pipeline: a Repository that bulk-inserts validated events and
// appends append-only run-log entries, plus a factory registry so callers
// never import backend packages directly.
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/eljeilany/ecom-analytics-studdy/internal/schema"
)

// Repository is the persistence boundary. Each processed file contributes
// exactly one InsertEvents call and exactly one AppendRunLog call; the log
// entry must reflect the outcome of that file's insert.
type Repository interface {
	// InsertEvents bulk-inserts an ordered batch of validated events into
	// the events relation and returns the number of rows inserted.
	InsertEvents(ctx context.Context, events []schema.Event) (int64, error)

	// AppendRunLog appends one audit row to the run-log relation. The
	// relation assigns its own auto-incrementing identity.
	AppendRunLog(ctx context.Context, entry schema.RunLogEntry) error

	// Exec runs an arbitrary statement, typically bootstrap DDL.
	Exec(ctx context.Context, sql string) error

	Close() error
}

// Config carries backend-agnostic connection settings.
type Config struct {
	Kind     string // "sqlite", "postgres", "mssql"
	DSN      string
	Table    string // events relation
	LogTable string // run-log relation
}

// Factory constructs a Repository for one storage kind. Backends register
// their factory from init(); importing storage/all wires them all in.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	facMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the Factory for kind. It is typically
// called from backend packages' init functions.
func Register(kind string, fn Factory) {
	facMu.Lock()
	defer facMu.Unlock()
	factories[kind] = fn
}

// New opens a Repository of the configured kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	facMu.RLock()
	fn, ok := factories[cfg.Kind]
	facMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no storage backend registered for kind=%q", cfg.Kind)
	}
	return fn(ctx, cfg)
}
