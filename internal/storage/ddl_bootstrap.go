package storage

import (
	"context"
	"fmt"
	"sync"
)

// DDLBootstrapper creates the events and run-log relations for one backend,
// typically via repo.Exec with CREATE TABLE IF NOT EXISTS statements.
// Backends register their implementation for a given storage kind at init
// time, mirroring the factory registry.
type DDLBootstrapper func(ctx context.Context, repo Repository, cfg Config) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) a DDLBootstrapper for the given
// storage kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTables locates the DDLBootstrapper for cfg.Kind and invokes it.
// Callers do not need to know which backend they are using.
func EnsureTables(ctx context.Context, cfg Config, repo Repository) error {
	ddlMu.RLock()
	fn, ok := ddlFns[cfg.Kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage kind=%q", cfg.Kind)
	}
	return fn(ctx, repo, cfg)
}
