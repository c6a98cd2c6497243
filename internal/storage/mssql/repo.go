// Package mssql implements a SQL Server storage.Repository using the
// go-mssqldb bulk copy API for the per-file event batch.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/eljeilany/ecom-analytics-studdy/internal/schema"
	"github.com/eljeilany/ecom-analytics-studdy/internal/storage"
)

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg)
	})
	storage.RegisterDDL("mssql", bootstrapDDL)
}

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg storage.Config
}

// NewRepository validates the DSN early, opens the connection, and pings it
// to fail fast on obvious mistakes.
func NewRepository(ctx context.Context, cfg storage.Config) (*Repository, error) {
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mssql open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mssql ping: %w", err)
	}
	return &Repository{db: db, cfg: cfg}, nil
}

// InsertEvents bulk-copies the batch into the events table inside one
// transaction via mssql.CopyIn.
func (r *Repository) InsertEvents(ctx context.Context, events []schema.Event) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mssql begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(r.cfg.Table, mssql.BulkOptions{}, schema.InsertColumns...))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("mssql prepare bulk copy: %w", err)
	}

	for i, ev := range events {
		if _, err := stmt.ExecContext(ctx, ev.InsertValues()...); err != nil {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("mssql bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx) // flush
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return 0, fmt.Errorf("mssql bulk finalize: %w", err)
	}
	copied, err := res.RowsAffected()
	if err != nil {
		rollback()
		return 0, fmt.Errorf("mssql rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mssql commit: %w", err)
	}
	return copied, nil
}

// AppendRunLog appends one audit row; log_id comes from the IDENTITY column.
func (r *Repository) AppendRunLog(ctx context.Context, entry schema.RunLogEntry) error {
	stmt := fmt.Sprintf(
		`INSERT INTO %s
		   (filename, run_timestamp, rows_read, rows_inserted, rows_quarantined, status, checksum)
		 VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7)`,
		msFQN(r.cfg.LogTable),
	)
	if _, err := r.db.ExecContext(ctx, stmt,
		entry.Filename,
		entry.RunTimestamp,
		entry.RowsRead,
		entry.RowsInserted,
		entry.RowsQuarantined,
		entry.Status,
		entry.Checksum,
	); err != nil {
		return fmt.Errorf("mssql append run log: %w", err)
	}
	return nil
}

// Exec executes an arbitrary SQL statement, typically bootstrap DDL.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("mssql exec: %w", err)
	}
	return nil
}

func (r *Repository) Close() error { return r.db.Close() }

// msFQN renders a possibly schema-qualified name with bracketed identifiers.
func msFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		quoted = append(quoted, "["+strings.ReplaceAll(p, "]", "]]")+"]")
	}
	return strings.Join(quoted, ".")
}
