// Package sqlite implements an embedded, file-backed storage.Repository using
// database/sql. Event batches are inserted inside a single transaction with a
// prepared statement; SQLite has no dedicated bulk-load API, but one
// transaction per file keeps performance acceptable for ingestion volumes.
//
// This is the default backend: it needs nothing but a writable path.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // cgo-free SQLite driver

	"github.com/eljeilany/ecom-analytics-studdy/internal/schema"
	"github.com/eljeilany/ecom-analytics-studdy/internal/storage"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg)
	})
	storage.RegisterDDL("sqlite", bootstrapDDL)
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg storage.Config
}

// NewRepository opens a SQLite database at cfg.DSN. The DSN is passed
// directly to database/sql; a bare file path works, as does
// "file:events.db?cache=shared".
func NewRepository(ctx context.Context, cfg storage.Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	return &Repository{db: db, cfg: cfg}, nil
}

// InsertEvents inserts the batch in one transaction using a prepared
// multi-column INSERT. The whole file batch commits or rolls back together.
func (r *Repository) InsertEvents(ctx context.Context, events []schema.Event) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}

	cols := schema.InsertColumns
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		r.cfg.Table, strings.Join(cols, ", "), placeholders,
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, ev := range events {
		vals := ev.InsertValues()
		vals[1] = ev.Timestamp.UTC().Format(time.RFC3339Nano)
		if _, err := stmt.ExecContext(ctx, vals...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: insert: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

// AppendRunLog appends one audit row; log_id is assigned by the table.
func (r *Repository) AppendRunLog(ctx context.Context, entry schema.RunLogEntry) error {
	stmtSQL := fmt.Sprintf(
		`INSERT INTO %s
		   (filename, run_timestamp, rows_read, rows_inserted, rows_quarantined, status, checksum)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.cfg.LogTable,
	)
	_, err := r.db.ExecContext(ctx, stmtSQL,
		entry.Filename,
		entry.RunTimestamp.UTC().Format(time.RFC3339Nano),
		entry.RowsRead,
		entry.RowsInserted,
		entry.RowsQuarantined,
		entry.Status,
		entry.Checksum,
	)
	if err != nil {
		return fmt.Errorf("sqlite: append run log: %w", err)
	}
	return nil
}

// Exec executes an arbitrary SQL statement, typically bootstrap DDL.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

func (r *Repository) Close() error { return r.db.Close() }
