// Package postgres implements a Postgres storage.Repository using pgx v5.
// The per-file event batch goes through the native COPY protocol; run-log
// rows are plain INSERTs against an identity column.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eljeilany/ecom-analytics-studdy/internal/schema"
	"github.com/eljeilany/ecom-analytics-studdy/internal/storage"
)

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg)
	})
	storage.RegisterDDL("postgres", bootstrapDDL)
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  storage.Config
}

// NewRepository opens a pgx pool against cfg.DSN and pings it to fail fast
// on unreachable servers.
func NewRepository(ctx context.Context, cfg storage.Config) (*Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgx ping: %w", err)
	}
	return &Repository{pool: pool, cfg: cfg}, nil
}

// InsertEvents streams the batch through COPY. event_data arrives as compact
// JSON text and lands in the jsonb column via Postgres' input conversion.
func (r *Repository) InsertEvents(ctx context.Context, events []schema.Event) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(events))
	for i, ev := range events {
		rows[i] = ev.InsertValues()
	}

	n, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier(splitFQN(r.cfg.Table)),
		schema.InsertColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return n, fmt.Errorf("pgx copy: %w", err)
	}
	return n, nil
}

// AppendRunLog appends one audit row; log_id comes from the identity column.
func (r *Repository) AppendRunLog(ctx context.Context, entry schema.RunLogEntry) error {
	stmt := fmt.Sprintf(
		`INSERT INTO %s
		   (filename, run_timestamp, rows_read, rows_inserted, rows_quarantined, status, checksum)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		pgFQN(r.cfg.LogTable),
	)
	if _, err := r.pool.Exec(ctx, stmt,
		entry.Filename,
		entry.RunTimestamp,
		entry.RowsRead,
		entry.RowsInserted,
		entry.RowsQuarantined,
		entry.Status,
		entry.Checksum,
	); err != nil {
		return fmt.Errorf("pgx append run log: %w", err)
	}
	return nil
}

// Exec executes an arbitrary SQL statement, typically bootstrap DDL.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return nil
	}
	if _, err := r.pool.Exec(ctx, sqlText); err != nil {
		return fmt.Errorf("pgx exec: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// splitFQN converts "schema.table" into its identifier parts; a bare table
// name stays a single part.
func splitFQN(fqn string) []string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// pgFQN renders a possibly schema-qualified name with quoted identifiers.
func pgFQN(fqn string) string {
	parts := splitFQN(fqn)
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ".")
}
