package sqlite

import (
	"context"
	"fmt"

	"github.com/eljeilany/ecom-analytics-studdy/internal/storage"
)

// bootstrapDDL creates the events and run-log relations when absent.
// event_data is stored as serialized JSON text; SQLite's JSON functions
// operate on it directly.
func bootstrapDDL(ctx context.Context, repo storage.Repository, cfg storage.Config) error {
	events := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  client_id  TEXT NOT NULL,
  timestamp  TEXT NOT NULL,
  event_name TEXT NOT NULL,
  event_data TEXT NOT NULL,
  page_url   TEXT NOT NULL,
  referrer   TEXT,
  user_agent TEXT NOT NULL
);`, cfg.Table)
	if err := repo.Exec(ctx, events); err != nil {
		return fmt.Errorf("create %s: %w", cfg.Table, err)
	}

	logs := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  log_id           INTEGER PRIMARY KEY AUTOINCREMENT,
  filename         TEXT NOT NULL,
  run_timestamp    TEXT NOT NULL,
  rows_read        INTEGER NOT NULL,
  rows_inserted    INTEGER NOT NULL,
  rows_quarantined INTEGER NOT NULL,
  status           TEXT NOT NULL,
  checksum         TEXT
);`, cfg.LogTable)
	if err := repo.Exec(ctx, logs); err != nil {
		return fmt.Errorf("create %s: %w", cfg.LogTable, err)
	}
	return nil
}
