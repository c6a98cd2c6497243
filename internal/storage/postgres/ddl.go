package postgres

import (
	"context"
	"fmt"

	"github.com/eljeilany/ecom-analytics-studdy/internal/storage"
)

// bootstrapDDL creates the events and run-log relations when absent.
func bootstrapDDL(ctx context.Context, repo storage.Repository, cfg storage.Config) error {
	events := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  client_id  TEXT        NOT NULL,
  timestamp  TIMESTAMPTZ NOT NULL,
  event_name TEXT        NOT NULL,
  event_data JSONB       NOT NULL,
  page_url   TEXT        NOT NULL,
  referrer   TEXT,
  user_agent TEXT        NOT NULL
);`, pgFQN(cfg.Table))
	if err := repo.Exec(ctx, events); err != nil {
		return fmt.Errorf("create %s: %w", cfg.Table, err)
	}

	logs := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  log_id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
  filename         TEXT        NOT NULL,
  run_timestamp    TIMESTAMPTZ NOT NULL,
  rows_read        BIGINT      NOT NULL,
  rows_inserted    BIGINT      NOT NULL,
  rows_quarantined BIGINT      NOT NULL,
  status           TEXT        NOT NULL,
  checksum         TEXT
);`, pgFQN(cfg.LogTable))
	if err := repo.Exec(ctx, logs); err != nil {
		return fmt.Errorf("create %s: %w", cfg.LogTable, err)
	}
	return nil
}
