package mssql

import (
	"context"
	"fmt"

	"github.com/eljeilany/ecom-analytics-studdy/internal/storage"
)

// bootstrapDDL creates the events and run-log relations when absent. T-SQL
// has no CREATE TABLE IF NOT EXISTS, so existence is checked via OBJECT_ID.
func bootstrapDDL(ctx context.Context, repo storage.Repository, cfg storage.Config) error {
	events := fmt.Sprintf(`
IF OBJECT_ID(N'%s', N'U') IS NULL
CREATE TABLE %s (
  client_id  NVARCHAR(255)  NOT NULL,
  timestamp  DATETIMEOFFSET NOT NULL,
  event_name NVARCHAR(64)   NOT NULL,
  event_data NVARCHAR(MAX)  NOT NULL,
  page_url   NVARCHAR(2048) NOT NULL,
  referrer   NVARCHAR(2048),
  user_agent NVARCHAR(1024) NOT NULL
);`, cfg.Table, msFQN(cfg.Table))
	if err := repo.Exec(ctx, events); err != nil {
		return fmt.Errorf("create %s: %w", cfg.Table, err)
	}

	logs := fmt.Sprintf(`
IF OBJECT_ID(N'%s', N'U') IS NULL
CREATE TABLE %s (
  log_id           BIGINT IDENTITY(1,1) PRIMARY KEY,
  filename         NVARCHAR(512)  NOT NULL,
  run_timestamp    DATETIMEOFFSET NOT NULL,
  rows_read        BIGINT         NOT NULL,
  rows_inserted    BIGINT         NOT NULL,
  rows_quarantined BIGINT         NOT NULL,
  status           NVARCHAR(32)   NOT NULL,
  checksum         NVARCHAR(32)
);`, cfg.LogTable, msFQN(cfg.LogTable))
	if err := repo.Exec(ctx, logs); err != nil {
		return fmt.Errorf("create %s: %w", cfg.LogTable, err)
	}
	return nil
}
