package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			CREATE INDEX IF NOT EXISTS idx_invocations_received
			ON invocations (received_at DESC);

			CREATE INDEX IF NOT EXISTS idx_invocations_command_received
			ON invocations (command_name, received_at DESC)
			WHERE command_name <> '';

			CREATE INDEX IF NOT EXISTS idx_invocations_failed
			ON invocations (received_at DESC)
			WHERE error <> '';

			CREATE INDEX IF NOT EXISTS idx_sync_runs_started
			ON sync_runs (started_at DESC);
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			DROP INDEX IF EXISTS idx_invocations_received;
			DROP INDEX IF EXISTS idx_invocations_command_received;
			DROP INDEX IF EXISTS idx_invocations_failed;
			DROP INDEX IF EXISTS idx_sync_runs_started;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop indexes: %w", err)
		}

		return nil
	})
}
