package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/robalyx/slashcore/internal/database/dbretry"
	"github.com/robalyx/slashcore/internal/database/types"
	"github.com/robalyx/slashcore/internal/registry"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// SyncRunModel records command registration passes.
type SyncRunModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewSyncRun creates a SyncRunModel.
func NewSyncRun(db *bun.DB, logger *zap.Logger) *SyncRunModel {
	return &SyncRunModel{
		db:     db,
		logger: logger.Named("db_sync_run"),
	}
}

// NewSyncRunRecord builds the record of a registration pass from its results.
func NewSyncRunRecord(
	startedAt time.Time, declared int, synced []registry.RegisteredCommand, pruned int, syncErr error,
) *types.SyncRun {
	run := &types.SyncRun{
		StartedAt:  startedAt,
		DurationMS: time.Since(startedAt).Milliseconds(),
		Declared:   declared,
		Synced:     len(synced),
		Pruned:     pruned,
		Failures:   []types.SyncFailure{},
	}

	for _, failure := range registry.SyncErrors(syncErr) {
		run.Failures = append(run.Failures, types.SyncFailure{
			Name:    failure.Key.Name,
			Type:    int(failure.Key.Type),
			GuildID: int64(failure.Key.GuildID), //nolint:gosec // snowflakes fit in int64
			Stage:   failure.Stage,
			Error:   failure.Err.Error(),
		})
	}

	return run
}

// SaveRun stores a registration pass.
func (r *SyncRunModel) SaveRun(ctx context.Context, run *types.SyncRun) error {
	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().
			Model(run).
			Returning("id").
			Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save sync run: %w", err)
	}

	r.logger.Debug("Saved sync run",
		zap.Int64("id", run.ID),
		zap.Int("synced", run.Synced),
		zap.Int("failures", len(run.Failures)))

	return nil
}

// GetLatest returns the most recent registration pass, or nil when none was recorded.
func (r *SyncRunModel) GetLatest(ctx context.Context) (*types.SyncRun, error) {
	var run types.SyncRun

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		return r.db.NewSelect().
			Model(&run).
			Order("started_at DESC").
			Limit(1).
			Scan(ctx)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest sync run: %w", err)
	}

	return &run, nil
}
