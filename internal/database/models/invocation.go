package models

import (
	"context"
	"fmt"
	"time"

	"github.com/robalyx/slashcore/internal/database/dbretry"
	"github.com/robalyx/slashcore/internal/database/types"
	"github.com/robalyx/slashcore/internal/router"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// InvocationModel handles the interaction audit log.
type InvocationModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewInvocation creates an InvocationModel.
func NewInvocation(db *bun.DB, logger *zap.Logger) *InvocationModel {
	return &InvocationModel{
		db:     db,
		logger: logger.Named("db_invocation"),
	}
}

// RecordInvocation stores one handled interaction. Redelivered interactions are ignored.
func (r *InvocationModel) RecordInvocation(ctx context.Context, inv *router.Invocation) error {
	entry := &types.Invocation{
		InteractionID: int64(inv.InteractionID), //nolint:gosec // snowflakes fit in int64
		Type:          int(inv.Type),
		CommandID:     int64(inv.CommandID), //nolint:gosec // -
		CommandType:   int(inv.CommandType),
		CommandName:   inv.CommandName,
		CustomID:      inv.CustomID,
		GuildID:       int64(inv.GuildID),   //nolint:gosec // -
		ChannelID:     int64(inv.ChannelID), //nolint:gosec // -
		UserID:        int64(inv.UserID),    //nolint:gosec // -
		State:         inv.State,
		Error:         inv.Error,
		ReceivedAt:    inv.ReceivedAt,
		DurationMS:    inv.Duration.Milliseconds(),
	}

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().
			Model(entry).
			On("CONFLICT (interaction_id) DO NOTHING").
			Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to record invocation %d: %w", inv.InteractionID, err)
	}

	r.logger.Debug("Recorded invocation",
		zap.Int64("interactionID", entry.InteractionID),
		zap.String("command", entry.CommandName))

	return nil
}

// GetRecent returns the most recent invocations, newest first.
// An empty command name matches every invocation.
func (r *InvocationModel) GetRecent(ctx context.Context, commandName string, limit int) ([]*types.Invocation, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Invocation, error) {
		var entries []*types.Invocation

		query := r.db.NewSelect().
			Model(&entries).
			Order("received_at DESC").
			Limit(limit)
		if commandName != "" {
			query = query.Where("command_name = ?", commandName)
		}

		if err := query.Scan(ctx); err != nil {
			return nil, fmt.Errorf("failed to get recent invocations: %w", err)
		}

		return entries, nil
	})
}

// GetUsage aggregates invocations received after the given time per command name.
func (r *InvocationModel) GetUsage(ctx context.Context, since time.Time) ([]*types.CommandUsage, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.CommandUsage, error) {
		var usage []*types.CommandUsage

		err := r.db.NewSelect().
			Model((*types.Invocation)(nil)).
			ColumnExpr("command_name").
			ColumnExpr("COUNT(*) AS total").
			ColumnExpr("COUNT(*) FILTER (WHERE error <> '') AS failed").
			ColumnExpr("MAX(received_at) AS last_used").
			Where("received_at > ?", since).
			Where("command_name <> ''").
			Group("command_name").
			Order("total DESC").
			Scan(ctx, &usage)
		if err != nil {
			return nil, fmt.Errorf("failed to get command usage: %w", err)
		}

		return usage, nil
	})
}

// PurgeBefore deletes invocations received before the cutoff.
func (r *InvocationModel) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		result, err := r.db.NewDelete().
			Model((*types.Invocation)(nil)).
			Where("received_at < ?", cutoff).
			Exec(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to purge invocations: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get affected rows: %w", err)
		}

		r.logger.Info("Purged old invocations",
			zap.Time("cutoff", cutoff),
			zap.Int64("deleted", affected))

		return affected, nil
	})
}
