package router

import (
	"context"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/slashcore/internal/command"
	"github.com/robalyx/slashcore/internal/interaction"
	"go.uber.org/zap"
)

// WithLogging logs every handled interaction with its duration and outcome.
func WithLogging(logger *zap.Logger) Middleware {
	logger = logger.Named("dispatch")
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx *interaction.Context) error {
			start := time.Now()
			err := next(ctx)

			i := ctx.Interaction()
			fields := []zap.Field{
				zap.Uint64("interaction_id", uint64(i.ID)),
				zap.Stringer("type", i.Type),
				zap.String("command", i.Data.CommandName),
				zap.String("custom_id", i.Data.CustomID),
				zap.Uint64("user_id", uint64(i.Invoker().ID)),
				zap.String("state", ctx.State().String()),
				zap.Duration("duration", time.Since(start)),
			}
			if err != nil {
				logger.Warn("Interaction failed", append(fields, zap.Error(err))...)
				return err
			}
			logger.Debug("Interaction handled", fields...)
			return nil
		}
	}
}

// Invocation is the persisted record of one handled interaction.
type Invocation struct {
	InteractionID snowflake.ID
	Type          interaction.Type
	CommandID     snowflake.ID
	CommandType   command.CommandType
	CommandName   string
	CustomID      string
	GuildID       snowflake.ID
	ChannelID     snowflake.ID
	UserID        snowflake.ID
	State         string
	Error         string
	ReceivedAt    time.Time
	Duration      time.Duration
}

// InvocationRecorder stores invocation records.
type InvocationRecorder interface {
	RecordInvocation(ctx context.Context, invocation *Invocation) error
}

// WithInvocationLog records every handled interaction. Recording failures are logged and
// never change the handler result.
func WithInvocationLog(recorder InvocationRecorder, logger *zap.Logger) Middleware {
	logger = logger.Named("invocations")
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx *interaction.Context) error {
			start := time.Now()
			err := next(ctx)

			i := ctx.Interaction()
			record := &Invocation{
				InteractionID: i.ID,
				Type:          i.Type,
				CommandID:     i.Data.CommandID,
				CommandType:   i.Data.CommandType,
				CommandName:   i.Data.CommandName,
				CustomID:      i.Data.CustomID,
				GuildID:       i.GuildID,
				ChannelID:     i.ChannelID,
				UserID:        i.Invoker().ID,
				State:         ctx.State().String(),
				ReceivedAt:    i.ReceivedAt,
				Duration:      time.Since(start),
			}
			if err != nil {
				record.Error = err.Error()
			}

			// The interaction context may already be cancelled by the host.
			recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx.Context()), 5*time.Second)
			defer cancel()
			if recErr := recorder.RecordInvocation(recordCtx, record); recErr != nil {
				logger.Error("Failed to record invocation",
					zap.Uint64("interaction_id", uint64(i.ID)),
					zap.Error(recErr))
			}
			return err
		}
	}
}
