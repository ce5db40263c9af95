// Package bot hosts the router on a disgo gateway connection.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/slashcore/internal/database"
	"github.com/robalyx/slashcore/internal/database/models"
	"github.com/robalyx/slashcore/internal/interaction"
	"github.com/robalyx/slashcore/internal/registry"
	"github.com/robalyx/slashcore/internal/router"
	"github.com/robalyx/slashcore/internal/setup"
	"github.com/robalyx/slashcore/internal/setup/config"
	"github.com/robalyx/slashcore/internal/worker/retention"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// Bot receives interactions from the gateway and dispatches them through the router.
type Bot struct {
	client    bot.Client
	engine    *registry.Engine
	router    *router.Router
	db        database.Client
	config    *config.BotConfig
	logger    *zap.Logger
	devGuild  snowflake.ID
	startedAt time.Time

	// dispatchCtx parents every handler and background worker until Close.
	dispatchCtx    context.Context
	cancelDispatch context.CancelFunc
	workers        conc.WaitGroup
}

// retentionInterval is how often expired invocations are purged.
const retentionInterval = time.Hour

// New wires the router, the built-in commands and the gateway client.
func New(app *setup.App) (*Bot, error) {
	dispatchCtx, cancel := context.WithCancel(context.Background())

	b := &Bot{
		engine:         app.Engine,
		db:             app.DB,
		config:         &app.Config.Bot,
		logger:         app.Logger.Named("bot"),
		devGuild:       snowflake.ID(app.Config.Bot.Discord.DevGuildID),
		startedAt:      time.Now(),
		dispatchCtx:    dispatchCtx,
		cancelDispatch: cancel,
	}

	b.router = router.New(app.REST, app.Logger,
		router.WithErrorHook(b.handleError),
		router.WithContextOptions(interaction.WithLogger(app.Logger.Named("interaction"))),
	)
	b.router.Use(router.WithLogging(app.Logger))
	if b.db != nil {
		b.router.Use(router.WithInvocationLog(b.db.Model().Invocation(), app.Logger))
	}

	if err := b.registerBuiltins(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to register built-in commands: %w", err)
	}

	client, err := disgo.New(app.Token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(gateway.IntentGuilds),
			gateway.WithEnableRawEvents(true),
		),
		bot.WithEventListenerFunc(b.onRaw),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create gateway client: %w", err)
	}

	b.client = client
	return b, nil
}

// Router exposes the router so callers can mount their own routes before Start.
func (b *Bot) Router() *router.Router {
	return b.router
}

// Start registers commands if configured and opens the gateway.
func (b *Bot) Start(ctx context.Context) error {
	if b.config.Sync.OnStartup {
		if err := b.Sync(ctx); err != nil {
			return err
		}
	}

	b.logger.Info("Starting bot")
	if err := b.client.OpenGateway(ctx); err != nil {
		return fmt.Errorf("failed to open gateway: %w", err)
	}

	if b.db != nil && b.config.InvocationRetentionDays > 0 {
		retentionWorker := retention.New(
			b.db.Model().Invocation(),
			time.Duration(b.config.InvocationRetentionDays)*24*time.Hour,
			retentionInterval,
			b.logger,
		)
		b.workers.Go(func() { retentionWorker.Start(b.dispatchCtx) })
	}

	return nil
}

// Sync registers every mounted route and switches the router to ID lookup.
// Individual declaration failures are logged; the bot keeps serving what registered.
func (b *Bot) Sync(ctx context.Context) error {
	start := time.Now()
	decls := b.router.Declarations()

	b.logger.Info("Registering commands", zap.Int("declarations", len(decls)))

	registered, syncErr := b.engine.Sync(ctx, decls)

	var pruned []registry.RegisteredCommand
	if b.config.Sync.Prune {
		var pruneErr error
		pruned, pruneErr = b.engine.Prune(ctx, decls)
		if pruneErr != nil {
			b.logger.Warn("Failed to prune stale commands", zap.Error(pruneErr))
		}
	}

	for _, failure := range registry.SyncErrors(syncErr) {
		b.logger.Error("Command failed to register",
			zap.String("command", failure.Key.Name),
			zap.Uint64("guildID", uint64(failure.Key.GuildID)),
			zap.String("stage", failure.Stage),
			zap.Error(failure.Err))
	}

	if len(registered) == 0 && syncErr != nil {
		return fmt.Errorf("failed to register any command: %w", syncErr)
	}

	b.router.Rekey(b.engine.Cache().All())

	if b.db != nil {
		run := models.NewSyncRunRecord(start, len(decls), registered, len(pruned), syncErr)
		if err := b.db.Model().SyncRun().SaveRun(ctx, run); err != nil {
			b.logger.Warn("Failed to record sync run", zap.Error(err))
		}
	}

	b.logger.Info("Commands registered",
		zap.Int("synced", len(registered)),
		zap.Int("pruned", len(pruned)),
		zap.Duration("duration", time.Since(start)))

	return nil
}

// Close stops the gateway, then waits for in-flight handlers.
func (b *Bot) Close(ctx context.Context) {
	b.logger.Info("Closing bot")
	b.client.Close(ctx)

	if err := b.router.Shutdown(ctx); err != nil {
		b.logger.Warn("Handlers still running at shutdown", zap.Error(err))
	}
	b.cancelDispatch()
	b.workers.Wait()
}

// onRaw decodes interaction payloads before disgo's own model sees them.
func (b *Bot) onRaw(event *events.Raw) {
	if event.EventType != gateway.EventTypeInteractionCreate {
		return
	}
	receivedAt := time.Now()

	payload, err := io.ReadAll(event.Payload)
	if err != nil {
		b.logger.Error("Failed to read interaction payload", zap.Error(err))
		return
	}

	i, err := interaction.Decode(payload, receivedAt)
	if err != nil {
		b.logger.Error("Failed to decode interaction", zap.Error(err))
		return
	}

	b.router.Dispatch(b.dispatchCtx, i)
}

// handleError tells the user something went wrong when the interaction still accepts it.
func (b *Bot) handleError(ctx *interaction.Context, err error) {
	i := ctx.Interaction()
	b.logger.Error("Interaction failed",
		zap.Uint64("interactionID", uint64(i.ID)),
		zap.String("command", i.Data.CommandName),
		zap.String("customID", i.Data.CustomID),
		zap.Error(err))

	message := "Internal error. Please report this to an administrator."
	if errors.Is(err, router.ErrCommandNotRegistered) {
		message = "This command is not available."
	}

	var replyErr error
	switch {
	case i.Type == interaction.TypeAutocomplete:
		if ctx.State() == interaction.StateFresh {
			replyErr = ctx.Autocomplete(nil)
		}
	case ctx.State() == interaction.StateFresh, ctx.State() == interaction.StateDeferred:
		_, replyErr = ctx.Respond(interaction.MessageCreate{Content: message, Ephemeral: true})
	case ctx.State() == interaction.StateResponded:
		_, replyErr = ctx.FollowUp(interaction.MessageCreate{Content: message, Ephemeral: true})
	}

	if replyErr != nil {
		b.logger.Warn("Failed to report error to user", zap.Error(replyErr))
	}
}
