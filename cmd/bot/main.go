package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robalyx/slashcore/internal/bot"
	"github.com/robalyx/slashcore/internal/setup"
	"github.com/robalyx/slashcore/internal/setup/telemetry"
	"go.uber.org/zap"
)

// BotLogDir specifies where bot log files are stored.
const BotLogDir = "logs"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	app, err := setup.InitializeApp(ctx, telemetry.ServiceBot, BotLogDir)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	shutdownTimeout := time.Duration(app.Config.Bot.ShutdownTimeout) * time.Millisecond
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		app.Cleanup(cleanupCtx)
	}()

	discordBot, err := bot.New(app)
	if err != nil {
		app.Logger.Error("Failed to create bot", zap.Error(err))
		return
	}

	if err := discordBot.Start(ctx); err != nil {
		app.Logger.Error("Failed to start bot", zap.Error(err))
		return
	}

	app.Logger.Info("Bot has been started. Waiting for interrupt signal to gracefully shutdown...")
	<-ctx.Done()

	// In-flight handlers get the shutdown grace period to finish
	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	discordBot.Close(closeCtx)
}
