package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robalyx/slashcore/cmd/commands/commands"
	"github.com/robalyx/slashcore/internal/bot"
	"github.com/robalyx/slashcore/internal/setup"
	"github.com/robalyx/slashcore/internal/setup/telemetry"
	"github.com/urfave/cli/v3"
)

// CommandsLogDir specifies where the tool's log files are stored.
const CommandsLogDir = "logs"

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := setup.InitializeApp(ctx, telemetry.ServiceCommands, CommandsLogDir)
	if err != nil {
		return err
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		app.Cleanup(cleanupCtx)
	}()

	// The bot is built for its declarations only; the gateway is never opened.
	discordBot, err := bot.New(app)
	if err != nil {
		return err
	}

	deps := &commands.CLIDependencies{
		Engine:    app.Engine,
		DB:        app.DB,
		Bot:       discordBot,
		BotConfig: &app.Config.Bot,
		Logger:    app.Logger,
	}

	var cmds []*cli.Command
	cmds = append(cmds, commands.RegistryCommands(deps)...)
	cmds = append(cmds, commands.PermissionCommands(deps)...)
	cmds = append(cmds, commands.HistoryCommands(deps)...)

	root := &cli.Command{
		Name:     "commands",
		Usage:    "Application command management tool",
		Commands: cmds,
	}

	return root.Run(ctx, os.Args)
}
