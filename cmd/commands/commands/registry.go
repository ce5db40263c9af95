package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/robalyx/slashcore/internal/registry"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// RegistryCommands returns the commands that inspect and change remote registrations.
func RegistryCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:   "list",
			Usage:  "List the commands registered in a scope",
			Flags:  []cli.Flag{guildFlag},
			Action: handleList(deps),
		},
		{
			Name:  "sync",
			Usage: "Register the bot's commands without starting the gateway",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "prune",
					Usage: "Delete remote commands that are no longer declared",
				},
			},
			Action: handleSync(deps),
		},
		{
			Name:      "delete",
			Usage:     "Delete one registered command",
			ArgsUsage: "COMMAND_ID",
			Flags:     []cli.Flag{guildFlag},
			Action:    handleDelete(deps),
		},
		{
			Name:  "purge",
			Usage: "Delete every command registered in a scope",
			Description: `Delete every command in the global scope or the given guild.

Examples:
  commands purge                      # Delete all global commands
  commands purge --guild 123 --yes    # Delete all commands of guild 123 without asking`,
			Flags: []cli.Flag{
				guildFlag,
				&cli.BoolFlag{
					Name:  "yes",
					Usage: "Skip the confirmation prompt",
				},
			},
			Action: handlePurge(deps),
		},
	}
}

func handleList(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		guildID, err := parseGuild(c)
		if err != nil {
			return err
		}

		registered, err := deps.Engine.List(ctx, guildID)
		if err != nil {
			return err
		}

		for _, r := range registered {
			deps.Logger.Info("Command",
				zap.String("id", r.ID.String()),
				zap.Stringer("type", r.Type),
				zap.String("name", r.Name),
				zap.String("version", r.Version.String()))
		}

		deps.Logger.Info("Listed commands",
			zap.Uint64("guildID", uint64(guildID)),
			zap.Int("count", len(registered)))
		return nil
	}
}

func handleSync(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		deps.BotConfig.Sync.Prune = c.Bool("prune")
		return deps.Bot.Sync(ctx)
	}
}

func handleDelete(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		guildID, err := parseGuild(c)
		if err != nil {
			return err
		}
		commandID, err := parseCommandID(c)
		if err != nil {
			return err
		}

		if _, err := deps.Engine.Delete(ctx, guildID, commandID); err != nil {
			return err
		}

		deps.Logger.Info("Deleted command", zap.String("id", commandID.String()))
		return nil
	}
}

func handlePurge(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		guildID, err := parseGuild(c)
		if err != nil {
			return err
		}

		registered, err := deps.Engine.List(ctx, guildID)
		if err != nil {
			return err
		}
		if len(registered) == 0 {
			deps.Logger.Info("Nothing to purge")
			return nil
		}

		if !c.Bool("yes") && !confirm(fmt.Sprintf("Delete %d commands? (y/N)", len(registered))) {
			return ErrAborted
		}

		deleted, err := deps.Engine.Purge(ctx, guildID)
		deps.Logger.Info("Purged commands", zap.Int("deleted", len(deleted)))
		for _, failure := range registry.SyncErrors(err) {
			deps.Logger.Error("Failed to delete command",
				zap.String("name", failure.Key.Name),
				zap.Error(failure.Err))
		}
		return err
	}
}

func confirm(prompt string) bool {
	fmt.Fprintln(os.Stderr, prompt)

	response, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(response), "y")
}
