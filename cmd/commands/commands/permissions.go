package commands

import (
	"context"

	"github.com/robalyx/slashcore/internal/command"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// PermissionCommands returns the commands that manage per-guild overwrites.
func PermissionCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "permissions",
			Usage: "Inspect or replace the overwrites of a command in a guild",
			Commands: []*cli.Command{
				{
					Name:      "get",
					Usage:     "Show the overwrites of a command",
					ArgsUsage: "COMMAND_ID",
					Flags:     []cli.Flag{guildFlag},
					Action:    handlePermissionsGet(deps),
				},
				{
					Name:  "set",
					Usage: "Replace the overwrites of a command",
					Description: `Replace every overwrite of a command in one guild.

Examples:
  commands permissions set --guild 123 --overwrite role:456:allow 789
  commands permissions set --guild 123 --overwrite user:42:deny --overwrite role:7:allow 789
  commands permissions set --guild 123 --clear 789`,
					ArgsUsage: "COMMAND_ID",
					Flags: []cli.Flag{
						guildFlag,
						&cli.StringSliceFlag{
							Name:  "overwrite",
							Usage: "Overwrite as role:ID:allow, role:ID:deny, user:ID:allow or user:ID:deny",
						},
						&cli.BoolFlag{
							Name:  "clear",
							Usage: "Remove every overwrite",
						},
					},
					Action: handlePermissionsSet(deps),
				},
			},
		},
	}
}

func handlePermissionsGet(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		guildID, err := parseGuild(c)
		if err != nil {
			return err
		}
		if guildID == 0 {
			return ErrGuildRequired
		}
		commandID, err := parseCommandID(c)
		if err != nil {
			return err
		}

		perms, err := deps.Engine.Permissions(ctx, guildID, commandID)
		if err != nil {
			return err
		}

		for _, p := range perms {
			deps.Logger.Info("Overwrite",
				zap.String("id", p.ID.String()),
				zap.Stringer("type", p.Type),
				zap.Bool("allow", p.Permission))
		}
		deps.Logger.Info("Listed overwrites", zap.Int("count", len(perms)))
		return nil
	}
}

func handlePermissionsSet(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		guildID, err := parseGuild(c)
		if err != nil {
			return err
		}
		if guildID == 0 {
			return ErrGuildRequired
		}
		commandID, err := parseCommandID(c)
		if err != nil {
			return err
		}

		values := c.StringSlice("overwrite")
		if len(values) == 0 && !c.Bool("clear") {
			return ErrInvalidOverwrite
		}

		perms := make([]command.PermissionOverwrite, 0, len(values))
		for _, value := range values {
			p, err := ParseOverwrite(value)
			if err != nil {
				return err
			}
			perms = append(perms, p)
		}

		if err := deps.Engine.SetPermissions(ctx, guildID, commandID, perms); err != nil {
			return err
		}

		deps.Logger.Info("Replaced overwrites",
			zap.String("commandID", commandID.String()),
			zap.Int("count", len(perms)))
		return nil
	}
}
