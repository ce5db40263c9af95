package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/slashcore/internal/bot"
	"github.com/robalyx/slashcore/internal/command"
	"github.com/robalyx/slashcore/internal/database"
	"github.com/robalyx/slashcore/internal/registry"
	"github.com/robalyx/slashcore/internal/setup/config"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var (
	ErrCommandIDRequired = errors.New("COMMAND_ID argument required")
	ErrGuildRequired     = errors.New("--guild is required for permissions")
	ErrInvalidOverwrite  = errors.New("invalid overwrite, expected role:ID:allow or user:ID:deny")
	ErrInvocationLogOff  = errors.New("invocation log is disabled, enable bot.invocation_log")
	ErrAborted           = errors.New("aborted")
)

// CLIDependencies holds the common dependencies needed by CLI commands.
type CLIDependencies struct {
	Engine    *registry.Engine
	DB        database.Client
	Bot       *bot.Bot
	BotConfig *config.BotConfig
	Logger    *zap.Logger
}

// guildFlag selects a guild scope. An empty value is the global scope.
var guildFlag = &cli.StringFlag{
	Name:  "guild",
	Usage: "Guild ID (omit for global commands)",
}

// parseGuild reads the --guild flag.
func parseGuild(c *cli.Command) (snowflake.ID, error) {
	value := c.String("guild")
	if value == "" {
		return 0, nil
	}
	id, err := snowflake.Parse(value)
	if err != nil {
		return 0, fmt.Errorf("invalid guild ID %q: %w", value, err)
	}
	return id, nil
}

// parseCommandID reads the COMMAND_ID argument.
func parseCommandID(c *cli.Command) (snowflake.ID, error) {
	if c.Args().Len() != 1 {
		return 0, ErrCommandIDRequired
	}
	id, err := snowflake.Parse(c.Args().First())
	if err != nil {
		return 0, fmt.Errorf("invalid command ID %q: %w", c.Args().First(), err)
	}
	return id, nil
}

// ParseOverwrite parses "role:ID:allow", "user:ID:deny" and friends.
func ParseOverwrite(value string) (command.PermissionOverwrite, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return command.PermissionOverwrite{}, fmt.Errorf("%w: %q", ErrInvalidOverwrite, value)
	}

	id, err := snowflake.Parse(parts[1])
	if err != nil {
		return command.PermissionOverwrite{}, fmt.Errorf("%w: %q: %w", ErrInvalidOverwrite, value, err)
	}

	var allow bool
	switch strings.ToLower(parts[2]) {
	case "allow", "true":
		allow = true
	case "deny", "false":
		allow = false
	default:
		return command.PermissionOverwrite{}, fmt.Errorf("%w: %q", ErrInvalidOverwrite, value)
	}

	switch strings.ToLower(parts[0]) {
	case "role":
		return command.RoleOverwrite(id, allow), nil
	case "user":
		return command.UserOverwrite(id, allow), nil
	default:
		return command.PermissionOverwrite{}, fmt.Errorf("%w: %q", ErrInvalidOverwrite, value)
	}
}
