package setup

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/slashcore/internal/setup/config"
)

// ErrInvalidToken is returned when the application ID cannot be read from the token.
var ErrInvalidToken = errors.New("invalid bot token")

// ApplicationID returns the configured application ID or reads it from the first
// segment of the bot token, which is the base64 encoded bot user ID.
func ApplicationID(cfg *config.BotConfig, token string) (snowflake.ID, error) {
	if cfg.Discord.ApplicationID != 0 {
		return snowflake.ID(cfg.Discord.ApplicationID), nil
	}

	segment, _, ok := strings.Cut(token, ".")
	if !ok || segment == "" {
		return 0, fmt.Errorf("%w: missing ID segment", ErrInvalidToken)
	}

	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(segment, "="))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	id, err := snowflake.Parse(string(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return id, nil
}
