package router

import (
	"errors"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/slashcore/internal/command"
	"github.com/robalyx/slashcore/internal/interaction"
)

var (
	// ErrCommandNotRegistered is matched by every CommandNotRegisteredError.
	ErrCommandNotRegistered = errors.New("command not registered")
	// ErrInvalidRoute is returned when mounting an incomplete or duplicate route.
	ErrInvalidRoute = errors.New("invalid route")
	// ErrHandlerPanic wraps a panic recovered from a handler.
	ErrHandlerPanic = errors.New("handler panicked")
	// ErrShuttingDown is returned by tasks dispatched after Shutdown was called.
	ErrShuttingDown = errors.New("router is shutting down")
)

// CommandNotRegisteredError reports an inbound interaction no route handles.
type CommandNotRegisteredError struct {
	Type      interaction.Type
	CommandID snowflake.ID
	Key       command.Key
	GuildID   snowflake.ID
	CustomID  string
}

func (e *CommandNotRegisteredError) Error() string {
	switch e.Type {
	case interaction.TypeMessageComponent, interaction.TypeModalSubmit:
		return fmt.Sprintf("%s: no handler for custom id %q", ErrCommandNotRegistered, e.CustomID)
	case interaction.TypeAutocomplete:
		return fmt.Sprintf("%s: no autocomplete handler for %q (id %s)", ErrCommandNotRegistered, e.Key.Name, e.CommandID)
	default:
		return fmt.Sprintf("%s: %q (id %s)", ErrCommandNotRegistered, e.Key.Name, e.CommandID)
	}
}

// Is lets errors.Is match ErrCommandNotRegistered.
func (e *CommandNotRegisteredError) Is(target error) bool {
	return target == ErrCommandNotRegistered
}
