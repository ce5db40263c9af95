package interaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

var (
	// ErrMalformedInteraction is returned when an inbound event cannot be decoded.
	ErrMalformedInteraction = errors.New("malformed interaction")
	// ErrMalformedOptions is returned when the option tree of an event does not follow
	// the group, subcommand, leaf nesting or carries undecodable values.
	ErrMalformedOptions = errors.New("malformed options")
	// ErrEntityNotFound is matched by every EntityNotFoundError.
	ErrEntityNotFound = errors.New("entity not found in resolved data")
	// ErrOptionNotFound is returned when an option was not supplied.
	ErrOptionNotFound = errors.New("option not supplied")
	// ErrInteractionExpired is matched when the response window or token lifetime has passed.
	ErrInteractionExpired = errors.New("interaction expired")
	// ErrStateConflict is matched by every StateConflictError.
	ErrStateConflict = errors.New("illegal response transition")
	// ErrNotResponded is returned when the primary response is edited or deleted before it exists.
	ErrNotResponded = errors.New("interaction has not been responded to")
	// ErrEphemeralDelete is returned when deleting an ephemeral message.
	ErrEphemeralDelete = errors.New("ephemeral messages cannot be deleted")
	// ErrUnsupportedResponse is returned when a response type does not fit the interaction type.
	ErrUnsupportedResponse = errors.New("response not supported for this interaction type")
	// ErrNoTarget is returned when asking a chat input command for its context menu target.
	ErrNoTarget = errors.New("interaction has no target")
	// ErrFollowupDeleted is returned when using a followup handle after deleting it.
	ErrFollowupDeleted = errors.New("followup was deleted")
)

// EntityNotFoundError reports an ID missing from the resolved block.
type EntityNotFoundError struct {
	Kind EntityKind
	ID   snowflake.ID
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrEntityNotFound, e.Kind, e.ID)
}

func (e *EntityNotFoundError) Unwrap() error {
	return ErrEntityNotFound
}

// StateConflictError reports a transition attempted from a state that does not allow it,
// or while another transition of the same interaction was in flight.
type StateConflictError struct {
	Op    string
	State State
	Busy  bool
}

func (e *StateConflictError) Error() string {
	if e.Busy {
		return fmt.Sprintf("%s: %s while another transition is in flight", ErrStateConflict, e.Op)
	}
	return fmt.Sprintf("%s: %s from state %s", ErrStateConflict, e.Op, e.State)
}

func (e *StateConflictError) Unwrap() error {
	return ErrStateConflict
}

// ExpiredError reports an operation attempted past its deadline, or rejected
// remotely because the token is no longer valid.
type ExpiredError struct {
	Op    string
	Age   time.Duration
	Limit time.Duration
	Err   error
}

func (e *ExpiredError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrInteractionExpired, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s after %s, limit %s", ErrInteractionExpired, e.Op, e.Age, e.Limit)
}

// Is lets errors.Is match ErrInteractionExpired.
func (e *ExpiredError) Is(target error) bool {
	return target == ErrInteractionExpired
}

func (e *ExpiredError) Unwrap() error {
	return e.Err
}
