package interaction

import (
	"fmt"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/slashcore/internal/rest"
	"go.uber.org/zap"
)

// Followup is a message sent after the primary response. Each followup is edited
// and deleted on its own, independently of the primary response and of other followups.
type Followup struct {
	parent    *Context
	ephemeral bool

	mu      sync.Mutex
	message rest.Message
	deleted bool
}

// ID returns the message ID of the followup.
func (f *Followup) ID() snowflake.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message.ID
}

// Ephemeral reports whether the followup was sent as ephemeral.
func (f *Followup) Ephemeral() bool {
	return f.ephemeral
}

// Message returns the last known state of the followup message.
func (f *Followup) Message() rest.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// Deleted reports whether the followup was deleted.
func (f *Followup) Deleted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleted
}

// Edit replaces the content of the followup.
func (f *Followup) Edit(msg MessageCreate) error {
	const op = "edit followup"

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleted {
		return ErrFollowupDeleted
	}
	if err := f.parent.checkDeadline(op, StateResponded); err != nil {
		return err
	}

	c := f.parent
	m, err := c.transport.EditFollowup(c.ctx, c.interaction.Token, f.message.ID, msg.data(false), msg.Files)
	if err != nil {
		return c.remoteError(op, err)
	}
	f.message = *m

	c.logger.Debug("Edited followup", zap.Uint64("message_id", uint64(f.message.ID)))
	return nil
}

// Delete removes the followup. Ephemeral followups are refused without a remote call.
func (f *Followup) Delete() error {
	const op = "delete followup"

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleted {
		return ErrFollowupDeleted
	}
	if f.ephemeral {
		return fmt.Errorf("%w: followup %s", ErrEphemeralDelete, f.message.ID)
	}
	if err := f.parent.checkDeadline(op, StateResponded); err != nil {
		return err
	}

	c := f.parent
	if err := c.transport.DeleteFollowup(c.ctx, c.interaction.Token, f.message.ID); err != nil {
		return c.remoteError(op, err)
	}
	f.deleted = true

	c.logger.Debug("Deleted followup", zap.Uint64("message_id", uint64(f.message.ID)))
	return nil
}
