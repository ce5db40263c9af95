//nolint:containedctx // -
package interaction

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/slashcore/internal/command"
	"github.com/robalyx/slashcore/internal/rest"
	"go.uber.org/zap"
)

// The Context is request scoped: it lives exactly as long as one interaction is
// being handled and bundles the event with the transport used to answer it.

// Transport performs the remote calls of the response state machine.
type Transport interface {
	CreateResponse(ctx context.Context, interactionID snowflake.ID, token string, body any, files []rest.File) error
	GetOriginal(ctx context.Context, token string) (*rest.Message, error)
	EditOriginal(ctx context.Context, token string, body any, files []rest.File) (*rest.Message, error)
	DeleteOriginal(ctx context.Context, token string) error
	CreateFollowup(ctx context.Context, token string, body any, files []rest.File) (*rest.Message, error)
	EditFollowup(ctx context.Context, token string, messageID snowflake.ID, body any, files []rest.File) (*rest.Message, error)
	DeleteFollowup(ctx context.Context, token string, messageID snowflake.ID) error
}

// followups tracks the followup handles created through one interaction.
type followups struct {
	mu   sync.Mutex
	list []*Followup
}

// Context wraps one interaction and its response state machine.
type Context struct {
	ctx         context.Context
	interaction *Interaction
	transport   Transport
	clock       Clock
	logger      *zap.Logger
	machine     *machine
	followups   *followups
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithClock replaces the clock used for deadline checks.
func WithClock(clock Clock) ContextOption {
	return func(c *Context) { c.clock = clock }
}

// WithLogger sets the logger used for transition logs.
func WithLogger(logger *zap.Logger) ContextOption {
	return func(c *Context) { c.logger = logger }
}

// NewContext creates the Context for an interaction.
func NewContext(ctx context.Context, i *Interaction, transport Transport, opts ...ContextOption) *Context {
	c := &Context{
		ctx:         ctx,
		interaction: i,
		transport:   transport,
		clock:       systemClock{},
		logger:      zap.NewNop(),
		machine:     &machine{},
		followups:   &followups{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.Uint64("interaction_id", uint64(i.ID)))
	return c
}

// Context returns the context.Context of the interaction.
func (c *Context) Context() context.Context {
	return c.ctx
}

// WithContext returns a copy bound to ctx. The copy shares the response state.
func (c *Context) WithContext(ctx context.Context) *Context {
	cp := *c
	cp.ctx = ctx
	return &cp
}

// Interaction returns the wrapped interaction.
func (c *Context) Interaction() *Interaction { return c.interaction }

// Options returns the parsed options.
func (c *Context) Options() Options { return c.interaction.options }

// Resolved returns the resolved entity cache.
func (c *Context) Resolved() *Resolved { return c.interaction.resolved }

// Logger returns the logger scoped to this interaction.
func (c *Context) Logger() *zap.Logger { return c.logger }

// State returns the current response state.
func (c *Context) State() State { return c.machine.current().state }

// Ephemeral reports whether the primary response is ephemeral.
func (c *Context) Ephemeral() bool { return c.machine.current().ephemeral }

// Answered reports whether anything was sent in response.
func (c *Context) Answered() bool { return c.State() != StateFresh }

// Age returns how long ago the interaction was received.
func (c *Context) Age() time.Duration {
	return c.clock.Now().Sub(c.interaction.ReceivedAt)
}

// Followups returns the followups created so far, oldest first.
func (c *Context) Followups() []*Followup {
	c.followups.mu.Lock()
	defer c.followups.mu.Unlock()
	return slices.Clone(c.followups.list)
}

// ModalValue returns a submitted modal field.
func (c *Context) ModalValue(customID string) (string, bool) {
	return c.interaction.ModalValue(customID)
}

// checkDeadline fails when the window that applies to a transition from state has passed.
func (c *Context) checkDeadline(op string, from State) error {
	limit := TokenLifetime
	if from == StateFresh {
		limit = InitialResponseWindow
	}
	if age := c.Age(); age > limit {
		return &ExpiredError{Op: op, Age: age, Limit: limit}
	}
	return nil
}

// remoteError maps token rejections to ExpiredError.
func (c *Context) remoteError(op string, err error) error {
	if rest.IsExpired(err) {
		return &ExpiredError{Op: op, Age: c.Age(), Err: err}
	}
	return err
}

// run executes one transition as a critical section. send performs the remote call
// and returns the state to commit; on failure the starting state is restored.
func (c *Context) run(op string, allowed []State, send func(from snapshot) (snapshot, error)) error {
	from, err := c.machine.acquire(op, allowed...)
	if err != nil {
		return err
	}

	if err := c.checkDeadline(op, from.state); err != nil {
		c.machine.rollback(from)
		return err
	}

	start := time.Now()
	next, err := send(from)
	if err != nil {
		c.machine.rollback(from)
		c.logger.Debug("Response transition failed",
			zap.String("op", op),
			zap.Stringer("state", from.state),
			zap.Error(err))
		return c.remoteError(op, err)
	}

	c.machine.commit(next.state, next.ephemeral)
	c.logger.Debug("Response transition",
		zap.String("op", op),
		zap.Stringer("from", from.state),
		zap.Stringer("to", next.state),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func (c *Context) requireType(op string, allowed ...Type) error {
	if !slices.Contains(allowed, c.interaction.Type) {
		return fmt.Errorf("%w: %s on %s interaction", ErrUnsupportedResponse, op, c.interaction.Type)
	}
	return nil
}

// notResponded turns a plain state conflict into ErrNotResponded.
func notResponded(op string, err error) error {
	var conflict *StateConflictError
	if errors.As(err, &conflict) && !conflict.Busy {
		return fmt.Errorf("%w: %s from state %s", ErrNotResponded, op, conflict.State)
	}
	return err
}

func (c *Context) sendCallback(body callback, files []rest.File) error {
	return c.transport.CreateResponse(c.ctx, c.interaction.ID, c.interaction.Token, body, files)
}

// Defer acknowledges the interaction and shows a loading state. The primary
// response is sent later with Respond.
func (c *Context) Defer(ephemeral bool) error {
	const op = "defer"
	if err := c.requireType(op, TypeApplicationCommand, TypeMessageComponent, TypeModalSubmit); err != nil {
		return err
	}

	return c.run(op, []State{StateFresh}, func(from snapshot) (snapshot, error) {
		body := callback{Type: ResponseTypeDeferredChannelMessage}
		if ephemeral {
			body.Data = flagsData{Flags: FlagEphemeral}
		}
		if err := c.sendCallback(body, nil); err != nil {
			return from, err
		}
		return snapshot{state: StateDeferred, ephemeral: ephemeral}, nil
	})
}

// Respond sends the primary response. After Defer it replaces the loading state and
// keeps the deferral's visibility; msg.Ephemeral is then ignored. The returned message
// is only known after a deferral, since initial callbacks return no body.
func (c *Context) Respond(msg MessageCreate) (*rest.Message, error) {
	const op = "respond"
	if err := c.requireType(op, TypeApplicationCommand, TypeMessageComponent, TypeModalSubmit); err != nil {
		return nil, err
	}

	var sent *rest.Message
	err := c.run(op, []State{StateFresh, StateDeferred}, func(from snapshot) (snapshot, error) {
		if from.state == StateFresh {
			body := callback{Type: ResponseTypeChannelMessage, Data: msg.data(true)}
			if err := c.sendCallback(body, msg.Files); err != nil {
				return from, err
			}
			return snapshot{state: StateResponded, ephemeral: msg.Ephemeral}, nil
		}

		m, err := c.transport.EditOriginal(c.ctx, c.interaction.Token, msg.data(false), msg.Files)
		if err != nil {
			return from, err
		}
		sent = m
		return snapshot{state: StateResponded, ephemeral: from.ephemeral}, nil
	})
	if err != nil {
		return nil, err
	}
	return sent, nil
}

// FollowUp sends an additional message. Its visibility comes from msg.Ephemeral,
// not from the primary response.
func (c *Context) FollowUp(msg MessageCreate) (*Followup, error) {
	const op = "followup"

	var followup *Followup
	err := c.run(op, []State{StateDeferred, StateResponded}, func(from snapshot) (snapshot, error) {
		m, err := c.transport.CreateFollowup(c.ctx, c.interaction.Token, msg.data(true), msg.Files)
		if err != nil {
			return from, err
		}
		followup = &Followup{parent: c, message: *m, ephemeral: msg.Ephemeral}
		return snapshot{state: StateResponded, ephemeral: from.ephemeral}, nil
	})
	if err != nil {
		return nil, err
	}

	c.followups.mu.Lock()
	c.followups.list = append(c.followups.list, followup)
	c.followups.mu.Unlock()

	return followup, nil
}

// EditResponse edits the primary response.
func (c *Context) EditResponse(msg MessageCreate) (*rest.Message, error) {
	const op = "edit response"

	var edited *rest.Message
	err := c.run(op, []State{StateResponded}, func(from snapshot) (snapshot, error) {
		m, err := c.transport.EditOriginal(c.ctx, c.interaction.Token, msg.data(false), msg.Files)
		if err != nil {
			return from, err
		}
		edited = m
		return from, nil
	})
	if err != nil {
		return nil, notResponded(op, err)
	}
	return edited, nil
}

// DeleteResponse deletes the primary response. Ephemeral responses are refused
// without a remote call.
func (c *Context) DeleteResponse() error {
	const op = "delete response"

	err := c.run(op, []State{StateResponded}, func(from snapshot) (snapshot, error) {
		if from.ephemeral {
			return from, fmt.Errorf("%w: primary response", ErrEphemeralDelete)
		}
		if err := c.transport.DeleteOriginal(c.ctx, c.interaction.Token); err != nil {
			return from, err
		}
		return from, nil
	})
	return notResponded(op, err)
}

// Original fetches the primary response message.
func (c *Context) Original() (*rest.Message, error) {
	const op = "fetch original"

	s := c.machine.current()
	if s.state != StateDeferred && s.state != StateResponded {
		return nil, fmt.Errorf("%w: %s from state %s", ErrNotResponded, op, s.state)
	}
	if err := c.checkDeadline(op, s.state); err != nil {
		return nil, err
	}

	m, err := c.transport.GetOriginal(c.ctx, c.interaction.Token)
	if err != nil {
		return nil, c.remoteError(op, err)
	}
	return m, nil
}

// Modal answers the interaction with a popup form. No further responses are possible.
func (c *Context) Modal(modal Modal) error {
	const op = "modal"
	if err := c.requireType(op, TypeApplicationCommand, TypeMessageComponent); err != nil {
		return err
	}

	return c.run(op, []State{StateFresh}, func(from snapshot) (snapshot, error) {
		if err := c.sendCallback(callback{Type: ResponseTypeModal, Data: modal}, nil); err != nil {
			return from, err
		}
		return snapshot{state: StateClosed}, nil
	})
}

// Autocomplete answers an autocomplete interaction with suggestions.
func (c *Context) Autocomplete(choices []command.Choice) error {
	const op = "autocomplete"
	if err := c.requireType(op, TypeAutocomplete); err != nil {
		return err
	}
	if len(choices) > command.MaxChoices {
		return &command.ValidationError{
			Path:    "choices",
			Message: fmt.Sprintf("%d choices given, at most %d allowed", len(choices), command.MaxChoices),
		}
	}
	if choices == nil {
		choices = []command.Choice{}
	}

	return c.run(op, []State{StateFresh}, func(from snapshot) (snapshot, error) {
		body := callback{Type: ResponseTypeAutocompleteResult, Data: autocompleteData{Choices: choices}}
		if err := c.sendCallback(body, nil); err != nil {
			return from, err
		}
		return snapshot{state: StateClosed}, nil
	})
}

// DeferUpdate acknowledges a component or modal interaction without a loading message.
// The message carrying the component is then edited through Respond, after which
// EditResponse applies.
func (c *Context) DeferUpdate() error {
	const op = "defer update"
	if err := c.requireType(op, TypeMessageComponent, TypeModalSubmit); err != nil {
		return err
	}

	return c.run(op, []State{StateFresh}, func(from snapshot) (snapshot, error) {
		if err := c.sendCallback(callback{Type: ResponseTypeDeferredUpdateMessage}, nil); err != nil {
			return from, err
		}
		return snapshot{state: StateDeferred, ephemeral: c.sourceEphemeral()}, nil
	})
}

// UpdateMessage answers a component or modal interaction by editing the message
// carrying the component.
func (c *Context) UpdateMessage(msg MessageCreate) error {
	const op = "update message"
	if err := c.requireType(op, TypeMessageComponent, TypeModalSubmit); err != nil {
		return err
	}

	return c.run(op, []State{StateFresh}, func(from snapshot) (snapshot, error) {
		body := callback{Type: ResponseTypeUpdateMessage, Data: msg.data(false)}
		if err := c.sendCallback(body, msg.Files); err != nil {
			return from, err
		}
		return snapshot{state: StateResponded, ephemeral: c.sourceEphemeral()}, nil
	})
}

// sourceEphemeral reports whether the message a component was used on is ephemeral.
func (c *Context) sourceEphemeral() bool {
	m := c.interaction.Message
	return m != nil && m.Flags&FlagEphemeral != 0
}
