package router

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/slashcore/internal/interaction"
)

// Task tracks one dispatched interaction until its handler returns.
type Task struct {
	ID          uuid.UUID
	Interaction *interaction.Interaction
	StartedAt   time.Time

	ctx  *interaction.Context
	done chan struct{}
	once sync.Once
	err  error
}

func newTask(ctx *interaction.Context) *Task {
	return &Task{
		ID:          uuid.New(),
		Interaction: ctx.Interaction(),
		StartedAt:   time.Now(),
		ctx:         ctx,
		done:        make(chan struct{}),
	}
}

// Context returns the interaction context the handler ran with.
func (t *Task) Context() *interaction.Context {
	return t.ctx
}

// Done is closed when the handler finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the handler error once Done is closed, nil before.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the handler finished or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) finish(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}
