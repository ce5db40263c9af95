package interaction

import (
	"slices"
	"sync"
	"time"
)

// Response deadlines imposed by the platform.
const (
	// InitialResponseWindow is how long after receipt the first response or deferral may be sent.
	InitialResponseWindow = 3 * time.Second
	// TokenLifetime is how long the interaction token accepts edits and followups.
	TokenLifetime = 15 * time.Minute
)

// State is the response state of one interaction.
type State uint8

const (
	// StateFresh means nothing has been sent yet.
	StateFresh State = iota
	// StateDeferred means a deferral was acknowledged and the primary response is pending.
	StateDeferred
	// StateResponded means the primary response exists.
	StateResponded
	// StateClosed means the interaction was answered with a modal or autocomplete result
	// and accepts no further responses.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateDeferred:
		return "deferred"
	case StateResponded:
		return "responded"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Clock reports the current time. Tests substitute a fake to drive deadlines.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// snapshot is the state a transition started from.
type snapshot struct {
	state     State
	ephemeral bool
}

// machine guards the response state. A transition holds the busy flag for the
// duration of its remote call; competing transitions fail instead of waiting.
type machine struct {
	mu        sync.Mutex
	state     State
	ephemeral bool
	busy      bool
}

// acquire marks the machine busy if the current state is one of allowed.
func (m *machine) acquire(op string, allowed ...State) (snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.busy {
		return snapshot{}, &StateConflictError{Op: op, State: m.state, Busy: true}
	}
	if !slices.Contains(allowed, m.state) {
		return snapshot{}, &StateConflictError{Op: op, State: m.state}
	}

	m.busy = true
	return snapshot{state: m.state, ephemeral: m.ephemeral}, nil
}

// commit ends a successful transition.
func (m *machine) commit(next State, ephemeral bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = next
	m.ephemeral = ephemeral
	m.busy = false
}

// rollback ends a failed transition, restoring the state it started from.
func (m *machine) rollback(s snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s.state
	m.ephemeral = s.ephemeral
	m.busy = false
}

func (m *machine) current() snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return snapshot{state: m.state, ephemeral: m.ephemeral}
}
