package interaction_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/slashcore/internal/interaction"
	"github.com/robalyx/slashcore/internal/rest"
	"github.com/stretchr/testify/require"
)

// call is one request seen by the fake transport.
type call struct {
	op        string
	token     string
	messageID snowflake.ID
	body      string
	files     int
}

// fakeTransport records requests and can fail or block them per operation.
type fakeTransport struct {
	mu     sync.Mutex
	calls  []call
	nextID snowflake.ID
	fail   map[string]error

	// block, when set, holds create response calls until closed.
	block   chan struct{}
	entered chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{nextID: 5000, fail: make(map[string]error)}
}

func (f *fakeTransport) record(op, token string, messageID snowflake.ID, body any, files []rest.File) error {
	encoded := ""
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return err
		}
		encoded = string(data)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call{op: op, token: token, messageID: messageID, body: encoded, files: len(files)})
	if err, ok := f.fail[op]; ok {
		delete(f.fail, op)
		return err
	}
	return nil
}

func (f *fakeTransport) failNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

func (f *fakeTransport) message() *rest.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return &rest.Message{ID: f.nextID}
}

func (f *fakeTransport) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeTransport) CreateResponse(
	_ context.Context, _ snowflake.ID, token string, body any, files []rest.File,
) error {
	if f.block != nil {
		f.entered <- struct{}{}
		<-f.block
	}
	return f.record("callback", token, 0, body, files)
}

func (f *fakeTransport) GetOriginal(_ context.Context, token string) (*rest.Message, error) {
	if err := f.record("get original", token, 0, nil, nil); err != nil {
		return nil, err
	}
	return f.message(), nil
}

func (f *fakeTransport) EditOriginal(_ context.Context, token string, body any, files []rest.File) (*rest.Message, error) {
	if err := f.record("edit original", token, 0, body, files); err != nil {
		return nil, err
	}
	return f.message(), nil
}

func (f *fakeTransport) DeleteOriginal(_ context.Context, token string) error {
	return f.record("delete original", token, 0, nil, nil)
}

func (f *fakeTransport) CreateFollowup(_ context.Context, token string, body any, files []rest.File) (*rest.Message, error) {
	if err := f.record("create followup", token, 0, body, files); err != nil {
		return nil, err
	}
	return f.message(), nil
}

func (f *fakeTransport) EditFollowup(
	_ context.Context, token string, messageID snowflake.ID, body any, files []rest.File,
) (*rest.Message, error) {
	if err := f.record("edit followup", token, messageID, body, files); err != nil {
		return nil, err
	}
	return &rest.Message{ID: messageID}, nil
}

func (f *fakeTransport) DeleteFollowup(_ context.Context, token string, messageID snowflake.ID) error {
	return f.record("delete followup", token, messageID, nil, nil)
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

const commandEvent = `{
	"id": "1100",
	"application_id": "42",
	"type": 2,
	"token": "tok",
	"version": 1,
	"guild_id": "7",
	"channel_id": "8",
	"member": {"user": {"id": "55", "username": "alice"}, "roles": ["300"], "permissions": "8"},
	"data": {"id": "900", "name": "ping", "type": 1}
}`

// setupTest decodes event and wraps it in a Context backed by a fake transport and clock.
func setupTest(t *testing.T, event string) (*interaction.Context, *fakeTransport, *fakeClock) {
	t.Helper()

	i, err := interaction.Decode([]byte(event), epoch)
	require.NoError(t, err)

	transport := newFakeTransport()
	clock := &fakeClock{now: epoch}
	ctx := interaction.NewContext(t.Context(), i, transport, interaction.WithClock(clock))
	return ctx, transport, clock
}
