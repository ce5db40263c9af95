package router_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/slashcore/internal/command"
	"github.com/robalyx/slashcore/internal/interaction"
	"github.com/robalyx/slashcore/internal/registry"
	"github.com/robalyx/slashcore/internal/rest"
	"github.com/robalyx/slashcore/internal/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// nopTransport accepts every request.
type nopTransport struct {
	mu        sync.Mutex
	callbacks int
}

func (t *nopTransport) CreateResponse(context.Context, snowflake.ID, string, any, []rest.File) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callbacks++
	return nil
}

func (t *nopTransport) GetOriginal(context.Context, string) (*rest.Message, error) {
	return &rest.Message{ID: 1}, nil
}

func (t *nopTransport) EditOriginal(context.Context, string, any, []rest.File) (*rest.Message, error) {
	return &rest.Message{ID: 1}, nil
}

func (t *nopTransport) DeleteOriginal(context.Context, string) error { return nil }

func (t *nopTransport) CreateFollowup(context.Context, string, any, []rest.File) (*rest.Message, error) {
	return &rest.Message{ID: 2}, nil
}

func (t *nopTransport) EditFollowup(context.Context, string, snowflake.ID, any, []rest.File) (*rest.Message, error) {
	return &rest.Message{ID: 2}, nil
}

func (t *nopTransport) DeleteFollowup(context.Context, string, snowflake.ID) error { return nil }

func setupTest(t *testing.T, opts ...router.Option) (*router.Router, *nopTransport) {
	t.Helper()

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	transport := &nopTransport{}
	return router.New(transport, logger, opts...), transport
}

// commandEvent builds a chat command interaction. guildID is the scope of the command.
func commandEvent(t *testing.T, commandID snowflake.ID, name string, guildID snowflake.ID) *interaction.Interaction {
	t.Helper()

	payload := fmt.Sprintf(`{
		"id": "1100", "application_id": "42", "type": 2, "token": "tok", "version": 1,
		"guild_id": "%d", "channel_id": "8",
		"member": {"user": {"id": "55", "username": "alice"}, "roles": []},
		"data": {"id": "%d", "name": %q, "type": 1, "guild_id": "%d"}
	}`, guildID, commandID, name, guildID)
	if guildID == 0 {
		payload = fmt.Sprintf(`{
			"id": "1100", "application_id": "42", "type": 2, "token": "tok", "version": 1,
			"user": {"id": "55", "username": "alice"},
			"data": {"id": "%d", "name": %q, "type": 1}
		}`, commandID, name)
	}

	i, err := interaction.Decode([]byte(payload), time.Now())
	require.NoError(t, err)
	return i
}

func componentEvent(t *testing.T, interactionType int, customID string) *interaction.Interaction {
	t.Helper()

	payload := fmt.Sprintf(`{
		"id": "1200", "application_id": "42", "type": %d, "token": "tok", "version": 1,
		"user": {"id": "55", "username": "alice"},
		"message": {"id": "77", "channel_id": "8", "content": "menu"},
		"data": {"custom_id": %q, "component_type": 2}
	}`, interactionType, customID)

	i, err := interaction.Decode([]byte(payload), time.Now())
	require.NoError(t, err)
	return i
}

func respond(content string) router.HandlerFunc {
	return func(ctx *interaction.Context) error {
		_, err := ctx.Respond(interaction.MessageCreate{Content: content})
		return err
	}
}

func ping() *command.Descriptor {
	return command.MustBuild(command.Definition{Name: "ping", Description: "Replies with pong"})
}

func TestGuildCommandsWithSameNameRekeyedByID(t *testing.T) {
	t.Parallel()
	r, _ := setupTest(t)

	var (
		mu   sync.Mutex
		hits []string
	)
	handler := func(label string) router.HandlerFunc {
		return func(ctx *interaction.Context) error {
			mu.Lock()
			hits = append(hits, label)
			mu.Unlock()
			_, err := ctx.Respond(interaction.MessageCreate{Content: label})
			return err
		}
	}

	require.NoError(t, r.Mount(
		router.Route{Descriptor: ping(), GuildID: 1, Handler: handler("first")},
		router.Route{Descriptor: ping(), GuildID: 2, Handler: handler("second")},
	))
	require.Len(t, r.Declarations(), 2)

	r.Rekey([]registry.RegisteredCommand{
		{ID: 501, GuildID: 1, Type: command.CommandTypeChatInput, Name: "ping"},
		{ID: 502, GuildID: 2, Type: command.CommandTypeChatInput, Name: "ping"},
	})

	require.NoError(t, r.Dispatch(t.Context(), commandEvent(t, 502, "ping", 2)).Wait(t.Context()))
	require.NoError(t, r.Dispatch(t.Context(), commandEvent(t, 501, "ping", 1)).Wait(t.Context()))

	assert.Equal(t, []string{"second", "first"}, hits)
}

func TestUnknownCommandReachesErrorHook(t *testing.T) {
	t.Parallel()

	hooked := make(chan error, 1)
	r, _ := setupTest(t, router.WithErrorHook(func(_ *interaction.Context, err error) {
		hooked <- err
	}))
	require.NoError(t, r.Mount(router.Route{Descriptor: ping(), Handler: respond("pong")}))
	r.Rekey([]registry.RegisteredCommand{{ID: 501, Type: command.CommandTypeChatInput, Name: "ping"}})

	// Same name, but an ID outside the latest registration.
	task := r.Dispatch(t.Context(), commandEvent(t, 999, "ping", 0))
	err := task.Wait(t.Context())
	require.ErrorIs(t, err, router.ErrCommandNotRegistered)

	var notFound *router.CommandNotRegisteredError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, snowflake.ID(999), notFound.CommandID)
	assert.Equal(t, "ping", notFound.Key.Name)

	select {
	case got := <-hooked:
		assert.Equal(t, err, got)
	default:
		t.Fatal("error hook was not called")
	}
}

func TestPreSyncLookupFallsBackToGlobal(t *testing.T) {
	t.Parallel()
	r, transport := setupTest(t)

	require.NoError(t, r.Mount(router.Route{Descriptor: ping(), Handler: respond("pong")}))

	require.NoError(t, r.Dispatch(t.Context(), commandEvent(t, 900, "ping", 0)).Wait(t.Context()))
	require.NoError(t, r.Dispatch(t.Context(), commandEvent(t, 901, "ping", 7)).Wait(t.Context()))
	assert.Equal(t, 2, transport.callbacks)
}

func TestHandlerErrors(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	tests := []struct {
		name    string
		handler router.HandlerFunc
		wantErr error
	}{
		{
			name:    "returned error",
			handler: func(*interaction.Context) error { return errBoom },
			wantErr: errBoom,
		},
		{
			name:    "panic",
			handler: func(*interaction.Context) error { panic("nil map") },
			wantErr: router.ErrHandlerPanic,
		},
		{
			name: "state conflict",
			handler: func(ctx *interaction.Context) error {
				if err := ctx.Defer(false); err != nil {
					return err
				}
				return ctx.Defer(false)
			},
			wantErr: interaction.ErrStateConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var hooked error
			r, _ := setupTest(t, router.WithErrorHook(func(_ *interaction.Context, err error) {
				hooked = err
			}))
			require.NoError(t, r.Mount(router.Route{Descriptor: ping(), Handler: tt.handler}))

			task := r.Dispatch(t.Context(), commandEvent(t, 900, "ping", 0))
			err := task.Wait(t.Context())
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, err, task.Err())
			require.ErrorIs(t, hooked, tt.wantErr)
		})
	}
}

func TestErrorsWithoutHookAreSwallowed(t *testing.T) {
	t.Parallel()
	r, _ := setupTest(t)

	require.NoError(t, r.Mount(router.Route{Descriptor: ping(), Handler: func(*interaction.Context) error {
		panic("handler bug")
	}}))

	task := r.Dispatch(t.Context(), commandEvent(t, 900, "ping", 0))
	require.ErrorIs(t, task.Wait(t.Context()), router.ErrHandlerPanic)

	// The router keeps dispatching after a failure.
	require.NoError(t, r.Mount(router.Route{
		Descriptor: command.MustBuild(command.Definition{Name: "echo", Description: "Echo"}),
		Handler:    respond("echo"),
	}))
	require.NoError(t, r.Dispatch(t.Context(), commandEvent(t, 901, "echo", 0)).Wait(t.Context()))
}

func TestErrorHookPanicIsContained(t *testing.T) {
	t.Parallel()
	r, _ := setupTest(t, router.WithErrorHook(func(*interaction.Context, error) {
		panic("hook bug")
	}))

	task := r.Dispatch(t.Context(), commandEvent(t, 900, "missing", 0))
	require.ErrorIs(t, task.Wait(t.Context()), router.ErrCommandNotRegistered)
}

func TestMiddlewareOrder(t *testing.T) {
	t.Parallel()
	r, _ := setupTest(t)

	var order []string
	trace := func(label string) router.Middleware {
		return func(next router.HandlerFunc) router.HandlerFunc {
			return func(ctx *interaction.Context) error {
				order = append(order, label+" in")
				err := next(ctx)
				order = append(order, label+" out")
				return err
			}
		}
	}

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	r.Use(trace("outer"), router.WithLogging(logger), trace("inner"))
	require.NoError(t, r.Mount(router.Route{Descriptor: ping(), Handler: func(ctx *interaction.Context) error {
		order = append(order, "handler")
		return ctx.Defer(true)
	}}))

	require.NoError(t, r.Dispatch(t.Context(), commandEvent(t, 900, "ping", 0)).Wait(t.Context()))
	assert.Equal(t, []string{"outer in", "inner in", "handler", "inner out", "outer out"}, order)
}

func TestComponentAndModalPrefixes(t *testing.T) {
	t.Parallel()
	r, _ := setupTest(t)

	var got []string
	require.NoError(t, r.HandleComponent("page", func(ctx *interaction.Context) error {
		got = append(got, "component "+ctx.Interaction().Data.CustomID)
		return ctx.DeferUpdate()
	}))
	require.NoError(t, r.HandleModal("report", func(ctx *interaction.Context) error {
		got = append(got, "modal "+ctx.Interaction().Data.CustomID)
		return ctx.DeferUpdate()
	}))

	require.ErrorIs(t, r.HandleComponent("page", respond("x")), router.ErrInvalidRoute)
	require.ErrorIs(t, r.HandleComponent("a:b", respond("x")), router.ErrInvalidRoute)

	require.NoError(t, r.Dispatch(t.Context(), componentEvent(t, 3, "page:next:2")).Wait(t.Context()))
	require.NoError(t, r.Dispatch(t.Context(), componentEvent(t, 3, "page")).Wait(t.Context()))
	require.NoError(t, r.Dispatch(t.Context(), componentEvent(t, 5, "report:55")).Wait(t.Context()))

	err := r.Dispatch(t.Context(), componentEvent(t, 3, "pager")).Wait(t.Context())
	var notFound *router.CommandNotRegisteredError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "pager", notFound.CustomID)

	assert.Equal(t, []string{"component page:next:2", "component page", "modal report:55"}, got)
}

func TestAutocompleteRouting(t *testing.T) {
	t.Parallel()
	r, transport := setupTest(t)

	desc := command.MustBuild(command.Definition{
		Name:        "search",
		Description: "Search things",
		Options:     []command.Option{command.String("query", "Text").WithAutocomplete()},
	})
	require.NoError(t, r.Mount(router.Route{
		Descriptor: desc,
		Handler:    respond("results"),
		Autocomplete: func(ctx *interaction.Context) error {
			_, partial, ok := ctx.Options().Focused()
			if !ok {
				return errors.New("no focused option")
			}
			return ctx.Autocomplete([]command.Choice{{Name: partial, Value: partial}})
		},
	}))

	payload := `{
		"id": "1300", "application_id": "42", "type": 4, "token": "tok", "version": 1,
		"user": {"id": "55", "username": "alice"},
		"data": {"id": "900", "name": "search", "type": 1,
			"options": [{"name": "query", "type": 3, "value": "go", "focused": true}]}
	}`
	i, err := interaction.Decode([]byte(payload), time.Now())
	require.NoError(t, err)

	require.NoError(t, r.Dispatch(t.Context(), i).Wait(t.Context()))
	assert.Equal(t, 1, transport.callbacks)

	// Context menus cannot carry autocomplete handlers.
	menu := command.MustBuild(command.Definition{Type: command.CommandTypeUser, Name: "Inspect"})
	err = r.Mount(router.Route{Descriptor: menu, Handler: respond("x"), Autocomplete: respond("y")})
	require.ErrorIs(t, err, router.ErrInvalidRoute)
}

func TestMountRejectsDuplicates(t *testing.T) {
	t.Parallel()
	r, _ := setupTest(t)

	require.NoError(t, r.Mount(router.Route{Descriptor: ping(), GuildID: 1, Handler: respond("a")}))
	require.ErrorIs(t, r.Mount(router.Route{Descriptor: ping(), GuildID: 1, Handler: respond("b")}), router.ErrInvalidRoute)
	require.ErrorIs(t, r.Mount(router.Route{Descriptor: ping()}), router.ErrInvalidRoute)
	require.ErrorIs(t, r.Mount(router.Route{Handler: respond("c")}), router.ErrInvalidRoute)
}

func TestShutdownWaitsForTasks(t *testing.T) {
	t.Parallel()
	r, _ := setupTest(t)

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, r.Mount(router.Route{Descriptor: ping(), Handler: func(ctx *interaction.Context) error {
		close(started)
		<-release
		return ctx.Defer(false)
	}}))

	task := r.Dispatch(t.Context(), commandEvent(t, 900, "ping", 0))
	<-started

	short, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, r.Shutdown(short), context.DeadlineExceeded)
	assert.NoError(t, task.Err(), "task still running")

	close(release)
	require.NoError(t, r.Shutdown(t.Context()))
	require.NoError(t, task.Err())

	late := r.Dispatch(t.Context(), commandEvent(t, 900, "ping", 0))
	require.ErrorIs(t, late.Wait(t.Context()), router.ErrShuttingDown)
}

// memoryRecorder keeps invocation records in memory.
type memoryRecorder struct {
	mu      sync.Mutex
	records []*router.Invocation
	err     error
}

func (m *memoryRecorder) RecordInvocation(_ context.Context, inv *router.Invocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, inv)
	return m.err
}

func TestInvocationLog(t *testing.T) {
	t.Parallel()
	r, _ := setupTest(t)

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	recorder := &memoryRecorder{}
	r.Use(router.WithInvocationLog(recorder, logger))

	errDenied := errors.New("denied")
	require.NoError(t, r.Mount(
		router.Route{Descriptor: ping(), Handler: respond("pong")},
		router.Route{
			Descriptor: command.MustBuild(command.Definition{Name: "ban", Description: "Ban someone"}),
			Handler:    func(*interaction.Context) error { return errDenied },
		},
	))

	require.NoError(t, r.Dispatch(t.Context(), commandEvent(t, 900, "ping", 0)).Wait(t.Context()))
	require.ErrorIs(t, r.Dispatch(t.Context(), commandEvent(t, 901, "ban", 0)).Wait(t.Context()), errDenied)

	recorder.err = errors.New("database down")
	require.NoError(t, r.Dispatch(t.Context(), commandEvent(t, 900, "ping", 0)).Wait(t.Context()),
		"recording failures do not change the result")

	require.Len(t, recorder.records, 3)
	assert.Equal(t, "ping", recorder.records[0].CommandName)
	assert.Equal(t, "responded", recorder.records[0].State)
	assert.Equal(t, snowflake.ID(55), recorder.records[0].UserID)
	assert.Equal(t, "denied", recorder.records[1].Error)
	assert.Equal(t, "fresh", recorder.records[1].State)
}
