package router

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/slashcore/internal/command"
	"github.com/robalyx/slashcore/internal/interaction"
	"github.com/robalyx/slashcore/internal/registry"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// HandlerFunc handles one interaction.
type HandlerFunc func(ctx *interaction.Context) error

// Middleware wraps a handler. Middleware registered first runs outermost.
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHook receives every error that reaches the router boundary.
type ErrorHook func(ctx *interaction.Context, err error)

// Route binds a command descriptor in one scope to its handlers.
type Route struct {
	Descriptor *command.Descriptor
	// GuildID scopes the command to one guild; zero registers it globally.
	GuildID      snowflake.ID
	Handler      HandlerFunc
	Autocomplete HandlerFunc
}

func (r *Route) key() registry.ScopedKey {
	return registry.ScopedKey{Type: r.Descriptor.Type(), Name: r.Descriptor.Name(), GuildID: r.GuildID}
}

// Router maps inbound interactions to handlers and runs each one in its own goroutine.
type Router struct {
	transport   interaction.Transport
	logger      *zap.Logger
	tracer      trace.Tracer
	errorHook   ErrorHook
	contextOpts []interaction.ContextOption

	mu         sync.RWMutex
	routes     []*Route
	byKey      map[registry.ScopedKey]*Route
	byID       map[snowflake.ID]*Route
	rekeyed    bool
	components map[string]HandlerFunc
	modals     map[string]HandlerFunc
	middleware []Middleware

	// lifecycle orders task registration against Shutdown.
	lifecycle sync.RWMutex
	closed    bool
	tasks     conc.WaitGroup
}

// Option configures a Router.
type Option func(*Router)

// WithErrorHook sets the hook that receives handler and routing errors.
func WithErrorHook(hook ErrorHook) Option {
	return func(r *Router) {
		r.errorHook = hook
	}
}

// WithContextOptions passes options to every interaction context the router creates.
func WithContextOptions(opts ...interaction.ContextOption) Option {
	return func(r *Router) {
		r.contextOpts = append(r.contextOpts, opts...)
	}
}

// WithTracer replaces the global tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Router) {
		r.tracer = tracer
	}
}

// New creates a router that answers through transport.
func New(transport interaction.Transport, logger *zap.Logger, opts ...Option) *Router {
	r := &Router{
		transport:  transport,
		logger:     logger.Named("router"),
		tracer:     otel.Tracer("slashcore/router"),
		byKey:      make(map[registry.ScopedKey]*Route),
		byID:       make(map[snowflake.ID]*Route),
		components: make(map[string]HandlerFunc),
		modals:     make(map[string]HandlerFunc),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use appends middleware to the chain.
func (r *Router) Use(middleware ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, middleware...)
}

// Mount adds command routes. A route whose (type, name, guild) is already mounted is rejected.
func (r *Router) Mount(routes ...Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range routes {
		route := routes[i]
		switch {
		case route.Descriptor == nil:
			return fmt.Errorf("%w: route %d has no descriptor", ErrInvalidRoute, i)
		case route.Handler == nil:
			return fmt.Errorf("%w: %q has no handler", ErrInvalidRoute, route.Descriptor.Name())
		case route.Autocomplete != nil && route.Descriptor.Type() != command.CommandTypeChatInput:
			return fmt.Errorf("%w: %q is not a chat command and cannot autocomplete",
				ErrInvalidRoute, route.Descriptor.Name())
		}

		key := route.key()
		if _, exists := r.byKey[key]; exists {
			return fmt.Errorf("%w: %q is already mounted in this scope", ErrInvalidRoute, key.Name)
		}
		r.byKey[key] = &route
		r.routes = append(r.routes, &route)
	}
	return nil
}

// HandleComponent routes message components whose custom ID is prefix or starts with "prefix:".
func (r *Router) HandleComponent(prefix string, handler HandlerFunc) error {
	return r.handlePrefix(r.components, prefix, handler)
}

// HandleModal routes modal submissions whose custom ID is prefix or starts with "prefix:".
func (r *Router) HandleModal(prefix string, handler HandlerFunc) error {
	return r.handlePrefix(r.modals, prefix, handler)
}

func (r *Router) handlePrefix(table map[string]HandlerFunc, prefix string, handler HandlerFunc) error {
	if prefix == "" || strings.Contains(prefix, ":") || handler == nil {
		return fmt.Errorf("%w: custom id prefix %q", ErrInvalidRoute, prefix)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := table[prefix]; exists {
		return fmt.Errorf("%w: custom id prefix %q is already handled", ErrInvalidRoute, prefix)
	}
	table[prefix] = handler
	return nil
}

// Declarations returns the registration list for the sync engine in mount order.
func (r *Router) Declarations() []registry.Declaration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	decls := make([]registry.Declaration, 0, len(r.routes))
	for _, route := range r.routes {
		decls = append(decls, registry.Declaration{Descriptor: route.Descriptor, GuildID: route.GuildID})
	}
	return decls
}

// Rekey switches lookup to the numeric IDs of registered commands. Once rekeyed, an
// interaction naming an ID that is not part of the latest registration is unknown.
func (r *Router) Rekey(registered []registry.RegisteredCommand) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID := make(map[snowflake.ID]*Route, len(registered))
	for _, cmd := range registered {
		route, ok := r.byKey[cmd.Key()]
		if !ok {
			r.logger.Debug("Registered command has no route",
				zap.String("name", cmd.Name),
				zap.Uint64("command_id", uint64(cmd.ID)))
			continue
		}
		byID[cmd.ID] = route
	}

	r.byID = byID
	r.rekeyed = true
	r.logger.Info("Rekeyed routes by command ID", zap.Int("routes", len(byID)))
}

// lookup finds the route of a command or autocomplete interaction.
func (r *Router) lookup(i *interaction.Interaction) (*Route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.rekeyed {
		route, ok := r.byID[i.Data.CommandID]
		return route, ok
	}

	key := registry.ScopedKey{Type: i.Data.CommandType, Name: i.Data.CommandName, GuildID: i.Data.CommandGuildID}
	if route, ok := r.byKey[key]; ok {
		return route, true
	}
	key.GuildID = 0
	route, ok := r.byKey[key]
	return route, ok
}

// prefixHandler finds the handler registered for the prefix of a custom ID.
func (r *Router) prefixHandler(table map[string]HandlerFunc, customID string) (HandlerFunc, bool) {
	prefix, _, _ := strings.Cut(customID, ":")

	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := table[prefix]
	return handler, ok
}

// resolve picks the handler for an interaction.
func (r *Router) resolve(i *interaction.Interaction) (HandlerFunc, error) {
	notFound := &CommandNotRegisteredError{
		Type:      i.Type,
		CommandID: i.Data.CommandID,
		Key:       i.CommandKey(),
		GuildID:   i.Data.CommandGuildID,
		CustomID:  i.Data.CustomID,
	}

	switch i.Type {
	case interaction.TypeApplicationCommand:
		if route, ok := r.lookup(i); ok {
			return route.Handler, nil
		}
	case interaction.TypeAutocomplete:
		if route, ok := r.lookup(i); ok && route.Autocomplete != nil {
			return route.Autocomplete, nil
		}
	case interaction.TypeMessageComponent:
		if handler, ok := r.prefixHandler(r.components, i.Data.CustomID); ok {
			return handler, nil
		}
	case interaction.TypeModalSubmit:
		if handler, ok := r.prefixHandler(r.modals, i.Data.CustomID); ok {
			return handler, nil
		}
	}
	return nil, notFound
}

// chain wraps handler in the registered middleware.
func (r *Router) chain(handler HandlerFunc) HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.middleware) - 1; i >= 0; i-- {
		handler = r.middleware[i](handler)
	}
	return handler
}

// Dispatch runs the handler of an interaction in its own goroutine and returns its task.
// Errors never propagate to the caller; they reach the error hook and the task.
func (r *Router) Dispatch(ctx context.Context, i *interaction.Interaction) *Task {
	opts := append([]interaction.ContextOption{interaction.WithLogger(r.logger)}, r.contextOpts...)
	task := newTask(interaction.NewContext(ctx, i, r.transport, opts...))

	if i.Type == interaction.TypePing {
		task.finish(nil)
		return task
	}

	r.lifecycle.RLock()
	defer r.lifecycle.RUnlock()
	if r.closed {
		task.finish(ErrShuttingDown)
		return task
	}

	r.tasks.Go(func() {
		task.finish(r.run(task))
	})
	return task
}

// run executes one task under a span and reports any error.
func (r *Router) run(task *Task) error {
	i := task.Interaction
	spanCtx, span := r.tracer.Start(task.ctx.Context(), "interaction.dispatch",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.Int64("interaction.id", int64(i.ID)),
			attribute.Int("interaction.type", int(i.Type)),
			attribute.String("command.name", i.Data.CommandName),
			attribute.String("custom_id", i.Data.CustomID),
			attribute.Int64("guild.id", int64(i.GuildID)),
		))
	defer span.End()

	ctx := task.ctx.WithContext(spanCtx)
	start := time.Now()

	handler, err := r.resolve(i)
	if err == nil {
		err = r.invoke(ctx, r.chain(handler))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.report(ctx, err)
	}

	if !ctx.Answered() {
		r.logger.Warn("Interaction left unanswered",
			zap.Uint64("interaction_id", uint64(i.ID)),
			zap.String("command", i.Data.CommandName),
			zap.String("custom_id", i.Data.CustomID),
			zap.Duration("duration", time.Since(start)))
	}
	return err
}

// invoke calls handler and converts a panic into an error.
func (r *Router) invoke(ctx *interaction.Context, handler HandlerFunc) (err error) {
	recovered := panics.Try(func() {
		err = handler(ctx)
	})
	if recovered != nil {
		r.logger.Error("Panic in interaction handler",
			zap.Uint64("interaction_id", uint64(ctx.Interaction().ID)),
			zap.Any("panic", recovered.Value),
			zap.String("stack", string(recovered.Stack)))
		return fmt.Errorf("%w: %w", ErrHandlerPanic, recovered.AsError())
	}
	return err
}

// report passes err to the error hook, or logs it when no hook is set.
func (r *Router) report(ctx *interaction.Context, err error) {
	if r.errorHook == nil {
		r.logger.Error("Interaction handler failed",
			zap.Uint64("interaction_id", uint64(ctx.Interaction().ID)),
			zap.String("command", ctx.Interaction().Data.CommandName),
			zap.Error(err))
		return
	}

	if recovered := panics.Try(func() { r.errorHook(ctx, err) }); recovered != nil {
		r.logger.Error("Panic in error hook",
			zap.Any("panic", recovered.Value),
			zap.NamedError("handler_error", err))
	}
}

// Shutdown stops accepting interactions and waits for in-flight handlers.
func (r *Router) Shutdown(ctx context.Context) error {
	r.lifecycle.Lock()
	r.closed = true
	r.lifecycle.Unlock()

	done := make(chan struct{})
	go func() {
		r.tasks.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("All interaction handlers finished")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for interaction handlers: %w", ctx.Err())
	}
}
