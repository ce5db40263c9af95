package registry

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
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultConcurrency bounds the number of declarations synced at once.
const DefaultConcurrency = 4

// API is the subset of the remote client the engine needs.
type API interface {
	ListCommands(ctx context.Context, guildID snowflake.ID) ([]rest.Command, error)
	GetCommand(ctx context.Context, guildID, commandID snowflake.ID) (*rest.Command, error)
	CreateCommand(ctx context.Context, guildID snowflake.ID, payload command.Payload) (*rest.Command, error)
	UpdateCommand(ctx context.Context, guildID, commandID snowflake.ID, payload command.Payload) (*rest.Command, error)
	DeleteCommand(ctx context.Context, guildID, commandID snowflake.ID) error
	GetPermissions(ctx context.Context, guildID, commandID snowflake.ID) (*rest.CommandPermissions, error)
	SetPermissions(
		ctx context.Context, guildID, commandID snowflake.ID, payload command.PermissionsPayload,
	) (*rest.CommandPermissions, error)
}

// Declaration pairs a descriptor with the scope it is registered in. GuildID zero means global.
type Declaration struct {
	Descriptor *command.Descriptor
	GuildID    snowflake.ID
}

// Key returns the scoped identity of the declaration.
func (d Declaration) Key() ScopedKey {
	if d.Descriptor == nil {
		return ScopedKey{GuildID: d.GuildID}
	}
	return ScopedKey{Type: d.Descriptor.Type(), Name: d.Descriptor.Name(), GuildID: d.GuildID}
}

// Engine registers declarations remotely and keeps the registered command cache.
type Engine struct {
	api         API
	cache       *Cache
	hashes      HashStore
	logger      *zap.Logger
	concurrency int
	now         func() time.Time
	listings    singleflight.Group
}

// Option configures an Engine.
type Option func(*Engine)

// WithHashStore replaces the in-memory hash store.
func WithHashStore(store HashStore) Option {
	return func(e *Engine) {
		e.hashes = store
	}
}

// WithConcurrency sets how many declarations are synced in parallel.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewEngine creates a sync engine on the given API.
func NewEngine(api API, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		api:         api,
		cache:       newCache(),
		hashes:      NewMemoryHashStore(),
		logger:      logger.Named("registry"),
		concurrency: DefaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cache returns the registered command cache.
func (e *Engine) Cache() *Cache {
	return e.cache
}

// remoteKey identifies a command inside one scope listing.
type remoteKey struct {
	Type command.CommandType
	Name string
}

// syncRun holds the scope listings fetched during one Sync call.
type syncRun struct {
	engine   *Engine
	mu       sync.Mutex
	listings map[snowflake.ID]map[remoteKey]rest.Command
}

// remote returns the remote commands of a scope, listing it at most once per run.
func (r *syncRun) remote(ctx context.Context, guildID snowflake.ID) (map[remoteKey]rest.Command, error) {
	r.mu.Lock()
	listing, ok := r.listings[guildID]
	r.mu.Unlock()
	if ok {
		return listing, nil
	}

	v, err, _ := r.engine.listings.Do(guildID.String(), func() (any, error) {
		commands, err := r.engine.api.ListCommands(ctx, guildID)
		if err != nil {
			return nil, err
		}
		byKey := make(map[remoteKey]rest.Command, len(commands))
		for _, cmd := range commands {
			byKey[remoteKey{Type: cmd.Type, Name: cmd.Name}] = cmd
		}
		return byKey, nil
	})
	if err != nil {
		return nil, err
	}

	listing = v.(map[remoteKey]rest.Command)
	r.mu.Lock()
	r.listings[guildID] = listing
	r.mu.Unlock()
	return listing, nil
}

// outcome is the result of syncing one declaration.
type outcome struct {
	registered *RegisteredCommand
	errs       []error
}

// Sync registers every declaration, creating or updating the remote command and attaching
// declared overwrites. Failures are collected per declaration and returned joined once the
// whole batch ran. Commands registered successfully are returned and cached even when
// other declarations failed.
func (e *Engine) Sync(ctx context.Context, decls []Declaration) ([]RegisteredCommand, error) {
	outcomes := make([]outcome, len(decls))
	valid := e.validate(decls, outcomes)

	run := &syncRun{engine: e, listings: make(map[snowflake.ID]map[remoteKey]rest.Command)}
	p := pool.New().WithContext(ctx).WithMaxGoroutines(e.concurrency)
	for _, i := range valid {
		p.Go(func(ctx context.Context) error {
			outcomes[i] = e.syncOne(ctx, run, decls[i])
			return nil
		})
	}
	_ = p.Wait()

	var (
		registered []RegisteredCommand
		errs       []error
	)
	for _, o := range outcomes {
		if o.registered != nil {
			registered = append(registered, *o.registered)
		}
		errs = append(errs, o.errs...)
	}

	e.logger.Info("Synced commands",
		zap.Int("declared", len(decls)),
		zap.Int("registered", len(registered)),
		zap.Int("failed", len(errs)))

	return registered, errors.Join(errs...)
}

// validate records declaration-level problems and returns the indexes that may be synced.
func (e *Engine) validate(decls []Declaration, outcomes []outcome) []int {
	seen := make(map[ScopedKey]struct{}, len(decls))
	valid := make([]int, 0, len(decls))

	for i, decl := range decls {
		key := decl.Key()
		fail := func(err error) {
			outcomes[i].errs = append(outcomes[i].errs, &SyncError{Key: key, Stage: StageValidate, Err: err})
		}

		if decl.Descriptor == nil {
			fail(fmt.Errorf("%w: declaration %d has no descriptor", command.ErrValidation, i))
			continue
		}
		if _, dup := seen[key]; dup {
			fail(ErrDuplicateDeclaration)
			continue
		}
		seen[key] = struct{}{}

		if decl.GuildID == 0 {
			if slices.ContainsFunc(decl.Descriptor.Access().Overwrites, func(g command.GuildOverwrite) bool {
				return g.GuildID == 0
			}) {
				fail(ErrGlobalOverwrite)
				continue
			}
		}
		valid = append(valid, i)
	}
	return valid
}

// syncOne writes a single declaration and its overwrites.
func (e *Engine) syncOne(ctx context.Context, run *syncRun, decl Declaration) outcome {
	key := decl.Key()
	desc := decl.Descriptor
	hash := desc.Hash()

	var (
		cmd      *rest.Command
		existing rest.Command
		exists   bool
		// confirmed is set when the command was seen in the remote listing.
		confirmed bool
	)

	listing, err := run.remote(ctx, decl.GuildID)
	if err == nil {
		existing, exists = listing[remoteKey{Type: key.Type, Name: key.Name}]
		confirmed = exists
	} else {
		cached, ok := e.cache.Lookup(key)
		if !ok {
			return outcome{errs: []error{&SyncError{Key: key, Stage: StageList, Err: err}}}
		}
		e.logger.Warn("Listing failed, updating cached command",
			zap.String("name", key.Name),
			zap.String("scope", scopeLabel(key)),
			zap.Error(err))
		existing = rest.Command{ID: cached.ID}
		exists = true
	}

	switch {
	case confirmed && e.unchanged(ctx, key, hash):
		cmd = &existing
		e.logger.Debug("Command unchanged, skipping write",
			zap.String("name", key.Name),
			zap.String("scope", scopeLabel(key)))
	case exists:
		cmd, err = e.api.UpdateCommand(ctx, decl.GuildID, existing.ID, desc.Payload())
		if rest.IsNotFound(err) {
			// Deleted remotely since the listing.
			cmd, err = e.api.CreateCommand(ctx, decl.GuildID, desc.Payload())
		}
		if err != nil {
			return outcome{errs: []error{&SyncError{Key: key, Stage: StageUpdate, Err: err}}}
		}
		e.logger.Info("Updated command", zap.String("name", key.Name), zap.String("scope", scopeLabel(key)))
	default:
		cmd, err = e.api.CreateCommand(ctx, decl.GuildID, desc.Payload())
		if err != nil {
			return outcome{errs: []error{&SyncError{Key: key, Stage: StageCreate, Err: err}}}
		}
		e.logger.Info("Created command", zap.String("name", key.Name), zap.String("scope", scopeLabel(key)))
	}

	if err := e.hashes.Set(ctx, key, hash); err != nil {
		e.logger.Warn("Failed to store definition hash", zap.String("name", key.Name), zap.Error(err))
	}

	registered := RegisteredCommand{
		ID:            cmd.ID,
		ApplicationID: cmd.ApplicationID,
		GuildID:       decl.GuildID,
		Version:       cmd.Version,
		Type:          key.Type,
		Name:          key.Name,
		Hash:          hash,
		Descriptor:    desc,
		SyncedAt:      e.now(),
	}

	var errs []error
	if decl.GuildID != 0 {
		if perms, ok := desc.Overwrites(decl.GuildID); ok {
			payload := command.GuildOverwrite{GuildID: decl.GuildID, Permissions: perms}.Payload()
			if _, err := e.api.SetPermissions(ctx, decl.GuildID, cmd.ID, payload); err != nil {
				errs = append(errs, &SyncError{Key: key, Stage: StagePermissions, Err: err})
			} else {
				registered.Permissions = perms
			}
		}
	}
	// A guild command only exists in its own guild; other guilds' overwrites are for
	// the declarations in those guilds.
	for _, overwrite := range desc.Access().Overwrites {
		if decl.GuildID != 0 || overwrite.GuildID == 0 {
			continue
		}
		if _, err := e.api.SetPermissions(ctx, overwrite.GuildID, cmd.ID, overwrite.Payload()); err != nil {
			errs = append(errs, &SyncError{Key: key, Stage: StagePermissions, Err: err})
		}
	}

	e.cache.put(registered)
	return outcome{registered: &registered, errs: errs}
}

// unchanged reports whether the stored hash matches. Store errors count as a miss.
func (e *Engine) unchanged(ctx context.Context, key ScopedKey, hash string) bool {
	stored, ok, err := e.hashes.Get(ctx, key)
	if err != nil {
		e.logger.Warn("Failed to read definition hash", zap.String("name", key.Name), zap.Error(err))
		return false
	}
	return ok && stored == hash
}

// Prune deletes remote commands that are not declared. The global scope and every scope
// named by a declaration are checked, plus any extra guilds given.
func (e *Engine) Prune(ctx context.Context, decls []Declaration, guilds ...snowflake.ID) ([]RegisteredCommand, error) {
	declared := make(map[ScopedKey]struct{}, len(decls))
	scopes := []snowflake.ID{0}
	for _, decl := range decls {
		declared[decl.Key()] = struct{}{}
		scopes = append(scopes, decl.GuildID)
	}
	scopes = append(scopes, guilds...)
	slices.Sort(scopes)
	scopes = slices.Compact(scopes)

	var (
		deleted []RegisteredCommand
		errs    []error
	)
	for _, guildID := range scopes {
		commands, err := e.api.ListCommands(ctx, guildID)
		if err != nil {
			errs = append(errs, &SyncError{Key: ScopedKey{GuildID: guildID}, Stage: StageList, Err: err})
			continue
		}

		for _, cmd := range commands {
			key := ScopedKey{Type: cmd.Type, Name: cmd.Name, GuildID: guildID}
			if _, ok := declared[key]; ok {
				continue
			}

			registered, err := e.Delete(ctx, guildID, cmd.ID)
			if err != nil {
				errs = append(errs, &SyncError{Key: key, Stage: StageDelete, Err: err})
				continue
			}
			if registered == nil {
				registered = e.fromRemote(&cmd)
			}
			deleted = append(deleted, *registered)
		}
	}

	if len(deleted) > 0 {
		e.logger.Info("Pruned commands", zap.Int("deleted", len(deleted)))
	}
	return deleted, errors.Join(errs...)
}

// Purge deletes every remote command in one scope.
func (e *Engine) Purge(ctx context.Context, guildID snowflake.ID) ([]RegisteredCommand, error) {
	commands, err := e.api.ListCommands(ctx, guildID)
	if err != nil {
		return nil, &SyncError{Key: ScopedKey{GuildID: guildID}, Stage: StageList, Err: err}
	}

	var (
		deleted []RegisteredCommand
		errs    []error
	)
	for _, cmd := range commands {
		registered, err := e.Delete(ctx, guildID, cmd.ID)
		if err != nil {
			key := ScopedKey{Type: cmd.Type, Name: cmd.Name, GuildID: guildID}
			errs = append(errs, &SyncError{Key: key, Stage: StageDelete, Err: err})
			continue
		}
		if registered == nil {
			registered = e.fromRemote(&cmd)
		}
		deleted = append(deleted, *registered)
	}

	e.logger.Info("Purged commands",
		zap.String("scope", scopeLabel(ScopedKey{GuildID: guildID})),
		zap.Int("deleted", len(deleted)))
	return deleted, errors.Join(errs...)
}

// List returns the commands registered remotely in a scope.
func (e *Engine) List(ctx context.Context, guildID snowflake.ID) ([]RegisteredCommand, error) {
	commands, err := e.api.ListCommands(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list commands: %w", err)
	}

	out := make([]RegisteredCommand, 0, len(commands))
	for i := range commands {
		out = append(out, *e.fromRemote(&commands[i]))
	}
	return out, nil
}

// Fetch returns a single remote command.
func (e *Engine) Fetch(ctx context.Context, guildID, commandID snowflake.ID) (*RegisteredCommand, error) {
	cmd, err := e.api.GetCommand(ctx, guildID, commandID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch command %s: %w", commandID, err)
	}
	return e.fromRemote(cmd), nil
}

// Delete removes a command remotely and forgets it locally. A command already gone remotely
// counts as deleted. The returned record is the cached entry, or nil when it was not cached.
func (e *Engine) Delete(ctx context.Context, guildID, commandID snowflake.ID) (*RegisteredCommand, error) {
	if err := e.api.DeleteCommand(ctx, guildID, commandID); err != nil && !rest.IsNotFound(err) {
		return nil, fmt.Errorf("failed to delete command %s: %w", commandID, err)
	}

	registered, ok := e.cache.remove(commandID)
	if !ok {
		return nil, nil
	}
	if err := e.hashes.Delete(ctx, registered.Key()); err != nil {
		e.logger.Warn("Failed to delete definition hash", zap.String("name", registered.Name), zap.Error(err))
	}

	e.logger.Info("Deleted command",
		zap.String("name", registered.Name),
		zap.String("scope", scopeLabel(registered.Key())))
	return &registered, nil
}

// SetPermissions replaces the overwrites of a command in a guild.
func (e *Engine) SetPermissions(
	ctx context.Context, guildID, commandID snowflake.ID, perms []command.PermissionOverwrite,
) error {
	if len(perms) > command.MaxOverwrites {
		return fmt.Errorf("%w: %d overwrites, at most %d allowed", command.ErrValidation, len(perms), command.MaxOverwrites)
	}

	payload := command.GuildOverwrite{GuildID: guildID, Permissions: perms}.Payload()
	if _, err := e.api.SetPermissions(ctx, guildID, commandID, payload); err != nil {
		return fmt.Errorf("failed to set permissions of %s: %w", commandID, err)
	}

	if registered, ok := e.cache.Get(commandID); ok && registered.GuildID == guildID {
		e.cache.setPermissions(commandID, perms)
	}
	return nil
}

// Permissions returns the overwrites of a command in a guild.
func (e *Engine) Permissions(
	ctx context.Context, guildID, commandID snowflake.ID,
) ([]command.PermissionOverwrite, error) {
	perms, err := e.api.GetPermissions(ctx, guildID, commandID)
	if err != nil {
		return nil, fmt.Errorf("failed to get permissions of %s: %w", commandID, err)
	}
	return perms.Permissions, nil
}

// fromRemote converts a remote record, reusing the cached entry when there is one.
func (e *Engine) fromRemote(cmd *rest.Command) *RegisteredCommand {
	if cached, ok := e.cache.Get(cmd.ID); ok {
		cached.Version = cmd.Version
		return &cached
	}

	desc, err := command.FromPayload(cmd.Payload())
	if err != nil {
		e.logger.Debug("Remote command does not rebuild locally",
			zap.String("name", cmd.Name),
			zap.Error(err))
	}

	return &RegisteredCommand{
		ID:            cmd.ID,
		ApplicationID: cmd.ApplicationID,
		GuildID:       cmd.Scope(),
		Version:       cmd.Version,
		Type:          cmd.Type,
		Name:          cmd.Name,
		Descriptor:    desc,
	}
}
