package registry_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/disgoorg/snowflake/v2"
	"github.com/redis/rueidis"
	"github.com/robalyx/slashcore/internal/command"
	"github.com/robalyx/slashcore/internal/registry"
	"github.com/robalyx/slashcore/internal/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTest(t *testing.T, opts ...registry.Option) (*registry.Engine, *fakeAPI) {
	t.Helper()

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	api := newFakeAPI()
	return registry.NewEngine(api, logger, opts...), api
}

func setupRedis(t *testing.T) (rueidis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)

	cleanup := func() {
		client.Close()
		mr.Close()
	}
	return client, cleanup
}

func ping(description string, access ...command.Access) *command.Descriptor {
	def := command.Definition{Name: "ping", Description: description}
	if len(access) > 0 {
		def.Access = access[0]
	}
	return command.MustBuild(def)
}

func named(name string) *command.Descriptor {
	return command.MustBuild(command.Definition{Name: name, Description: "Test command " + name})
}

func TestSyncRegistersPerScope(t *testing.T) {
	t.Parallel()
	engine, api := setupTest(t)

	desc := ping("Replies with pong")
	registered, err := engine.Sync(t.Context(), []registry.Declaration{
		{Descriptor: desc, GuildID: 1},
		{Descriptor: desc, GuildID: 2},
		{Descriptor: named("help")},
	})
	require.NoError(t, err)
	require.Len(t, registered, 3)

	first, ok := engine.Cache().Lookup(registry.ScopedKey{Type: command.CommandTypeChatInput, Name: "ping", GuildID: 1})
	require.True(t, ok)
	second, ok := engine.Cache().Lookup(registry.ScopedKey{Type: command.CommandTypeChatInput, Name: "ping", GuildID: 2})
	require.True(t, ok)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, desc.Hash(), first.Hash)

	byID, ok := engine.Cache().Get(second.ID)
	require.True(t, ok)
	assert.Equal(t, snowflake.ID(2), byID.GuildID)

	assert.Equal(t, 3, engine.Cache().Len())
	assert.Equal(t, 3, api.count("create"))
	assert.Equal(t, 3, api.count("list"), "each scope is listed once")

	all := engine.Cache().All()
	require.Len(t, all, 3)
	assert.Equal(t, "help", all[0].Name, "global commands sort first")
}

func TestSyncSkipsUnchanged(t *testing.T) {
	t.Parallel()
	engine, api := setupTest(t)

	decls := []registry.Declaration{{Descriptor: ping("Replies with pong"), GuildID: 1}}
	first, err := engine.Sync(t.Context(), decls)
	require.NoError(t, err)

	second, err := engine.Sync(t.Context(), decls)
	require.NoError(t, err)
	require.Len(t, second, 1)

	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, 1, api.count("create"))
	assert.Equal(t, 0, api.count("update"))
}

func TestSyncUpdatesChangedDefinition(t *testing.T) {
	t.Parallel()
	engine, api := setupTest(t)

	first, err := engine.Sync(t.Context(), []registry.Declaration{{Descriptor: ping("Replies with pong"), GuildID: 1}})
	require.NoError(t, err)

	changed := ping("Replies with a pong")
	second, err := engine.Sync(t.Context(), []registry.Declaration{{Descriptor: changed, GuildID: 1}})
	require.NoError(t, err)

	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, changed.Hash(), second[0].Hash)
	assert.NotEqual(t, first[0].Version, second[0].Version)
	assert.Equal(t, 1, api.count("update"))
}

func TestSyncUpdatesUnknownRemoteDefinition(t *testing.T) {
	t.Parallel()
	engine, api := setupTest(t)

	// Registered by an earlier process; no hash is known locally.
	seeded := api.seed(0, ping("Old text").Payload())

	registered, err := engine.Sync(t.Context(), []registry.Declaration{{Descriptor: ping("Replies with pong")}})
	require.NoError(t, err)
	require.Len(t, registered, 1)

	assert.Equal(t, seeded.ID, registered[0].ID)
	assert.Equal(t, 1, api.count("update"))
	assert.Equal(t, 0, api.count("create"))
}

func TestSyncUpdateFallsBackToCreate(t *testing.T) {
	t.Parallel()
	engine, api := setupTest(t)

	api.seed(0, ping("Old text").Payload())
	api.fail["update ping"] = errNotFound

	registered, err := engine.Sync(t.Context(), []registry.Declaration{{Descriptor: ping("Replies with pong")}})
	require.NoError(t, err)
	require.Len(t, registered, 1)

	assert.Equal(t, 1, api.count("update"))
	assert.Equal(t, 1, api.count("create"))
}

func TestSyncCollectsPartialFailures(t *testing.T) {
	t.Parallel()
	engine, api := setupTest(t)

	api.fail["create broken"] = &rest.RemoteRequestError{Op: "create command", Status: http.StatusBadRequest, Code: 50035}

	registered, err := engine.Sync(t.Context(), []registry.Declaration{
		{Descriptor: named("alpha")},
		{Descriptor: named("broken")},
		{Descriptor: named("gamma")},
	})
	require.Error(t, err)
	require.ErrorIs(t, err, registry.ErrSync)
	require.ErrorIs(t, err, rest.ErrRemoteRequest)

	assert.Len(t, registered, 2)
	assert.Equal(t, 2, engine.Cache().Len())

	failures := registry.SyncErrors(err)
	require.Len(t, failures, 1)
	assert.Equal(t, "broken", failures[0].Key.Name)
	assert.Equal(t, registry.StageCreate, failures[0].Stage)
}

func TestSyncListFailure(t *testing.T) {
	t.Parallel()
	engine, api := setupTest(t)

	api.fail["list"] = &rest.RemoteRequestError{Op: "list commands", Status: http.StatusInternalServerError}

	registered, err := engine.Sync(t.Context(), []registry.Declaration{{Descriptor: named("alpha")}})
	require.Error(t, err)
	assert.Empty(t, registered)

	failures := registry.SyncErrors(err)
	require.Len(t, failures, 1)
	assert.Equal(t, registry.StageList, failures[0].Stage)
	assert.Equal(t, 0, api.count("create"))
}

func TestSyncListFailureUpdatesCachedCommand(t *testing.T) {
	t.Parallel()
	engine, api := setupTest(t)

	first, err := engine.Sync(t.Context(), []registry.Declaration{{Descriptor: ping("Replies with pong"), GuildID: 1}})
	require.NoError(t, err)

	api.fail["list"] = &rest.RemoteRequestError{Op: "list commands", Status: http.StatusInternalServerError}

	changed := ping("Replies with a pong")
	registered, err := engine.Sync(t.Context(), []registry.Declaration{
		{Descriptor: changed, GuildID: 1},
		{Descriptor: named("fresh"), GuildID: 1},
	})
	require.Error(t, err)
	require.Len(t, registered, 1)

	assert.Equal(t, first[0].ID, registered[0].ID)
	assert.Equal(t, changed.Hash(), registered[0].Hash)
	assert.Equal(t, 1, api.count("update"))
	assert.Equal(t, 1, api.count("create"))

	// Only the command missing from the cache fails.
	failures := registry.SyncErrors(err)
	require.Len(t, failures, 1)
	assert.Equal(t, "fresh", failures[0].Key.Name)
	assert.Equal(t, registry.StageList, failures[0].Stage)
}

func TestSyncRejectsInvalidDeclarations(t *testing.T) {
	t.Parallel()

	globalOverwrite := ping("Replies with pong", command.Access{
		Overwrites: []command.GuildOverwrite{{Permissions: []command.PermissionOverwrite{command.RoleOverwrite(10, true)}}},
	})

	tests := []struct {
		name       string
		decls      []registry.Declaration
		wantErr    error
		registered int
		creates    int
	}{
		{
			name: "duplicate declaration",
			decls: []registry.Declaration{
				{Descriptor: named("alpha"), GuildID: 5},
				{Descriptor: named("alpha"), GuildID: 5},
			},
			wantErr:    registry.ErrDuplicateDeclaration,
			registered: 1,
			creates:    1,
		},
		{
			name:    "missing descriptor",
			decls:   []registry.Declaration{{GuildID: 5}},
			wantErr: command.ErrValidation,
		},
		{
			name:    "global overwrite without guild",
			decls:   []registry.Declaration{{Descriptor: globalOverwrite}},
			wantErr: registry.ErrGlobalOverwrite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			engine, api := setupTest(t)

			registered, err := engine.Sync(t.Context(), tt.decls)
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, registry.ErrSync)
			assert.Len(t, registered, tt.registered)
			assert.Equal(t, tt.creates, api.count("create"))

			failures := registry.SyncErrors(err)
			require.Len(t, failures, 1)
			assert.Equal(t, registry.StageValidate, failures[0].Stage)
		})
	}
}

func TestSyncAttachesOverwrites(t *testing.T) {
	t.Parallel()
	engine, api := setupTest(t)

	guildScoped := ping("Replies with pong", command.Access{
		Overwrites: []command.GuildOverwrite{
			{Permissions: []command.PermissionOverwrite{command.RoleOverwrite(10, true)}},
			{GuildID: 9, Permissions: []command.PermissionOverwrite{command.UserOverwrite(11, false)}},
		},
	})
	global := command.MustBuild(command.Definition{
		Name:        "admin",
		Description: "Administration",
		Access: command.Access{
			Overwrites: []command.GuildOverwrite{
				{GuildID: 9, Permissions: []command.PermissionOverwrite{command.RoleOverwrite(12, true)}},
			},
		},
	})

	registered, err := engine.Sync(t.Context(), []registry.Declaration{
		{Descriptor: guildScoped, GuildID: 1},
		{Descriptor: global},
	})
	require.NoError(t, err)
	require.Len(t, registered, 2)

	// The guild command only receives its own guild's overwrites.
	assert.Equal(t, 2, api.count("set permissions"))

	pingCmd, ok := engine.Cache().Lookup(registry.ScopedKey{Type: command.CommandTypeChatInput, Name: "ping", GuildID: 1})
	require.True(t, ok)
	assert.Equal(t, []command.PermissionOverwrite{command.RoleOverwrite(10, true)}, pingCmd.Permissions)

	_, err = engine.Permissions(t.Context(), 9, pingCmd.ID)
	require.Error(t, err)

	adminCmd, ok := engine.Cache().Lookup(registry.ScopedKey{Type: command.CommandTypeChatInput, Name: "admin"})
	require.True(t, ok)
	perms, err := engine.Permissions(t.Context(), 9, adminCmd.ID)
	require.NoError(t, err)
	assert.Equal(t, []command.PermissionOverwrite{command.RoleOverwrite(12, true)}, perms)
}

func TestSyncOverwritesStayInTheirGuild(t *testing.T) {
	t.Parallel()
	engine, api := setupTest(t)

	desc := ping("Replies with pong", command.Access{
		Overwrites: []command.GuildOverwrite{
			{GuildID: 10, Permissions: []command.PermissionOverwrite{command.RoleOverwrite(100, true)}},
			{GuildID: 20, Permissions: []command.PermissionOverwrite{command.RoleOverwrite(200, false)}},
		},
	})

	registered, err := engine.Sync(t.Context(), []registry.Declaration{
		{Descriptor: desc, GuildID: 10},
		{Descriptor: desc, GuildID: 20},
	})
	require.NoError(t, err)
	require.Len(t, registered, 2)

	tests := []struct {
		name    string
		guildID snowflake.ID
		other   snowflake.ID
		want    []command.PermissionOverwrite
	}{
		{name: "guild 10", guildID: 10, other: 20, want: []command.PermissionOverwrite{command.RoleOverwrite(100, true)}},
		{name: "guild 20", guildID: 20, other: 10, want: []command.PermissionOverwrite{command.RoleOverwrite(200, false)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, ok := engine.Cache().Lookup(registry.ScopedKey{
				Type: command.CommandTypeChatInput, Name: "ping", GuildID: tt.guildID,
			})
			require.True(t, ok)
			assert.Equal(t, tt.want, cmd.Permissions)

			perms, err := engine.Permissions(t.Context(), tt.guildID, cmd.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, perms)

			_, err = engine.Permissions(t.Context(), tt.other, cmd.ID)
			require.Error(t, err)
		})
	}

	for _, call := range api.calls {
		if call.op != "set permissions" {
			continue
		}
		cmd, ok := engine.Cache().Get(call.commandID)
		require.True(t, ok)
		assert.Equal(t, cmd.GuildID, call.guildID)
	}
	assert.Equal(t, 2, api.count("set permissions"))
}

func TestSyncPermissionFailureKeepsCommand(t *testing.T) {
	t.Parallel()
	engine, api := setupTest(t)

	api.fail["set permissions"] = &rest.RemoteRequestError{Op: "set permissions", Status: http.StatusForbidden}

	desc := ping("Replies with pong", command.Access{
		Overwrites: []command.GuildOverwrite{{Permissions: []command.PermissionOverwrite{command.RoleOverwrite(10, true)}}},
	})
	registered, err := engine.Sync(t.Context(), []registry.Declaration{{Descriptor: desc, GuildID: 1}})
	require.Error(t, err)
	require.Len(t, registered, 1)
	assert.Empty(t, registered[0].Permissions)

	failures := registry.SyncErrors(err)
	require.Len(t, failures, 1)
	assert.Equal(t, registry.StagePermissions, failures[0].Stage)
	assert.Equal(t, 1, engine.Cache().Len())
}

func TestPruneDeletesUndeclared(t *testing.T) {
	t.Parallel()
	engine, api := setupTest(t)

	decls := []registry.Declaration{{Descriptor: ping("Replies with pong"), GuildID: 1}}
	_, err := engine.Sync(t.Context(), decls)
	require.NoError(t, err)

	stale := api.seed(0, named("legacy").Payload())
	api.seed(1, named("old").Payload())
	api.seed(3, named("elsewhere").Payload())

	deleted, err := engine.Prune(t.Context(), decls)
	require.NoError(t, err)
	require.Len(t, deleted, 2)

	names := []string{deleted[0].Name, deleted[1].Name}
	assert.ElementsMatch(t, []string{"legacy", "old"}, names)
	assert.Equal(t, 1, engine.Cache().Len())

	remaining, err := engine.List(t.Context(), 0)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	_, err = engine.Fetch(t.Context(), 0, stale.ID)
	assert.True(t, rest.IsNotFound(err))

	// Extra guilds are only pruned when named.
	deleted, err = engine.Prune(t.Context(), decls, 3)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, "elsewhere", deleted[0].Name)
}

func TestPurgeOnlyTouchesOneScope(t *testing.T) {
	t.Parallel()
	engine, api := setupTest(t)

	_, err := engine.Sync(t.Context(), []registry.Declaration{
		{Descriptor: named("alpha"), GuildID: 5},
		{Descriptor: named("beta"), GuildID: 5},
		{Descriptor: named("help")},
	})
	require.NoError(t, err)

	deleted, err := engine.Purge(t.Context(), 5)
	require.NoError(t, err)
	assert.Len(t, deleted, 2)
	assert.Equal(t, 1, engine.Cache().Len())

	global, err := engine.List(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, global, 1)
	assert.Equal(t, "help", global[0].Name)

	api.fail["list"] = errors.New("boom")
	_, err = engine.Purge(t.Context(), 5)
	require.ErrorIs(t, err, registry.ErrSync)
}

func TestDeleteForgetsCommand(t *testing.T) {
	t.Parallel()
	engine, _ := setupTest(t)

	registered, err := engine.Sync(t.Context(), []registry.Declaration{{Descriptor: named("alpha")}})
	require.NoError(t, err)

	removed, err := engine.Delete(t.Context(), 0, registered[0].ID)
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Equal(t, "alpha", removed.Name)
	assert.Equal(t, 0, engine.Cache().Len())

	// Already gone remotely.
	removed, err = engine.Delete(t.Context(), 0, registered[0].ID)
	require.NoError(t, err)
	assert.Nil(t, removed)
}

func TestListRebuildsDescriptors(t *testing.T) {
	t.Parallel()
	engine, api := setupTest(t)

	api.seed(4, named("remote").Payload())

	listed, err := engine.List(t.Context(), 4)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].Descriptor)
	assert.Equal(t, "remote", listed[0].Descriptor.Name())
	assert.Equal(t, snowflake.ID(4), listed[0].GuildID)
}

func TestSetPermissions(t *testing.T) {
	t.Parallel()
	engine, _ := setupTest(t)

	registered, err := engine.Sync(t.Context(), []registry.Declaration{{Descriptor: named("alpha"), GuildID: 1}})
	require.NoError(t, err)
	id := registered[0].ID

	perms := []command.PermissionOverwrite{command.UserOverwrite(20, true)}
	require.NoError(t, engine.SetPermissions(t.Context(), 1, id, perms))

	cached, ok := engine.Cache().Get(id)
	require.True(t, ok)
	assert.Equal(t, perms, cached.Permissions)

	tooMany := make([]command.PermissionOverwrite, command.MaxOverwrites+1)
	err = engine.SetPermissions(t.Context(), 1, id, tooMany)
	require.ErrorIs(t, err, command.ErrValidation)
}

func TestRedisHashStore(t *testing.T) {
	t.Parallel()
	client, cleanup := setupRedis(t)
	defer cleanup()

	store := registry.NewRedisHashStore(client, "")
	ctx := t.Context()
	key := registry.ScopedKey{Type: command.CommandTypeChatInput, Name: "ping", GuildID: 1}

	_, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, key, "abc"))
	hash, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", hash)

	// Same name in another scope is independent.
	_, ok, err = store.Get(ctx, registry.ScopedKey{Type: command.CommandTypeChatInput, Name: "ping"})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Delete(ctx, key))
	_, ok, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisHashStoreSurvivesRestart(t *testing.T) {
	t.Parallel()
	client, cleanup := setupRedis(t)
	defer cleanup()

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	api := newFakeAPI()
	decls := []registry.Declaration{{Descriptor: ping("Replies with pong")}}

	first := registry.NewEngine(api, logger, registry.WithHashStore(registry.NewRedisHashStore(client, "")))
	_, err = first.Sync(t.Context(), decls)
	require.NoError(t, err)

	second := registry.NewEngine(api, logger,
		registry.WithHashStore(registry.NewRedisHashStore(client, "")),
		registry.WithConcurrency(1))
	registered, err := second.Sync(t.Context(), decls)
	require.NoError(t, err)
	require.Len(t, registered, 1)

	assert.Equal(t, 1, api.count("create"))
	assert.Equal(t, 0, api.count("update"))
}

func TestHashStoreErrorsAreMisses(t *testing.T) {
	t.Parallel()
	engine, api := setupTest(t, registry.WithHashStore(failingStore{}))

	decls := []registry.Declaration{{Descriptor: named("alpha")}}
	_, err := engine.Sync(t.Context(), decls)
	require.NoError(t, err)
	_, err = engine.Sync(t.Context(), decls)
	require.NoError(t, err)

	assert.Equal(t, 1, api.count("create"))
	assert.Equal(t, 1, api.count("update"), "an unreadable hash forces a write")
}

var errStore = errors.New("store offline")

type failingStore struct{}

func (failingStore) Get(_ context.Context, _ registry.ScopedKey) (string, bool, error) {
	return "", false, errStore
}

func (failingStore) Set(_ context.Context, _ registry.ScopedKey, _ string) error { return errStore }

func (failingStore) Delete(_ context.Context, _ registry.ScopedKey) error { return errStore }
