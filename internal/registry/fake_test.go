package registry_test

import (
	"context"
	"net/http"
	"slices"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/slashcore/internal/command"
	"github.com/robalyx/slashcore/internal/rest"
)

// apiCall is one request seen by the fake API.
type apiCall struct {
	op        string
	guildID   snowflake.ID
	commandID snowflake.ID
	name      string
}

// fakeAPI keeps remote commands per scope in memory.
type fakeAPI struct {
	mu       sync.Mutex
	nextID   snowflake.ID
	commands map[snowflake.ID][]rest.Command
	perms    map[[2]snowflake.ID][]command.PermissionOverwrite
	calls    []apiCall
	// fail maps "op name" or "op" to the error returned for it.
	fail map[string]error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		nextID:   1000,
		commands: make(map[snowflake.ID][]rest.Command),
		perms:    make(map[[2]snowflake.ID][]command.PermissionOverwrite),
		fail:     make(map[string]error),
	}
}

var errNotFound = &rest.RemoteRequestError{Op: "fake", Status: http.StatusNotFound, Code: rest.CodeUnknownApplicationCommand}

func (f *fakeAPI) record(op string, guildID, commandID snowflake.ID, name string) error {
	f.calls = append(f.calls, apiCall{op: op, guildID: guildID, commandID: commandID, name: name})
	if err, ok := f.fail[op+" "+name]; ok {
		return err
	}
	if err, ok := f.fail[op]; ok {
		return err
	}
	return nil
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

// seed registers a command remotely without recording a call.
func (f *fakeAPI) seed(guildID snowflake.ID, payload command.Payload) rest.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(guildID, payload)
}

func (f *fakeAPI) insert(guildID snowflake.ID, payload command.Payload) rest.Command {
	f.nextID++
	cmd := rest.Command{
		ID:                       f.nextID,
		ApplicationID:            42,
		Version:                  f.nextID,
		Name:                     payload.Name,
		Description:              payload.Description,
		Type:                     payload.Type,
		Options:                  payload.Options,
		DefaultMemberPermissions: payload.DefaultMemberPermissions,
		DMPermission:             payload.DMPermission,
	}
	if guildID != 0 {
		cmd.GuildID = &guildID
	}

	list := slices.DeleteFunc(f.commands[guildID], func(c rest.Command) bool {
		return c.Type == cmd.Type && c.Name == cmd.Name
	})
	f.commands[guildID] = append(list, cmd)
	return cmd
}

func (f *fakeAPI) find(guildID, commandID snowflake.ID) int {
	return slices.IndexFunc(f.commands[guildID], func(c rest.Command) bool { return c.ID == commandID })
}

func (f *fakeAPI) ListCommands(_ context.Context, guildID snowflake.ID) ([]rest.Command, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("list", guildID, 0, ""); err != nil {
		return nil, err
	}
	return slices.Clone(f.commands[guildID]), nil
}

func (f *fakeAPI) GetCommand(_ context.Context, guildID, commandID snowflake.ID) (*rest.Command, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("get", guildID, commandID, ""); err != nil {
		return nil, err
	}
	idx := f.find(guildID, commandID)
	if idx < 0 {
		return nil, errNotFound
	}
	cmd := f.commands[guildID][idx]
	return &cmd, nil
}

func (f *fakeAPI) CreateCommand(_ context.Context, guildID snowflake.ID, payload command.Payload) (*rest.Command, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create", guildID, 0, payload.Name); err != nil {
		return nil, err
	}
	cmd := f.insert(guildID, payload)
	return &cmd, nil
}

func (f *fakeAPI) UpdateCommand(
	_ context.Context, guildID, commandID snowflake.ID, payload command.Payload,
) (*rest.Command, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("update", guildID, commandID, payload.Name); err != nil {
		return nil, err
	}
	idx := f.find(guildID, commandID)
	if idx < 0 {
		return nil, errNotFound
	}
	cmd := &f.commands[guildID][idx]
	cmd.Description = payload.Description
	cmd.Options = payload.Options
	f.nextID++
	cmd.Version = f.nextID
	updated := *cmd
	return &updated, nil
}

func (f *fakeAPI) DeleteCommand(_ context.Context, guildID, commandID snowflake.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete", guildID, commandID, ""); err != nil {
		return err
	}
	idx := f.find(guildID, commandID)
	if idx < 0 {
		return errNotFound
	}
	f.commands[guildID] = slices.Delete(f.commands[guildID], idx, idx+1)
	return nil
}

func (f *fakeAPI) GetPermissions(
	_ context.Context, guildID, commandID snowflake.ID,
) (*rest.CommandPermissions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("get permissions", guildID, commandID, ""); err != nil {
		return nil, err
	}
	perms, ok := f.perms[[2]snowflake.ID{guildID, commandID}]
	if !ok {
		return nil, errNotFound
	}
	return &rest.CommandPermissions{ID: commandID, GuildID: guildID, Permissions: perms}, nil
}

func (f *fakeAPI) SetPermissions(
	_ context.Context, guildID, commandID snowflake.ID, payload command.PermissionsPayload,
) (*rest.CommandPermissions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("set permissions", guildID, commandID, ""); err != nil {
		return nil, err
	}
	f.perms[[2]snowflake.ID{guildID, commandID}] = payload.Permissions
	return &rest.CommandPermissions{ID: commandID, GuildID: guildID, Permissions: payload.Permissions}, nil
}
