package registry

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/slashcore/internal/command"
)

// ScopedKey identifies a command within its scope. GuildID zero means global.
type ScopedKey struct {
	Type    command.CommandType
	Name    string
	GuildID snowflake.ID
}

// RegisteredCommand is the server-confirmed counterpart of a descriptor.
type RegisteredCommand struct {
	ID            snowflake.ID
	ApplicationID snowflake.ID
	GuildID       snowflake.ID
	Version       snowflake.ID
	Type          command.CommandType
	Name          string
	// Hash is the digest of the definition last written by this process.
	Hash string
	// Descriptor is the local declaration, or the definition rebuilt from the remote
	// record for commands listed but never declared.
	Descriptor *command.Descriptor
	// Permissions is the overwrite snapshot attached after the last sync.
	Permissions []command.PermissionOverwrite
	SyncedAt    time.Time
}

// Key returns the scoped identity of the command.
func (r RegisteredCommand) Key() ScopedKey {
	return ScopedKey{Type: r.Type, Name: r.Name, GuildID: r.GuildID}
}

func (r RegisteredCommand) clone() RegisteredCommand {
	r.Permissions = slices.Clone(r.Permissions)
	return r
}

// Cache holds registered commands by ID with a secondary (type, name, guild) index.
// Only the Engine writes to it; every exported method is read-only.
type Cache struct {
	mu    sync.RWMutex
	byID  map[snowflake.ID]RegisteredCommand
	byKey map[ScopedKey]snowflake.ID
}

func newCache() *Cache {
	return &Cache{
		byID:  make(map[snowflake.ID]RegisteredCommand),
		byKey: make(map[ScopedKey]snowflake.ID),
	}
}

// Get returns the command with the given ID.
func (c *Cache) Get(id snowflake.ID) (RegisteredCommand, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.byID[id]
	if !ok {
		return RegisteredCommand{}, false
	}
	return r.clone(), true
}

// Lookup returns the command registered under a scoped key.
func (c *Cache) Lookup(key ScopedKey) (RegisteredCommand, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.byKey[key]
	if !ok {
		return RegisteredCommand{}, false
	}
	return c.byID[id].clone(), true
}

// All returns every cached command ordered by guild, type and name.
func (c *Cache) All() []RegisteredCommand {
	c.mu.RLock()
	out := make([]RegisteredCommand, 0, len(c.byID))
	for _, r := range c.byID {
		out = append(out, r.clone())
	}
	c.mu.RUnlock()

	slices.SortFunc(out, func(a, b RegisteredCommand) int {
		return cmp.Or(
			cmp.Compare(a.GuildID, b.GuildID),
			cmp.Compare(a.Type, b.Type),
			cmp.Compare(a.Name, b.Name),
		)
	})
	return out
}

// Len returns the number of cached commands.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// put stores a command, replacing any entry with the same ID or scoped key.
func (c *Cache) put(r RegisteredCommand) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if oldID, ok := c.byKey[r.Key()]; ok && oldID != r.ID {
		delete(c.byID, oldID)
	}
	if old, ok := c.byID[r.ID]; ok && old.Key() != r.Key() {
		delete(c.byKey, old.Key())
	}

	c.byID[r.ID] = r.clone()
	c.byKey[r.Key()] = r.ID
}

// remove drops a command by ID.
func (c *Cache) remove(id snowflake.ID) (RegisteredCommand, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.byID[id]
	if !ok {
		return RegisteredCommand{}, false
	}
	delete(c.byID, id)
	if c.byKey[r.Key()] == id {
		delete(c.byKey, r.Key())
	}
	return r, true
}

// setPermissions replaces the overwrite snapshot of a cached command.
func (c *Cache) setPermissions(id snowflake.ID, perms []command.PermissionOverwrite) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.byID[id]; ok {
		r.Permissions = slices.Clone(perms)
		c.byID[id] = r
	}
}
