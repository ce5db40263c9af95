package bot

import (
	"testing"
	"time"

	"github.com/robalyx/slashcore/internal/command"
	"github.com/robalyx/slashcore/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatScopes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "None", formatScopes(nil))

	registered := []registry.RegisteredCommand{
		{Name: "ping", GuildID: 20},
		{Name: "help"},
		{Name: "status", GuildID: 20},
		{Name: "ban", GuildID: 3},
	}
	assert.Equal(t, "global: 1\nguild 3: 1\nguild 20: 2", formatScopes(registered))
}

func TestCommandEmbed(t *testing.T) {
	t.Parallel()

	desc := command.MustBuild(command.Definition{
		Name:        "ban",
		Description: "Ban a member",
		Options: []command.Option{
			command.User("target", "Member to ban").Require(),
			command.String("reason", "Why"),
		},
	})

	embed := commandEmbed(registry.RegisteredCommand{
		ID:         900,
		GuildID:    3,
		Version:    901,
		Name:       "ban",
		Hash:       "0123456789abcdef0123456789abcdef",
		Descriptor: desc,
		Permissions: []command.PermissionOverwrite{
			command.RoleOverwrite(5, true),
		},
		SyncedAt: time.Now().Add(-2 * time.Minute),
	})

	assert.Equal(t, "ban", embed.Title)
	assert.Equal(t, "Ban a member", embed.Description)

	values := make(map[string]string, len(embed.Fields))
	for _, f := range embed.Fields {
		values[f.Name] = f.Value
	}
	assert.Equal(t, "900", values["ID"])
	assert.Equal(t, "Guild 3", values["Scope"])
	assert.Equal(t, "`0123456789abc...`", values["Hash"])
	assert.Equal(t, "2 minutes ago", values["Synced"])
	assert.Equal(t, "1", values["Overwrites"])
	require.Contains(t, values, "Options")
	assert.Equal(t, "target, reason", values["Options"])
}
