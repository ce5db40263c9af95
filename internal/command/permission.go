package command

import (
	"fmt"
	"slices"

	"github.com/disgoorg/snowflake/v2"
)

// PermissionOverwrite grants or denies one role or user access to a command.
type PermissionOverwrite struct {
	ID         snowflake.ID  `json:"id"`
	Type       OverwriteType `json:"type"`
	Permission bool          `json:"permission"`
}

// RoleOverwrite allows or denies a role.
func RoleOverwrite(id snowflake.ID, allow bool) PermissionOverwrite {
	return PermissionOverwrite{ID: id, Type: OverwriteTypeRole, Permission: allow}
}

// UserOverwrite allows or denies a single user.
func UserOverwrite(id snowflake.ID, allow bool) PermissionOverwrite {
	return PermissionOverwrite{ID: id, Type: OverwriteTypeUser, Permission: allow}
}

// PermissionsPayload is the body sent when replacing a command's overwrites.
type PermissionsPayload struct {
	Permissions []PermissionOverwrite `json:"permissions"`
}

// GuildOverwrite is the overwrite list applied to a command in one guild.
// A zero GuildID targets the guild the command is registered in.
type GuildOverwrite struct {
	GuildID     snowflake.ID
	Permissions []PermissionOverwrite
}

// Payload returns the wire body for this overwrite list.
func (g GuildOverwrite) Payload() PermissionsPayload {
	perms := slices.Clone(g.Permissions)
	if perms == nil {
		perms = []PermissionOverwrite{}
	}
	return PermissionsPayload{Permissions: perms}
}

func validateOverwrites(p *problems, overwrites []GuildOverwrite) {
	guilds := make(map[snowflake.ID]struct{}, len(overwrites))
	for i, g := range overwrites {
		path := fmt.Sprintf("access.overwrites[%d]", i)
		if _, dup := guilds[g.GuildID]; dup {
			p.add(path+".guild_id", "guild %s has more than one overwrite list", g.GuildID)
		}
		guilds[g.GuildID] = struct{}{}

		if len(g.Permissions) > MaxOverwrites {
			p.add(path, "%d overwrites declared, at most %d allowed", len(g.Permissions), MaxOverwrites)
		}
		for j, perm := range g.Permissions {
			permPath := fmt.Sprintf("%s.permissions[%d]", path, j)
			if perm.Type != OverwriteTypeRole && perm.Type != OverwriteTypeUser {
				p.add(permPath+".type", "unknown overwrite type %d", perm.Type)
			}
			if perm.ID == 0 {
				p.add(permPath+".id", "overwrite target id is missing")
			}
		}
	}
}
