package rest

import (
	"io"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/slashcore/internal/command"
)

// Command is a command record as returned by the remote API.
type Command struct {
	ID                       snowflake.ID            `json:"id"`
	ApplicationID            snowflake.ID            `json:"application_id"`
	GuildID                  *snowflake.ID           `json:"guild_id,omitempty"`
	Version                  snowflake.ID            `json:"version"`
	Name                     string                  `json:"name"`
	Description              string                  `json:"description"`
	Type                     command.CommandType     `json:"type"`
	Options                  []command.OptionPayload `json:"options,omitempty"`
	DefaultMemberPermissions *string                 `json:"default_member_permissions,omitempty"`
	DMPermission             *bool                   `json:"dm_permission,omitempty"`
	DefaultPermission        *bool                   `json:"default_permission,omitempty"`
}

// Payload returns the definition part of the record.
func (c *Command) Payload() command.Payload {
	return command.Payload{
		Name:                     c.Name,
		Description:              c.Description,
		Type:                     c.Type,
		Options:                  c.Options,
		DefaultMemberPermissions: c.DefaultMemberPermissions,
		DMPermission:             c.DMPermission,
		DefaultPermission:        c.DefaultPermission,
	}
}

// Scope returns the guild the command is registered in, or zero for global commands.
func (c *Command) Scope() snowflake.ID {
	if c.GuildID == nil {
		return 0
	}
	return *c.GuildID
}

// CommandPermissions is the overwrite list attached to a command in one guild.
type CommandPermissions struct {
	ID            snowflake.ID                  `json:"id"`
	ApplicationID snowflake.ID                  `json:"application_id"`
	GuildID       snowflake.ID                  `json:"guild_id"`
	Permissions   []command.PermissionOverwrite `json:"permissions"`
}

// Message is the subset of a message record the library reads back.
type Message struct {
	ID        snowflake.ID `json:"id"`
	ChannelID snowflake.ID `json:"channel_id"`
	Content   string       `json:"content"`
	Flags     int          `json:"flags"`
}

// File is an attachment uploaded alongside a message body.
type File struct {
	Name        string
	Description string
	Reader      io.Reader
}
