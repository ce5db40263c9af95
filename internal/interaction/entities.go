package interaction

import (
	"slices"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// User is a user as delivered with an interaction.
type User struct {
	ID            snowflake.ID `json:"id"`
	Username      string       `json:"username"`
	GlobalName    *string      `json:"global_name,omitempty"`
	Discriminator string       `json:"discriminator,omitempty"`
	Avatar        *string      `json:"avatar,omitempty"`
	Bot           bool         `json:"bot,omitempty"`
}

// DisplayName returns the global name if set, otherwise the username.
func (u User) DisplayName() string {
	if u.GlobalName != nil && *u.GlobalName != "" {
		return *u.GlobalName
	}
	return u.Username
}

// Member is a guild member. Resolved members carry no user; the cache fills it in.
type Member struct {
	User        *User          `json:"user,omitempty"`
	Nick        *string        `json:"nick,omitempty"`
	Roles       []snowflake.ID `json:"roles"`
	JoinedAt    *time.Time     `json:"joined_at,omitempty"`
	Permissions string         `json:"permissions,omitempty"`
}

func (m Member) clone() Member {
	m.Roles = slices.Clone(m.Roles)
	if m.User != nil {
		u := *m.User
		m.User = &u
	}
	return m
}

// Role is a guild role.
type Role struct {
	ID          snowflake.ID `json:"id"`
	Name        string       `json:"name"`
	Color       int          `json:"color"`
	Position    int          `json:"position"`
	Permissions string       `json:"permissions"`
	Managed     bool         `json:"managed"`
	Mentionable bool         `json:"mentionable"`
}

// Channel is a partial channel.
type Channel struct {
	ID          snowflake.ID  `json:"id"`
	Type        int           `json:"type"`
	Name        string        `json:"name"`
	ParentID    *snowflake.ID `json:"parent_id,omitempty"`
	Permissions string        `json:"permissions,omitempty"`
}

// Message is a message targeted by a message context menu command.
type Message struct {
	ID        snowflake.ID `json:"id"`
	ChannelID snowflake.ID `json:"channel_id"`
	Content   string       `json:"content"`
	Author    *User        `json:"author,omitempty"`
	Flags     int          `json:"flags,omitempty"`
}

// Attachment is a file uploaded through an attachment option.
type Attachment struct {
	ID          snowflake.ID `json:"id"`
	Filename    string       `json:"filename"`
	ContentType string       `json:"content_type,omitempty"`
	Size        int          `json:"size"`
	URL         string       `json:"url"`
	ProxyURL    string       `json:"proxy_url"`
	Ephemeral   bool         `json:"ephemeral,omitempty"`
}

// Mentionable is the value of a mentionable option: either a user or a role.
type Mentionable struct {
	User   *User
	Member *Member
	Role   *Role
}

// IsUser reports whether the mention resolved to a user.
func (m Mentionable) IsUser() bool { return m.User != nil }

// ID returns the ID of whichever entity was mentioned.
func (m Mentionable) ID() snowflake.ID {
	if m.User != nil {
		return m.User.ID
	}
	if m.Role != nil {
		return m.Role.ID
	}
	return 0
}
