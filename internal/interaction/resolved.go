package interaction

import (
	"fmt"
	"maps"

	"github.com/disgoorg/snowflake/v2"
)

// EntityKind names one sub-map of the resolved block.
type EntityKind string

const (
	EntityUser       EntityKind = "user"
	EntityMember     EntityKind = "member"
	EntityRole       EntityKind = "role"
	EntityChannel    EntityKind = "channel"
	EntityMessage    EntityKind = "message"
	EntityAttachment EntityKind = "attachment"
)

// rawResolved is the resolved block as it appears on the wire, keyed by string IDs.
type rawResolved struct {
	Users       map[string]User       `json:"users,omitempty"`
	Members     map[string]Member     `json:"members,omitempty"`
	Roles       map[string]Role       `json:"roles,omitempty"`
	Channels    map[string]Channel    `json:"channels,omitempty"`
	Messages    map[string]Message    `json:"messages,omitempty"`
	Attachments map[string]Attachment `json:"attachments,omitempty"`
}

// Resolved is the per-interaction entity cache. It is immutable once built
// and every lookup returns a copy.
type Resolved struct {
	users       map[snowflake.ID]User
	members     map[snowflake.ID]Member
	roles       map[snowflake.ID]Role
	channels    map[snowflake.ID]Channel
	messages    map[snowflake.ID]Message
	attachments map[snowflake.ID]Attachment
}

func parseKeys[V any](kind EntityKind, in map[string]V) (map[snowflake.ID]V, error) {
	out := make(map[snowflake.ID]V, len(in))
	for key, value := range in {
		id, err := snowflake.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("%w: resolved %s key %q: %w", ErrMalformedInteraction, kind, key, err)
		}
		out[id] = value
	}
	return out, nil
}

func newResolved(raw *rawResolved) (*Resolved, error) {
	r := &Resolved{}
	if raw == nil {
		raw = &rawResolved{}
	}

	var err error
	if r.users, err = parseKeys(EntityUser, raw.Users); err != nil {
		return nil, err
	}
	if r.members, err = parseKeys(EntityMember, raw.Members); err != nil {
		return nil, err
	}
	if r.roles, err = parseKeys(EntityRole, raw.Roles); err != nil {
		return nil, err
	}
	if r.channels, err = parseKeys(EntityChannel, raw.Channels); err != nil {
		return nil, err
	}
	if r.messages, err = parseKeys(EntityMessage, raw.Messages); err != nil {
		return nil, err
	}
	if r.attachments, err = parseKeys(EntityAttachment, raw.Attachments); err != nil {
		return nil, err
	}
	return r, nil
}

// NewResolved builds a cache from already hydrated entities.
// Members are matched to users by map key.
func NewResolved(
	users map[snowflake.ID]User, members map[snowflake.ID]Member, roles map[snowflake.ID]Role,
	channels map[snowflake.ID]Channel, messages map[snowflake.ID]Message,
	attachments map[snowflake.ID]Attachment,
) *Resolved {
	return &Resolved{
		users:       maps.Clone(users),
		members:     maps.Clone(members),
		roles:       maps.Clone(roles),
		channels:    maps.Clone(channels),
		messages:    maps.Clone(messages),
		attachments: maps.Clone(attachments),
	}
}

// User returns a resolved user.
func (r *Resolved) User(id snowflake.ID) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, &EntityNotFoundError{Kind: EntityUser, ID: id}
	}
	return u, nil
}

// Member returns a resolved member with its user filled in when available.
func (r *Resolved) Member(id snowflake.ID) (Member, error) {
	m, ok := r.members[id]
	if !ok {
		return Member{}, &EntityNotFoundError{Kind: EntityMember, ID: id}
	}
	m = m.clone()
	if m.User == nil {
		if u, ok := r.users[id]; ok {
			m.User = &u
		}
	}
	return m, nil
}

// Role returns a resolved role.
func (r *Resolved) Role(id snowflake.ID) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, &EntityNotFoundError{Kind: EntityRole, ID: id}
	}
	return role, nil
}

// Channel returns a resolved channel.
func (r *Resolved) Channel(id snowflake.ID) (Channel, error) {
	c, ok := r.channels[id]
	if !ok {
		return Channel{}, &EntityNotFoundError{Kind: EntityChannel, ID: id}
	}
	return c, nil
}

// Message returns a resolved message.
func (r *Resolved) Message(id snowflake.ID) (Message, error) {
	m, ok := r.messages[id]
	if !ok {
		return Message{}, &EntityNotFoundError{Kind: EntityMessage, ID: id}
	}
	if m.Author != nil {
		author := *m.Author
		m.Author = &author
	}
	return m, nil
}

// Attachment returns a resolved attachment.
func (r *Resolved) Attachment(id snowflake.ID) (Attachment, error) {
	a, ok := r.attachments[id]
	if !ok {
		return Attachment{}, &EntityNotFoundError{Kind: EntityAttachment, ID: id}
	}
	return a, nil
}

// Mentionable resolves an ID that may name a user or a role. Users are checked first.
// An ID present in neither map is an error.
func (r *Resolved) Mentionable(id snowflake.ID) (Mentionable, error) {
	if u, err := r.User(id); err == nil {
		m := Mentionable{User: &u}
		if member, err := r.Member(id); err == nil {
			m.Member = &member
		}
		return m, nil
	}
	if role, err := r.Role(id); err == nil {
		return Mentionable{Role: &role}, nil
	}
	return Mentionable{}, &EntityNotFoundError{Kind: "mentionable", ID: id}
}

// Resolve looks up an entity by kind. The returned value has the concrete type of
// the matching accessor, e.g. User for EntityUser.
func (r *Resolved) Resolve(kind EntityKind, id snowflake.ID) (any, error) {
	var (
		value any
		err   error
	)
	switch kind {
	case EntityUser:
		value, err = r.User(id)
	case EntityMember:
		value, err = r.Member(id)
	case EntityRole:
		value, err = r.Role(id)
	case EntityChannel:
		value, err = r.Channel(id)
	case EntityMessage:
		value, err = r.Message(id)
	case EntityAttachment:
		value, err = r.Attachment(id)
	default:
		err = &EntityNotFoundError{Kind: kind, ID: id}
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Len returns the number of entities held across all kinds.
func (r *Resolved) Len() int {
	return len(r.users) + len(r.members) + len(r.roles) +
		len(r.channels) + len(r.messages) + len(r.attachments)
}
