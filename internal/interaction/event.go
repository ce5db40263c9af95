package interaction

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/slashcore/internal/command"
)

// Type is the kind of an inbound interaction.
//
//go:generate go tool enumer -type=Type -trimprefix=Type
type Type uint8

const (
	TypePing Type = iota + 1
	TypeApplicationCommand
	TypeMessageComponent
	TypeAutocomplete
	TypeModalSubmit
)

// RawOption is one node of the option tree as delivered on the wire.
type RawOption struct {
	Name    string             `json:"name"`
	Type    command.OptionType `json:"type"`
	Value   json.RawMessage    `json:"value,omitempty"`
	Focused bool               `json:"focused,omitempty"`
	Options []RawOption        `json:"options,omitempty"`
}

// rawComponent covers action rows and text inputs of a modal submission.
type rawComponent struct {
	Type       int            `json:"type"`
	CustomID   string         `json:"custom_id,omitempty"`
	Value      string         `json:"value,omitempty"`
	Components []rawComponent `json:"components,omitempty"`
}

type rawData struct {
	ID            snowflake.ID        `json:"id"`
	Name          string              `json:"name"`
	Type          command.CommandType `json:"type"`
	GuildID       snowflake.ID        `json:"guild_id"`
	TargetID      snowflake.ID        `json:"target_id"`
	Resolved      *rawResolved        `json:"resolved,omitempty"`
	Options       []RawOption         `json:"options,omitempty"`
	CustomID      string              `json:"custom_id,omitempty"`
	ComponentType int                 `json:"component_type,omitempty"`
	Values        []string            `json:"values,omitempty"`
	Components    []rawComponent      `json:"components,omitempty"`
}

type rawInteraction struct {
	ID             snowflake.ID `json:"id"`
	ApplicationID  snowflake.ID `json:"application_id"`
	Type           Type         `json:"type"`
	Token          string       `json:"token"`
	Version        int          `json:"version"`
	GuildID        snowflake.ID `json:"guild_id"`
	ChannelID      snowflake.ID `json:"channel_id"`
	Member         *Member      `json:"member,omitempty"`
	User           *User        `json:"user,omitempty"`
	Locale         string       `json:"locale,omitempty"`
	GuildLocale    string       `json:"guild_locale,omitempty"`
	AppPermissions string       `json:"app_permissions,omitempty"`
	Message        *Message     `json:"message,omitempty"`
	Data           *rawData     `json:"data,omitempty"`
}

// Data is the invocation payload of an interaction.
type Data struct {
	// CommandID, CommandName and CommandType identify the invoked command.
	CommandID   snowflake.ID
	CommandName string
	CommandType command.CommandType
	// CommandGuildID is set when the invoked command is guild scoped.
	CommandGuildID snowflake.ID
	// TargetID is the user or message a context menu command was used on.
	TargetID snowflake.ID
	// RawOptions is the option tree as received.
	RawOptions []RawOption

	CustomID      string
	ComponentType int
	Values        []string
	modalValues   map[string]string
}

// Interaction is an immutable snapshot of one inbound event.
type Interaction struct {
	ID             snowflake.ID
	ApplicationID  snowflake.ID
	Type           Type
	Token          string
	Version        int
	GuildID        snowflake.ID
	ChannelID      snowflake.ID
	Member         *Member
	User           *User
	Locale         string
	GuildLocale    string
	AppPermissions string
	Message        *Message
	Data           Data
	ReceivedAt     time.Time

	resolved *Resolved
	options  Options
}

// Decode parses an inbound interaction event. receivedAt anchors the response deadlines
// and should be taken as soon as the raw event arrives.
func Decode(payload []byte, receivedAt time.Time) (*Interaction, error) {
	var raw rawInteraction
	if err := sonic.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedInteraction, err)
	}
	return fromRaw(&raw, receivedAt)
}

func fromRaw(raw *rawInteraction, receivedAt time.Time) (*Interaction, error) {
	if raw.ID == 0 || raw.Token == "" {
		return nil, fmt.Errorf("%w: missing id or token", ErrMalformedInteraction)
	}
	if raw.Type < TypePing || raw.Type > TypeModalSubmit {
		return nil, fmt.Errorf("%w: unknown interaction type %d", ErrMalformedInteraction, raw.Type)
	}

	i := &Interaction{
		ID:             raw.ID,
		ApplicationID:  raw.ApplicationID,
		Type:           raw.Type,
		Token:          raw.Token,
		Version:        raw.Version,
		GuildID:        raw.GuildID,
		ChannelID:      raw.ChannelID,
		Member:         raw.Member,
		User:           raw.User,
		Locale:         raw.Locale,
		GuildLocale:    raw.GuildLocale,
		AppPermissions: raw.AppPermissions,
		Message:        raw.Message,
		ReceivedAt:     receivedAt,
	}

	var resolvedRaw *rawResolved
	if raw.Data != nil {
		d := raw.Data
		resolvedRaw = d.Resolved
		i.Data = Data{
			CommandID:      d.ID,
			CommandName:    d.Name,
			CommandType:    d.Type,
			CommandGuildID: d.GuildID,
			TargetID:       d.TargetID,
			RawOptions:     d.Options,
			CustomID:       d.CustomID,
			ComponentType:  d.ComponentType,
			Values:         d.Values,
		}
		if raw.Type == TypeModalSubmit {
			i.Data.modalValues = collectModalValues(d.Components)
		}
	}

	resolved, err := newResolved(resolvedRaw)
	if err != nil {
		return nil, err
	}
	i.resolved = resolved

	if raw.Type == TypeApplicationCommand || raw.Type == TypeAutocomplete {
		if i.Data.CommandType == 0 {
			i.Data.CommandType = command.CommandTypeChatInput
		}
		opts, err := ParseOptions(i.Data.RawOptions, resolved)
		if err != nil {
			return nil, err
		}
		i.options = opts
	}

	return i, nil
}

func collectModalValues(rows []rawComponent) map[string]string {
	values := make(map[string]string)
	var walk func([]rawComponent)
	walk = func(components []rawComponent) {
		for _, c := range components {
			if c.CustomID != "" {
				values[c.CustomID] = c.Value
			}
			walk(c.Components)
		}
	}
	walk(rows)
	return values
}

// Resolved returns the entity cache of the interaction.
func (i *Interaction) Resolved() *Resolved {
	return i.resolved
}

// Options returns the parsed options of a command or autocomplete interaction.
func (i *Interaction) Options() Options {
	return i.options
}

// Invoker returns the user who triggered the interaction.
func (i *Interaction) Invoker() User {
	if i.Member != nil && i.Member.User != nil {
		return *i.Member.User
	}
	if i.User != nil {
		return *i.User
	}
	return User{}
}

// CommandKey returns the (type, name) identity of the invoked command.
func (i *Interaction) CommandKey() command.Key {
	return command.Key{Type: i.Data.CommandType, Name: i.Data.CommandName}
}

// ModalValue returns the submitted value of a modal text input.
func (i *Interaction) ModalValue(customID string) (string, bool) {
	v, ok := i.Data.modalValues[customID]
	return v, ok
}

// Target returns the resolved target of a context menu command: a User for
// user commands and a Message for message commands.
func (i *Interaction) Target() (any, error) {
	switch i.Data.CommandType {
	case command.CommandTypeUser:
		return i.resolved.Resolve(EntityUser, i.Data.TargetID)
	case command.CommandTypeMessage:
		return i.resolved.Resolve(EntityMessage, i.Data.TargetID)
	default:
		return nil, ErrNoTarget
	}
}
