package interaction

import (
	"time"

	"github.com/robalyx/slashcore/internal/command"
	"github.com/robalyx/slashcore/internal/rest"
)

// ResponseType is the type tag of an interaction callback.
type ResponseType uint8

const (
	ResponseTypePong                   ResponseType = 1
	ResponseTypeChannelMessage         ResponseType = 4
	ResponseTypeDeferredChannelMessage ResponseType = 5
	ResponseTypeDeferredUpdateMessage  ResponseType = 6
	ResponseTypeUpdateMessage          ResponseType = 7
	ResponseTypeAutocompleteResult     ResponseType = 8
	ResponseTypeModal                  ResponseType = 9
)

// FlagEphemeral marks a message as visible only to the invoking user.
const FlagEphemeral = 1 << 6

const (
	componentTypeActionRow = 1
	componentTypeButton    = 2
	componentTypeTextInput = 4
)

// Button styles.
const (
	ButtonStylePrimary = iota + 1
	ButtonStyleSecondary
	ButtonStyleSuccess
	ButtonStyleDanger
	ButtonStyleLink
)

// MessageCreate is the content of a response, edit or followup.
type MessageCreate struct {
	Content         string
	Embeds          []Embed
	Components      []Component
	AllowedMentions *AllowedMentions
	TTS             bool
	// Ephemeral only applies when the message is created. Edits keep the original visibility.
	Ephemeral bool
	Files     []rest.File
}

// Embed is a rich embed.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color,omitempty"`
	Timestamp   *time.Time   `json:"timestamp,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

// EmbedFooter is the footer line of an embed.
type EmbedFooter struct {
	Text string `json:"text"`
}

// EmbedField is one name/value block of an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// AllowedMentions restricts which mentions in the content notify.
type AllowedMentions struct {
	Parse       []string `json:"parse"`
	Users       []string `json:"users,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	RepliedUser bool     `json:"replied_user,omitempty"`
}

// Component is a message or modal component. Action rows hold other components.
type Component struct {
	Type        int         `json:"type"`
	CustomID    string      `json:"custom_id,omitempty"`
	Style       int         `json:"style,omitempty"`
	Label       string      `json:"label,omitempty"`
	URL         string      `json:"url,omitempty"`
	Disabled    bool        `json:"disabled,omitempty"`
	Placeholder string      `json:"placeholder,omitempty"`
	MinLength   *int        `json:"min_length,omitempty"`
	MaxLength   *int        `json:"max_length,omitempty"`
	Required    *bool       `json:"required,omitempty"`
	Value       string      `json:"value,omitempty"`
	Components  []Component `json:"components,omitempty"`
}

// ActionRow groups components on one row.
func ActionRow(components ...Component) Component {
	return Component{Type: componentTypeActionRow, Components: components}
}

// Button creates an interactive button.
func Button(style int, label, customID string) Component {
	return Component{Type: componentTypeButton, Style: style, Label: label, CustomID: customID}
}

// TextInput creates a modal text input. Style 1 is a single line, 2 a paragraph.
func TextInput(customID, label string, style int, required bool) Component {
	return Component{Type: componentTypeTextInput, CustomID: customID, Label: label, Style: style, Required: &required}
}

// Modal is a popup form answered by a modal submit interaction.
type Modal struct {
	Title      string      `json:"title"`
	CustomID   string      `json:"custom_id"`
	Components []Component `json:"components"`
}

// messageData is the wire body of a message.
type messageData struct {
	Content         string           `json:"content,omitempty"`
	Embeds          []Embed          `json:"embeds,omitempty"`
	Components      []Component      `json:"components,omitempty"`
	AllowedMentions *AllowedMentions `json:"allowed_mentions,omitempty"`
	TTS             bool             `json:"tts,omitempty"`
	Flags           int              `json:"flags,omitempty"`
}

// callback is the wire body of an initial interaction response.
type callback struct {
	Type ResponseType `json:"type"`
	Data any          `json:"data,omitempty"`
}

type autocompleteData struct {
	Choices []command.Choice `json:"choices"`
}

// flagsData carries only flags, used by ephemeral deferrals.
type flagsData struct {
	Flags int `json:"flags"`
}

func (m MessageCreate) data(creating bool) messageData {
	d := messageData{
		Content:         m.Content,
		Embeds:          m.Embeds,
		Components:      m.Components,
		AllowedMentions: m.AllowedMentions,
		TTS:             m.TTS,
	}
	if creating && m.Ephemeral {
		d.Flags = FlagEphemeral
	}
	return d
}
