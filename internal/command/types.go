package command

// CommandType identifies which surface a command is invoked from.
//
//go:generate go tool enumer -type=CommandType -trimprefix=CommandType
type CommandType uint8

const (
	// CommandTypeChatInput is a slash command typed into the chat box.
	CommandTypeChatInput CommandType = iota + 1
	// CommandTypeUser is a context menu entry on a user.
	CommandTypeUser
	// CommandTypeMessage is a context menu entry on a message.
	CommandTypeMessage
)

// valid reports whether the type is one the builder knows how to describe.
func (t CommandType) valid() bool {
	return t >= CommandTypeChatInput && t <= CommandTypeMessage
}

// IsContextMenu reports whether commands of this type are context menu entries.
func (t CommandType) IsContextMenu() bool {
	return t == CommandTypeUser || t == CommandTypeMessage
}

// OptionType is the wire type tag of a command option.
//
//go:generate go tool enumer -type=OptionType -trimprefix=OptionType -linecomment
type OptionType uint8

const (
	OptionTypeSubcommand OptionType = iota + 1
	OptionTypeSubcommandGroup
	OptionTypeText // String
	OptionTypeInteger
	OptionTypeBoolean
	OptionTypeUser
	OptionTypeChannel
	OptionTypeRole
	OptionTypeMentionable
	OptionTypeNumber
	OptionTypeAttachment
)

// valid reports whether the option type is a known tag.
func (t OptionType) valid() bool {
	return t >= OptionTypeSubcommand && t <= OptionTypeAttachment
}

// IsGroup reports whether the option nests other options.
func (t OptionType) IsGroup() bool {
	return t == OptionTypeSubcommand || t == OptionTypeSubcommandGroup
}

// IsNumeric reports whether the option accepts min/max value bounds.
func (t OptionType) IsNumeric() bool {
	return t == OptionTypeInteger || t == OptionTypeNumber
}

// SupportsChoices reports whether the option may carry a fixed choice list
// or be answered through autocomplete.
func (t OptionType) SupportsChoices() bool {
	return t == OptionTypeText || t == OptionTypeInteger || t == OptionTypeNumber
}

// OverwriteType is the target kind of a permission overwrite.
//
//go:generate go tool enumer -type=OverwriteType -trimprefix=OverwriteType
type OverwriteType uint8

const (
	// OverwriteTypeRole targets a guild role.
	OverwriteTypeRole OverwriteType = iota + 1
	// OverwriteTypeUser targets a single user.
	OverwriteTypeUser
)
