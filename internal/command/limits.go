package command

// Wire protocol limits enforced at build time.
const (
	// MaxNameLength is the longest command or option name accepted.
	MaxNameLength = 32
	// MaxDescriptionLength is the longest command or option description accepted.
	MaxDescriptionLength = 100
	// MaxOptions is the most options allowed at any level of the option tree.
	MaxOptions = 25
	// MaxChoices is the most fixed choices a single option may declare.
	MaxChoices = 25
	// MaxChoiceNameLength is the longest display name of a choice.
	MaxChoiceNameLength = 100
	// MaxChoiceStringLength is the longest string value of a choice.
	MaxChoiceStringLength = 100
	// MaxStringLength is the largest min_length/max_length bound on string options.
	MaxStringLength = 6000
	// MaxOverwrites is the most permission overwrites a command may carry per guild.
	MaxOverwrites = 100
)
