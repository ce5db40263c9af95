package command

import (
	"fmt"
	"math"
	"slices"
	"unicode/utf8"
)

// Choice is one fixed value a user can pick for an option.
type Choice struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Option is one node of a command's option tree.
// Leaf options carry a primitive type; Subcommand and SubcommandGroup nodes carry children.
type Option struct {
	Type         OptionType
	Name         string
	Description  string
	Required     bool
	Choices      []Choice
	Autocomplete bool
	MinValue     *float64
	MaxValue     *float64
	MinLength    *int
	MaxLength    *int
	ChannelTypes []int
	Options      []Option
}

// OptionPayload is the wire record of an option inside a command payload.
type OptionPayload struct {
	Type         OptionType      `json:"type"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Required     bool            `json:"required,omitempty"`
	Choices      []Choice        `json:"choices,omitempty"`
	Options      []OptionPayload `json:"options,omitempty"`
	ChannelTypes []int           `json:"channel_types,omitempty"`
	MinValue     *float64        `json:"min_value,omitempty"`
	MaxValue     *float64        `json:"max_value,omitempty"`
	MinLength    *int            `json:"min_length,omitempty"`
	MaxLength    *int            `json:"max_length,omitempty"`
	Autocomplete bool            `json:"autocomplete,omitempty"`
}

func leaf(t OptionType, name, description string) Option {
	return Option{Type: t, Name: name, Description: description}
}

// String declares a string option.
func String(name, description string) Option { return leaf(OptionTypeText, name, description) }

// Integer declares an integer option.
func Integer(name, description string) Option { return leaf(OptionTypeInteger, name, description) }

// Number declares a floating point option.
func Number(name, description string) Option { return leaf(OptionTypeNumber, name, description) }

// Boolean declares a boolean option.
func Boolean(name, description string) Option { return leaf(OptionTypeBoolean, name, description) }

// User declares a user option.
func User(name, description string) Option { return leaf(OptionTypeUser, name, description) }

// Channel declares a channel option.
func Channel(name, description string) Option { return leaf(OptionTypeChannel, name, description) }

// Role declares a role option.
func Role(name, description string) Option { return leaf(OptionTypeRole, name, description) }

// Mentionable declares an option accepting either a user or a role.
func Mentionable(name, description string) Option {
	return leaf(OptionTypeMentionable, name, description)
}

// Attachment declares a file upload option.
func Attachment(name, description string) Option {
	return leaf(OptionTypeAttachment, name, description)
}

// Subcommand declares a subcommand holding leaf options.
func Subcommand(name, description string, options ...Option) Option {
	return Option{Type: OptionTypeSubcommand, Name: name, Description: description, Options: options}
}

// Group declares a subcommand group holding subcommands.
func Group(name, description string, subcommands ...Option) Option {
	return Option{Type: OptionTypeSubcommandGroup, Name: name, Description: description, Options: subcommands}
}

// Require returns a copy of the option marked as required.
func (o Option) Require() Option {
	o.Required = true
	return o
}

// WithChoices returns a copy of the option with the given fixed choices.
func (o Option) WithChoices(choices ...Choice) Option {
	o.Choices = slices.Clone(choices)
	return o
}

// WithAutocomplete returns a copy of the option answered through autocomplete.
func (o Option) WithAutocomplete() Option {
	o.Autocomplete = true
	return o
}

// WithRange returns a copy of a numeric option bounded to [minValue, maxValue].
func (o Option) WithRange(minValue, maxValue float64) Option {
	o.MinValue = &minValue
	o.MaxValue = &maxValue
	return o
}

// WithLength returns a copy of a string option bounded to [minLength, maxLength] characters.
func (o Option) WithLength(minLength, maxLength int) Option {
	o.MinLength = &minLength
	o.MaxLength = &maxLength
	return o
}

// WithChannelTypes returns a copy of a channel option restricted to the given channel types.
func (o Option) WithChannelTypes(types ...int) Option {
	o.ChannelTypes = slices.Clone(types)
	return o
}

// Validate checks the option as if it were declared at the top level of a command.
func (o Option) Validate() error {
	var p problems
	normalized := o.normalize()
	validateOption(&p, "option", &normalized, 0)
	return p.err()
}

// Serialize returns the wire record of the option.
// The option should be validated first; Serialize does not reject bad input.
func (o Option) Serialize() OptionPayload {
	n := o.normalize()
	return n.payload()
}

// normalize returns a deep copy with normalized names and canonical choice values.
func (o Option) normalize() Option {
	out := o
	out.Name = NormalizeName(o.Name)
	out.MinValue = clonePtr(o.MinValue)
	out.MaxValue = clonePtr(o.MaxValue)
	out.MinLength = clonePtr(o.MinLength)
	out.MaxLength = clonePtr(o.MaxLength)
	out.ChannelTypes = slices.Clone(o.ChannelTypes)

	if o.Choices != nil {
		out.Choices = make([]Choice, len(o.Choices))
		for i, c := range o.Choices {
			value := c.Value
			if v, ok := canonicalChoiceValue(o.Type, c.Value); ok {
				value = v
			}
			out.Choices[i] = Choice{Name: c.Name, Value: value}
		}
	}

	if o.Options != nil {
		out.Options = make([]Option, len(o.Options))
		for i, child := range o.Options {
			out.Options[i] = child.normalize()
		}
	}

	return out
}

func (o *Option) payload() OptionPayload {
	p := OptionPayload{
		Type:         o.Type,
		Name:         o.Name,
		Description:  o.Description,
		Required:     o.Required,
		Choices:      slices.Clone(o.Choices),
		ChannelTypes: slices.Clone(o.ChannelTypes),
		MinValue:     clonePtr(o.MinValue),
		MaxValue:     clonePtr(o.MaxValue),
		MinLength:    clonePtr(o.MinLength),
		MaxLength:    clonePtr(o.MaxLength),
		Autocomplete: o.Autocomplete,
	}
	if len(o.Options) > 0 {
		p.Options = make([]OptionPayload, len(o.Options))
		for i := range o.Options {
			p.Options[i] = o.Options[i].payload()
		}
	}
	return p
}

// optionFromPayload rebuilds an option from its wire record.
func optionFromPayload(p OptionPayload) Option {
	o := Option{
		Type:         p.Type,
		Name:         p.Name,
		Description:  p.Description,
		Required:     p.Required,
		Autocomplete: p.Autocomplete,
		MinValue:     clonePtr(p.MinValue),
		MaxValue:     clonePtr(p.MaxValue),
		MinLength:    clonePtr(p.MinLength),
		MaxLength:    clonePtr(p.MaxLength),
		ChannelTypes: slices.Clone(p.ChannelTypes),
	}
	if len(p.Choices) > 0 {
		o.Choices = make([]Choice, len(p.Choices))
		for i, c := range p.Choices {
			value := c.Value
			if v, ok := canonicalChoiceValue(p.Type, c.Value); ok {
				value = v
			}
			o.Choices[i] = Choice{Name: c.Name, Value: value}
		}
	}
	if len(p.Options) > 0 {
		o.Options = make([]Option, len(p.Options))
		for i, child := range p.Options {
			o.Options[i] = optionFromPayload(child)
		}
	}
	return o
}

// validateOption checks one normalized option. parent is the type of the enclosing
// option, or zero for top level options.
func validateOption(p *problems, path string, o *Option, parent OptionType) {
	if !o.Type.valid() {
		p.add(path+".type", "unknown option type %d", o.Type)
		return
	}

	checkName(p, path+".name", o.Name)
	checkDescription(p, path+".description", o.Description, true)

	switch parent {
	case OptionTypeSubcommandGroup:
		if o.Type != OptionTypeSubcommand {
			p.add(path, "subcommand groups may only contain subcommands")
		}
	case OptionTypeSubcommand:
		if o.Type.IsGroup() {
			p.add(path, "subcommands may only contain leaf options")
		}
	}

	if o.Type.IsGroup() {
		validateGroup(p, path, o)
		return
	}

	if len(o.Options) > 0 {
		p.add(path+".options", "leaf options cannot have children")
	}

	validateChoices(p, path, o)
	validateBounds(p, path, o)

	if len(o.ChannelTypes) > 0 && o.Type != OptionTypeChannel {
		p.add(path+".channel_types", "only channel options may restrict channel types")
	}
}

func validateGroup(p *problems, path string, o *Option) {
	if o.Required {
		p.add(path+".required", "subcommands cannot be required")
	}
	if len(o.Choices) > 0 || o.Autocomplete {
		p.add(path+".choices", "subcommands cannot declare choices or autocomplete")
	}
	if o.MinValue != nil || o.MaxValue != nil || o.MinLength != nil || o.MaxLength != nil {
		p.add(path, "subcommands cannot declare bounds")
	}
	if o.Type == OptionTypeSubcommandGroup && len(o.Options) == 0 {
		p.add(path+".options", "subcommand group has no subcommands")
	}
	validateSiblings(p, path+".options", o.Options, o.Type)
}

// validateSiblings checks a list of options that share one parent.
func validateSiblings(p *problems, path string, options []Option, parent OptionType) {
	if len(options) > MaxOptions {
		p.add(path, "%d options declared, at most %d allowed", len(options), MaxOptions)
	}

	seen := make(map[string]struct{}, len(options))
	optionalSeen := false

	for i := range options {
		child := &options[i]
		childPath := fmt.Sprintf("%s[%d]", path, i)
		validateOption(p, childPath, child, parent)

		if _, dup := seen[child.Name]; dup && child.Name != "" {
			p.add(childPath+".name", "duplicate option name %q", child.Name)
		}
		seen[child.Name] = struct{}{}

		if child.Type.IsGroup() {
			continue
		}
		if child.Required && optionalSeen {
			p.add(childPath+".required", "required options must be declared before optional ones")
		}
		if !child.Required {
			optionalSeen = true
		}
	}
}

func validateChoices(p *problems, path string, o *Option) {
	if len(o.Choices) > 0 && o.Autocomplete {
		p.add(path, "choices and autocomplete are mutually exclusive")
	}
	if (len(o.Choices) > 0 || o.Autocomplete) && !o.Type.SupportsChoices() {
		p.add(path+".choices", "%s options do not support choices or autocomplete", o.Type)
		return
	}
	if len(o.Choices) > MaxChoices {
		p.add(path+".choices", "%d choices declared, at most %d allowed", len(o.Choices), MaxChoices)
	}

	for i, c := range o.Choices {
		choicePath := fmt.Sprintf("%s.choices[%d]", path, i)
		if n := utf8.RuneCountInString(c.Name); n == 0 || n > MaxChoiceNameLength {
			p.add(choicePath+".name", "choice name must be 1 to %d characters", MaxChoiceNameLength)
		}
		value, ok := canonicalChoiceValue(o.Type, c.Value)
		if !ok {
			p.add(choicePath+".value", "choice value %v does not match the %s option type", c.Value, o.Type)
			continue
		}
		if s, isString := value.(string); isString && utf8.RuneCountInString(s) > MaxChoiceStringLength {
			p.add(choicePath+".value", "choice value is longer than %d characters", MaxChoiceStringLength)
		}
	}
}

func validateBounds(p *problems, path string, o *Option) {
	if o.MinValue != nil || o.MaxValue != nil {
		if !o.Type.IsNumeric() {
			p.add(path, "only integer and number options accept min_value/max_value")
		} else if o.MinValue != nil && o.MaxValue != nil && *o.MinValue > *o.MaxValue {
			p.add(path+".min_value", "min_value %v is greater than max_value %v", *o.MinValue, *o.MaxValue)
		}
	}

	if o.MinLength != nil || o.MaxLength != nil {
		if o.Type != OptionTypeText {
			p.add(path, "only string options accept min_length/max_length")
			return
		}
		if o.MinLength != nil && (*o.MinLength < 0 || *o.MinLength > MaxStringLength) {
			p.add(path+".min_length", "min_length must be between 0 and %d", MaxStringLength)
		}
		if o.MaxLength != nil && (*o.MaxLength < 1 || *o.MaxLength > MaxStringLength) {
			p.add(path+".max_length", "max_length must be between 1 and %d", MaxStringLength)
		}
		if o.MinLength != nil && o.MaxLength != nil && *o.MinLength > *o.MaxLength {
			p.add(path+".min_length", "min_length %d is greater than max_length %d", *o.MinLength, *o.MaxLength)
		}
	}
}

// canonicalChoiceValue converts a choice value to the Go type used for the option type:
// string for String, int64 for Integer and float64 for Number.
func canonicalChoiceValue(t OptionType, v any) (any, bool) {
	switch t {
	case OptionTypeText:
		s, ok := v.(string)
		return s, ok
	case OptionTypeInteger:
		switch n := v.(type) {
		case int:
			return int64(n), true
		case int32:
			return int64(n), true
		case int64:
			return n, true
		case float64:
			if n != math.Trunc(n) {
				return nil, false
			}
			return int64(n), true
		}
	case OptionTypeNumber:
		switch n := v.(type) {
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		case float32:
			return float64(n), true
		case float64:
			return n, true
		}
	}
	return nil, false
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
