package interaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/slashcore/internal/command"
)

// OptionPath locates a leaf option. Group and Subcommand are empty for options
// declared at the top level of a command.
type OptionPath struct {
	Group      string
	Subcommand string
	Name       string
}

func (p OptionPath) String() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Group, p.Subcommand, p.Name} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Value is one decoded option value.
type Value struct {
	Path    OptionPath
	Type    command.OptionType
	Focused bool
	Raw     json.RawMessage

	value any
}

// Interface returns the decoded value: string, int64, float64, bool or, for entity
// options, the snowflake.ID of the referenced entity. Focused values are always strings.
func (v Value) Interface() any {
	return v.value
}

// Options is the parsed option tree of one interaction.
type Options struct {
	group      string
	subcommand string
	values     map[OptionPath]Value
	focused    *OptionPath
	resolved   *Resolved
}

// ParseOptions flattens a raw option tree into values keyed by OptionPath.
// Nesting beyond group, subcommand, leaf is rejected with ErrMalformedOptions.
func ParseOptions(raw []RawOption, resolved *Resolved) (Options, error) {
	if resolved == nil {
		resolved = &Resolved{}
	}
	o := Options{values: make(map[OptionPath]Value, len(raw)), resolved: resolved}
	if len(raw) == 0 {
		return o, nil
	}

	leaves := raw
	switch raw[0].Type {
	case command.OptionTypeSubcommandGroup:
		if len(raw) != 1 {
			return Options{}, fmt.Errorf("%w: a subcommand group must be the only option", ErrMalformedOptions)
		}
		group := raw[0]
		if len(group.Options) != 1 || group.Options[0].Type != command.OptionTypeSubcommand {
			return Options{}, fmt.Errorf("%w: group %q must hold exactly one subcommand", ErrMalformedOptions, group.Name)
		}
		o.group = group.Name
		o.subcommand = group.Options[0].Name
		leaves = group.Options[0].Options
	case command.OptionTypeSubcommand:
		if len(raw) != 1 {
			return Options{}, fmt.Errorf("%w: a subcommand must be the only option", ErrMalformedOptions)
		}
		o.subcommand = raw[0].Name
		leaves = raw[0].Options
	}

	for _, leaf := range leaves {
		if leaf.Type.IsGroup() || len(leaf.Options) > 0 {
			return Options{}, fmt.Errorf("%w: option %q nested too deeply", ErrMalformedOptions, leaf.Name)
		}

		path := OptionPath{Group: o.group, Subcommand: o.subcommand, Name: leaf.Name}
		if _, dup := o.values[path]; dup {
			return Options{}, fmt.Errorf("%w: option %q given twice", ErrMalformedOptions, path)
		}

		value, err := decodeValue(leaf.Type, leaf.Value, leaf.Focused)
		if err != nil {
			return Options{}, fmt.Errorf("%w: option %q: %w", ErrMalformedOptions, path, err)
		}

		o.values[path] = Value{Path: path, Type: leaf.Type, Focused: leaf.Focused, Raw: leaf.Value, value: value}
		if leaf.Focused {
			if o.focused != nil {
				return Options{}, fmt.Errorf("%w: more than one focused option", ErrMalformedOptions)
			}
			p := path
			o.focused = &p
		}
	}

	return o, nil
}

var errMissingValue = errors.New("missing value")

// Float bounds of int64. 2^63 itself does not fit.
const (
	minInt64Float float64 = -(1 << 63)
	maxInt64Float float64 = 1 << 63
)

func decodeValue(t command.OptionType, raw json.RawMessage, focused bool) (any, error) {
	if len(raw) == 0 {
		return nil, errMissingValue
	}
	text := string(raw)

	if focused || t == command.OptionTypeText {
		if strings.HasPrefix(text, `"`) {
			var s string
			if err := sonic.Unmarshal(raw, &s); err != nil {
				return nil, err
			}
			return s, nil
		}
		if t == command.OptionTypeText {
			return nil, fmt.Errorf("expected a string, got %s", text)
		}
		return text, nil
	}

	switch t {
	case command.OptionTypeInteger:
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || f != math.Trunc(f) {
			return nil, fmt.Errorf("expected an integer, got %s", text)
		}
		if f < minInt64Float || f >= maxInt64Float {
			return nil, fmt.Errorf("integer %s is out of range", text)
		}
		return int64(f), nil
	case command.OptionTypeNumber:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %s", text)
		}
		return f, nil
	case command.OptionTypeBoolean:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("expected a boolean, got %s", text)
		}
		return b, nil
	case command.OptionTypeUser, command.OptionTypeChannel, command.OptionTypeRole,
		command.OptionTypeMentionable, command.OptionTypeAttachment:
		id, err := snowflake.Parse(strings.Trim(text, `"`))
		if err != nil {
			return nil, fmt.Errorf("expected an id, got %s", text)
		}
		return id, nil
	default:
		return nil, fmt.Errorf("unknown option type %d", t)
	}
}

// Invoked returns the subcommand group and subcommand that were used, if any.
func (o Options) Invoked() (group, subcommand string) {
	return o.group, o.subcommand
}

// Len returns the number of supplied leaf options.
func (o Options) Len() int {
	return len(o.values)
}

// All returns a copy of every supplied value.
func (o Options) All() map[OptionPath]Value {
	return maps.Clone(o.values)
}

// Get returns the value at an exact path.
func (o Options) Get(path OptionPath) (Value, bool) {
	v, ok := o.values[path]
	return v, ok
}

// Has reports whether a leaf of the invoked subcommand was supplied.
func (o Options) Has(name string) bool {
	_, ok := o.lookup(name)
	return ok
}

// lookup resolves a leaf name against the invoked group and subcommand.
func (o Options) lookup(name string) (Value, bool) {
	return o.Get(OptionPath{Group: o.group, Subcommand: o.subcommand, Name: name})
}

func typed[T any](o Options, name string) (T, bool) {
	var zero T
	v, ok := o.lookup(name)
	if !ok {
		return zero, false
	}
	t, ok := v.value.(T)
	return t, ok
}

// String returns a string option.
func (o Options) String(name string) (string, bool) { return typed[string](o, name) }

// Int returns an integer option.
func (o Options) Int(name string) (int64, bool) { return typed[int64](o, name) }

// Float returns a number option. Integer options are converted.
func (o Options) Float(name string) (float64, bool) {
	if f, ok := typed[float64](o, name); ok {
		return f, true
	}
	if n, ok := typed[int64](o, name); ok {
		return float64(n), true
	}
	return 0, false
}

// Bool returns a boolean option.
func (o Options) Bool(name string) (bool, bool) { return typed[bool](o, name) }

// Snowflake returns the ID carried by an entity option.
func (o Options) Snowflake(name string) (snowflake.ID, bool) { return typed[snowflake.ID](o, name) }

func (o Options) entityID(name string) (snowflake.ID, error) {
	v, ok := o.lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrOptionNotFound, name)
	}
	id, ok := v.value.(snowflake.ID)
	if !ok {
		return 0, fmt.Errorf("%w: option %q does not reference an entity", ErrMalformedOptions, name)
	}
	return id, nil
}

// User resolves a user option.
func (o Options) User(name string) (User, error) {
	id, err := o.entityID(name)
	if err != nil {
		return User{}, err
	}
	return o.resolved.User(id)
}

// Member resolves the member behind a user option.
func (o Options) Member(name string) (Member, error) {
	id, err := o.entityID(name)
	if err != nil {
		return Member{}, err
	}
	return o.resolved.Member(id)
}

// Role resolves a role option.
func (o Options) Role(name string) (Role, error) {
	id, err := o.entityID(name)
	if err != nil {
		return Role{}, err
	}
	return o.resolved.Role(id)
}

// Channel resolves a channel option.
func (o Options) Channel(name string) (Channel, error) {
	id, err := o.entityID(name)
	if err != nil {
		return Channel{}, err
	}
	return o.resolved.Channel(id)
}

// Mentionable resolves a mentionable option, checking users before roles.
func (o Options) Mentionable(name string) (Mentionable, error) {
	id, err := o.entityID(name)
	if err != nil {
		return Mentionable{}, err
	}
	return o.resolved.Mentionable(id)
}

// Attachment resolves an attachment option.
func (o Options) Attachment(name string) (Attachment, error) {
	id, err := o.entityID(name)
	if err != nil {
		return Attachment{}, err
	}
	return o.resolved.Attachment(id)
}

// Focused returns the option being typed in an autocomplete interaction and its raw text.
func (o Options) Focused() (OptionPath, string, bool) {
	if o.focused == nil {
		return OptionPath{}, "", false
	}
	v := o.values[*o.focused]
	s, _ := v.value.(string)
	return *o.focused, s, true
}
