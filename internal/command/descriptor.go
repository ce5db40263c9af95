package command

import (
	"fmt"
	"slices"

	"github.com/disgoorg/snowflake/v2"
)

// Key identifies a command within one scope.
type Key struct {
	Type CommandType
	Name string
}

// Access holds the access rules of a command.
type Access struct {
	// DefaultAccess is the legacy default_permission flag.
	DefaultAccess *bool
	// DefaultMemberPermissions is the permission bit mask a member needs by default.
	DefaultMemberPermissions *int64
	// DMPermission controls whether a global command is usable in direct messages.
	DMPermission *bool
	// Overwrites are per-guild role and user overwrites attached after registration.
	Overwrites []GuildOverwrite
}

func (a Access) clone() Access {
	out := Access{
		DefaultAccess:            clonePtr(a.DefaultAccess),
		DefaultMemberPermissions: clonePtr(a.DefaultMemberPermissions),
		DMPermission:             clonePtr(a.DMPermission),
	}
	if a.Overwrites != nil {
		out.Overwrites = make([]GuildOverwrite, len(a.Overwrites))
		for i, g := range a.Overwrites {
			out.Overwrites[i] = GuildOverwrite{GuildID: g.GuildID, Permissions: slices.Clone(g.Permissions)}
		}
	}
	return out
}

// Definition is the declarative input of Build.
type Definition struct {
	Type        CommandType
	Name        string
	Description string
	Options     []Option
	Access      Access
}

// Descriptor is a validated, immutable command description.
type Descriptor struct {
	kind        CommandType
	name        string
	description string
	options     []Option
	access      Access
}

// Build validates a definition and returns its descriptor.
// A zero Type is treated as ChatInput. Every problem found is reported; the returned
// error matches ErrValidation and unwraps to one *ValidationError per problem.
func Build(def Definition) (*Descriptor, error) {
	if def.Type == 0 {
		def.Type = CommandTypeChatInput
	}

	d := &Descriptor{
		kind:        def.Type,
		name:        NormalizeName(def.Name),
		description: def.Description,
		access:      def.Access.clone(),
	}
	if def.Options != nil {
		d.options = make([]Option, len(def.Options))
		for i, o := range def.Options {
			d.options[i] = o.normalize()
		}
	}

	var p problems
	switch {
	case !d.kind.valid():
		p.add("type", "unknown command type %d", d.kind)
	case d.kind == CommandTypeChatInput:
		checkName(&p, "name", d.name)
		checkDescription(&p, "description", d.description, true)
		validateTopLevel(&p, d.options)
	default:
		checkMenuName(&p, "name", d.name)
		if d.description != "" {
			p.add("description", "context menu commands cannot have a description")
		}
		if len(d.options) > 0 {
			p.add("options", "context menu commands cannot have options")
		}
	}

	if perms := d.access.DefaultMemberPermissions; perms != nil && *perms < 0 {
		p.add("access.default_member_permissions", "permission mask cannot be negative")
	}
	validateOverwrites(&p, d.access.Overwrites)

	if err := p.err(); err != nil {
		return nil, err
	}
	return d, nil
}

// MustBuild is like Build but panics on invalid definitions.
// It is meant for package level command declarations.
func MustBuild(def Definition) *Descriptor {
	d, err := Build(def)
	if err != nil {
		panic(fmt.Sprintf("command %q: %v", def.Name, err))
	}
	return d
}

func validateTopLevel(p *problems, options []Option) {
	groups := 0
	for _, o := range options {
		if o.Type.IsGroup() {
			groups++
		}
	}
	if groups > 0 && groups < len(options) {
		p.add("options", "subcommands and plain options cannot be mixed at the top level")
	}
	validateSiblings(p, "options", options, 0)
}

// Type returns the command type.
func (d *Descriptor) Type() CommandType { return d.kind }

// Name returns the normalized command name.
func (d *Descriptor) Name() string { return d.name }

// Description returns the command description.
func (d *Descriptor) Description() string { return d.description }

// Key returns the (type, name) identity of the command.
func (d *Descriptor) Key() Key { return Key{Type: d.kind, Name: d.name} }

// Options returns a copy of the option tree.
func (d *Descriptor) Options() []Option {
	if d.options == nil {
		return nil
	}
	out := make([]Option, len(d.options))
	for i, o := range d.options {
		out[i] = o.normalize()
	}
	return out
}

// Access returns a copy of the access rules.
func (d *Descriptor) Access() Access { return d.access.clone() }

// Overwrites returns the overwrites declared for a guild. A list declared with a zero
// guild ID applies to whichever guild the command is registered in.
func (d *Descriptor) Overwrites(guildID snowflake.ID) ([]PermissionOverwrite, bool) {
	var fallback []PermissionOverwrite
	found := false
	for _, g := range d.access.Overwrites {
		if g.GuildID == guildID && guildID != 0 {
			return slices.Clone(g.Permissions), true
		}
		if g.GuildID == 0 {
			fallback = g.Permissions
			found = true
		}
	}
	return slices.Clone(fallback), found
}

// FindOption walks the option tree by name and returns the matching node.
func (d *Descriptor) FindOption(path ...string) (Option, bool) {
	level := d.options
	var current Option
	for _, name := range path {
		idx := slices.IndexFunc(level, func(o Option) bool { return o.Name == name })
		if idx < 0 {
			return Option{}, false
		}
		current = level[idx]
		level = current.Options
	}
	if len(path) == 0 {
		return Option{}, false
	}
	return current.normalize(), true
}
