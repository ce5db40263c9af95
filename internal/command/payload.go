package command

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"
)

// Payload is the wire record sent when creating or updating a command.
type Payload struct {
	Name                     string          `json:"name"`
	Description              string          `json:"description,omitempty"`
	Type                     CommandType     `json:"type"`
	Options                  []OptionPayload `json:"options,omitempty"`
	DefaultMemberPermissions *string         `json:"default_member_permissions,omitempty"`
	DMPermission             *bool           `json:"dm_permission,omitempty"`
	DefaultPermission        *bool           `json:"default_permission,omitempty"`
}

// Payload returns the wire record of the descriptor.
func (d *Descriptor) Payload() Payload {
	p := Payload{
		Name:              d.name,
		Description:       d.description,
		Type:              d.kind,
		DMPermission:      clonePtr(d.access.DMPermission),
		DefaultPermission: clonePtr(d.access.DefaultAccess),
	}
	if perms := d.access.DefaultMemberPermissions; perms != nil {
		s := strconv.FormatInt(*perms, 10)
		p.DefaultMemberPermissions = &s
	}
	if len(d.options) > 0 {
		p.Options = make([]OptionPayload, len(d.options))
		for i := range d.options {
			p.Options[i] = d.options[i].payload()
		}
	}
	return p
}

// Hash returns a stable digest of the wire record.
// Two descriptors with the same hash produce identical create/update requests.
func (d *Descriptor) Hash() string {
	return d.Payload().Hash()
}

// Hash returns a stable digest of the wire record.
func (p Payload) Hash() string {
	data, err := sonic.ConfigStd.Marshal(p)
	if err != nil {
		// Payload only holds plain data; marshal cannot fail.
		panic(fmt.Sprintf("marshal command payload: %v", err))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FromPayload rebuilds a descriptor from its wire record.
// Overwrites are not part of the record and come back empty.
func FromPayload(p Payload) (*Descriptor, error) {
	def := Definition{
		Type:        p.Type,
		Name:        p.Name,
		Description: p.Description,
		Access: Access{
			DefaultAccess: clonePtr(p.DefaultPermission),
			DMPermission:  clonePtr(p.DMPermission),
		},
	}
	if p.DefaultMemberPermissions != nil {
		perms, err := strconv.ParseInt(*p.DefaultMemberPermissions, 10, 64)
		if err != nil {
			return nil, &ValidationError{
				Path:    "default_member_permissions",
				Message: fmt.Sprintf("not an integer: %q", *p.DefaultMemberPermissions),
			}
		}
		def.Access.DefaultMemberPermissions = &perms
	}
	if len(p.Options) > 0 {
		def.Options = make([]Option, len(p.Options))
		for i, o := range p.Options {
			def.Options[i] = optionFromPayload(o)
		}
	}
	return Build(def)
}
