// Package policy maps roles to the actions they may perform on lists.
//
// The table is data: Default holds the built-in roles and Load replaces it
// from a YAML document such as
//
//	roles:
//	  admin:  [add, edit, delete, bulk_add, bulk_delete, change_type, manage_lists, view]
//	  editor: [add, edit, bulk_add, bulk_delete, view]
//	  viewer: [view]
//
// Checks fail closed: unknown roles and unlisted actions are denied.
package policy

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	dErrors "listmgmt/pkg/domain-errors"
)

// Action is a capability name.
type Action string

const (
	ActionView        Action = "view"
	ActionAdd         Action = "add"
	ActionEdit        Action = "edit"
	ActionDelete      Action = "delete"
	ActionBulkAdd     Action = "bulk_add"
	ActionBulkDelete  Action = "bulk_delete"
	ActionChangeType  Action = "change_type"
	ActionManageLists Action = "manage_lists"
)

// Role names used by the default table.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// Policy is an immutable role → action set table, safe for concurrent use.
type Policy struct {
	roles map[string]map[Action]struct{}
}

// Default returns the built-in table.
func Default() *Policy {
	return New(map[string][]Action{
		RoleAdmin: {
			ActionAdd, ActionEdit, ActionDelete, ActionBulkAdd, ActionBulkDelete,
			ActionChangeType, ActionManageLists, ActionView,
		},
		RoleEditor: {ActionAdd, ActionEdit, ActionBulkAdd, ActionBulkDelete, ActionView},
		RoleViewer: {ActionView},
	})
}

// New builds a policy from a role → actions table.
func New(table map[string][]Action) *Policy {
	p := &Policy{roles: make(map[string]map[Action]struct{}, len(table))}
	for role, actions := range table {
		set := make(map[Action]struct{}, len(actions))
		for _, a := range actions {
			set[a] = struct{}{}
		}
		p.roles[role] = set
	}
	return p
}

// CheckPermission returns a permission_denied error unless role may
// perform action.
func (p *Policy) CheckPermission(role string, action Action) error {
	if p.Allows(role, action) {
		return nil
	}
	return dErrors.New(dErrors.CodePermissionDenied,
		fmt.Sprintf("role '%s' does not have permission to perform '%s'", role, action))
}

// Allows reports whether role may perform action.
func (p *Policy) Allows(role string, action Action) bool {
	if p == nil {
		return false
	}
	set, ok := p.roles[role]
	if !ok {
		return false
	}
	_, ok = set[action]
	return ok
}

// Roles lists configured role names in sorted order.
func (p *Policy) Roles() []string {
	out := make([]string, 0, len(p.roles))
	for r := range p.roles {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

type document struct {
	Roles map[string][]Action `yaml:"roles"`
}

// Load parses a YAML policy document.
func Load(r io.Reader) (*Policy, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}
	if len(doc.Roles) == 0 {
		return nil, fmt.Errorf("policy defines no roles")
	}
	return New(doc.Roles), nil
}

// LoadFile reads a YAML policy from path. An empty path yields Default.
func LoadFile(path string) (*Policy, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open policy file: %w", err)
	}
	defer f.Close()
	return Load(f)
}
