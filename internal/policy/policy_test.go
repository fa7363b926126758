package policy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "listmgmt/pkg/domain-errors"
)

func TestDefaultTable(t *testing.T) {
	p := Default()

	cases := []struct {
		role    string
		action  Action
		allowed bool
	}{
		{RoleViewer, ActionView, true},
		{RoleViewer, ActionAdd, false},
		{RoleEditor, ActionAdd, true},
		{RoleEditor, ActionEdit, true},
		{RoleEditor, ActionBulkAdd, true},
		{RoleEditor, ActionBulkDelete, true},
		{RoleEditor, ActionDelete, false},
		{RoleEditor, ActionChangeType, false},
		{RoleAdmin, ActionDelete, true},
		{RoleAdmin, ActionChangeType, true},
		{RoleAdmin, ActionManageLists, true},
		{"superuser", ActionView, false},
		{"", ActionView, false},
	}
	for _, tc := range cases {
		err := p.CheckPermission(tc.role, tc.action)
		if tc.allowed {
			assert.NoError(t, err, "%s/%s", tc.role, tc.action)
			continue
		}
		assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied), "%s/%s", tc.role, tc.action)
	}
}

func TestViewIsUniversal(t *testing.T) {
	p := Default()
	for _, role := range p.Roles() {
		assert.True(t, p.Allows(role, ActionView), role)
	}
}

func TestNilPolicyDenies(t *testing.T) {
	var p *Policy
	assert.False(t, p.Allows(RoleAdmin, ActionView))
}

func TestLoad(t *testing.T) {
	t.Run("overrides table", func(t *testing.T) {
		doc := `
roles:
  auditor: [view]
  editor: [add, view]
`
		p, err := Load(strings.NewReader(doc))
		require.NoError(t, err)
		assert.True(t, p.Allows("auditor", ActionView))
		assert.False(t, p.Allows("editor", ActionBulkAdd))
		assert.False(t, p.Allows(RoleAdmin, ActionView), "roles not in the file are unknown")
	})

	t.Run("empty document rejected", func(t *testing.T) {
		_, err := Load(strings.NewReader("roles: {}\n"))
		assert.Error(t, err)
	})

	t.Run("file path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("roles:\n  ops: [view, change_type]\n"), 0o600))
		p, err := LoadFile(path)
		require.NoError(t, err)
		assert.True(t, p.Allows("ops", ActionChangeType))
	})

	t.Run("empty path uses default", func(t *testing.T) {
		p, err := LoadFile("")
		require.NoError(t, err)
		assert.Equal(t, []string{RoleAdmin, RoleEditor, RoleViewer}, p.Roles())
	})
}
