package rbac_test

import (
	"encoding/json"
	"testing"

	"github.com/Rrens/teamspace/internal/rbac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    rbac.Role
		wantErr bool
	}{
		{"viewer", rbac.RoleViewer, false},
		{"ORG_ADMIN", rbac.RoleOrgAdmin, false},
		{"  Org_Owner ", rbac.RoleOrgOwner, false},
		{"workspace-admin", rbac.RoleWorkspaceAdmin, false},
		{"super admin", rbac.RoleSuperAdmin, false},
		{"root", rbac.RoleUnknown, true},
		{"", rbac.RoleUnknown, true},
		{"unknown", rbac.RoleUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := rbac.ParseRole(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, rbac.ErrInvalidRole)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRole_Level(t *testing.T) {
	roles := rbac.AllRoles()
	for i := 1; i < len(roles); i++ {
		assert.Greater(t, roles[i].Level(), roles[i-1].Level(), "%s should outrank %s", roles[i], roles[i-1])
	}

	assert.Equal(t, 0, rbac.RoleUnknown.Level())
	assert.Equal(t, 0, rbac.Role(42).Level())
	assert.Equal(t, 1, rbac.Level(rbac.RoleViewer))
	assert.Equal(t, 7, rbac.Level(rbac.RoleSuperAdmin))
}

func TestRole_JSON(t *testing.T) {
	type payload struct {
		Role rbac.Role `json:"role"`
	}

	out, err := json.Marshal(payload{Role: rbac.RoleManager})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"manager"}`, string(out))

	out, err = json.Marshal(payload{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":""}`, string(out))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"role":"Org_Admin"}`), &p))
	assert.Equal(t, rbac.RoleOrgAdmin, p.Role)

	err = json.Unmarshal([]byte(`{"role":"overlord"}`), &p)
	assert.ErrorIs(t, err, rbac.ErrInvalidRole)
}

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, rbac.RoleMember, rbac.NormalizeRole("MEMBER"))
	assert.Equal(t, rbac.RoleUnknown, rbac.NormalizeRole("legacy_admin"))
}

func TestRegistry_Monotonic(t *testing.T) {
	reg := rbac.NewRegistry()
	roles := rbac.AllRoles()

	for i := 0; i < len(roles); i++ {
		for j := i + 1; j < len(roles); j++ {
			for _, p := range reg.Permissions(roles[i]) {
				assert.True(t, reg.HasPermission(roles[j], p),
					"%s holds %s but higher role %s does not", roles[i], p, roles[j])
			}
		}
	}
}

func TestRegistry_SuperAdminHoldsEverything(t *testing.T) {
	reg := rbac.NewRegistry()
	for _, p := range rbac.AllPermissions() {
		assert.True(t, reg.HasPermission(rbac.RoleSuperAdmin, p), p)
	}
	assert.Len(t, reg.Permissions(rbac.RoleSuperAdmin), len(rbac.AllPermissions()))
}

func TestRegistry_Matrix(t *testing.T) {
	reg := rbac.NewRegistry()

	tests := []struct {
		role rbac.Role
		perm rbac.Permission
		want bool
	}{
		{rbac.RoleViewer, rbac.PermViewWorkspaces, true},
		{rbac.RoleViewer, rbac.PermCreateTasks, false},
		{rbac.RoleMember, rbac.PermCreateTasks, true},
		{rbac.RoleMember, rbac.PermManageTasks, false},
		{rbac.RoleManager, rbac.PermAssignTasks, true},
		{rbac.RoleManager, rbac.PermManageWorkspace, false},
		{rbac.RoleWorkspaceAdmin, rbac.PermInviteWorkspaceMembers, true},
		{rbac.RoleWorkspaceAdmin, rbac.PermCreateWorkspaces, false},
		{rbac.RoleOrgAdmin, rbac.PermViewAuditLogs, true},
		{rbac.RoleOrgAdmin, rbac.PermManageOrganization, false},
		{rbac.RoleOrgOwner, rbac.PermManageOrganization, true},
		{rbac.RoleOrgOwner, rbac.PermManageSystemRoles, false},
		{rbac.RoleSuperAdmin, rbac.PermManageSystemRoles, true},
		{rbac.RoleUnknown, rbac.PermViewOrganization, false},
	}

	for _, tt := range tests {
		t.Run(tt.role.String()+"/"+string(tt.perm), func(t *testing.T) {
			assert.Equal(t, tt.want, reg.HasPermission(tt.role, tt.perm))
		})
	}
}

func TestRegistry_HasRolePermission(t *testing.T) {
	reg := rbac.NewRegistry()
	assert.True(t, reg.HasRolePermission("ORG_ADMIN", rbac.PermViewAuditLogs))
	assert.False(t, reg.HasRolePermission("wizard", rbac.PermViewOrganization))
}

func TestRegistry_PermissionsIsACopy(t *testing.T) {
	reg := rbac.NewRegistry()
	perms := reg.Permissions(rbac.RoleViewer)
	require.NotEmpty(t, perms)

	perms[0] = rbac.PermManageSystemRoles
	assert.False(t, reg.HasPermission(rbac.RoleViewer, rbac.PermManageSystemRoles))
	assert.NotEqual(t, rbac.PermManageSystemRoles, reg.Permissions(rbac.RoleViewer)[0])
}

func TestRegistry_Description(t *testing.T) {
	reg := rbac.NewRegistry()
	for _, r := range rbac.AllRoles() {
		assert.NotEmpty(t, reg.Description(r))
	}
	assert.Equal(t, "No access", reg.Description(rbac.RoleUnknown))
}

func TestCanAssignRole(t *testing.T) {
	roles := rbac.AllRoles()
	for _, a := range roles {
		for _, b := range roles {
			assert.Equal(t, a.Level() > b.Level(), rbac.CanAssignRole(a, b), "%s -> %s", a, b)
		}
		assert.False(t, rbac.CanAssignRole(a, a), "self assignment of %s", a)
	}

	assert.False(t, rbac.CanAssignRole(rbac.RoleManager, rbac.RoleOrgAdmin))
	assert.True(t, rbac.CanAssignRole(rbac.RoleOrgAdmin, rbac.RoleManager))
	assert.True(t, rbac.CanAssignRole(rbac.RoleViewer, rbac.RoleUnknown))
}

func TestMax(t *testing.T) {
	assert.Equal(t, rbac.RoleOrgAdmin, rbac.Max(rbac.RoleMember, rbac.RoleOrgAdmin, rbac.RoleViewer))
	assert.Equal(t, rbac.RoleUnknown, rbac.Max())
}

func TestParsePermission(t *testing.T) {
	p, err := rbac.ParsePermission(" VIEW_WORKSPACES ")
	require.NoError(t, err)
	assert.Equal(t, rbac.PermViewWorkspaces, p)

	_, err = rbac.ParsePermission("launch_missiles")
	assert.ErrorIs(t, err, rbac.ErrInvalidPermission)
}
