package rbac

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPermission is returned when a permission string is not registered
var ErrInvalidPermission = errors.New("invalid permission")

// Permission names a single capability checked by the authorization gate
type Permission string

// Viewing
const (
	PermViewOrganization Permission = "view_organization"
	PermViewWorkspaces   Permission = "view_workspaces"
	PermViewTasks        Permission = "view_tasks"
	PermViewFiles        Permission = "view_files"
	PermViewMembers      Permission = "view_members"
)

// Contributing
const (
	PermCreateTasks Permission = "create_tasks"
	PermUploadFiles Permission = "upload_files"
)

// Managing content
const (
	PermManageTasks Permission = "manage_tasks"
	PermManageFiles Permission = "manage_files"
	PermAssignTasks Permission = "assign_tasks"
)

// Workspace administration
const (
	PermManageWorkspace        Permission = "manage_workspace"
	PermManageWorkspaceMembers Permission = "manage_workspace_members"
	PermInviteWorkspaceMembers Permission = "invite_workspace_members"
)

// Organization administration
const (
	PermCreateWorkspaces          Permission = "create_workspaces"
	PermDeleteWorkspaces          Permission = "delete_workspaces"
	PermManageOrganizationMembers Permission = "manage_organization_members"
	PermInviteOrganizationMembers Permission = "invite_organization_members"
	PermViewAuditLogs             Permission = "view_audit_logs"
	PermManageOrganization        Permission = "manage_organization"
)

// System administration
const (
	PermViewAllUsers      Permission = "view_all_users"
	PermManageAllUsers    Permission = "manage_all_users"
	PermManageSystemRoles Permission = "manage_system_roles"
)

// AllPermissions returns every registered permission
func AllPermissions() []Permission {
	return []Permission{
		PermViewOrganization,
		PermViewWorkspaces,
		PermViewTasks,
		PermViewFiles,
		PermViewMembers,
		PermCreateTasks,
		PermUploadFiles,
		PermManageTasks,
		PermManageFiles,
		PermAssignTasks,
		PermManageWorkspace,
		PermManageWorkspaceMembers,
		PermInviteWorkspaceMembers,
		PermCreateWorkspaces,
		PermDeleteWorkspaces,
		PermManageOrganizationMembers,
		PermInviteOrganizationMembers,
		PermViewAuditLogs,
		PermManageOrganization,
		PermViewAllUsers,
		PermManageAllUsers,
		PermManageSystemRoles,
	}
}

// ParsePermission converts a permission name into a Permission
func ParsePermission(s string) (Permission, error) {
	key := Permission(strings.ToLower(strings.TrimSpace(s)))
	for _, p := range AllPermissions() {
		if p == key {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPermission, s)
}
