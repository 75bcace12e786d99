package rbac

// tier lists the permissions a role adds on top of the role directly below it
type tier struct {
	role Role
	adds []Permission
}

var tiers = []tier{
	{RoleViewer, []Permission{
		PermViewOrganization,
		PermViewWorkspaces,
		PermViewTasks,
		PermViewFiles,
		PermViewMembers,
	}},
	{RoleMember, []Permission{
		PermCreateTasks,
		PermUploadFiles,
	}},
	{RoleManager, []Permission{
		PermManageTasks,
		PermManageFiles,
		PermAssignTasks,
	}},
	{RoleWorkspaceAdmin, []Permission{
		PermManageWorkspace,
		PermManageWorkspaceMembers,
		PermInviteWorkspaceMembers,
	}},
	{RoleOrgAdmin, []Permission{
		PermCreateWorkspaces,
		PermDeleteWorkspaces,
		PermManageOrganizationMembers,
		PermInviteOrganizationMembers,
		PermViewAuditLogs,
	}},
	{RoleOrgOwner, []Permission{
		PermManageOrganization,
	}},
	{RoleSuperAdmin, []Permission{
		PermViewAllUsers,
		PermManageAllUsers,
		PermManageSystemRoles,
	}},
}

var roleDescriptions = map[Role]string{
	RoleViewer:         "Read-only access to organization content",
	RoleMember:         "Can create tasks and upload files",
	RoleManager:        "Can manage and assign tasks and files",
	RoleWorkspaceAdmin: "Full control over workspaces they administer",
	RoleOrgAdmin:       "Manages organization members, workspaces and audit logs",
	RoleOrgOwner:       "Owns the organization and its settings",
	RoleSuperAdmin:     "Unrestricted access across all organizations",
}

// Registry is the immutable role to permission matrix. It is built once at
// start-up and shared by reference; all methods are safe for concurrent use.
type Registry struct {
	grants  map[Role]map[Permission]struct{}
	ordered map[Role][]Permission
}

// NewRegistry builds the cumulative permission matrix. Every role holds the
// permissions of all roles below it.
func NewRegistry() *Registry {
	reg := &Registry{
		grants:  make(map[Role]map[Permission]struct{}, len(tiers)),
		ordered: make(map[Role][]Permission, len(tiers)),
	}

	var acc []Permission
	for _, t := range tiers {
		acc = append(acc, t.adds...)

		set := make(map[Permission]struct{}, len(acc))
		list := make([]Permission, len(acc))
		copy(list, acc)
		for _, p := range acc {
			set[p] = struct{}{}
		}

		reg.grants[t.role] = set
		reg.ordered[t.role] = list
	}

	return reg
}

// HasPermission reports whether role is granted permission. Unknown roles
// hold nothing.
func (r *Registry) HasPermission(role Role, permission Permission) bool {
	set, ok := r.grants[role]
	if !ok {
		return false
	}
	_, granted := set[permission]
	return granted
}

// HasRolePermission is HasPermission for a role name as found in requests or
// storage. The name is normalized first.
func (r *Registry) HasRolePermission(role string, permission Permission) bool {
	return r.HasPermission(NormalizeRole(role), permission)
}

// Permissions returns a copy of the permissions granted to role
func (r *Registry) Permissions(role Role) []Permission {
	list := r.ordered[role]
	out := make([]Permission, len(list))
	copy(out, list)
	return out
}

// Description returns the human readable summary of role
func (r *Registry) Description(role Role) string {
	if d, ok := roleDescriptions[role]; ok {
		return d
	}
	return "No access"
}
