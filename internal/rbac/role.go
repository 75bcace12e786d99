package rbac

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRole is returned when a role string does not name a known role
var ErrInvalidRole = errors.New("invalid role")

// Role is a position in the fixed role hierarchy. The zero value, RoleUnknown,
// carries no privilege.
type Role uint8

// Roles ordered from least to most privileged
const (
	RoleUnknown Role = iota
	RoleViewer
	RoleMember
	RoleManager
	RoleWorkspaceAdmin
	RoleOrgAdmin
	RoleOrgOwner
	RoleSuperAdmin
)

var roleNames = [...]string{
	RoleUnknown:        "unknown",
	RoleViewer:         "viewer",
	RoleMember:         "member",
	RoleManager:        "manager",
	RoleWorkspaceAdmin: "workspace_admin",
	RoleOrgAdmin:       "org_admin",
	RoleOrgOwner:       "org_owner",
	RoleSuperAdmin:     "super_admin",
}

// AllRoles returns every known role, lowest level first
func AllRoles() []Role {
	return []Role{
		RoleViewer,
		RoleMember,
		RoleManager,
		RoleWorkspaceAdmin,
		RoleOrgAdmin,
		RoleOrgOwner,
		RoleSuperAdmin,
	}
}

// ParseRole converts an external role string into a Role. Matching is
// case-insensitive, ignores surrounding whitespace and accepts '-' or ' '
// in place of '_'. Unrecognized strings are rejected.
func ParseRole(s string) (Role, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)

	for _, r := range AllRoles() {
		if roleNames[r] == key {
			return r, nil
		}
	}

	return RoleUnknown, fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// NormalizeRole is ParseRole for stored values: anything unrecognized
// becomes RoleUnknown.
func NormalizeRole(s string) Role {
	r, _ := ParseRole(s)
	return r
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r >= RoleViewer && r <= RoleSuperAdmin
}

// Level returns the hierarchy position of r, or 0 for an unknown role
func (r Role) Level() int {
	if !r.Valid() {
		return 0
	}
	return int(r)
}

func (r Role) String() string {
	if int(r) >= len(roleNames) {
		return roleNames[RoleUnknown]
	}
	return roleNames[r]
}

// MarshalText encodes known roles by name and RoleUnknown as the empty string
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return []byte{}, nil
	}
	return []byte(r.String()), nil
}

// UnmarshalText accepts any spelling ParseRole accepts. An empty value
// decodes to RoleUnknown.
func (r *Role) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*r = RoleUnknown
		return nil
	}

	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
