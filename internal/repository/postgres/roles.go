package postgres

import "github.com/Rrens/teamspace/internal/rbac"

// nullableRole stores unknown roles as NULL
func nullableRole(r rbac.Role) *string {
	if !r.Valid() {
		return nil
	}
	s := r.String()
	return &s
}

// scanRole reads a stored role tolerantly. Values written by older
// releases or by hand that no longer parse become rbac.RoleUnknown and are
// resolved to a default upstream.
func scanRole(s *string) rbac.Role {
	if s == nil {
		return rbac.RoleUnknown
	}
	return rbac.NormalizeRole(*s)
}
