package rbac

// Level returns the hierarchy position of role
func Level(role Role) int {
	return role.Level()
}

// CanAssignRole reports whether a holder of acting may grant target. A role
// may only be granted by someone strictly above it, which also rules out
// self-escalation.
func CanAssignRole(acting, target Role) bool {
	return Level(acting) > Level(target)
}

// Outranks reports whether a sits strictly above b
func Outranks(a, b Role) bool {
	return Level(a) > Level(b)
}

// Max returns the higher of the given roles
func Max(roles ...Role) Role {
	best := RoleUnknown
	for _, r := range roles {
		if Level(r) > Level(best) {
			best = r
		}
	}
	return best
}
