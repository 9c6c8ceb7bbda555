package auth

// IsValid checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []UserRole {
	return []UserRole{RoleUser, RoleAdmin}
}

// RoleSet is the allow-list a role guard checks membership against.
type RoleSet map[UserRole]struct{}

// NewRoleSet builds a set from the given roles, skipping empty entries.
func NewRoleSet(roles ...UserRole) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		if r == "" {
			continue
		}
		set[r] = struct{}{}
	}
	return set
}

// Contains reports set membership.
func (s RoleSet) Contains(role UserRole) bool {
	_, ok := s[role]
	return ok
}

// Roles returns the members in unspecified order.
func (s RoleSet) Roles() []UserRole {
	out := make([]UserRole, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	return out
}
