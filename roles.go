package auth

// UserRole is the user's role
type UserRole = string

const (
	// RoleCustomer is the default role assigned on registration
	RoleCustomer UserRole = "customer"
	// RoleManager administers a single tenant
	RoleManager UserRole = "manager"
	// RoleAdmin administers the whole service
	RoleAdmin UserRole = "admin"
)

// IsValid checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleCustomer, RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}

// RoleIsAtLeast checks if role meets the minimum required level
func RoleIsAtLeast(r, minRole UserRole) bool {
	roleHierarchy := map[UserRole]int{
		RoleCustomer: 0,
		RoleManager:  1,
		RoleAdmin:    2,
	}

	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleCustomer,
		RoleManager,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}

// RoleInSet reports whether role is a member of the given set.
func RoleInSet(role UserRole, set ...UserRole) bool {
	for _, r := range set {
		if r == role {
			return true
		}
	}
	return false
}
