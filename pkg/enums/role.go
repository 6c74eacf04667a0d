package enums

import (
	"fmt"
	"strings"
)

// Role represents the access level a user account carries.
type Role string

const (
	RolePicker     Role = "picker"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

var validRoles = []Role{
	RolePicker,
	RoleSupervisor,
	RoleAdmin,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
