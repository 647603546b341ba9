package enums

import "fmt"

// UserRole identifies the authority a user acts with.
type UserRole string

const (
	UserRoleCentralWarehouse   UserRole = "central_warehouse"
	UserRoleLocalWarehouse     UserRole = "local_warehouse"
	UserRoleManager            UserRole = "manager"
	UserRoleHealthProfessional UserRole = "health_professional"
)

var validUserRoles = []UserRole{
	UserRoleCentralWarehouse,
	UserRoleLocalWarehouse,
	UserRoleManager,
	UserRoleHealthProfessional,
}

// String implements fmt.Stringer.
func (u UserRole) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserRole.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// IsCentral reports whether the role carries central-warehouse authority.
func (u UserRole) IsCentral() bool {
	return u == UserRoleCentralWarehouse
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
