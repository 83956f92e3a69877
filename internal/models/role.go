package models

// Role capability names. A user may hold several at once; authorization
// checks never assume the roles are mutually exclusive.
const (
	RoleEmployee = "EMPLOYEE"
	RoleManager  = "MANAGER"
	RoleFinance  = "FINANCE"
	RoleAdmin    = "ADMIN"
)

// AllRoles lists every known role name, used for validation and seeding.
var AllRoles = []string{RoleEmployee, RoleManager, RoleFinance, RoleAdmin}

// Role represents a named capability grantable to users.
type Role struct {
	Base
	Name string `gorm:"size:50;uniqueIndex;not null" json:"name"`
}
