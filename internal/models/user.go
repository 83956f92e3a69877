package models

// User represents the user model in the database
type User struct {
	Base
	Username         string `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email            string `gorm:"uniqueIndex;not null" json:"email"`
	Password         string `gorm:"not null" json:"-"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	IsActive         bool   `gorm:"default:true" json:"is_active"`
	RefreshTokenHash string `gorm:"size:64" json:"-"`

	// Single direct-manager reference. The approval workflow only ever
	// looks one level up.
	ManagerID *uint `json:"manager_id,omitempty"`
	Manager   *User `gorm:"foreignKey:ManagerID" json:"-"`

	Roles    []Role    `gorm:"many2many:user_roles" json:"roles,omitempty"`
	Expenses []Expense `gorm:"foreignKey:UserID" json:"-"`
}

// HasRole reports whether the user holds the named role.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// RoleNames returns the user's role names, for JWT claims and logging.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}
