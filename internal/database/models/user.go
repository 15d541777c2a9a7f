package models

// GlobalRole is the platform-wide authorization tier, independent of any
// family-scoped role the user may hold.
type GlobalRole string

const (
	RoleUser      GlobalRole = "user"
	RoleAdmin     GlobalRole = "admin"
	RoleSuperuser GlobalRole = "superuser"
)

// Valid reports whether r is one of the three known roles.
func (r GlobalRole) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperuser:
		return true
	}
	return false
}

type User struct {
	Base
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Name         string     `json:"name"`
	GlobalRole   GlobalRole `gorm:"default:'user'" json:"global_role"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`

	// Relationships
	Memberships []Membership `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}
