package models

import (
	"time"

	"github.com/google/uuid"
)

// FamilyRole is the membership-scoped authorization tier within one family.
type FamilyRole string

const (
	FamilyRoleHead  FamilyRole = "head"
	FamilyRoleAdult FamilyRole = "adult"
	FamilyRoleChild FamilyRole = "child"
)

func (r FamilyRole) Valid() bool {
	switch r {
	case FamilyRoleHead, FamilyRoleAdult, FamilyRoleChild:
		return true
	}
	return false
}

// PermissionSet holds the six capability flags attached to a membership.
type PermissionSet struct {
	CanViewFamilyIncome   bool `json:"can_view_family_income"`
	CanAddFamilyIncome    bool `json:"can_add_family_income"`
	CanViewFamilyExpenses bool `json:"can_view_family_expenses"`
	CanAddFamilyExpenses  bool `json:"can_add_family_expenses"`
	CanManageMembers      bool `json:"can_manage_members"`
	CanManageBudgets      bool `json:"can_manage_budgets"`
}

// HeadPermissions is the full set a head always carries.
func HeadPermissions() PermissionSet {
	return PermissionSet{
		CanViewFamilyIncome:   true,
		CanAddFamilyIncome:    true,
		CanViewFamilyExpenses: true,
		CanAddFamilyExpenses:  true,
		CanManageMembers:      true,
		CanManageBudgets:      true,
	}
}

// AdultPermissions is the default set for members joining by invite.
func AdultPermissions() PermissionSet {
	return PermissionSet{
		CanViewFamilyIncome:   true,
		CanAddFamilyIncome:    true,
		CanViewFamilyExpenses: true,
		CanAddFamilyExpenses:  true,
	}
}

// ChildPermissions is the restricted set: expenses visible, income hidden,
// no family-scoped writes.
func ChildPermissions() PermissionSet {
	return PermissionSet{
		CanViewFamilyExpenses: true,
	}
}

// DefaultPermissions returns the role's default permission set.
func DefaultPermissions(role FamilyRole) PermissionSet {
	switch role {
	case FamilyRoleHead:
		return HeadPermissions()
	case FamilyRoleChild:
		return ChildPermissions()
	default:
		return AdultPermissions()
	}
}

// Membership is the single source of truth for a user's standing within a
// family. One row exists per (user, family) pair; leaving deactivates the row
// and re-joining reactivates it, so the composite unique index makes
// duplicate-join races fail loudly instead of silently duplicating.
type Membership struct {
	Base
	UserID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_user_family" json:"user_id"`
	FamilyID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_user_family" json:"family_id"`
	Role     FamilyRole `gorm:"not null;default:'adult'" json:"role"`

	CanViewFamilyIncome   bool `gorm:"default:false" json:"can_view_family_income"`
	CanAddFamilyIncome    bool `gorm:"default:false" json:"can_add_family_income"`
	CanViewFamilyExpenses bool `gorm:"default:false" json:"can_view_family_expenses"`
	CanAddFamilyExpenses  bool `gorm:"default:false" json:"can_add_family_expenses"`
	CanManageMembers      bool `gorm:"default:false" json:"can_manage_members"`
	CanManageBudgets      bool `gorm:"default:false" json:"can_manage_budgets"`

	JoinedAt  time.Time `json:"joined_at"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	IsPrimary bool      `gorm:"default:false" json:"is_primary"`

	// Relationships
	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Family *Family `gorm:"foreignKey:FamilyID" json:"family,omitempty"`
}

func (Membership) TableName() string {
	return "memberships"
}

// Permissions returns the membership's flags as a PermissionSet.
func (m *Membership) Permissions() PermissionSet {
	return PermissionSet{
		CanViewFamilyIncome:   m.CanViewFamilyIncome,
		CanAddFamilyIncome:    m.CanAddFamilyIncome,
		CanViewFamilyExpenses: m.CanViewFamilyExpenses,
		CanAddFamilyExpenses:  m.CanAddFamilyExpenses,
		CanManageMembers:      m.CanManageMembers,
		CanManageBudgets:      m.CanManageBudgets,
	}
}

// SetPermissions overwrites the membership's flags from a PermissionSet.
func (m *Membership) SetPermissions(p PermissionSet) {
	m.CanViewFamilyIncome = p.CanViewFamilyIncome
	m.CanAddFamilyIncome = p.CanAddFamilyIncome
	m.CanViewFamilyExpenses = p.CanViewFamilyExpenses
	m.CanAddFamilyExpenses = p.CanAddFamilyExpenses
	m.CanManageMembers = p.CanManageMembers
	m.CanManageBudgets = p.CanManageBudgets
}

// CanManageFamily reports whether the member may manage other members,
// issue invites, or remove members. Heads always can.
func (m *Membership) CanManageFamily() bool {
	return m.Role == FamilyRoleHead || m.CanManageMembers
}

// AllowedToManageBudgets reports whether the member may create or edit
// family budgets. Heads always can.
func (m *Membership) AllowedToManageBudgets() bool {
	return m.Role == FamilyRoleHead || m.CanManageBudgets
}
