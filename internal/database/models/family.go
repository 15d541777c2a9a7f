package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Family struct {
	Base
	Name      string    `gorm:"not null" json:"name"`
	Currency  string    `gorm:"default:'USD'" json:"currency"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`

	// Settings
	AllowPersonalExpenses bool                `gorm:"default:true" json:"allow_personal_expenses"`
	ApprovalThreshold     decimal.NullDecimal `gorm:"type:numeric(20,4)" json:"approval_threshold"`
	SharedCategories      string              `gorm:"default:'[]'" json:"shared_categories"`   // JSON array
	PersonalCategories    string              `gorm:"default:'[]'" json:"personal_categories"` // JSON array
	SingleActiveCode      bool                `gorm:"default:true" json:"single_active_code"`

	// Relationships
	Members     []Membership `gorm:"foreignKey:FamilyID" json:"-"`
	InviteCodes []InviteCode `gorm:"foreignKey:FamilyID" json:"-"`
}

func (Family) TableName() string {
	return "families"
}

// DefaultSharedCategories seeds a new family's shared expense categories.
const DefaultSharedCategories = `["groceries","utilities","rent","transport","healthcare"]`

// DefaultPersonalCategories seeds a new family's personal expense categories.
const DefaultPersonalCategories = `["hobbies","clothing","entertainment","other"]`
