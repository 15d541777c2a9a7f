package models

import (
	"time"

	"github.com/google/uuid"
)

// InviteCode is a time-limited join token. Codes are 16 upper-case hex
// characters; the unique index spans all rows so the generation retry loop
// can lean on the constraint rather than a racy pre-check alone.
type InviteCode struct {
	Base
	FamilyID  uuid.UUID `gorm:"type:uuid;not null;index" json:"family_id"`
	Code      string    `gorm:"uniqueIndex;not null;size:16" json:"code"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`

	Family *Family `gorm:"foreignKey:FamilyID" json:"-"`
}

func (InviteCode) TableName() string {
	return "invite_codes"
}

// Redeemable reports whether the code can still be redeemed at the given
// instant. Expiry is strict: a code presented exactly at ExpiresAt is dead.
func (c *InviteCode) Redeemable(now time.Time) bool {
	return c.IsActive && now.Before(c.ExpiresAt)
}
