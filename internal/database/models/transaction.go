package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// Transaction is one income or expense record. Family-scoped rows are
// visible according to the author's family's view flags; personal rows are
// visible to their author only.
type Transaction struct {
	Base
	FamilyID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"family_id"`
	UserID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Type       TransactionType `gorm:"not null" json:"type"`
	Amount     decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"amount"`
	Currency   string          `gorm:"size:3" json:"currency"`
	Category   string          `json:"category"`
	Note       string          `json:"note"`
	OccurredAt time.Time       `json:"occurred_at"`
	IsPersonal bool            `gorm:"default:false" json:"is_personal"`

	User   *User   `gorm:"foreignKey:UserID" json:"-"`
	Family *Family `gorm:"foreignKey:FamilyID" json:"-"`
}

func (Transaction) TableName() string {
	return "transactions"
}
