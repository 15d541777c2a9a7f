package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BudgetPeriod string

const (
	BudgetPeriodWeek  BudgetPeriod = "week"
	BudgetPeriodMonth BudgetPeriod = "month"
)

func (p BudgetPeriod) Valid() bool {
	return p == BudgetPeriodWeek || p == BudgetPeriodMonth
}

// Budget caps spending for one family category per period.
type Budget struct {
	Base
	FamilyID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"family_id"`
	Category  string          `gorm:"not null" json:"category"`
	Amount    decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"amount"`
	Period    BudgetPeriod    `gorm:"not null;default:'month'" json:"period"`
	CreatedBy uuid.UUID       `gorm:"type:uuid;not null" json:"created_by"`

	Family *Family `gorm:"foreignKey:FamilyID" json:"-"`
}

func (Budget) TableName() string {
	return "budgets"
}
