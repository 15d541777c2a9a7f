// Package ledger records income and expense transactions and family
// budgets. Family-scoped writes and reads are gated by the caller's
// membership permission flags; the absence of a membership always denies.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sudhir200/expense-tracker-sub001/internal/database/models"
	"github.com/sudhir200/expense-tracker-sub001/internal/family"
	"gorm.io/gorm"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrForbidden           = errors.New("forbidden")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrBudgetNotFound      = errors.New("budget not found")
)

type Service struct {
	db       *gorm.DB
	logger   *slog.Logger
	families *family.Service
}

func NewService(db *gorm.DB, logger *slog.Logger, families *family.Service) *Service {
	return &Service{db: db, logger: logger, families: families}
}

type TransactionInput struct {
	FamilyID   uuid.UUID
	Type       models.TransactionType
	Amount     decimal.Decimal
	Currency   string
	Category   string
	Note       string
	OccurredAt time.Time
	IsPersonal bool
}

// AddTransaction records one income or expense row. Personal rows require
// only active membership (and the family allowing personal expenses);
// family-scoped rows require the matching add-permission flag.
func (s *Service) AddTransaction(ctx context.Context, userID uuid.UUID, in TransactionInput) (*models.Transaction, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: transaction type must be income or expense", ErrValidation)
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	member, err := s.families.GetMember(ctx, in.FamilyID, userID)
	if err != nil {
		if errors.Is(err, family.ErrMembershipNotFound) {
			return nil, fmt.Errorf("%w: not a member of this family", ErrForbidden)
		}
		return nil, err
	}

	if in.IsPersonal {
		fam, err := s.families.GetFamily(ctx, in.FamilyID)
		if err != nil {
			return nil, err
		}
		if in.Type == models.TransactionExpense && !fam.AllowPersonalExpenses {
			return nil, fmt.Errorf("%w: this family does not allow personal expenses", ErrForbidden)
		}
	} else {
		switch in.Type {
		case models.TransactionIncome:
			if !member.CanAddFamilyIncome {
				return nil, fmt.Errorf("%w: missing permission to add family income", ErrForbidden)
			}
		case models.TransactionExpense:
			if !member.CanAddFamilyExpenses {
				return nil, fmt.Errorf("%w: missing permission to add family expenses", ErrForbidden)
			}
		}
	}

	if in.OccurredAt.IsZero() {
		in.OccurredAt = time.Now()
	}

	txn := models.Transaction{
		FamilyID:   in.FamilyID,
		UserID:     userID,
		Type:       in.Type,
		Amount:     in.Amount,
		Currency:   in.Currency,
		Category:   in.Category,
		Note:       in.Note,
		OccurredAt: in.OccurredAt,
		IsPersonal: in.IsPersonal,
	}
	if err := s.db.WithContext(ctx).Create(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// ListTransactions returns the family rows the caller may see: own personal
// rows always, family income/expense rows only with the matching view flag.
func (s *Service) ListTransactions(ctx context.Context, userID, familyID uuid.UUID) ([]models.Transaction, error) {
	member, err := s.families.GetMember(ctx, familyID, userID)
	if err != nil {
		if errors.Is(err, family.ErrMembershipNotFound) {
			return nil, fmt.Errorf("%w: not a member of this family", ErrForbidden)
		}
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Where("family_id = ?", familyID).
		Order("occurred_at DESC")

	visible := "(is_personal = ? AND user_id = ?)"
	args := []interface{}{true, userID}
	if member.CanViewFamilyIncome {
		visible += " OR (is_personal = ? AND type = ?)"
		args = append(args, false, models.TransactionIncome)
	}
	if member.CanViewFamilyExpenses {
		visible += " OR (is_personal = ? AND type = ?)"
		args = append(args, false, models.TransactionExpense)
	}
	query = query.Where(visible, args...)

	var out []models.Transaction
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetTransaction fetches one row with the same visibility rules as listing.
func (s *Service) GetTransaction(ctx context.Context, userID, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.db.WithContext(ctx).First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	member, err := s.families.GetMember(ctx, txn.FamilyID, userID)
	if err != nil {
		// Do not reveal rows in families the caller is not part of.
		return nil, ErrTransactionNotFound
	}

	if txn.IsPersonal {
		if txn.UserID != userID {
			return nil, ErrTransactionNotFound
		}
		return &txn, nil
	}

	switch txn.Type {
	case models.TransactionIncome:
		if !member.CanViewFamilyIncome {
			return nil, fmt.Errorf("%w: missing permission to view family income", ErrForbidden)
		}
	case models.TransactionExpense:
		if !member.CanViewFamilyExpenses {
			return nil, fmt.Errorf("%w: missing permission to view family expenses", ErrForbidden)
		}
	}
	return &txn, nil
}

// UpdateTransactionInput carries optional changes; nil fields are untouched.
type UpdateTransactionInput struct {
	Amount     *decimal.Decimal
	Category   *string
	Note       *string
	OccurredAt *time.Time
}

// UpdateTransaction lets the author edit their own row.
func (s *Service) UpdateTransaction(ctx context.Context, userID, id uuid.UUID, in UpdateTransactionInput) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.db.WithContext(ctx).First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if txn.UserID != userID {
		return nil, fmt.Errorf("%w: only the author can edit a transaction", ErrForbidden)
	}

	if in.Amount != nil {
		if !in.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
		}
		txn.Amount = *in.Amount
	}
	if in.Category != nil {
		txn.Category = *in.Category
	}
	if in.Note != nil {
		txn.Note = *in.Note
	}
	if in.OccurredAt != nil {
		txn.OccurredAt = *in.OccurredAt
	}

	if err := s.db.WithContext(ctx).Save(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// DeleteTransaction soft-deletes the author's own row.
func (s *Service) DeleteTransaction(ctx context.Context, userID, id uuid.UUID) error {
	var txn models.Transaction
	if err := s.db.WithContext(ctx).First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTransactionNotFound
		}
		return err
	}
	if txn.UserID != userID {
		return fmt.Errorf("%w: only the author can delete a transaction", ErrForbidden)
	}
	return s.db.WithContext(ctx).Delete(&txn).Error
}

type BudgetInput struct {
	FamilyID uuid.UUID
	Category string
	Amount   decimal.Decimal
	Period   models.BudgetPeriod
}

// CreateBudget requires the budget-management capability.
func (s *Service) CreateBudget(ctx context.Context, userID uuid.UUID, in BudgetInput) (*models.Budget, error) {
	if in.Category == "" {
		return nil, fmt.Errorf("%w: category is required", ErrValidation)
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if in.Period == "" {
		in.Period = models.BudgetPeriodMonth
	}
	if !in.Period.Valid() {
		return nil, fmt.Errorf("%w: period must be week or month", ErrValidation)
	}

	member, err := s.requireMember(ctx, in.FamilyID, userID)
	if err != nil {
		return nil, err
	}
	if !member.AllowedToManageBudgets() {
		return nil, fmt.Errorf("%w: missing permission to manage budgets", ErrForbidden)
	}

	budget := models.Budget{
		FamilyID:  in.FamilyID,
		Category:  in.Category,
		Amount:    in.Amount,
		Period:    in.Period,
		CreatedBy: userID,
	}
	if err := s.db.WithContext(ctx).Create(&budget).Error; err != nil {
		return nil, err
	}
	return &budget, nil
}

// ListBudgets is visible to every active member.
func (s *Service) ListBudgets(ctx context.Context, userID, familyID uuid.UUID) ([]models.Budget, error) {
	if _, err := s.requireMember(ctx, familyID, userID); err != nil {
		return nil, err
	}

	var out []models.Budget
	err := s.db.WithContext(ctx).
		Where("family_id = ?", familyID).
		Order("category ASC").
		Find(&out).Error
	return out, err
}

// UpdateBudget requires the budget-management capability.
func (s *Service) UpdateBudget(ctx context.Context, userID, id uuid.UUID, amount *decimal.Decimal, period *models.BudgetPeriod) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.WithContext(ctx).First(&budget, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBudgetNotFound
		}
		return nil, err
	}

	member, err := s.requireMember(ctx, budget.FamilyID, userID)
	if err != nil {
		return nil, err
	}
	if !member.AllowedToManageBudgets() {
		return nil, fmt.Errorf("%w: missing permission to manage budgets", ErrForbidden)
	}

	if amount != nil {
		if !amount.IsPositive() {
			return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
		}
		budget.Amount = *amount
	}
	if period != nil {
		if !period.Valid() {
			return nil, fmt.Errorf("%w: period must be week or month", ErrValidation)
		}
		budget.Period = *period
	}

	if err := s.db.WithContext(ctx).Save(&budget).Error; err != nil {
		return nil, err
	}
	return &budget, nil
}

// DeleteBudget requires the budget-management capability.
func (s *Service) DeleteBudget(ctx context.Context, userID, id uuid.UUID) error {
	var budget models.Budget
	if err := s.db.WithContext(ctx).First(&budget, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBudgetNotFound
		}
		return err
	}

	member, err := s.requireMember(ctx, budget.FamilyID, userID)
	if err != nil {
		return err
	}
	if !member.AllowedToManageBudgets() {
		return fmt.Errorf("%w: missing permission to manage budgets", ErrForbidden)
	}
	return s.db.WithContext(ctx).Delete(&budget).Error
}

func (s *Service) requireMember(ctx context.Context, familyID, userID uuid.UUID) (*models.Membership, error) {
	member, err := s.families.GetMember(ctx, familyID, userID)
	if err != nil {
		if errors.Is(err, family.ErrMembershipNotFound) {
			return nil, fmt.Errorf("%w: not a member of this family", ErrForbidden)
		}
		return nil, err
	}
	return member, nil
}
