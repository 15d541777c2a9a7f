package ledger_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sudhir200/expense-tracker-sub001/internal/database/models"
	"github.com/sudhir200/expense-tracker-sub001/internal/family"
	"github.com/sudhir200/expense-tracker-sub001/internal/ledger"
	"github.com/sudhir200/expense-tracker-sub001/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type ledgerFixture struct {
	svc      *ledger.Service
	families *family.Service
	db       *gorm.DB
	fam      *models.Family
	head     *models.User
	adult    *models.User
	child    *models.User
}

func setupLedger(t *testing.T) *ledgerFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	families := family.NewService(db, testutil.TestLogger())
	svc := ledger.NewService(db, testutil.TestLogger(), families)

	head := testutil.CreateTestUser(t, db, models.RoleUser)
	fam, _ := testutil.CreateTestFamily(t, db, head)
	adult := testutil.CreateTestUser(t, db, models.RoleUser)
	testutil.CreateTestMembership(t, db, fam.ID, adult.ID, models.FamilyRoleAdult)
	child := testutil.CreateTestUser(t, db, models.RoleUser)
	testutil.CreateTestMembership(t, db, fam.ID, child.ID, models.FamilyRoleChild)

	return &ledgerFixture{svc: svc, families: families, db: db, fam: fam, head: head, adult: adult, child: child}
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAddTransaction(t *testing.T) {
	fx := setupLedger(t)
	ctx := testutil.TestContext(t)

	t.Run("adult records family expense", func(t *testing.T) {
		txn, err := fx.svc.AddTransaction(ctx, fx.adult.ID, ledger.TransactionInput{
			FamilyID: fx.fam.ID,
			Type:     models.TransactionExpense,
			Amount:   amount("42.50"),
			Currency: "USD",
			Category: "Groceries",
		})
		require.NoError(t, err)
		assert.True(t, txn.Amount.Equal(amount("42.50")))
		assert.False(t, txn.IsPersonal)
		assert.False(t, txn.OccurredAt.IsZero())
	})

	t.Run("child cannot record family rows", func(t *testing.T) {
		_, err := fx.svc.AddTransaction(ctx, fx.child.ID, ledger.TransactionInput{
			FamilyID: fx.fam.ID,
			Type:     models.TransactionExpense,
			Amount:   amount("5.00"),
		})
		assert.ErrorIs(t, err, ledger.ErrForbidden)

		_, err = fx.svc.AddTransaction(ctx, fx.child.ID, ledger.TransactionInput{
			FamilyID: fx.fam.ID,
			Type:     models.TransactionIncome,
			Amount:   amount("5.00"),
		})
		assert.ErrorIs(t, err, ledger.ErrForbidden)
	})

	t.Run("child records a personal expense when the family allows it", func(t *testing.T) {
		txn, err := fx.svc.AddTransaction(ctx, fx.child.ID, ledger.TransactionInput{
			FamilyID:   fx.fam.ID,
			Type:       models.TransactionExpense,
			Amount:     amount("3.25"),
			IsPersonal: true,
		})
		require.NoError(t, err)
		assert.True(t, txn.IsPersonal)
	})

	t.Run("personal expenses can be switched off per family", func(t *testing.T) {
		require.NoError(t, fx.db.Model(fx.fam).Update("allow_personal_expenses", false).Error)
		t.Cleanup(func() {
			require.NoError(t, fx.db.Model(fx.fam).Update("allow_personal_expenses", true).Error)
		})

		_, err := fx.svc.AddTransaction(ctx, fx.adult.ID, ledger.TransactionInput{
			FamilyID:   fx.fam.ID,
			Type:       models.TransactionExpense,
			Amount:     amount("1.00"),
			IsPersonal: true,
		})
		assert.ErrorIs(t, err, ledger.ErrForbidden)
	})

	t.Run("non-member is rejected", func(t *testing.T) {
		outsider := testutil.CreateTestUser(t, fx.db, models.RoleUser)
		_, err := fx.svc.AddTransaction(ctx, outsider.ID, ledger.TransactionInput{
			FamilyID: fx.fam.ID,
			Type:     models.TransactionExpense,
			Amount:   amount("1.00"),
		})
		assert.ErrorIs(t, err, ledger.ErrForbidden)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := fx.svc.AddTransaction(ctx, fx.adult.ID, ledger.TransactionInput{
			FamilyID: fx.fam.ID,
			Type:     "transfer",
			Amount:   amount("1.00"),
		})
		assert.ErrorIs(t, err, ledger.ErrValidation)

		_, err = fx.svc.AddTransaction(ctx, fx.adult.ID, ledger.TransactionInput{
			FamilyID: fx.fam.ID,
			Type:     models.TransactionExpense,
			Amount:   amount("-1.00"),
		})
		assert.ErrorIs(t, err, ledger.ErrValidation)
	})
}

func TestListTransactions_Visibility(t *testing.T) {
	fx := setupLedger(t)
	ctx := testutil.TestContext(t)

	// Seed: one family income, one family expense, one personal row per user.
	_, err := fx.svc.AddTransaction(ctx, fx.head.ID, ledger.TransactionInput{
		FamilyID: fx.fam.ID, Type: models.TransactionIncome, Amount: amount("1000.00"), Category: "Salary",
	})
	require.NoError(t, err)
	_, err = fx.svc.AddTransaction(ctx, fx.adult.ID, ledger.TransactionInput{
		FamilyID: fx.fam.ID, Type: models.TransactionExpense, Amount: amount("60.00"), Category: "Utilities",
	})
	require.NoError(t, err)
	_, err = fx.svc.AddTransaction(ctx, fx.adult.ID, ledger.TransactionInput{
		FamilyID: fx.fam.ID, Type: models.TransactionExpense, Amount: amount("9.99"), IsPersonal: true,
	})
	require.NoError(t, err)
	_, err = fx.svc.AddTransaction(ctx, fx.child.ID, ledger.TransactionInput{
		FamilyID: fx.fam.ID, Type: models.TransactionExpense, Amount: amount("2.50"), IsPersonal: true,
	})
	require.NoError(t, err)

	t.Run("head sees all family rows plus nothing personal of others", func(t *testing.T) {
		rows, err := fx.svc.ListTransactions(ctx, fx.head.ID, fx.fam.ID)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("adult sees family rows and own personal rows", func(t *testing.T) {
		rows, err := fx.svc.ListTransactions(ctx, fx.adult.ID, fx.fam.ID)
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})

	t.Run("child sees family expenses and own personal rows, never income", func(t *testing.T) {
		rows, err := fx.svc.ListTransactions(ctx, fx.child.ID, fx.fam.ID)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		for _, r := range rows {
			assert.NotEqual(t, models.TransactionIncome, r.Type)
		}
	})

	t.Run("non-member is rejected", func(t *testing.T) {
		outsider := testutil.CreateTestUser(t, fx.db, models.RoleUser)
		_, err := fx.svc.ListTransactions(ctx, outsider.ID, fx.fam.ID)
		assert.ErrorIs(t, err, ledger.ErrForbidden)
	})
}

func TestGetTransaction(t *testing.T) {
	fx := setupLedger(t)
	ctx := testutil.TestContext(t)

	income, err := fx.svc.AddTransaction(ctx, fx.head.ID, ledger.TransactionInput{
		FamilyID: fx.fam.ID, Type: models.TransactionIncome, Amount: amount("1000.00"),
	})
	require.NoError(t, err)
	personal, err := fx.svc.AddTransaction(ctx, fx.adult.ID, ledger.TransactionInput{
		FamilyID: fx.fam.ID, Type: models.TransactionExpense, Amount: amount("9.99"), IsPersonal: true,
	})
	require.NoError(t, err)

	t.Run("member with the view flag reads family income", func(t *testing.T) {
		got, err := fx.svc.GetTransaction(ctx, fx.adult.ID, income.ID)
		require.NoError(t, err)
		assert.Equal(t, income.ID, got.ID)
	})

	t.Run("child is denied family income", func(t *testing.T) {
		_, err := fx.svc.GetTransaction(ctx, fx.child.ID, income.ID)
		assert.ErrorIs(t, err, ledger.ErrForbidden)
	})

	t.Run("foreign personal rows read as not found", func(t *testing.T) {
		_, err := fx.svc.GetTransaction(ctx, fx.head.ID, personal.ID)
		assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
	})

	t.Run("non-members cannot see the row exists", func(t *testing.T) {
		outsider := testutil.CreateTestUser(t, fx.db, models.RoleUser)
		_, err := fx.svc.GetTransaction(ctx, outsider.ID, income.ID)
		assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := fx.svc.GetTransaction(ctx, fx.head.ID, uuid.New())
		assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
	})
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	fx := setupLedger(t)
	ctx := testutil.TestContext(t)

	txn, err := fx.svc.AddTransaction(ctx, fx.adult.ID, ledger.TransactionInput{
		FamilyID: fx.fam.ID, Type: models.TransactionExpense, Amount: amount("10.00"), Category: "Misc",
	})
	require.NoError(t, err)

	t.Run("author edits their row", func(t *testing.T) {
		newAmount := amount("12.34")
		note := "corrected"
		got, err := fx.svc.UpdateTransaction(ctx, fx.adult.ID, txn.ID, ledger.UpdateTransactionInput{
			Amount: &newAmount,
			Note:   &note,
		})
		require.NoError(t, err)
		assert.True(t, got.Amount.Equal(newAmount))
		assert.Equal(t, "corrected", got.Note)
	})

	t.Run("only the author edits", func(t *testing.T) {
		note := "not yours"
		_, err := fx.svc.UpdateTransaction(ctx, fx.head.ID, txn.ID, ledger.UpdateTransactionInput{Note: &note})
		assert.ErrorIs(t, err, ledger.ErrForbidden)
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		bad := amount("-5")
		_, err := fx.svc.UpdateTransaction(ctx, fx.adult.ID, txn.ID, ledger.UpdateTransactionInput{Amount: &bad})
		assert.ErrorIs(t, err, ledger.ErrValidation)
	})

	t.Run("only the author deletes", func(t *testing.T) {
		err := fx.svc.DeleteTransaction(ctx, fx.head.ID, txn.ID)
		assert.ErrorIs(t, err, ledger.ErrForbidden)

		require.NoError(t, fx.svc.DeleteTransaction(ctx, fx.adult.ID, txn.ID))
		_, err = fx.svc.GetTransaction(ctx, fx.adult.ID, txn.ID)
		assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
	})
}

func TestBudgets(t *testing.T) {
	fx := setupLedger(t)
	ctx := testutil.TestContext(t)

	t.Run("head creates a budget with defaults", func(t *testing.T) {
		b, err := fx.svc.CreateBudget(ctx, fx.head.ID, ledger.BudgetInput{
			FamilyID: fx.fam.ID,
			Category: "Groceries",
			Amount:   amount("400.00"),
		})
		require.NoError(t, err)
		assert.Equal(t, models.BudgetPeriodMonth, b.Period)
	})

	t.Run("plain adult cannot manage budgets", func(t *testing.T) {
		_, err := fx.svc.CreateBudget(ctx, fx.adult.ID, ledger.BudgetInput{
			FamilyID: fx.fam.ID,
			Category: "Toys",
			Amount:   amount("50.00"),
		})
		assert.ErrorIs(t, err, ledger.ErrForbidden)
	})

	t.Run("delegated budget permission works", func(t *testing.T) {
		var m models.Membership
		require.NoError(t, fx.db.Where("family_id = ? AND user_id = ?", fx.fam.ID, fx.adult.ID).First(&m).Error)
		require.NoError(t, fx.db.Model(&m).Update("can_manage_budgets", true).Error)

		b, err := fx.svc.CreateBudget(ctx, fx.adult.ID, ledger.BudgetInput{
			FamilyID: fx.fam.ID,
			Category: "Transport",
			Amount:   amount("120.00"),
			Period:   models.BudgetPeriodWeek,
		})
		require.NoError(t, err)

		newAmount := amount("150.00")
		updated, err := fx.svc.UpdateBudget(ctx, fx.adult.ID, b.ID, &newAmount, nil)
		require.NoError(t, err)
		assert.True(t, updated.Amount.Equal(newAmount))

		require.NoError(t, fx.svc.DeleteBudget(ctx, fx.adult.ID, b.ID))
	})

	t.Run("every member may list budgets", func(t *testing.T) {
		budgets, err := fx.svc.ListBudgets(ctx, fx.child.ID, fx.fam.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, budgets)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := fx.svc.CreateBudget(ctx, fx.head.ID, ledger.BudgetInput{
			FamilyID: fx.fam.ID,
			Amount:   amount("10.00"),
		})
		assert.ErrorIs(t, err, ledger.ErrValidation)

		_, err = fx.svc.CreateBudget(ctx, fx.head.ID, ledger.BudgetInput{
			FamilyID: fx.fam.ID,
			Category: "Bad",
			Amount:   amount("10.00"),
			Period:   "year",
		})
		assert.ErrorIs(t, err, ledger.ErrValidation)
	})
}
