package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sudhir200/expense-tracker-sub001/internal/api/dto"
	"github.com/sudhir200/expense-tracker-sub001/internal/api/middleware"
	"github.com/sudhir200/expense-tracker-sub001/internal/database/models"
	"github.com/sudhir200/expense-tracker-sub001/internal/ledger"
)

type LedgerHandler struct {
	ledgerService *ledger.Service
}

func NewLedgerHandler(ledgerService *ledger.Service) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// CreateTransaction handles POST /api/v1/transactions
func (h *LedgerHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req dto.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	familyID, err := uuid.Parse(req.FamilyID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid family ID"})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid amount"})
		return
	}

	var occurredAt time.Time
	if req.OccurredAt != "" {
		occurredAt, err = time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid occurred_at timestamp"})
			return
		}
	}

	txn, err := h.ledgerService.AddTransaction(r.Context(), userID, ledger.TransactionInput{
		FamilyID:   familyID,
		Type:       models.TransactionType(req.Type),
		Amount:     amount,
		Currency:   req.Currency,
		Category:   req.Category,
		Note:       req.Note,
		OccurredAt: occurredAt,
		IsPersonal: req.IsPersonal,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

// ListTransactions handles GET /api/v1/transactions?family_id=...
func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	familyID, err := uuid.Parse(r.URL.Query().Get("family_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "family_id query parameter is required"})
		return
	}

	txns, err := h.ledgerService.ListTransactions(r.Context(), userID, familyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

// GetTransaction handles GET /api/v1/transactions/{id}
func (h *LedgerHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid transaction ID"})
		return
	}

	txn, err := h.ledgerService.GetTransaction(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

// UpdateTransaction handles PUT /api/v1/transactions/{id}
func (h *LedgerHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid transaction ID"})
		return
	}

	var req dto.UpdateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	input := ledger.UpdateTransactionInput{
		Category: req.Category,
		Note:     req.Note,
	}
	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid amount"})
			return
		}
		input.Amount = &amount
	}
	if req.OccurredAt != nil {
		occurredAt, err := time.Parse(time.RFC3339, *req.OccurredAt)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid occurred_at timestamp"})
			return
		}
		input.OccurredAt = &occurredAt
	}

	txn, err := h.ledgerService.UpdateTransaction(r.Context(), userID, id, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

// DeleteTransaction handles DELETE /api/v1/transactions/{id}
func (h *LedgerHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid transaction ID"})
		return
	}

	if err := h.ledgerService.DeleteTransaction(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Transaction deleted"})
}

// CreateBudget handles POST /api/v1/budgets
func (h *LedgerHandler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req dto.CreateBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	familyID, err := uuid.Parse(req.FamilyID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid family ID"})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid amount"})
		return
	}

	budget, err := h.ledgerService.CreateBudget(r.Context(), userID, ledger.BudgetInput{
		FamilyID: familyID,
		Category: req.Category,
		Amount:   amount,
		Period:   models.BudgetPeriod(req.Period),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, budget)
}

// ListBudgets handles GET /api/v1/budgets?family_id=...
func (h *LedgerHandler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	familyID, err := uuid.Parse(r.URL.Query().Get("family_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "family_id query parameter is required"})
		return
	}

	budgets, err := h.ledgerService.ListBudgets(r.Context(), userID, familyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

// UpdateBudget handles PUT /api/v1/budgets/{id}
func (h *LedgerHandler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid budget ID"})
		return
	}

	var req dto.UpdateBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	var amount *decimal.Decimal
	if req.Amount != nil {
		a, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid amount"})
			return
		}
		amount = &a
	}
	var period *models.BudgetPeriod
	if req.Period != nil {
		p := models.BudgetPeriod(*req.Period)
		period = &p
	}

	budget, err := h.ledgerService.UpdateBudget(r.Context(), userID, id, amount, period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

// DeleteBudget handles DELETE /api/v1/budgets/{id}
func (h *LedgerHandler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid budget ID"})
		return
	}

	if err := h.ledgerService.DeleteBudget(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Budget deleted"})
}
