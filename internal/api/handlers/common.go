package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sudhir200/expense-tracker-sub001/internal/api/dto"
	"github.com/sudhir200/expense-tracker-sub001/internal/family"
	"github.com/sudhir200/expense-tracker-sub001/internal/ledger"
	"github.com/sudhir200/expense-tracker-sub001/internal/policy"
	"github.com/sudhir200/expense-tracker-sub001/internal/users"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service sentinels onto HTTP statuses. Forbidden and
// validation errors surface the rule or field that failed; anything
// unrecognized is a 500 with a generic body.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, family.ErrValidation), errors.Is(err, ledger.ErrValidation):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, family.ErrInvalidOrExpiredCode):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, policy.ErrForbidden),
		errors.Is(err, family.ErrForbidden),
		errors.Is(err, ledger.ErrForbidden):
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, family.ErrFamilyNotFound),
		errors.Is(err, family.ErrMembershipNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound),
		errors.Is(err, ledger.ErrBudgetNotFound),
		errors.Is(err, users.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, family.ErrAlreadyMember), errors.Is(err, users.ErrUserExists):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	}
}
