package dto

type CreateTransactionRequest struct {
	FamilyID   string `json:"family_id"`
	Type       string `json:"type"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency,omitempty"`
	Category   string `json:"category,omitempty"`
	Note       string `json:"note,omitempty"`
	OccurredAt string `json:"occurred_at,omitempty"` // RFC 3339
	IsPersonal bool   `json:"is_personal,omitempty"`
}

func (r CreateTransactionRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.FamilyID == "" {
		errors["family_id"] = "Family ID is required"
	}
	if r.Type != "income" && r.Type != "expense" {
		errors["type"] = "Type must be income or expense"
	}
	if r.Amount == "" {
		errors["amount"] = "Amount is required"
	}
	return errors
}

type UpdateTransactionRequest struct {
	Amount     *string `json:"amount,omitempty"`
	Category   *string `json:"category,omitempty"`
	Note       *string `json:"note,omitempty"`
	OccurredAt *string `json:"occurred_at,omitempty"`
}

type CreateBudgetRequest struct {
	FamilyID string `json:"family_id"`
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Period   string `json:"period,omitempty"`
}

func (r CreateBudgetRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.FamilyID == "" {
		errors["family_id"] = "Family ID is required"
	}
	if r.Category == "" {
		errors["category"] = "Category is required"
	}
	if r.Amount == "" {
		errors["amount"] = "Amount is required"
	}
	return errors
}

type UpdateBudgetRequest struct {
	Amount *string `json:"amount,omitempty"`
	Period *string `json:"period,omitempty"`
}
