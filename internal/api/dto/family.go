package dto

import "github.com/sudhir200/expense-tracker-sub001/internal/database/models"

type CreateFamilyRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency,omitempty"`
}

func (r CreateFamilyRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Name == "" {
		errors["name"] = "Family name is required"
	}
	return errors
}

type JoinFamilyRequest struct {
	Code string `json:"code"`
}

func (r JoinFamilyRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Code == "" {
		errors["code"] = "Invite code is required"
	}
	return errors
}

type UpdateMemberRequest struct {
	Role        *string               `json:"role,omitempty"`
	Permissions *models.PermissionSet `json:"permissions,omitempty"`
}

type TransferHeadRequest struct {
	TargetUserID string `json:"target_user_id"`
}

type MemberResponse struct {
	UserID      string               `json:"user_id"`
	Name        string               `json:"name"`
	Email       string               `json:"email"`
	Role        string               `json:"role"`
	Permissions models.PermissionSet `json:"permissions"`
	JoinedAt    string               `json:"joined_at"`
	IsPrimary   bool                 `json:"is_primary"`
}

type FamilyResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Role     string `json:"role,omitempty"`
	Primary  bool   `json:"primary,omitempty"`
}

type InviteCodeResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	ExpiresAt string `json:"expires_at"`
	IsActive  bool   `json:"is_active"`
}
