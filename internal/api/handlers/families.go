package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sudhir200/expense-tracker-sub001/internal/api/dto"
	"github.com/sudhir200/expense-tracker-sub001/internal/api/middleware"
	"github.com/sudhir200/expense-tracker-sub001/internal/database/models"
	"github.com/sudhir200/expense-tracker-sub001/internal/family"
)

type FamilyHandler struct {
	familyService *family.Service
}

func NewFamilyHandler(familyService *family.Service) *FamilyHandler {
	return &FamilyHandler{familyService: familyService}
}

func memberToResponse(m *models.Membership) dto.MemberResponse {
	resp := dto.MemberResponse{
		UserID:      m.UserID.String(),
		Role:        string(m.Role),
		Permissions: m.Permissions(),
		JoinedAt:    m.JoinedAt.Format(time.RFC3339),
		IsPrimary:   m.IsPrimary,
	}
	if m.User != nil {
		resp.Name = m.User.Name
		resp.Email = m.User.Email
	}
	return resp
}

func inviteToResponse(c *models.InviteCode) dto.InviteCodeResponse {
	return dto.InviteCodeResponse{
		ID:        c.ID.String(),
		Code:      c.Code,
		ExpiresAt: c.ExpiresAt.Format(time.RFC3339),
		IsActive:  c.IsActive,
	}
}

func familyIDParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// Create handles POST /api/v1/families
func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req dto.CreateFamilyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	fam, membership, err := h.familyService.CreateFamily(r.Context(), userID, req.Name, req.Currency)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.FamilyResponse{
		ID:       fam.ID.String(),
		Name:     fam.Name,
		Currency: fam.Currency,
		Role:     string(membership.Role),
		Primary:  membership.IsPrimary,
	})
}

// Mine handles GET /api/v1/families/mine
func (h *FamilyHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	memberships, err := h.familyService.ListMembershipsForUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]dto.FamilyResponse, 0, len(memberships))
	for i := range memberships {
		m := &memberships[i]
		resp := dto.FamilyResponse{
			ID:      m.FamilyID.String(),
			Role:    string(m.Role),
			Primary: m.IsPrimary,
		}
		if m.Family != nil {
			resp.Name = m.Family.Name
			resp.Currency = m.Family.Currency
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

// Members handles GET /api/v1/families/{id}/members
func (h *FamilyHandler) Members(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	familyID, ok := familyIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid family ID"})
		return
	}

	// Member roster is visible to members only.
	isMember, err := h.familyService.IsMember(r.Context(), familyID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !isMember {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Not a member of this family"})
		return
	}

	members, err := h.familyService.ListMembers(r.Context(), familyID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]dto.MemberResponse, len(members))
	for i := range members {
		out[i] = memberToResponse(&members[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// UpdateMember handles PUT /api/v1/families/{id}/members/{userID}
func (h *FamilyHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	actingID := middleware.GetUserID(r.Context())
	familyID, ok := familyIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid family ID"})
		return
	}
	targetID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	var req dto.UpdateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	input := family.UpdateMemberInput{Permissions: req.Permissions}
	if req.Role != nil {
		role := models.FamilyRole(*req.Role)
		input.Role = &role
	}

	updated, err := h.familyService.UpdateMember(r.Context(), familyID, actingID, targetID, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, memberToResponse(updated))
}

// RemoveMember handles DELETE /api/v1/families/{id}/members/{userID}
func (h *FamilyHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actingID := middleware.GetUserID(r.Context())
	familyID, ok := familyIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid family ID"})
		return
	}
	targetID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	if err := h.familyService.RemoveMember(r.Context(), familyID, actingID, targetID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Member removed"})
}

// Leave handles POST /api/v1/families/{id}/leave
func (h *FamilyHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	familyID, ok := familyIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid family ID"})
		return
	}

	if err := h.familyService.LeaveFamily(r.Context(), userID, familyID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Left family"})
}

// TransferHead handles POST /api/v1/families/{id}/transfer-head
func (h *FamilyHandler) TransferHead(w http.ResponseWriter, r *http.Request) {
	actingID := middleware.GetUserID(r.Context())
	familyID, ok := familyIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid family ID"})
		return
	}

	var req dto.TransferHeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	targetID, err := uuid.Parse(req.TargetUserID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid target user ID"})
		return
	}

	if err := h.familyService.TransferHeadship(r.Context(), familyID, actingID, targetID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Headship transferred"})
}

// CreateInvite handles POST /api/v1/families/{id}/invites
func (h *FamilyHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	actingID := middleware.GetUserID(r.Context())
	familyID, ok := familyIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid family ID"})
		return
	}

	invite, err := h.familyService.IssueInviteCode(r.Context(), familyID, actingID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inviteToResponse(invite))
}

// ListInvites handles GET /api/v1/families/{id}/invites
func (h *FamilyHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	actingID := middleware.GetUserID(r.Context())
	familyID, ok := familyIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid family ID"})
		return
	}

	codes, err := h.familyService.ListInviteCodes(r.Context(), familyID, actingID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]dto.InviteCodeResponse, len(codes))
	for i := range codes {
		out[i] = inviteToResponse(&codes[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// RevokeInvite handles DELETE /api/v1/families/{id}/invites/{codeID}
func (h *FamilyHandler) RevokeInvite(w http.ResponseWriter, r *http.Request) {
	actingID := middleware.GetUserID(r.Context())
	familyID, ok := familyIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid family ID"})
		return
	}
	codeID, err := uuid.Parse(chi.URLParam(r, "codeID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid invite code ID"})
		return
	}

	if err := h.familyService.RevokeInviteCode(r.Context(), familyID, actingID, codeID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Invite code revoked"})
}

// Join handles POST /api/v1/join
func (h *FamilyHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req dto.JoinFamilyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	membership, err := h.familyService.JoinByInviteCode(r.Context(), userID, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, memberToResponse(membership))
}
