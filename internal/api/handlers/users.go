package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sudhir200/expense-tracker-sub001/internal/api/dto"
	"github.com/sudhir200/expense-tracker-sub001/internal/api/middleware"
	"github.com/sudhir200/expense-tracker-sub001/internal/auth"
	"github.com/sudhir200/expense-tracker-sub001/internal/database/models"
	"github.com/sudhir200/expense-tracker-sub001/internal/users"
)

// UserHandler is the admin user-management surface. It loads the acting
// user from storage on every call; the stored row, not the token, decides
// role and active status.
type UserHandler struct {
	userService *users.Service
	authService *auth.Service
}

func NewUserHandler(userService *users.Service, authService *auth.Service) *UserHandler {
	return &UserHandler{userService: userService, authService: authService}
}

func (h *UserHandler) acting(r *http.Request) (*models.User, error) {
	return h.authService.GetUserByID(r.Context(), middleware.GetUserID(r.Context()))
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	acting, err := h.acting(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Unknown user"})
		return
	}

	list, err := h.userService.List(r.Context(), acting)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]dto.UserDTO, len(list))
	for i := range list {
		out[i] = userToDTO(&list[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	acting, err := h.acting(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Unknown user"})
		return
	}

	var req dto.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	user, err := h.userService.Create(r.Context(), acting, users.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     models.GlobalRole(req.Role),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userToDTO(user))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	acting, err := h.acting(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Unknown user"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	user, err := h.userService.Get(r.Context(), acting, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userToDTO(user))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	acting, err := h.acting(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Unknown user"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	var req dto.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	input := users.UpdateUserInput{
		Name:     req.Name,
		IsActive: req.IsActive,
	}
	if req.Role != nil {
		role := models.GlobalRole(*req.Role)
		input.Role = &role
	}

	user, err := h.userService.Update(r.Context(), acting, id, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userToDTO(user))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	acting, err := h.acting(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Unknown user"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	if err := h.userService.Deactivate(r.Context(), acting, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "User deactivated"})
}
