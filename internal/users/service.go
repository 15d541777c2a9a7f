// Package users is the admin user-management surface. Every operation takes
// the acting identity and consults the global role policy before touching
// storage; superuser accounts are never reachable through it.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sudhir200/expense-tracker-sub001/internal/auth"
	"github.com/sudhir200/expense-tracker-sub001/internal/database/models"
	"github.com/sudhir200/expense-tracker-sub001/internal/policy"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

type CreateUserInput struct {
	Email    string
	Password string
	Name     string
	Role     models.GlobalRole
}

type UpdateUserInput struct {
	Name     *string
	Role     *models.GlobalRole
	IsActive *bool
}

// List returns the users whose data the acting identity may read. Admins
// see USER-role accounts only; superusers see everything.
func (s *Service) List(ctx context.Context, acting *models.User) ([]models.User, error) {
	if _, err := policy.RequireRole(acting, models.RoleAdmin); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.User{}).Order("created_at ASC")
	if acting.GlobalRole != models.RoleSuperuser {
		query = query.Where("global_role = ?", models.RoleUser)
	}

	var out []models.User
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one user, subject to the same visibility rules as List.
func (s *Service) Get(ctx context.Context, acting *models.User, id uuid.UUID) (*models.User, error) {
	if _, err := policy.RequireRole(acting, models.RoleAdmin); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !policy.CanAccessUserData(acting.GlobalRole, user.GlobalRole) {
		return nil, fmt.Errorf("%w: %s cannot access %s accounts",
			policy.ErrForbidden, acting.GlobalRole, user.GlobalRole)
	}
	return &user, nil
}

// Create provisions an account with an explicit role. Admins may only
// create USER accounts; superusers may also create admins. Superuser
// creation is bootstrap-only.
func (s *Service) Create(ctx context.Context, acting *models.User, input CreateUserInput) (*models.User, error) {
	if _, err := policy.RequireRole(acting, models.RoleAdmin); err != nil {
		return nil, err
	}
	if !input.Role.Valid() {
		input.Role = models.RoleUser
	}
	if !policy.CanCreateUserWithRole(acting.GlobalRole, input.Role) {
		return nil, fmt.Errorf("%w: %s cannot create %s accounts",
			policy.ErrForbidden, acting.GlobalRole, input.Role)
	}

	var existing models.User
	if err := s.db.WithContext(ctx).Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return nil, ErrUserExists
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        input.Email,
		PasswordHash: hash,
		Name:         input.Name,
		GlobalRole:   input.Role,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", user.ID, "role", user.GlobalRole, "by", acting.ID)
	return &user, nil
}

// Update changes name, role, or active flag on a manageable account. Role
// escalation is bounded by the same table that governs creation.
func (s *Service) Update(ctx context.Context, acting *models.User, id uuid.UUID, input UpdateUserInput) (*models.User, error) {
	if _, err := policy.RequireRole(acting, models.RoleAdmin); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !policy.CanManageUser(acting.GlobalRole, user.GlobalRole) {
		return nil, fmt.Errorf("%w: %s cannot manage %s accounts",
			policy.ErrForbidden, acting.GlobalRole, user.GlobalRole)
	}

	if input.Role != nil && *input.Role != user.GlobalRole {
		if !input.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", policy.ErrForbidden, *input.Role)
		}
		if !policy.CanCreateUserWithRole(acting.GlobalRole, *input.Role) {
			return nil, fmt.Errorf("%w: %s cannot grant the %s role",
				policy.ErrForbidden, acting.GlobalRole, *input.Role)
		}
		user.GlobalRole = *input.Role
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Deactivate disables an account. Accounts are never deleted.
func (s *Service) Deactivate(ctx context.Context, acting *models.User, id uuid.UUID) error {
	if _, err := policy.RequireRole(acting, models.RoleAdmin); err != nil {
		return err
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if !policy.CanManageUser(acting.GlobalRole, user.GlobalRole) {
		return fmt.Errorf("%w: %s cannot manage %s accounts",
			policy.ErrForbidden, acting.GlobalRole, user.GlobalRole)
	}

	return s.db.WithContext(ctx).Model(&user).Update("is_active", false).Error
}
