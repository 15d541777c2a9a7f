// Package family implements the shared-finance group model: membership
// lifecycle, the per-member permission checks, and invite-code issuance.
package family

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sudhir200/expense-tracker-sub001/internal/database/models"
	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	logger *slog.Logger

	// rand and now are swappable for tests.
	rand io.Reader
	now  func() time.Time
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger,
		rand:   rand.Reader,
		now:    time.Now,
	}
}

// CreateFamily creates a family and its head membership in one transaction.
// The creator becomes head with the full permission set. The membership is
// marked primary only when the creator holds no other active membership.
func (s *Service) CreateFamily(ctx context.Context, creatorID uuid.UUID, name, currency string) (*models.Family, *models.Membership, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: family name is required", ErrValidation)
	}
	if currency == "" {
		currency = "USD"
	}

	fam := models.Family{
		Name:                  name,
		Currency:              currency,
		CreatedBy:             creatorID,
		AllowPersonalExpenses: true,
		SharedCategories:      models.DefaultSharedCategories,
		PersonalCategories:    models.DefaultPersonalCategories,
		SingleActiveCode:      true,
	}

	var membership models.Membership
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&fam).Error; err != nil {
			return err
		}

		var activeCount int64
		if err := tx.Model(&models.Membership{}).
			Where("user_id = ? AND is_active = ?", creatorID, true).
			Count(&activeCount).Error; err != nil {
			return err
		}

		membership = models.Membership{
			UserID:    creatorID,
			FamilyID:  fam.ID,
			Role:      models.FamilyRoleHead,
			JoinedAt:  s.now(),
			IsActive:  true,
			IsPrimary: activeCount == 0,
		}
		membership.SetPermissions(models.HeadPermissions())

		return tx.Create(&membership).Error
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("family created", "family_id", fam.ID, "created_by", creatorID)
	return &fam, &membership, nil
}

// GetFamily loads a family by id.
func (s *Service) GetFamily(ctx context.Context, familyID uuid.UUID) (*models.Family, error) {
	var fam models.Family
	if err := s.db.WithContext(ctx).First(&fam, familyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFamilyNotFound
		}
		return nil, err
	}
	return &fam, nil
}

// GetMember returns the user's active membership in the family, or
// ErrMembershipNotFound. Inactive rows never authorize anything.
func (s *Service) GetMember(ctx context.Context, familyID, userID uuid.UUID) (*models.Membership, error) {
	return getMember(s.db.WithContext(ctx), familyID, userID)
}

func getMember(tx *gorm.DB, familyID, userID uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	err := tx.Where("family_id = ? AND user_id = ? AND is_active = ?", familyID, userID, true).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, err
	}
	return &m, nil
}

// IsMember reports whether the user holds an active membership in the family.
func (s *Service) IsMember(ctx context.Context, familyID, userID uuid.UUID) (bool, error) {
	_, err := s.GetMember(ctx, familyID, userID)
	if errors.Is(err, ErrMembershipNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsHead reports whether the user is the family's active head.
func (s *Service) IsHead(ctx context.Context, familyID, userID uuid.UUID) (bool, error) {
	m, err := s.GetMember(ctx, familyID, userID)
	if errors.Is(err, ErrMembershipNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.Role == models.FamilyRoleHead, nil
}

// ListMembers returns the family's active memberships with users preloaded.
func (s *Service) ListMembers(ctx context.Context, familyID uuid.UUID) ([]models.Membership, error) {
	var members []models.Membership
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("family_id = ? AND is_active = ?", familyID, true).
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// PrimaryMembership returns the user's primary active membership, if any.
func (s *Service) PrimaryMembership(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	err := s.db.WithContext(ctx).
		Preload("Family").
		Where("user_id = ? AND is_active = ? AND is_primary = ?", userID, true, true).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListMembershipsForUser returns all of the user's active memberships.
func (s *Service) ListMembershipsForUser(ctx context.Context, userID uuid.UUID) ([]models.Membership, error) {
	var out []models.Membership
	err := s.db.WithContext(ctx).
		Preload("Family").
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("joined_at ASC").
		Find(&out).Error
	return out, err
}

// LeaveFamily deactivates the caller's membership. A head may only leave
// when no other active members remain. If the departing membership was
// primary, the oldest remaining active membership inherits the flag.
func (s *Service) LeaveFamily(ctx context.Context, userID, familyID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := getMember(tx, familyID, userID)
		if err != nil {
			return err
		}

		if m.Role == models.FamilyRoleHead {
			var others int64
			if err := tx.Model(&models.Membership{}).
				Where("family_id = ? AND user_id <> ? AND is_active = ?", familyID, userID, true).
				Count(&others).Error; err != nil {
				return err
			}
			if others > 0 {
				return fmt.Errorf("%w: family head cannot leave while there are other members", ErrForbidden)
			}
		}

		wasPrimary := m.IsPrimary
		m.IsActive = false
		m.IsPrimary = false
		if err := tx.Save(m).Error; err != nil {
			return err
		}

		if wasPrimary {
			return promoteNextPrimary(tx, userID)
		}
		return nil
	})
}

// promoteNextPrimary hands the primary flag to the user's oldest remaining
// active membership, if one exists.
func promoteNextPrimary(tx *gorm.DB, userID uuid.UUID) error {
	var next models.Membership
	err := tx.Where("user_id = ? AND is_active = ?", userID, true).
		Order("joined_at ASC").
		First(&next).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return tx.Model(&models.Membership{}).
		Where("id = ?", next.ID).
		Update("is_primary", true).Error
}

// setPrimary marks one membership primary and unsets the flag on all of the
// user's other rows, keeping the at-most-one-primary invariant.
func setPrimary(tx *gorm.DB, userID, membershipID uuid.UUID) error {
	if err := tx.Model(&models.Membership{}).
		Where("user_id = ? AND id <> ?", userID, membershipID).
		Update("is_primary", false).Error; err != nil {
		return err
	}
	return tx.Model(&models.Membership{}).
		Where("id = ?", membershipID).
		Update("is_primary", true).Error
}

// TransferHeadship atomically promotes the target to head with the full
// permission set and demotes the acting head to adult with adult defaults.
// Only the current head may initiate a transfer.
func (s *Service) TransferHeadship(ctx context.Context, familyID, actingID, targetID uuid.UUID) error {
	if actingID == targetID {
		return fmt.Errorf("%w: cannot transfer headship to yourself", ErrValidation)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acting, err := getMember(tx, familyID, actingID)
		if err != nil {
			return err
		}
		if acting.Role != models.FamilyRoleHead {
			return fmt.Errorf("%w: only the family head can transfer headship", ErrForbidden)
		}

		target, err := getMember(tx, familyID, targetID)
		if err != nil {
			return err
		}

		target.Role = models.FamilyRoleHead
		target.SetPermissions(models.HeadPermissions())
		if err := tx.Save(target).Error; err != nil {
			return err
		}

		acting.Role = models.FamilyRoleAdult
		acting.SetPermissions(models.AdultPermissions())
		return tx.Save(acting).Error
	})
	if err != nil {
		return err
	}
	s.logger.Info("headship transferred", "family_id", familyID, "from", actingID, "to", targetID)
	return nil
}

// UpdateMemberInput carries the optional changes for UpdateMember. Nil
// fields are left untouched.
type UpdateMemberInput struct {
	Role        *models.FamilyRole
	Permissions *models.PermissionSet
}

// UpdateMember changes a member's role and/or permission flags.
//
// Rules: the acting user must be head or hold CanManageMembers. Promotion to
// head delegates to TransferHeadship. The head's own role may only be changed
// by the head (self-demotion); nobody else touches a head's role. When the
// resulting role is head or child, the role's default permission set is
// applied after any explicit override, so role defaults win for those roles;
// explicit overrides stick for adults only.
func (s *Service) UpdateMember(ctx context.Context, familyID, actingID, targetID uuid.UUID, in UpdateMemberInput) (*models.Membership, error) {
	if in.Role != nil && !in.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown family role %q", ErrValidation, *in.Role)
	}

	if in.Role != nil && *in.Role == models.FamilyRoleHead {
		if err := s.TransferHeadship(ctx, familyID, actingID, targetID); err != nil {
			return nil, err
		}
		return s.GetMember(ctx, familyID, targetID)
	}

	var updated models.Membership
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acting, err := getMember(tx, familyID, actingID)
		if err != nil {
			return err
		}
		if !acting.CanManageFamily() {
			return fmt.Errorf("%w: requires head role or member-management permission", ErrForbidden)
		}

		target, err := getMember(tx, familyID, targetID)
		if err != nil {
			return err
		}

		if target.Role == models.FamilyRoleHead && in.Role != nil && actingID != targetID {
			return fmt.Errorf("%w: only the head can change the head's role", ErrForbidden)
		}

		if in.Permissions != nil {
			target.SetPermissions(*in.Permissions)
		}
		if in.Role != nil {
			target.Role = *in.Role
		}
		// Role defaults take precedence over explicit overrides for the
		// restricted and privileged roles.
		switch target.Role {
		case models.FamilyRoleChild:
			target.SetPermissions(models.ChildPermissions())
		case models.FamilyRoleHead:
			target.SetPermissions(models.HeadPermissions())
		}

		if err := tx.Save(target).Error; err != nil {
			return err
		}
		updated = *target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// RemoveMember deactivates another member's membership. The head cannot be
// removed; transfer headship first.
func (s *Service) RemoveMember(ctx context.Context, familyID, actingID, targetID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acting, err := getMember(tx, familyID, actingID)
		if err != nil {
			return err
		}
		if !acting.CanManageFamily() {
			return fmt.Errorf("%w: requires head role or member-management permission", ErrForbidden)
		}

		target, err := getMember(tx, familyID, targetID)
		if err != nil {
			return err
		}
		if target.Role == models.FamilyRoleHead {
			return fmt.Errorf("%w: cannot remove the family head", ErrForbidden)
		}

		wasPrimary := target.IsPrimary
		target.IsActive = false
		target.IsPrimary = false
		if err := tx.Save(target).Error; err != nil {
			return err
		}
		if wasPrimary {
			return promoteNextPrimary(tx, targetID)
		}
		return nil
	})
}
