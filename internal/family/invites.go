package family

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sudhir200/expense-tracker-sub001/internal/database/models"
	"gorm.io/gorm"
)

const (
	// inviteTTL is how long a freshly issued code stays redeemable.
	inviteTTL = 7 * 24 * time.Hour
	// maxCodeAttempts bounds the collision-retry loop in code generation.
	maxCodeAttempts = 10
	// codeBytes of entropy, hex-encoded to 16 characters.
	codeBytes = 8
)

// GenerateInviteCode produces a 16-hex-character upper-case join code,
// retrying on collision with existing codes. After maxCodeAttempts failed
// attempts it returns ErrCodeGenerationExhausted.
func (s *Service) GenerateInviteCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, taken, err := s.candidateCode(ctx)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeGenerationExhausted
}

// candidateCode draws one random code and reports whether any existing row
// already holds it. The check is advisory only; the unique index on code is
// what actually arbitrates concurrent inserts.
func (s *Service) candidateCode(ctx context.Context) (string, bool, error) {
	buf := make([]byte, codeBytes)
	if _, err := s.rand.Read(buf); err != nil {
		return "", false, fmt.Errorf("reading random bytes: %w", err)
	}
	code := strings.ToUpper(hex.EncodeToString(buf))

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.InviteCode{}).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return "", false, err
	}
	return code, count > 0, nil
}

// IssueInviteCode creates a new join code for the family, expiring seven
// days out. The acting user must be able to manage the family. When the
// family runs the single-active-code discipline, all prior active codes are
// deactivated in the same transaction; otherwise codes accumulate.
func (s *Service) IssueInviteCode(ctx context.Context, familyID, actingID uuid.UUID) (*models.InviteCode, error) {
	acting, err := s.GetMember(ctx, familyID, actingID)
	if err != nil {
		return nil, err
	}
	if !acting.CanManageFamily() {
		return nil, fmt.Errorf("%w: requires head role or member-management permission", ErrForbidden)
	}

	fam, err := s.GetFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, taken, err := s.candidateCode(ctx)
		if err != nil {
			return nil, err
		}
		if taken {
			continue
		}

		invite := models.InviteCode{
			FamilyID:  familyID,
			Code:      code,
			CreatedBy: actingID,
			ExpiresAt: s.now().Add(inviteTTL),
			IsActive:  true,
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if fam.SingleActiveCode {
				if err := tx.Model(&models.InviteCode{}).
					Where("family_id = ? AND is_active = ?", familyID, true).
					Update("is_active", false).Error; err != nil {
					return err
				}
			}
			return tx.Create(&invite).Error
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the insert race on the code index; counts as a collision.
			continue
		}
		if err != nil {
			return nil, err
		}

		s.logger.Info("invite code issued", "family_id", familyID, "issued_by", actingID,
			"expires_at", invite.ExpiresAt)
		return &invite, nil
	}
	return nil, ErrCodeGenerationExhausted
}

// ListInviteCodes returns the family's active, unexpired codes. Visibility
// requires the same manage permission as issuance.
func (s *Service) ListInviteCodes(ctx context.Context, familyID, actingID uuid.UUID) ([]models.InviteCode, error) {
	acting, err := s.GetMember(ctx, familyID, actingID)
	if err != nil {
		return nil, err
	}
	if !acting.CanManageFamily() {
		return nil, fmt.Errorf("%w: requires head role or member-management permission", ErrForbidden)
	}

	var codes []models.InviteCode
	err = s.db.WithContext(ctx).
		Where("family_id = ? AND is_active = ? AND expires_at > ?", familyID, true, s.now()).
		Order("created_at DESC").
		Find(&codes).Error
	return codes, err
}

// JoinByInviteCode redeems a code: the matching active, unexpired invite is
// consumed and an adult membership with the default adult permission set is
// created (or an old deactivated row revived), all in one transaction. The
// membership becomes primary only when it is the user's sole active one.
// Codes are matched case-insensitively by normalizing to upper case.
func (s *Service) JoinByInviteCode(ctx context.Context, userID uuid.UUID, code string) (*models.Membership, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("%w: invite code is required", ErrValidation)
	}

	var membership models.Membership
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invite models.InviteCode
		err := tx.Where("code = ? AND is_active = ?", code, true).First(&invite).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidOrExpiredCode
		}
		if err != nil {
			return err
		}
		if !invite.Redeemable(s.now()) {
			return ErrInvalidOrExpiredCode
		}

		// Consume the code in the same transaction as the membership
		// write so neither can land without the other.
		if err := tx.Model(&models.InviteCode{}).
			Where("id = ?", invite.ID).
			Update("is_active", false).Error; err != nil {
			return err
		}

		var existing models.Membership
		err = tx.Where("family_id = ? AND user_id = ?", invite.FamilyID, userID).
			First(&existing).Error
		switch {
		case err == nil && existing.IsActive:
			return ErrAlreadyMember
		case err == nil:
			// Re-joining: revive the deactivated row with fresh adult defaults.
			existing.Role = models.FamilyRoleAdult
			existing.SetPermissions(models.AdultPermissions())
			existing.JoinedAt = s.now()
			existing.IsActive = true
			existing.IsPrimary = false
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			membership = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			membership = models.Membership{
				UserID:   userID,
				FamilyID: invite.FamilyID,
				Role:     models.FamilyRoleAdult,
				JoinedAt: s.now(),
				IsActive: true,
			}
			membership.SetPermissions(models.AdultPermissions())
			if err := tx.Create(&membership).Error; err != nil {
				return err
			}
		default:
			return err
		}

		var otherActive int64
		if err := tx.Model(&models.Membership{}).
			Where("user_id = ? AND is_active = ? AND id <> ?", userID, true, membership.ID).
			Count(&otherActive).Error; err != nil {
			return err
		}
		if otherActive == 0 {
			if err := setPrimary(tx, userID, membership.ID); err != nil {
				return err
			}
			membership.IsPrimary = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invite code redeemed", "family_id", membership.FamilyID, "user_id", userID)
	return &membership, nil
}

// RevokeInviteCode deactivates a single code before its expiry.
func (s *Service) RevokeInviteCode(ctx context.Context, familyID, actingID, codeID uuid.UUID) error {
	acting, err := s.GetMember(ctx, familyID, actingID)
	if err != nil {
		return err
	}
	if !acting.CanManageFamily() {
		return fmt.Errorf("%w: requires head role or member-management permission", ErrForbidden)
	}

	result := s.db.WithContext(ctx).Model(&models.InviteCode{}).
		Where("id = ? AND family_id = ? AND is_active = ?", codeID, familyID, true).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvalidOrExpiredCode
	}
	return nil
}
