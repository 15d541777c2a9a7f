package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sudhir200/expense-tracker-sub001/internal/database/models"
	"gorm.io/gorm"
)

type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{
		db:     db,
		logger: logger,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeInviteSweep, h.HandleInviteSweep)
	mux.HandleFunc(TypeWelcomeEmail, h.HandleWelcomeEmail)
}

// HandleInviteSweep deactivates invite codes whose expiry has passed.
// Redemption checks expiry on its own, so the sweep is housekeeping
// that keeps listings and the invite_codes table tidy.
func (h *Handler) HandleInviteSweep(ctx context.Context, t *asynq.Task) error {
	var payload InviteSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	cutoff := payload.Cutoff
	if cutoff.IsZero() {
		cutoff = time.Now()
	}

	result := h.db.WithContext(ctx).
		Model(&models.InviteCode{}).
		Where("is_active = ? AND expires_at <= ?", true, cutoff).
		Update("is_active", false)
	if result.Error != nil {
		h.logger.Error("invite sweep failed", "error", result.Error)
		return result.Error
	}

	if result.RowsAffected > 0 {
		h.logger.Info("deactivated expired invite codes",
			"count", result.RowsAffected,
			"cutoff", cutoff,
		)
	}

	return nil
}

// HandleWelcomeEmail would hand off to a mail provider. Logging only
// until an SMTP integration lands.
func (h *Handler) HandleWelcomeEmail(ctx context.Context, t *asynq.Task) error {
	var payload WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	h.logger.Info("welcome email queued",
		"user_id", payload.UserID,
		"email", payload.Email,
	)

	return nil
}
