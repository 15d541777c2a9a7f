package tasks

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeInviteSweep  = "invite:expire_sweep"
	TypeWelcomeEmail = "email:welcome"
)

// InviteSweepPayload contains the data for an invite expiry sweep task
type InviteSweepPayload struct {
	// Cutoff is the instant codes are compared against. Codes whose
	// expiry is at or before the cutoff are deactivated.
	Cutoff time.Time `json:"cutoff"`
}

func NewInviteSweepTask(payload InviteSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeInviteSweep, data), nil
}

// WelcomeEmailPayload contains the data for a welcome email task
type WelcomeEmailPayload struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
}

func NewWelcomeEmailTask(payload WelcomeEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeWelcomeEmail, data), nil
}
