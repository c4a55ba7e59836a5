package model

import (
	"time"

	"quiz-ai-platform/internal/domain"
)

// User is the minimal account record the engine needs: identity plus the
// current-subscription pointer. The pointer is a weak reference written only
// by the webhook event processor.
type User struct {
	ID                    string     `json:"id"`
	Email                 string     `json:"email"`
	DisplayName           string     `json:"display_name,omitempty"`
	CurrentSubscriptionID *string    `json:"current_subscription_id,omitempty"`
	RegisteredAt          time.Time  `json:"registered_at"`
	LastActiveAt          *time.Time `json:"last_active_at,omitempty"`
}

func NewUser(id, email, displayName string) (*User, error) {
	if id == "" || email == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:           id,
		Email:        email,
		DisplayName:  displayName,
		RegisteredAt: time.Now(),
	}, nil
}
