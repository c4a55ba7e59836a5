package repository

import (
	"context"

	"quiz-ai-platform/internal/domain/model"
)

// UserRepository is the port for user accounts.
type UserRepository interface {
	Save(ctx context.Context, tx Tx, user *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.User, error)
	// SetCurrentSubscription updates the user's current-subscription pointer.
	// Pass nil to clear it. Written only by the webhook event processor.
	SetCurrentSubscription(ctx context.Context, tx Tx, userID string, subscriptionID *string) error
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.User, error)
	Count(ctx context.Context, tx Tx) (int, error)
}
