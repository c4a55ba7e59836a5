package repository

import (
	"context"

	"quiz-ai-platform/internal/domain/model"
)

// SubscriptionRepository is the port for subscription periods and the credit
// ledger that lives on them.
type SubscriptionRepository interface {
	// UpsertByProviderPeriod creates or updates the row keyed by
	// (provider_subscription_id, start_date). A replayed event converges on
	// the existing row and never resets credits_used; a new billing period
	// inserts a fresh row with a zero ledger.
	UpsertByProviderPeriod(ctx context.Context, tx Tx, sub *model.Subscription) (*model.Subscription, error)

	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	// FindLatestByProviderID returns the most recent period for a provider
	// subscription id.
	FindLatestByProviderID(ctx context.Context, tx Tx, providerSubID string) (*model.Subscription, error)
	FindActiveByUser(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Subscription, error)

	// DeductCredits atomically adds amount to credits_used iff the row is
	// active, unexpired, and the post-increment value does not exceed
	// credits_allocated. Returns the remaining balance after the deduction.
	// This conditional update is the ONLY mutation path for the ledger.
	// Fails with ErrInsufficientCredits when the balance is short and with
	// ErrNoActiveSubscription when the row is absent, inactive, or expired.
	DeductCredits(ctx context.Context, tx Tx, subscriptionID string, amount int64) (remaining int64, err error)

	// One-way status transitions. Both are no-ops returning ErrNotFound when
	// the row is missing or already terminal.
	MarkExpired(ctx context.Context, tx Tx, id string) error
	MarkCancelled(ctx context.Context, tx Tx, id string) error

	// FindExpired returns active rows whose end date has passed (sweep).
	FindExpired(ctx context.Context, tx Tx, limit int) ([]*model.Subscription, error)

	// --- Statistics read-only methods ---
	CountByStatus(ctx context.Context, tx Tx) (map[model.SubscriptionStatus]int, error)
	TotalRemainingCredits(ctx context.Context, tx Tx) (int64, error)
}
