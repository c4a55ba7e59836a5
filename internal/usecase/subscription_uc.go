// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"quiz-ai-platform/internal/domain"
	"quiz-ai-platform/internal/domain/model"
	"quiz-ai-platform/internal/domain/ports/repository"
	"quiz-ai-platform/internal/infra/metrics"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// DenialReason is the machine-readable reason attached to a rejected credit
// check. Callers map it to a 402-style response.
type DenialReason string

const (
	DenialNoActiveSubscription DenialReason = "no_active_subscription"
	DenialInsufficientCredits  DenialReason = "insufficient_credits"
)

// CreditDecision is the outcome of the credit gate. A denial is a normal
// business outcome, not an error.
type CreditDecision struct {
	Allowed   bool         `json:"allowed"`
	Reason    DenialReason `json:"reason,omitempty"`
	Remaining int64        `json:"remaining"`
}

// SubscriptionUseCase owns the subscription state machine and the credit
// gate over its ledger.
type SubscriptionUseCase interface {
	// GetCurrent returns the subscription the user's current-subscription
	// pointer references, re-evaluating expiry on read: an 'active' row past
	// its end date is transitioned to 'expired' before being returned.
	GetCurrent(ctx context.Context, userID string) (*model.Subscription, error)

	// CheckAndDeduct is the gate metered operations call before executing.
	// The deduction is a single atomic conditional update against the store;
	// two racing calls can never jointly overdraw the ledger. Credits are
	// not refunded if the guarded operation later fails.
	CheckAndDeduct(ctx context.Context, userID string, cost int64) (*CreditDecision, error)

	// Remaining is a display-only read of the current balance. Never used to
	// gate a deduction.
	Remaining(ctx context.Context, userID string) (int64, error)

	ListByUser(ctx context.Context, userID string) ([]*model.Subscription, error)

	// FinishExpired sweeps active rows whose end date has passed. Lazy expiry
	// on read keeps entitlement correct without it; the sweep keeps stats and
	// stored state tidy.
	FinishExpired(ctx context.Context) (int, error)

	// --- Statistics read-only methods ---
	CountByStatus(ctx context.Context) (map[model.SubscriptionStatus]int, error)
	TotalRemainingCredits(ctx context.Context) (int64, error)
}

type subscriptionUC struct {
	subs  repository.SubscriptionRepository
	users repository.UserRepository
	log   *zerolog.Logger
}

func NewSubscriptionUseCase(subs repository.SubscriptionRepository, users repository.UserRepository, logger *zerolog.Logger) *subscriptionUC {
	l := logger.With().Str("component", "SubscriptionUC").Logger()
	return &subscriptionUC{subs: subs, users: users, log: &l}
}

func (uc *subscriptionUC) GetCurrent(ctx context.Context, userID string) (*model.Subscription, error) {
	user, err := uc.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	if user.CurrentSubscriptionID == nil {
		return nil, domain.ErrNotFound
	}
	sub, err := uc.subs.FindByID(ctx, repository.NoTX, *user.CurrentSubscriptionID)
	if err != nil {
		return nil, err
	}
	uc.expireLazily(ctx, sub)
	return sub, nil
}

// expireLazily flips a stale 'active' row to 'expired' at read time. The
// guarded UPDATE makes concurrent sweeps and reads converge on one
// transition; losing the race is fine.
func (uc *subscriptionUC) expireLazily(ctx context.Context, sub *model.Subscription) {
	if sub.Status != model.SubscriptionStatusActive || time.Now().Before(sub.EndDate) {
		return
	}
	if err := uc.subs.MarkExpired(ctx, repository.NoTX, sub.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		uc.log.Warn().Err(err).Str("subscription_id", sub.ID).Msg("lazy expiry failed")
	}
	sub.Status = model.SubscriptionStatusExpired
}

func (uc *subscriptionUC) CheckAndDeduct(ctx context.Context, userID string, cost int64) (*CreditDecision, error) {
	if cost <= 0 {
		return nil, domain.ErrInvalidArgument
	}

	sub, err := uc.GetCurrent(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return uc.deny(DenialNoActiveSubscription, 0), nil
	}
	if err != nil {
		return nil, err
	}
	if !sub.IsEntitled(time.Now()) {
		return uc.deny(DenialNoActiveSubscription, 0), nil
	}

	remaining, err := uc.subs.DeductCredits(ctx, repository.NoTX, sub.ID, cost)
	switch {
	case err == nil:
		metrics.AddCreditsDeducted(cost)
		return &CreditDecision{Allowed: true, Remaining: remaining}, nil
	case errors.Is(err, domain.ErrInsufficientCredits):
		return uc.deny(DenialInsufficientCredits, sub.CreditsRemaining()), nil
	case errors.Is(err, domain.ErrNoActiveSubscription):
		// The row expired or was cancelled between the read and the update.
		return uc.deny(DenialNoActiveSubscription, 0), nil
	default:
		return nil, err
	}
}

func (uc *subscriptionUC) deny(reason DenialReason, remaining int64) *CreditDecision {
	metrics.IncCreditDenial(string(reason))
	return &CreditDecision{Allowed: false, Reason: reason, Remaining: remaining}
}

func (uc *subscriptionUC) Remaining(ctx context.Context, userID string) (int64, error) {
	sub, err := uc.GetCurrent(ctx, userID)
	if err != nil {
		return 0, err
	}
	return sub.CreditsRemaining(), nil
}

func (uc *subscriptionUC) ListByUser(ctx context.Context, userID string) ([]*model.Subscription, error) {
	return uc.subs.ListByUser(ctx, repository.NoTX, userID)
}

func (uc *subscriptionUC) FinishExpired(ctx context.Context) (int, error) {
	const batch = 500
	due, err := uc.subs.FindExpired(ctx, repository.NoTX, batch)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	count := 0
	for _, sub := range due {
		if err := uc.subs.MarkExpired(ctx, repository.NoTX, sub.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue // another instance won the transition
			}
			return count, err
		}
		count++
	}
	return count, nil
}

func (uc *subscriptionUC) CountByStatus(ctx context.Context) (map[model.SubscriptionStatus]int, error) {
	return uc.subs.CountByStatus(ctx, repository.NoTX)
}

func (uc *subscriptionUC) TotalRemainingCredits(ctx context.Context) (int64, error) {
	return uc.subs.TotalRemainingCredits(ctx, repository.NoTX)
}
