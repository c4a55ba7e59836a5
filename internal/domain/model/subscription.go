package model

import (
	"time"

	"quiz-ai-platform/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Subscription represents one billing period of a user's paid plan.
// CreditsAllocated is a snapshot of the plan's credit grant at creation time;
// later plan changes never touch existing periods. A renewal is a new row,
// never a mutation of the old one.
type Subscription struct {
	ID                     string             `json:"id"`
	UserID                 string             `json:"user_id"`
	PlanID                 string             `json:"plan_id"`
	ProviderSubscriptionID string             `json:"provider_subscription_id"`
	Status                 SubscriptionStatus `json:"status"`
	StartDate              time.Time          `json:"start_date"`
	EndDate                time.Time          `json:"end_date"`
	CreditsAllocated       int64              `json:"credits_allocated"`
	CreditsUsed            int64              `json:"credits_used"`
	CreatedAt              time.Time          `json:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at"`
}

// NewSubscription creates an active subscription period for a user from a
// plan snapshot and the provider's billing period.
func NewSubscription(id, userID string, plan *Plan, providerSubID string, periodStart, periodEnd time.Time) (*Subscription, error) {
	if id == "" || userID == "" || plan.IsZero() || providerSubID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if periodStart.IsZero() {
		periodStart = time.Now()
	}
	if !periodEnd.After(periodStart) {
		periodEnd = periodStart.Add(time.Duration(plan.DurationDays) * 24 * time.Hour)
	}
	now := time.Now()
	return &Subscription{
		ID:                     id,
		UserID:                 userID,
		PlanID:                 plan.ID,
		ProviderSubscriptionID: providerSubID,
		Status:                 SubscriptionStatusActive,
		StartDate:              periodStart,
		EndDate:                periodEnd,
		CreditsAllocated:       plan.Credits,
		CreditsUsed:            0,
		CreatedAt:              now,
		UpdatedAt:              now,
	}, nil
}

// CreditsRemaining is derived on read and never persisted.
func (s *Subscription) CreditsRemaining() int64 {
	if r := s.CreditsAllocated - s.CreditsUsed; r > 0 {
		return r
	}
	return 0
}

// IsEntitled reports whether this subscription authorizes metered usage at
// the given instant. A stale 'active' row past its end date is not entitled,
// regardless of whether the expiry sweep has caught up with it yet.
func (s *Subscription) IsEntitled(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && now.Before(s.EndDate)
}

// IsTerminal reports whether the status permits no further transitions.
func (s *Subscription) IsTerminal() bool {
	return s.Status == SubscriptionStatusExpired || s.Status == SubscriptionStatusCancelled
}
