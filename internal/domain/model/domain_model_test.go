//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"quiz-ai-platform/internal/domain"
)

// --- Plan Model Tests ---

func TestNewPlan(t *testing.T) {
	t.Run("should create a new plan successfully", func(t *testing.T) {
		plan, err := NewPlan("plan-1", "Pro", "monthly pro tier", 1999, 500, 30, "price_123")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if plan == nil {
			t.Fatal("expected plan to be non-nil, but got nil")
		}
		if !plan.IsActive {
			t.Error("expected a new plan to be active by default")
		}
		if plan.ProviderPriceID != "price_123" {
			t.Errorf("expected provider price id to be 'price_123', but got %s", plan.ProviderPriceID)
		}
	})

	t.Run("should default duration to 30 days", func(t *testing.T) {
		plan, err := NewPlan("plan-1", "Pro", "", 1999, 500, 0, "")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if plan.DurationDays != 30 {
			t.Errorf("expected duration to default to 30, but got %d", plan.DurationDays)
		}
	})

	t.Run("should fail with negative credits", func(t *testing.T) {
		plan, err := NewPlan("plan-1", "Pro", "", 1999, -1, 30, "")
		if err == nil {
			t.Fatal("expected an error for negative credits, but got nil")
		}
		if plan != nil {
			t.Error("expected plan to be nil on error, but it was not")
		}
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected error to be ErrInvalidArgument, but got %T", err)
		}
	})
}

// --- Subscription Model Tests ---

func TestNewSubscription(t *testing.T) {
	plan := &Plan{ID: "plan-1", Name: "Pro", Credits: 100, DurationDays: 30}

	t.Run("should snapshot credits from the plan", func(t *testing.T) {
		start := time.Now()
		end := start.Add(30 * 24 * time.Hour)
		sub, err := NewSubscription("sub-1", "user-1", plan, "prov-sub-1", start, end)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if sub.CreditsAllocated != 100 {
			t.Errorf("expected 100 credits allocated, but got %d", sub.CreditsAllocated)
		}
		if sub.CreditsUsed != 0 {
			t.Errorf("expected a fresh ledger, but credits_used is %d", sub.CreditsUsed)
		}
		if sub.Status != SubscriptionStatusActive {
			t.Errorf("expected status 'active', but got '%s'", sub.Status)
		}
	})

	t.Run("should derive end date from plan duration when period end is missing", func(t *testing.T) {
		start := time.Now()
		sub, err := NewSubscription("sub-1", "user-1", plan, "prov-sub-1", start, time.Time{})
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		want := start.Add(30 * 24 * time.Hour)
		if !sub.EndDate.Equal(want) {
			t.Errorf("expected end date %v, but got %v", want, sub.EndDate)
		}
	})

	t.Run("should fail without a provider subscription id", func(t *testing.T) {
		_, err := NewSubscription("sub-1", "user-1", plan, "", time.Now(), time.Time{})
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, but got %v", err)
		}
	})
}

func TestSubscription_CreditsRemaining(t *testing.T) {
	t.Run("should never report a negative balance", func(t *testing.T) {
		sub := &Subscription{CreditsAllocated: 10, CreditsUsed: 15}
		if got := sub.CreditsRemaining(); got != 0 {
			t.Errorf("expected remaining to floor at 0, but got %d", got)
		}
	})

	t.Run("should report the derived balance", func(t *testing.T) {
		sub := &Subscription{CreditsAllocated: 100, CreditsUsed: 40}
		if got := sub.CreditsRemaining(); got != 60 {
			t.Errorf("expected 60 remaining, but got %d", got)
		}
	})
}

func TestSubscription_IsEntitled(t *testing.T) {
	now := time.Now()

	t.Run("active and unexpired is entitled", func(t *testing.T) {
		sub := &Subscription{Status: SubscriptionStatusActive, EndDate: now.Add(time.Hour)}
		if !sub.IsEntitled(now) {
			t.Error("expected entitlement for an active, unexpired subscription")
		}
	})

	t.Run("active but past end date is not entitled", func(t *testing.T) {
		// The row still says 'active'; entitlement is re-evaluated on read.
		sub := &Subscription{Status: SubscriptionStatusActive, EndDate: now.Add(-time.Minute)}
		if sub.IsEntitled(now) {
			t.Error("expected no entitlement once the end date has passed")
		}
	})

	t.Run("cancelled is not entitled", func(t *testing.T) {
		sub := &Subscription{Status: SubscriptionStatusCancelled, EndDate: now.Add(time.Hour)}
		if sub.IsEntitled(now) {
			t.Error("expected no entitlement for a cancelled subscription")
		}
	})
}
