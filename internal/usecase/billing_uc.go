// File: internal/usecase/billing_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"quiz-ai-platform/internal/domain"
	"quiz-ai-platform/internal/domain/ports/adapter"
	"quiz-ai-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ BillingUseCase = (*billingUC)(nil)

// BillingUseCase starts provider checkout flows.
type BillingUseCase interface {
	// CreateCheckoutSession returns the provider redirect URL for a plan
	// purchase. Fails with ErrNotFound (unknown/inactive plan) or
	// ErrPlanMisconfigured (no provider price id) before any provider call
	// is made.
	CreateCheckoutSession(ctx context.Context, userID, planID string) (string, error)
}

type billingUC struct {
	users      repository.UserRepository
	plans      repository.PlanRepository
	gateway    adapter.BillingGateway
	successURL string
	cancelURL  string
	log        *zerolog.Logger
}

func NewBillingUseCase(users repository.UserRepository, plans repository.PlanRepository, gateway adapter.BillingGateway, successURL, cancelURL string, logger *zerolog.Logger) *billingUC {
	l := logger.With().Str("component", "BillingUC").Logger()
	return &billingUC{users: users, plans: plans, gateway: gateway, successURL: successURL, cancelURL: cancelURL, log: &l}
}

func (uc *billingUC) CreateCheckoutSession(ctx context.Context, userID, planID string) (string, error) {
	user, err := uc.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return "", err
	}
	plan, err := uc.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return "", err
	}
	if !plan.IsActive {
		return "", domain.ErrNotFound
	}
	if plan.ProviderPriceID == "" {
		return "", domain.ErrPlanMisconfigured
	}

	url, err := uc.gateway.CreateCheckoutSession(ctx, adapter.CheckoutParams{
		PriceID:       plan.ProviderPriceID,
		CustomerEmail: user.Email,
		UserID:        user.ID,
		SuccessURL:    uc.successURL,
		CancelURL:     uc.cancelURL,
	})
	if err != nil {
		return "", err
	}

	uc.log.Info().Str("user_id", user.ID).Str("plan_id", plan.ID).Str("provider", uc.gateway.Name()).
		Msg("checkout session created")
	return url, nil
}
