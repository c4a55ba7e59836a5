// File: internal/usecase/plan_uc.go
package usecase

import (
	"context"

	"github.com/google/uuid"

	"quiz-ai-platform/internal/domain/model"
	"quiz-ai-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ PlanUseCase = (*planUC)(nil)

// PlanUseCase is the plan catalog plus the admin CRUD surface over it.
type PlanUseCase interface {
	Create(ctx context.Context, name, description string, priceCents, credits int64, durationDays int, providerPriceID string) (*model.Plan, error)
	Update(ctx context.Context, id string, upd PlanUpdate) (*model.Plan, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*model.Plan, error)
	// FindByProviderPriceID resolves a billing-provider price to a plan.
	// A miss means the plan was never provisioned for that price.
	FindByProviderPriceID(ctx context.Context, priceID string) (*model.Plan, error)
	ListActive(ctx context.Context) ([]*model.Plan, error)
	List(ctx context.Context) ([]*model.Plan, error)
}

// PlanUpdate carries optional field changes; nil means "leave as is".
type PlanUpdate struct {
	Name            *string
	Description     *string
	PriceCents      *int64
	Credits         *int64
	DurationDays    *int
	ProviderPriceID *string
	IsActive        *bool
}

type planUC struct {
	repo repository.PlanRepository
}

func NewPlanUseCase(repo repository.PlanRepository) *planUC {
	return &planUC{repo: repo}
}

func (uc *planUC) Create(ctx context.Context, name, description string, priceCents, credits int64, durationDays int, providerPriceID string) (*model.Plan, error) {
	plan, err := model.NewPlan(uuid.NewString(), name, description, priceCents, credits, durationDays, providerPriceID)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.Save(ctx, repository.NoTX, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (uc *planUC) Update(ctx context.Context, id string, upd PlanUpdate) (*model.Plan, error) {
	plan, err := uc.repo.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		plan.Name = *upd.Name
	}
	if upd.Description != nil {
		plan.Description = *upd.Description
	}
	if upd.PriceCents != nil {
		plan.PriceCents = *upd.PriceCents
	}
	if upd.Credits != nil {
		plan.Credits = *upd.Credits
	}
	if upd.DurationDays != nil {
		plan.DurationDays = *upd.DurationDays
	}
	if upd.ProviderPriceID != nil {
		plan.ProviderPriceID = *upd.ProviderPriceID
	}
	if upd.IsActive != nil {
		plan.IsActive = *upd.IsActive
	}
	if err := uc.repo.Save(ctx, repository.NoTX, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (uc *planUC) Delete(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, repository.NoTX, id)
}

func (uc *planUC) Get(ctx context.Context, id string) (*model.Plan, error) {
	return uc.repo.FindByID(ctx, repository.NoTX, id)
}

func (uc *planUC) FindByProviderPriceID(ctx context.Context, priceID string) (*model.Plan, error) {
	return uc.repo.FindByProviderPriceID(ctx, repository.NoTX, priceID)
}

func (uc *planUC) ListActive(ctx context.Context) ([]*model.Plan, error) {
	return uc.repo.ListActive(ctx, repository.NoTX)
}

func (uc *planUC) List(ctx context.Context) ([]*model.Plan, error) {
	return uc.repo.ListAll(ctx, repository.NoTX)
}
