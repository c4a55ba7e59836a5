package repository

import (
	"context"

	"quiz-ai-platform/internal/domain/model"
)

// PlanRepository is the port for plan persistence and catalog lookups.
type PlanRepository interface {
	Save(ctx context.Context, tx Tx, plan *model.Plan) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Plan, error)
	// FindByProviderPriceID resolves the plan mapped to a billing-provider
	// price object. Used by the webhook processor only.
	FindByProviderPriceID(ctx context.Context, tx Tx, priceID string) (*model.Plan, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.Plan, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Plan, error)
	Delete(ctx context.Context, tx Tx, id string) error
}
