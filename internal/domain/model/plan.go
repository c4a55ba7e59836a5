package model

import (
	"time"

	"quiz-ai-platform/internal/domain"
)

// Plan represents a purchasable subscription plan with a fixed duration,
// credit allotment, and price in minor currency units. ProviderPriceID maps
// the plan to the billing provider's price object; a plan without it cannot
// be checked out.
type Plan struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	PriceCents      int64     `json:"price_cents"`
	Credits         int64     `json:"credits"`
	DurationDays    int       `json:"duration_days"`
	ProviderPriceID string    `json:"provider_price_id,omitempty"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// NewPlan validates and constructs a plan. DurationDays defaults to 30.
func NewPlan(id, name, description string, priceCents, credits int64, durationDays int, providerPriceID string) (*Plan, error) {
	if id == "" || name == "" || priceCents < 0 || credits < 0 {
		return nil, domain.ErrInvalidArgument
	}
	if durationDays <= 0 {
		durationDays = 30
	}
	now := time.Now()
	return &Plan{
		ID:              id,
		Name:            name,
		Description:     description,
		PriceCents:      priceCents,
		Credits:         credits,
		DurationDays:    durationDays,
		ProviderPriceID: providerPriceID,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
