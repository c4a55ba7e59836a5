package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	sub "github.com/stripe/stripe-go/v79/subscription"
	"github.com/stripe/stripe-go/v79/webhook"

	"quiz-ai-platform/internal/domain"
	"quiz-ai-platform/internal/domain/model"
	"quiz-ai-platform/internal/domain/ports/adapter"
)

var _ adapter.BillingGateway = (*StripeGateway)(nil)

// StripeGateway implements adapter.BillingGateway on the Stripe API.
type StripeGateway struct {
	webhookSecret string

	// retrieveSub is swappable for tests; invoice events carry only the
	// subscription id, so the metadata and period come from a follow-up fetch.
	retrieveSub func(id string) (*stripe.Subscription, error)
}

func NewStripeGateway(secretKey, webhookSecret string) (*StripeGateway, error) {
	if secretKey == "" || webhookSecret == "" {
		return nil, domain.ErrInvalidArgument
	}
	stripe.Key = secretKey
	return &StripeGateway{
		webhookSecret: webhookSecret,
		retrieveSub: func(id string) (*stripe.Subscription, error) {
			return sub.Get(id, nil)
		},
	}, nil
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p adapter.CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(p.PriceID),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL:    stripe.String(p.SuccessURL),
		CancelURL:     stripe.String(p.CancelURL),
		CustomerEmail: stripe.String(p.CustomerEmail),
		// Metadata set here rides on the subscription object and comes back
		// on every webhook event for it.
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"user_id": p.UserID},
		},
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe checkout session: %w", err)
	}
	return s.URL, nil
}

func (g *StripeGateway) VerifyEvent(ctx context.Context, payload []byte, signature string) (*model.BillingEvent, error) {
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEventUnverified, err)
	}

	out := &model.BillingEvent{
		ProviderEventID: event.ID,
		Type:            model.BillingEventType(event.Type),
	}

	switch event.Type {
	case stripe.EventTypeCustomerSubscriptionCreated:
		var s stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEventUnverified, err)
		}
		fillFromSubscription(out, &s)

	case stripe.EventTypeInvoicePaymentSucceeded:
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEventUnverified, err)
		}
		if inv.Subscription == nil || inv.Subscription.ID == "" {
			// One-off invoice; nothing for the subscription engine.
			return out, nil
		}
		full, err := g.retrieveSub(inv.Subscription.ID)
		if err != nil {
			return nil, fmt.Errorf("stripe subscription retrieve: %w", err)
		}
		fillFromSubscription(out, full)

	case stripe.EventTypeCustomerSubscriptionDeleted:
		var s stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEventUnverified, err)
		}
		out.ProviderSubscriptionID = s.ID
	}

	return out, nil
}

func fillFromSubscription(out *model.BillingEvent, s *stripe.Subscription) {
	out.ProviderSubscriptionID = s.ID
	out.UserID = s.Metadata["user_id"]
	if s.CurrentPeriodStart > 0 {
		out.PeriodStart = time.Unix(s.CurrentPeriodStart, 0)
	}
	if s.CurrentPeriodEnd > 0 {
		out.PeriodEnd = time.Unix(s.CurrentPeriodEnd, 0)
	}
	if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0].Price != nil {
		out.PriceID = s.Items.Data[0].Price.ID
	}
}
