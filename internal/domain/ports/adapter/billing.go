package adapter

import (
	"context"

	"quiz-ai-platform/internal/domain/model"
)

// CheckoutParams carries what the provider needs to start a subscription
// checkout. Metadata travels to the provider and comes back on webhook
// events; the engine uses it to carry the internal user id.
type CheckoutParams struct {
	PriceID       string
	CustomerEmail string
	UserID        string
	SuccessURL    string
	CancelURL     string
}

// BillingGateway is the hex port for the payment provider. The core depends
// only on this narrow capability set — create session, verify event,
// retrieve subscription — never on concrete SDK types.
type BillingGateway interface {
	Name() string

	// CreateCheckoutSession starts a hosted checkout and returns the
	// redirect URL.
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (url string, err error)

	// VerifyEvent authenticates a raw webhook payload against its signature
	// header and normalizes it into a BillingEvent. Invoice events require a
	// follow-up subscription retrieval from the provider; that happens here,
	// behind the port. Fails with a domain.ErrEventUnverified-wrapped error
	// on bad signatures or unparseable payloads.
	VerifyEvent(ctx context.Context, payload []byte, signature string) (*model.BillingEvent, error)
}
