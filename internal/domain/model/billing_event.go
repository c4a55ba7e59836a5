package model

import "time"

type BillingEventType string

const (
	BillingEventSubscriptionCreated BillingEventType = "customer.subscription.created"
	BillingEventPaymentSucceeded    BillingEventType = "invoice.payment_succeeded"
	BillingEventSubscriptionDeleted BillingEventType = "customer.subscription.deleted"
)

// BillingEvent is the verified, normalized envelope the webhook processor
// consumes. The billing gateway adapter fills it from an authenticated
// provider payload; by the time the processor sees one, signature checking
// is already done.
//
// For event types the engine does not handle, only ProviderEventID and Type
// are guaranteed to be set.
type BillingEvent struct {
	ProviderEventID        string
	Type                   BillingEventType
	ProviderSubscriptionID string
	PriceID                string
	UserID                 string
	PeriodStart            time.Time
	PeriodEnd              time.Time
}

// BillingEventRecord is one row of the processed-event log. ID is a local
// ULID; ProviderEventID carries the provider's unique id and backs the
// replay short-circuit.
type BillingEventRecord struct {
	ID              string
	ProviderEventID string
	Type            string
	ProcessedAt     time.Time
}
