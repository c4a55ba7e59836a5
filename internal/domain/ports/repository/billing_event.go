package repository

import "context"

// BillingEventRepository is the processed-event log backing webhook replay
// detection and the audit trail.
type BillingEventRepository interface {
	// MarkProcessed records a provider event id. Returns true when the event
	// was already recorded (replay), in which case nothing was written.
	MarkProcessed(ctx context.Context, tx Tx, providerEventID, eventType string) (alreadyProcessed bool, err error)
}
