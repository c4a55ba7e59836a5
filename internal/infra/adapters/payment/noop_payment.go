package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"quiz-ai-platform/internal/domain"
	"quiz-ai-platform/internal/domain/model"
	"quiz-ai-platform/internal/domain/ports/adapter"
)

var _ adapter.BillingGateway = (*NoopBillingGateway)(nil)

// NoopBillingGateway is a simple in-memory gateway to use in tests and dev
// mode. VerifyEvent treats the payload as a JSON-encoded BillingEvent and the
// signature "valid" as authentic.
type NoopBillingGateway struct {
	mu  sync.Mutex
	seq int64
}

func NewNoopBillingGateway() *NoopBillingGateway {
	return &NoopBillingGateway{}
}

func (g *NoopBillingGateway) Name() string { return "noop" }

func (g *NoopBillingGateway) CreateCheckoutSession(ctx context.Context, p adapter.CheckoutParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("https://example.test/checkout/noop-%d?price=%s", g.seq, p.PriceID), nil
}

func (g *NoopBillingGateway) VerifyEvent(ctx context.Context, payload []byte, signature string) (*model.BillingEvent, error) {
	if signature != "valid" {
		return nil, fmt.Errorf("%w: noop signature mismatch", domain.ErrEventUnverified)
	}
	var ev model.BillingEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEventUnverified, err)
	}
	return &ev, nil
}
