//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"quiz-ai-platform/internal/domain"
	"quiz-ai-platform/internal/domain/model"
	"quiz-ai-platform/internal/domain/ports/adapter"
	"quiz-ai-platform/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs the function immediately with NoTX unless overridden. The
// in-memory repositories below are themselves atomic, so tests exercise the
// same invariants the database enforces.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- Mock PlanRepository ----

type MockPlanRepo struct {
	mu    sync.RWMutex
	plans map[string]*model.Plan

	FindByProviderPriceIDFunc func(ctx context.Context, tx repository.Tx, priceID string) (*model.Plan, error)
}

var _ repository.PlanRepository = (*MockPlanRepo)(nil)

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{plans: make(map[string]*model.Plan)}
}

func (m *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.plans[cp.ID] = &cp
	return nil
}

func (m *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPlanRepo) FindByProviderPriceID(ctx context.Context, tx repository.Tx, priceID string) (*model.Plan, error) {
	if m.FindByProviderPriceIDFunc != nil {
		return m.FindByProviderPriceIDFunc(ctx, tx, priceID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.plans {
		if p.ProviderPriceID == priceID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPlanRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Plan
	for _, p := range m.plans {
		if p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Plan, 0, len(m.plans))
	for _, p := range m.plans {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockPlanRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.plans, id)
	return nil
}

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{users: make(map[string]*model.User)}
}

func (m *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[cp.ID] = &cp
	return nil
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepo) SetCurrentSubscription(ctx context.Context, tx repository.Tx, userID string, subscriptionID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	if subscriptionID == nil {
		u.CurrentSubscriptionID = nil
	} else {
		id := *subscriptionID
		u.CurrentSubscriptionID = &id
	}
	return nil
}

func (m *MockUserRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockUserRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

// ---- Mock SubscriptionRepository ----

// MockSubscriptionRepo mirrors the conditional-update semantics of the real
// store: DeductCredits checks status, expiry, and balance under one lock, so
// concurrency tests exercise the same guarantees as the SQL guard.
type MockSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[string]*model.Subscription // by subscription ID

	DeductCreditsFunc func(ctx context.Context, tx repository.Tx, subscriptionID string, amount int64) (int64, error)
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{subs: make(map[string]*model.Subscription)}
}

func (m *MockSubscriptionRepo) put(s *model.Subscription) {
	cp := *s
	m.subs[cp.ID] = &cp
}

// Seed inserts a subscription directly, bypassing upsert semantics.
func (m *MockSubscriptionRepo) Seed(s *model.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(s)
}

func (m *MockSubscriptionRepo) UpsertByProviderPeriod(ctx context.Context, tx repository.Tx, sub *model.Subscription) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.subs {
		if existing.ProviderSubscriptionID == sub.ProviderSubscriptionID && existing.StartDate.Equal(sub.StartDate) {
			existing.PlanID = sub.PlanID
			existing.Status = sub.Status
			existing.EndDate = sub.EndDate
			existing.CreditsAllocated = sub.CreditsAllocated
			existing.UpdatedAt = time.Now()
			cp := *existing
			return &cp, nil
		}
	}
	cp := *sub
	cp.CreditsUsed = 0
	m.subs[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepo) FindLatestByProviderID(ctx context.Context, tx repository.Tx, providerSubID string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.Subscription
	for _, s := range m.subs {
		if s.ProviderSubscriptionID != providerSubID {
			continue
		}
		if latest == nil || s.StartDate.After(latest.StartDate) {
			latest = s
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *MockSubscriptionRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		if s.UserID == userID && s.Status == model.SubscriptionStatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Subscription
	for _, s := range m.subs {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockSubscriptionRepo) DeductCredits(ctx context.Context, tx repository.Tx, subscriptionID string, amount int64) (int64, error) {
	if m.DeductCreditsFunc != nil {
		return m.DeductCreditsFunc(ctx, tx, subscriptionID, amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[subscriptionID]
	if !ok || s.Status != model.SubscriptionStatusActive || !time.Now().Before(s.EndDate) {
		return 0, domain.ErrNoActiveSubscription
	}
	if s.CreditsUsed+amount > s.CreditsAllocated {
		return 0, domain.ErrInsufficientCredits
	}
	s.CreditsUsed += amount
	return s.CreditsAllocated - s.CreditsUsed, nil
}

func (m *MockSubscriptionRepo) MarkExpired(ctx context.Context, tx repository.Tx, id string) error {
	return m.transition(id, model.SubscriptionStatusExpired)
}

func (m *MockSubscriptionRepo) MarkCancelled(ctx context.Context, tx repository.Tx, id string) error {
	return m.transition(id, model.SubscriptionStatusCancelled)
}

func (m *MockSubscriptionRepo) transition(id string, to model.SubscriptionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok || s.IsTerminal() {
		return domain.ErrNotFound
	}
	s.Status = to
	return nil
}

func (m *MockSubscriptionRepo) FindExpired(ctx context.Context, tx repository.Tx, limit int) ([]*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Subscription
	now := time.Now()
	for _, s := range m.subs {
		if len(out) >= limit {
			break
		}
		if s.Status == model.SubscriptionStatusActive && !now.Before(s.EndDate) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockSubscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[model.SubscriptionStatus]int)
	for _, s := range m.subs {
		out[s.Status]++
	}
	return out, nil
}

func (m *MockSubscriptionRepo) TotalRemainingCredits(ctx context.Context, tx repository.Tx) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	now := time.Now()
	for _, s := range m.subs {
		if s.Status == model.SubscriptionStatusActive && now.Before(s.EndDate) {
			sum += s.CreditsRemaining()
		}
	}
	return sum, nil
}

// Count returns the number of stored subscription rows.
func (m *MockSubscriptionRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// ---- Mock BillingEventRepository ----

type MockBillingEventRepo struct {
	mu        sync.Mutex
	processed map[string]string // providerEventID -> type
}

var _ repository.BillingEventRepository = (*MockBillingEventRepo)(nil)

func NewMockBillingEventRepo() *MockBillingEventRepo {
	return &MockBillingEventRepo{processed: make(map[string]string)}
}

func (m *MockBillingEventRepo) MarkProcessed(ctx context.Context, tx repository.Tx, providerEventID, eventType string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.processed[providerEventID]; ok {
		return true, nil
	}
	m.processed[providerEventID] = eventType
	return false, nil
}

// ---- Mock ChatSessionRepository ----

type MockChatSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.ChatSession

	SaveMessageFunc func(ctx context.Context, tx repository.Tx, msg *model.ChatMessage) error
}

var _ repository.ChatSessionRepository = (*MockChatSessionRepo)(nil)

func NewMockChatSessionRepo() *MockChatSessionRepo {
	return &MockChatSessionRepo{sessions: make(map[string]*model.ChatSession)}
}

func (m *MockChatSessionRepo) Save(ctx context.Context, tx repository.Tx, s *model.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.Messages = append([]model.ChatMessage(nil), s.Messages...)
	m.sessions[cp.ID] = &cp
	return nil
}

func (m *MockChatSessionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	cp.Messages = append([]model.ChatMessage(nil), s.Messages...)
	return &cp, nil
}

func (m *MockChatSessionRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.UserID == userID && s.Status == model.ChatSessionActive {
			cp := *s
			cp.Messages = append([]model.ChatMessage(nil), s.Messages...)
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockChatSessionRepo) SaveMessage(ctx context.Context, tx repository.Tx, msg *model.ChatMessage) error {
	if m.SaveMessageFunc != nil {
		return m.SaveMessageFunc(ctx, tx, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[msg.SessionID]
	if !ok {
		return domain.ErrNotFound
	}
	s.Messages = append(s.Messages, *msg)
	return nil
}

func (m *MockChatSessionRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.ChatSessionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Status = status
	return nil
}

// ---- Mock BillingGateway ----

type MockBillingGateway struct {
	mu            sync.Mutex
	CheckoutCalls int

	CreateCheckoutSessionFunc func(ctx context.Context, p adapter.CheckoutParams) (string, error)
	VerifyEventFunc           func(ctx context.Context, payload []byte, signature string) (*model.BillingEvent, error)
}

var _ adapter.BillingGateway = (*MockBillingGateway)(nil)

func (m *MockBillingGateway) Name() string { return "mockpay" }

func (m *MockBillingGateway) CreateCheckoutSession(ctx context.Context, p adapter.CheckoutParams) (string, error) {
	m.mu.Lock()
	m.CheckoutCalls++
	m.mu.Unlock()
	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, p)
	}
	return "https://pay.example/checkout/" + p.PriceID, nil
}

func (m *MockBillingGateway) VerifyEvent(ctx context.Context, payload []byte, signature string) (*model.BillingEvent, error) {
	if m.VerifyEventFunc != nil {
		return m.VerifyEventFunc(ctx, payload, signature)
	}
	return nil, domain.ErrEventUnverified
}

// ---- Mock AIServiceAdapter ----

type MockAI struct {
	mu        sync.Mutex
	ChatCalls int

	ChatFunc func(ctx context.Context, model string, msgs []adapter.Message) (string, error)
}

var _ adapter.AIServiceAdapter = (*MockAI)(nil)

func (m *MockAI) Chat(ctx context.Context, model string, msgs []adapter.Message) (string, error) {
	m.mu.Lock()
	m.ChatCalls++
	m.mu.Unlock()
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, model, msgs)
	}
	return "ok", nil
}

func (m *MockAI) CountTokens(model, text string) int { return len(text) }

func (m *MockAI) ListModels(ctx context.Context) ([]string, error) {
	return []string{"gpt-4o-mini"}, nil
}
