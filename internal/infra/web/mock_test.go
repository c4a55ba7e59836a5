//go:build !integration

package web_test

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"quiz-ai-platform/internal/domain"
	"quiz-ai-platform/internal/domain/model"
	"quiz-ai-platform/internal/domain/ports/adapter"
	"quiz-ai-platform/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// Func-field mocks: a nil field falls back to a safe default so tests only
// wire the behavior they assert on.

type MockPlanUC struct {
	CreateFunc     func(ctx context.Context, name, description string, priceCents, credits int64, durationDays int, providerPriceID string) (*model.Plan, error)
	UpdateFunc     func(ctx context.Context, id string, upd usecase.PlanUpdate) (*model.Plan, error)
	DeleteFunc     func(ctx context.Context, id string) error
	GetFunc        func(ctx context.Context, id string) (*model.Plan, error)
	ListActiveFunc func(ctx context.Context) ([]*model.Plan, error)
	ListFunc       func(ctx context.Context) ([]*model.Plan, error)
}

var _ usecase.PlanUseCase = (*MockPlanUC)(nil)

func (m *MockPlanUC) Create(ctx context.Context, name, description string, priceCents, credits int64, durationDays int, providerPriceID string) (*model.Plan, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, name, description, priceCents, credits, durationDays, providerPriceID)
	}
	return model.NewPlan("plan-new", name, description, priceCents, credits, durationDays, providerPriceID)
}

func (m *MockPlanUC) Update(ctx context.Context, id string, upd usecase.PlanUpdate) (*model.Plan, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, upd)
	}
	return nil, domain.ErrNotFound
}

func (m *MockPlanUC) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return domain.ErrNotFound
}

func (m *MockPlanUC) Get(ctx context.Context, id string) (*model.Plan, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *MockPlanUC) FindByProviderPriceID(ctx context.Context, priceID string) (*model.Plan, error) {
	return nil, domain.ErrNotFound
}

func (m *MockPlanUC) ListActive(ctx context.Context) ([]*model.Plan, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return []*model.Plan{}, nil
}

func (m *MockPlanUC) List(ctx context.Context) ([]*model.Plan, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*model.Plan{}, nil
}

type MockUserUC struct {
	RegisterFunc func(ctx context.Context, email, displayName string) (*model.User, error)
	FindByIDFunc func(ctx context.Context, id string) (*model.User, error)
	ListFunc     func(ctx context.Context, offset, limit int) ([]*model.User, error)
	CountFunc    func(ctx context.Context) (int, error)
}

var _ usecase.UserUseCase = (*MockUserUC)(nil)

func (m *MockUserUC) Register(ctx context.Context, email, displayName string) (*model.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, displayName)
	}
	return model.NewUser("user-1", email, displayName)
}

func (m *MockUserUC) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserUC) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, offset, limit)
	}
	return []*model.User{}, nil
}

func (m *MockUserUC) Count(ctx context.Context) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

type MockSubscriptionUC struct {
	GetCurrentFunc            func(ctx context.Context, userID string) (*model.Subscription, error)
	CheckAndDeductFunc        func(ctx context.Context, userID string, cost int64) (*usecase.CreditDecision, error)
	RemainingFunc             func(ctx context.Context, userID string) (int64, error)
	ListByUserFunc            func(ctx context.Context, userID string) ([]*model.Subscription, error)
	FinishExpiredFunc         func(ctx context.Context) (int, error)
	CountByStatusFunc         func(ctx context.Context) (map[model.SubscriptionStatus]int, error)
	TotalRemainingCreditsFunc func(ctx context.Context) (int64, error)
}

var _ usecase.SubscriptionUseCase = (*MockSubscriptionUC)(nil)

func (m *MockSubscriptionUC) GetCurrent(ctx context.Context, userID string) (*model.Subscription, error) {
	if m.GetCurrentFunc != nil {
		return m.GetCurrentFunc(ctx, userID)
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionUC) CheckAndDeduct(ctx context.Context, userID string, cost int64) (*usecase.CreditDecision, error) {
	if m.CheckAndDeductFunc != nil {
		return m.CheckAndDeductFunc(ctx, userID, cost)
	}
	return &usecase.CreditDecision{Allowed: true, Remaining: 1}, nil
}

func (m *MockSubscriptionUC) Remaining(ctx context.Context, userID string) (int64, error) {
	if m.RemainingFunc != nil {
		return m.RemainingFunc(ctx, userID)
	}
	return 0, nil
}

func (m *MockSubscriptionUC) ListByUser(ctx context.Context, userID string) ([]*model.Subscription, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []*model.Subscription{}, nil
}

func (m *MockSubscriptionUC) FinishExpired(ctx context.Context) (int, error) {
	if m.FinishExpiredFunc != nil {
		return m.FinishExpiredFunc(ctx)
	}
	return 0, nil
}

func (m *MockSubscriptionUC) CountByStatus(ctx context.Context) (map[model.SubscriptionStatus]int, error) {
	if m.CountByStatusFunc != nil {
		return m.CountByStatusFunc(ctx)
	}
	return map[model.SubscriptionStatus]int{}, nil
}

func (m *MockSubscriptionUC) TotalRemainingCredits(ctx context.Context) (int64, error) {
	if m.TotalRemainingCreditsFunc != nil {
		return m.TotalRemainingCreditsFunc(ctx)
	}
	return 0, nil
}

type MockBillingUC struct {
	CreateCheckoutSessionFunc func(ctx context.Context, userID, planID string) (string, error)
}

var _ usecase.BillingUseCase = (*MockBillingUC)(nil)

func (m *MockBillingUC) CreateCheckoutSession(ctx context.Context, userID, planID string) (string, error) {
	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, userID, planID)
	}
	return "https://pay.example/cs_mock", nil
}

type MockWebhookUC struct {
	HandleEventFunc func(ctx context.Context, ev *model.BillingEvent) error
}

var _ usecase.WebhookUseCase = (*MockWebhookUC)(nil)

func (m *MockWebhookUC) HandleEvent(ctx context.Context, ev *model.BillingEvent) error {
	if m.HandleEventFunc != nil {
		return m.HandleEventFunc(ctx, ev)
	}
	return nil
}

type MockChatUC struct {
	StartChatFunc         func(ctx context.Context, userID, modelName string) (*model.ChatSession, error)
	SendMessageFunc       func(ctx context.Context, userID, sessionID, userMessage string) (string, error)
	EndChatFunc           func(ctx context.Context, userID, sessionID string) error
	FindActiveSessionFunc func(ctx context.Context, userID string) (*model.ChatSession, error)
	ListModelsFunc        func(ctx context.Context) ([]string, error)
}

var _ usecase.ChatUseCase = (*MockChatUC)(nil)

func (m *MockChatUC) StartChat(ctx context.Context, userID, modelName string) (*model.ChatSession, error) {
	if m.StartChatFunc != nil {
		return m.StartChatFunc(ctx, userID, modelName)
	}
	return model.NewChatSession("session-1", userID, modelName), nil
}

func (m *MockChatUC) SendMessage(ctx context.Context, userID, sessionID, userMessage string) (string, error) {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, userID, sessionID, userMessage)
	}
	return "mock reply", nil
}

func (m *MockChatUC) EndChat(ctx context.Context, userID, sessionID string) error {
	if m.EndChatFunc != nil {
		return m.EndChatFunc(ctx, userID, sessionID)
	}
	return nil
}

func (m *MockChatUC) FindActiveSession(ctx context.Context, userID string) (*model.ChatSession, error) {
	if m.FindActiveSessionFunc != nil {
		return m.FindActiveSessionFunc(ctx, userID)
	}
	return nil, domain.ErrNotFound
}

func (m *MockChatUC) ListModels(ctx context.Context) ([]string, error) {
	if m.ListModelsFunc != nil {
		return m.ListModelsFunc(ctx)
	}
	return []string{"gpt-4o-mini"}, nil
}

type MockGateway struct {
	VerifyEventFunc func(ctx context.Context, payload []byte, signature string) (*model.BillingEvent, error)
}

var _ adapter.BillingGateway = (*MockGateway)(nil)

func (m *MockGateway) Name() string { return "mockpay" }

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, p adapter.CheckoutParams) (string, error) {
	return "https://pay.example/cs_mock", nil
}

func (m *MockGateway) VerifyEvent(ctx context.Context, payload []byte, signature string) (*model.BillingEvent, error) {
	if m.VerifyEventFunc != nil {
		return m.VerifyEventFunc(ctx, payload, signature)
	}
	return nil, domain.ErrEventUnverified
}
