// File: internal/usecase/chat_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"quiz-ai-platform/internal/domain"
	"quiz-ai-platform/internal/domain/model"
	"quiz-ai-platform/internal/domain/ports/adapter"
	"quiz-ai-platform/internal/domain/ports/repository"
	"quiz-ai-platform/internal/infra/metrics"
)

// Compile-time check
var _ ChatUseCase = (*chatUC)(nil)

// chatMessageCost is the flat credit price of one user message.
const chatMessageCost = 1

type ChatUseCase interface {
	StartChat(ctx context.Context, userID, modelName string) (*model.ChatSession, error)
	// SendMessage consumes credits through the gate before dispatching the AI
	// call. Sessions are scoped to their owner; a foreign session id reads as
	// not found.
	SendMessage(ctx context.Context, userID, sessionID, userMessage string) (reply string, err error)
	EndChat(ctx context.Context, userID, sessionID string) error
	FindActiveSession(ctx context.Context, userID string) (*model.ChatSession, error)
	ListModels(ctx context.Context) ([]string, error)
}

type chatUC struct {
	sessions repository.ChatSessionRepository
	ai       adapter.AIServiceAdapter
	gate     SubscriptionUseCase
	devMode  bool
}

func NewChatUseCase(sessions repository.ChatSessionRepository, ai adapter.AIServiceAdapter, gate SubscriptionUseCase, devMode bool) *chatUC {
	return &chatUC{sessions: sessions, ai: ai, gate: gate, devMode: devMode}
}

func (c *chatUC) StartChat(ctx context.Context, userID, modelName string) (*model.ChatSession, error) {
	// Only one active session per user
	if s, err := c.sessions.FindActiveByUser(ctx, repository.NoTX, userID); err == nil && s != nil {
		return s, nil
	}

	s := model.NewChatSession(uuid.NewString(), userID, modelName)
	if err := c.sessions.Save(ctx, repository.NoTX, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *chatUC) SendMessage(ctx context.Context, userID, sessionID, userMessage string) (string, error) {
	s, err := c.sessions.FindByID(ctx, repository.NoTX, sessionID)
	if err != nil {
		return "", err
	}
	if s.UserID != userID {
		return "", domain.ErrNotFound
	}
	if s.Status != model.ChatSessionActive {
		return "", errors.New("chat is not active")
	}
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return "", domain.ErrInvalidArgument
	}

	// The gate runs before the AI call is dispatched. A deducted credit is
	// not refunded if the call fails afterwards.
	if !c.devMode {
		decision, err := c.gate.CheckAndDeduct(ctx, s.UserID, chatMessageCost)
		if err != nil {
			return "", err
		}
		if !decision.Allowed {
			switch decision.Reason {
			case DenialInsufficientCredits:
				return "", domain.ErrInsufficientCredits
			default:
				return "", domain.ErrNoActiveSubscription
			}
		}
	}

	// Persist user message with its token footprint
	userTokens := c.ai.CountTokens(s.Model, userMessage)
	s.AddMessage("user", userMessage, userTokens)
	if err := c.sessions.SaveMessage(ctx, repository.NoTX, &s.Messages[len(s.Messages)-1]); err != nil {
		return "", err
	}

	// Prepare AI context (recent messages)
	msgs := s.GetRecentMessages(15)
	adapterMsgs := make([]adapter.Message, 0, len(msgs))
	for _, m := range msgs {
		adapterMsgs = append(adapterMsgs, adapter.Message{Role: m.Role, Content: m.Content})
	}

	started := time.Now()
	reply, err := c.ai.Chat(ctx, s.Model, adapterMsgs)
	metrics.ObserveAICall(s.Model, int(time.Since(started).Milliseconds()), err == nil)
	if err != nil {
		return "", err
	}
	replyTokens := c.ai.CountTokens(s.Model, reply)
	metrics.AddAITokens(s.Model, "input", userTokens)
	metrics.AddAITokens(s.Model, "output", replyTokens)

	// Persist assistant message
	s.AddMessage("assistant", reply, replyTokens)
	if err := c.sessions.SaveMessage(ctx, repository.NoTX, &s.Messages[len(s.Messages)-1]); err != nil {
		return "", err
	}
	s.UpdatedAt = time.Now()
	_ = c.sessions.Save(ctx, repository.NoTX, s)
	return reply, nil
}

func (c *chatUC) EndChat(ctx context.Context, userID, sessionID string) error {
	s, err := c.sessions.FindByID(ctx, repository.NoTX, sessionID)
	if err != nil {
		return err
	}
	if s.UserID != userID {
		return domain.ErrNotFound
	}
	return c.sessions.UpdateStatus(ctx, repository.NoTX, s.ID, model.ChatSessionFinished)
}

func (c *chatUC) FindActiveSession(ctx context.Context, userID string) (*model.ChatSession, error) {
	return c.sessions.FindActiveByUser(ctx, repository.NoTX, userID)
}

func (c *chatUC) ListModels(ctx context.Context) ([]string, error) {
	return c.ai.ListModels(ctx)
}
