package repository

import (
	"context"

	"quiz-ai-platform/internal/domain/model"
)

// ChatSessionRepository is the port for chat sessions and their messages.
type ChatSessionRepository interface {
	Save(ctx context.Context, tx Tx, session *model.ChatSession) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.ChatSession, error)
	FindActiveByUser(ctx context.Context, tx Tx, userID string) (*model.ChatSession, error)
	SaveMessage(ctx context.Context, tx Tx, msg *model.ChatMessage) error
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.ChatSessionStatus) error
}
