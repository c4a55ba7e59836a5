package model

import "time"

type ChatSessionStatus string

const (
	ChatSessionActive   ChatSessionStatus = "active"
	ChatSessionFinished ChatSessionStatus = "finished"
)

type ChatMessage struct {
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // user | assistant
	Content   string    `json:"content"`
	Tokens    int       `json:"tokens"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession is a metered conversation. Each user message consumes credits
// through the credit gate before the AI call is dispatched.
type ChatSession struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Model     string            `json:"model"`
	Status    ChatSessionStatus `json:"status"`
	Messages  []ChatMessage     `json:"messages,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func NewChatSession(id, userID, model string) *ChatSession {
	now := time.Now()
	return &ChatSession{
		ID:        id,
		UserID:    userID,
		Model:     model,
		Status:    ChatSessionActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *ChatSession) AddMessage(role, content string, tokens int) {
	s.Messages = append(s.Messages, ChatMessage{
		SessionID: s.ID,
		Role:      role,
		Content:   content,
		Tokens:    tokens,
		Timestamp: time.Now(),
	})
}

// GetRecentMessages returns up to n most recent messages in order.
func (s *ChatSession) GetRecentMessages(n int) []ChatMessage {
	if len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}
