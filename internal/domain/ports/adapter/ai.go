package adapter

import "context"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AIServiceAdapter is the hex port for AI chat providers.
type AIServiceAdapter interface {
	Chat(ctx context.Context, model string, messages []Message) (reply string, err error)
	// CountTokens estimates the token footprint of a text for the model.
	CountTokens(model, text string) int
	ListModels(ctx context.Context) ([]string, error)
}
