// Package provider talks to chat-completion services (Ollama and
// OpenAI-compatible) used to draft SQL and summarise results.
package provider

import (
	"context"
	"errors"
)

var (
	ErrEmptyResponse = errors.New("model returned empty content")
	ErrCircuitOpen   = errors.New("model provider unavailable (circuit open)")
)

// ChatRequest is a single-turn exchange. Purpose only labels logs.
type ChatRequest struct {
	System      string
	Prompt      string
	Temperature float64
	Purpose     string
}

type ModelProvider interface {
	ID() string
	Model() string
	Chat(ctx context.Context, req ChatRequest) (string, error)
}
