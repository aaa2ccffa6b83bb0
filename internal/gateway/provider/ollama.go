package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"sqlchat/internal/logger"
)

// OllamaClient calls a local Ollama server through /api/chat without streaming.
type OllamaClient struct {
	baseURL string
	model   string
	http    *httpCaller
}

func NewOllamaClient(baseURL, model string, timeout time.Duration, maxRetries int, headers map[string]string) *OllamaClient {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	base = strings.TrimSuffix(base, "/api/chat")
	if base == "" {
		base = "http://localhost:11434"
	}
	return &OllamaClient{
		baseURL: base,
		model:   model,
		http:    newHTTPCaller(timeout, maxRetries, headers),
	}
}

func (c *OllamaClient) ID() string    { return "ollama" }
func (c *OllamaClient) Model() string { return c.model }

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  struct {
		Temperature float64 `json:"temperature"`
	} `json:"options"`
}

func (c *OllamaClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	body := ollamaRequest{Model: c.model, Messages: buildMessages(req)}
	body.Options.Temperature = req.Temperature
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode ollama request: %w", err)
	}

	start := time.Now()
	raw, err := c.http.post(ctx, c.baseURL+"/api/chat", payload, "error")
	var content string
	if err == nil {
		content, err = ollamaContent(raw)
	}
	logger.LogLLMExchange(logger.LLMExchange{
		Provider: c.ID(), Model: c.model, Purpose: req.Purpose,
		System: req.System, Prompt: req.Prompt, Response: content,
		Payload: string(payload), Elapsed: time.Since(start), Err: err,
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	return content, nil
}

func ollamaContent(raw []byte) (string, error) {
	if msg := gjson.GetBytes(raw, "error").String(); msg != "" {
		return "", fmt.Errorf("ollama error: %s", msg)
	}
	content := gjson.GetBytes(raw, "message.content").String()
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

func buildMessages(req ChatRequest) []ollamaMessage {
	msgs := make([]ollamaMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		msgs = append(msgs, ollamaMessage{Role: "system", Content: req.System})
	}
	return append(msgs, ollamaMessage{Role: "user", Content: req.Prompt})
}
