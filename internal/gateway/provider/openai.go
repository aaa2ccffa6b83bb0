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

// OpenAIClient 兼容 OpenAI / DeepSeek / Qwen 的 /v1/chat/completions 接口。
type OpenAIClient struct {
	endpoint string
	model    string
	http     *httpCaller
}

func NewOpenAIClient(baseURL, apiKey, model string, timeout time.Duration, maxRetries int, extra map[string]string) *OpenAIClient {
	headers := make(map[string]string, len(extra)+1)
	if apiKey != "" {
		headers["Authorization"] = "Bearer " + apiKey
	}
	for k, v := range extra {
		headers[k] = v
	}
	return &OpenAIClient{
		endpoint: chatEndpoint(baseURL),
		model:    model,
		http:     newHTTPCaller(timeout, maxRetries, headers),
	}
}

// chatEndpoint tolerates base URLs that already end in /chat/completions.
func chatEndpoint(baseURL string) string {
	url := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if url == "" {
		url = "https://api.openai.com/v1"
	}
	url = strings.TrimSuffix(url, "/chat/completions")
	return url + "/chat/completions"
}

func (c *OpenAIClient) ID() string    { return "openai" }
func (c *OpenAIClient) Model() string { return c.model }

func (c *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	body := map[string]any{
		"model":       c.model,
		"messages":    buildMessages(req),
		"temperature": req.Temperature,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	start := time.Now()
	raw, err := c.http.post(ctx, c.endpoint, payload, "error.message")
	var content string
	if err == nil {
		content, err = openAIContent(raw)
	}
	logger.LogLLMExchange(logger.LLMExchange{
		Provider: c.ID(), Model: c.model, Purpose: req.Purpose,
		System: req.System, Prompt: req.Prompt, Response: content,
		Payload: string(payload), Elapsed: time.Since(start), Err: err,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	return content, nil
}

func openAIContent(raw []byte) (string, error) {
	choices := gjson.GetBytes(raw, "choices")
	if !choices.IsArray() || len(choices.Array()) == 0 {
		return "", fmt.Errorf("empty choices")
	}
	content := choices.Get("0.message.content").String()
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
