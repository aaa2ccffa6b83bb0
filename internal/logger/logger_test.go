package logger

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLevelsAndFormat(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetFormat("text")
		SetLevel("info")
		SetOutput(nil)
	})

	SetLevel("warn")
	Infof("hidden %d", 1)
	Warnf("shown %d", 2)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown 2")

	buf.Reset()
	SetFormat("json")
	With("trace_id", "abc").Warn("structured")
	assert.Contains(t, buf.String(), `"trace_id":"abc"`)
	assert.Contains(t, buf.String(), `"msg":"structured"`)
}

func TestLogLLMExchange(t *testing.T) {
	var buf bytes.Buffer
	SetLLMWriter(&buf)
	t.Cleanup(func() {
		SetLLMWriter(nil)
		EnableLLMPayloadDump(false)
	})

	LogLLMExchange(LLMExchange{
		Provider: "ollama", Model: "llama3.2", Purpose: "sql",
		Prompt: "how many sales?", Response: "SELECT COUNT(*) FROM sales;",
		Payload: `{"model":"llama3.2"}`, Elapsed: 1500 * time.Millisecond,
	})
	out := buf.String()
	assert.Contains(t, out, "[LLM][ollama][llama3.2][sql] elapsed=1.5s")
	assert.Contains(t, out, "--- RESPONSE ---\nSELECT COUNT(*) FROM sales;\n")
	assert.NotContains(t, out, "PAYLOAD")

	buf.Reset()
	EnableLLMPayloadDump(true)
	LogLLMExchange(LLMExchange{Provider: "openai", Purpose: "answer", Payload: "{}", Err: errors.New("timeout")})
	assert.Contains(t, buf.String(), "--- PAYLOAD ---")
	assert.Contains(t, buf.String(), "--- ERROR ---\ntimeout")
}
