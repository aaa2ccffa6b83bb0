package logger

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"
)

var (
	llmMu          sync.Mutex
	llmLog         *log.Logger
	llmDumpPayload bool
)

// SetLLMWriter routes model transcripts to w. nil disables them.
func SetLLMWriter(w io.Writer) {
	llmMu.Lock()
	defer llmMu.Unlock()
	if w == nil {
		llmLog = nil
		return
	}
	llmLog = log.New(w, "", log.LstdFlags)
}

func EnableLLMPayloadDump(enabled bool) {
	llmMu.Lock()
	llmDumpPayload = enabled
	llmMu.Unlock()
}

// LLMExchange is one prompt/response round trip with a model.
type LLMExchange struct {
	Provider string
	Model    string
	Purpose  string
	System   string
	Prompt   string
	Response string
	Payload  string
	Elapsed  time.Duration
	Err      error
}

func LogLLMExchange(ex LLMExchange) {
	llmMu.Lock()
	l := llmLog
	dump := llmDumpPayload
	llmMu.Unlock()
	if l == nil {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[LLM][%s][%s][%s] elapsed=%s\n", ex.Provider, ex.Model, ex.Purpose, ex.Elapsed.Round(time.Millisecond))
	writeSection(&b, "SYSTEM", ex.System)
	writeSection(&b, "USER", ex.Prompt)
	if dump {
		writeSection(&b, "PAYLOAD", ex.Payload)
	}
	if ex.Err != nil {
		writeSection(&b, "ERROR", ex.Err.Error())
	} else {
		writeSection(&b, "RESPONSE", ex.Response)
	}
	b.WriteString("=====\n")
	l.Print(b.String())
}

func writeSection(b *strings.Builder, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	b.WriteString("--- ")
	b.WriteString(title)
	b.WriteString(" ---\n")
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
}
