// Package statement cleans model-generated SQL and gates it before execution.
package statement

import (
	"regexp"
	"strings"
)

var (
	fencePattern     = regexp.MustCompile("```[A-Za-z0-9_+-]*")
	reasoningPattern = regexp.MustCompile(`(?is)<think>.*?</think>|<thinking>.*?</thinking>`)
	selectPattern    = regexp.MustCompile(`(?is)\bselect\s.*`)
)

// Sanitize turns raw model output into a single-line statement terminated by ';'.
// It never fails; text with nothing left after cleanup comes back empty.
func Sanitize(raw string) string {
	text := fencePattern.ReplaceAllString(raw, " ")
	text = StripReasoning(text)
	if loc := selectPattern.FindStringIndex(text); loc != nil {
		text = text[loc[0]:]
	}
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}
	if !strings.HasSuffix(text, ";") {
		text += ";"
	}
	return text
}

// StripReasoning drops <think>...</think> and <thinking>...</thinking>
// sections. A closer of the other kind inside a section does not end it.
// Answer summaries go through it too.
func StripReasoning(text string) string {
	for {
		out := reasoningPattern.ReplaceAllString(text, " ")
		if out == text {
			return text
		}
		text = out
	}
}
