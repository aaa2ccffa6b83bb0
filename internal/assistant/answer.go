package assistant

import (
	"sqlchat/internal/chart"
	"sqlchat/internal/resultset"
	"sqlchat/internal/statement"
)

type Kind string

const (
	KindText   Kind = "text"
	KindTable  Kind = "table"
	KindNumber Kind = "number"
	KindChart  Kind = "chart"
)

const (
	NoDataMessage      = "No data found for your query."
	ChartFailedMessage = "could not render chart"
)

type Request struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Role      string `json:"role,omitempty"`
}

// ChartResult carries a rendered chart as a data URI, or the reason it is
// missing.
type ChartResult struct {
	Type   chart.Type `json:"type"`
	Base64 string     `json:"base64,omitempty"`
	Width  int        `json:"width,omitempty"`
	Height int        `json:"height,omitempty"`
	Error  string     `json:"error,omitempty"`
}

func (c *ChartResult) Rendered() bool {
	return c != nil && c.Base64 != ""
}

// Answer is the full outcome of one question. Pipeline failures are
// reported through Success=false and Message, never as Go errors.
type Answer struct {
	Success   bool               `json:"success"`
	Kind      Kind               `json:"kind"`
	Message   string             `json:"message"`
	Statement string             `json:"sql,omitempty"`
	Verdict   *statement.Verdict `json:"verdict,omitempty"`
	Columns   []string           `json:"columns"`
	Rows      []resultset.Row    `json:"rows"`
	Truncated bool               `json:"truncated,omitempty"`
	Chart     *ChartResult       `json:"chart,omitempty"`
	Coercions []chart.Coercion   `json:"coercions,omitempty"`
	SessionID string             `json:"session_id"`
	TraceID   string             `json:"trace_id"`
	UserID    string             `json:"user_id,omitempty"`
	Role      string             `json:"role,omitempty"`
	Cached    bool               `json:"cached,omitempty"`
	ElapsedMs int64              `json:"elapsed_ms"`

	failure string
}

func (a *Answer) fail(msg string, err error) {
	a.Success = false
	a.Message = msg
	if err != nil {
		a.failure = err.Error()
	} else {
		a.failure = msg
	}
}

func kindOf(a *Answer) Kind {
	switch {
	case a.Chart.Rendered():
		return KindChart
	case len(a.Rows) == 1 && len(a.Columns) == 1:
		return KindNumber
	case len(a.Rows) > 1:
		return KindTable
	default:
		return KindText
	}
}
