package apihttp

import (
	"context"

	"sqlchat/internal/assistant"
	"sqlchat/internal/catalog"
	"sqlchat/internal/chart"
	"sqlchat/internal/resultset"
	"sqlchat/internal/statement"
	"sqlchat/internal/store/model"
)

// Assistant 由 *assistant.Service 实现。
type Assistant interface {
	Ask(ctx context.Context, req assistant.Request) (*assistant.Answer, error)
	Check(raw string) (string, statement.Verdict)
	RenderRows(t chart.Type, rows []resultset.Row, binding chart.Binding) (*chart.Rendered, []chart.Coercion)
	History(ctx context.Context, sessionID string, limit int) ([]model.QueryLogModel, error)
	Catalog() catalog.Catalog
	Ping(ctx context.Context) error
	Model() string
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
}

// chatResponse is the flat envelope chat front ends consume.
type chatResponse struct {
	Success     bool            `json:"success"`
	SessionID   *string         `json:"session_id"`
	Message     string          `json:"message"`
	SQL         *string         `json:"sql"`
	Rows        []resultset.Row `json:"rows"`
	Columns     []string        `json:"columns"`
	TotalRows   int             `json:"total_rows"`
	ChartType   *chart.Type     `json:"chart_type"`
	HasChart    bool            `json:"has_chart"`
	ChartBase64 *string         `json:"chart_base64"`
}

type chartRequest struct {
	Type        string          `json:"type"`
	Rows        []resultset.Row `json:"rows"`
	LabelColumn string          `json:"label_column"`
	ValueColumn string          `json:"value_column"`
}

type chartResponse struct {
	Success   bool             `json:"success"`
	Type      chart.Type       `json:"type,omitempty"`
	Base64    string           `json:"base64,omitempty"`
	Coercions []chart.Coercion `json:"coercions,omitempty"`
	Error     string           `json:"error,omitempty"`
}

type checkRequest struct {
	SQL string `json:"sql"`
}

type checkResponse struct {
	SQL     string            `json:"sql"`
	Verdict statement.Verdict `json:"verdict"`
}

type exportRequest struct {
	Question    string          `json:"question"`
	SQL         string          `json:"sql"`
	Columns     []string        `json:"columns"`
	Rows        []resultset.Row `json:"rows"`
	ChartType   string          `json:"chart_type"`
	ChartBase64 string          `json:"chart_base64"`
}

type historyItem struct {
	ID         int64  `json:"id"`
	SessionID  string `json:"session_id"`
	TraceID    string `json:"trace_id"`
	Question   string `json:"question"`
	SQL        string `json:"sql"`
	Accepted   bool   `json:"accepted"`
	Reason     string `json:"reason,omitempty"`
	Kind       string `json:"kind"`
	RowCount   int    `json:"row_count"`
	ChartType  string `json:"chart_type,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	CreatedAt  int64  `json:"created_at"`
}

func toHistoryItem(m model.QueryLogModel) historyItem {
	return historyItem{
		ID:         m.ID,
		SessionID:  m.SessionID,
		TraceID:    m.TraceID,
		Question:   m.Question,
		SQL:        m.Statement,
		Accepted:   m.Accepted,
		Reason:     m.Reason,
		Kind:       m.Kind,
		RowCount:   m.RowCount,
		ChartType:  m.ChartType,
		Error:      m.Error,
		DurationMs: m.DurationMs,
		CreatedAt:  m.CreatedAt,
	}
}
