package apihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sqlchat/internal/assistant"
	"sqlchat/internal/catalog"
	"sqlchat/internal/chart"
	"sqlchat/internal/export"
	"sqlchat/internal/logger"
	"sqlchat/internal/resultset"
	"sqlchat/internal/statement"
	"sqlchat/internal/store/model"
)

type fakeAssistant struct {
	engine  *chart.Engine
	answer  *assistant.Answer
	askErr  error
	pingErr error
	asked   []assistant.Request
	limit   int
	session string
}

func (f *fakeAssistant) Ask(_ context.Context, req assistant.Request) (*assistant.Answer, error) {
	f.asked = append(f.asked, req)
	if f.askErr != nil {
		return nil, f.askErr
	}
	ans := *f.answer
	if ans.SessionID == "" {
		ans.SessionID = req.SessionID
	}
	return &ans, nil
}

func (f *fakeAssistant) Check(raw string) (string, statement.Verdict) {
	stmt := statement.Sanitize(raw)
	return stmt, statement.Validate(stmt)
}

func (f *fakeAssistant) RenderRows(t chart.Type, rows []resultset.Row, b chart.Binding) (*chart.Rendered, []chart.Coercion) {
	points, coercions := chart.Normalize(rows, t.Shape(), b)
	return f.engine.Render(t, points), coercions
}

func (f *fakeAssistant) History(_ context.Context, sessionID string, limit int) ([]model.QueryLogModel, error) {
	f.limit, f.session = limit, sessionID
	return []model.QueryLogModel{{ID: 7, SessionID: sessionID, Question: "q", Statement: "SELECT 1;", Accepted: true}}, nil
}

func (f *fakeAssistant) Catalog() catalog.Catalog   { return catalog.Default() }
func (f *fakeAssistant) Ping(context.Context) error { return f.pingErr }
func (f *fakeAssistant) Model() string              { return "qwen3" }

func newTestServer(t *testing.T, a *fakeAssistant) http.Handler {
	t.Helper()
	engine, err := chart.NewEngine(chart.DefaultConfig())
	require.NoError(t, err)
	a.engine = engine
	srv, err := NewServer(ServerConfig{Assistant: a, CORSOrigins: []string{"http://app.local"}})
	require.NoError(t, err)
	return srv.Handler()
}

func do(h http.Handler, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestCatalogEndpoints(t *testing.T) {
	h := newTestServer(t, &fakeAssistant{})

	w := do(h, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(h, http.MethodGet, "/api/tables", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"employees", "customers", "products", "sales"}, decode(t, w)["tables"])

	w = do(h, http.MethodGet, "/api/schema", "", "")
	assert.Contains(t, decode(t, w)["schema"], "Table: sales")

	w = do(h, http.MethodGet, "/api/examples", "", "")
	assert.Len(t, decode(t, w)["examples"], 9)

	w = do(h, http.MethodGet, "/api/chart/types", "", "")
	body := decode(t, w)
	assert.Equal(t, []any{"bar", "column", "line", "pie"}, body["types"])
	assert.Contains(t, body["descriptions"], "pie")

	w = do(h, http.MethodGet, "/", "", "")
	body = decode(t, w)
	assert.Equal(t, "qwen3", body["model"])
	assert.Equal(t, "base64", body["chart_format"])
}

func TestHealth(t *testing.T) {
	a := &fakeAssistant{}
	h := newTestServer(t, a)
	w := do(h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	a.pingErr = errors.New("connection refused")
	w = do(h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "degraded", decode(t, w)["status"])
}

func TestQuery(t *testing.T) {
	a := &fakeAssistant{answer: &assistant.Answer{
		Success: true, Kind: assistant.KindNumber, Message: "The result is: 3",
		Columns: []string{"n"}, Rows: []resultset.Row{resultset.NewRow([]string{"n"}, []any{3})},
	}}
	h := newTestServer(t, a)

	w := do(h, http.MethodPost, "/api/query", "application/json", `{"question":"how many?","user_id":"u1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "number", body["kind"])
	assert.Equal(t, []any{map[string]any{"n": float64(3)}}, body["rows"])
	require.Len(t, a.asked, 1)
	assert.Equal(t, "u1", a.asked[0].UserID)

	w = do(h, http.MethodPost, "/api/query", "application/json", `{"user_id":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["message"], "question")

	w = do(h, http.MethodPost, "/api/query", "application/json", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChat(t *testing.T) {
	t.Run("rejects non JSON", func(t *testing.T) {
		h := newTestServer(t, &fakeAssistant{})
		w := do(h, http.MethodPost, "/api/chat", "text/plain", "hi")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, false, body["success"])
		assert.Nil(t, body["session_id"])
	})

	t.Run("requires message", func(t *testing.T) {
		h := newTestServer(t, &fakeAssistant{})
		w := do(h, http.MethodPost, "/api/chat", "application/json", `{"message":"  ","session_id":"s9"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, "s9", body["session_id"])
		assert.Equal(t, float64(0), body["total_rows"])
	})

	t.Run("chart answer", func(t *testing.T) {
		a := &fakeAssistant{answer: &assistant.Answer{
			Success: true, Kind: assistant.KindChart, Statement: "SELECT 1;", SessionID: "s1",
			Columns: []string{"label", "value"},
			Rows:    []resultset.Row{resultset.NewRow([]string{"label", "value"}, []any{"a", 1})},
			Chart:   &assistant.ChartResult{Type: chart.TypeLine, Base64: "data:image/png;base64,AAAA"},
		}}
		h := newTestServer(t, a)
		w := do(h, http.MethodPost, "/api/chat", "application/json; charset=utf-8", `{"message":"line chart please"}`)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, true, body["has_chart"])
		assert.Equal(t, "line", body["chart_type"])
		assert.Equal(t, "data:image/png;base64,AAAA", body["chart_base64"])
		assert.Equal(t, "SELECT 1;", body["sql"])
		assert.Equal(t, float64(1), body["total_rows"])
	})

	t.Run("table answer gets a suggestion", func(t *testing.T) {
		cols := []string{"channel", "total"}
		rows := []resultset.Row{
			resultset.NewRow(cols, []any{"online", 10}),
			resultset.NewRow(cols, []any{"store", 5}),
			resultset.NewRow(cols, []any{"phone", 2}),
		}
		a := &fakeAssistant{answer: &assistant.Answer{Success: true, Kind: assistant.KindTable, Columns: cols, Rows: rows}}
		h := newTestServer(t, a)
		w := do(h, http.MethodPost, "/api/chat", "application/json", `{"message":"sales by channel","session_id":"abc"}`)
		body := decode(t, w)
		assert.Equal(t, false, body["has_chart"])
		assert.Equal(t, "pie", body["chart_type"])
		assert.Nil(t, body["chart_base64"])
		assert.Equal(t, "abc", body["session_id"])
	})
}

func TestChartEndpoint(t *testing.T) {
	h := newTestServer(t, &fakeAssistant{})

	w := do(h, http.MethodPost, "/api/chart", "application/json", `{"type":"radar","rows":[]}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "bar, column, line, pie")

	w = do(h, http.MethodPost, "/api/chart", "application/json", `{"rows":[{"p":"a","v":"x"},{"p":"b","v":2}]}`)
	body = decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "bar", body["type"])
	assert.True(t, strings.HasPrefix(body["base64"].(string), "data:image/png;base64,"))
	assert.Len(t, body["coercions"], 1)

	w = do(h, http.MethodPost, "/api/chart", "application/json", `{"type":"pie"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatementCheck(t *testing.T) {
	h := newTestServer(t, &fakeAssistant{})
	w := do(h, http.MethodPost, "/api/statement/check", "application/json", `{"sql":"SELECT * FROM sales -- all"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	verdict := body["verdict"].(map[string]any)
	assert.Equal(t, false, verdict["accepted"])
	assert.Equal(t, "COMMENT_INJECTION", verdict["reason"])
}

func TestExport(t *testing.T) {
	h := newTestServer(t, &fakeAssistant{})
	w := do(h, http.MethodPost, "/api/export", "application/json",
		`{"question":"sales","sql":"SELECT 1;","rows":[{"p":"a","v":1},{"p":"b","v":2}],"chart_type":"column"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{export.ResultSheet, export.ChartSheet, export.QuerySheet}, f.GetSheetList())

	w = do(h, http.MethodPost, "/api/export", "application/json", `{"rows":[],"chart_type":"donut"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	t.Run("client chart", func(t *testing.T) {
		a := &fakeAssistant{}
		h := newTestServer(t, a)
		pie := a.engine.Render(chart.TypePie, []chart.Point{{Label: "a", Value: 1}})
		require.NotNil(t, pie)

		for _, img := range []string{pie.Base64, pie.DataURI()} {
			body := fmt.Sprintf(`{"rows":[{"p":"a","v":1}],"chart_type":"pie","chart_base64":%q}`, img)
			w := do(h, http.MethodPost, "/api/export", "application/json", body)
			assert.Equal(t, http.StatusOK, w.Code)
		}
		for _, img := range []string{"not base64!!", "data:image/png;base64,AAAA"} {
			body := fmt.Sprintf(`{"rows":[{"p":"a","v":1}],"chart_type":"pie","chart_base64":%q}`, img)
			w := do(h, http.MethodPost, "/api/export", "application/json", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, img)
			assert.Contains(t, w.Body.String(), "chart_base64")
		}
	})
}

func TestHistoryEndpoint(t *testing.T) {
	a := &fakeAssistant{}
	h := newTestServer(t, a)
	w := do(h, http.MethodGet, "/api/history?session_id=s1&limit=9999", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, maxHistoryLimit, a.limit)
	assert.Equal(t, "s1", a.session)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["count"])
	item := body["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "SELECT 1;", item["sql"])
}

func TestRequestLog(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetFormat("json")
	logger.SetLevel("debug")
	t.Cleanup(func() {
		logger.SetFormat("text")
		logger.SetLevel("info")
		logger.SetOutput(nil)
	})

	h := newTestServer(t, &fakeAssistant{})
	w := do(h, http.MethodGet, "/healthz?verbose=1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, buf.String(), `"msg":"http request"`)
	assert.Contains(t, buf.String(), `"path":"/healthz?verbose=1"`)
	assert.Contains(t, buf.String(), `"status":200`)
}

func TestCORSAndCompression(t *testing.T) {
	h := newTestServer(t, &fakeAssistant{})

	req := httptest.NewRequest(http.MethodOptions, "/api/query", nil)
	req.Header.Set("Origin", "http://app.local")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://app.local", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodPost, "/api/chart", strings.NewReader(`{"type":"line","rows":[{"m":"1","v":3},{"m":"2","v":5}]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Origin", "http://evil.local")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
