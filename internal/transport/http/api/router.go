package apihttp

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sqlchat/internal/assistant"
	"sqlchat/internal/chart"
	"sqlchat/internal/export"
	"sqlchat/internal/logger"
	"sqlchat/internal/resultset"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type Router struct {
	assistant Assistant
}

func NewRouter(a Assistant) *Router {
	return &Router{assistant: a}
}

// Register 挂载全部路由。
func (r *Router) Register(router *gin.Engine) {
	router.GET("/", r.handleInfo)
	router.GET("/health", r.handleHealth)

	api := router.Group("/api")
	api.GET("/schema", r.handleSchema)
	api.GET("/tables", r.handleTables)
	api.GET("/examples", r.handleExamples)
	api.GET("/chart/types", r.handleChartTypes)
	api.GET("/history", r.handleHistory)
	api.POST("/query", r.handleQuery)
	api.POST("/chat", r.handleChat)
	api.POST("/chart", r.handleChart)
	api.POST("/statement/check", r.handleCheck)
	api.POST("/export", r.handleExport)
}

func (r *Router) handleInfo(c *gin.Context) {
	cat := r.assistant.Catalog()
	c.JSON(http.StatusOK, gin.H{
		"service":      "sqlchat",
		"catalog":      cat.Name,
		"model":        r.assistant.Model(),
		"charts":       chart.Types(),
		"chart_format": "base64",
		"tables":       cat.Tables,
		"endpoints": []string{
			"POST /api/query",
			"POST /api/chat",
			"POST /api/chart",
			"POST /api/statement/check",
			"POST /api/export",
			"GET /api/chart/types",
			"GET /api/schema",
			"GET /api/tables",
			"GET /api/examples",
			"GET /api/history",
		},
	})
}

func (r *Router) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	status, code, db := "ok", http.StatusOK, "ok"
	if err := r.assistant.Ping(ctx); err != nil {
		logger.Warnf("health: database ping failed: %v", err)
		status, code, db = "degraded", http.StatusServiceUnavailable, "unavailable"
	}
	c.JSON(code, gin.H{
		"status":     status,
		"components": gin.H{"api": "ok", "database": db},
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

func (r *Router) handleSchema(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"schema": r.assistant.Catalog().Schema})
}

func (r *Router) handleTables(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tables": r.assistant.Catalog().Tables})
}

func (r *Router) handleExamples(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"examples": r.assistant.Catalog().Examples})
}

func (r *Router) handleChartTypes(c *gin.Context) {
	desc := make(map[chart.Type]string)
	for _, t := range chart.Types() {
		desc[t] = t.Description()
	}
	c.JSON(http.StatusOK, gin.H{"types": chart.Types(), "descriptions": desc})
}

func (r *Router) handleHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	rows, err := r.assistant.History(c.Request.Context(), strings.TrimSpace(c.Query("session_id")), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	items := make([]historyItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, toHistoryItem(row))
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (r *Router) handleQuery(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req assistant.Request
	if err := decodeChecked(raw, querySchema, &req); err != nil {
		badRequest(c, err.Error())
		return
	}
	ans, err := r.assistant.Ask(c.Request.Context(), req)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, ans)
}

func (r *Router) handleChat(c *gin.Context) {
	if !isJSON(c) {
		c.JSON(http.StatusBadRequest, chatFailure(nil, "Content-Type must be application/json"))
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, chatFailure(nil, "invalid JSON body"))
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		c.JSON(http.StatusBadRequest, chatFailure(&sessionID, "the 'message' field is required and cannot be empty"))
		return
	}
	ans, err := r.assistant.Ask(c.Request.Context(), assistant.Request{
		Question:  msg,
		SessionID: sessionID,
		UserID:    req.UserID,
		Role:      req.Role,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, chatFailure(&sessionID, err.Error()))
		return
	}
	resp := toChatResponse(ans)
	logger.Infof("chat session=%s success=%t rows=%d chart=%t", ans.SessionID, resp.Success, resp.TotalRows, resp.HasChart)
	c.JSON(http.StatusOK, resp)
}

func toChatResponse(ans *assistant.Answer) chatResponse {
	resp := chatResponse{
		Success:   ans.Success,
		SessionID: &ans.SessionID,
		Message:   ans.Message,
		Rows:      ans.Rows,
		Columns:   ans.Columns,
		TotalRows: len(ans.Rows),
	}
	if ans.Statement != "" {
		resp.SQL = &ans.Statement
	}
	if ans.Chart.Rendered() {
		t := ans.Chart.Type
		resp.ChartType = &t
		resp.HasChart = true
		resp.ChartBase64 = &ans.Chart.Base64
		return resp
	}
	if ans.Success && len(ans.Columns) >= 2 {
		if t, ok := chart.Suggest(len(ans.Rows), len(ans.Columns)); ok {
			resp.ChartType = &t
		}
	}
	return resp
}

func chatFailure(sessionID *string, msg string) chatResponse {
	if sessionID != nil && *sessionID == "" {
		sessionID = nil
	}
	return chatResponse{SessionID: sessionID, Message: msg, Rows: []resultset.Row{}, Columns: []string{}}
}

func (r *Router) handleChart(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req chartRequest
	if err := decodeChecked(raw, chartSchema, &req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if strings.TrimSpace(req.Type) == "" {
		req.Type = string(chart.TypeBar)
	}
	t, err := chart.ParseType(req.Type)
	if err != nil {
		c.JSON(http.StatusOK, chartResponse{Error: unsupportedTypeMessage()})
		return
	}
	rendered, coercions := r.assistant.RenderRows(t, req.Rows, chart.Binding{LabelColumn: req.LabelColumn, ValueColumn: req.ValueColumn})
	if rendered == nil {
		c.JSON(http.StatusOK, chartResponse{Type: t, Error: assistant.ChartFailedMessage, Coercions: coercions})
		return
	}
	c.JSON(http.StatusOK, chartResponse{Success: true, Type: t, Base64: rendered.DataURI(), Coercions: coercions})
}

func unsupportedTypeMessage() string {
	names := make([]string, 0, 4)
	for _, t := range chart.Types() {
		names = append(names, string(t))
	}
	return "unsupported chart type. Use: " + strings.Join(names, ", ")
}

func (r *Router) handleCheck(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req checkRequest
	if err := decodeChecked(raw, checkSchema, &req); err != nil {
		badRequest(c, err.Error())
		return
	}
	stmt, verdict := r.assistant.Check(req.SQL)
	c.JSON(http.StatusOK, checkResponse{SQL: stmt, Verdict: verdict})
}

func (r *Router) handleExport(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req exportRequest
	if err := decodeChecked(raw, exportSchema, &req); err != nil {
		badRequest(c, err.Error())
		return
	}
	report := export.Report{
		Question:  req.Question,
		Statement: req.SQL,
		Columns:   req.Columns,
		Rows:      req.Rows,
		CreatedAt: time.Now(),
	}
	rendered, err := r.exportChart(req)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	report.Chart = rendered

	var buf bytes.Buffer
	if err := export.Write(&buf, report); err != nil {
		logger.Errorf("export failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	name := fmt.Sprintf("sqlchat-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// exportChart reuses a chart the client already has, or draws one when only
// the type is given.
func (r *Router) exportChart(req exportRequest) (*chart.Rendered, error) {
	if strings.TrimSpace(req.ChartType) == "" {
		return nil, nil
	}
	t, err := chart.ParseType(req.ChartType)
	if err != nil {
		return nil, errors.New(unsupportedTypeMessage())
	}
	if req.ChartBase64 != "" {
		return clientChart(t, req.ChartBase64)
	}
	rendered, _ := r.assistant.RenderRows(t, req.Rows, chart.Binding{})
	return rendered, nil
}

// clientChart accepts a PNG as bare base64 or as a data URI.
func clientChart(t chart.Type, raw string) (*chart.Rendered, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "data:image/png;base64,")
	img, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, errors.New("chart_base64 is not valid base64")
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return nil, errors.New("chart_base64 is not a PNG image")
	}
	return &chart.Rendered{Type: t, MIMEType: "image/png", Base64: raw, Width: cfg.Width, Height: cfg.Height}, nil
}

func isJSON(c *gin.Context) bool {
	mt, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
	return err == nil && mt == "application/json"
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msg})
}
