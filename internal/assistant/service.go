// Package assistant runs the question pipeline: intent detection, statement
// generation, sanitising, validation, execution, charting and the answer
// summary.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"sqlchat/internal/cache"
	"sqlchat/internal/catalog"
	"sqlchat/internal/chart"
	"sqlchat/internal/gateway/database"
	"sqlchat/internal/gateway/provider"
	"sqlchat/internal/intent"
	"sqlchat/internal/logger"
	"sqlchat/internal/pkg/convert"
	"sqlchat/internal/pkg/text"
	"sqlchat/internal/prompt"
	"sqlchat/internal/resultset"
	"sqlchat/internal/statement"
	"sqlchat/internal/store"
	"sqlchat/internal/store/model"
)

var ErrEmptyQuestion = errors.New("question is required")

// logTextMax 限制日志里问题与 SQL 的长度。
const logTextMax = 400

type CatalogSource interface {
	Current() catalog.Catalog
}

// StatementCache is satisfied by *cache.StatementCache.
type StatementCache interface {
	Get(ctx context.Context, model, question string) (cache.Entry, bool, error)
	Put(ctx context.Context, model, question, statement string) error
	Invalidate(ctx context.Context, model, question string) error
}

type Options struct {
	TemperatureSQL    float64
	TemperatureAnswer float64
	NoThink           bool
	SampleRows        int
	RowLimit          int
}

type Deps struct {
	Provider  provider.ModelProvider
	Executor  database.Executor
	Engine    *chart.Engine
	Validator *statement.Validator
	Catalog   CatalogSource
	Cache     StatementCache
	History   store.HistoryRepository
	Options   Options
}

type Service struct {
	provider  provider.ModelProvider
	executor  database.Executor
	engine    *chart.Engine
	validator *statement.Validator
	catalog   CatalogSource
	cache     StatementCache
	history   store.HistoryRepository
	opts      Options
	now       func() time.Time
}

func New(d Deps) (*Service, error) {
	if d.Provider == nil {
		return nil, fmt.Errorf("assistant requires a model provider")
	}
	if d.Executor == nil {
		return nil, fmt.Errorf("assistant requires an executor")
	}
	if d.Engine == nil {
		return nil, fmt.Errorf("assistant requires a chart engine")
	}
	if d.Catalog == nil {
		return nil, fmt.Errorf("assistant requires a catalog")
	}
	if d.Validator == nil {
		d.Validator = statement.NewValidator()
	}
	return &Service{
		provider:  d.Provider,
		executor:  d.Executor,
		engine:    d.Engine,
		validator: d.Validator,
		catalog:   d.Catalog,
		cache:     d.Cache,
		history:   d.History,
		opts:      d.Options,
		now:       time.Now,
	}, nil
}

// Ask answers one question. The only error is ErrEmptyQuestion; every other
// failure comes back inside the Answer.
func (s *Service) Ask(ctx context.Context, req Request) (*Answer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	start := s.now()
	ans := &Answer{
		Kind:      KindText,
		Columns:   []string{},
		Rows:      []resultset.Row{},
		SessionID: strings.TrimSpace(req.SessionID),
		TraceID:   uuid.NewString(),
		UserID:    req.UserID,
		Role:      req.Role,
	}
	if ans.SessionID == "" {
		ans.SessionID = uuid.NewString()
	}
	defer func() {
		ans.ElapsedMs = s.now().Sub(start).Milliseconds()
		s.record(ctx, question, ans)
	}()

	logger.Infof("[%s] question: %s", short(ans.TraceID), text.Truncate(question, logTextMax))
	cat := s.catalog.Current()
	want := intent.NewDetector(cat.Chart).Detect(question)
	if want.Chart {
		logger.Infof("[%s] chart requested: %s (keyword %q)", short(ans.TraceID), want.Type, want.Keyword)
	}

	stmt, cached, err := s.statementFor(ctx, cat, question, want)
	if err != nil {
		ans.fail("Error: "+err.Error(), err)
		return ans, nil
	}
	ans.Statement = stmt
	ans.Cached = cached
	logger.Infof("[%s] SQL: %s", short(ans.TraceID), text.Truncate(stmt, logTextMax))

	verdict := s.validator.Validate(stmt)
	ans.Verdict = &verdict
	if !verdict.Accepted {
		logger.Warnf("[%s] statement rejected (%s): %s", short(ans.TraceID), verdict.Reason, verdict.Message)
		ans.fail("SQL rejected: "+verdict.Message, nil)
		if cached {
			s.forget(ctx, question)
		}
		return ans, nil
	}

	res, err := s.executor.Query(ctx, stmt)
	if err != nil {
		ans.fail("Error: "+err.Error(), err)
		if cached && ctx.Err() == nil {
			s.forget(ctx, question)
		}
		return ans, nil
	}
	if !cached {
		s.remember(ctx, question, stmt)
	}
	if res.Columns != nil {
		ans.Columns = res.Columns
	}
	if res.Rows != nil {
		ans.Rows = res.Rows
	}
	ans.Truncated = res.Truncated
	logger.Infof("[%s] %s rows in %s", short(ans.TraceID), humanize.Comma(int64(len(res.Rows))), res.Elapsed.Round(time.Millisecond))

	if want.Chart && len(res.Rows) > 0 {
		ans.Chart, ans.Coercions = s.chartFor(want.Type, res.Columns, res.Rows)
	}

	ans.Message = s.summarize(ctx, question, res.Rows)
	ans.Kind = kindOf(ans)
	ans.Success = true
	return ans, nil
}

func (s *Service) statementFor(ctx context.Context, cat catalog.Catalog, question string, want intent.Intent) (string, bool, error) {
	modelName := s.provider.Model()
	if s.cache != nil {
		entry, ok, err := s.cache.Get(ctx, modelName, question)
		switch {
		case err != nil:
			logger.Warnf("statement cache lookup failed: %v", err)
		case ok:
			return entry.Statement, true, nil
		}
	}
	p := prompt.SQL(cat, question, want, prompt.Options{NoThink: s.opts.NoThink, RowLimit: s.opts.RowLimit})
	raw, err := s.provider.Chat(ctx, provider.ChatRequest{
		Prompt:      p,
		Temperature: s.opts.TemperatureSQL,
		Purpose:     "sql",
	})
	if err != nil {
		return "", false, fmt.Errorf("generate statement: %w", err)
	}
	return statement.Sanitize(raw), false, nil
}

func (s *Service) remember(ctx context.Context, question, stmt string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, s.provider.Model(), question, stmt); err != nil {
		logger.Warnf("statement cache store failed: %v", err)
	}
}

// chartFor binds by the label/value aliases when the model used them and
// falls back to column position otherwise.
// forget drops a cached statement that no longer validates or runs, e.g.
// after the schema changed underneath it.
func (s *Service) forget(ctx context.Context, question string) {
	if err := s.cache.Invalidate(ctx, s.provider.Model(), question); err != nil {
		logger.Warnf("statement cache invalidate failed: %v", err)
	}
}

func (s *Service) chartFor(t chart.Type, columns []string, rows []resultset.Row) (*ChartResult, []chart.Coercion) {
	binding := chart.Binding{}
	if hasColumn(columns, prompt.LabelAlias) && hasColumn(columns, prompt.ValueAlias) {
		binding = chart.Binding{LabelColumn: prompt.LabelAlias, ValueColumn: prompt.ValueAlias}
	}
	rendered, coercions := s.RenderRows(t, rows, binding)
	if len(coercions) > 0 {
		logger.Warnf("chart %s: %d values coerced to 0", t, len(coercions))
	}
	if rendered == nil {
		return &ChartResult{Type: t, Error: ChartFailedMessage}, coercions
	}
	uri := rendered.DataURI()
	logger.Infof("chart %s rendered (%s)", t, humanize.Bytes(uint64(len(uri))))
	return &ChartResult{Type: t, Base64: uri, Width: rendered.Width, Height: rendered.Height}, coercions
}

// RenderRows normalises rows and draws them. A nil chart means drawing
// failed; the engine has already logged why.
func (s *Service) RenderRows(t chart.Type, rows []resultset.Row, binding chart.Binding) (*chart.Rendered, []chart.Coercion) {
	points, coercions := chart.Normalize(rows, t.Shape(), binding)
	return s.engine.Render(t, points), coercions
}

func (s *Service) summarize(ctx context.Context, question string, rows []resultset.Row) string {
	switch {
	case len(rows) == 0:
		return NoDataMessage
	case len(rows) == 1 && rows[0].Len() == 1:
		return "The result is: " + convert.ToText(rows[0].At(0))
	}
	p, err := prompt.Answer(question, rows, prompt.Options{NoThink: s.opts.NoThink, SampleRows: s.opts.SampleRows})
	if err != nil {
		logger.Warnf("answer prompt: %v", err)
		return fallbackSummary(len(rows))
	}
	out, err := s.provider.Chat(ctx, provider.ChatRequest{
		Prompt:      p,
		Temperature: s.opts.TemperatureAnswer,
		Purpose:     "answer",
	})
	if err != nil {
		logger.Warnf("answer summary failed: %v", err)
		return fallbackSummary(len(rows))
	}
	out = strings.TrimSpace(statement.StripReasoning(out))
	if out == "" {
		return fallbackSummary(len(rows))
	}
	return out
}

func fallbackSummary(n int) string {
	return fmt.Sprintf("Found %s rows.", humanize.Comma(int64(n)))
}

// Check sanitises raw model output and validates it without running it.
func (s *Service) Check(raw string) (string, statement.Verdict) {
	stmt := statement.Sanitize(raw)
	return stmt, s.validator.Validate(stmt)
}

// History lists stored runs, newest first; empty session lists all.
func (s *Service) History(ctx context.Context, sessionID string, limit int) ([]model.QueryLogModel, error) {
	if s.history == nil {
		return nil, nil
	}
	if strings.TrimSpace(sessionID) != "" {
		return s.history.ListBySession(ctx, sessionID, limit)
	}
	return s.history.ListRecent(ctx, limit)
}

func (s *Service) Catalog() catalog.Catalog {
	return s.catalog.Current()
}

func (s *Service) Ping(ctx context.Context) error {
	return s.executor.Ping(ctx)
}

func (s *Service) Model() string {
	return s.provider.Model()
}

func (s *Service) record(ctx context.Context, question string, ans *Answer) {
	if s.history == nil {
		return
	}
	rec := &model.QueryLogModel{
		SessionID:  ans.SessionID,
		TraceID:    ans.TraceID,
		Question:   question,
		Statement:  ans.Statement,
		Kind:       string(ans.Kind),
		RowCount:   len(ans.Rows),
		Error:      ans.failure,
		DurationMs: ans.ElapsedMs,
		CreatedAt:  s.now().UnixMilli(),
	}
	if ans.Verdict != nil {
		rec.Accepted = ans.Verdict.Accepted
		rec.Reason = string(ans.Verdict.Reason)
	}
	if ans.Chart != nil {
		rec.ChartType = string(ans.Chart.Type)
	}
	if len(ans.Coercions) > 0 {
		if raw, err := json.Marshal(ans.Coercions); err == nil {
			rec.Coercions = datatypes.JSON(raw)
		}
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.history.Insert(saveCtx, rec); err != nil {
		logger.Warnf("history insert failed trace=%s: %v", ans.TraceID, err)
	}
}

func hasColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
