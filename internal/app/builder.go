package app

import (
	"context"
	"fmt"
	"image/color"
	"strings"
	"time"

	"sqlchat/internal/assistant"
	"sqlchat/internal/cache"
	"sqlchat/internal/catalog"
	"sqlchat/internal/chart"
	"sqlchat/internal/chart/canvas"
	"sqlchat/internal/config"
	"sqlchat/internal/gateway/database"
	"sqlchat/internal/gateway/provider"
	"sqlchat/internal/logger"
	"sqlchat/internal/statement"
	"sqlchat/internal/store"
	"sqlchat/internal/store/gormstore"
	apihttp "sqlchat/internal/transport/http/api"
)

const (
	cacheGCInterval = 10 * time.Minute
	// promptRowLimit 是提示词中建议的 LIMIT 上限，不会超过 database.max_rows。
	promptRowLimit = 100
)

type AppBuilder struct {
	cfg *config.Config

	providerFn func(config.LLMConfig) (provider.ModelProvider, error)
	executorFn func(context.Context, config.DatabaseConfig) (database.Executor, error)
	storeFn    func(config.HistoryConfig) (store.Store, error)
	cacheFn    func(config.CacheConfig) (*cache.StatementCache, error)
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:        cfg,
		providerFn: provider.New,
		executorFn: openExecutor,
		storeFn:    openStore,
		cacheFn:    openCache,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func WithProvider(fn func(config.LLMConfig) (provider.ModelProvider, error)) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.providerFn = fn
		}
	}
}

func WithExecutor(fn func(context.Context, config.DatabaseConfig) (database.Executor, error)) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.executorFn = fn
		}
	}
}

func WithStore(fn func(config.HistoryConfig) (store.Store, error)) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.storeFn = fn
		}
	}
}

func openExecutor(ctx context.Context, cfg config.DatabaseConfig) (database.Executor, error) {
	return database.Open(ctx, cfg)
}

func openStore(cfg config.HistoryConfig) (store.Store, error) {
	return gormstore.NewGormStore(cfg.Path)
}

func openCache(cfg config.CacheConfig) (*cache.StatementCache, error) {
	return cache.Open(cache.Options{
		Dir:        cfg.Path,
		InMemory:   cfg.InMemory,
		TTL:        cfg.TTL(),
		GCInterval: cacheGCInterval,
	})
}

func (b *AppBuilder) Build(ctx context.Context) (_ *App, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	a := &App{cfg: cfg}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	chartCfg, err := ChartConfig(cfg.Chart)
	if err != nil {
		return nil, err
	}
	engine, err := chart.NewEngine(chartCfg)
	if err != nil {
		return nil, fmt.Errorf("init chart engine: %w", err)
	}
	validator := NewValidator(cfg.Statement)

	registry, err := catalog.NewRegistry(cfg.Catalog.Path, cfg.Catalog.Watch)
	if err != nil {
		return nil, err
	}
	cat := registry.Current()
	logger.Infof("✓ 目录 %q: %d 张表, %d 条术语", cat.Name, len(cat.Tables), len(cat.Glossary))

	llm, err := b.providerFn(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("init llm provider: %w", err)
	}

	exec, err := b.executorFn(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	a.closers = append(a.closers, exec.Close)
	logger.Infof("✓ 数据库已连接 driver=%s max_rows=%d", cfg.Database.Driver, cfg.Database.MaxRows)

	var history store.HistoryRepository
	if cfg.History.Enabled {
		st, err := b.storeFn(cfg.History)
		if err != nil {
			return nil, fmt.Errorf("init history store: %w", err)
		}
		a.closers = append(a.closers, st.Close)
		history = st.History()
		logger.Infof("✓ 查询历史写入 %s", cfg.History.Path)
	}

	var stmtCache assistant.StatementCache
	if cfg.Cache.Enabled {
		c, err := b.cacheFn(cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("init statement cache: %w", err)
		}
		a.closers = append(a.closers, c.Close)
		registry.OnChange(func(s catalog.Snapshot) {
			if err := c.Clear(); err != nil {
				logger.Warnf("statement cache clear failed: %v", err)
				return
			}
			logger.Infof("catalog v%d loaded, statement cache cleared", s.Version)
		})
		stmtCache = c
	}

	svc, err := assistant.New(assistant.Deps{
		Provider:  llm,
		Executor:  exec,
		Engine:    engine,
		Validator: validator,
		Catalog:   registry,
		Cache:     stmtCache,
		History:   history,
		Options: assistant.Options{
			TemperatureSQL:    cfg.LLM.TemperatureSQL,
			TemperatureAnswer: cfg.LLM.TemperatureAnswer,
			NoThink:           cfg.LLM.NoThink,
			SampleRows:        cfg.LLM.SummaryRows,
			RowLimit:          rowLimit(cfg.Database.MaxRows),
		},
	})
	if err != nil {
		return nil, err
	}
	a.service = svc

	server, err := apihttp.NewServer(apihttp.ServerConfig{
		Addr:        cfg.App.HTTPAddr,
		Assistant:   svc,
		CORSOrigins: cfg.App.CORSOrigins,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 HTTP 失败: %w", err)
	}
	a.http = server
	a.Summary = newStartupSummary(cfg, cat, llm, validator)
	return a, nil
}

// ChartConfig turns the file settings into an engine configuration on top
// of the defaults.
func ChartConfig(cfg config.ChartConfig) (chart.Config, error) {
	out := chart.DefaultConfig()
	if cfg.Width > 0 {
		out.Width = cfg.Width
	}
	if cfg.Height > 0 {
		out.Height = cfg.Height
	}
	out.Margins = chart.Margins{
		Top:    cfg.MarginTop,
		Right:  cfg.MarginRight,
		Bottom: cfg.MarginBottom,
		Left:   cfg.MarginLeft,
	}
	if len(cfg.Palette) > 0 {
		palette := make([]color.RGBA, 0, len(cfg.Palette))
		for _, h := range cfg.Palette {
			c, err := canvas.ParseHex(h)
			if err != nil {
				return chart.Config{}, fmt.Errorf("chart.palette: %w", err)
			}
			palette = append(palette, c)
		}
		out.Palette = palette
	}
	if strings.TrimSpace(cfg.Background) != "" {
		bg, err := canvas.ParseHex(cfg.Background)
		if err != nil {
			return chart.Config{}, fmt.Errorf("chart.background: %w", err)
		}
		out.Background = bg
	}
	if err := out.Validate(); err != nil {
		return chart.Config{}, err
	}
	return out, nil
}

func rowLimit(maxRows int) int {
	if maxRows > 0 && maxRows < promptRowLimit {
		return maxRows
	}
	return promptRowLimit
}

func NewValidator(cfg config.StatementConfig) *statement.Validator {
	return statement.NewValidator(statement.WithForbiddenKeywords(cfg.ExtraForbidden...))
}
