package config

import "strings"

// 默认值常量
const (
	defaultAppEnv            = "dev"
	defaultAppLogLevel       = "info"
	defaultAppLogFormat      = "text"
	defaultAppHTTPAddr       = ":3000"
	defaultLLMProvider       = "ollama"
	defaultLLMAPIURL         = "http://localhost:11434"
	defaultLLMModel          = "qwen3"
	defaultLLMTempSQL        = 0.1
	defaultLLMTempAnswer     = 0.3
	defaultLLMTimeout        = 120
	defaultLLMMaxRetries     = 2
	defaultLLMBreaker        = 5
	defaultLLMBreakerCool    = 30
	defaultLLMSummaryRows    = 5
	defaultDBDriver          = "pgx"
	defaultDBQueryTimeout    = 30
	defaultDBMaxRows         = 1000
	defaultDBMaxOpenConns    = 4
	defaultChartWidth        = 800
	defaultChartHeight       = 600
	defaultChartMarginTop    = 60
	defaultChartMarginRight  = 40
	defaultChartMarginBottom = 100
	defaultChartMarginLeft   = 80
	defaultChartBackground   = "#ffffff"
	defaultHistoryPath       = "data/history.db"
	defaultCachePath         = "data/cache"
	defaultCacheTTL          = 3600
)

// Default 返回仅包含默认值的配置，用于未提供配置文件的场景。
func Default() *Config {
	var cfg Config
	cfg.applyDefaults(nil)
	return &cfg
}

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.LLM.applyDefaults(keys)
	c.Database.applyDefaults(keys)
	c.Chart.applyDefaults(keys)
	c.History.applyDefaults(keys)
	c.Cache.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_format", &a.LogFormat, defaultAppLogFormat),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
	)
}

func (l *LLMConfig) applyDefaults(keys keySet) {
	if l == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("llm.provider", &l.Provider, defaultLLMProvider),
		stringFieldDefault("llm.api_url", &l.APIURL, defaultLLMAPIURL),
		stringFieldDefault("llm.model", &l.Model, defaultLLMModel),
		floatFieldDefault("llm.temperature_sql", &l.TemperatureSQL, defaultLLMTempSQL),
		floatFieldDefault("llm.temperature_answer", &l.TemperatureAnswer, defaultLLMTempAnswer),
		intFieldDefault("llm.timeout_seconds", &l.TimeoutSeconds, defaultLLMTimeout),
		intFieldDefault("llm.max_retries", &l.MaxRetries, defaultLLMMaxRetries),
		intFieldDefault("llm.breaker_threshold", &l.BreakerThreshold, defaultLLMBreaker),
		intFieldDefault("llm.breaker_cooldown_seconds", &l.BreakerCooldownSeconds, defaultLLMBreakerCool),
		intFieldDefault("llm.summary_rows", &l.SummaryRows, defaultLLMSummaryRows),
		boolFieldDefault("llm.no_think", &l.NoThink, true),
	)
	l.Provider = strings.ToLower(strings.TrimSpace(l.Provider))
}

func (d *DatabaseConfig) applyDefaults(keys keySet) {
	if d == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("database.driver", &d.Driver, defaultDBDriver),
		intFieldDefault("database.query_timeout_seconds", &d.QueryTimeoutSeconds, defaultDBQueryTimeout),
		intFieldDefault("database.max_rows", &d.MaxRows, defaultDBMaxRows),
		intFieldDefault("database.max_open_conns", &d.MaxOpenConns, defaultDBMaxOpenConns),
		boolFieldDefault("database.read_only_tx", &d.ReadOnlyTx, true),
	)
	d.Driver = strings.ToLower(strings.TrimSpace(d.Driver))
	if d.Driver == "postgres" || d.Driver == "postgresql" {
		d.Driver = "pgx"
	}
}

func (c *ChartConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("chart.width", &c.Width, defaultChartWidth),
		intFieldDefault("chart.height", &c.Height, defaultChartHeight),
		floatFieldDefault("chart.margin_top", &c.MarginTop, defaultChartMarginTop),
		floatFieldDefault("chart.margin_right", &c.MarginRight, defaultChartMarginRight),
		floatFieldDefault("chart.margin_bottom", &c.MarginBottom, defaultChartMarginBottom),
		floatFieldDefault("chart.margin_left", &c.MarginLeft, defaultChartMarginLeft),
		stringFieldDefault("chart.background", &c.Background, defaultChartBackground),
	)
}

func (h *HistoryConfig) applyDefaults(keys keySet) {
	if h == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("history.enabled", &h.Enabled, true),
		stringFieldDefault("history.path", &h.Path, defaultHistoryPath),
	)
}

func (c *CacheConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("cache.path", &c.Path, defaultCachePath),
		intFieldDefault("cache.ttl_seconds", &c.TTLSeconds, defaultCacheTTL),
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return target != nil && *target <= 0 },
		apply: func() { *target = def },
	}
}

// floatFieldDefault 仅在未显式配置时生效，显式写 0 会被保留。
func floatFieldDefault(key string, target *float64, def float64) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return target != nil && *target == 0 },
		apply: func() { *target = def },
	}
}
