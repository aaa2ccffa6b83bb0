package config

import (
	"strings"
	"time"
)

// Config 是 sqlchat 的主配置载体。
type Config struct {
	App       AppConfig       `toml:"app"`
	LLM       LLMConfig       `toml:"llm"`
	Database  DatabaseConfig  `toml:"database"`
	Chart     ChartConfig     `toml:"chart"`
	Catalog   CatalogConfig   `toml:"catalog"`
	Statement StatementConfig `toml:"statement"`
	History   HistoryConfig   `toml:"history"`
	Cache     CacheConfig     `toml:"cache"`
}

type AppConfig struct {
	Env         string   `toml:"env"`
	LogLevel    string   `toml:"log_level"`
	LogFormat   string   `toml:"log_format"`
	HTTPAddr    string   `toml:"http_addr"`
	LogPath     string   `toml:"log_path"`
	LLMLog      string   `toml:"llm_log_path"`
	LLMDump     bool     `toml:"llm_dump_payload"`
	CORSOrigins []string `toml:"cors_origins"`
}

// LLMConfig 描述用于生成 SQL 与回答摘要的模型服务。
type LLMConfig struct {
	Provider               string            `toml:"provider"`
	APIURL                 string            `toml:"api_url"`
	APIKey                 string            `toml:"api_key"`
	Model                  string            `toml:"model"`
	TemperatureSQL         float64           `toml:"temperature_sql"`
	TemperatureAnswer      float64           `toml:"temperature_answer"`
	TimeoutSeconds         int               `toml:"timeout_seconds"`
	MaxRetries             int               `toml:"max_retries"`
	Headers                map[string]string `toml:"headers"`
	BreakerThreshold       int               `toml:"breaker_threshold"`
	BreakerCooldownSeconds int               `toml:"breaker_cooldown_seconds"`
	SummaryRows            int               `toml:"summary_rows"`
	// NoThink 在提示词前加 /no_think，关闭 qwen3 一类模型的推理输出。
	NoThink bool `toml:"no_think"`
}

func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

func (l LLMConfig) BreakerCooldown() time.Duration {
	return time.Duration(l.BreakerCooldownSeconds) * time.Second
}

// DatabaseConfig 指向被查询的业务库。driver 取 pgx 或 sqlite。
type DatabaseConfig struct {
	Driver              string `toml:"driver"`
	DSN                 string `toml:"dsn"`
	QueryTimeoutSeconds int    `toml:"query_timeout_seconds"`
	MaxRows             int    `toml:"max_rows"`
	MaxOpenConns        int    `toml:"max_open_conns"`
	ReadOnlyTx          bool   `toml:"read_only_tx"`
}

func (d DatabaseConfig) QueryTimeout() time.Duration {
	return time.Duration(d.QueryTimeoutSeconds) * time.Second
}

type ChartConfig struct {
	Width        int      `toml:"width"`
	Height       int      `toml:"height"`
	MarginTop    float64  `toml:"margin_top"`
	MarginRight  float64  `toml:"margin_right"`
	MarginBottom float64  `toml:"margin_bottom"`
	MarginLeft   float64  `toml:"margin_left"`
	Palette      []string `toml:"palette"`
	Background   string   `toml:"background"`
}

// CatalogConfig 指定 schema/术语表/示例问题的 YAML 文件，留空使用内置目录。
type CatalogConfig struct {
	Path  string `toml:"path"`
	Watch bool   `toml:"watch"`
}

type StatementConfig struct {
	ExtraForbidden []string `toml:"extra_forbidden"`
}

type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type CacheConfig struct {
	Enabled    bool   `toml:"enabled"`
	Path       string `toml:"path"`
	InMemory   bool   `toml:"in_memory"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
