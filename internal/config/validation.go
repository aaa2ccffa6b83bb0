package config

import (
	"fmt"
	"strings"

	"sqlchat/internal/chart/canvas"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.LLM.validate(); err != nil {
		return err
	}
	if err := c.Database.validate(); err != nil {
		return err
	}
	if err := c.Chart.validate(); err != nil {
		return err
	}
	if err := c.Cache.validate(); err != nil {
		return err
	}
	if c.Catalog.Watch && strings.TrimSpace(c.Catalog.Path) == "" {
		return fmt.Errorf("catalog.watch requires catalog.path")
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(a.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("app.log_format must be text or json, got %q", a.LogFormat)
	}
	if strings.TrimSpace(a.HTTPAddr) == "" {
		return fmt.Errorf("app.http_addr cannot be empty")
	}
	return nil
}

func (l *LLMConfig) validate() error {
	switch l.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("llm.provider must be ollama or openai, got %q", l.Provider)
	}
	if strings.TrimSpace(l.APIURL) == "" {
		return fmt.Errorf("llm.api_url cannot be empty")
	}
	if strings.TrimSpace(l.Model) == "" {
		return fmt.Errorf("llm.model cannot be empty")
	}
	if l.TemperatureSQL < 0 || l.TemperatureSQL > 2 {
		return fmt.Errorf("llm.temperature_sql must be within [0,2]")
	}
	if l.TemperatureAnswer < 0 || l.TemperatureAnswer > 2 {
		return fmt.Errorf("llm.temperature_answer must be within [0,2]")
	}
	if l.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must be >= 0")
	}
	return nil
}

func (d *DatabaseConfig) validate() error {
	switch d.Driver {
	case "pgx", "sqlite":
	default:
		return fmt.Errorf("database.driver must be pgx or sqlite, got %q", d.Driver)
	}
	if strings.TrimSpace(d.DSN) == "" {
		return fmt.Errorf("database.dsn cannot be empty")
	}
	if d.MaxRows < 0 {
		return fmt.Errorf("database.max_rows must be >= 0")
	}
	return nil
}

func (c *ChartConfig) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("chart.width and chart.height must be > 0")
	}
	if c.MarginLeft+c.MarginRight >= float64(c.Width) || c.MarginTop+c.MarginBottom >= float64(c.Height) {
		return fmt.Errorf("chart margins leave no plot area")
	}
	for _, hex := range c.Palette {
		if _, err := canvas.ParseHex(hex); err != nil {
			return fmt.Errorf("chart.palette: %w", err)
		}
	}
	if _, err := canvas.ParseHex(c.Background); err != nil {
		return fmt.Errorf("chart.background: %w", err)
	}
	return nil
}

func (c *CacheConfig) validate() error {
	if c.Enabled && !c.InMemory && strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("cache.path cannot be empty when cache is enabled on disk")
	}
	return nil
}
