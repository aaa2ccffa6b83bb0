package app

import (
	"fmt"
	"strings"

	"sqlchat/internal/catalog"
	"sqlchat/internal/chart"
	"sqlchat/internal/config"
	"sqlchat/internal/gateway/provider"
	"sqlchat/internal/statement"
)

type StartupSummary struct {
	HTTPAddr  string
	LLM       LLMSummary
	Database  DatabaseSummary
	Catalog   CatalogSummary
	Chart     ChartSummary
	Forbidden []string
	History   string
	Cache     string
}

type LLMSummary struct {
	Provider string
	Model    string
	URL      string
	Breaker  string
}

type DatabaseSummary struct {
	Driver     string
	MaxRows    int
	Timeout    string
	ReadOnlyTx bool
}

type CatalogSummary struct {
	Name     string
	Source   string
	Tables   []string
	Glossary int
	Examples int
	Watch    bool
}

type ChartSummary struct {
	Size    string
	Palette int
}

func newStartupSummary(cfg *config.Config, cat catalog.Catalog, llm provider.ModelProvider, v *statement.Validator) *StartupSummary {
	s := &StartupSummary{
		HTTPAddr: cfg.App.HTTPAddr,
		LLM: LLMSummary{
			Provider: llm.ID(),
			Model:    llm.Model(),
			URL:      cfg.LLM.APIURL,
			Breaker:  "off",
		},
		Database: DatabaseSummary{
			Driver:     cfg.Database.Driver,
			MaxRows:    cfg.Database.MaxRows,
			Timeout:    cfg.Database.QueryTimeout().String(),
			ReadOnlyTx: cfg.Database.ReadOnlyTx,
		},
		Catalog: CatalogSummary{
			Name:     cat.Name,
			Source:   "builtin",
			Tables:   cat.Tables,
			Glossary: len(cat.Glossary),
			Examples: len(cat.Examples),
			Watch:    cfg.Catalog.Watch,
		},
		Chart: ChartSummary{
			Size:    fmt.Sprintf("%dx%d", cfg.Chart.Width, cfg.Chart.Height),
			Palette: len(cfg.Chart.Palette),
		},
		Forbidden: v.Keywords(),
		History:   "off",
		Cache:     "off",
	}
	if cfg.LLM.BreakerThreshold > 0 {
		s.LLM.Breaker = fmt.Sprintf("%d failures / %s", cfg.LLM.BreakerThreshold, cfg.LLM.BreakerCooldown())
	}
	if cfg.Catalog.Path != "" {
		s.Catalog.Source = cfg.Catalog.Path
	}
	if s.Chart.Palette == 0 {
		s.Chart.Palette = len(chart.DefaultPalette())
	}
	if cfg.History.Enabled {
		s.History = cfg.History.Path
	}
	if cfg.Cache.Enabled {
		where := cfg.Cache.Path
		if cfg.Cache.InMemory {
			where = "memory"
		}
		s.Cache = fmt.Sprintf("%s, ttl %s", where, cfg.Cache.TTL())
	}
	return s
}

func (s *StartupSummary) Print() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("%*s\n", 40+len("启动配置摘要 (STARTUP SUMMARY)")/2, "启动配置摘要 (STARTUP SUMMARY)")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Println("[模型 (LLM)]")
	fmt.Printf("  提供方: %s\n", s.LLM.Provider)
	fmt.Printf("  模型:   %s\n", s.LLM.Model)
	fmt.Printf("  地址:   %s\n", s.LLM.URL)
	fmt.Printf("  熔断:   %s\n", s.LLM.Breaker)
	fmt.Println()

	fmt.Println("[数据库 (DATABASE)]")
	fmt.Printf("  驱动:     %s\n", s.Database.Driver)
	fmt.Printf("  最大行数: %d\n", s.Database.MaxRows)
	fmt.Printf("  超时:     %s\n", s.Database.Timeout)
	fmt.Printf("  只读事务: %t\n", s.Database.ReadOnlyTx)
	fmt.Println()

	fmt.Println("[目录 (CATALOG)]")
	fmt.Printf("  名称: %s (%s, 热加载=%t)\n", s.Catalog.Name, s.Catalog.Source, s.Catalog.Watch)
	fmt.Printf("  数据表: %s\n", formatList(s.Catalog.Tables))
	fmt.Printf("  术语: %d, 示例问题: %d\n", s.Catalog.Glossary, s.Catalog.Examples)
	fmt.Println()

	fmt.Println("[图表与校验 (CHARTS & GUARD)]")
	fmt.Printf("  画布: %s, 调色板: %d 色\n", s.Chart.Size, s.Chart.Palette)
	fmt.Printf("  禁止关键字: %s\n", formatList(s.Forbidden))
	fmt.Println()

	fmt.Println("[存储 (STORAGE)]")
	fmt.Printf("  查询历史: %s\n", s.History)
	fmt.Printf("  SQL 缓存: %s\n", s.Cache)
	fmt.Printf("  HTTP:     %s\n", s.HTTPAddr)
	fmt.Println(strings.Repeat("=", 80))
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
