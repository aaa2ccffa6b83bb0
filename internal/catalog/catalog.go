// Package catalog holds the business context handed to the model: schema
// description, glossary, join keys, sample questions and the chart keyword
// tables used for intent detection.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"sqlchat/internal/chart"
)

//go:embed default.yaml
var defaultYAML []byte

// FewShot 是提示词中的问答样例。
type FewShot struct {
	Question string `yaml:"question" json:"question"`
	SQL      string `yaml:"sql" json:"sql"`
}

// ChartKeyword maps a word in the question to a chart type.
type ChartKeyword struct {
	Word string `yaml:"word" json:"word"`
	Type string `yaml:"type" json:"type"`
}

type ChartWords struct {
	Words   []string       `yaml:"words" json:"words"`
	Types   []ChartKeyword `yaml:"types" json:"types"`
	Default string         `yaml:"default" json:"default"`
}

type Catalog struct {
	Name     string     `yaml:"name" json:"name"`
	Dialect  string     `yaml:"dialect" json:"dialect"`
	Schema   string     `yaml:"schema" json:"schema"`
	Tables   []string   `yaml:"tables" json:"tables"`
	Joins    []string   `yaml:"joins" json:"joins"`
	Glossary []string   `yaml:"glossary" json:"glossary"`
	FewShot  []FewShot  `yaml:"few_shot" json:"few_shot"`
	Examples []string   `yaml:"examples" json:"examples"`
	Chart    ChartWords `yaml:"chart" json:"chart"`
}

// Default returns the built-in sales catalog.
func Default() Catalog {
	cat, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return cat
}

// Parse decodes and normalises a catalog document. Unknown keys are errors.
func Parse(raw []byte) (Catalog, error) {
	var cat Catalog
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog failed: %w", err)
	}
	if err := cat.normalize(); err != nil {
		return Catalog{}, err
	}
	return cat, nil
}

func (c *Catalog) normalize() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Dialect = strings.TrimSpace(c.Dialect)
	if c.Dialect == "" {
		c.Dialect = "PostgreSQL"
	}
	c.Schema = strings.TrimSpace(c.Schema)
	if c.Schema == "" {
		return fmt.Errorf("catalog %q: schema is required", c.Name)
	}
	c.Tables = compact(c.Tables, false)
	c.Joins = compact(c.Joins, false)
	c.Glossary = compact(c.Glossary, false)
	c.Examples = compact(c.Examples, false)
	c.Chart.Words = compact(c.Chart.Words, true)

	shots := c.FewShot[:0]
	for _, fs := range c.FewShot {
		fs.Question = strings.TrimSpace(fs.Question)
		fs.SQL = strings.TrimSpace(fs.SQL)
		if fs.Question == "" || fs.SQL == "" {
			continue
		}
		shots = append(shots, fs)
	}
	c.FewShot = shots

	types := c.Chart.Types[:0]
	for i, kw := range c.Chart.Types {
		kw.Word = strings.ToLower(strings.TrimSpace(kw.Word))
		if kw.Word == "" {
			continue
		}
		t, err := chart.ParseType(kw.Type)
		if err != nil {
			return fmt.Errorf("catalog chart.types[%d] %q: %w", i, kw.Word, err)
		}
		kw.Type = string(t)
		types = append(types, kw)
	}
	c.Chart.Types = types

	if strings.TrimSpace(c.Chart.Default) == "" {
		c.Chart.Default = string(chart.TypeBar)
	}
	t, err := chart.ParseType(c.Chart.Default)
	if err != nil {
		return fmt.Errorf("catalog chart.default: %w", err)
	}
	c.Chart.Default = string(t)
	return nil
}

func compact(in []string, lower bool) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if lower {
			s = strings.ToLower(s)
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
