// Package prompt assembles the two model prompts of the pipeline: statement
// generation and answer summary.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"sqlchat/internal/catalog"
	"sqlchat/internal/intent"
	"sqlchat/internal/resultset"
)

// Column aliases requested from the model when a chart is wanted.
const (
	LabelAlias = "label"
	ValueAlias = "value"
)

const (
	defaultRowLimit   = 100
	defaultSampleRows = 5
	noThinkDirective  = "/no_think"
)

type Options struct {
	NoThink    bool
	RowLimit   int
	SampleRows int
}

func (o Options) rowLimit() int {
	if o.RowLimit > 0 {
		return o.RowLimit
	}
	return defaultRowLimit
}

func (o Options) sampleRows() int {
	if o.SampleRows > 0 {
		return o.SampleRows
	}
	return defaultSampleRows
}

// SQL builds the statement-generation prompt.
func SQL(cat catalog.Catalog, question string, want intent.Intent, opts Options) string {
	var b strings.Builder
	if opts.NoThink {
		b.WriteString(noThinkDirective + "\n")
	}
	fmt.Fprintf(&b, "Write ONLY the SQL query for %s. No explanations, no markdown, no comments.\n\n", cat.Dialect)

	b.WriteString("DATABASE SCHEMA:\n")
	b.WriteString(cat.Schema)
	b.WriteString("\n\n")

	if len(cat.Joins) > 0 {
		b.WriteString("RELATIONSHIPS:\n")
		writeList(&b, cat.Joins)
		b.WriteString("\n")
	}
	if len(cat.Glossary) > 0 {
		b.WriteString("GLOSSARY:\n")
		writeList(&b, cat.Glossary)
		b.WriteString("\n")
	}

	rules := []string{
		"Only SELECT (never INSERT, UPDATE, DELETE)",
		fmt.Sprintf("Always include LIMIT %d", opts.rowLimit()),
		"Always use descriptive aliases (AS total_sales, AS employee_name, ...)",
		"Return a single statement",
	}
	if len(cat.Joins) > 0 {
		rules = append(rules, "Join tables only on the keys listed under RELATIONSHIPS")
	}
	if want.Chart {
		rules = append(rules, fmt.Sprintf(
			"The answer will be drawn as a %s chart: return exactly two columns, the category or period first AS %s and the number second AS %s",
			want.Type, LabelAlias, ValueAlias))
	}
	b.WriteString("RULES:\n")
	for i, r := range rules {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}
	b.WriteString("\n")

	if len(cat.FewShot) > 0 {
		b.WriteString("EXAMPLES:\n")
		for _, fs := range cat.FewShot {
			fmt.Fprintf(&b, "- %q -> %s\n", fs.Question, fs.SQL)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "QUESTION: %s\n\nSQL:", strings.TrimSpace(question))
	return b.String()
}

// Answer builds the summary prompt from the first rows of the result.
func Answer(question string, rows []resultset.Row, opts Options) (string, error) {
	sample := rows
	if n := opts.sampleRows(); len(sample) > n {
		sample = sample[:n]
	}
	if sample == nil {
		sample = []resultset.Row{}
	}
	data, err := json.Marshal(sample)
	if err != nil {
		return "", fmt.Errorf("encode sample rows: %w", err)
	}
	var b strings.Builder
	if opts.NoThink {
		b.WriteString(noThinkDirective + "\n")
	}
	b.WriteString("Answer the question briefly (1-2 sentences) using the data.\n")
	b.WriteString("Do not mention SQL or databases. Be concise.\n\n")
	fmt.Fprintf(&b, "Question: %s\n", strings.TrimSpace(question))
	fmt.Fprintf(&b, "Data: %s\n", data)
	fmt.Fprintf(&b, "Total rows: %d\n\n", len(rows))
	b.WriteString("Answer:")
	return b.String(), nil
}

func writeList(b *strings.Builder, items []string) {
	for _, it := range items {
		b.WriteString("- ")
		b.WriteString(it)
		b.WriteString("\n")
	}
}
