// Package intent decides from the wording of a question whether a chart was
// asked for and which kind.
package intent

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"sqlchat/internal/catalog"
	"sqlchat/internal/chart"
)

type Intent struct {
	Chart   bool       `json:"chart"`
	Type    chart.Type `json:"type,omitempty"`
	Keyword string     `json:"keyword,omitempty"`
}

// Detector matches lower-cased, accent-folded substrings. The type table is
// scanned in order and the first hit wins.
type Detector struct {
	words       []string
	types       []catalog.ChartKeyword
	defaultType chart.Type
}

func NewDetector(words catalog.ChartWords) *Detector {
	d := &Detector{defaultType: chart.TypeBar}
	for _, w := range words.Words {
		if w = fold(w); w != "" {
			d.words = append(d.words, w)
		}
	}
	for _, kw := range words.Types {
		t, err := chart.ParseType(kw.Type)
		if err != nil {
			continue
		}
		if w := fold(kw.Word); w != "" {
			d.types = append(d.types, catalog.ChartKeyword{Word: w, Type: string(t)})
		}
	}
	if t, err := chart.ParseType(words.Default); err == nil {
		d.defaultType = t
	}
	return d
}

func (d *Detector) Detect(question string) Intent {
	q := fold(question)
	if q == "" {
		return Intent{}
	}
	trigger := ""
	for _, w := range d.words {
		if strings.Contains(q, w) {
			trigger = w
			break
		}
	}
	if trigger == "" {
		return Intent{}
	}
	for _, kw := range d.types {
		if strings.Contains(q, kw.Word) {
			return Intent{Chart: true, Type: chart.Type(kw.Type), Keyword: kw.Word}
		}
	}
	return Intent{Chart: true, Type: d.defaultType, Keyword: trigger}
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}
