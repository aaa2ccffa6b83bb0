package statement

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ReasonCode identifies which safety rule rejected a statement.
type ReasonCode string

const (
	ReasonOK                 ReasonCode = "OK"
	ReasonNotReadOnly        ReasonCode = "NOT_READ_ONLY"
	ReasonForbiddenOperation ReasonCode = "FORBIDDEN_OPERATION"
	ReasonMultipleStatements ReasonCode = "MULTIPLE_STATEMENTS"
	ReasonCommentInjection   ReasonCode = "COMMENT_INJECTION"
)

// Verdict is the outcome of Validate. The zero value is a rejection.
type Verdict struct {
	Accepted bool       `json:"accepted"`
	Reason   ReasonCode `json:"reason"`
	Message  string     `json:"message"`
}

// DefaultForbiddenKeywords are rejected wherever they appear as whole words.
var DefaultForbiddenKeywords = []string{"INSERT", "UPDATE", "DELETE", "DROP", "CREATE", "ALTER", "TRUNCATE"}

var (
	chainedStatement = regexp.MustCompile(`;\s*\S`)
	commentMarkers   = []string{"--", "/*", "*/"}
)

type rule func(v *Validator, upper string) (Verdict, bool)

// Validator applies the read-only rules in a fixed order and reports the first failure.
// A Validator is immutable after construction and safe for concurrent use.
type Validator struct {
	keywords  []string
	forbidden *regexp.Regexp
	rules     []rule
}

type Option func(*Validator)

// WithForbiddenKeywords extends the denylist. Keywords are matched case-insensitively.
func WithForbiddenKeywords(words ...string) Option {
	return func(v *Validator) {
		for _, w := range words {
			w = strings.ToUpper(strings.TrimSpace(w))
			if w != "" {
				v.keywords = append(v.keywords, w)
			}
		}
	}
}

func NewValidator(opts ...Option) *Validator {
	v := &Validator{keywords: append([]string(nil), DefaultForbiddenKeywords...)}
	for _, opt := range opts {
		opt(v)
	}
	quoted := make([]string, 0, len(v.keywords))
	for _, kw := range v.keywords {
		quoted = append(quoted, regexp.QuoteMeta(kw))
	}
	v.forbidden = regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b`)
	v.rules = []rule{checkReadOnly, checkForbidden, checkSingleStatement, checkComments}
	return v
}

var defaultValidator = NewValidator()

// Validate checks stmt against the default rule set.
func Validate(stmt string) Verdict {
	return defaultValidator.Validate(stmt)
}

func (v *Validator) Validate(stmt string) Verdict {
	upper := strings.ToUpper(strings.TrimSpace(stmt))
	for _, r := range v.rules {
		if verdict, failed := r(v, upper); failed {
			return verdict
		}
	}
	return Verdict{Accepted: true, Reason: ReasonOK, Message: "statement is read-only"}
}

// Keywords returns a copy of the active denylist.
func (v *Validator) Keywords() []string {
	return append([]string(nil), v.keywords...)
}

func checkReadOnly(_ *Validator, upper string) (Verdict, bool) {
	if firstToken(upper) == "SELECT" {
		return Verdict{}, false
	}
	return reject(ReasonNotReadOnly, "only SELECT statements are allowed"), true
}

func checkForbidden(v *Validator, upper string) (Verdict, bool) {
	kw := v.forbidden.FindString(upper)
	if kw == "" {
		return Verdict{}, false
	}
	return reject(ReasonForbiddenOperation, fmt.Sprintf("forbidden operation detected: %s", kw)), true
}

func checkSingleStatement(_ *Validator, upper string) (Verdict, bool) {
	if !chainedStatement.MatchString(upper) {
		return Verdict{}, false
	}
	return reject(ReasonMultipleStatements, "multiple statements are not allowed"), true
}

func checkComments(_ *Validator, upper string) (Verdict, bool) {
	for _, marker := range commentMarkers {
		if strings.Contains(upper, marker) {
			return reject(ReasonCommentInjection, "SQL comments are not allowed"), true
		}
	}
	return Verdict{}, false
}

func reject(code ReasonCode, msg string) Verdict {
	return Verdict{Accepted: false, Reason: code, Message: msg}
}

func firstToken(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
	if end == -1 {
		return s
	}
	return s[:end]
}
