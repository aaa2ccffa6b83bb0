package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		stmt string
		want ReasonCode
	}{
		{name: "plain select", stmt: "SELECT * FROM sales;", want: ReasonOK},
		{name: "lowercase select", stmt: "  select id from customers", want: ReasonOK},
		{name: "column containing keyword", stmt: "SELECT created_at, updated_by FROM sales;", want: ReasonOK},
		{name: "chained drop", stmt: "SELECT 1; DROP TABLE sales;", want: ReasonForbiddenOperation},
		{name: "chained select", stmt: "SELECT 1; SELECT 2;", want: ReasonMultipleStatements},
		{name: "trailing terminator with spaces", stmt: "SELECT 1;   ", want: ReasonOK},
		{name: "line comment", stmt: "select * from sales -- comment", want: ReasonCommentInjection},
		{name: "block comment", stmt: "SELECT /* x */ 1", want: ReasonCommentInjection},
		{name: "update", stmt: "UPDATE sales SET total=0", want: ReasonNotReadOnly},
		{name: "with clause", stmt: "WITH t AS (SELECT 1) SELECT * FROM t", want: ReasonNotReadOnly},
		{name: "selectx is not select", stmt: "SELECTX 1", want: ReasonNotReadOnly},
		{name: "empty", stmt: "", want: ReasonNotReadOnly},
		{name: "subquery delete", stmt: "SELECT * FROM (DELETE FROM sales RETURNING *) d", want: ReasonForbiddenOperation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Validate(tc.stmt)
			assert.Equal(t, tc.want, got.Reason)
			assert.Equal(t, tc.want == ReasonOK, got.Accepted)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestValidateNamesKeyword(t *testing.T) {
	got := Validate("select * from sales where 1=1 and truncate")
	require.False(t, got.Accepted)
	assert.Contains(t, got.Message, "TRUNCATE")
}

func TestValidatorExtraKeywords(t *testing.T) {
	v := NewValidator(WithForbiddenKeywords("grant", " ", "pg_sleep"))
	assert.Contains(t, v.Keywords(), "GRANT")
	assert.Contains(t, v.Keywords(), "PG_SLEEP")
	assert.Len(t, v.Keywords(), len(DefaultForbiddenKeywords)+2)

	got := v.Validate("SELECT pg_sleep(10)")
	assert.Equal(t, ReasonForbiddenOperation, got.Reason)

	assert.True(t, Validate("SELECT pg_sleep(10)").Accepted)
}

func TestVerdictZeroValueRejects(t *testing.T) {
	var v Verdict
	assert.False(t, v.Accepted)
}
