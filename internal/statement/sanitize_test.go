package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "fenced block", in: "```sql\nSELECT 1\n```", want: "SELECT 1;"},
		{name: "bare fence", in: "```\nselect name from customers\n```", want: "select name from customers;"},
		{name: "keeps terminator", in: "SELECT * FROM sales;", want: "SELECT * FROM sales;"},
		{name: "leading prose", in: "Here is the query:\nSELECT id\nFROM  sales", want: "SELECT id FROM sales;"},
		{name: "lowercase keyword", in: "Sure! select\tcount(*) from sales", want: "select count(*) from sales;"},
		{name: "reasoning block", in: "<think>maybe SELECT everything</think>SELECT total FROM sales", want: "SELECT total FROM sales;"},
		{name: "thinking block mixed case", in: "<THINKING>plan</Thinking>\nSELECT 2", want: "SELECT 2;"},
		{name: "stray closer inside reasoning", in: "<think>I could select from orders</thinking> no wait</think>SELECT total FROM sales", want: "SELECT total FROM sales;"},
		{name: "unclosed reasoning kept", in: "<think>SELECT 1", want: "SELECT 1;"},
		{name: "no select", in: "  SHOW\n tables  ", want: "SHOW tables;"},
		{name: "nested select", in: "WITH x AS (SELECT 1) SELECT * FROM x", want: "SELECT 1) SELECT * FROM x;"},
		{name: "no keyword at all", in: "  hello\n world ", want: "hello world;"},
		{name: "empty", in: "", want: ""},
		{name: "only whitespace and fences", in: "```sql\n \n```", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sanitize(tc.in))
		})
	}
}

func TestStripReasoning(t *testing.T) {
	assert.Equal(t, "   answer", StripReasoning("<think>a</think> <thinking>b</thinking>answer"))
	assert.Equal(t, "x </think>", StripReasoning("x </think>"))
}

func TestSanitizeThenValidate(t *testing.T) {
	v := Validate(Sanitize("```sql\nSELECT product, SUM(total) AS value\nFROM sales GROUP BY product\n```"))
	assert.True(t, v.Accepted)
	assert.Equal(t, ReasonOK, v.Reason)
}
