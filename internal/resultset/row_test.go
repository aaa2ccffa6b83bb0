package resultset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowJSONKeepsColumnOrder(t *testing.T) {
	row := NewRow([]string{"zeta", "alpha", "mid"}, []any{"x", 2, nil})
	raw, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":"x","alpha":2,"mid":null}`, string(raw))
}

func TestRowUnmarshal(t *testing.T) {
	var rows []Row
	err := json.Unmarshal([]byte(`[{"product":"Laptop","total":1500.5,"active":true},{"product":"Mouse","total":"25","active":null}]`), &rows)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{"product", "total", "active"}, rows[0].Columns)
	assert.Equal(t, "Laptop", rows[0].At(0))
	assert.Equal(t, json.Number("1500.5"), rows[0].At(1))
	assert.Equal(t, true, rows[0].At(2))
	assert.Nil(t, rows[1].At(2))
	assert.Equal(t, "25", rows[1].At(1))
	assert.Equal(t, []string{"product", "total", "active"}, ColumnNames(rows))

	t.Run("rejects non objects", func(t *testing.T) {
		var r Row
		assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &r))
	})
}

func TestRowAccessors(t *testing.T) {
	row := NewRow([]string{"a", "b"}, []any{1, "two", "extra"})
	assert.Equal(t, 2, row.Len())
	v, ok := row.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "two", v)
	_, ok = row.Get("c")
	assert.False(t, ok)
	assert.Nil(t, row.At(7))
	assert.Equal(t, map[string]any{"a": 1, "b": "two"}, row.Map())
	assert.Nil(t, ColumnNames(nil))
}
