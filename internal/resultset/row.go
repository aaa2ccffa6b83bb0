// Package resultset holds query rows with their column order intact.
package resultset

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Row is one result row. Columns and Values are parallel slices in select-list order.
type Row struct {
	Columns []string
	Values  []any
}

func NewRow(columns []string, values []any) Row {
	return Row{Columns: columns, Values: values}
}

func (r Row) Len() int {
	if len(r.Values) < len(r.Columns) {
		return len(r.Values)
	}
	return len(r.Columns)
}

// Get returns the value of a named column.
func (r Row) Get(column string) (any, bool) {
	for i, c := range r.Columns {
		if c == column && i < len(r.Values) {
			return r.Values[i], true
		}
	}
	return nil, false
}

// At returns the value at position i, or nil when out of range.
func (r Row) At(i int) any {
	if i < 0 || i >= len(r.Values) {
		return nil
	}
	return r.Values[i]
}

// Map drops ordering; handy for templates and logs.
func (r Row) Map() map[string]any {
	out := make(map[string]any, r.Len())
	for i := 0; i < r.Len(); i++ {
		out[r.Columns[i]] = r.Values[i]
	}
	return out
}

// MarshalJSON writes an object whose keys follow column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := 0; i < r.Len(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.Columns[i])
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.Values[i])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", r.Columns[i], err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping the source key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("resultset: invalid json row")
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return fmt.Errorf("resultset: row must be a json object, got %s", res.Type)
	}
	r.Columns = r.Columns[:0]
	r.Values = r.Values[:0]
	res.ForEach(func(key, value gjson.Result) bool {
		r.Columns = append(r.Columns, key.String())
		r.Values = append(r.Values, scalar(value))
		return true
	})
	return nil
}

func scalar(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.Number:
		return json.Number(v.Raw)
	case gjson.String:
		return v.String()
	case gjson.True, gjson.False:
		return v.Bool()
	default:
		return v.Raw
	}
}

// ColumnNames returns the columns of the first row.
func ColumnNames(rows []Row) []string {
	if len(rows) == 0 {
		return nil
	}
	return append([]string(nil), rows[0].Columns...)
}
