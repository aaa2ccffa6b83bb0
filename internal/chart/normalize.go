package chart

import (
	"sqlchat/internal/pkg/convert"
	"sqlchat/internal/resultset"
)

// Binding names the label and value columns explicitly. The zero value
// means positional: first column is the label, second the value.
type Binding struct {
	LabelColumn string `json:"label_column,omitempty"`
	ValueColumn string `json:"value_column,omitempty"`
}

func (b Binding) IsZero() bool {
	return b.LabelColumn == "" && b.ValueColumn == ""
}

// Coercion records a value that could not be read as a number and was
// charted as 0, or a row that did not fit the binding.
type Coercion struct {
	Row    int    `json:"row"`
	Column string `json:"column,omitempty"`
	Raw    any    `json:"raw"`
	Reason string `json:"reason"`
}

const (
	reasonNotNumeric   = "not numeric"
	reasonNull         = "null value"
	reasonMissingValue = "row has no value column"
	reasonUnbound      = "bound column missing, used position"
)

// Normalize maps rows to points. It never fails: unreadable values become 0
// and are reported in the returned coercions. The shape does not change
// the mapping, only how callers read Label.
func Normalize(rows []resultset.Row, _ Shape, binding Binding) ([]Point, []Coercion) {
	points := make([]Point, 0, len(rows))
	var coercions []Coercion
	for i, row := range rows {
		p, notes := normalizeRow(i, row, binding)
		points = append(points, p)
		coercions = append(coercions, notes...)
	}
	return points, coercions
}

func normalizeRow(idx int, row resultset.Row, binding Binding) (Point, []Coercion) {
	var notes []Coercion
	if !binding.IsZero() {
		label, okLabel := row.Get(binding.LabelColumn)
		value, okValue := row.Get(binding.ValueColumn)
		if okLabel && okValue {
			p := Point{Label: convert.ToText(label)}
			p.Value, notes = coerceValue(idx, binding.ValueColumn, value)
			return p, notes
		}
		notes = append(notes, Coercion{Row: idx, Reason: reasonUnbound})
	}

	p := Point{}
	if row.Len() > 0 {
		p.Label = convert.ToText(row.At(0))
	}
	if row.Len() < 2 {
		notes = append(notes, Coercion{Row: idx, Reason: reasonMissingValue})
		return p, notes
	}
	var valueNotes []Coercion
	p.Value, valueNotes = coerceValue(idx, row.Columns[1], row.At(1))
	return p, append(notes, valueNotes...)
}

func coerceValue(idx int, column string, raw any) (float64, []Coercion) {
	if raw == nil {
		return 0, []Coercion{{Row: idx, Column: column, Raw: raw, Reason: reasonNull}}
	}
	f, ok := convert.ToFloat64(raw)
	if !ok {
		return 0, []Coercion{{Row: idx, Column: column, Raw: raw, Reason: reasonNotNumeric}}
	}
	return f, nil
}
