// Package chart turns query rows into bar, column, line and pie images.
//
// Rendering is pure over its inputs: every call allocates its own surface and
// font faces, so an Engine can be shared across goroutines.
package chart

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnsupportedType = errors.New("unsupported chart type")

type Type string

const (
	TypeBar    Type = "bar"
	TypeColumn Type = "column"
	TypeLine   Type = "line"
	TypePie    Type = "pie"
)

var allTypes = []Type{TypeBar, TypeColumn, TypeLine, TypePie}

// Types lists the accepted chart types in display order.
func Types() []Type {
	return append([]Type(nil), allTypes...)
}

func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, s)
	}
	return t, nil
}

func (t Type) Valid() bool {
	switch t {
	case TypeBar, TypeColumn, TypeLine, TypePie:
		return true
	}
	return false
}

// Shape is the data shape a chart type consumes.
func (t Type) Shape() Shape {
	if t == TypeLine {
		return ShapeSeries
	}
	return ShapeCategorical
}

func (t Type) Description() string {
	switch t {
	case TypeBar:
		return "Horizontal bars, good for comparing categories"
	case TypeColumn:
		return "Vertical columns, good for comparing categories"
	case TypeLine:
		return "Line over time, good for trends"
	case TypePie:
		return "Pie, good for shares of a total"
	}
	return ""
}

type Shape int

const (
	ShapeCategorical Shape = iota
	ShapeSeries
)

func (s Shape) String() string {
	if s == ShapeSeries {
		return "series"
	}
	return "categorical"
}

// Point is one datum. Label is the category for categorical charts and the
// time label for series charts.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Rendered is an encoded chart image owned by the caller.
type Rendered struct {
	Type     Type   `json:"type"`
	MIMEType string `json:"mime_type"`
	Base64   string `json:"base64"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

func (r *Rendered) DataURI() string {
	if r == nil {
		return ""
	}
	return "data:" + r.MIMEType + ";base64," + r.Base64
}
