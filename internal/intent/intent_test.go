package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sqlchat/internal/catalog"
	"sqlchat/internal/chart"
)

func TestDetectWithDefaultCatalog(t *testing.T) {
	d := NewDetector(catalog.Default().Chart)

	cases := []struct {
		question string
		chart    bool
		typ      chart.Type
	}{
		{"How many sales are there in total?", false, ""},
		{"Ventas por producto", false, ""},
		{"Bar chart of sales by employee", true, chart.TypeBar},
		{"Line chart of sales by month", true, chart.TypeLine},
		{"Pie chart of sales by payment method", true, chart.TypePie},
		{"Gráfico de líneas de ventas por mes", true, chart.TypeLine},
		{"GRAFICA de pastel por canal", true, chart.TypePie},
		{"dibuja columnas de ventas por region", true, chart.TypeColumn},
		{"plot sales per employee", true, chart.TypeBar},
		{"visualiza la tendencia mensual", true, chart.TypeLine},
		{"", false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.question, func(t *testing.T) {
			got := d.Detect(tc.question)
			assert.Equal(t, tc.chart, got.Chart)
			assert.Equal(t, tc.typ, got.Type)
		})
	}
}

func TestDetectOrderedTable(t *testing.T) {
	d := NewDetector(catalog.ChartWords{
		Words: []string{"chart"},
		Types: []catalog.ChartKeyword{
			{Word: "pie", Type: "pie"},
			{Word: "line", Type: "line"},
			{Word: "nope", Type: "radar"},
		},
		Default: "column",
	})
	assert.Equal(t, chart.TypePie, d.Detect("line or pie chart").Type, "first table entry wins")
	got := d.Detect("a chart please")
	assert.True(t, got.Chart)
	assert.Equal(t, chart.TypeColumn, got.Type)
	assert.Equal(t, "chart", got.Keyword)
}

func TestFold(t *testing.T) {
	assert.Equal(t, "grafico de lineas", fold("  Gráfico de Líneas "))
	assert.Equal(t, "evolucion", fold("evolución"))
}
