package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sqlchat/internal/chart"
	"sqlchat/internal/resultset"
)

func sampleRows() []resultset.Row {
	cols := []string{"product", "total"}
	return []resultset.Row{
		resultset.NewRow(cols, []any{"Laptop", 5000}),
		resultset.NewRow(cols, []any{"Mouse", json.Number("12.5")}),
		resultset.NewRow(cols, []any{"Cable", nil}),
	}
}

func TestWriteWithChart(t *testing.T) {
	engine, err := chart.NewEngine(chart.DefaultConfig())
	require.NoError(t, err)
	rendered := engine.Render(chart.TypeBar, []chart.Point{{Label: "Laptop", Value: 5000}, {Label: "Mouse", Value: 12.5}})
	require.NotNil(t, rendered)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Report{
		Question:  "sales by product",
		Statement: "SELECT product, total FROM sales;",
		Rows:      sampleRows(),
		Chart:     rendered,
		CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ResultSheet, ChartSheet, QuerySheet}, f.GetSheetList())

	rows, err := f.GetRows(ResultSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"product", "total"}, rows[0])
	assert.Equal(t, []string{"Laptop", "5000"}, rows[1])
	assert.Equal(t, []string{"Mouse", "12.5"}, rows[2])
	assert.Equal(t, []string{"Cable"}, rows[3])

	pics, err := f.GetPictures(ChartSheet, "B2")
	require.NoError(t, err)
	require.Len(t, pics, 1)
	assert.Equal(t, ".png", pics[0].Extension)

	q, err := f.GetCellValue(QuerySheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "SELECT product, total FROM sales;", q)
	created, err := f.GetCellValue(QuerySheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T00:00:00Z", created)
}

func TestWriteWithoutChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Report{Question: "q", Statement: "SELECT 1;"}))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{ResultSheet, QuerySheet}, f.GetSheetList())
}

func TestBuildRejectsBadChart(t *testing.T) {
	_, err := Build(Report{Chart: &chart.Rendered{Type: chart.TypePie, MIMEType: "image/png", Base64: "%%%"}})
	assert.Error(t, err)
}

func TestCellValue(t *testing.T) {
	assert.Equal(t, 3.5, cellValue(json.Number("3.5")))
	assert.Equal(t, "42", cellValue("42"))
	assert.Equal(t, 7, cellValue(7))
	assert.Nil(t, cellValue(nil))
	assert.Equal(t, "abc", cellValue([]byte("abc")))
}
