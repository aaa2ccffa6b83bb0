// Package export writes a query result, and its chart when present, to an
// Excel workbook.
package export

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"sqlchat/internal/chart"
	"sqlchat/internal/pkg/convert"
	"sqlchat/internal/resultset"
)

const (
	ResultSheet = "Results"
	ChartSheet  = "Chart"
	QuerySheet  = "Query"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Report struct {
	Question  string
	Statement string
	Columns   []string
	Rows      []resultset.Row
	Chart     *chart.Rendered
	CreatedAt time.Time
}

// Build lays the report out over up to three sheets. Callers must Close the
// returned file.
func Build(r Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), ResultSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRows(f, r); err != nil {
		f.Close()
		return nil, err
	}
	if r.Chart != nil && r.Chart.Base64 != "" {
		if err := addChart(f, r.Chart); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := writeQuery(f, r); err != nil {
		f.Close()
		return nil, err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Write builds the workbook and streams it to w.
func Write(w io.Writer, r Report) error {
	f, err := Build(r)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, r Report) error {
	columns := r.Columns
	if len(columns) == 0 {
		columns = resultset.ColumnNames(r.Rows)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"3B82F6"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	for col, name := range columns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(ResultSheet, cell, name); err != nil {
			return fmt.Errorf("write header %s: %w", cell, err)
		}
	}
	if len(columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(columns), 1)
		if err := f.SetCellStyle(ResultSheet, "A1", last, header); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
		if err := f.SetPanes(ResultSheet, &excelize.Panes{
			Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
		}); err != nil {
			return fmt.Errorf("freeze header: %w", err)
		}
	}
	for i, row := range r.Rows {
		for col, name := range columns {
			v, ok := row.Get(name)
			if !ok || v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(ResultSheet, cell, cellValue(v)); err != nil {
				return fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
	}
	return nil
}

// cellValue keeps numbers numeric and turns everything else into text.
func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, time.Time:
		return t
	}
	if f, ok := convert.ToFloat64(v); ok {
		if _, isString := v.(string); !isString {
			return f
		}
	}
	return convert.ToText(v)
}

func addChart(f *excelize.File, r *chart.Rendered) error {
	raw := strings.TrimPrefix(r.Base64, "data:"+r.MIMEType+";base64,")
	png, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return fmt.Errorf("decode chart image: %w", err)
	}
	if _, err := f.NewSheet(ChartSheet); err != nil {
		return fmt.Errorf("create chart sheet: %w", err)
	}
	if err := f.AddPictureFromBytes(ChartSheet, "B2", &excelize.Picture{
		Extension: ".png",
		File:      png,
		Format:    &excelize.GraphicOptions{AltText: string(r.Type) + " chart"},
	}); err != nil {
		return fmt.Errorf("add chart image: %w", err)
	}
	return nil
}

func writeQuery(f *excelize.File, r Report) error {
	if _, err := f.NewSheet(QuerySheet); err != nil {
		return fmt.Errorf("create query sheet: %w", err)
	}
	created := r.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	pairs := [][2]any{
		{"Question", r.Question},
		{"SQL", r.Statement},
		{"Rows", len(r.Rows)},
		{"Generated", created.UTC().Format(time.RFC3339)},
	}
	for i, kv := range pairs {
		if err := f.SetSheetRow(QuerySheet, fmt.Sprintf("A%d", i+1), &[]any{kv[0], kv[1]}); err != nil {
			return fmt.Errorf("write query sheet: %w", err)
		}
	}
	return f.SetColWidth(QuerySheet, "B", "B", 80)
}
