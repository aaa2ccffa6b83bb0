package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"sqlchat/internal/app"
	"sqlchat/internal/chart"
	"sqlchat/internal/resultset"
)

type renderOptions struct {
	input  string
	output string
	kind   string
	label  string
	value  string
}

func (c *cli) newRenderCmd() *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a chart PNG from a JSON array of rows",
		Long: `Render a chart from rows stored as a JSON array of objects.

Example:
  sqlchat render -i rows.json -t pie -o share.png`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return c.render(opts)
		},
	}
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "JSON rows file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "chart.png", "PNG output path")
	cmd.Flags().StringVarP(&opts.kind, "type", "t", string(chart.TypeBar), "chart type: bar, column, line, pie")
	cmd.Flags().StringVar(&opts.label, "label", "", "label column (default: first column)")
	cmd.Flags().StringVar(&opts.value, "value", "", "value column (default: second column)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (c *cli) render(opts *renderOptions) error {
	t, err := chart.ParseType(opts.kind)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(opts.input)
	if err != nil {
		return err
	}
	var rows []resultset.Row
	if err := json.Unmarshal(raw, &rows); err != nil {
		return fmt.Errorf("decode rows: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("no rows in %s", opts.input)
	}
	cfg, err := c.offlineConfig()
	if err != nil {
		return err
	}
	chartCfg, err := app.ChartConfig(cfg.Chart)
	if err != nil {
		return err
	}
	engine, err := chart.NewEngine(chartCfg)
	if err != nil {
		return err
	}
	points, coercions := chart.Normalize(rows, t.Shape(), chart.Binding{LabelColumn: opts.label, ValueColumn: opts.value})
	for _, co := range coercions {
		fmt.Fprintf(c.stderr, "row %d %s: %v (%s)\n", co.Row, co.Column, co.Raw, co.Reason)
	}
	out := engine.Render(t, points)
	if out == nil {
		return fmt.Errorf("could not render chart")
	}
	png, err := base64.StdEncoding.DecodeString(out.Base64)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.output, png, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "%s chart written to %s (%s)\n", t, opts.output, humanize.Bytes(uint64(len(png))))
	return nil
}
