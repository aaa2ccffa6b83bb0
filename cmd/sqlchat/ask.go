package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sqlchat/internal/app"
	"sqlchat/internal/assistant"
)

func (c *cli) newAskCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			closeLogs, err := setupLogging(cfg)
			defer closeLogs()
			if err != nil {
				return err
			}
			a, err := app.NewApp(cfg)
			if err != nil {
				return fmt.Errorf("初始化应用失败: %w", err)
			}
			defer a.Close()

			ans, err := a.Service().Ask(cmd.Context(), assistant.Request{Question: strings.Join(args, " ")})
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(c.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(ans)
			}
			printAnswer(c, ans)
			if !ans.Success {
				return fmt.Errorf("%s", ans.Message)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full answer as JSON")
	return cmd
}

func printAnswer(c *cli, ans *assistant.Answer) {
	if ans.Statement != "" {
		fmt.Fprintf(c.stdout, "SQL: %s\n", ans.Statement)
	}
	if ans.Success && len(ans.Columns) > 0 {
		fmt.Fprintln(c.stdout, strings.Join(ans.Columns, "\t"))
		for _, row := range ans.Rows {
			cells := make([]string, 0, row.Len())
			for i := 0; i < row.Len(); i++ {
				cells = append(cells, fmt.Sprint(row.At(i)))
			}
			fmt.Fprintln(c.stdout, strings.Join(cells, "\t"))
		}
	}
	if ans.Chart != nil && ans.Chart.Base64 != "" {
		fmt.Fprintf(c.stdout, "chart: %s %dx%d\n", ans.Chart.Type, ans.Chart.Width, ans.Chart.Height)
	}
	fmt.Fprintln(c.stdout, ans.Message)
}
