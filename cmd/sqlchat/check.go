package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"sqlchat/internal/app"
	"sqlchat/internal/statement"
)

func (c *cli) newCheckCmd() *cobra.Command {
	var extra []string
	cmd := &cobra.Command{
		Use:   "check [sql]",
		Short: "Sanitize and validate a statement (reads stdin without arguments)",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.Join(args, " ")
			if raw == "" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				raw = string(b)
			}
			cfg, err := c.offlineConfig()
			if err != nil {
				return err
			}
			cfg.Statement.ExtraForbidden = append(cfg.Statement.ExtraForbidden, extra...)
			stmt := statement.Sanitize(raw)
			verdict := app.NewValidator(cfg.Statement).Validate(stmt)
			fmt.Fprintf(c.stdout, "SQL: %s\n", stmt)
			if !verdict.Accepted {
				fmt.Fprintf(c.stdout, "rejected (%s): %s\n", verdict.Reason, verdict.Message)
				return fmt.Errorf("statement rejected")
			}
			fmt.Fprintln(c.stdout, "accepted")
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&extra, "forbid", nil, "additional forbidden keywords")
	return cmd
}
