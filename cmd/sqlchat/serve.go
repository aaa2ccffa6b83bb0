package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sqlchat/internal/app"
	"sqlchat/internal/logger"
)

func (c *cli) newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.App.HTTPAddr = addr
			}
			closeLogs, err := setupLogging(cfg)
			defer closeLogs()
			if err != nil {
				return err
			}
			logger.Infof("✓ 配置加载成功（环境=%s，数据库=%s）", cfg.App.Env, cfg.Database.Driver)

			a, err := app.NewApp(cfg)
			if err != nil {
				return fmt.Errorf("初始化应用失败: %w", err)
			}
			if err := a.Run(cmd.Context()); err != nil {
				return fmt.Errorf("运行失败: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides app.http_addr")
	return cmd
}
