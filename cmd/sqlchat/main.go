package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"sqlchat/internal/config"
	"sqlchat/internal/logger"
)

const defaultConfigPath = "configs/config.yaml"

type cli struct {
	root       *cobra.Command
	stdout     io.Writer
	stderr     io.Writer
	configPath string
}

func main() {
	c := newCLI(os.Stdout, os.Stderr)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := c.root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newCLI(stdout, stderr io.Writer) *cli {
	c := &cli{stdout: stdout, stderr: stderr}
	c.root = &cobra.Command{
		Use:   "sqlchat",
		Short: "Ask questions about a SQL database in natural language",
		Long: `sqlchat turns questions into read-only SQL with a language model,
runs them, summarises the rows and renders charts when asked.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	c.root.SetOut(stdout)
	c.root.SetErr(stderr)
	c.root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default $SQLCHAT_CONFIG or "+defaultConfigPath+")")
	c.root.AddCommand(
		c.newServeCmd(),
		c.newAskCmd(),
		c.newCheckCmd(),
		c.newRenderCmd(),
	)
	return c
}

func (c *cli) resolveConfigPath() string {
	path := strings.TrimSpace(c.configPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("SQLCHAT_CONFIG"))
	}
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}
	return path
}

// loadConfig 依次尝试 --config、$SQLCHAT_CONFIG 与默认路径；都没有时只用默认值与环境变量。
func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.resolveConfigPath())
	if err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}
	return cfg, nil
}

// offlineConfig 用于 check/render：不连数据库，没有配置文件时直接用默认值。
func (c *cli) offlineConfig() (*config.Config, error) {
	if c.resolveConfigPath() == "" {
		return config.Default(), nil
	}
	return c.loadConfig()
}

// setupLogging 把日志同时写到 stdout 与 app.log_path，返回需要关闭的文件。
func setupLogging(cfg *config.Config) (func(), error) {
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.SetFormat(cfg.App.LogFormat)

	if f, err := openAppend(cfg.App.LogPath); err != nil {
		return closeAll, fmt.Errorf("初始化日志文件失败: %w", err)
	} else if f != nil {
		files = append(files, f)
		mw := io.MultiWriter(os.Stdout, f)
		log.SetOutput(mw)
		logger.SetOutput(mw)
	}

	logger.SetLLMWriter(nil)
	if cfg.App.LLMDump {
		f, err := openAppend(cfg.App.LLMLog)
		if err != nil {
			return closeAll, fmt.Errorf("初始化 LLM 日志失败: %w", err)
		}
		if f != nil {
			files = append(files, f)
			logger.SetLLMWriter(f)
		}
	}
	logger.EnableLLMPayloadDump(cfg.App.LLMDump)
	return closeAll, nil
}

func openAppend(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
