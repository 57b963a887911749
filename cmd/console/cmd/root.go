package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/testuser-console/internal/config"
	"github.com/testuser-console/internal/logger"
	"github.com/testuser-console/internal/provider"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "testuser-console",
	Short: "测试用户管理控制台",
	Long: `testuser-console: 测试用户管理控制台
不带子命令时进入交互式终端视图，serve 以 HTTP 接口的形式提供同样的操作。`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd)
	},
}

// Execute 执行根命令，收到 SIGINT / SIGTERM 时取消上下文
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		cancel()
		os.Exit(1)
	}
}

func init() {
	fs := rootCmd.PersistentFlags()
	fs.StringVarP(&configPath, "config", "c", "", "配置文件路径，默认查找 ./config.yml")
	fs.BoolVarP(&verbose, "verbose", "v", false, "交互命令在 debug 模式下同时输出日志到 stderr")

	rootCmd.AddCommand(newTUICommand(), newServeCommand(), newListCommand(), newShowCommand())
}

// loadConfig 加载配置并初始化日志，interactive 为 true 时 debug 日志默认丢弃
func loadConfig(interactive bool) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	opts := cfg.Log.ToLoggerOptions()
	if interactive && !verbose {
		opts.Writer = io.Discard
	}
	logger.Init(cfg.Server.Mode, opts)
	return cfg, nil
}

// newContainer 加载配置并创建依赖容器，调用方负责 Close
func newContainer(interactive bool, mutate func(*config.Config)) (*provider.Container, error) {
	cfg, err := loadConfig(interactive)
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(cfg)
	}
	return provider.NewContainer(cfg)
}
