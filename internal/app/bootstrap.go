package app

import (
	"context"
	"errors"

	"github.com/testuser-console/internal/config"
	"github.com/testuser-console/internal/logger"
	"github.com/testuser-console/internal/provider"
	"github.com/testuser-console/internal/router"
)

// BuildRunner 构建 HTTP 绑定的服务运行器；未运行时需调用 Shutdown 释放资源
func BuildRunner(cfg *config.Config) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container, err := provider.NewContainer(cfg)
	if err != nil {
		return nil, err
	}
	handler, ctl, err := container.NewConsoleHandler()
	if err != nil {
		container.Close()
		return nil, err
	}

	var services []Service

	// 初始化 HTTP 服务
	engine := router.SetupRouter(cfg, handler, container.Metrics)
	services = append(services, NewHTTPService(cfg.Server.Addr(), engine, cfg.Server.Timeouts()))

	// 定时刷新列表，未开启时由客户端首次请求触发查询
	if interval := cfg.Console.AutoRefresh(); interval > 0 {
		services = append(services, NewRefreshService(ctl, interval))
	} else {
		logger.Debugw("app_auto_refresh_disabled")
	}

	runner := NewRunner(services...)
	// 逆序执行：先结束待确认与后台删除，再关闭缓存连接
	runner.OnShutdown("container", func(context.Context) error {
		container.Close()
		return nil
	})
	runner.OnShutdown("console_handler", handler.Shutdown)
	return runner, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	if opts.Config == nil {
		return errors.New("config is nil")
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = opts.Config.Server.Timeouts().Shutdown
	}
	opts = normalizeOptions(opts)

	runner, err := BuildRunner(opts.Config)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "addr", opts.Config.Server.Addr(), "upstream", opts.Config.API.BaseURL)
	return RunWithOptions(runner, opts)
}
