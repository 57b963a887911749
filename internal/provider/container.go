package provider

import (
	"io"

	"github.com/testuser-console/internal/cache"
	"github.com/testuser-console/internal/config"
	"github.com/testuser-console/internal/form"
	"github.com/testuser-console/internal/http/handlers/console"
	"github.com/testuser-console/internal/listctl"
	"github.com/testuser-console/internal/logger"
	"github.com/testuser-console/internal/metrics"
	"github.com/testuser-console/internal/remote"
	"github.com/testuser-console/internal/terminal"
)

// Container 依赖注入容器
type Container struct {
	Config    *config.Config
	Client    *remote.Client
	Validator *form.DraftValidator
	Metrics   *metrics.Metrics
}

// ControllerPorts 视图层提供的控制器端口，未提供的使用默认实现
type ControllerPorts struct {
	Confirmer listctl.Confirmer
	Notifier  listctl.Notifier
	Selection listctl.Selection
	Presenter listctl.DialogPresenter
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) (*Container, error) {
	// 初始化缓存，失败时降级为不缓存
	var detailCache remote.DetailCache
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	} else if cache.Enabled() {
		detailCache = cache.NewDetailCache(cfg.Redis.DetailTTL())
	}

	client, err := remote.New(remote.Options{
		BaseURL: cfg.API.BaseURL,
		Token:   cfg.API.Token,
		Timeout: cfg.API.Timeout(),
		Cache:   detailCache,
	})
	if err != nil {
		_ = cache.Close()
		return nil, err
	}

	validator, err := form.NewDraftValidator()
	if err != nil {
		_ = cache.Close()
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	return &Container{
		Config:    cfg,
		Client:    client,
		Validator: validator,
		Metrics:   m,
	}, nil
}

// NewController 按配置创建列表控制器
func (c *Container) NewController(ports ControllerPorts) (*listctl.Controller, error) {
	opts := listctl.DefaultOptions()
	opts.Client = c.Client
	opts.Validator = c.Validator
	opts.Metrics = c.Metrics
	opts.Confirmer = ports.Confirmer
	opts.Notifier = ports.Notifier
	opts.Selection = ports.Selection
	opts.Presenter = ports.Presenter
	opts.PageSize = c.Config.Console.PageSize
	opts.LoadingFloor = c.Config.Console.LoadingFloor()
	opts.DiscardStale = c.Config.Console.DiscardStaleResponses
	return listctl.New(opts)
}

// NewConsoleHandler 创建 HTTP 绑定使用的控制器与处理器
func (c *Container) NewConsoleHandler() (*console.Handler, *listctl.Controller, error) {
	hub := console.NewHub()
	selection := console.NewSelection()
	broker := console.NewPromptBroker(hub, c.Config.Console.PromptTimeout())
	ctl, err := c.NewController(ControllerPorts{
		Confirmer: broker,
		Notifier:  console.NewNotifier(hub),
		Selection: selection,
	})
	if err != nil {
		return nil, nil, err
	}
	handler := console.New(console.Deps{
		Controller: ctl,
		Detail:     c.Client,
		Hub:        hub,
		Broker:     broker,
		Selection:  selection,
	})
	return handler, ctl, nil
}

// NewTerminalSession 创建交互式终端会话
func (c *Container) NewTerminalSession(in io.Reader, out io.Writer) (*terminal.Session, error) {
	tio := terminal.NewIO(in, out, c.Config.Console.Color)
	selection := terminal.NewSelection()
	presenter := terminal.NewDialogPresenter(tio)
	ctl, err := c.NewController(ControllerPorts{
		Confirmer: terminal.NewConfirmer(tio),
		Notifier:  terminal.NewNotifier(tio),
		Selection: selection,
		Presenter: presenter,
	})
	if err != nil {
		return nil, err
	}
	return terminal.NewSession(ctl, tio, selection, presenter, c.Client), nil
}

// Close 释放资源
func (c *Container) Close() {
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
