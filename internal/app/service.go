package app

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Service 服务接口，Start 阻塞到服务结束
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// ShutdownHook 服务全部停止后执行的收尾操作
type ShutdownHook struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Runner 服务运行器
type Runner struct {
	services []Service
	hooks    []ShutdownHook

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewRunner 创建服务运行器
func NewRunner(services ...Service) *Runner {
	return &Runner{services: services}
}

// OnShutdown 注册收尾操作，按注册的逆序执行
func (r *Runner) OnShutdown(name string, fn func(ctx context.Context) error) {
	if r == nil || fn == nil {
		return
	}
	r.hooks = append(r.hooks, ShutdownHook{Name: name, Fn: fn})
}

// Shutdown 执行收尾操作，多次调用只执行一次
func (r *Runner) Shutdown(ctx context.Context, logger *zap.SugaredLogger) error {
	if r == nil {
		return nil
	}
	r.shutdownOnce.Do(func() {
		var errs []error
		for i := len(r.hooks) - 1; i >= 0; i-- {
			hook := r.hooks[i]
			if err := hook.Fn(ctx); err != nil {
				if logger != nil {
					logger.Errorw("app_shutdown_hook_failed", "hook", hook.Name, "error", err)
				}
				errs = append(errs, err)
				continue
			}
			if logger != nil {
				logger.Debugw("app_shutdown_hook_done", "hook", hook.Name)
			}
		}
		r.shutdownErr = errors.Join(errs...)
	})
	return r.shutdownErr
}

// RunWithOptions 运行服务并处理系统信号
func RunWithOptions(runner *Runner, opts Options) error {
	if runner == nil {
		return errors.New("runner is nil")
	}
	opts = normalizeOptions(opts)
	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(ctx, opts.Signals...)
		defer cancel()
	}
	return runner.Run(ctx, opts.ShutdownTimeout, opts.Logger)
}

// Run 启动全部服务，任一服务退出或 ctx 结束时停止其余服务并执行收尾
func (r *Runner) Run(ctx context.Context, stopTimeout time.Duration, logger *zap.SugaredLogger) error {
	if r == nil || len(r.services) == 0 {
		return errors.New("no services to run")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(r.services))
	for _, svc := range r.services {
		go r.startService(ctx, svc, errCh, logger)
	}

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case err := <-errCh:
		runErr = err
	}
	cancel()

	if stopTimeout <= 0 {
		stopTimeout = 10 * time.Second
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()
	for _, svc := range r.services {
		if svc == nil {
			continue
		}
		if err := svc.Stop(stopCtx); err != nil && logger != nil {
			logger.Errorw("app_service_stop_failed", "service", svc.Name(), "error", err)
		}
	}
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	if err := r.Shutdown(stopCtx, logger); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func (r *Runner) startService(ctx context.Context, svc Service, errCh chan<- error, logger *zap.SugaredLogger) {
	if svc == nil {
		errCh <- errors.New("service is nil")
		return
	}
	name := svc.Name()
	if logger != nil {
		logger.Infow("app_service_start", "service", name)
	}
	err := svc.Start(ctx)
	if logger != nil {
		logger.Infow("app_service_exit", "service", name, "error", err)
	}
	errCh <- err
}
