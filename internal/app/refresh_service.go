package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/testuser-console/internal/logger"
)

// Refresher 可重复执行的列表查询
type Refresher interface {
	Search(ctx context.Context) error
}

// RefreshService 按固定间隔重新查询当前页
type RefreshService struct {
	name      string
	refresher Refresher
	interval  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewRefreshService 创建定时刷新服务
func NewRefreshService(refresher Refresher, interval time.Duration) *RefreshService {
	return &RefreshService{
		name:      "refresh",
		refresher: refresher,
		interval:  interval,
	}
}

// Name 服务名称
func (s *RefreshService) Name() string {
	if s == nil || s.name == "" {
		return "refresh"
	}
	return s.name
}

// Start 立即查询一次，此后每个间隔查询一次，直到 ctx 结束或 Stop
func (s *RefreshService) Start(ctx context.Context) error {
	if s == nil || s.refresher == nil {
		return errors.New("refresh service not initialized")
	}
	if s.interval <= 0 {
		return errors.New("refresh interval must be positive")
	}
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	runOnce := func() {
		if err := s.refresher.Search(ctx); err != nil && ctx.Err() == nil {
			logger.Warnw("refresh_search_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			runOnce()
		}
	}
}

// Stop 停止服务
func (s *RefreshService) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}
