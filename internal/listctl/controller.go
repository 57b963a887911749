package listctl

import (
	"fmt"
	"sync"
	"time"

	"github.com/testuser-console/internal/constants"
	"github.com/testuser-console/internal/metrics"
	"github.com/testuser-console/internal/models"

	"go.uber.org/atomic"
)

const (
	defaultCurrentPage  = constants.DefaultCurrentPage
	defaultLoadingFloor = 500 * time.Millisecond
)

// Options 控制器依赖与参数
type Options struct {
	Client    ResourceClient
	Confirmer Confirmer
	Notifier  Notifier
	Selection Selection
	Validator FormValidator
	Presenter DialogPresenter
	Metrics   *metrics.Metrics

	PageSize int
	// LoadingFloor 加载态在请求结束后至少保持的时长，<=0 时立即清除
	LoadingFloor time.Duration
	// DiscardStale 丢弃早于最新一次查询的响应
	DiscardStale bool
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{
		PageSize:     constants.DefaultPageSize,
		LoadingFloor: defaultLoadingFloor,
		DiscardStale: true,
	}
}

// Controller 测试用户列表控制器
type Controller struct {
	client    ResourceClient
	confirmer Confirmer
	notifier  Notifier
	selection Selection
	validator FormValidator
	presenter DialogPresenter
	metrics   *metrics.Metrics

	loadingFloor time.Duration
	discardStale bool

	mu      sync.Mutex
	state   State
	version uint64
	dialog  *Dialog
	seq     atomic.Uint64

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// New 创建控制器
func New(opts Options) (*Controller, error) {
	if opts.Client == nil {
		return nil, ErrClientRequired
	}
	pageSize := clampPageSize(opts.PageSize)
	c := &Controller{
		client:       opts.Client,
		confirmer:    opts.Confirmer,
		notifier:     opts.Notifier,
		selection:    opts.Selection,
		validator:    opts.Validator,
		presenter:    opts.Presenter,
		metrics:      opts.Metrics,
		loadingFloor: opts.LoadingFloor,
		discardStale: opts.DiscardStale,
		state:        newState(pageSize),
		subs:         make(map[int]func(Snapshot)),
	}
	if c.confirmer == nil {
		c.confirmer = denyConfirmer{}
	}
	if c.notifier == nil {
		c.notifier = logNotifier{}
	}
	if c.selection == nil {
		c.selection = emptySelection{}
	}
	if c.validator == nil {
		c.validator = acceptValidator{}
	}
	if c.presenter == nil {
		c.presenter = nopPresenter{}
	}
	return c, nil
}

// Snapshot 当前状态副本
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.snapshot(c.version)
}

// Subscribe 订阅状态变更，返回取消函数
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	if fn == nil {
		return func() {}
	}
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

// SetForm 整体替换查询表单
func (c *Controller) SetForm(form models.QueryForm) {
	c.update(func(s *State) {
		s.Form = form
	})
}

// UpdateForm 修改查询表单
func (c *Controller) UpdateForm(fn func(*models.QueryForm)) {
	if fn == nil {
		return
	}
	c.update(func(s *State) {
		fn(&s.Form)
	})
}

// HandleSelectionChange 表格勾选变化
func (c *Controller) HandleSelectionChange(rows []models.TestUser) {
	c.update(func(s *State) {
		s.SelectedNum = len(rows)
	})
}

// OnSelectionCancel 取消全部勾选
func (c *Controller) OnSelectionCancel() {
	c.update(func(s *State) {
		s.SelectedNum = 0
	})
	c.selection.ClearSelection()
}

// update 在锁内修改状态并通知订阅者
func (c *Controller) update(fn func(*State)) Snapshot {
	c.mu.Lock()
	fn(&c.state)
	snap := c.commitLocked()
	c.mu.Unlock()
	c.publish(snap)
	return snap
}

func (c *Controller) commitLocked() Snapshot {
	c.version++
	return c.state.snapshot(c.version)
}

func (c *Controller) publish(snap Snapshot) {
	c.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (c *Controller) notify(message string, severity Severity) {
	c.notifier.Notify(message, severity)
}

func clampPageSize(n int) int {
	if n <= 0 {
		return constants.DefaultPageSize
	}
	if n > constants.MaxPageSize {
		return constants.MaxPageSize
	}
	return n
}

// Row 按编号查找当前页数据，不在当前页时返回 ErrRowNotFound
func (c *Controller) Row(id string) (models.TestUser, error) {
	row, ok := c.Snapshot().Row(id)
	if !ok {
		return models.TestUser{}, fmt.Errorf("%w: %s", ErrRowNotFound, id)
	}
	return row, nil
}
