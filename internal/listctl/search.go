package listctl

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/testuser-console/internal/constants"
	"github.com/testuser-console/internal/logger"
	"github.com/testuser-console/internal/models"
	"github.com/testuser-console/internal/remote"
)

// Search 按当前表单与分页查询列表
func (c *Controller) Search(ctx context.Context) error {
	return c.searchWith(ctx, nil)
}

// Refresh 变更成功后重新查询
func (c *Controller) Refresh(ctx context.Context) error {
	return c.searchWith(ctx, nil)
}

// ResetForm 清空查询表单后查询，分页保持不变
func (c *Controller) ResetForm(ctx context.Context) error {
	return c.searchWith(ctx, func(s *State) {
		s.Form = models.QueryForm{}
	})
}

// HandleSizeChange 修改每页条数后查询
func (c *Controller) HandleSizeChange(ctx context.Context, size int) error {
	size = clampPageSize(size)
	return c.searchWith(ctx, func(s *State) {
		s.Pagination.PageSize = size
	})
}

// HandleCurrentChange 切换页码后查询
func (c *Controller) HandleCurrentChange(ctx context.Context, page int) error {
	if page < 1 {
		page = defaultCurrentPage
	}
	return c.searchWith(ctx, func(s *State) {
		s.Pagination.CurrentPage = page
	})
}

// searchWith 修改状态、签发序号与构造参数在同一把锁内完成，保证请求参数顺序与调用顺序一致
func (c *Controller) searchWith(ctx context.Context, mutate func(*State)) error {
	c.mu.Lock()
	if mutate != nil {
		mutate(&c.state)
	}
	token := c.seq.Inc()
	c.state.Loading = true
	params := buildListParams(c.state.Form, c.state.Pagination)
	snap := c.commitLocked()
	c.mu.Unlock()
	c.publish(snap)

	start := time.Now()
	res, err := c.client.List(ctx, params)
	outcome, searchErr := c.applySearch(token, res, err)
	c.metrics.ObserveSearch(outcome, time.Since(start))
	c.scheduleLoadingClear(token)
	return searchErr
}

func (c *Controller) applySearch(token uint64, res *remote.Result[models.ListData], err error) (string, error) {
	c.mu.Lock()
	if c.isStaleLocked(token) {
		c.mu.Unlock()
		logger.Debugw("search_response_stale", "token", token, "latest", c.seq.Load())
		return constants.SearchOutcomeStale, nil
	}
	if err != nil {
		c.mu.Unlock()
		logger.Warnw("search_failed", "token", token, "error", err)
		c.notify(fmt.Sprintf(msgFetchFailedReason, remote.Reason(err)), SeverityError)
		return constants.SearchOutcomeTransportError, err
	}
	if appErr := res.Err(); appErr != nil {
		c.mu.Unlock()
		logger.Warnw("search_app_failed", "token", token, "message", res.Message)
		c.notify(msgFetchFailed, SeverityError)
		return constants.SearchOutcomeAppError, appErr
	}

	rows := res.Data.Rows()
	list := make([]models.TestUser, len(rows))
	copy(list, rows)
	c.state.DataList = list
	c.state.Pagination.Total = res.Data.Total
	snap := c.commitLocked()
	c.mu.Unlock()
	c.publish(snap)
	return constants.SearchOutcomeOK, nil
}

func (c *Controller) isStaleLocked(token uint64) bool {
	return c.discardStale && token != c.seq.Load()
}

func (c *Controller) scheduleLoadingClear(token uint64) {
	if c.loadingFloor <= 0 {
		c.clearLoading(token)
		return
	}
	time.AfterFunc(c.loadingFloor, func() {
		c.clearLoading(token)
	})
}

func (c *Controller) clearLoading(token uint64) {
	c.mu.Lock()
	if c.isStaleLocked(token) || !c.state.Loading {
		c.mu.Unlock()
		return
	}
	c.state.Loading = false
	snap := c.commitLocked()
	c.mu.Unlock()
	c.publish(snap)
}

func buildListParams(form models.QueryForm, pagination models.Pagination) models.ListParams {
	params := models.ListParams{
		Page:     pagination.CurrentPage,
		PageSize: pagination.PageSize,
		Username: strings.TrimSpace(form.Username),
		Phone:    strings.TrimSpace(form.Phone),
	}
	if status := strings.TrimSpace(form.Status); status != "" {
		n, err := strconv.Atoi(status)
		if err != nil {
			logger.Warnw("search_status_invalid", "status", status)
		} else {
			params.Status = &n
		}
	}
	return params
}
