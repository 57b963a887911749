package listctl

import (
	"context"
	"fmt"
	"sync"

	"github.com/testuser-console/internal/constants"
	"github.com/testuser-console/internal/logger"
	"github.com/testuser-console/internal/models"
	"github.com/testuser-console/internal/remote"
)

// DeleteState 删除流程状态
type DeleteState int

const (
	DeleteIdle DeleteState = iota
	DeleteConfirming
	DeleteDeleting
	DeleteCancelled
)

func (s DeleteState) String() string {
	switch s {
	case DeleteIdle:
		return "idle"
	case DeleteConfirming:
		return "confirming"
	case DeleteDeleting:
		return "deleting"
	case DeleteCancelled:
		return "cancelled"
	}
	return "unknown"
}

// DeleteFlow 删除确认状态机
//
//	Idle -> Confirming -> Deleting  -> Idle
//	                   -> Cancelled -> Idle
type DeleteFlow struct {
	mu    sync.Mutex
	state DeleteState
}

// NewDeleteFlow 创建处于 Idle 的状态机
func NewDeleteFlow() *DeleteFlow {
	return &DeleteFlow{}
}

// State 当前状态
func (f *DeleteFlow) State() DeleteState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Begin 弹出确认框
func (f *DeleteFlow) Begin() error {
	return f.transition(DeleteConfirming, DeleteIdle)
}

// Accept 用户确认删除
func (f *DeleteFlow) Accept() error {
	return f.transition(DeleteDeleting, DeleteConfirming)
}

// Reject 用户取消
func (f *DeleteFlow) Reject() error {
	return f.transition(DeleteCancelled, DeleteConfirming)
}

// Finish 流程结束回到 Idle
func (f *DeleteFlow) Finish() error {
	return f.transition(DeleteIdle, DeleteDeleting, DeleteCancelled)
}

func (f *DeleteFlow) transition(to DeleteState, from ...DeleteState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, allowed := range from {
		if f.state == allowed {
			f.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f.state, to)
}

// confirmDelete 弹出确认框并推进状态机，取消时返回 ErrCancelled
func (c *Controller) confirmDelete(ctx context.Context, flow *DeleteFlow, message string) error {
	if err := flow.Begin(); err != nil {
		return err
	}
	ok, err := c.confirmer.Confirm(ctx, newWarningPrompt(message))
	if err == nil && ok {
		return flow.Accept()
	}
	_ = flow.Reject()
	_ = flow.Finish()
	c.notify(msgDeleteCancelled, SeverityInfo)
	if err != nil {
		logger.Debugw("delete_confirm_aborted", "error", err)
		return fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	return ErrCancelled
}

// HandleDelete 删除单行：确认后删除，成功提示并刷新，失败仅提示
func (c *Controller) HandleDelete(ctx context.Context, row models.TestUser) error {
	flow := NewDeleteFlow()
	if err := c.confirmDelete(ctx, flow, fmt.Sprintf(msgConfirmDelete, row.Username)); err != nil {
		c.metrics.IncDelete(constants.DeleteKindSingle, constants.OutcomeCancelled)
		return err
	}

	err := c.deleteRow(ctx, row.ID)
	_ = flow.Finish()
	if err != nil {
		logger.Warnw("delete_failed", "id", row.ID, "username", row.Username, "error", err)
		c.metrics.IncDelete(constants.DeleteKindSingle, constants.OutcomeFailed)
		c.notify(fmt.Sprintf(msgDeleteFailed, remote.Reason(err)), SeverityError)
		return err
	}

	logger.Infow("delete_succeeded", "id", row.ID, "username", row.Username)
	c.metrics.IncDelete(constants.DeleteKindSingle, constants.OutcomeSuccess)
	c.notify(fmt.Sprintf(msgDeleted, row.Username), SeveritySuccess)
	_ = c.Refresh(ctx)
	return nil
}

// BatchFailure 批量删除中单条失败
type BatchFailure struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Reason   string `json:"reason"`
}

// BatchResult 批量删除结果
type BatchResult struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Failures  []BatchFailure `json:"failures,omitempty"`
}

// OnBatchDelete 批量删除勾选行，逐条顺序执行，单条失败不影响其余
func (c *Controller) OnBatchDelete(ctx context.Context) (BatchResult, error) {
	rows := c.selection.SelectedRows()
	if len(rows) == 0 {
		c.notify(msgSelectAtLeastOne, SeverityWarning)
		return BatchResult{}, ErrEmptySelection
	}

	flow := NewDeleteFlow()
	if err := c.confirmDelete(ctx, flow, fmt.Sprintf(msgConfirmBatchDelete, len(rows))); err != nil {
		c.metrics.IncDelete(constants.DeleteKindBatch, constants.OutcomeCancelled)
		return BatchResult{}, err
	}

	result := BatchResult{Total: len(rows)}
	for _, row := range rows {
		if err := c.deleteRow(ctx, row.ID); err != nil {
			logger.Warnw("batch_delete_item_failed", "id", row.ID, "error", err)
			result.Failed++
			result.Failures = append(result.Failures, BatchFailure{
				ID:       row.ID,
				Username: row.Username,
				Reason:   remote.Reason(err),
			})
			continue
		}
		result.Succeeded++
	}
	_ = flow.Finish()

	logger.Infow("batch_delete_done", "total", result.Total, "succeeded", result.Succeeded, "failed", result.Failed)
	c.metrics.AddDelete(constants.DeleteKindBatch, constants.OutcomeSuccess, result.Succeeded)
	c.metrics.AddDelete(constants.DeleteKindBatch, constants.OutcomeFailed, result.Failed)

	severity := SeverityError
	if result.Succeeded > 0 {
		severity = SeveritySuccess
	}
	c.notify(fmt.Sprintf(msgBatchDeleteResult, result.Succeeded, result.Failed), severity)

	c.selection.ClearSelection()
	c.update(func(s *State) {
		s.SelectedNum = 0
	})
	_ = c.Refresh(ctx)
	return result, nil
}

// ToggleActive 切换启用状态，成功后刷新列表
func (c *Controller) ToggleActive(ctx context.Context, row models.TestUser, active bool) error {
	res, err := c.client.Patch(ctx, row.ID, map[string]interface{}{"is_active": active})
	if err == nil {
		err = res.Err()
	}
	if err != nil {
		logger.Warnw("toggle_active_failed", "id", row.ID, "active", active, "error", err)
		c.notify(fmt.Sprintf(msgStatusUpdateFailed, remote.Reason(err)), SeverityError)
		return err
	}
	message := msgStatusDisabled
	if active {
		message = msgStatusEnabled
	}
	c.notify(fmt.Sprintf(message, row.Username), SeveritySuccess)
	_ = c.Refresh(ctx)
	return nil
}

func (c *Controller) deleteRow(ctx context.Context, id string) error {
	res, err := c.client.Delete(ctx, id)
	if err != nil {
		return err
	}
	return res.Err()
}
