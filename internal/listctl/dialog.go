package listctl

import (
	"context"
	"fmt"

	"github.com/testuser-console/internal/constants"
	"github.com/testuser-console/internal/logger"
	"github.com/testuser-console/internal/models"
	"github.com/testuser-console/internal/remote"
)

// Dialog 新增/修改弹窗句柄，关闭后所有操作返回 ErrDialogClosed
type Dialog struct {
	c     *Controller
	mode  string
	title string
}

// Mode 弹窗模式
func (d *Dialog) Mode() string { return d.mode }

// Title 弹窗标题
func (d *Dialog) Title() string { return d.title }

// Draft 当前表单数据
func (d *Dialog) Draft() (models.TestUserDraft, error) {
	c := d.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dialog != d || c.state.Dialog == nil {
		return models.TestUserDraft{}, ErrDialogClosed
	}
	return c.state.Dialog.Draft, nil
}

// Open 弹窗是否仍处于打开状态
func (d *Dialog) Open() bool {
	c := d.c
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialog == d
}

// OpenDialog 打开弹窗，edit 模式由 row 逐项填充表单
func (c *Controller) OpenDialog(mode string, row *models.TestUser) (*Dialog, error) {
	var action string
	var draft models.TestUserDraft
	switch mode {
	case constants.DialogModeCreate:
		action = dialogActionCreate
		draft = models.NewTestUserDraft()
	case constants.DialogModeEdit:
		if row == nil {
			return nil, fmt.Errorf("%w: edit requires a row", ErrInvalidDialogMode)
		}
		action = dialogActionEdit
		draft = models.DraftFromRow(row)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDialogMode, mode)
	}

	d := &Dialog{c: c, mode: mode, title: fmt.Sprintf(msgDialogTitle, action)}
	c.mu.Lock()
	if c.dialog != nil {
		c.mu.Unlock()
		return nil, ErrDialogOpen
	}
	c.dialog = d
	c.state.Dialog = &DialogState{Mode: mode, Title: d.title, Draft: draft}
	snap := c.commitLocked()
	c.mu.Unlock()

	c.publish(snap)
	c.presenter.OpenDialog(d)
	return d, nil
}

// CurrentDialog 返回当前打开的弹窗
func (c *Controller) CurrentDialog() *Dialog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialog
}

// Update 修改表单数据
func (d *Dialog) Update(fn func(*models.TestUserDraft)) error {
	if fn == nil {
		return nil
	}
	c := d.c
	c.mu.Lock()
	if c.dialog != d {
		c.mu.Unlock()
		return ErrDialogClosed
	}
	if c.state.Dialog.Submitting {
		c.mu.Unlock()
		return ErrDialogBusy
	}
	fn(&c.state.Dialog.Draft)
	snap := c.commitLocked()
	c.mu.Unlock()
	c.publish(snap)
	return nil
}

// Cancel 关闭弹窗，不发起请求
func (d *Dialog) Cancel() error {
	c := d.c
	c.mu.Lock()
	if c.dialog != d {
		c.mu.Unlock()
		return ErrDialogClosed
	}
	if c.state.Dialog.Submitting {
		c.mu.Unlock()
		return ErrDialogBusy
	}
	snap := c.closeDialogLocked()
	c.mu.Unlock()

	c.publish(snap)
	c.presenter.CloseDialog(d)
	return nil
}

// Confirm 校验并提交表单，成功后关闭弹窗并刷新列表；失败时弹窗保持打开
func (d *Dialog) Confirm(ctx context.Context) error {
	c := d.c
	c.mu.Lock()
	if c.dialog != d {
		c.mu.Unlock()
		return ErrDialogClosed
	}
	if c.state.Dialog.Submitting {
		c.mu.Unlock()
		return ErrDialogBusy
	}
	draft := c.state.Dialog.Draft
	draft.Normalize()
	c.state.Dialog.Submitting = true
	snap := c.commitLocked()
	c.mu.Unlock()
	c.publish(snap)

	if err := c.validator.Validate(draft); err != nil {
		d.release()
		c.metrics.IncDialogSubmit(d.mode, constants.OutcomeInvalid)
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	action := dialogActionCreate
	var res *remote.Result[models.TestUser]
	var err error
	if d.mode == constants.DialogModeEdit {
		action = dialogActionEdit
		res, err = c.client.Update(ctx, draft.ID, draft)
	} else {
		res, err = c.client.Create(ctx, draft)
	}
	if err == nil {
		err = res.Err()
	}

	if err != nil {
		logger.Warnw("dialog_submit_failed", "mode", d.mode, "id", draft.ID, "error", err)
		c.metrics.IncDialogSubmit(d.mode, constants.OutcomeFailed)
		d.release()
		c.notify(fmt.Sprintf(msgDialogSubmitFailed, action, remote.Reason(err)), SeverityError)
		return err
	}

	logger.Infow("dialog_submit_succeeded", "mode", d.mode, "id", draft.ID)
	c.metrics.IncDialogSubmit(d.mode, constants.OutcomeSuccess)
	c.notify(fmt.Sprintf(msgDialogSubmitOK, action), SeveritySuccess)
	c.mu.Lock()
	closed := c.dialog == d
	if closed {
		snap = c.closeDialogLocked()
	}
	c.mu.Unlock()
	if closed {
		c.publish(snap)
		c.presenter.CloseDialog(d)
	}
	_ = c.Refresh(ctx)
	return nil
}

// release 提交结束但弹窗保持打开
func (d *Dialog) release() {
	c := d.c
	c.mu.Lock()
	if c.dialog != d {
		c.mu.Unlock()
		return
	}
	c.state.Dialog.Submitting = false
	snap := c.commitLocked()
	c.mu.Unlock()
	c.publish(snap)
}

func (c *Controller) closeDialogLocked() Snapshot {
	c.dialog = nil
	c.state.Dialog = nil
	return c.commitLocked()
}
