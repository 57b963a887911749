package listctl

import (
	"context"

	"github.com/testuser-console/internal/constants"
	"github.com/testuser-console/internal/logger"
	"github.com/testuser-console/internal/models"
	"github.com/testuser-console/internal/remote"
)

// Severity 提示样式
type Severity string

const (
	SeveritySuccess Severity = constants.SeveritySuccess
	SeverityInfo    Severity = constants.SeverityInfo
	SeverityWarning Severity = constants.SeverityWarning
	SeverityError   Severity = constants.SeverityError
)

// ResourceClient 远程测试用户接口
type ResourceClient interface {
	List(ctx context.Context, params models.ListParams) (*remote.Result[models.ListData], error)
	Create(ctx context.Context, draft models.TestUserDraft) (*remote.Result[models.TestUser], error)
	Update(ctx context.Context, id string, draft models.TestUserDraft) (*remote.Result[models.TestUser], error)
	Patch(ctx context.Context, id string, fields map[string]interface{}) (*remote.Result[models.TestUser], error)
	Delete(ctx context.Context, id string) (*remote.Result[struct{}], error)
}

// Prompt 确认框内容
type Prompt struct {
	Title       string `json:"title"`
	Message     string `json:"message"`
	ConfirmText string `json:"confirm_text"`
	CancelText  string `json:"cancel_text"`
}

func newWarningPrompt(message string) Prompt {
	return Prompt{
		Title:       promptTitle,
		Message:     message,
		ConfirmText: promptConfirmText,
		CancelText:  promptCancelText,
	}
}

// Confirmer 二次确认，返回 false 或 error 均视为取消
type Confirmer interface {
	Confirm(ctx context.Context, prompt Prompt) (bool, error)
}

// Notifier 消息提示
type Notifier interface {
	Notify(message string, severity Severity)
}

// Selection 表格勾选状态，由视图持有
type Selection interface {
	SelectedRows() []models.TestUser
	ClearSelection()
}

// FormValidator 弹窗表单校验
type FormValidator interface {
	Validate(draft models.TestUserDraft) error
}

// DialogPresenter 弹窗渲染
type DialogPresenter interface {
	OpenDialog(d *Dialog)
	CloseDialog(d *Dialog)
}

type logNotifier struct{}

func (logNotifier) Notify(message string, severity Severity) {
	logger.Infow("console_notify", "severity", string(severity), "message", message)
}

type denyConfirmer struct{}

func (denyConfirmer) Confirm(ctx context.Context, prompt Prompt) (bool, error) {
	logger.Warnw("console_confirm_unavailable", "message", prompt.Message)
	return false, nil
}

type emptySelection struct{}

func (emptySelection) SelectedRows() []models.TestUser { return nil }
func (emptySelection) ClearSelection()                 {}

type acceptValidator struct{}

func (acceptValidator) Validate(models.TestUserDraft) error { return nil }

type nopPresenter struct{}

func (nopPresenter) OpenDialog(*Dialog)  {}
func (nopPresenter) CloseDialog(*Dialog) {}
