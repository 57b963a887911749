package console

import (
	"errors"

	"github.com/testuser-console/internal/form"
	handlershared "github.com/testuser-console/internal/http/handlers/shared"
	"github.com/testuser-console/internal/http/response"
	"github.com/testuser-console/internal/listctl"
	"github.com/testuser-console/internal/remote"

	"github.com/gin-gonic/gin"
)

const (
	msgBadRequest      = "请求参数错误"
	msgStatusInvalid   = "状态只能为 1、0 或空"
	msgPaginationEmpty = "请提供 page_size 或 current_page"
	msgValidation      = "表单校验失败"
	msgDialogOpen      = "已有打开的弹窗"
	msgDialogClosed    = "弹窗已关闭"
	msgDialogBusy      = "正在提交，请稍候"
	msgDialogMode      = "弹窗模式无效"
	msgRowNotFound     = "数据不存在"
	msgCancelled       = "已取消"
	msgEmptySelection  = "请至少选择一条数据"
	msgPromptNotFound  = "确认请求不存在或已结束"
	msgRemoteFailed    = "测试用户接口请求失败"
	msgInternal        = "服务内部错误"
	msgAwaitConfirm    = "已提交，等待确认"
	msgSubmitted       = "提交成功"
)

// respondError 按控制器与远程接口错误类型返回响应
func respondError(c *gin.Context, err error) {
	switch {
	case err == nil:
		response.Success(c, nil)
	case errors.Is(err, listctl.ErrValidation):
		var fieldErrs form.FieldErrors
		if errors.As(err, &fieldErrs) {
			handlershared.RespondErrorWithData(c, response.CodeBadRequest, fieldErrs.Error(), gin.H{"fields": fieldErrs}, err)
			return
		}
		handlershared.RespondErrorWithMsg(c, response.CodeBadRequest, msgValidation, err)
	case errors.Is(err, listctl.ErrDialogOpen):
		handlershared.RespondErrorWithMsg(c, response.CodeConflict, msgDialogOpen, err)
	case errors.Is(err, listctl.ErrDialogBusy):
		handlershared.RespondErrorWithMsg(c, response.CodeConflict, msgDialogBusy, err)
	case errors.Is(err, listctl.ErrDialogClosed):
		handlershared.RespondErrorWithMsg(c, response.CodeConflict, msgDialogClosed, err)
	case errors.Is(err, listctl.ErrInvalidDialogMode):
		handlershared.RespondErrorWithMsg(c, response.CodeBadRequest, msgDialogMode, err)
	case errors.Is(err, listctl.ErrRowNotFound), errors.Is(err, remote.ErrInvalidID):
		handlershared.RespondErrorWithMsg(c, response.CodeNotFound, msgRowNotFound, err)
	case errors.Is(err, listctl.ErrCancelled):
		handlershared.RespondErrorWithMsg(c, response.CodeBadRequest, msgCancelled, nil)
	case errors.Is(err, listctl.ErrEmptySelection):
		handlershared.RespondErrorWithMsg(c, response.CodeBadRequest, msgEmptySelection, nil)
	case errors.Is(err, ErrPromptNotFound):
		handlershared.RespondErrorWithMsg(c, response.CodeNotFound, msgPromptNotFound, nil)
	case errors.Is(err, remote.ErrRequestFailed),
		errors.Is(err, remote.ErrResponseInvalid),
		errors.Is(err, remote.ErrApplication):
		handlershared.RespondErrorWithMsg(c, response.CodeBadGateway, msgRemoteFailed+": "+remote.Reason(err), err)
	default:
		handlershared.RespondErrorWithMsg(c, response.CodeInternal, msgInternal, err)
	}
}
