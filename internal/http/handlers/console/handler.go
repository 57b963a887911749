package console

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	handlershared "github.com/testuser-console/internal/http/handlers/shared"
	"github.com/testuser-console/internal/http/response"
	"github.com/testuser-console/internal/listctl"
	"github.com/testuser-console/internal/logger"
	"github.com/testuser-console/internal/models"
	"github.com/testuser-console/internal/remote"

	"github.com/gin-gonic/gin"
)

// DetailLookup 详情查询
type DetailLookup interface {
	Detail(ctx context.Context, id string) (*remote.Result[models.TestUser], error)
}

// Deps 处理器依赖
type Deps struct {
	Controller *listctl.Controller
	Detail     DetailLookup
	Hub        *Hub
	Broker     *PromptBroker
	Selection  *Selection
}

// Handler 列表控制器的 HTTP 绑定
type Handler struct {
	ctl       *listctl.Controller
	detail    DetailLookup
	hub       *Hub
	broker    *PromptBroker
	selection *Selection

	wg          sync.WaitGroup
	unsubscribe func()
	// life 在 Shutdown 时取消，结束后台操作与待确认的提示
	life   context.Context
	cancel context.CancelFunc
}

// New 创建处理器，并把控制器状态变更转发为 state 事件
func New(deps Deps) *Handler {
	h := &Handler{
		ctl:       deps.Controller,
		detail:    deps.Detail,
		hub:       deps.Hub,
		broker:    deps.Broker,
		selection: deps.Selection,
	}
	if h.hub == nil {
		h.hub = NewHub()
	}
	if h.selection == nil {
		h.selection = NewSelection()
	}
	h.life, h.cancel = context.WithCancel(context.Background())
	h.unsubscribe = h.ctl.Subscribe(func(snap listctl.Snapshot) {
		h.hub.Publish(Event{Name: EventState, Data: snap})
	})
	return h
}

// Close 取消订阅并等待后台操作结束
func (h *Handler) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
	h.wg.Wait()
	h.cancel()
}

// Shutdown 取消订阅与进行中的后台操作，等待其退出或 ctx 结束
func (h *Handler) Shutdown(ctx context.Context) error {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
	h.cancel()
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait 等待后台操作结束
func (h *Handler) Wait() {
	h.wg.Wait()
}

// FormRequest 查询条件，未提供的字段保持不变
type FormRequest struct {
	Username *string `json:"username"`
	Phone    *string `json:"phone"`
	Status   *string `json:"status"`
}

// PaginationRequest 分页修改请求
type PaginationRequest struct {
	PageSize    *int `json:"page_size"`
	CurrentPage *int `json:"current_page"`
}

// SelectionRequest 勾选请求
type SelectionRequest struct {
	IDs []string `json:"ids"`
}

// OpenDialogRequest 打开弹窗请求
type OpenDialogRequest struct {
	Mode string `json:"mode" binding:"required,oneof=create edit"`
	ID   string `json:"id"`
}

// ActiveRequest 启用状态请求
type ActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// AnswerRequest 确认框回答
type AnswerRequest struct {
	Confirm bool `json:"confirm"`
}

// GetState 当前快照
func (h *Handler) GetState(c *gin.Context) {
	response.Success(c, h.ctl.Snapshot())
}

// Events SSE 推送 state / notify / prompt 事件
func (h *Handler) Events(c *gin.Context) {
	ch, cancel := h.hub.Subscribe()
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent(EventState, h.ctl.Snapshot())
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, ev.Data)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// Search 按当前条件查询
func (h *Handler) Search(c *gin.Context) {
	if err := h.ctl.Search(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, h.ctl.Snapshot())
}

// ResetForm 清空查询条件并查询
func (h *Handler) ResetForm(c *gin.Context) {
	if err := h.ctl.ResetForm(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, h.ctl.Snapshot())
}

// UpdateForm 修改查询条件，不触发查询
func (h *Handler) UpdateForm(c *gin.Context) {
	var req FormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondErrorWithMsg(c, response.CodeBadRequest, msgBadRequest, err)
		return
	}
	if req.Status != nil {
		status := strings.TrimSpace(*req.Status)
		if status != "" && status != "0" && status != "1" {
			handlershared.RespondErrorWithMsg(c, response.CodeBadRequest, msgStatusInvalid, nil)
			return
		}
		req.Status = &status
	}
	h.ctl.UpdateForm(func(form *models.QueryForm) {
		if req.Username != nil {
			form.Username = *req.Username
		}
		if req.Phone != nil {
			form.Phone = *req.Phone
		}
		if req.Status != nil {
			form.Status = *req.Status
		}
	})
	response.Success(c, h.ctl.Snapshot())
}

// UpdatePagination 修改每页条数或页码后查询
func (h *Handler) UpdatePagination(c *gin.Context) {
	var req PaginationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondErrorWithMsg(c, response.CodeBadRequest, msgBadRequest, err)
		return
	}
	if req.PageSize == nil && req.CurrentPage == nil {
		handlershared.RespondErrorWithMsg(c, response.CodeBadRequest, msgPaginationEmpty, nil)
		return
	}
	ctx := c.Request.Context()
	if req.PageSize != nil {
		if err := h.ctl.HandleSizeChange(ctx, *req.PageSize); err != nil {
			respondError(c, err)
			return
		}
	}
	if req.CurrentPage != nil {
		if err := h.ctl.HandleCurrentChange(ctx, *req.CurrentPage); err != nil {
			respondError(c, err)
			return
		}
	}
	response.Success(c, h.ctl.Snapshot())
}

// SetSelection 按编号勾选当前页的行
func (h *Handler) SetSelection(c *gin.Context) {
	var req SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondErrorWithMsg(c, response.CodeBadRequest, msgBadRequest, err)
		return
	}
	rows := make([]models.TestUser, 0, len(req.IDs))
	seen := make(map[string]bool, len(req.IDs))
	for _, id := range req.IDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		row, err := h.ctl.Row(id)
		if err != nil {
			respondError(c, err)
			return
		}
		rows = append(rows, row)
	}
	h.ctl.HandleSelectionChange(h.selection.Replace(rows))
	response.Success(c, h.ctl.Snapshot())
}

// ClearSelection 取消全部勾选
func (h *Handler) ClearSelection(c *gin.Context) {
	h.ctl.OnSelectionCancel()
	response.Success(c, h.ctl.Snapshot())
}

// OpenDialog 打开新增或修改弹窗
func (h *Handler) OpenDialog(c *gin.Context) {
	var req OpenDialogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondErrorWithMsg(c, response.CodeBadRequest, msgBadRequest, err)
		return
	}
	var row *models.TestUser
	if req.ID != "" {
		found, err := h.ctl.Row(req.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		row = &found
	}
	if _, err := h.ctl.OpenDialog(req.Mode, row); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, h.ctl.Snapshot().Dialog)
}

// UpdateDialog 替换弹窗表单，编号保持不变
func (h *Handler) UpdateDialog(c *gin.Context) {
	d := h.ctl.CurrentDialog()
	if d == nil {
		respondError(c, listctl.ErrDialogClosed)
		return
	}
	var draft models.TestUserDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		handlershared.RespondErrorWithMsg(c, response.CodeBadRequest, msgBadRequest, err)
		return
	}
	err := d.Update(func(current *models.TestUserDraft) {
		id := current.ID
		*current = draft
		current.ID = id
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, h.ctl.Snapshot().Dialog)
}

// ConfirmDialog 校验并提交弹窗
func (h *Handler) ConfirmDialog(c *gin.Context) {
	d := h.ctl.CurrentDialog()
	if d == nil {
		respondError(c, listctl.ErrDialogClosed)
		return
	}
	if err := d.Confirm(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, msgSubmitted, h.ctl.Snapshot())
}

// CancelDialog 关闭弹窗
func (h *Handler) CancelDialog(c *gin.Context) {
	d := h.ctl.CurrentDialog()
	if d == nil {
		respondError(c, listctl.ErrDialogClosed)
		return
	}
	if err := d.Cancel(); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, h.ctl.Snapshot())
}

// DeleteRow 删除单行，确认框通过 prompt 事件下发，结果通过事件推送
func (h *Handler) DeleteRow(c *gin.Context) {
	row, err := h.ctl.Row(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.goAsync(c, "delete_row", func(ctx context.Context) error {
		if err := h.ctl.HandleDelete(ctx, row); err != nil {
			return err
		}
		h.dropSelected(row.ID)
		return nil
	})
	response.Accepted(c, msgAwaitConfirm, gin.H{"id": row.ID})
}

// BatchDelete 删除已勾选的行
func (h *Handler) BatchDelete(c *gin.Context) {
	if len(h.selection.SelectedRows()) == 0 {
		_, err := h.ctl.OnBatchDelete(c.Request.Context())
		respondError(c, err)
		return
	}
	h.goAsync(c, "batch_delete", func(ctx context.Context) error {
		_, err := h.ctl.OnBatchDelete(ctx)
		return err
	})
	response.Accepted(c, msgAwaitConfirm, gin.H{"selected": len(h.selection.SelectedRows())})
}

// SetActive 修改启用状态
func (h *Handler) SetActive(c *gin.Context) {
	row, err := h.ctl.Row(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	var req ActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondErrorWithMsg(c, response.CodeBadRequest, msgBadRequest, err)
		return
	}
	if err := h.ctl.ToggleActive(c.Request.Context(), row, *req.IsActive); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, h.ctl.Snapshot())
}

// GetRow 查询详情，不限于当前页
func (h *Handler) GetRow(c *gin.Context) {
	if h.detail == nil {
		handlershared.RespondErrorWithMsg(c, response.CodeNotFound, msgRowNotFound, nil)
		return
	}
	res, err := h.detail.Detail(c.Request.Context(), c.Param("id"))
	if err == nil {
		err = res.Err()
	}
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, res.Data)
}

// ListPrompts 等待回答的确认框
func (h *Handler) ListPrompts(c *gin.Context) {
	if h.broker == nil {
		response.Success(c, []PendingPrompt{})
		return
	}
	response.Success(c, h.broker.Pending())
}

// AnswerPrompt 回答确认框
func (h *Handler) AnswerPrompt(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondErrorWithMsg(c, response.CodeBadRequest, msgBadRequest, err)
		return
	}
	if h.broker == nil {
		respondError(c, ErrPromptNotFound)
		return
	}
	if err := h.broker.Answer(c.Param("id"), req.Confirm); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id"), "confirm": req.Confirm})
}

// goAsync 在请求结束后继续执行，ctx 保留请求值，不随请求取消，只随 Shutdown 取消
func (h *Handler) goAsync(c *gin.Context, op string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	stop := context.AfterFunc(h.life, cancel)
	log := handlershared.RequestLog(c)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer stop()
		defer cancel()
		if err := fn(ctx); err != nil {
			if errors.Is(err, listctl.ErrCancelled) {
				log.Debugw("console_async_cancelled", "op", op)
				return
			}
			log.Warnw("console_async_failed", "op", op, "error", err)
			return
		}
		logger.Debugw("console_async_done", "op", op)
	}()
}

func (h *Handler) dropSelected(id string) {
	rows := h.selection.SelectedRows()
	kept := rows[:0]
	for _, row := range rows {
		if row.ID != id {
			kept = append(kept, row)
		}
	}
	if len(kept) != len(rows) {
		h.ctl.HandleSelectionChange(h.selection.Replace(kept))
	}
}
