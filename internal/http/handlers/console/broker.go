package console

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/testuser-console/internal/listctl"
	"github.com/testuser-console/internal/logger"

	"github.com/google/uuid"
)

// ErrPromptNotFound 确认请求不存在或已结束
var ErrPromptNotFound = errors.New("prompt not found")

const defaultPromptTimeout = 5 * time.Minute

// PendingPrompt 等待回答的确认请求
type PendingPrompt struct {
	ID        string         `json:"id"`
	Prompt    listctl.Prompt `json:"prompt"`
	CreatedAt time.Time      `json:"created_at"`

	answer chan bool
}

// PromptBroker 通过接口回答的确认框
type PromptBroker struct {
	hub     *Hub
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]*PendingPrompt
}

// NewPromptBroker 创建确认代理，timeout<=0 时使用 5 分钟
func NewPromptBroker(hub *Hub, timeout time.Duration) *PromptBroker {
	if timeout <= 0 {
		timeout = defaultPromptTimeout
	}
	return &PromptBroker{
		hub:     hub,
		timeout: timeout,
		pending: make(map[string]*PendingPrompt),
	}
}

// Confirm 发布确认请求并等待回答，超时或 ctx 结束视为取消
func (b *PromptBroker) Confirm(ctx context.Context, prompt listctl.Prompt) (bool, error) {
	p := &PendingPrompt{
		ID:        uuid.NewString(),
		Prompt:    prompt,
		CreatedAt: time.Now(),
		answer:    make(chan bool, 1),
	}
	b.mu.Lock()
	b.pending[p.ID] = p
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, p.ID)
		b.mu.Unlock()
	}()

	if b.hub != nil {
		b.hub.Publish(Event{Name: EventPrompt, Data: p})
	}

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()
	select {
	case ok := <-p.answer:
		return ok, nil
	case <-timer.C:
		logger.Infow("console_prompt_timeout", "prompt_id", p.ID)
		return false, context.DeadlineExceeded
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Answer 回答确认请求
func (b *PromptBroker) Answer(id string, confirm bool) error {
	b.mu.Lock()
	p, ok := b.pending[id]
	if ok {
		delete(b.pending, id)
	}
	b.mu.Unlock()
	if !ok {
		return ErrPromptNotFound
	}
	p.answer <- confirm
	return nil
}

// Pending 按创建时间返回等待中的确认请求
func (b *PromptBroker) Pending() []PendingPrompt {
	b.mu.Lock()
	out := make([]PendingPrompt, 0, len(b.pending))
	for _, p := range b.pending {
		out = append(out, PendingPrompt{ID: p.ID, Prompt: p.Prompt, CreatedAt: p.CreatedAt})
	}
	b.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
