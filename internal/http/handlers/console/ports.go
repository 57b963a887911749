package console

import (
	"sync"

	"github.com/testuser-console/internal/listctl"
	"github.com/testuser-console/internal/logger"
	"github.com/testuser-console/internal/models"
)

// Notifier 记录日志并推送 notify 事件
type Notifier struct {
	hub *Hub
}

// NewNotifier 创建提示器
func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

// Notify 推送提示
func (n *Notifier) Notify(message string, severity listctl.Severity) {
	logger.Infow("console_notify", "severity", string(severity), "message", message)
	if n.hub != nil {
		n.hub.Publish(Event{Name: EventNotify, Data: NotifyPayload{Message: message, Severity: string(severity)}})
	}
}

// Selection 接口侧的勾选状态，按请求整体替换
type Selection struct {
	mu   sync.Mutex
	rows []models.TestUser
}

// NewSelection 创建空勾选集
func NewSelection() *Selection {
	return &Selection{}
}

// Replace 替换勾选行
func (s *Selection) Replace(rows []models.TestUser) []models.TestUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append([]models.TestUser(nil), rows...)
	return append([]models.TestUser(nil), s.rows...)
}

// SelectedRows 已勾选行
func (s *Selection) SelectedRows() []models.TestUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.TestUser(nil), s.rows...)
}

// ClearSelection 清空
func (s *Selection) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
}
