package console

import (
	"sync"

	"github.com/testuser-console/internal/logger"
)

// 事件名称
const (
	EventState  = "state"
	EventNotify = "notify"
	EventPrompt = "prompt"
)

const subscriberBuffer = 32

// Event 推送给视图的事件
type Event struct {
	Name string
	Data interface{}
}

// NotifyPayload 提示事件内容
type NotifyPayload struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Hub 事件广播，订阅者处理过慢时丢弃事件
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// NewHub 创建事件广播
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe 订阅事件，返回事件通道与取消函数
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}

// Publish 广播事件
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			logger.Debugw("console_event_dropped", "subscriber", id, "event", ev.Name)
		}
	}
}

// Subscribers 当前订阅数
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
