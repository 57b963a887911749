package terminal

import (
	"sync"

	"github.com/testuser-console/internal/models"
)

// Selection 终端勾选状态，按编号记录已勾选行
type Selection struct {
	mu    sync.Mutex
	order []string
	rows  map[string]models.TestUser
}

// NewSelection 创建空勾选集
func NewSelection() *Selection {
	return &Selection{rows: make(map[string]models.TestUser)}
}

// Select 勾选若干行，已勾选的保持不变
func (s *Selection) Select(rows ...models.TestUser) []models.TestUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		if _, ok := s.rows[row.ID]; ok {
			continue
		}
		s.rows[row.ID] = row
		s.order = append(s.order, row.ID)
	}
	return s.selectedLocked()
}

// Unselect 取消勾选若干行
func (s *Selection) Unselect(ids ...string) []models.TestUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.rows, id)
	}
	kept := s.order[:0]
	for _, id := range s.order {
		if _, ok := s.rows[id]; ok {
			kept = append(kept, id)
		}
	}
	s.order = kept
	return s.selectedLocked()
}

// IsSelected 是否已勾选
func (s *Selection) IsSelected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rows[id]
	return ok
}

// SelectedRows 按勾选顺序返回
func (s *Selection) SelectedRows() []models.TestUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedLocked()
}

// ClearSelection 清空
func (s *Selection) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.rows = make(map[string]models.TestUser)
}

func (s *Selection) selectedLocked() []models.TestUser {
	out := make([]models.TestUser, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rows[id])
	}
	return out
}
