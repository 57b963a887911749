package terminal

import (
	"context"
	"strings"

	"github.com/testuser-console/internal/listctl"
)

// Confirmer 终端 [y/N] 确认
type Confirmer struct {
	io *IO
}

// NewConfirmer 创建确认器
func NewConfirmer(t *IO) *Confirmer {
	return &Confirmer{io: t}
}

// Confirm 仅 y/yes/确定 视为确认，其余输入视为取消
func (c *Confirmer) Confirm(ctx context.Context, prompt listctl.Prompt) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	title := prompt.Title
	if title != "" {
		title = c.io.Paint(ansiBold+ansiYellow, title) + " "
	}
	answer, err := c.io.ReadLine(title + prompt.Message + " [y/N]: ")
	if err != nil {
		return false, err
	}
	return isYes(answer, prompt.ConfirmText), nil
}

func isYes(answer, confirmText string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return confirmText != "" && strings.TrimSpace(answer) == confirmText
}
