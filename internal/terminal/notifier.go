package terminal

import (
	"github.com/testuser-console/internal/listctl"
)

var severityStyles = map[listctl.Severity]struct {
	label string
	color string
}{
	listctl.SeveritySuccess: {"成功", ansiGreen},
	listctl.SeverityInfo:    {"提示", ansiCyan},
	listctl.SeverityWarning: {"警告", ansiYellow},
	listctl.SeverityError:   {"错误", ansiRed},
}

// Notifier 终端消息提示
type Notifier struct {
	io *IO
}

// NewNotifier 创建提示器
func NewNotifier(t *IO) *Notifier {
	return &Notifier{io: t}
}

// Notify 输出一行带样式的提示
func (n *Notifier) Notify(message string, severity listctl.Severity) {
	style, ok := severityStyles[severity]
	if !ok {
		style = severityStyles[listctl.SeverityInfo]
	}
	n.io.Println(n.io.Paint(style.color, "["+style.label+"]") + " " + message)
}
