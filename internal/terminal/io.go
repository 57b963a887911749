package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/moby/term"
)

// ErrInputClosed 输入流已结束
var ErrInputClosed = errors.New("terminal input closed")

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiBold   = "\033[1m"
	ansiDim    = "\033[2m"

	defaultWidth = 120
)

// IO 终端输入输出，读写均加锁
type IO struct {
	mu     sync.Mutex
	readMu sync.Mutex
	in     *bufio.Reader
	out    io.Writer
	color  bool
	width  int
}

// NewIO 创建终端 IO；color 仅在 out 为 TTY 时生效
func NewIO(in io.Reader, out io.Writer, color bool) *IO {
	width := defaultWidth
	fd, isTerminal := term.GetFdInfo(out)
	if isTerminal {
		if ws, err := term.GetWinsize(fd); err == nil && ws.Width > 0 {
			width = int(ws.Width)
		}
	}
	return &IO{
		in:    bufio.NewReader(in),
		out:   out,
		color: color && isTerminal,
		width: width,
	}
}

// Printf 输出
func (t *IO) Printf(format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

// Println 输出一行
func (t *IO) Println(args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, args...)
}

// ReadLine 打印提示并读取一行，去除首尾空白
func (t *IO) ReadLine(prompt string) (string, error) {
	t.readMu.Lock()
	defer t.readMu.Unlock()
	if prompt != "" {
		t.mu.Lock()
		fmt.Fprint(t.out, prompt)
		t.mu.Unlock()
	}
	line, err := t.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrInputClosed
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Paint 按颜色包裹文本
func (t *IO) Paint(code, text string) string {
	if !t.color || code == "" {
		return text
	}
	return code + text + ansiReset
}

// Width 终端宽度
func (t *IO) Width() int {
	return t.width
}

// Writer 底层输出
func (t *IO) Writer() io.Writer {
	return t.out
}
