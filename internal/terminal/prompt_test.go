package terminal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/testuser-console/internal/listctl"
)

func TestConfirmerAnswers(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"确定\n", true},
		{"\n", false},
		{"n\n", false},
		{"whatever\n", false},
	}
	for _, tc := range cases {
		var out bytes.Buffer
		c := NewConfirmer(NewIO(strings.NewReader(tc.input), &out, false))
		got, err := c.Confirm(context.Background(), listctl.Prompt{Title: "系统提示", Message: "删除?", ConfirmText: "确定"})
		if err != nil {
			t.Fatalf("confirm %q failed: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("confirm %q: got %v want %v", tc.input, got, tc.want)
		}
		if !strings.Contains(out.String(), "删除? [y/N]: ") {
			t.Fatalf("prompt not printed: %q", out.String())
		}
	}
}

func TestConfirmerClosedInput(t *testing.T) {
	c := NewConfirmer(NewIO(strings.NewReader(""), &bytes.Buffer{}, false))
	if _, err := c.Confirm(context.Background(), listctl.Prompt{Message: "?"}); !errors.Is(err, ErrInputClosed) {
		t.Fatalf("expected ErrInputClosed, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Confirm(ctx, listctl.Prompt{Message: "?"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNotifierLabels(t *testing.T) {
	var out bytes.Buffer
	n := NewNotifier(NewIO(strings.NewReader(""), &out, true))
	n.Notify("ok", listctl.SeveritySuccess)
	n.Notify("bad", listctl.SeverityError)
	n.Notify("odd", listctl.Severity("unknown"))
	want := "[成功] ok\n[错误] bad\n[提示] odd\n"
	if out.String() != want {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestParseDialogValues(t *testing.T) {
	if g, err := parseGender("女"); err != nil || g != 1 {
		t.Fatalf("parse gender failed: %d %v", g, err)
	}
	if _, err := parseGender("2"); err == nil {
		t.Fatalf("gender 2 should be rejected")
	}
	if a, err := parseActive("Y"); err != nil || !a {
		t.Fatalf("parse active failed: %v %v", a, err)
	}
	if a, err := parseActive("停用"); err != nil || a {
		t.Fatalf("parse inactive failed: %v %v", a, err)
	}
	if _, err := parseActive("maybe"); err == nil {
		t.Fatalf("unknown active value should be rejected")
	}
}
