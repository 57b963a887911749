package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/testuser-console/internal/models"
	"github.com/testuser-console/internal/testutil/fakeapi"
)

func writeConfig(t *testing.T, api *fakeapi.Server) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	content := fmt.Sprintf(`server:
  mode: debug
api:
  base_url: %s
  token: %s
  timeout_ms: 2000
console:
  page_size: 10
  color: false
metrics:
  enabled: false
`, api.BaseURL(), api.Token())
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestListCommand(t *testing.T) {
	api := fakeapi.New(t)
	api.Seed(t,
		models.TestUser{Username: "alice", IsActive: true},
		models.TestUser{Username: "bob", IsActive: false},
		models.TestUser{Username: "carol", IsActive: true},
	)
	path := writeConfig(t, api)

	out, err := execute(t, "--config", path, "list", "--status", "1", "--size", "1", "--page", "2")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "carol") || strings.Contains(out, "alice") || strings.Contains(out, "bob") {
		t.Fatalf("unexpected list output:\n%s", out)
	}
	if !strings.Contains(out, "共 2 条  第 2/2 页  每页 1 条") {
		t.Fatalf("footer missing:\n%s", out)
	}
}

func TestListCommandRejectsBadStatus(t *testing.T) {
	if _, err := execute(t, "list", "--status", "maybe"); err == nil {
		t.Fatalf("invalid status should fail")
	}
}

func TestShowCommand(t *testing.T) {
	api := fakeapi.New(t)
	users := api.Seed(t, models.TestUser{Username: "alice", Nickname: "Ally", Gender: 2})
	path := writeConfig(t, api)

	out, err := execute(t, "--config", path, "show", users[0].ID)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, "用户名称: alice") || !strings.Contains(out, "用户昵称: Ally") {
		t.Fatalf("unexpected detail output:\n%s", out)
	}

	if _, err := execute(t, "--config", path, "show", "missing"); err == nil {
		t.Fatalf("unknown id should fail")
	}
}

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]string{"": "", "all": "", "ALL": "", "1": "1", "active": "1", "0": "0", "inactive": "0"}
	for in, want := range cases {
		got, err := normalizeStatus(in)
		if err != nil || got != want {
			t.Fatalf("normalizeStatus(%q) = %q, %v", in, got, err)
		}
	}
}

func TestIsWeakSecret(t *testing.T) {
	if !isWeakSecret("") || !isWeakSecret("short") {
		t.Fatalf("short secrets should be weak")
	}
	if !isWeakSecret("please-change-me-before-going-live-now") {
		t.Fatalf("placeholder secrets should be weak")
	}
	if isWeakSecret("a3f9c1e27b5d48c0a6e2f7b19d4c83e5") {
		t.Fatalf("random 32 byte secret should be accepted")
	}
}
