package console

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/testuser-console/internal/form"
	"github.com/testuser-console/internal/listctl"
	"github.com/testuser-console/internal/models"
	"github.com/testuser-console/internal/remote"
	"github.com/testuser-console/internal/testutil/fakeapi"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

type testEnv struct {
	api     *fakeapi.Server
	handler *Handler
	hub     *Hub
	engine  *gin.Engine
	users   []models.TestUser
}

func newTestEnv(t *testing.T, seed ...models.TestUser) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	api := fakeapi.New(t)
	users := api.Seed(t, seed...)
	client, err := remote.New(remote.Options{BaseURL: api.BaseURL(), Token: api.Token()})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}

	hub := NewHub()
	selection := NewSelection()
	broker := NewPromptBroker(hub, 5*time.Second)
	opts := listctl.DefaultOptions()
	opts.Client = client
	opts.Confirmer = broker
	opts.Notifier = NewNotifier(hub)
	opts.Selection = selection
	opts.Validator = form.MustNewDraftValidator()
	opts.LoadingFloor = 0
	ctl, err := listctl.New(opts)
	if err != nil {
		t.Fatalf("new controller failed: %v", err)
	}
	h := New(Deps{Controller: ctl, Detail: client, Hub: hub, Broker: broker, Selection: selection})
	t.Cleanup(h.Close)

	r := gin.New()
	g := r.Group("/api/console")
	g.GET("/state", h.GetState)
	g.GET("/events", h.Events)
	g.POST("/search", h.Search)
	g.POST("/reset", h.ResetForm)
	g.PUT("/form", h.UpdateForm)
	g.PUT("/pagination", h.UpdatePagination)
	g.PUT("/selection", h.SetSelection)
	g.DELETE("/selection", h.ClearSelection)
	g.POST("/dialog", h.OpenDialog)
	g.PUT("/dialog", h.UpdateDialog)
	g.POST("/dialog/confirm", h.ConfirmDialog)
	g.DELETE("/dialog", h.CancelDialog)
	g.GET("/rows/:id", h.GetRow)
	g.DELETE("/rows/:id", h.DeleteRow)
	g.POST("/rows/:id/active", h.SetActive)
	g.POST("/batch-delete", h.BatchDelete)
	g.GET("/prompts", h.ListPrompts)
	g.POST("/prompts/:id", h.AnswerPrompt)

	return &testEnv{api: api, handler: h, hub: hub, engine: r, users: users}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, "/api/console"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s %s response failed: %v body=%s", method, path, err, w.Body.String())
	}
	return w.Code, env
}

func (e *testEnv) snapshot(t *testing.T) listctl.Snapshot {
	t.Helper()
	_, env := e.do(t, http.MethodGet, "/state", nil)
	var snap listctl.Snapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode snapshot failed: %v", err)
	}
	return snap
}

func (e *testEnv) search(t *testing.T) {
	t.Helper()
	if _, env := e.do(t, http.MethodPost, "/search", nil); env.StatusCode != 0 {
		t.Fatalf("search failed: %+v", env)
	}
}

func (e *testEnv) answerNextPrompt(t *testing.T, confirm bool) PendingPrompt {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, env := e.do(t, http.MethodGet, "/prompts", nil)
		var pending []PendingPrompt
		if err := json.Unmarshal(env.Data, &pending); err != nil {
			t.Fatalf("decode prompts failed: %v", err)
		}
		if len(pending) > 0 {
			_, answer := e.do(t, http.MethodPost, "/prompts/"+pending[0].ID, gin.H{"confirm": confirm})
			if answer.StatusCode != 0 {
				t.Fatalf("answer prompt failed: %+v", answer)
			}
			return pending[0]
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no pending prompt")
	return PendingPrompt{}
}

func TestDeleteRowAfterConfirm(t *testing.T) {
	e := newTestEnv(t, models.TestUser{Username: "alice"}, models.TestUser{Username: "bob"})
	e.search(t)

	code, env := e.do(t, http.MethodDelete, "/rows/"+e.users[0].ID, nil)
	if code != http.StatusAccepted || env.StatusCode != 0 {
		t.Fatalf("delete should be accepted, code=%d env=%+v", code, env)
	}
	prompt := e.answerNextPrompt(t, true)
	if !strings.Contains(prompt.Prompt.Message, "alice") {
		t.Fatalf("prompt should name the row: %+v", prompt.Prompt)
	}
	e.handler.Wait()

	if e.api.Count(t) != 1 {
		t.Fatalf("row should be deleted, count=%d", e.api.Count(t))
	}
	snap := e.snapshot(t)
	if len(snap.DataList) != 1 || snap.DataList[0].Username != "bob" {
		t.Fatalf("list should be refreshed: %+v", snap.DataList)
	}
}

func TestDeleteRowRejected(t *testing.T) {
	e := newTestEnv(t, models.TestUser{Username: "alice"})
	e.search(t)
	events, cancel := e.hub.Subscribe()
	defer cancel()

	e.do(t, http.MethodDelete, "/rows/"+e.users[0].ID, nil)
	e.answerNextPrompt(t, false)
	e.handler.Wait()

	if e.api.Count(t) != 1 || e.api.DeleteCalls() != 0 {
		t.Fatalf("rejected delete should not reach the api")
	}
	deadline := time.After(time.Second)
	for {
		select {
		case ev := <-events:
			if p, ok := ev.Data.(NotifyPayload); ok && ev.Name == EventNotify && p.Message == "已取消删除" {
				return
			}
		case <-deadline:
			t.Fatalf("cancel notification not published")
		}
	}
}

func TestShutdownCancelsPendingDelete(t *testing.T) {
	e := newTestEnv(t, models.TestUser{Username: "alice"})
	e.search(t)

	if code, _ := e.do(t, http.MethodDelete, "/rows/"+e.users[0].ID, nil); code != http.StatusAccepted {
		t.Fatalf("delete should be accepted, code=%d", code)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		_, env := e.do(t, http.MethodGet, "/prompts", nil)
		var pending []PendingPrompt
		if err := json.Unmarshal(env.Data, &pending); err != nil {
			t.Fatalf("decode prompts failed: %v", err)
		}
		if len(pending) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("delete prompt not published")
		}
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.handler.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown should finish before the prompt timeout: %v", err)
	}
	if e.api.Count(t) != 1 || e.api.DeleteCalls() != 0 {
		t.Fatalf("cancelled prompt should not delete the row")
	}
	if _, env := e.do(t, http.MethodGet, "/prompts", nil); string(env.Data) != "[]" {
		t.Fatalf("no prompt should remain pending, got %s", env.Data)
	}
}

func TestDeleteUnknownRow(t *testing.T) {
	e := newTestEnv(t)
	e.search(t)
	_, env := e.do(t, http.MethodDelete, "/rows/missing", nil)
	if env.StatusCode != 404 {
		t.Fatalf("unknown row should be 404, got %+v", env)
	}
}

func TestBatchDelete(t *testing.T) {
	e := newTestEnv(t, models.TestUser{Username: "alice"}, models.TestUser{Username: "bob"}, models.TestUser{Username: "carol"})
	e.search(t)

	_, env := e.do(t, http.MethodPost, "/batch-delete", nil)
	if env.StatusCode != 400 || env.Msg != "请至少选择一条数据" {
		t.Fatalf("empty selection should fail, got %+v", env)
	}

	_, env = e.do(t, http.MethodPut, "/selection", gin.H{"ids": []string{e.users[0].ID, e.users[2].ID}})
	if env.StatusCode != 0 {
		t.Fatalf("select failed: %+v", env)
	}
	if snap := e.snapshot(t); snap.SelectedNum != 2 {
		t.Fatalf("selected num should be 2, got %d", snap.SelectedNum)
	}

	e.api.FailDelete(e.users[2].ID, http.StatusInternalServerError)
	code, _ := e.do(t, http.MethodPost, "/batch-delete", nil)
	if code != http.StatusAccepted {
		t.Fatalf("batch delete should be accepted, got %d", code)
	}
	e.answerNextPrompt(t, true)
	e.handler.Wait()

	if e.api.Count(t) != 2 {
		t.Fatalf("one row should be deleted, count=%d", e.api.Count(t))
	}
	snap := e.snapshot(t)
	if snap.SelectedNum != 0 || len(snap.DataList) != 2 {
		t.Fatalf("selection should be cleared and list refreshed: %+v", snap)
	}
}

func TestSelectionUnknownID(t *testing.T) {
	e := newTestEnv(t, models.TestUser{Username: "alice"})
	e.search(t)
	_, env := e.do(t, http.MethodPut, "/selection", gin.H{"ids": []string{"nope"}})
	if env.StatusCode != 404 {
		t.Fatalf("unknown id should be 404, got %+v", env)
	}
	_, env = e.do(t, http.MethodDelete, "/selection", nil)
	if env.StatusCode != 0 {
		t.Fatalf("clear selection failed: %+v", env)
	}
}

func TestDialogLifecycle(t *testing.T) {
	e := newTestEnv(t)
	e.search(t)

	_, env := e.do(t, http.MethodPost, "/dialog", gin.H{"mode": "create"})
	if env.StatusCode != 0 {
		t.Fatalf("open dialog failed: %+v", env)
	}
	var dialog listctl.DialogState
	if err := json.Unmarshal(env.Data, &dialog); err != nil {
		t.Fatalf("decode dialog failed: %v", err)
	}
	if dialog.Title != "新增测试用户" || !dialog.Draft.IsActive {
		t.Fatalf("unexpected dialog: %+v", dialog)
	}

	_, env = e.do(t, http.MethodPost, "/dialog", gin.H{"mode": "create"})
	if env.StatusCode != 409 {
		t.Fatalf("second dialog should conflict, got %+v", env)
	}

	_, env = e.do(t, http.MethodPost, "/dialog/confirm", nil)
	if env.StatusCode != 400 || !strings.Contains(env.Msg, "请输入用户名称") {
		t.Fatalf("empty draft should fail validation, got %+v", env)
	}
	if e.api.Count(t) != 0 {
		t.Fatalf("invalid draft should not reach the api")
	}

	_, env = e.do(t, http.MethodPut, "/dialog", gin.H{"username": "carol", "nickname": "C", "phone": "13800138000", "is_active": true})
	if env.StatusCode != 0 {
		t.Fatalf("update dialog failed: %+v", env)
	}
	_, env = e.do(t, http.MethodPost, "/dialog/confirm", nil)
	if env.StatusCode != 0 {
		t.Fatalf("confirm failed: %+v", env)
	}
	snap := e.snapshot(t)
	if snap.Dialog != nil || len(snap.DataList) != 1 || snap.DataList[0].Phone != "13800138000" {
		t.Fatalf("dialog should close and list refresh: %+v", snap)
	}

	_, env = e.do(t, http.MethodPost, "/dialog", gin.H{"mode": "edit", "id": "missing"})
	if env.StatusCode != 404 {
		t.Fatalf("edit of unknown row should be 404, got %+v", env)
	}
	_, env = e.do(t, http.MethodDelete, "/dialog", nil)
	if env.StatusCode != 409 {
		t.Fatalf("cancel without dialog should conflict, got %+v", env)
	}
}

func TestEditDialogDuplicateUsername(t *testing.T) {
	e := newTestEnv(t, models.TestUser{Username: "alice", Nickname: "A"}, models.TestUser{Username: "bob", Nickname: "B"})
	e.search(t)

	_, env := e.do(t, http.MethodPost, "/dialog", gin.H{"mode": "edit", "id": e.users[1].ID})
	if env.StatusCode != 0 {
		t.Fatalf("open edit dialog failed: %+v", env)
	}
	e.do(t, http.MethodPut, "/dialog", gin.H{"username": "alice", "nickname": "B"})
	_, env = e.do(t, http.MethodPost, "/dialog/confirm", nil)
	if env.StatusCode != 502 || !strings.Contains(env.Msg, "用户名已存在") {
		t.Fatalf("duplicate username should surface remote detail, got %+v", env)
	}
	var upstream struct {
		Status    int    `json:"upstream_status"`
		RequestID string `json:"upstream_request_id"`
	}
	if err := json.Unmarshal(env.Data, &upstream); err != nil {
		t.Fatalf("decode error data failed: %v", err)
	}
	if upstream.Status != http.StatusConflict || upstream.RequestID == "" {
		t.Fatalf("error data should carry the upstream status and request id, got %s", env.Data)
	}
	snap := e.snapshot(t)
	if snap.Dialog == nil || snap.Dialog.Submitting || snap.Dialog.Draft.ID != e.users[1].ID {
		t.Fatalf("dialog should stay open with its id: %+v", snap.Dialog)
	}
}

func TestFormPaginationAndActive(t *testing.T) {
	e := newTestEnv(t,
		models.TestUser{Username: "alice", IsActive: true},
		models.TestUser{Username: "alina", IsActive: true},
		models.TestUser{Username: "bob", IsActive: true},
	)

	_, env := e.do(t, http.MethodPut, "/form", gin.H{"status": "2"})
	if env.StatusCode != 400 {
		t.Fatalf("invalid status should fail, got %+v", env)
	}
	_, env = e.do(t, http.MethodPut, "/form", gin.H{"username": "ali"})
	if env.StatusCode != 0 {
		t.Fatalf("update form failed: %+v", env)
	}
	if calls := e.api.ListCalls(); calls != 0 {
		t.Fatalf("form update should not search, calls=%d", calls)
	}
	e.search(t)
	if snap := e.snapshot(t); snap.Pagination.Total != 2 {
		t.Fatalf("filter should match two rows, got %d", snap.Pagination.Total)
	}

	_, env = e.do(t, http.MethodPut, "/pagination", gin.H{"page_size": 1, "current_page": 2})
	if env.StatusCode != 0 {
		t.Fatalf("pagination failed: %+v", env)
	}
	snap := e.snapshot(t)
	if len(snap.DataList) != 1 || snap.DataList[0].Username != "alina" || snap.Pagination.CurrentPage != 2 {
		t.Fatalf("unexpected page: %+v %+v", snap.Pagination, snap.DataList)
	}

	_, env = e.do(t, http.MethodPost, "/rows/"+snap.DataList[0].ID+"/active", gin.H{"is_active": false})
	if env.StatusCode != 0 {
		t.Fatalf("set active failed: %+v", env)
	}
	row, ok := e.api.Find(t, snap.DataList[0].ID)
	if !ok || row.IsActive {
		t.Fatalf("row should be disabled: %+v", row)
	}

	_, env = e.do(t, http.MethodGet, "/rows/"+row.ID, nil)
	var detail models.TestUser
	if err := json.Unmarshal(env.Data, &detail); err != nil || detail.Username != "alina" {
		t.Fatalf("detail mismatch: %+v %v", detail, err)
	}
	_, env = e.do(t, http.MethodGet, "/rows/missing", nil)
	if env.StatusCode != 502 || !strings.Contains(env.Msg, "测试用户不存在") {
		t.Fatalf("missing detail should carry remote detail, got %+v", env)
	}

	_, env = e.do(t, http.MethodPost, "/reset", nil)
	if snap := e.snapshot(t); env.StatusCode != 0 || snap.Form.Username != "" || snap.Pagination.Total != 3 {
		t.Fatalf("reset should clear filters: %+v", snap)
	}
}

func TestAnswerUnknownPrompt(t *testing.T) {
	e := newTestEnv(t)
	_, env := e.do(t, http.MethodPost, "/prompts/nope", gin.H{"confirm": true})
	if env.StatusCode != 404 {
		t.Fatalf("unknown prompt should be 404, got %+v", env)
	}
}

func TestEventsStreamsInitialState(t *testing.T) {
	e := newTestEnv(t, models.TestUser{Username: "alice"})
	server := httptest.NewServer(e.engine)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/console/events", nil)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream failed: %v", err)
	}
	defer resp.Body.Close()
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		t.Fatalf("unexpected content type %s", resp.Header.Get("Content-Type"))
	}

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read event failed: %v", err)
	}
	if strings.TrimSpace(line) != "event:state" {
		t.Fatalf("first event should be state, got %q", line)
	}

	go func() {
		resp, err := http.Post(server.URL+"/api/console/search", "application/json", nil)
		if err == nil {
			resp.Body.Close()
		}
	}()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		line, err = reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read event failed: %v", err)
		}
		if strings.HasPrefix(line, "data:") && strings.Contains(line, "alice") {
			return
		}
	}
	t.Fatalf("search result was not streamed")
}
