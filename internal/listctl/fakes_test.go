package listctl

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/testuser-console/internal/models"
	"github.com/testuser-console/internal/remote"
)

type fakeClient struct {
	mu sync.Mutex

	listCalls   []models.ListParams
	listFn      func(ctx context.Context, params models.ListParams) (*remote.Result[models.ListData], error)
	createCalls []models.TestUserDraft
	createErr   error
	updateCalls []models.TestUserDraft
	patchCalls  []map[string]interface{}
	deleteCalls []string
	deleteErr   map[string]error
}

func newFakeClient(rows ...models.TestUser) *fakeClient {
	f := &fakeClient{deleteErr: map[string]error{}}
	f.listFn = func(ctx context.Context, params models.ListParams) (*remote.Result[models.ListData], error) {
		return listResult(len(rows), rows...), nil
	}
	return f
}

func listResult(total int, rows ...models.TestUser) *remote.Result[models.ListData] {
	return &remote.Result[models.ListData]{
		Success: true,
		Data:    models.ListData{List: rows, Total: total},
	}
}

func (f *fakeClient) List(ctx context.Context, params models.ListParams) (*remote.Result[models.ListData], error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, params)
	fn := f.listFn
	f.mu.Unlock()
	return fn(ctx, params)
}

func (f *fakeClient) Create(ctx context.Context, draft models.TestUserDraft) (*remote.Result[models.TestUser], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, draft)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &remote.Result[models.TestUser]{Success: true, Data: models.TestUser{ID: "new", Username: draft.Username}}, nil
}

func (f *fakeClient) Update(ctx context.Context, id string, draft models.TestUserDraft) (*remote.Result[models.TestUser], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls = append(f.updateCalls, draft)
	return &remote.Result[models.TestUser]{Success: true, Data: models.TestUser{ID: id, Username: draft.Username}}, nil
}

func (f *fakeClient) Patch(ctx context.Context, id string, fields map[string]interface{}) (*remote.Result[models.TestUser], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patchCalls = append(f.patchCalls, fields)
	return &remote.Result[models.TestUser]{Success: true, Data: models.TestUser{ID: id}}, nil
}

func (f *fakeClient) Delete(ctx context.Context, id string) (*remote.Result[struct{}], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, id)
	if err := f.deleteErr[id]; err != nil {
		return nil, err
	}
	return &remote.Result[struct{}]{Success: true}, nil
}

func (f *fakeClient) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listCalls)
}

func (f *fakeClient) apiCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.createCalls) + len(f.updateCalls) + len(f.patchCalls) + len(f.deleteCalls)
}

type notification struct {
	message  string
	severity Severity
}

type fakeNotifier struct {
	mu    sync.Mutex
	items []notification
}

func (n *fakeNotifier) Notify(message string, severity Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, notification{message: message, severity: severity})
}

func (n *fakeNotifier) last() notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.items) == 0 {
		return notification{}
	}
	return n.items[len(n.items)-1]
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.items)
}

type fakeConfirmer struct {
	mu      sync.Mutex
	answer  bool
	err     error
	prompts []Prompt
}

func (c *fakeConfirmer) Confirm(ctx context.Context, prompt Prompt) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	return c.answer, c.err
}

type fakeSelection struct {
	mu      sync.Mutex
	rows    []models.TestUser
	cleared int
}

func (s *fakeSelection) SelectedRows() []models.TestUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.TestUser, len(s.rows))
	copy(out, s.rows)
	return out
}

func (s *fakeSelection) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
	s.cleared++
}

type fakeValidator struct {
	err   error
	calls int
}

func (v *fakeValidator) Validate(models.TestUserDraft) error {
	v.calls++
	return v.err
}

type fakePresenter struct {
	mu     sync.Mutex
	opened []*Dialog
	closed []*Dialog
}

func (p *fakePresenter) OpenDialog(d *Dialog) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opened = append(p.opened, d)
}

func (p *fakePresenter) CloseDialog(d *Dialog) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = append(p.closed, d)
}

type harness struct {
	ctl       *Controller
	client    *fakeClient
	notifier  *fakeNotifier
	confirmer *fakeConfirmer
	selection *fakeSelection
	validator *fakeValidator
	presenter *fakePresenter
}

func newHarness(t *testing.T, client *fakeClient, tweak func(*Options)) *harness {
	t.Helper()
	h := &harness{
		client:    client,
		notifier:  &fakeNotifier{},
		confirmer: &fakeConfirmer{answer: true},
		selection: &fakeSelection{},
		validator: &fakeValidator{},
		presenter: &fakePresenter{},
	}
	opts := Options{
		Client:       client,
		Confirmer:    h.confirmer,
		Notifier:     h.notifier,
		Selection:    h.selection,
		Validator:    h.validator,
		Presenter:    h.presenter,
		PageSize:     10,
		DiscardStale: true,
	}
	if tweak != nil {
		tweak(&opts)
	}
	ctl, err := New(opts)
	if err != nil {
		t.Fatalf("new controller failed: %v", err)
	}
	h.ctl = ctl
	return h
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
