package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/testuser-console/internal/config"
)

type fakeService struct {
	name     string
	startErr error
	started  chan struct{}
	stopped  atomic.Bool
}

func newFakeService(name string, startErr error) *fakeService {
	return &fakeService{name: name, startErr: startErr, started: make(chan struct{})}
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	close(s.started)
	if s.startErr != nil {
		return s.startErr
	}
	<-ctx.Done()
	return nil
}

func (s *fakeService) Stop(ctx context.Context) error {
	s.stopped.Store(true)
	return nil
}

func TestRunnerStopsAllServicesOnCancel(t *testing.T) {
	a := newFakeService("a", nil)
	b := newFakeService("b", nil)
	runner := NewRunner(a, b)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runner.Run(ctx, time.Second, nil)
	}()
	<-a.started
	<-b.started
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("cancelled run should return nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not stop")
	}
	if !a.stopped.Load() || !b.stopped.Load() {
		t.Fatalf("every service should be stopped")
	}
}

func TestRunnerReturnsServiceError(t *testing.T) {
	boom := errors.New("listen failed")
	failing := newFakeService("http", boom)
	other := newFakeService("refresh", nil)

	err := NewRunner(failing, other).Run(context.Background(), time.Second, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected service error, got %v", err)
	}
	if !other.stopped.Load() {
		t.Fatalf("remaining services should be stopped")
	}
}

func TestRunnerWithoutServices(t *testing.T) {
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("empty runner should fail")
	}
	if err := RunWithOptions(nil, Options{}); err == nil {
		t.Fatalf("nil runner should fail")
	}
}

func TestRunnerShutdownHooksRunInReverseOnce(t *testing.T) {
	svc := newFakeService("a", nil)
	runner := NewRunner(svc)
	var mu sync.Mutex
	var order []string
	record := func(name string, err error) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return err
		}
	}
	closeErr := errors.New("close failed")
	runner.OnShutdown("first", record("first", closeErr))
	runner.OnShutdown("second", record("second", nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runner.Run(ctx, time.Second, nil)
	}()
	<-svc.started
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, closeErr) {
			t.Fatalf("hook error should be returned, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not stop")
	}
	if err := runner.Shutdown(context.Background(), nil); !errors.Is(err, closeErr) {
		t.Fatalf("repeated shutdown should report the same error, got %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Fatalf("hooks should run once in reverse order, got %v", order)
	}
}

func TestHTTPServiceServesWithTimeouts(t *testing.T) {
	timeouts := config.ServerTimeouts{
		ReadHeader: time.Second,
		Read:       2 * time.Second,
		Idle:       3 * time.Second,
		Shutdown:   time.Second,
	}
	svc := NewHTTPService("127.0.0.1:0", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}), timeouts)
	if svc.server.ReadHeaderTimeout != time.Second || svc.server.ReadTimeout != 2*time.Second || svc.server.IdleTimeout != 3*time.Second {
		t.Fatalf("timeouts not applied: %+v", svc.server)
	}

	done := make(chan error, 1)
	go func() {
		done <- svc.Start(context.Background())
	}()
	select {
	case <-svc.Ready():
	case err := <-done:
		t.Fatalf("start failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatalf("http service not ready")
	}

	resp, err := http.Get("http://" + svc.Addr())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Fatalf("unexpected body: %q", body)
	}

	if err := svc.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start should return nil after stop, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("http service did not stop")
	}
}

type countingRefresher struct {
	mu    sync.Mutex
	calls int
	reach chan struct{}
	want  int
}

func (r *countingRefresher) Search(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.calls == r.want {
		close(r.reach)
	}
	return nil
}

func TestRefreshServiceRunsImmediatelyAndOnTick(t *testing.T) {
	refresher := &countingRefresher{reach: make(chan struct{}), want: 3}
	svc := NewRefreshService(refresher, 10*time.Millisecond)

	done := make(chan error, 1)
	go func() {
		done <- svc.Start(context.Background())
	}()

	select {
	case <-refresher.reach:
	case <-time.After(2 * time.Second):
		t.Fatalf("refresh should run repeatedly")
	}
	if err := svc.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start should return nil after stop, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("refresh service did not stop")
	}
}

func TestRefreshServiceRejectsBadConfig(t *testing.T) {
	if err := NewRefreshService(nil, time.Second).Start(context.Background()); err == nil {
		t.Fatalf("nil refresher should fail")
	}
	refresher := &countingRefresher{reach: make(chan struct{}), want: 1}
	if err := NewRefreshService(refresher, 0).Start(context.Background()); err == nil {
		t.Fatalf("zero interval should fail")
	}
}
