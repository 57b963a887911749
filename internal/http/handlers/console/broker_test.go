package console

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/testuser-console/internal/listctl"
)

func TestBrokerPublishesAndAnswers(t *testing.T) {
	hub := NewHub()
	events, cancel := hub.Subscribe()
	defer cancel()
	broker := NewPromptBroker(hub, time.Second)

	done := make(chan bool, 1)
	go func() {
		ok, err := broker.Confirm(context.Background(), listctl.Prompt{Message: "删除?"})
		if err != nil {
			t.Errorf("confirm failed: %v", err)
		}
		done <- ok
	}()

	ev := <-events
	p, ok := ev.Data.(*PendingPrompt)
	if ev.Name != EventPrompt || !ok {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if pending := broker.Pending(); len(pending) != 1 || pending[0].ID != p.ID {
		t.Fatalf("prompt should be pending: %+v", pending)
	}
	if err := broker.Answer(p.ID, true); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if !<-done {
		t.Fatalf("confirm should return true")
	}
	if err := broker.Answer(p.ID, true); !errors.Is(err, ErrPromptNotFound) {
		t.Fatalf("second answer should fail, got %v", err)
	}
	if len(broker.Pending()) != 0 {
		t.Fatalf("answered prompt should be removed")
	}
}

func TestBrokerContextAndTimeout(t *testing.T) {
	broker := NewPromptBroker(nil, 20*time.Millisecond)
	ok, err := broker.Confirm(context.Background(), listctl.Prompt{})
	if ok || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("timeout should cancel, ok=%v err=%v", ok, err)
	}

	broker = NewPromptBroker(nil, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok, err = broker.Confirm(ctx, listctl.Prompt{})
	if ok || !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled ctx should cancel, ok=%v err=%v", ok, err)
	}
	if len(broker.Pending()) != 0 {
		t.Fatalf("finished prompts should be removed")
	}
}

func TestHubDropsWhenFull(t *testing.T) {
	hub := NewHub()
	events, cancel := hub.Subscribe()
	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Publish(Event{Name: EventNotify, Data: i})
	}
	if len(events) != subscriberBuffer {
		t.Fatalf("buffer should be full, got %d", len(events))
	}
	cancel()
	cancel()
	if hub.Subscribers() != 0 {
		t.Fatalf("subscriber should be removed")
	}
	hub.Publish(Event{Name: EventNotify})
}
