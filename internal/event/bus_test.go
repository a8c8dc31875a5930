package event

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func newTestBus() *Bus {
	return NewBus(zerolog.Nop())
}

func TestBus_PublishSubscribe(t *testing.T) {
	b := newTestBus()

	var received Event
	b.Subscribe("bridge", TopicCollaborationStatusChanged, func(e Event) error {
		received = e
		return nil
	})

	if err := b.Publish(context.Background(), "collaborations", TopicCollaborationStatusChanged, "c1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if received.Topic != TopicCollaborationStatusChanged {
		t.Fatalf("expected topic %s, got %s", TopicCollaborationStatusChanged, received.Topic)
	}
	if received.Source != "collaborations" {
		t.Fatalf("expected source collaborations, got %s", received.Source)
	}
	if received.Payload != "c1" {
		t.Fatalf("expected payload c1, got %v", received.Payload)
	}
}

func TestBus_MultipleSubscribersInOrder(t *testing.T) {
	b := newTestBus()

	var order []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		b.Subscribe(name, TopicMessageSent, func(_ Event) error {
			order = append(order, name)
			return nil
		})
	}

	_ = b.Publish(context.Background(), "messages", TopicMessageSent, nil)

	if len(order) != 3 || order[0] != "a" || order[2] != "c" {
		t.Fatalf("expected handlers a,b,c in order, got %v", order)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	b := newTestBus()

	var called bool
	b.Subscribe("ws", TopicMessageSent, func(_ Event) error {
		called = true
		return nil
	})

	b.Unsubscribe("ws")
	_ = b.Publish(context.Background(), "messages", TopicMessageSent, nil)

	if called {
		t.Fatal("expected handler NOT to be called after unsubscribe")
	}
	if len(b.Subscriptions()) != 0 {
		t.Fatalf("expected no subscriptions, got %v", b.Subscriptions())
	}
}

func TestBus_NoSubscribers(t *testing.T) {
	b := newTestBus()
	if err := b.Publish(context.Background(), "source", "no.subscribers", nil); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestBus_HandlerErrorIsReturned(t *testing.T) {
	b := newTestBus()
	boom := errors.New("boom")

	var secondCalled bool
	b.Subscribe("bridge", "t", func(_ Event) error { return boom })
	b.Subscribe("ws", "t", func(_ Event) error {
		secondCalled = true
		return nil
	})

	err := b.Publish(context.Background(), "source", "t", nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to wrap boom, got %v", err)
	}
	var he *HandlerError
	if !errors.As(err, &he) || he.Subscriber != "bridge" {
		t.Fatalf("expected HandlerError from bridge, got %v", err)
	}
	if !secondCalled {
		t.Fatal("expected second handler to run despite first failure")
	}
}

func TestBus_HandlerPanic(t *testing.T) {
	b := newTestBus()

	var secondCalled bool
	b.Subscribe("bad", "t", func(_ Event) error {
		panic("handler crash")
	})
	b.Subscribe("good", "t", func(_ Event) error {
		secondCalled = true
		return nil
	})

	if err := b.Publish(context.Background(), "source", "t", nil); err == nil {
		t.Fatal("expected panic to surface as error")
	}
	if !secondCalled {
		t.Fatal("expected second handler to be called despite first panic")
	}
}

func TestBus_Subscriptions(t *testing.T) {
	b := newTestBus()

	b.Subscribe("a", "topic1", func(_ Event) error { return nil })
	b.Subscribe("b", "topic1", func(_ Event) error { return nil })
	b.Subscribe("c", "topic2", func(_ Event) error { return nil })

	subs := b.Subscriptions()
	if len(subs["topic1"]) != 2 {
		t.Fatalf("expected 2 subscribers for topic1, got %d", len(subs["topic1"]))
	}
	if len(subs["topic2"]) != 1 {
		t.Fatalf("expected 1 subscriber for topic2, got %d", len(subs["topic2"]))
	}
}

type requestKey struct{}

func TestBus_HandlersSeePublisherContext(t *testing.T) {
	b := newTestBus()

	var got interface{}
	b.Subscribe("bridge", TopicCollaborationStatusChanged, func(e Event) error {
		got = e.Context().Value(requestKey{})
		return nil
	})

	ctx := context.WithValue(context.Background(), requestKey{}, "req-42")
	if err := b.Publish(ctx, "collaborations", TopicCollaborationStatusChanged, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "req-42" {
		t.Fatalf("expected handler to see req-42, got %v", got)
	}
}

func TestEvent_ContextDefaultsToBackground(t *testing.T) {
	if (Event{}).Context() == nil {
		t.Fatal("expected a non-nil context")
	}
}
