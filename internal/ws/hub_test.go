package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/campusbridge/marketplace-backend/internal/event"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pair struct {
	a, b string
}

func (p pair) Audience() []string { return []string{p.a, p.b} }

func startHub(t *testing.T) (*Hub, *event.Bus) {
	t.Helper()
	h := NewHub(nil, "", zerolog.Nop())
	go h.Run()
	t.Cleanup(h.Stop)

	bus := event.NewBus(zerolog.Nop())
	h.Attach(bus)
	return h, bus
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var ev Event
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("no signal received")
	}
	return Event{}
}

func TestHubPushesInboxUpdateToBothParties(t *testing.T) {
	h, bus := startHub(t)

	sender := NewClient(h, nil, "b1")
	recipient := NewClient(h, nil, "s1")
	bystander := NewClient(h, nil, "x9")
	h.Register(sender)
	h.Register(recipient)
	h.Register(bystander)

	require.NoError(t, bus.Publish(context.Background(), "test", event.TopicMessageSent, pair{"b1", "s1"}))

	assert.Equal(t, Event{Type: TypeInboxUpdate, Topic: event.TopicMessageSent}, receive(t, sender))
	assert.Equal(t, Event{Type: TypeInboxUpdate, Topic: event.TopicMessageSent}, receive(t, recipient))

	select {
	case <-bystander.send:
		t.Fatal("bystander should not be signalled")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubCollaborationSignals(t *testing.T) {
	h, bus := startHub(t)

	c := NewClient(h, nil, "s1")
	h.Register(c)

	require.NoError(t, bus.Publish(context.Background(), "test", event.TopicCollaborationCreated, pair{"b1", "s1"}))
	ev := receive(t, c)
	assert.Equal(t, TypeCollaborationUpdate, ev.Type)
	assert.Equal(t, event.TopicCollaborationCreated, ev.Topic)
}

func TestHubDeduplicatesAudience(t *testing.T) {
	h, bus := startHub(t)

	c := NewClient(h, nil, "u1")
	h.Register(c)

	require.NoError(t, bus.Publish(context.Background(), "test", event.TopicMessageSent, pair{"u1", "u1"}))
	receive(t, c)

	select {
	case <-c.send:
		t.Fatal("expected a single signal")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubIgnoresForeignPayloads(t *testing.T) {
	_, bus := startHub(t)
	assert.NoError(t, bus.Publish(context.Background(), "test", event.TopicMessageSent, "not an audience"))
}

func TestHubUnregister(t *testing.T) {
	h, _ := startHub(t)

	c := NewClient(h, nil, "u1")
	h.Register(c)
	assert.Eventually(t, func() bool { return h.ConnectedClients("u1") == 1 }, time.Second, 5*time.Millisecond)

	h.unregister <- c
	assert.Eventually(t, func() bool { return h.ConnectedClients("u1") == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-c.send
	assert.False(t, ok)
}
