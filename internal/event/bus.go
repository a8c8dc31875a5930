// Package event is an in-process, synchronous topic bus. Stores publish state
// changes on it; the notification bridge and the websocket hub subscribe.
package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Topics published by the services
const (
	TopicMessageSent                = "message.sent"
	TopicCollaborationCreated       = "collaboration.created"
	TopicCollaborationStatusChanged = "collaboration.status_changed"
)

// Event is one published occurrence
type Event struct {
	Topic     string      `json:"topic"`
	Source    string      `json:"source"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`

	ctx context.Context
}

// Context returns the publisher's context, or context.Background when none was given
func (e Event) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

// Handler handles one event; a returned error is reported back to the publisher
type Handler func(event Event) error

type subscription struct {
	subscriber string
	handler    Handler
}

// HandlerError ties a failed handler to its subscriber
type HandlerError struct {
	Subscriber string
	Topic      string
	Err        error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s handling %s: %v", e.Subscriber, e.Topic, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Bus is a topic-based publish/subscribe dispatcher
type Bus struct {
	subscribers map[string][]subscription // topic -> handlers
	mu          sync.RWMutex
	logger      zerolog.Logger
}

// NewBus creates an empty Bus
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[string][]subscription),
		logger:      logger,
	}
}

// Subscribe registers handler for topic under the subscriber's name
func (b *Bus) Subscribe(subscriber, topic string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[topic] = append(b.subscribers[topic], subscription{
		subscriber: subscriber,
		handler:    handler,
	})
	b.logger.Debug().Str("subscriber", subscriber).Str("topic", topic).Msg("subscribed")
}

// Unsubscribe drops every subscription held by subscriber
func (b *Bus) Unsubscribe(subscriber string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, subs := range b.subscribers {
		var remaining []subscription
		for _, s := range subs {
			if s.subscriber != subscriber {
				remaining = append(remaining, s)
			}
		}
		if len(remaining) == 0 {
			delete(b.subscribers, topic)
		} else {
			b.subscribers[topic] = remaining
		}
	}
}

// Publish runs every handler of topic in subscription order on the caller's
// goroutine with the caller's ctx. All handlers run even if earlier ones fail
// or panic; the failures come back joined.
func (b *Bus) Publish(ctx context.Context, source, topic string, payload interface{}) error {
	b.mu.RLock()
	subs := make([]subscription, len(b.subscribers[topic]))
	copy(subs, b.subscribers[topic])
	b.mu.RUnlock()

	if len(subs) == 0 {
		return nil
	}

	ev := Event{
		Topic:     topic,
		Source:    source,
		Payload:   payload,
		Timestamp: time.Now(),
		ctx:       ctx,
	}

	var errs []error
	for _, s := range subs {
		if err := b.dispatch(s, ev); err != nil {
			b.logger.Error().Err(err).
				Str("source", source).
				Str("topic", topic).
				Str("subscriber", s.subscriber).
				Msg("event handler failed")
			errs = append(errs, &HandlerError{Subscriber: s.subscriber, Topic: topic, Err: err})
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) dispatch(s subscription, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return s.handler(ev)
}

// Subscriptions lists subscriber names per topic
func (b *Bus) Subscriptions() map[string][]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result := make(map[string][]string)
	for topic, subs := range b.subscribers {
		for _, s := range subs {
			result[topic] = append(result[topic], s.subscriber)
		}
	}
	return result
}
