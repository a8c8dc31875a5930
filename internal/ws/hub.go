package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/campusbridge/marketplace-backend/internal/event"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Signal types pushed to clients. They never carry message bodies; clients refetch.
const (
	TypeInboxUpdate         = "inbox_update"
	TypeCollaborationUpdate = "collaboration_update"
)

const hubSubscriber = "ws-hub"

// Event represents a real-time signal sent via WebSocket
type Event struct {
	Type  string `json:"type"`
	Topic string `json:"topic,omitempty"`
}

// Hub manages WebSocket clients and pushes update signals to them
type Hub struct {
	// Registered clients grouped by user ID
	clients map[string]map[*Client]bool

	// Register/unregister channels
	register   chan *Client
	unregister chan *Client

	// Broadcast to a specific user
	broadcast chan *targetedEvent

	mu          sync.RWMutex
	redisClient *redis.Client
	channel     string
	instanceID  string
	logger      zerolog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

type targetedEvent struct {
	UserID string
	Event  *Event
}

// NewHub creates a new Hub. redisClient may be nil for a single instance.
func NewHub(redisClient *redis.Client, channel string, logger zerolog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	if channel == "" {
		channel = "marketplace:pubsub:inbox"
	}
	return &Hub{
		clients:     make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *targetedEvent, 256),
		redisClient: redisClient,
		channel:     channel,
		instanceID:  uuid.New().String(),
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Attach subscribes the hub to store events on bus
func (h *Hub) Attach(bus *event.Bus) {
	bus.Subscribe(hubSubscriber, event.TopicMessageSent, h.forward(TypeInboxUpdate))
	bus.Subscribe(hubSubscriber, event.TopicCollaborationCreated, h.forward(TypeCollaborationUpdate))
	bus.Subscribe(hubSubscriber, event.TopicCollaborationStatusChanged, h.forward(TypeCollaborationUpdate))
}

type audience interface {
	Audience() []string
}

// forward never fails; a missed push only delays a client refresh
func (h *Hub) forward(kind string) event.Handler {
	return func(ev event.Event) error {
		a, ok := ev.Payload.(audience)
		if !ok {
			return nil
		}
		seen := make(map[string]bool, 2)
		for _, userID := range a.Audience() {
			if userID == "" || seen[userID] {
				continue
			}
			seen[userID] = true
			h.SendToUser(userID, &Event{Type: kind, Topic: ev.Topic})
		}
		return nil
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	// Start Redis subscriber if Redis is available
	if h.redisClient != nil {
		go h.subscribeRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Event)
			if err != nil {
				continue
			}
			h.mu.Lock()
			for client := range h.clients[msg.UserID] {
				select {
				case client.send <- data:
				default:
					// slow consumer
					h.remove(client)
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			return
		}
	}
}

// remove must be called with h.mu held
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.userID)
	}
}

// SendToUser sends an event to a specific user (local + Redis publish)
func (h *Hub) SendToUser(userID string, ev *Event) {
	h.enqueue(&targetedEvent{UserID: userID, Event: ev})

	// Publish to Redis for multi-instance support
	if h.redisClient != nil {
		msg := &redisMessage{Origin: h.instanceID, UserID: userID, Event: ev}
		data, err := json.Marshal(msg)
		if err == nil {
			if err := h.redisClient.Publish(h.ctx, h.channel, data).Err(); err != nil {
				h.logger.Warn().Err(err).Str("channel", h.channel).Msg("redis publish failed")
			}
		}
	}
}

func (h *Hub) enqueue(te *targetedEvent) {
	select {
	case h.broadcast <- te:
	default:
		h.logger.Warn().Str("user_id", te.UserID).Msg("ws broadcast queue full, dropping signal")
	}
}

// ConnectedClients returns how many connections userID has open
func (h *Hub) ConnectedClients(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

type redisMessage struct {
	Origin string `json:"origin"`
	UserID string `json:"user_id"`
	Event  *Event `json:"event"`
}

// subscribeRedis listens for signals from other instances
func (h *Hub) subscribeRedis() {
	pubsub := h.redisClient.Subscribe(h.ctx, h.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var rm redisMessage
			if err := json.Unmarshal([]byte(msg.Payload), &rm); err != nil {
				h.logger.Warn().Err(err).Msg("malformed pubsub message")
				continue
			}
			// already delivered locally
			if rm.Origin == h.instanceID || rm.Event == nil {
				continue
			}
			h.enqueue(&targetedEvent{UserID: rm.UserID, Event: rm.Event})
		case <-h.ctx.Done():
			return
		}
	}
}

// Stop gracefully shuts down the hub
func (h *Hub) Stop() {
	h.cancel()
}
