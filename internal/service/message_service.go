package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/campusbridge/marketplace-backend/internal/common"
	"github.com/campusbridge/marketplace-backend/internal/conversation"
	"github.com/campusbridge/marketplace-backend/internal/domain"
	"github.com/campusbridge/marketplace-backend/internal/event"
	"github.com/campusbridge/marketplace-backend/internal/metrics"
	"github.com/campusbridge/marketplace-backend/internal/repository"
	"github.com/campusbridge/marketplace-backend/pkg/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MessageSent is the payload of event.TopicMessageSent
type MessageSent struct {
	Message *domain.Message
}

// Audience lists the users whose inbox changed
func (e MessageSent) Audience() []string {
	return []string{e.Message.SenderID, e.Message.RecipientID}
}

// MessageService business logic for direct messages and the conversation views derived from them.
//
// The in-memory log is authoritative. When a mutation is applied but the
// write-through fails, methods return the result together with an error
// matching storage.ErrPersist; callers must treat the mutation as done.
type MessageService interface {
	Send(ctx context.Context, sender domain.Identity, recipientID, content string) (*domain.Message, error)
	MarkRead(ctx context.Context, messageID string) error
	MarkReadBy(ctx context.Context, readerID, messageID string) error
	AllForUser(ctx context.Context, userID string) ([]*domain.Message, error)

	Conversations(ctx context.Context, viewerID string) (conversation.Conversations, error)
	Conversation(ctx context.Context, viewerID, peerID string) ([]*domain.Message, error)
	OpenConversation(ctx context.Context, viewerID, peerID string) ([]*domain.Message, error)
	UnreadCount(ctx context.Context, viewerID, peerID string) (int, error)
	Inbox(ctx context.Context, viewerID string) ([]conversation.Summary, error)
}

type messageService struct {
	repo   repository.MessageRepository
	bus    *event.Bus
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

// NewMessageService creates a new MessageService. bus may be nil when nobody observes the log.
func NewMessageService(repo repository.MessageRepository, bus *event.Bus, logger zerolog.Logger) MessageService {
	return &messageService{
		repo:   repo,
		bus:    bus,
		logger: logger,
		now:    time.Now,
		newID:  newTimeOrderedID,
	}
}

// newTimeOrderedID returns a UUIDv7 so ids sort roughly by creation time
func newTimeOrderedID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// committed reports whether err leaves a mutation in place (nil or a failed write-through)
func committed(err error) bool {
	return err == nil || errors.Is(err, storage.ErrPersist)
}

// Send appends a new unread message from sender to recipientID
func (s *messageService) Send(ctx context.Context, sender domain.Identity, recipientID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	recipientID = strings.TrimSpace(recipientID)

	switch {
	case content == "":
		return nil, &common.ValidationError{Field: "content", Message: "message must not be empty"}
	case recipientID == "":
		return nil, &common.ValidationError{Field: "recipient_id", Message: "recipient is required"}
	case recipientID == sender.ID:
		return nil, &common.ValidationError{Field: "recipient_id", Message: "cannot send a message to yourself"}
	}

	msg := &domain.Message{
		ID:          s.newID(),
		SenderID:    sender.ID,
		SenderName:  sender.Name,
		RecipientID: recipientID,
		Content:     content,
		Timestamp:   s.now(),
		Read:        false,
	}

	persistErr := s.repo.Append(ctx, msg)
	if !committed(persistErr) {
		return nil, persistErr
	}
	metrics.MessagesSent.WithLabelValues(originOf(ctx)).Inc()

	s.logger.Debug().
		Str("message_id", msg.ID).
		Str("sender_id", msg.SenderID).
		Str("recipient_id", msg.RecipientID).
		Msg("message sent")

	if s.bus != nil {
		// observers only refresh views; their failures never undo a send
		_ = s.bus.Publish(ctx, "messages", event.TopicMessageSent, MessageSent{Message: msg.Clone()})
	}
	return msg, persistErr
}

// MarkRead flips the read flag; re-marking is a no-op
func (s *messageService) MarkRead(ctx context.Context, messageID string) error {
	changed, err := s.repo.MarkAsRead(ctx, messageID)
	if changed {
		metrics.MessagesRead.Inc()
	}
	return err
}

// MarkReadBy marks a message read on behalf of its recipient
func (s *messageService) MarkReadBy(ctx context.Context, readerID, messageID string) error {
	msg, err := s.repo.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.RecipientID != readerID {
		return common.ErrForbidden
	}
	return s.MarkRead(ctx, messageID)
}

// AllForUser returns every message userID sent or received, in storage order
func (s *messageService) AllForUser(ctx context.Context, userID string) ([]*domain.Message, error) {
	return s.repo.FindByParticipant(ctx, userID)
}

// Conversations projects the log for viewerID
func (s *messageService) Conversations(ctx context.Context, viewerID string) (conversation.Conversations, error) {
	log, err := s.repo.FindByParticipant(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return conversation.Project(log, viewerID), nil
}

// Conversation returns the ordered exchange with one peer
func (s *messageService) Conversation(ctx context.Context, viewerID, peerID string) ([]*domain.Message, error) {
	log, err := s.repo.FindByParticipant(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return conversation.Conversation(log, viewerID, peerID), nil
}

// OpenConversation marks everything peerID sent to viewerID read and returns the exchange
func (s *messageService) OpenConversation(ctx context.Context, viewerID, peerID string) ([]*domain.Message, error) {
	n, persistErr := s.repo.MarkConversationRead(ctx, viewerID, peerID)
	if !committed(persistErr) {
		return nil, persistErr
	}
	if n > 0 {
		metrics.MessagesRead.Add(float64(n))
	}
	conv, err := s.Conversation(ctx, viewerID, peerID)
	if err != nil {
		return nil, err
	}
	return conv, persistErr
}

// UnreadCount counts unread messages from peerID to viewerID
func (s *messageService) UnreadCount(ctx context.Context, viewerID, peerID string) (int, error) {
	log, err := s.repo.FindByParticipant(ctx, viewerID)
	if err != nil {
		return 0, err
	}
	return conversation.UnreadCount(log, viewerID, peerID), nil
}

// Inbox lists viewerID's conversations, most recent first
func (s *messageService) Inbox(ctx context.Context, viewerID string) ([]conversation.Summary, error) {
	log, err := s.repo.FindByParticipant(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return conversation.Inbox(log, viewerID), nil
}

type originKey struct{}

// WithSystemOrigin tags ctx so messages sent under it count as system-generated
func WithSystemOrigin(ctx context.Context) context.Context {
	return context.WithValue(ctx, originKey{}, "system")
}

func originOf(ctx context.Context) string {
	if v, ok := ctx.Value(originKey{}).(string); ok {
		return v
	}
	return "user"
}
