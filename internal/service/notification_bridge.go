package service

import (
	"context"
	"fmt"

	"github.com/campusbridge/marketplace-backend/internal/domain"
	"github.com/campusbridge/marketplace-backend/internal/event"
	"github.com/campusbridge/marketplace-backend/internal/metrics"
	"github.com/rs/zerolog"
)

// FallbackProjectName is used when the project can no longer be looked up
const FallbackProjectName = "your project"

const bridgeSubscriber = "collaboration-notifier"

// NotificationBridge turns collaboration status changes into a direct message
// from the student to the requester. It only ever reads collaborations.
type NotificationBridge struct {
	messages MessageService
	products ProductLookup
	logger   zerolog.Logger
}

// NewNotificationBridge creates a bridge; call Register to attach it to a bus
func NewNotificationBridge(messages MessageService, products ProductLookup, logger zerolog.Logger) *NotificationBridge {
	return &NotificationBridge{messages: messages, products: products, logger: logger}
}

// Register subscribes the bridge to status changes
func (b *NotificationBridge) Register(bus *event.Bus) {
	bus.Subscribe(bridgeSubscriber, event.TopicCollaborationStatusChanged, b.handle)
}

func (b *NotificationBridge) handle(ev event.Event) error {
	payload, ok := ev.Payload.(CollaborationStatusChanged)
	if !ok {
		return fmt.Errorf("unexpected payload %T", ev.Payload)
	}
	msg, err := b.Notify(ev.Context(), payload.Actor, payload.Collaboration)
	if msg != nil {
		// delivered to the log; a write-through failure is already logged and counted
		return nil
	}
	return err
}

// Notify sends the acceptance or rejection message for c on behalf of actor.
// A non-nil message means it reached the log, even if err reports a failed write-through.
func (b *NotificationBridge) Notify(ctx context.Context, actor domain.Identity, c *domain.Collaboration) (*domain.Message, error) {
	content := StatusMessage(b.projectName(ctx, c.ProjectID), c.Status)
	if content == "" {
		return nil, fmt.Errorf("no notification for status %q", c.Status)
	}

	msg, err := b.messages.Send(WithSystemOrigin(ctx), actor, c.BusinessUserID, content)
	if msg == nil {
		metrics.NotificationFailures.Inc()
		b.logger.Error().Err(err).
			Str("collaboration_id", c.ID).
			Str("recipient_id", c.BusinessUserID).
			Msg("collaboration notification not sent")
		return nil, err
	}
	return msg, err
}

func (b *NotificationBridge) projectName(ctx context.Context, projectID string) string {
	if b.products == nil {
		return FallbackProjectName
	}
	p, err := b.products.FindByID(ctx, projectID)
	if err != nil || p.Title == "" {
		return FallbackProjectName
	}
	return p.Title
}

// StatusMessage renders the notification text for a terminal status
func StatusMessage(projectName string, status domain.CollaborationStatus) string {
	switch status {
	case domain.CollaborationAccepted:
		return fmt.Sprintf("Your collaboration request for \"%s\" has been accepted! Let's start working together.", projectName)
	case domain.CollaborationRejected:
		return fmt.Sprintf("Your collaboration request for \"%s\" has been respectfully declined.", projectName)
	default:
		return ""
	}
}
