package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/campusbridge/marketplace-backend/internal/common"
	"github.com/campusbridge/marketplace-backend/internal/domain"
	"github.com/campusbridge/marketplace-backend/internal/event"
	"github.com/campusbridge/marketplace-backend/internal/metrics"
	"github.com/campusbridge/marketplace-backend/internal/repository"
	"github.com/rs/zerolog"
)

// ProductLookup resolves a project to its title and owning seller
type ProductLookup interface {
	FindByID(ctx context.Context, id string) (*domain.Product, error)
}

// CollaborationCreated is the payload of event.TopicCollaborationCreated
type CollaborationCreated struct {
	Collaboration *domain.Collaboration
}

// Audience lists the users whose collaboration lists changed
func (e CollaborationCreated) Audience() []string {
	return []string{e.Collaboration.BusinessUserID, e.Collaboration.StudentUserID}
}

// CollaborationStatusChanged is the payload of event.TopicCollaborationStatusChanged
type CollaborationStatusChanged struct {
	Collaboration *domain.Collaboration
	Actor         domain.Identity
}

// Audience lists the users whose collaboration lists changed
func (e CollaborationStatusChanged) Audience() []string {
	return []string{e.Collaboration.BusinessUserID, e.Collaboration.StudentUserID}
}

// CollaborationService business logic for collaboration requests. As with
// MessageService, an error matching storage.ErrPersist accompanies a record
// whose change was applied in memory but not written through.
type CollaborationService interface {
	Create(ctx context.Context, requester domain.Identity, projectID, message string) (*domain.Collaboration, error)
	Transition(ctx context.Context, actor domain.Identity, id string, status domain.CollaborationStatus) (*domain.Collaboration, error)
	Get(ctx context.Context, id string) (*domain.Collaboration, error)
	ForUser(ctx context.Context, userID string, role domain.CollaborationRole) ([]*domain.Collaboration, error)
	ForIdentity(ctx context.Context, user domain.Identity) ([]*domain.Collaboration, error)
	ForProject(ctx context.Context, projectID string) ([]*domain.Collaboration, error)
}

type collaborationService struct {
	// serializes check-then-write sequences (duplicate guard, pending check)
	mu       sync.Mutex
	repo     repository.CollaborationRepository
	products ProductLookup
	bus      *event.Bus
	logger   zerolog.Logger
	now      func() time.Time
	newID    func() string
}

// NewCollaborationService creates a new CollaborationService
func NewCollaborationService(repo repository.CollaborationRepository, products ProductLookup, bus *event.Bus, logger zerolog.Logger) CollaborationService {
	return &collaborationService{
		repo:     repo,
		products: products,
		bus:      bus,
		logger:   logger,
		now:      time.Now,
		newID:    newTimeOrderedID,
	}
}

// Create records a pending request from a business user to the project's seller
func (s *collaborationService) Create(ctx context.Context, requester domain.Identity, projectID, message string) (*domain.Collaboration, error) {
	if requester.Role != domain.RoleBuyer {
		return nil, fmt.Errorf("only business users can request collaborations: %w", common.ErrForbidden)
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, &common.ValidationError{Field: "project_id", Message: "project is required"}
	}

	product, err := s.products.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if product.SellerID == requester.ID {
		return nil, &common.ValidationError{Field: "project_id", Message: "cannot request collaboration on your own project"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.FindPending(ctx, projectID, requester.ID, product.SellerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		metrics.CollaborationConflicts.Inc()
		return nil, &common.ConflictError{
			Resource: "collaboration",
			Message:  fmt.Sprintf("a request for this project is already pending (%s)", existing.ID),
		}
	}

	c := &domain.Collaboration{
		ID:             s.newID(),
		ProjectID:      projectID,
		BusinessUserID: requester.ID,
		StudentUserID:  product.SellerID,
		Message:        strings.TrimSpace(message),
		Status:         domain.CollaborationPending,
		CreatedAt:      s.now(),
	}
	persistErr := s.repo.Create(ctx, c)
	if !committed(persistErr) {
		return nil, persistErr
	}
	metrics.CollaborationsCreated.Inc()

	s.logger.Info().
		Str("collaboration_id", c.ID).
		Str("project_id", c.ProjectID).
		Str("business_user_id", c.BusinessUserID).
		Str("student_user_id", c.StudentUserID).
		Msg("collaboration requested")

	if s.bus != nil {
		_ = s.bus.Publish(ctx, "collaborations", event.TopicCollaborationCreated, CollaborationCreated{Collaboration: c.Clone()})
	}
	return c, persistErr
}

// Transition moves a pending request to accepted or rejected. The status change
// is committed before subscribers run, so they run exactly once per transition
// even when the write-through fails. A subscriber failure comes back as a
// *common.NotificationError next to the updated record, joined with any
// persist error.
func (s *collaborationService) Transition(ctx context.Context, actor domain.Identity, id string, status domain.CollaborationStatus) (*domain.Collaboration, error) {
	if !status.Terminal() {
		return nil, &common.ValidationError{Field: "status", Message: fmt.Sprintf("cannot transition to %q", status)}
	}

	updated, persistErr := s.commitTransition(ctx, actor, id, status)
	if !committed(persistErr) {
		return nil, persistErr
	}
	metrics.CollaborationTransitions.WithLabelValues(string(status)).Inc()

	s.logger.Info().
		Str("collaboration_id", updated.ID).
		Str("status", string(updated.Status)).
		Str("actor_id", actor.ID).
		Msg("collaboration status changed")

	if s.bus == nil {
		return updated, persistErr
	}
	payload := CollaborationStatusChanged{Collaboration: updated.Clone(), Actor: actor}
	if err := s.bus.Publish(ctx, "collaborations", event.TopicCollaborationStatusChanged, payload); err != nil {
		return updated, errors.Join(persistErr, &common.NotificationError{Subject: "collaboration " + updated.ID, Err: err})
	}
	return updated, persistErr
}

func (s *collaborationService) commitTransition(ctx context.Context, actor domain.Identity, id string, status domain.CollaborationStatus) (*domain.Collaboration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.StudentUserID != actor.ID {
		return nil, fmt.Errorf("only the addressed student can respond: %w", common.ErrForbidden)
	}
	if current.Status != domain.CollaborationPending {
		return nil, &common.InvalidStateError{ID: current.ID, Status: string(current.Status)}
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// Get returns one collaboration
func (s *collaborationService) Get(ctx context.Context, id string) (*domain.Collaboration, error) {
	return s.repo.FindByID(ctx, id)
}

// ForUser lists requests userID sent (requester) or received (recipient)
func (s *collaborationService) ForUser(ctx context.Context, userID string, role domain.CollaborationRole) ([]*domain.Collaboration, error) {
	switch role {
	case domain.AsRequester:
		return s.repo.FindByRequester(ctx, userID)
	case domain.AsRecipient:
		return s.repo.FindByRecipient(ctx, userID)
	default:
		return nil, &common.ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", role)}
	}
}

// ForIdentity lists the requests relevant to the user's side of the marketplace
func (s *collaborationService) ForIdentity(ctx context.Context, user domain.Identity) ([]*domain.Collaboration, error) {
	if user.Role == domain.RoleBuyer {
		return s.ForUser(ctx, user.ID, domain.AsRequester)
	}
	return s.ForUser(ctx, user.ID, domain.AsRecipient)
}

// ForProject lists every request for a project
func (s *collaborationService) ForProject(ctx context.Context, projectID string) ([]*domain.Collaboration, error) {
	return s.repo.FindByProject(ctx, projectID)
}
