package repository

import (
	"context"
	"sync"

	"github.com/campusbridge/marketplace-backend/internal/common"
	"github.com/campusbridge/marketplace-backend/internal/domain"
	"github.com/campusbridge/marketplace-backend/pkg/storage"
	"github.com/rs/zerolog"
)

// CollaborationRepository collaboration request access interface
type CollaborationRepository interface {
	Create(ctx context.Context, c *domain.Collaboration) error
	FindByID(ctx context.Context, id string) (*domain.Collaboration, error)
	FindPending(ctx context.Context, projectID, requesterID, recipientID string) (*domain.Collaboration, error)
	UpdateStatus(ctx context.Context, id string, status domain.CollaborationStatus) (*domain.Collaboration, error)
	FindByRequester(ctx context.Context, userID string) ([]*domain.Collaboration, error)
	FindByRecipient(ctx context.Context, userID string) ([]*domain.Collaboration, error)
	FindByProject(ctx context.Context, projectID string) ([]*domain.Collaboration, error)
}

type collaborationRepository struct {
	mu    sync.Mutex
	items []*domain.Collaboration
	index map[string]int
	kv    *kvCollection[*domain.Collaboration]
}

// NewCollaborationRepository loads persisted collaborations and returns a write-through repository
func NewCollaborationRepository(ctx context.Context, store storage.Store, logger zerolog.Logger) (CollaborationRepository, error) {
	kv := &kvCollection[*domain.Collaboration]{store: store, key: KeyCollaborations, logger: logger}
	items, err := kv.load(ctx)
	if err != nil {
		return nil, err
	}

	r := &collaborationRepository{
		items: make([]*domain.Collaboration, 0, len(items)),
		index: make(map[string]int, len(items)),
		kv:    kv,
	}
	for _, c := range items {
		if c == nil {
			continue
		}
		r.index[c.ID] = len(r.items)
		r.items = append(r.items, c)
	}
	logger.Info().Int("collaborations", len(r.items)).Msg("collaborations loaded")
	return r, nil
}

// Create appends a new record and persists the table
func (r *collaborationRepository) Create(ctx context.Context, c *domain.Collaboration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.index[c.ID] = len(r.items)
	r.items = append(r.items, c.Clone())
	return r.kv.save(ctx, r.items)
}

// FindByID finds a collaboration by ID
func (r *collaborationRepository) FindByID(_ context.Context, id string) (*domain.Collaboration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return nil, &common.NotFoundError{Resource: "collaboration", ID: id}
	}
	return r.items[i].Clone(), nil
}

// FindPending returns the pending record for the triple, or nil
func (r *collaborationRepository) FindPending(_ context.Context, projectID, requesterID, recipientID string) (*domain.Collaboration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.items {
		if c.Status == domain.CollaborationPending && c.SameTriple(projectID, requesterID, recipientID) {
			return c.Clone(), nil
		}
	}
	return nil, nil
}

// UpdateStatus sets the status in place and persists the table
func (r *collaborationRepository) UpdateStatus(ctx context.Context, id string, status domain.CollaborationStatus) (*domain.Collaboration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return nil, &common.NotFoundError{Resource: "collaboration", ID: id}
	}
	r.items[i].Status = status
	return r.items[i].Clone(), r.kv.save(ctx, r.items)
}

// FindByRequester returns requests sent by a business user
func (r *collaborationRepository) FindByRequester(_ context.Context, userID string) ([]*domain.Collaboration, error) {
	return r.filter(func(c *domain.Collaboration) bool { return c.BusinessUserID == userID }), nil
}

// FindByRecipient returns requests addressed to a student
func (r *collaborationRepository) FindByRecipient(_ context.Context, userID string) ([]*domain.Collaboration, error) {
	return r.filter(func(c *domain.Collaboration) bool { return c.StudentUserID == userID }), nil
}

// FindByProject returns every request for a project, whatever its status
func (r *collaborationRepository) FindByProject(_ context.Context, projectID string) ([]*domain.Collaboration, error) {
	return r.filter(func(c *domain.Collaboration) bool { return c.ProjectID == projectID }), nil
}

func (r *collaborationRepository) filter(keep func(*domain.Collaboration) bool) []*domain.Collaboration {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Collaboration
	for _, c := range r.items {
		if keep(c) {
			out = append(out, c.Clone())
		}
	}
	return out
}
