package repository

import (
	"context"
	"sync"

	"github.com/campusbridge/marketplace-backend/internal/common"
	"github.com/campusbridge/marketplace-backend/internal/domain"
	"github.com/campusbridge/marketplace-backend/pkg/storage"
	"github.com/rs/zerolog"
)

// MessageRepository message log access interface.
// The log is append-only; the only mutation is the read flag.
type MessageRepository interface {
	Append(ctx context.Context, msg *domain.Message) error
	FindByID(ctx context.Context, id string) (*domain.Message, error)
	MarkAsRead(ctx context.Context, id string) (bool, error)
	MarkConversationRead(ctx context.Context, readerID, peerID string) (int, error)
	FindByParticipant(ctx context.Context, userID string) ([]*domain.Message, error)
	All(ctx context.Context) ([]*domain.Message, error)
}

type messageRepository struct {
	mu    sync.Mutex
	log   []*domain.Message
	index map[string]int // id -> position in log
	kv    *kvCollection[*domain.Message]
}

// NewMessageRepository loads the persisted log and returns a write-through repository
func NewMessageRepository(ctx context.Context, store storage.Store, logger zerolog.Logger) (MessageRepository, error) {
	kv := &kvCollection[*domain.Message]{store: store, key: KeyMessages, logger: logger}
	log, err := kv.load(ctx)
	if err != nil {
		return nil, err
	}

	r := &messageRepository{
		log:   make([]*domain.Message, 0, len(log)),
		index: make(map[string]int, len(log)),
		kv:    kv,
	}
	for _, m := range log {
		if m == nil {
			continue
		}
		r.index[m.ID] = len(r.log)
		r.log = append(r.log, m)
	}
	logger.Info().Int("messages", len(r.log)).Msg("message log loaded")
	return r, nil
}

// Append adds msg to the end of the log and persists the log
func (r *messageRepository) Append(ctx context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.index[msg.ID] = len(r.log)
	r.log = append(r.log, msg.Clone())
	return r.kv.save(ctx, r.log)
}

// FindByID finds a message by ID
func (r *messageRepository) FindByID(_ context.Context, id string) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return nil, &common.NotFoundError{Resource: "message", ID: id}
	}
	return r.log[i].Clone(), nil
}

// MarkAsRead sets the read flag; reports whether anything changed
func (r *messageRepository) MarkAsRead(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return false, &common.NotFoundError{Resource: "message", ID: id}
	}
	if r.log[i].Read {
		return false, nil
	}
	r.log[i].Read = true
	return true, r.kv.save(ctx, r.log)
}

// MarkConversationRead marks every unread message from peerID to readerID read
func (r *messageRepository) MarkConversationRead(ctx context.Context, readerID, peerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, m := range r.log {
		if m.RecipientID == readerID && m.SenderID == peerID && !m.Read {
			m.Read = true
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return n, r.kv.save(ctx, r.log)
}

// FindByParticipant returns messages the user sent or received, in log order
func (r *messageRepository) FindByParticipant(_ context.Context, userID string) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Message
	for _, m := range r.log {
		if m.Involves(userID) {
			out = append(out, m.Clone())
		}
	}
	return out, nil
}

// All returns a copy of the whole log
func (r *messageRepository) All(_ context.Context) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.Message, len(r.log))
	for i, m := range r.log {
		out[i] = m.Clone()
	}
	return out, nil
}
