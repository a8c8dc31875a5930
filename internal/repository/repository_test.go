package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campusbridge/marketplace-backend/internal/common"
	"github.com/campusbridge/marketplace-backend/internal/domain"
	"github.com/campusbridge/marketplace-backend/pkg/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore reads from an inner store but refuses writes when broken
type failingStore struct {
	inner  storage.Store
	broken bool
}

func (s *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.inner.Get(ctx, key)
}

func (s *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if s.broken {
		return errors.New("quota exceeded")
	}
	return s.inner.Set(ctx, key, value)
}

var t0 = time.Date(2026, 5, 1, 12, 0, 0, 123456789, time.FixedZone("KST", 9*60*60))

func newMessage(id, from, to string, offset time.Duration) *domain.Message {
	return &domain.Message{
		ID:          id,
		SenderID:    from,
		SenderName:  "name-" + from,
		RecipientID: to,
		Content:     "hi " + to,
		Timestamp:   t0.Add(offset),
	}
}

func TestMessageRepository_AppendAndReload(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	repo, err := NewMessageRepository(ctx, store, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, newMessage("m1", "b", "s", 0)))
	require.NoError(t, repo.Append(ctx, newMessage("m2", "s", "b", time.Second)))

	reloaded, err := NewMessageRepository(ctx, store, zerolog.Nop())
	require.NoError(t, err)
	all, err := reloaded.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "m1", all[0].ID)
	// timestamps survive the text round trip exactly
	assert.True(t, all[0].Timestamp.Equal(t0))
	assert.True(t, all[1].Timestamp.Equal(t0.Add(time.Second)))
}

func TestMessageRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo, err := NewMessageRepository(ctx, storage.NewMemoryStore(), zerolog.Nop())
	require.NoError(t, err)

	m := newMessage("m1", "b", "s", 0)
	require.NoError(t, repo.Append(ctx, m))
	m.Content = "mutated by caller"

	got, err := repo.FindByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "hi s", got.Content)

	got.Read = true
	again, _ := repo.FindByID(ctx, "m1")
	assert.False(t, again.Read)
}

func TestMessageRepository_MarkAsRead(t *testing.T) {
	ctx := context.Background()
	repo, err := NewMessageRepository(ctx, storage.NewMemoryStore(), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, newMessage("m1", "b", "s", 0)))

	changed, err := repo.MarkAsRead(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.MarkAsRead(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = repo.MarkAsRead(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMessageRepository_MarkConversationRead(t *testing.T) {
	ctx := context.Background()
	repo, err := NewMessageRepository(ctx, storage.NewMemoryStore(), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, newMessage("m1", "s", "b", 0)))
	require.NoError(t, repo.Append(ctx, newMessage("m2", "s", "b", time.Second)))
	require.NoError(t, repo.Append(ctx, newMessage("m3", "b", "s", 2*time.Second)))
	require.NoError(t, repo.Append(ctx, newMessage("m4", "x", "b", 3*time.Second)))

	n, err := repo.MarkConversationRead(ctx, "b", "s")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	m3, _ := repo.FindByID(ctx, "m3")
	assert.False(t, m3.Read, "outgoing message must stay unread")
	m4, _ := repo.FindByID(ctx, "m4")
	assert.False(t, m4.Read, "other peer must be untouched")

	n, err = repo.MarkConversationRead(ctx, "b", "s")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMessageRepository_FindByParticipant(t *testing.T) {
	ctx := context.Background()
	repo, err := NewMessageRepository(ctx, storage.NewMemoryStore(), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, newMessage("m1", "b", "s", time.Minute)))
	require.NoError(t, repo.Append(ctx, newMessage("m2", "x", "y", 0)))
	require.NoError(t, repo.Append(ctx, newMessage("m3", "s", "b", 0)))

	got, err := repo.FindByParticipant(ctx, "b")
	require.NoError(t, err)
	require.Len(t, got, 2)
	// storage order, not timestamp order
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, "m3", got[1].ID)
}

func TestMessageRepository_CorruptStoredValueStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, KeyMessages, []byte("{not json")))

	repo, err := NewMessageRepository(ctx, store, zerolog.Nop())
	require.NoError(t, err)
	all, _ := repo.All(ctx)
	assert.Empty(t, all)

	require.NoError(t, repo.Append(ctx, newMessage("m1", "b", "s", 0)))
	data, _ := store.Get(ctx, KeyMessages)
	assert.Contains(t, string(data), `"id":"m1"`)
}

func TestMessageRepository_PersistFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{inner: storage.NewMemoryStore()}
	repo, err := NewMessageRepository(ctx, store, zerolog.Nop())
	require.NoError(t, err)

	store.broken = true
	err = repo.Append(ctx, newMessage("m1", "b", "s", 0))
	assert.ErrorIs(t, err, storage.ErrPersist)

	got, err := repo.FindByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", got.ID)

	_, err = store.inner.Get(ctx, KeyMessages)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func newCollaboration(id, project, business, student string) *domain.Collaboration {
	return &domain.Collaboration{
		ID:             id,
		ProjectID:      project,
		BusinessUserID: business,
		StudentUserID:  student,
		Message:        "Interested!",
		Status:         domain.CollaborationPending,
		CreatedAt:      t0,
	}
}

func TestCollaborationRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repo, err := NewCollaborationRepository(ctx, store, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, newCollaboration("c1", "p1", "b", "s")))
	require.NoError(t, repo.Create(ctx, newCollaboration("c2", "p2", "b", "s2")))

	pending, err := repo.FindPending(ctx, "p1", "b", "s")
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, "c1", pending.ID)

	updated, err := repo.UpdateStatus(ctx, "c1", domain.CollaborationAccepted)
	require.NoError(t, err)
	assert.Equal(t, domain.CollaborationAccepted, updated.Status)

	pending, err = repo.FindPending(ctx, "p1", "b", "s")
	require.NoError(t, err)
	assert.Nil(t, pending)

	_, err = repo.UpdateStatus(ctx, "nope", domain.CollaborationRejected)
	assert.ErrorIs(t, err, common.ErrNotFound)

	reloaded, err := NewCollaborationRepository(ctx, store, zerolog.Nop())
	require.NoError(t, err)
	c1, err := reloaded.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.CollaborationAccepted, c1.Status)
	assert.True(t, c1.CreatedAt.Equal(t0))
}

func TestCollaborationRepository_Queries(t *testing.T) {
	ctx := context.Background()
	repo, err := NewCollaborationRepository(ctx, storage.NewMemoryStore(), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, newCollaboration("c1", "p1", "b1", "s1")))
	require.NoError(t, repo.Create(ctx, newCollaboration("c2", "p1", "b2", "s1")))
	require.NoError(t, repo.Create(ctx, newCollaboration("c3", "p2", "b1", "s2")))

	byRequester, _ := repo.FindByRequester(ctx, "b1")
	assert.Len(t, byRequester, 2)

	byRecipient, _ := repo.FindByRecipient(ctx, "s1")
	assert.Len(t, byRecipient, 2)

	byProject, _ := repo.FindByProject(ctx, "p2")
	require.Len(t, byProject, 1)
	assert.Equal(t, "c3", byProject[0].ID)

	none, _ := repo.FindByProject(ctx, "p9")
	assert.Empty(t, none)
}
