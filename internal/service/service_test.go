package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/campusbridge/marketplace-backend/internal/domain"
	"github.com/campusbridge/marketplace-backend/internal/event"
	"github.com/campusbridge/marketplace-backend/internal/repository"
	"github.com/campusbridge/marketplace-backend/pkg/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	business = domain.Identity{ID: "b1", Name: "Acme Corp", Role: domain.RoleBuyer}
	student  = domain.Identity{ID: "s1", Name: "Jiwoo", Role: domain.RoleSeller}
	other    = domain.Identity{ID: "s2", Name: "Minji", Role: domain.RoleSeller}
)

// MockProductLookup 상품 조회 모의 객체
type MockProductLookup struct {
	mock.Mock
}

func (m *MockProductLookup) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

// fakeClock hands out strictly increasing instants
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

// flakyStore is a memory store that refuses writes to the keys marked failing
type flakyStore struct {
	*storage.MemoryStore
	mu      sync.Mutex
	failing map[string]bool
}

func (s *flakyStore) fail(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[key] = true
}

func (s *flakyStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	broken := s.failing[key]
	s.mu.Unlock()
	if broken {
		return errors.New("disk full")
	}
	return s.MemoryStore.Set(ctx, key, value)
}

type sequence struct {
	prefix string
	n      int
}

func (s *sequence) Next() string {
	s.n++
	return fmt.Sprintf("%s%03d", s.prefix, s.n)
}

type fixture struct {
	store    *flakyStore
	bus      *event.Bus
	messages *messageService
	collabs  *collaborationService
	products *MockProductLookup
	bridge   *NotificationBridge
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := &flakyStore{MemoryStore: storage.NewMemoryStore(), failing: make(map[string]bool)}
	bus := event.NewBus(zerolog.Nop())
	clock := &fakeClock{t: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}

	msgRepo, err := repository.NewMessageRepository(ctx, store, zerolog.Nop())
	require.NoError(t, err)
	collabRepo, err := repository.NewCollaborationRepository(ctx, store, zerolog.Nop())
	require.NoError(t, err)

	products := new(MockProductLookup)
	products.On("FindByID", mock.Anything, "p1").Return(&domain.Product{ID: "p1", Title: "Widget", SellerID: student.ID}, nil).Maybe()
	products.On("FindByID", mock.Anything, "p2").Return(&domain.Product{ID: "p2", Title: "Gadget", SellerID: other.ID}, nil).Maybe()

	msgs := NewMessageService(msgRepo, bus, zerolog.Nop()).(*messageService)
	msgs.now = clock.Now
	msgs.newID = (&sequence{prefix: "m"}).Next

	collabs := NewCollaborationService(collabRepo, products, bus, zerolog.Nop()).(*collaborationService)
	collabs.now = clock.Now
	collabs.newID = (&sequence{prefix: "c"}).Next

	bridge := NewNotificationBridge(msgs, products, zerolog.Nop())
	bridge.Register(bus)

	return &fixture{
		store:    store,
		bus:      bus,
		messages: msgs,
		collabs:  collabs,
		products: products,
		bridge:   bridge,
	}
}
