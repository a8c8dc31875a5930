package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campusbridge/marketplace-backend/internal/common"
	"github.com/campusbridge/marketplace-backend/internal/domain"
	"github.com/campusbridge/marketplace-backend/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	require.NoError(t, db.AutoMigrate(&domain.Product{}))
	return db
}

func TestProductRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(setupTestDB(t))

	require.NoError(t, repo.Save(ctx, &domain.Product{ID: "p1", Title: "Widget", SellerID: "s1"}))

	p, err := repo.FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Title)
	assert.Equal(t, "s1", p.SellerID)

	require.NoError(t, repo.Save(ctx, &domain.Product{ID: "p1", Title: "Widget v2", SellerID: "s1"}))
	p, err = repo.FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Widget v2", p.Title)

	require.NoError(t, repo.Delete(ctx, "p1"))
	_, err = repo.FindByID(ctx, "p1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "p1"), common.ErrNotFound)
}

// MockCacheService 캐시 서비스 모의 객체
type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockCacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockCacheService) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) IsAvailable() bool { return true }

func (m *MockCacheService) Ping(_ context.Context) error { return nil }

func TestCachedProductRepository_MissThenFill(t *testing.T) {
	ctx := context.Background()
	inner := NewProductRepository(setupTestDB(t))
	require.NoError(t, inner.Save(ctx, &domain.Product{ID: "p1", Title: "Widget", SellerID: "s1"}))

	mc := new(MockCacheService)
	mc.On("Get", ctx, "product:p1", mock.Anything).Return(cache.ErrMiss).Once()
	mc.On("Set", ctx, "product:p1", mock.AnythingOfType("*domain.Product"), cache.TTLProduct).Return(nil).Once()

	repo := NewCachedProductRepository(inner, mc, 0)
	p, err := repo.FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Title)
	mc.AssertExpectations(t)
}

func TestCachedProductRepository_Hit(t *testing.T) {
	ctx := context.Background()
	mc := new(MockCacheService)
	mc.On("Get", ctx, "product:p1", mock.Anything).Run(func(args mock.Arguments) {
		dest := args.Get(2).(*domain.Product)
		*dest = domain.Product{ID: "p1", Title: "Cached", SellerID: "s1"}
	}).Return(nil)

	// inner repository is never consulted on a hit
	repo := NewCachedProductRepository(NewProductRepository(setupTestDB(t)), mc, time.Minute)
	p, err := repo.FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Cached", p.Title)
	mc.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCachedProductRepository_CacheErrorFallsBack(t *testing.T) {
	ctx := context.Background()
	inner := NewProductRepository(setupTestDB(t))
	require.NoError(t, inner.Save(ctx, &domain.Product{ID: "p1", Title: "Widget", SellerID: "s1"}))

	mc := new(MockCacheService)
	mc.On("Get", ctx, "product:p1", mock.Anything).Return(errors.New("connection refused"))
	mc.On("Delete", ctx, []string{"product:p1"}).Return(nil)
	mc.On("Set", ctx, "product:p1", mock.Anything, time.Minute).Return(nil)

	repo := NewCachedProductRepository(inner, mc, time.Minute)
	p, err := repo.FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Title)
}

func TestCachedProductRepository_SaveInvalidates(t *testing.T) {
	ctx := context.Background()
	mc := new(MockCacheService)
	mc.On("Delete", ctx, []string{"product:p1"}).Return(nil).Once()

	repo := NewCachedProductRepository(NewProductRepository(setupTestDB(t)), mc, time.Minute)
	require.NoError(t, repo.Save(ctx, &domain.Product{ID: "p1", Title: "Widget", SellerID: "s1"}))
	mc.AssertExpectations(t)
}
