package repository

import (
	"context"
	"errors"
	"time"

	"github.com/campusbridge/marketplace-backend/internal/domain"
	"github.com/campusbridge/marketplace-backend/pkg/cache"
)

// CachedProductRepository read-through redis cache in front of a ProductRepository
type CachedProductRepository struct {
	repo  ProductRepository
	cache cache.Service
	ttl   time.Duration
}

// NewCachedProductRepository wraps repo; a zero ttl uses cache.TTLProduct
func NewCachedProductRepository(repo ProductRepository, cacheService cache.Service, ttl time.Duration) ProductRepository {
	if ttl <= 0 {
		ttl = cache.TTLProduct
	}
	return &CachedProductRepository{repo: repo, cache: cacheService, ttl: ttl}
}

func (r *CachedProductRepository) key(id string) string {
	return cache.PrefixProduct + id
}

// FindByID serves from cache, falling back to the underlying repository
func (r *CachedProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.cache.Get(ctx, r.key(id), &p)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		// cache trouble is never fatal for a lookup
		_ = r.cache.Delete(ctx, r.key(id))
	}

	found, err := r.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, r.key(id), found, r.ttl)
	return found, nil
}

// Save writes through and invalidates the cached entry
func (r *CachedProductRepository) Save(ctx context.Context, p *domain.Product) error {
	if err := r.repo.Save(ctx, p); err != nil {
		return err
	}
	return r.cache.Delete(ctx, r.key(p.ID))
}

// Delete removes the product and its cached entry
func (r *CachedProductRepository) Delete(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}
	return r.cache.Delete(ctx, r.key(id))
}
