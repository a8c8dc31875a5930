package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/campusbridge/marketplace-backend/internal/metrics"
	"github.com/campusbridge/marketplace-backend/pkg/storage"
	"github.com/rs/zerolog"
)

// Storage keys, one per collection
const (
	KeyMessages       = "chatMessages"
	KeyCollaborations = "collaborations"
)

// kvCollection serializes a whole collection as one JSON array under one key
type kvCollection[T any] struct {
	store  storage.Store
	key    string
	logger zerolog.Logger
}

// load returns the stored items. A missing key is an empty collection; an
// undecodable value is logged and treated as empty so the next write replaces it.
func (c *kvCollection[T]) load(ctx context.Context) ([]T, error) {
	data, err := c.store.Get(ctx, c.key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c.key, err)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		c.logger.Warn().Err(err).Str("key", c.key).Msg("discarding unreadable stored collection")
		return nil, nil
	}
	return items, nil
}

// save rewrites the whole collection
func (c *kvCollection[T]) save(ctx context.Context, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if err := c.store.Set(ctx, c.key, data); err != nil {
		metrics.PersistFailures.WithLabelValues(c.key).Inc()
		c.logger.Error().Err(err).Str("key", c.key).Msg("write-through failed; memory and store diverge")
		return &storage.PersistError{Key: c.key, Err: err}
	}
	return nil
}
