// Package storage provides the key-value persistence the message log and the
// collaboration table are mirrored to. Each collection occupies one key holding
// its whole serialized form; there are no transactions.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrKeyNotFound is returned by Get when nothing has been stored under the key
	ErrKeyNotFound = errors.New("storage: key not found")
	// ErrPersist wraps write failures so callers can tell them from domain errors
	ErrPersist = errors.New("storage: persist failed")
)

// Store is a byte-oriented key-value store with get/set semantics
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Driver names selectable through storage.driver
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
	DriverRedis  = "redis"
	DriverS3     = "s3"
)

// PersistError annotates a failed Set with its key
type PersistError struct {
	Key string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Key, e.Err)
}

func (e *PersistError) Is(target error) bool {
	return target == ErrPersist
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// NormalizeDriver lower-cases a configured driver name and applies the default
func NormalizeDriver(driver string) string {
	d := strings.ToLower(strings.TrimSpace(driver))
	if d == "" {
		return DriverMemory
	}
	return d
}
