package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one row of the kv_entries table
type Entry struct {
	Key       string    `gorm:"column:entry_key;primaryKey;size:191"`
	Value     []byte    `gorm:"column:entry_value;type:longblob"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Entry) TableName() string {
	return "kv_entries"
}

// GormStore persists values in a SQL table through gorm (sqlite or mysql)
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GormStore; the table must already be migrated
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Get loads the value stored under key
func (s *GormStore) Get(ctx context.Context, key string) ([]byte, error) {
	var e Entry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return e.Value, nil
}

// Set upserts the value stored under key
func (s *GormStore) Set(ctx context.Context, key string, value []byte) error {
	e := Entry{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"entry_value", "updated_at"}),
	}).Create(&e).Error
}
