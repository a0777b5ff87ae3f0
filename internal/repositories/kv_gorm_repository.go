package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"foodfront/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMKeyValueStore keeps client storage in a SQL table.
type GORMKeyValueStore struct {
	db *gorm.DB
}

// NewGORMKeyValueStore creates a new GORMKeyValueStore. The caller migrates models.StorageEntry.
func NewGORMKeyValueStore(db *gorm.DB) *GORMKeyValueStore {
	return &GORMKeyValueStore{db: db}
}

// Get retrieves the value stored under key.
func (r *GORMKeyValueStore) Get(ctx context.Context, key string) (string, error) {
	var entry models.StorageEntry
	if err := r.db.WithContext(ctx).First(&entry, "storage_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return entry.Value, nil
}

// Set inserts or replaces the value under key.
func (r *GORMKeyValueStore) Set(ctx context.Context, key, value string) error {
	entry := models.StorageEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Delete removes keys. Missing keys are not an error.
func (r *GORMKeyValueStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Delete(&models.StorageEntry{}, "storage_key IN ?", keys).Error; err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}
