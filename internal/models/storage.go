package models

import "time"

// StorageEntry is one row of the durable key-value store.
type StorageEntry struct {
	Key       string `gorm:"column:storage_key;primaryKey;type:varchar(255)"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (StorageEntry) TableName() string { return "client_storage" }
