package repositories

import (
	"fmt"

	"foodfront/internal/models"

	"gorm.io/gorm"
)

// MigrateBackend creates or updates the reference backend tables.
func MigrateBackend(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Restaurant{}, &models.MenuItem{}, &models.Order{}, &models.OrderLineItem{}); err != nil {
		return fmt.Errorf("failed to auto-migrate backend schema: %w", err)
	}
	return nil
}
