package repositories

import (
	"context"
	"errors"
	"fmt"

	"foodfront/internal/models"

	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// Create saves an order and its line items in one transaction.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves an order with its line items.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %d: %w", id, err)
	}
	return &order, nil
}

// List retrieves orders matching q, newest first.
func (r *GORMOrderRepository) List(ctx context.Context, q OrderQuery) ([]models.Order, error) {
	db := r.db.WithContext(ctx).Preload("Items")
	if q.Customer != 0 {
		db = db.Where("customer = ?", q.Customer)
	}
	if q.Restaurant != 0 {
		db = db.Where("restaurant = ?", q.Restaurant)
	}
	if q.Rider != 0 {
		db = db.Where("rider = ?", q.Rider)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.Unassigned {
		db = db.Where("rider IS NULL")
	}
	var orders []models.Order
	if err := db.Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus applies changes guarded by the current status.
func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id int64, from models.OrderStatus, changes map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(changes)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update status of order %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// AssignRider claims a ready, unassigned order for riderID in one statement.
func (r *GORMOrderRepository) AssignRider(ctx context.Context, id, riderID int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND rider IS NULL AND status = ?", id, models.StatusReadyForPickup).
		Update("rider", riderID)
	if res.Error != nil {
		return false, fmt.Errorf("failed to assign rider to order %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}
