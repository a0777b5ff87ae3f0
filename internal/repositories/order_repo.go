package repositories

import (
	"context"

	"foodfront/internal/models"
)

// OrderQuery narrows an order listing. Zero fields are ignored.
type OrderQuery struct {
	Customer   int64
	Restaurant int64
	Rider      int64
	Status     models.OrderStatus
	Unassigned bool
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	List(ctx context.Context, q OrderQuery) ([]models.Order, error)
	// UpdateStatus applies changes only while the order is still in status
	// from. It reports whether a row was updated.
	UpdateStatus(ctx context.Context, id int64, from models.OrderStatus, changes map[string]any) (bool, error)
	// AssignRider sets the rider only while the order is ready for pickup and
	// unassigned. It reports whether the claim won.
	AssignRider(ctx context.Context, id, riderID int64) (bool, error)
}
