package repositories

import (
	"context"

	"foodfront/internal/models"
)

// RestaurantRepository defines the interface for restaurant and menu data access.
type RestaurantRepository interface {
	List(ctx context.Context, filter models.RestaurantFilter) ([]models.Restaurant, error)
	GetByID(ctx context.Context, id int64) (*models.Restaurant, error)
	GetByOwner(ctx context.Context, ownerID int64) (*models.Restaurant, error)
	Create(ctx context.Context, restaurant *models.Restaurant) error
	Update(ctx context.Context, restaurant *models.Restaurant) error

	ListMenu(ctx context.Context, restaurantID int64, availableOnly bool) ([]models.MenuItem, error)
	GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error)
	GetMenuItems(ctx context.Context, ids []int64) (map[int64]models.MenuItem, error)
	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	UpdateMenuItem(ctx context.Context, item *models.MenuItem) error
	DeleteMenuItem(ctx context.Context, id int64) error
}
