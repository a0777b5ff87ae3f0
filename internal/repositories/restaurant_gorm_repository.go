package repositories

import (
	"context"
	"errors"
	"fmt"

	"foodfront/internal/models"

	"gorm.io/gorm"
)

// GORMRestaurantRepository is a GORM implementation of RestaurantRepository.
type GORMRestaurantRepository struct {
	db *gorm.DB
}

// NewGORMRestaurantRepository creates a new instance of GORMRestaurantRepository.
func NewGORMRestaurantRepository(db *gorm.DB) *GORMRestaurantRepository {
	return &GORMRestaurantRepository{
		db: db,
	}
}

// List retrieves active restaurants matching filter.
func (r *GORMRestaurantRepository) List(ctx context.Context, filter models.RestaurantFilter) ([]models.Restaurant, error) {
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("name LIKE ? OR description LIKE ? OR cuisine_type LIKE ?", like, like, like)
	}
	if filter.CuisineType != "" {
		q = q.Where("cuisine_type = ?", filter.CuisineType)
	}
	var restaurants []models.Restaurant
	if err := q.Order("name").Find(&restaurants).Error; err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}
	return restaurants, nil
}

// GetByID retrieves a single restaurant.
func (r *GORMRestaurantRepository) GetByID(ctx context.Context, id int64) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.WithContext(ctx).First(&restaurant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("restaurant with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get restaurant by ID %d: %w", id, err)
	}
	return &restaurant, nil
}

// GetByOwner retrieves the restaurant of an owner account.
func (r *GORMRestaurantRepository) GetByOwner(ctx context.Context, ownerID int64) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.WithContext(ctx).First(&restaurant, "owner = ?", ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("restaurant of owner %d: %w", ownerID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get restaurant of owner %d: %w", ownerID, err)
	}
	return &restaurant, nil
}

// Create creates a new restaurant.
func (r *GORMRestaurantRepository) Create(ctx context.Context, restaurant *models.Restaurant) error {
	if err := r.db.WithContext(ctx).Create(restaurant).Error; err != nil {
		return fmt.Errorf("failed to create restaurant: %w", err)
	}
	return nil
}

// Update saves every field of restaurant.
func (r *GORMRestaurantRepository) Update(ctx context.Context, restaurant *models.Restaurant) error {
	res := r.db.WithContext(ctx).Save(restaurant)
	if res.Error != nil {
		return fmt.Errorf("failed to update restaurant: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("restaurant with ID %d: %w", restaurant.ID, ErrNotFound)
	}
	return nil
}

// ListMenu retrieves the menu of a restaurant.
func (r *GORMRestaurantRepository) ListMenu(ctx context.Context, restaurantID int64, availableOnly bool) ([]models.MenuItem, error) {
	q := r.db.WithContext(ctx).Where("restaurant = ?", restaurantID)
	if availableOnly {
		q = q.Where("is_available = ?", true)
	}
	var items []models.MenuItem
	if err := q.Order("category, name").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list menu of restaurant %d: %w", restaurantID, err)
	}
	return items, nil
}

// GetMenuItem retrieves a single menu item.
func (r *GORMRestaurantRepository) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("menu item with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get menu item by ID %d: %w", id, err)
	}
	return &item, nil
}

// GetMenuItems retrieves the menu items with the given IDs, keyed by ID.
func (r *GORMRestaurantRepository) GetMenuItems(ctx context.Context, ids []int64) (map[int64]models.MenuItem, error) {
	var items []models.MenuItem
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to get menu items: %w", err)
	}
	out := make(map[int64]models.MenuItem, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

// CreateMenuItem creates a new menu item.
func (r *GORMRestaurantRepository) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create menu item: %w", err)
	}
	return nil
}

// UpdateMenuItem saves every field of item.
func (r *GORMRestaurantRepository) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	res := r.db.WithContext(ctx).Save(item)
	if res.Error != nil {
		return fmt.Errorf("failed to update menu item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("menu item with ID %d: %w", item.ID, ErrNotFound)
	}
	return nil
}

// DeleteMenuItem deletes a menu item by its ID.
func (r *GORMRestaurantRepository) DeleteMenuItem(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&models.MenuItem{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete menu item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("menu item with ID %d: %w", id, ErrNotFound)
	}
	return nil
}
