package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Restaurant is a restaurant owned by a RESTAURANT_OWNER account.
type Restaurant struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Owner        int64     `json:"owner,omitempty" gorm:"uniqueIndex;not null"`
	Name         string    `json:"name" gorm:"not null"`
	Description  string    `json:"description"`
	Address      string    `json:"address"`
	PhoneNumber  string    `json:"phone_number"`
	CuisineType  string    `json:"cuisine_type" gorm:"index"`
	DeliveryTime string    `json:"delivery_time,omitempty"`
	IsOpen       bool      `json:"is_open"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Ref returns the lightweight reference kept by the cart.
func (r Restaurant) Ref() RestaurantRef {
	return RestaurantRef{ID: r.ID, Name: r.Name}
}

// RestaurantInput is the create/update payload for a restaurant.
type RestaurantInput struct {
	Name         string `json:"name,omitempty" validate:"required,min=2,max=200"`
	Description  string `json:"description,omitempty"`
	Address      string `json:"address,omitempty" validate:"required"`
	PhoneNumber  string `json:"phone_number,omitempty" validate:"required,max=15"`
	CuisineType  string `json:"cuisine_type,omitempty"`
	DeliveryTime string `json:"delivery_time,omitempty"`
	IsOpen       *bool  `json:"is_open,omitempty"`
}

// RestaurantFilter narrows the public restaurant listing.
type RestaurantFilter struct {
	Search      string
	CuisineType string
}

// MenuItem belongs to exactly one restaurant.
type MenuItem struct {
	ID          int64           `json:"id" gorm:"primaryKey"`
	Restaurant  int64           `json:"restaurant" gorm:"index;not null"`
	Name        string          `json:"name" gorm:"not null"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Category    string          `json:"category"`
	IsAvailable bool            `json:"is_available"`
}

// MenuItemInput is the create/update payload for a menu item.
type MenuItemInput struct {
	Name        string           `json:"name,omitempty" validate:"required,max=200"`
	Description string           `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty" validate:"required"`
	Category    string           `json:"category,omitempty"`
	IsAvailable *bool            `json:"is_available,omitempty"`
}
