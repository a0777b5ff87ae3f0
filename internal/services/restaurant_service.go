package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foodfront/internal/models"
	"foodfront/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const noRestaurantYet = "You do not have a restaurant yet."

// RestaurantService handles restaurant and menu business logic for the
// reference backend.
type RestaurantService struct {
	repo     repositories.RestaurantRepository
	validate *validator.Validate
}

// NewRestaurantService creates a new RestaurantService.
func NewRestaurantService(repo repositories.RestaurantRepository) *RestaurantService {
	return &RestaurantService{
		repo:     repo,
		validate: NewValidator(),
	}
}

// List retrieves active restaurants.
func (s *RestaurantService) List(ctx context.Context, filter models.RestaurantFilter) ([]models.Restaurant, error) {
	return s.repo.List(ctx, filter)
}

// Get retrieves an active restaurant.
func (s *RestaurantService) Get(ctx context.Context, id int64) (*models.Restaurant, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.IsActive {
		return nil, notFound("Not found.")
	}
	return r, nil
}

// Menu retrieves the menu of an active restaurant.
func (s *RestaurantService) Menu(ctx context.Context, restaurantID int64) ([]models.MenuItem, error) {
	if _, err := s.Get(ctx, restaurantID); err != nil {
		return nil, err
	}
	return s.repo.ListMenu(ctx, restaurantID, false)
}

// MyRestaurant retrieves the restaurant owned by actor.
func (s *RestaurantService) MyRestaurant(ctx context.Context, actor Actor) (*models.Restaurant, error) {
	if actor.Role != models.RoleRestaurantOwner {
		return nil, denied("Only restaurant owners can access this endpoint.")
	}
	r, err := s.repo.GetByOwner(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound(noRestaurantYet)
		}
		return nil, err
	}
	return r, nil
}

// CreateRestaurant creates the single restaurant of an owner.
func (s *RestaurantService) CreateRestaurant(ctx context.Context, actor Actor, in models.RestaurantInput) (*models.Restaurant, error) {
	if err := ValidateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if actor.Role != models.RoleRestaurantOwner {
		return nil, fieldError("non_field_errors", "Only users with RESTAURANT_OWNER role can create restaurants.")
	}
	if _, err := s.repo.GetByOwner(ctx, actor.ID); err == nil {
		return nil, fieldError("non_field_errors", "You already have a restaurant. Each owner can only have one restaurant.")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	r := &models.Restaurant{
		Owner:        actor.ID,
		Name:         in.Name,
		Description:  in.Description,
		Address:      in.Address,
		PhoneNumber:  in.PhoneNumber,
		CuisineType:  in.CuisineType,
		DeliveryTime: in.DeliveryTime,
		IsOpen:       true,
		IsActive:     true,
	}
	if in.IsOpen != nil {
		r.IsOpen = *in.IsOpen
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateRestaurant applies the non-empty fields of in to a restaurant owned by actor.
func (s *RestaurantService) UpdateRestaurant(ctx context.Context, actor Actor, id int64, in models.RestaurantInput) (*models.Restaurant, error) {
	r, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		if n := len(strings.TrimSpace(in.Name)); n < 2 {
			return nil, fieldError("name", "Ensure this field has at least 2 characters.")
		}
		r.Name = in.Name
	}
	if in.PhoneNumber != "" {
		if len(in.PhoneNumber) > 15 {
			return nil, fieldError("phone_number", "Ensure this field has no more than 15 characters.")
		}
		r.PhoneNumber = in.PhoneNumber
	}
	if in.Description != "" {
		r.Description = in.Description
	}
	if in.Address != "" {
		r.Address = in.Address
	}
	if in.CuisineType != "" {
		r.CuisineType = in.CuisineType
	}
	if in.DeliveryTime != "" {
		r.DeliveryTime = in.DeliveryTime
	}
	if in.IsOpen != nil {
		r.IsOpen = *in.IsOpen
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// MyMenu lists every item on the menu of actor's restaurant.
func (s *RestaurantService) MyMenu(ctx context.Context, actor Actor) ([]models.MenuItem, error) {
	r, err := s.MyRestaurant(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.repo.ListMenu(ctx, r.ID, false)
}

// CreateMenuItem adds an item to the menu of actor's restaurant.
func (s *RestaurantService) CreateMenuItem(ctx context.Context, actor Actor, in models.MenuItemInput) (*models.MenuItem, error) {
	if err := ValidateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if !in.Price.GreaterThan(decimal.Zero) {
		return nil, fieldError("price", "Price must be greater than 0.")
	}
	if actor.Role != models.RoleRestaurantOwner {
		return nil, denied("You do not have permission to perform this action.")
	}
	r, err := s.repo.GetByOwner(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fieldError("non_field_errors", "You must have a restaurant before creating menu items.")
		}
		return nil, err
	}

	item := &models.MenuItem{
		Restaurant:  r.ID,
		Name:        in.Name,
		Description: in.Description,
		Price:       *in.Price,
		Category:    in.Category,
		IsAvailable: true,
	}
	if in.IsAvailable != nil {
		item.IsAvailable = *in.IsAvailable
	}
	if err := s.repo.CreateMenuItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateMenuItem applies the set fields of in to an item of actor's restaurant.
func (s *RestaurantService) UpdateMenuItem(ctx context.Context, actor Actor, id int64, in models.MenuItemInput) (*models.MenuItem, error) {
	item, err := s.ownedItem(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		item.Name = in.Name
	}
	if in.Description != "" {
		item.Description = in.Description
	}
	if in.Category != "" {
		item.Category = in.Category
	}
	if in.Price != nil {
		if !in.Price.GreaterThan(decimal.Zero) {
			return nil, fieldError("price", "Price must be greater than 0.")
		}
		item.Price = *in.Price
	}
	if in.IsAvailable != nil {
		item.IsAvailable = *in.IsAvailable
	}
	if err := s.repo.UpdateMenuItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteMenuItem removes an item of actor's restaurant.
func (s *RestaurantService) DeleteMenuItem(ctx context.Context, actor Actor, id int64) error {
	if _, err := s.ownedItem(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.DeleteMenuItem(ctx, id)
}

func (s *RestaurantService) owned(ctx context.Context, actor Actor, id int64) (*models.Restaurant, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && r.Owner != actor.ID {
		return nil, denied("You do not have permission to perform this action.")
	}
	return r, nil
}

func (s *RestaurantService) ownedItem(ctx context.Context, actor Actor, id int64) (*models.MenuItem, error) {
	item, err := s.repo.GetMenuItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, actor, item.Restaurant); err != nil {
		return nil, fmt.Errorf("menu item %d: %w", id, err)
	}
	return item, nil
}
