package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foodfront/internal/models"
	"foodfront/internal/state"

	"go.uber.org/zap"
)

// Cart lookup errors.
var (
	ErrMenuItemNotFound    = errors.New("menu item not found on this restaurant's menu")
	ErrMenuItemUnavailable = errors.New("menu item is currently unavailable")
)

// AddToCart adds one unit of a restaurant's menu item to the cart. The
// restaurant and menu are read from the backend directly and leave the
// restaurant browsing state untouched.
func (s *Session) AddToCart(ctx context.Context, restaurantID, menuItemID int64) (state.CartState, error) {
	restaurant, err := s.client.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return state.CartState{}, fmt.Errorf("failed to fetch restaurant %d: %w", restaurantID, err)
	}
	menu, err := s.client.RestaurantMenu(ctx, restaurantID)
	if err != nil {
		return state.CartState{}, fmt.Errorf("failed to fetch menu of restaurant %d: %w", restaurantID, err)
	}
	for _, item := range menu {
		if item.ID != menuItemID {
			continue
		}
		if !item.IsAvailable {
			return state.CartState{}, fmt.Errorf("%w: %s", ErrMenuItemUnavailable, item.Name)
		}
		return s.Cart.AddItem(ctx, item, restaurant.Ref()), nil
	}
	return state.CartState{}, ErrMenuItemNotFound
}

// Checkout submits the cart as an order to address. The cart is cleared only
// after the backend confirmed the order, and only if it still holds what was
// submitted; on failure it is left untouched.
func (s *Session) Checkout(ctx context.Context, address string) (*models.Order, error) {
	cart := s.Cart.State()
	if cart.Empty() || cart.Restaurant == nil {
		return nil, fieldError("items", "Your cart is empty.")
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fieldError("delivery_address", "Please enter a delivery address.")
	}

	in := models.CreateOrderInput{
		Restaurant:      cart.Restaurant.ID,
		DeliveryAddress: address,
		Items:           make([]models.OrderItemInput, 0, len(cart.Items)),
	}
	for _, it := range cart.Items {
		in.Items = append(in.Items, models.OrderItemInput{MenuItem: it.MenuItemID, Quantity: it.Quantity})
	}
	if err := ValidateStruct(s.validate, in); err != nil {
		return nil, err
	}

	order, err := s.Orders.CreateOrder(ctx, in.Restaurant, in.DeliveryAddress, in.Items)
	if err != nil {
		return nil, fmt.Errorf("checkout failed: %w", err)
	}
	if !s.Cart.ClearIfUnchanged(ctx, cart) {
		s.logger.Info("cart changed during checkout, keeping it", zap.Int64("order_id", order.ID))
	}
	s.logger.Info("order placed",
		zap.Int64("order_id", order.ID), zap.String("total", order.TotalAmount.String()))
	return order, nil
}
