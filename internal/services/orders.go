package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foodfront/internal/models"

	"go.uber.org/zap"
)

// ErrNotAuthenticated is returned by operations that need a logged-in user.
var ErrNotAuthenticated = errors.New("authentication required")

// TransitionOrder moves order id to status on behalf of the current user. The
// edge and the user's authority over it are checked before the request. The
// check runs against the local copy first; an order not known locally, or one
// whose local copy refuses the move, is re-fetched and checked again.
func (s *Session) TransitionOrder(ctx context.Context, id int64, status models.OrderStatus, reason string) (*models.Order, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	if status == models.StatusCancelled && strings.TrimSpace(reason) == "" {
		return nil, models.ErrReasonRequired
	}

	current, ok := s.Orders.State().Find(id)
	if !ok || !allowed(user.Role, current.Status, status, reason) {
		fetched, err := s.Orders.FetchOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok && fetched.Status != current.Status {
			s.logger.Debug("local order copy was stale",
				zap.Int64("order_id", id), zap.String("local", string(current.Status)), zap.String("backend", string(fetched.Status)))
		}
		current = *fetched
	}
	if !models.CanIssue(user.Role, current.Status, status) {
		return nil, fmt.Errorf("%w: %s may not move order %d from %s to %s",
			models.ErrNotPermitted, user.Role, id, current.Status, status)
	}
	return s.Orders.UpdateOrderStatus(ctx, id, status, reason)
}

func allowed(role models.Role, from, to models.OrderStatus, reason string) bool {
	return models.CanIssue(role, from, to) && models.CheckTransition(from, to, reason) == nil
}

// CancelOrder cancels one of the customer's orders.
func (s *Session) CancelOrder(ctx context.Context, id int64, reason string) (*models.Order, error) {
	return s.TransitionOrder(ctx, id, models.StatusCancelled, reason)
}

// OwnerDashboard is the restaurant owner's overview.
type OwnerDashboard struct {
	Restaurant *models.Restaurant `json:"restaurant"`
	Menu       []models.MenuItem  `json:"menu"`
	Orders     []models.Order     `json:"orders"`
	Pending    []models.Order     `json:"pending_orders"`
}

// LoadOwnerDashboard fetches the owner's restaurant, menu and orders. An owner
// without a restaurant gets an empty dashboard.
func (s *Session) LoadOwnerDashboard(ctx context.Context) (*OwnerDashboard, error) {
	restaurant, err := s.Restaurants.FetchMyRestaurant(ctx)
	if err != nil {
		return nil, err
	}
	dash := &OwnerDashboard{Restaurant: restaurant, Menu: []models.MenuItem{}, Orders: []models.Order{}, Pending: []models.Order{}}
	if restaurant == nil {
		return dash, nil
	}
	if dash.Menu, err = s.Restaurants.FetchMyMenu(ctx); err != nil {
		return nil, err
	}
	if dash.Orders, err = s.Orders.FetchOrders(ctx, models.OrderFilter{Restaurant: restaurant.ID}); err != nil {
		return nil, err
	}
	if dash.Pending, err = s.Orders.FetchPendingOrders(ctx); err != nil {
		return nil, err
	}
	dash.Orders, dash.Pending = nonNil(dash.Orders), nonNil(dash.Pending)
	return dash, nil
}

// RiderDashboard is the rider's overview.
type RiderDashboard struct {
	Available  []models.Order `json:"available_orders"`
	Deliveries []models.Order `json:"my_deliveries"`
}

// LoadRiderDashboard fetches the claimable pool and the rider's deliveries.
func (s *Session) LoadRiderDashboard(ctx context.Context) (*RiderDashboard, error) {
	available, err := s.Orders.FetchPendingOrders(ctx)
	if err != nil {
		return nil, err
	}
	deliveries, err := s.Orders.FetchMyOrders(ctx)
	if err != nil {
		return nil, err
	}
	return &RiderDashboard{Available: nonNil(available), Deliveries: nonNil(deliveries)}, nil
}

func nonNil(orders []models.Order) []models.Order {
	if orders == nil {
		return []models.Order{}
	}
	return orders
}
