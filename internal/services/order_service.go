package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"foodfront/internal/models"
	"foodfront/internal/repositories"
	"foodfront/pkg/rabbitmq"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderEventPublisher publishes order lifecycle events.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, ev rabbitmq.OrderEvent) error
}

const noPermission = "You do not have permission to perform this action."

// OrderService handles order business logic for the reference backend.
type OrderService struct {
	orderRepo      repositories.OrderRepository
	restaurantRepo repositories.RestaurantRepository
	userRepo       repositories.UserRepository
	events         OrderEventPublisher
	validate       *validator.Validate
	logger         *zap.Logger

	// submitted maps customer and Idempotency-Key to the created order.
	mu        sync.Mutex
	submitted map[string]int64
}

// NewOrderService creates a new OrderService. events may be nil.
func NewOrderService(orderRepo repositories.OrderRepository, restaurantRepo repositories.RestaurantRepository, userRepo repositories.UserRepository, events OrderEventPublisher, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orderRepo:      orderRepo,
		restaurantRepo: restaurantRepo,
		userRepo:       userRepo,
		events:         events,
		validate:       NewValidator(),
		logger:         logger,
		submitted:      make(map[string]int64),
	}
}

// CreateOrder creates a PENDING order for a customer, pricing every line
// from the current menu. A repeated idempotency key returns the order the
// first submission created.
func (s *OrderService) CreateOrder(ctx context.Context, actor Actor, in models.CreateOrderInput, idempotencyKey string) (*models.Order, error) {
	if actor.Role != models.RoleCustomer {
		return nil, denied("Only customers can create orders.")
	}
	if len(in.Items) == 0 {
		return nil, fieldError("items", "Order must contain at least one item.")
	}
	if err := ValidateStruct(s.validate, in); err != nil {
		return nil, err
	}

	dedupKey := ""
	if idempotencyKey != "" {
		dedupKey = fmt.Sprintf("%d:%s", actor.ID, idempotencyKey)
		s.mu.Lock()
		id, seen := s.submitted[dedupKey]
		s.mu.Unlock()
		if seen {
			return s.GetOrder(ctx, actor, id)
		}
	}

	restaurant, err := s.restaurantRepo.GetByID(ctx, in.Restaurant)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fieldError("restaurant", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", in.Restaurant))
		}
		return nil, err
	}

	ids := make([]int64, 0, len(in.Items))
	for _, it := range in.Items {
		ids = append(ids, it.MenuItem)
	}
	menu, err := s.restaurantRepo.GetMenuItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load menu items: %w", err)
	}

	order := &models.Order{
		Customer:        actor.ID,
		Restaurant:      restaurant.ID,
		Status:          models.StatusPending,
		DeliveryAddress: in.DeliveryAddress,
		TotalAmount:     decimal.Zero,
	}
	for _, it := range in.Items {
		mi, ok := menu[it.MenuItem]
		if !ok {
			return nil, fieldError("non_field_errors", fmt.Sprintf("Menu item with id %d does not exist.", it.MenuItem))
		}
		if mi.Restaurant != restaurant.ID {
			return nil, fieldError("non_field_errors", fmt.Sprintf("Menu item '%s' does not belong to this restaurant.", mi.Name))
		}
		if !mi.IsAvailable {
			return nil, fieldError("non_field_errors", fmt.Sprintf("Menu item '%s' is not available.", mi.Name))
		}
		subtotal := mi.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		order.Items = append(order.Items, models.OrderLineItem{
			MenuItem:     mi.ID,
			MenuItemName: mi.Name,
			Quantity:     it.Quantity,
			PriceAtOrder: mi.Price,
			Subtotal:     subtotal,
		})
		order.TotalAmount = order.TotalAmount.Add(subtotal)
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}
	if dedupKey != "" {
		s.mu.Lock()
		s.submitted[dedupKey] = order.ID
		s.mu.Unlock()
	}

	s.logger.Info("order created",
		zap.Int64("order_id", order.ID), zap.Int64("customer", actor.ID), zap.String("total", order.TotalAmount.StringFixed(2)))
	s.publish(ctx, rabbitmq.OrderCreated, order, "")
	return s.decorate(ctx, order), nil
}

// ListOrders returns the orders visible to actor, optionally filtered.
func (s *OrderService) ListOrders(ctx context.Context, actor Actor, filter models.OrderFilter) ([]models.Order, error) {
	q := repositories.OrderQuery{Restaurant: filter.Restaurant, Status: filter.Status}
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleCustomer:
		q.Customer = actor.ID
	case models.RoleRider:
		q.Rider = actor.ID
	case models.RoleRestaurantOwner:
		r, err := s.restaurantRepo.GetByOwner(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return []models.Order{}, nil
			}
			return nil, err
		}
		if filter.Restaurant != 0 && filter.Restaurant != r.ID {
			return []models.Order{}, nil
		}
		q.Restaurant = r.ID
	default:
		return []models.Order{}, nil
	}
	return s.list(ctx, q)
}

// MyOrders returns the orders actor placed as a customer.
func (s *OrderService) MyOrders(ctx context.Context, actor Actor) ([]models.Order, error) {
	return s.list(ctx, repositories.OrderQuery{Customer: actor.ID})
}

// PendingOrders returns the work queue of actor: an owner's PENDING orders or,
// for riders, every READY_FOR_PICKUP order no rider has claimed.
func (s *OrderService) PendingOrders(ctx context.Context, actor Actor) ([]models.Order, error) {
	switch actor.Role {
	case models.RoleRestaurantOwner:
		r, err := s.restaurantRepo.GetByOwner(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return []models.Order{}, nil
			}
			return nil, err
		}
		return s.list(ctx, repositories.OrderQuery{Restaurant: r.ID, Status: models.StatusPending})
	case models.RoleRider:
		return s.list(ctx, repositories.OrderQuery{Status: models.StatusReadyForPickup, Unassigned: true})
	}
	return []models.Order{}, nil
}

// GetOrder returns an order visible to actor.
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, id int64) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.involved(ctx, actor, order)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("Not found.")
	}
	return s.decorate(ctx, order), nil
}

// TrackOrder returns the tracking summary of an order actor is involved in.
func (s *OrderService) TrackOrder(ctx context.Context, actor Actor, id int64) (*models.OrderTracking, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.involved(ctx, actor, order)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, denied("You do not have permission to track this order.")
	}

	t := &models.OrderTracking{
		OrderID:         order.ID,
		Status:          order.Status,
		CreatedAt:       order.CreatedAt,
		PreparedAt:      order.PreparedAt,
		PickedUpAt:      order.PickedUpAt,
		DeliveredAt:     order.DeliveredAt,
		CancelledAt:     order.CancelledAt,
		DeliveryAddress: order.DeliveryAddress,
	}
	if r, err := s.restaurantRepo.GetByID(ctx, order.Restaurant); err == nil {
		t.Restaurant = models.TrackingPlace{Name: r.Name, Address: r.Address}
	}
	if order.Rider != nil {
		if rider, err := s.userRepo.GetByID(ctx, *order.Rider); err == nil {
			t.Rider = &models.TrackingRider{Name: rider.Name(), Phone: rider.PhoneNumber}
		}
	}
	return t, nil
}

// UpdateStatus moves an order one step along the status graph. The write is
// guarded by the status the decision was made on, so a concurrent transition
// is reported against the status that won.
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, id int64, update models.StatusUpdate) (*models.Order, error) {
	if !update.Status.Valid() {
		return nil, fieldError("status", fmt.Sprintf("\"%s\" is not a valid choice.", update.Status))
	}
	order, err := s.GetOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	allowed, err := s.mayIssue(ctx, actor, order, update.Status)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, denied(noPermission)
	}
	if err := transitionError(order.Status, update); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	changes := map[string]any{"status": update.Status}
	switch update.Status {
	case models.StatusPreparing:
		changes["prepared_at"] = now
	case models.StatusOutForDelivery:
		changes["picked_up_at"] = now
	case models.StatusDelivered:
		changes["delivered_at"] = now
	case models.StatusCancelled:
		changes["cancelled_at"] = now
		changes["cancellation_reason"] = strings.TrimSpace(update.CancellationReason)
	}

	won, err := s.orderRepo.UpdateStatus(ctx, id, order.Status, changes)
	if err != nil {
		return nil, err
	}
	if !won {
		fresh, err := s.orderRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := transitionError(fresh.Status, update); err != nil {
			return nil, err
		}
		return nil, fieldError("non_field_errors", "Order was updated concurrently. Please retry.")
	}

	updated, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order status changed",
		zap.Int64("order_id", id), zap.String("from", string(order.Status)), zap.String("to", string(update.Status)))
	s.publish(ctx, rabbitmq.OrderStatusChanged, updated, order.Status)
	return s.decorate(ctx, updated), nil
}

// AssignRider claims a ready, unassigned order for the calling rider. Exactly
// one of several concurrent claims succeeds; the others get ErrAlreadyAssigned.
func (s *OrderService) AssignRider(ctx context.Context, actor Actor, id int64) (*models.Order, error) {
	if actor.Role != models.RoleRider {
		return nil, denied("Only riders can claim orders.")
	}
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Rider != nil {
		return nil, ErrAlreadyAssigned
	}
	if order.Status != models.StatusReadyForPickup {
		return nil, fieldError("non_field_errors", "Order is not ready for pickup.")
	}

	won, err := s.orderRepo.AssignRider(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrAlreadyAssigned
	}

	claimed, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order claimed", zap.Int64("order_id", id), zap.Int64("rider", actor.ID))
	s.publish(ctx, rabbitmq.OrderRiderAssigned, claimed, "")
	return s.decorate(ctx, claimed), nil
}

func transitionError(from models.OrderStatus, update models.StatusUpdate) error {
	err := models.CheckTransition(from, update.Status, update.CancellationReason)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrReasonRequired):
		return fieldError("non_field_errors", "Cancellation reason is required when cancelling an order.")
	default:
		return fieldError("non_field_errors", fmt.Sprintf("Cannot transition from %s to %s.", from.Display(), update.Status.Display()))
	}
}

// involved reports whether actor is a party to order.
func (s *OrderService) involved(ctx context.Context, actor Actor, order *models.Order) (bool, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return true, nil
	case models.RoleCustomer:
		return order.Customer == actor.ID, nil
	case models.RoleRider:
		return order.Rider != nil && *order.Rider == actor.ID, nil
	case models.RoleRestaurantOwner:
		return s.ownsRestaurant(ctx, actor, order.Restaurant)
	}
	return false, nil
}

// mayIssue combines the role's permitted targets with its relation to order.
func (s *OrderService) mayIssue(ctx context.Context, actor Actor, order *models.Order, to models.OrderStatus) (bool, error) {
	if !models.CanIssue(actor.Role, order.Status, to) {
		return false, nil
	}
	return s.involved(ctx, actor, order)
}

func (s *OrderService) ownsRestaurant(ctx context.Context, actor Actor, restaurantID int64) (bool, error) {
	r, err := s.restaurantRepo.GetByID(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return r.Owner == actor.ID, nil
}

func (s *OrderService) list(ctx context.Context, q repositories.OrderQuery) ([]models.Order, error) {
	orders, err := s.orderRepo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]models.Order, 0, len(orders))
	for i := range orders {
		out = append(out, *s.decorate(ctx, &orders[i]))
	}
	return out, nil
}

// decorate fills the display fields of order. Lookup failures leave them blank.
func (s *OrderService) decorate(ctx context.Context, order *models.Order) *models.Order {
	if customer, err := s.userRepo.GetByID(ctx, order.Customer); err == nil {
		order.CustomerName = customer.Name()
		order.CustomerEmail = customer.Email
	}
	if r, err := s.restaurantRepo.GetByID(ctx, order.Restaurant); err == nil {
		order.RestaurantName = r.Name
	}
	order.RiderName = nil
	if order.Rider != nil {
		if rider, err := s.userRepo.GetByID(ctx, *order.Rider); err == nil {
			name := rider.Name()
			order.RiderName = &name
		}
	}
	order.ItemCount = 0
	for _, it := range order.Items {
		order.ItemCount += it.Quantity
	}
	if order.Items == nil {
		order.Items = []models.OrderLineItem{}
	}
	return order
}

func (s *OrderService) publish(ctx context.Context, eventType string, order *models.Order, previous models.OrderStatus) {
	if s.events == nil {
		return
	}
	ev := rabbitmq.OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		Restaurant: order.Restaurant,
		Customer:   order.Customer,
		Rider:      order.Rider,
		Status:     string(order.Status),
		Previous:   string(previous),
	}
	if err := s.events.PublishOrderEvent(ctx, ev); err != nil {
		s.logger.Warn("failed to publish order event",
			zap.String("type", eventType), zap.Int64("order_id", order.ID), zap.Error(err))
	}
}
