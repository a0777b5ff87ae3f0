package state

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"foodfront/internal/api"
	"foodfront/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Operation names used as keys in OrdersState.Requests.
const (
	OpCreateOrder        = "createOrder"
	OpFetchOrders        = "fetchOrders"
	OpFetchMyOrders      = "fetchMyOrders"
	OpFetchPendingOrders = "fetchPendingOrders"
	OpFetchOrder         = "fetchOrder"
	OpTrackOrder         = "trackOrder"
	OpUpdateOrderStatus  = "updateOrderStatus"
	OpAssignRider        = "assignRider"
)

// OrderBackend is the slice of the REST client the order manager needs.
type OrderBackend interface {
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	MyOrders(ctx context.Context) ([]models.Order, error)
	PendingOrders(ctx context.Context) ([]models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	TrackOrder(ctx context.Context, id int64) (*models.OrderTracking, error)
	CreateOrder(ctx context.Context, in models.CreateOrderInput, idempotencyKey string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, update models.StatusUpdate) (*models.Order, error)
	AssignRider(ctx context.Context, id int64) (*models.Order, error)
}

// OrdersState is the order view of one session. Error holds the message of
// the last rejected operation until cleared.
type OrdersState struct {
	List     []models.Order        `json:"orders"`
	Pending  []models.Order        `json:"pending_orders"`
	Current  *models.Order         `json:"current_order"`
	Tracking *models.OrderTracking `json:"tracking,omitempty"`
	Error    string                `json:"error,omitempty"`
	Requests Requests              `json:"requests"`
}

// Loading reports whether any order operation is pending.
func (s OrdersState) Loading() bool {
	for _, r := range s.Requests {
		if r.Loading() {
			return true
		}
	}
	return false
}

// OrderManager orchestrates order requests for one session. Backend calls run
// without holding the state lock.
type OrderManager struct {
	mu      sync.Mutex
	backend OrderBackend
	logger  *zap.Logger
	state   OrdersState
	newKey  func() string
}

// NewOrderManager returns an OrderManager with empty state.
func NewOrderManager(backend OrderBackend, logger *zap.Logger) *OrderManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderManager{
		backend: backend,
		logger:  logger,
		state:   OrdersState{List: []models.Order{}, Pending: []models.Order{}, Requests: Requests{}},
		newKey:  func() string { return uuid.NewString() },
	}
}

// State returns a copy of the current order state.
func (m *OrderManager) State() OrdersState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

func (m *OrderManager) snapshot() OrdersState {
	s := m.state
	s.List = append([]models.Order{}, m.state.List...)
	s.Pending = append([]models.Order{}, m.state.Pending...)
	if m.state.Current != nil {
		current := *m.state.Current
		s.Current = &current
	}
	s.Requests = m.state.Requests.clone()
	return s
}

func (m *OrderManager) begin(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.state.Requests.begin(op); err != nil {
		return err
	}
	m.state.Error = ""
	return nil
}

// end records the outcome of op and, on success, applies fn to the state.
func (m *OrderManager) end(op string, err error, fn func(s *OrdersState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Requests.finish(op, err)
	if err != nil {
		m.state.Error = ErrorMessage(err)
		m.logger.Info("order request rejected", zap.String("op", op), zap.Error(err))
		return
	}
	if fn != nil {
		fn(&m.state)
	}
}

// CreateOrder submits a new order. On success it becomes the current order
// and is prepended to the list.
func (m *OrderManager) CreateOrder(ctx context.Context, restaurantID int64, address string, items []models.OrderItemInput) (*models.Order, error) {
	if err := m.begin(OpCreateOrder); err != nil {
		return nil, err
	}
	in := models.CreateOrderInput{Restaurant: restaurantID, DeliveryAddress: address, Items: items}
	order, err := m.backend.CreateOrder(ctx, in, m.newKey())
	m.end(OpCreateOrder, err, func(s *OrdersState) {
		s.Current = order
		s.List = append([]models.Order{*order}, s.List...)
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

// FetchOrders replaces the list with the filtered backend listing.
func (m *OrderManager) FetchOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	if err := m.begin(OpFetchOrders); err != nil {
		return nil, err
	}
	orders, err := m.backend.ListOrders(ctx, filter)
	m.end(OpFetchOrders, err, func(s *OrdersState) { s.List = nonNil(orders) })
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	return orders, nil
}

// FetchMyOrders replaces the list with the caller's orders.
func (m *OrderManager) FetchMyOrders(ctx context.Context) ([]models.Order, error) {
	if err := m.begin(OpFetchMyOrders); err != nil {
		return nil, err
	}
	orders, err := m.backend.MyOrders(ctx)
	m.end(OpFetchMyOrders, err, func(s *OrdersState) { s.List = nonNil(orders) })
	if err != nil {
		return nil, fmt.Errorf("fetch my orders: %w", err)
	}
	return orders, nil
}

// FetchPendingOrders replaces the pending list. For riders these are ready,
// unassigned orders; for owners their restaurant's PENDING orders.
func (m *OrderManager) FetchPendingOrders(ctx context.Context) ([]models.Order, error) {
	if err := m.begin(OpFetchPendingOrders); err != nil {
		return nil, err
	}
	orders, err := m.backend.PendingOrders(ctx)
	m.end(OpFetchPendingOrders, err, func(s *OrdersState) { s.Pending = nonNil(orders) })
	if err != nil {
		return nil, fmt.Errorf("fetch pending orders: %w", err)
	}
	return orders, nil
}

// FetchOrder loads one order as the current order.
func (m *OrderManager) FetchOrder(ctx context.Context, id int64) (*models.Order, error) {
	if err := m.begin(OpFetchOrder); err != nil {
		return nil, err
	}
	order, err := m.backend.GetOrder(ctx, id)
	m.end(OpFetchOrder, err, func(s *OrdersState) {
		s.Current = order
		s.patch(*order)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch order %d: %w", id, err)
	}
	return order, nil
}

// TrackOrder loads the tracking summary of one order.
func (m *OrderManager) TrackOrder(ctx context.Context, id int64) (*models.OrderTracking, error) {
	if err := m.begin(OpTrackOrder); err != nil {
		return nil, err
	}
	tracking, err := m.backend.TrackOrder(ctx, id)
	m.end(OpTrackOrder, err, func(s *OrdersState) { s.Tracking = tracking })
	if err != nil {
		return nil, fmt.Errorf("track order %d: %w", id, err)
	}
	return tracking, nil
}

// UpdateOrderStatus requests a status transition. When the order is known
// locally the edge is checked first and an invalid one is rejected without a
// request. A cancellation without reason is always rejected locally.
func (m *OrderManager) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus, reason string) (*models.Order, error) {
	if err := m.precheck(id, status, reason); err != nil {
		m.mu.Lock()
		m.state.Requests.finish(OpUpdateOrderStatus, err)
		m.state.Error = err.Error()
		m.mu.Unlock()
		return nil, err
	}
	if err := m.begin(OpUpdateOrderStatus); err != nil {
		return nil, err
	}
	update := models.StatusUpdate{Status: status, CancellationReason: reason}
	order, err := m.backend.UpdateOrderStatus(ctx, id, update)
	m.end(OpUpdateOrderStatus, err, func(s *OrdersState) { s.patch(*order) })
	if err != nil {
		return nil, fmt.Errorf("update order %d status: %w", id, err)
	}
	return order, nil
}

func (m *OrderManager) precheck(id int64, to models.OrderStatus, reason string) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", models.ErrInvalidTransition, to)
	}
	m.mu.Lock()
	known, ok := m.state.Find(id)
	m.mu.Unlock()
	if ok {
		return models.CheckTransition(known.Status, to, reason)
	}
	if to == models.StatusCancelled && strings.TrimSpace(reason) == "" {
		return models.ErrReasonRequired
	}
	return nil
}

// AssignRiderToOrder claims an order for the calling rider. The backend
// decides claim races: on rejection the pending list is re-fetched and the
// rejection returned. The claim is never retried.
func (m *OrderManager) AssignRiderToOrder(ctx context.Context, id int64) (*models.Order, error) {
	if err := m.begin(OpAssignRider); err != nil {
		return nil, err
	}
	order, err := m.backend.AssignRider(ctx, id)
	m.end(OpAssignRider, err, func(s *OrdersState) {
		s.Pending = removeOrder(s.Pending, order.ID)
		if !patchOrder(s.List, *order) {
			s.List = append([]models.Order{*order}, s.List...)
		}
		if s.Current != nil && s.Current.ID == order.ID {
			s.Current = order
		}
	})
	if err != nil {
		if api.IsBusinessRejection(err) || api.IsKind(err, api.KindForbidden) || api.IsKind(err, api.KindNotFound) {
			if _, refreshErr := m.FetchPendingOrders(ctx); refreshErr != nil {
				m.logger.Warn("failed to refresh pending orders after rejected claim",
					zap.Int64("order_id", id), zap.Error(refreshErr))
			}
		}
		return nil, fmt.Errorf("assign rider to order %d: %w", id, err)
	}
	return order, nil
}

// ClearError drops the last error message and resets rejected requests to idle.
func (m *OrderManager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Error = ""
	for op, r := range m.state.Requests {
		if r.Status == RequestRejected {
			m.state.Requests[op] = Request{Status: RequestIdle}
		}
	}
}

// Reset drops all order state, as on logout.
func (m *OrderManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = OrdersState{List: []models.Order{}, Pending: []models.Order{}, Requests: Requests{}}
}

// ClearCurrentOrder forgets the current order.
func (m *OrderManager) ClearCurrentOrder() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Current = nil
	m.state.Tracking = nil
}

// Find returns the local copy of order id from the current order, the list
// or the pending list.
func (s OrdersState) Find(id int64) (models.Order, bool) {
	if s.Current != nil && s.Current.ID == id {
		return *s.Current, true
	}
	for _, list := range [][]models.Order{s.List, s.Pending} {
		for _, o := range list {
			if o.ID == id {
				return o, true
			}
		}
	}
	return models.Order{}, false
}

// patch replaces every local copy of order.
func (s *OrdersState) patch(order models.Order) {
	patchOrder(s.List, order)
	if patchOrder(s.Pending, order) && order.Status != models.StatusPending && order.Status != models.StatusReadyForPickup {
		s.Pending = removeOrder(s.Pending, order.ID)
	}
	if s.Current != nil && s.Current.ID == order.ID {
		current := order
		s.Current = &current
	}
}

func patchOrder(list []models.Order, order models.Order) bool {
	for i := range list {
		if list[i].ID == order.ID {
			list[i] = order
			return true
		}
	}
	return false
}

func removeOrder(list []models.Order, id int64) []models.Order {
	out := make([]models.Order, 0, len(list))
	for _, o := range list {
		if o.ID != id {
			out = append(out, o)
		}
	}
	return out
}

func nonNil(orders []models.Order) []models.Order {
	if orders == nil {
		return []models.Order{}
	}
	return orders
}
