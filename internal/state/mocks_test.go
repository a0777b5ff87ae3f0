package state_test

import (
	"context"

	"foodfront/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockOrderBackend struct {
	mock.Mock
}

func (m *mockOrderBackend) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	args := m.Called(ctx, filter)
	orders, _ := args.Get(0).([]models.Order)
	return orders, args.Error(1)
}

func (m *mockOrderBackend) MyOrders(ctx context.Context) ([]models.Order, error) {
	args := m.Called(ctx)
	orders, _ := args.Get(0).([]models.Order)
	return orders, args.Error(1)
}

func (m *mockOrderBackend) PendingOrders(ctx context.Context) ([]models.Order, error) {
	args := m.Called(ctx)
	orders, _ := args.Get(0).([]models.Order)
	return orders, args.Error(1)
}

func (m *mockOrderBackend) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	args := m.Called(ctx, id)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *mockOrderBackend) TrackOrder(ctx context.Context, id int64) (*models.OrderTracking, error) {
	args := m.Called(ctx, id)
	tracking, _ := args.Get(0).(*models.OrderTracking)
	return tracking, args.Error(1)
}

func (m *mockOrderBackend) CreateOrder(ctx context.Context, in models.CreateOrderInput, key string) (*models.Order, error) {
	args := m.Called(ctx, in, key)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *mockOrderBackend) UpdateOrderStatus(ctx context.Context, id int64, update models.StatusUpdate) (*models.Order, error) {
	args := m.Called(ctx, id, update)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *mockOrderBackend) AssignRider(ctx context.Context, id int64) (*models.Order, error) {
	args := m.Called(ctx, id)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

type mockRestaurantBackend struct {
	mock.Mock
}

func (m *mockRestaurantBackend) ListRestaurants(ctx context.Context, filter models.RestaurantFilter) ([]models.Restaurant, error) {
	args := m.Called(ctx, filter)
	list, _ := args.Get(0).([]models.Restaurant)
	return list, args.Error(1)
}

func (m *mockRestaurantBackend) GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*models.Restaurant)
	return r, args.Error(1)
}

func (m *mockRestaurantBackend) RestaurantMenu(ctx context.Context, id int64) ([]models.MenuItem, error) {
	args := m.Called(ctx, id)
	items, _ := args.Get(0).([]models.MenuItem)
	return items, args.Error(1)
}

func (m *mockRestaurantBackend) MyRestaurant(ctx context.Context) (*models.Restaurant, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).(*models.Restaurant)
	return r, args.Error(1)
}

func (m *mockRestaurantBackend) CreateRestaurant(ctx context.Context, in models.RestaurantInput) (*models.Restaurant, error) {
	args := m.Called(ctx, in)
	r, _ := args.Get(0).(*models.Restaurant)
	return r, args.Error(1)
}

func (m *mockRestaurantBackend) UpdateRestaurant(ctx context.Context, id int64, in models.RestaurantInput) (*models.Restaurant, error) {
	args := m.Called(ctx, id, in)
	r, _ := args.Get(0).(*models.Restaurant)
	return r, args.Error(1)
}

func (m *mockRestaurantBackend) MyMenu(ctx context.Context) ([]models.MenuItem, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]models.MenuItem)
	return items, args.Error(1)
}

func (m *mockRestaurantBackend) CreateMenuItem(ctx context.Context, in models.MenuItemInput) (*models.MenuItem, error) {
	args := m.Called(ctx, in)
	item, _ := args.Get(0).(*models.MenuItem)
	return item, args.Error(1)
}

func (m *mockRestaurantBackend) UpdateMenuItem(ctx context.Context, id int64, in models.MenuItemInput) (*models.MenuItem, error) {
	args := m.Called(ctx, id, in)
	item, _ := args.Get(0).(*models.MenuItem)
	return item, args.Error(1)
}

func (m *mockRestaurantBackend) DeleteMenuItem(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
