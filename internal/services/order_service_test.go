package services_test

import (
	"context"
	"sync"
	"testing"

	"foodfront/internal/models"
	"foodfront/internal/repositories"
	"foodfront/internal/services"
	"foodfront/pkg/rabbitmq"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []rabbitmq.OrderEvent
}

func (p *recordingPublisher) PublishOrderEvent(_ context.Context, ev rabbitmq.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type backendFixture struct {
	auth        *services.AuthService
	restaurants *services.RestaurantService
	orders      *services.OrderService
	events      *recordingPublisher

	customer, otherCustomer, owner, rider, otherRider services.Actor
	restaurant                                        *models.Restaurant
	menu                                              []*models.MenuItem
}

func newBackendFixture(t *testing.T) *backendFixture {
	t.Helper()
	db := newBackendDB(t)
	users := repositories.NewGORMUserRepository(db)
	restaurantRepo := repositories.NewGORMRestaurantRepository(db)
	f := &backendFixture{
		auth:        services.NewAuthService(users, testJWTSecret, nil),
		restaurants: services.NewRestaurantService(restaurantRepo),
		events:      &recordingPublisher{},
	}
	f.orders = services.NewOrderService(repositories.NewGORMOrderRepository(db), restaurantRepo, users, f.events, nil)

	ctx := context.Background()
	actor := func(email string, role models.Role) services.Actor {
		u, _, err := f.auth.Register(ctx, registerInput(email, role))
		require.NoError(t, err)
		return services.Actor{ID: u.ID, Role: u.Role}
	}
	f.customer = actor("customer@example.com", models.RoleCustomer)
	f.otherCustomer = actor("other@example.com", models.RoleCustomer)
	f.owner = actor("owner@example.com", models.RoleRestaurantOwner)
	f.rider = actor("rider@example.com", models.RoleRider)
	f.otherRider = actor("rider2@example.com", models.RoleRider)

	var err error
	f.restaurant, err = f.restaurants.CreateRestaurant(ctx, f.owner, models.RestaurantInput{
		Name: "Warung Pak Ali", Address: "1 Jalan Ampang", PhoneNumber: "0312345678", CuisineType: "Malay",
	})
	require.NoError(t, err)
	for _, in := range []struct {
		name  string
		price string
	}{{"Nasi Lemak", "12.50"}, {"Teh Tarik", "3.00"}} {
		price := decimal.RequireFromString(in.price)
		item, err := f.restaurants.CreateMenuItem(ctx, f.owner, models.MenuItemInput{Name: in.name, Price: &price, Category: "Main"})
		require.NoError(t, err)
		f.menu = append(f.menu, item)
	}
	return f
}

func (f *backendFixture) place(t *testing.T) *models.Order {
	t.Helper()
	order, err := f.orders.CreateOrder(context.Background(), f.customer, models.CreateOrderInput{
		Restaurant:      f.restaurant.ID,
		DeliveryAddress: "7 Jalan Bukit Bintang",
		Items: []models.OrderItemInput{
			{MenuItem: f.menu[0].ID, Quantity: 2},
			{MenuItem: f.menu[1].ID, Quantity: 1},
		},
	}, "")
	require.NoError(t, err)
	return order
}

func (f *backendFixture) advance(t *testing.T, actor services.Actor, id int64, status models.OrderStatus) *models.Order {
	t.Helper()
	order, err := f.orders.UpdateStatus(context.Background(), actor, id, models.StatusUpdate{Status: status})
	require.NoError(t, err)
	return order
}

func TestOrderService_CreateOrderPricesFromMenu(t *testing.T) {
	f := newBackendFixture(t)
	order := f.place(t)

	assert.Equal(t, models.StatusPending, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("28.00")), order.TotalAmount.String())
	assert.Equal(t, 3, order.ItemCount)
	assert.Equal(t, "Warung Pak Ali", order.RestaurantName)
	assert.Equal(t, "customer@example.com", order.CustomerEmail)
	assert.Equal(t, []string{rabbitmq.OrderCreated}, f.events.types())
}

func TestOrderService_CreateOrderRejections(t *testing.T) {
	f := newBackendFixture(t)
	ctx := context.Background()
	in := models.CreateOrderInput{
		Restaurant:      f.restaurant.ID,
		DeliveryAddress: "7 Jalan Bukit Bintang",
		Items:           []models.OrderItemInput{{MenuItem: f.menu[0].ID, Quantity: 1}},
	}

	_, err := f.orders.CreateOrder(ctx, f.owner, in, "")
	assert.ErrorIs(t, err, services.ErrForbidden)

	empty := in
	empty.Items = nil
	_, err = f.orders.CreateOrder(ctx, f.customer, empty, "")
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Order must contain at least one item.", verr.Fields["items"])

	unknown := in
	unknown.Items = []models.OrderItemInput{{MenuItem: 9999, Quantity: 1}}
	_, err = f.orders.CreateOrder(ctx, f.customer, unknown, "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Menu item with id 9999 does not exist.", verr.Fields["non_field_errors"])

	unavailable := false
	_, err = f.restaurants.UpdateMenuItem(ctx, f.owner, f.menu[1].ID, models.MenuItemInput{IsAvailable: &unavailable})
	require.NoError(t, err)
	soldOut := in
	soldOut.Items = []models.OrderItemInput{{MenuItem: f.menu[1].ID, Quantity: 1}}
	_, err = f.orders.CreateOrder(ctx, f.customer, soldOut, "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Menu item 'Teh Tarik' is not available.", verr.Fields["non_field_errors"])
}

func TestOrderService_IdempotencyKeyDeduplicates(t *testing.T) {
	f := newBackendFixture(t)
	ctx := context.Background()
	in := models.CreateOrderInput{
		Restaurant:      f.restaurant.ID,
		DeliveryAddress: "7 Jalan Bukit Bintang",
		Items:           []models.OrderItemInput{{MenuItem: f.menu[0].ID, Quantity: 1}},
	}

	first, err := f.orders.CreateOrder(ctx, f.customer, in, "key-1")
	require.NoError(t, err)
	again, err := f.orders.CreateOrder(ctx, f.customer, in, "key-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	other, err := f.orders.CreateOrder(ctx, f.customer, in, "key-2")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	mine, err := f.orders.MyOrders(ctx, f.customer)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestOrderService_FullLifecycle(t *testing.T) {
	f := newBackendFixture(t)
	ctx := context.Background()
	order := f.place(t)

	pending, err := f.orders.PendingOrders(ctx, f.owner)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	prepared := f.advance(t, f.owner, order.ID, models.StatusPreparing)
	assert.NotNil(t, prepared.PreparedAt)
	f.advance(t, f.owner, order.ID, models.StatusReadyForPickup)

	pool, err := f.orders.PendingOrders(ctx, f.rider)
	require.NoError(t, err)
	require.Len(t, pool, 1)

	claimed, err := f.orders.AssignRider(ctx, f.rider, order.ID)
	require.NoError(t, err)
	require.NotNil(t, claimed.Rider)
	assert.Equal(t, f.rider.ID, *claimed.Rider)
	require.NotNil(t, claimed.RiderName)

	out := f.advance(t, f.rider, order.ID, models.StatusOutForDelivery)
	assert.NotNil(t, out.PickedUpAt)
	done := f.advance(t, f.rider, order.ID, models.StatusDelivered)
	assert.NotNil(t, done.DeliveredAt)

	tracking, err := f.orders.TrackOrder(ctx, f.customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, tracking.Status)
	assert.Equal(t, "Warung Pak Ali", tracking.Restaurant.Name)
	require.NotNil(t, tracking.Rider)

	assert.Equal(t, []string{
		rabbitmq.OrderCreated,
		rabbitmq.OrderStatusChanged,
		rabbitmq.OrderStatusChanged,
		rabbitmq.OrderRiderAssigned,
		rabbitmq.OrderStatusChanged,
		rabbitmq.OrderStatusChanged,
	}, f.events.types())
}

func TestOrderService_InvalidTransitions(t *testing.T) {
	f := newBackendFixture(t)
	ctx := context.Background()
	order := f.place(t)
	f.advance(t, f.owner, order.ID, models.StatusPreparing)

	_, err := f.orders.UpdateStatus(ctx, f.owner, order.ID, models.StatusUpdate{Status: models.StatusPending})
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = f.orders.UpdateStatus(ctx, f.owner, order.ID, models.StatusUpdate{Status: models.StatusCancelled})
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Cancellation reason is required when cancelling an order.", verr.Fields["non_field_errors"])

	_, err = f.orders.UpdateStatus(ctx, f.owner, order.ID, models.StatusUpdate{Status: models.StatusCancelled, CancellationReason: "  \n "})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Cancellation reason is required when cancelling an order.", verr.Fields["non_field_errors"])

	_, err = f.orders.UpdateStatus(ctx, f.owner, order.ID, models.StatusUpdate{Status: "SHIPPED"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "status")

	// Customers may only cancel while the order is still PENDING.
	_, err = f.orders.UpdateStatus(ctx, f.customer, order.ID, models.StatusUpdate{Status: models.StatusCancelled, CancellationReason: "too slow"})
	assert.ErrorIs(t, err, services.ErrForbidden)

	f.advance(t, f.owner, order.ID, models.StatusReadyForPickup)
	_, err = f.orders.UpdateStatus(ctx, f.owner, order.ID, models.StatusUpdate{Status: models.StatusCancelled, CancellationReason: "closing"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Cannot transition from Ready for Pickup to Cancelled.", verr.Fields["non_field_errors"])
}

func TestOrderService_CustomerCancelsPendingOrder(t *testing.T) {
	f := newBackendFixture(t)
	order := f.place(t)

	cancelled, err := f.orders.UpdateStatus(context.Background(), f.customer, order.ID,
		models.StatusUpdate{Status: models.StatusCancelled, CancellationReason: "ordered twice"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, "ordered twice", cancelled.CancellationReason)
	assert.NotNil(t, cancelled.CancelledAt)
}

func TestOrderService_AssignRiderExactlyOnce(t *testing.T) {
	f := newBackendFixture(t)
	ctx := context.Background()
	order := f.place(t)
	f.advance(t, f.owner, order.ID, models.StatusPreparing)
	f.advance(t, f.owner, order.ID, models.StatusReadyForPickup)

	riders := []services.Actor{f.rider, f.otherRider}
	errs := make([]error, len(riders))
	var wg sync.WaitGroup
	for i, r := range riders {
		wg.Add(1)
		go func(i int, r services.Actor) {
			defer wg.Done()
			_, errs[i] = f.orders.AssignRider(ctx, r, order.ID)
		}(i, r)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, services.ErrAlreadyAssigned)
	}
	assert.Equal(t, 1, wins)

	pool, err := f.orders.PendingOrders(ctx, f.rider)
	require.NoError(t, err)
	assert.Empty(t, pool)
}

func TestOrderService_AssignRiderRules(t *testing.T) {
	f := newBackendFixture(t)
	ctx := context.Background()
	order := f.place(t)

	_, err := f.orders.AssignRider(ctx, f.owner, order.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = f.orders.AssignRider(ctx, f.rider, order.ID)
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Order is not ready for pickup.", verr.Fields["non_field_errors"])

	_, err = f.orders.AssignRider(ctx, f.rider, 9999)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestOrderService_Visibility(t *testing.T) {
	f := newBackendFixture(t)
	ctx := context.Background()
	order := f.place(t)

	_, err := f.orders.GetOrder(ctx, f.otherCustomer, order.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	_, err = f.orders.TrackOrder(ctx, f.otherCustomer, order.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)

	ownerView, err := f.orders.ListOrders(ctx, f.owner, models.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, ownerView, 1)

	riderView, err := f.orders.ListOrders(ctx, f.rider, models.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, riderView)

	filtered, err := f.orders.ListOrders(ctx, f.owner, models.OrderFilter{Status: models.StatusDelivered})
	require.NoError(t, err)
	assert.Empty(t, filtered)
}
