package state_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"foodfront/internal/api"
	"foodfront/internal/models"
	"foodfront/internal/state"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func rejection(status int, kind api.Kind, payload string) error {
	return &api.Error{StatusCode: status, Kind: kind, Payload: json.RawMessage(payload)}
}

func TestOrderManager_CreateOrderPrepends(t *testing.T) {
	ctx := context.Background()
	backend := new(mockOrderBackend)
	m := state.NewOrderManager(backend, nil)

	backend.On("MyOrders", ctx).Return([]models.Order{{ID: 1, Status: models.StatusDelivered}}, nil).Once()
	_, err := m.FetchMyOrders(ctx)
	require.NoError(t, err)

	items := []models.OrderItemInput{{MenuItem: 1, Quantity: 2}, {MenuItem: 2, Quantity: 1}}
	created := &models.Order{ID: 2, Restaurant: 5, Status: models.StatusPending, TotalAmount: decimal.NewFromInt(250)}
	backend.On("CreateOrder", ctx, models.CreateOrderInput{Restaurant: 5, DeliveryAddress: "Jl. Sudirman 1", Items: items}, mock.AnythingOfType("string")).
		Return(created, nil).Once()

	order, err := m.CreateOrder(ctx, 5, "Jl. Sudirman 1", items)
	require.NoError(t, err)
	assert.Equal(t, int64(2), order.ID)

	s := m.State()
	require.Len(t, s.List, 2)
	assert.Equal(t, int64(2), s.List[0].ID)
	assert.Equal(t, models.StatusPending, s.List[0].Status)
	assert.Equal(t, int64(2), s.Current.ID)
	assert.Equal(t, state.RequestFulfilled, s.Requests.Get(state.OpCreateOrder).Status)
	backend.AssertExpectations(t)
}

func TestOrderManager_CreateOrderSendsFreshIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	backend := new(mockOrderBackend)
	m := state.NewOrderManager(backend, nil)

	var keys []string
	backend.On("CreateOrder", ctx, mock.Anything, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { keys = append(keys, args.String(2)) }).
		Return(&models.Order{ID: 1, Status: models.StatusPending}, nil).Twice()

	items := []models.OrderItemInput{{MenuItem: 1, Quantity: 1}}
	_, err := m.CreateOrder(ctx, 1, "addr", items)
	require.NoError(t, err)
	_, err = m.CreateOrder(ctx, 1, "addr", items)
	require.NoError(t, err)

	require.Len(t, keys, 2)
	assert.NotEmpty(t, keys[0])
	assert.NotEqual(t, keys[0], keys[1])
}

func TestOrderManager_CreateOrderFailureCapturesPayload(t *testing.T) {
	ctx := context.Background()
	backend := new(mockOrderBackend)
	m := state.NewOrderManager(backend, nil)

	backend.On("CreateOrder", ctx, mock.Anything, mock.Anything).
		Return(nil, rejection(400, api.KindValidation, `{"items":["Item Nasi Lemak is not available"]}`)).Once()

	_, err := m.CreateOrder(ctx, 1, "addr", []models.OrderItemInput{{MenuItem: 1, Quantity: 1}})
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindValidation))

	s := m.State()
	assert.Empty(t, s.List)
	assert.Nil(t, s.Current)
	assert.Equal(t, "items: Item Nasi Lemak is not available", s.Error)
	assert.Equal(t, state.RequestRejected, s.Requests.Get(state.OpCreateOrder).Status)

	m.ClearError()
	s = m.State()
	assert.Empty(t, s.Error)
	assert.Equal(t, state.RequestIdle, s.Requests.Get(state.OpCreateOrder).Status)
}

func TestOrderManager_SingleInFlightCreate(t *testing.T) {
	ctx := context.Background()
	backend := new(mockOrderBackend)
	m := state.NewOrderManager(backend, nil)

	release := make(chan struct{})
	started := make(chan struct{})
	backend.On("CreateOrder", ctx, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&models.Order{ID: 1, Status: models.StatusPending}, nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := m.CreateOrder(ctx, 1, "addr", []models.OrderItemInput{{MenuItem: 1, Quantity: 1}})
		done <- err
	}()
	<-started

	assert.True(t, m.State().Loading())
	_, err := m.CreateOrder(ctx, 1, "addr", []models.OrderItemInput{{MenuItem: 1, Quantity: 1}})
	assert.ErrorIs(t, err, state.ErrRequestInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Len(t, m.State().List, 1)
	backend.AssertNumberOfCalls(t, "CreateOrder", 1)
}

func TestOrderManager_UpdateStatusPatchesLocalCopies(t *testing.T) {
	ctx := context.Background()
	backend := new(mockOrderBackend)
	m := state.NewOrderManager(backend, nil)

	backend.On("MyOrders", ctx).Return([]models.Order{
		{ID: 10, Status: models.StatusPending},
		{ID: 11, Status: models.StatusPending},
	}, nil).Once()
	backend.On("GetOrder", ctx, int64(10)).Return(&models.Order{ID: 10, Status: models.StatusPending}, nil).Once()
	_, err := m.FetchMyOrders(ctx)
	require.NoError(t, err)
	_, err = m.FetchOrder(ctx, 10)
	require.NoError(t, err)

	update := models.StatusUpdate{Status: models.StatusPreparing}
	backend.On("UpdateOrderStatus", ctx, int64(10), update).
		Return(&models.Order{ID: 10, Status: models.StatusPreparing}, nil).Once()

	_, err = m.UpdateOrderStatus(ctx, 10, models.StatusPreparing, "")
	require.NoError(t, err)

	s := m.State()
	assert.Equal(t, models.StatusPreparing, s.List[0].Status)
	assert.Equal(t, models.StatusPending, s.List[1].Status)
	assert.Equal(t, models.StatusPreparing, s.Current.Status)
}

func TestOrderManager_FetchOrderRefreshesStaleCopies(t *testing.T) {
	ctx := context.Background()
	backend := new(mockOrderBackend)
	m := state.NewOrderManager(backend, nil)

	backend.On("PendingOrders", ctx).Return([]models.Order{{ID: 10, Status: models.StatusPending}}, nil).Once()
	_, err := m.FetchPendingOrders(ctx)
	require.NoError(t, err)

	_, err = m.UpdateOrderStatus(ctx, 10, models.StatusReadyForPickup, "")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	backend.On("GetOrder", ctx, int64(10)).Return(&models.Order{ID: 10, Status: models.StatusPreparing}, nil).Once()
	_, err = m.FetchOrder(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, m.State().Pending)

	update := models.StatusUpdate{Status: models.StatusReadyForPickup}
	backend.On("UpdateOrderStatus", ctx, int64(10), update).
		Return(&models.Order{ID: 10, Status: models.StatusReadyForPickup}, nil).Once()
	order, err := m.UpdateOrderStatus(ctx, 10, models.StatusReadyForPickup, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReadyForPickup, order.Status)
	backend.AssertExpectations(t)
}

func TestOrderManager_UpdateStatusRejectsInvalidEdgeLocally(t *testing.T) {
	ctx := context.Background()
	backend := new(mockOrderBackend)
	m := state.NewOrderManager(backend, nil)

	backend.On("MyOrders", ctx).Return([]models.Order{{ID: 10, Status: models.StatusPreparing}}, nil).Once()
	_, err := m.FetchMyOrders(ctx)
	require.NoError(t, err)

	_, err = m.UpdateOrderStatus(ctx, 10, models.StatusOutForDelivery, "")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = m.UpdateOrderStatus(ctx, 10, models.StatusCancelled, "")
	assert.ErrorIs(t, err, models.ErrReasonRequired)

	_, err = m.UpdateOrderStatus(ctx, 99, models.StatusCancelled, "")
	assert.ErrorIs(t, err, models.ErrReasonRequired)

	_, err = m.UpdateOrderStatus(ctx, 10, models.StatusCancelled, "   ")
	assert.ErrorIs(t, err, models.ErrReasonRequired)

	_, err = m.UpdateOrderStatus(ctx, 99, models.StatusCancelled, " \t ")
	assert.ErrorIs(t, err, models.ErrReasonRequired)

	s := m.State()
	assert.Equal(t, models.StatusPreparing, s.List[0].Status)
	assert.NotEmpty(t, s.Error)
	backend.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderManager_UpdateStatusSurfacesBackendRejection(t *testing.T) {
	ctx := context.Background()
	backend := new(mockOrderBackend)
	m := state.NewOrderManager(backend, nil)

	update := models.StatusUpdate{Status: models.StatusCancelled, CancellationReason: "too late"}
	backend.On("UpdateOrderStatus", ctx, int64(3), update).
		Return(nil, rejection(400, api.KindValidation, `{"error":"Cannot transition from DELIVERED to CANCELLED"}`)).Once()

	_, err := m.UpdateOrderStatus(ctx, 3, models.StatusCancelled, "too late")
	require.Error(t, err)
	assert.Equal(t, "Cannot transition from DELIVERED to CANCELLED", m.State().Error)
}

func TestOrderManager_FetchPendingAndOrders(t *testing.T) {
	ctx := context.Background()
	backend := new(mockOrderBackend)
	m := state.NewOrderManager(backend, nil)

	backend.On("PendingOrders", ctx).Return([]models.Order{{ID: 4, Status: models.StatusReadyForPickup}}, nil).Once()
	filter := models.OrderFilter{Restaurant: 2, Status: models.StatusPending}
	backend.On("ListOrders", ctx, filter).Return(nil, nil).Once()
	backend.On("TrackOrder", ctx, int64(4)).Return(&models.OrderTracking{OrderID: 4, Status: models.StatusReadyForPickup}, nil).Once()

	_, err := m.FetchPendingOrders(ctx)
	require.NoError(t, err)
	_, err = m.FetchOrders(ctx, filter)
	require.NoError(t, err)
	tracking, err := m.TrackOrder(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), tracking.OrderID)

	s := m.State()
	assert.Len(t, s.Pending, 1)
	assert.NotNil(t, s.List)
	assert.Empty(t, s.List)
	assert.Equal(t, int64(4), s.Tracking.OrderID)

	m.ClearCurrentOrder()
	assert.Nil(t, m.State().Tracking)
}

func TestOrderManager_AssignRiderSuccess(t *testing.T) {
	ctx := context.Background()
	backend := new(mockOrderBackend)
	m := state.NewOrderManager(backend, nil)

	backend.On("PendingOrders", ctx).Return([]models.Order{{ID: 42, Status: models.StatusReadyForPickup}}, nil).Once()
	_, err := m.FetchPendingOrders(ctx)
	require.NoError(t, err)

	riderID := int64(8)
	backend.On("AssignRider", ctx, int64(42)).
		Return(&models.Order{ID: 42, Status: models.StatusReadyForPickup, Rider: &riderID}, nil).Once()

	order, err := m.AssignRiderToOrder(ctx, 42)
	require.NoError(t, err)
	assert.False(t, order.Unassigned())

	s := m.State()
	assert.Empty(t, s.Pending)
	require.Len(t, s.List, 1)
	assert.Equal(t, int64(42), s.List[0].ID)
}

func TestOrderManager_AssignRiderRejectionRefetchesPending(t *testing.T) {
	ctx := context.Background()
	backend := new(mockOrderBackend)
	m := state.NewOrderManager(backend, nil)

	backend.On("AssignRider", ctx, int64(42)).
		Return(nil, rejection(409, api.KindConflict, `{"error":"Order already assigned to another rider."}`)).Once()
	backend.On("PendingOrders", ctx).Return([]models.Order{}, nil).Once()

	_, err := m.AssignRiderToOrder(ctx, 42)
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindConflict))
	assert.Equal(t, state.RequestRejected, m.State().Requests.Get(state.OpAssignRider).Status)

	backend.AssertNumberOfCalls(t, "AssignRider", 1)
	backend.AssertNumberOfCalls(t, "PendingOrders", 1)
}

func TestOrderManager_TransportFailureDoesNotRefetch(t *testing.T) {
	ctx := context.Background()
	backend := new(mockOrderBackend)
	m := state.NewOrderManager(backend, nil)

	backend.On("AssignRider", ctx, int64(42)).Return(nil, &api.Error{Kind: api.KindTransport}).Once()

	_, err := m.AssignRiderToOrder(ctx, 42)
	require.Error(t, err)
	assert.Equal(t, "Network error. Please try again.", m.State().Error)
	backend.AssertNotCalled(t, "PendingOrders", mock.Anything)
}

func TestOrderManager_StateIsACopy(t *testing.T) {
	ctx := context.Background()
	backend := new(mockOrderBackend)
	m := state.NewOrderManager(backend, nil)
	backend.On("MyOrders", ctx).Return([]models.Order{{ID: 1, Status: models.StatusPending}}, nil).Once()
	_, err := m.FetchMyOrders(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := m.State()
			s.List[0].Status = models.StatusCancelled
		}()
	}
	wg.Wait()
	assert.Equal(t, models.StatusPending, m.State().List[0].Status)
}
