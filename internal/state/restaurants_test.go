package state_test

import (
	"context"
	"testing"

	"foodfront/internal/api"
	"foodfront/internal/models"
	"foodfront/internal/state"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestaurantManager_MyRestaurantNotFoundIsNotAnError(t *testing.T) {
	ctx := context.Background()
	backend := new(mockRestaurantBackend)
	m := state.NewRestaurantManager(backend, nil)

	backend.On("MyRestaurant", ctx).Return(nil, rejection(404, api.KindNotFound, `{"detail":"Not found."}`)).Once()
	backend.On("MyMenu", ctx).Return(nil, rejection(404, api.KindNotFound, `{"detail":"Not found."}`)).Once()

	r, err := m.FetchMyRestaurant(ctx)
	require.NoError(t, err)
	assert.Nil(t, r)

	menu, err := m.FetchMyMenu(ctx)
	require.NoError(t, err)
	assert.Empty(t, menu)

	s := m.State()
	assert.Empty(t, s.Error)
	assert.Equal(t, state.RequestFulfilled, s.Requests.Get(state.OpFetchMyRestaurant).Status)
	assert.NotNil(t, s.MyMenu)
}

func TestRestaurantManager_MyRestaurantServerError(t *testing.T) {
	ctx := context.Background()
	backend := new(mockRestaurantBackend)
	m := state.NewRestaurantManager(backend, nil)

	backend.On("MyRestaurant", ctx).Return(nil, rejection(500, api.KindServer, `{"detail":"boom"}`)).Once()

	_, err := m.FetchMyRestaurant(ctx)
	require.Error(t, err)
	s := m.State()
	assert.Equal(t, "boom", s.Error)
	assert.Equal(t, state.RequestRejected, s.Requests.Get(state.OpFetchMyRestaurant).Status)

	m.ClearError()
	assert.Empty(t, m.State().Error)
}

func TestRestaurantManager_OwnerCRUD(t *testing.T) {
	ctx := context.Background()
	backend := new(mockRestaurantBackend)
	m := state.NewRestaurantManager(backend, nil)

	open := true
	in := models.RestaurantInput{Name: "Warung A", Address: "Jl. A", PhoneNumber: "0812", IsOpen: &open}
	backend.On("CreateRestaurant", ctx, in).Return(&models.Restaurant{ID: 1, Name: "Warung A", IsOpen: true}, nil).Once()
	patch := models.RestaurantInput{Name: "Warung A+"}
	backend.On("UpdateRestaurant", ctx, int64(1), patch).Return(&models.Restaurant{ID: 1, Name: "Warung A+", IsOpen: true}, nil).Once()

	price := decimal.RequireFromString("12.50")
	itemIn := models.MenuItemInput{Name: "Nasi Goreng", Price: &price}
	backend.On("CreateMenuItem", ctx, itemIn).Return(&models.MenuItem{ID: 5, Restaurant: 1, Name: "Nasi Goreng", Price: price}, nil).Once()
	newPrice := decimal.RequireFromString("13")
	itemPatch := models.MenuItemInput{Price: &newPrice}
	backend.On("UpdateMenuItem", ctx, int64(5), itemPatch).Return(&models.MenuItem{ID: 5, Restaurant: 1, Name: "Nasi Goreng", Price: newPrice}, nil).Once()
	backend.On("CreateMenuItem", ctx, models.MenuItemInput{Name: "Es Teh", Price: &price}).Return(&models.MenuItem{ID: 6, Restaurant: 1, Name: "Es Teh", Price: price}, nil).Once()
	backend.On("DeleteMenuItem", ctx, int64(6)).Return(nil).Once()

	_, err := m.CreateRestaurant(ctx, in)
	require.NoError(t, err)
	_, err = m.UpdateRestaurant(ctx, 1, patch)
	require.NoError(t, err)
	_, err = m.CreateMenuItem(ctx, itemIn)
	require.NoError(t, err)
	_, err = m.UpdateMenuItem(ctx, 5, itemPatch)
	require.NoError(t, err)
	_, err = m.CreateMenuItem(ctx, models.MenuItemInput{Name: "Es Teh", Price: &price})
	require.NoError(t, err)
	require.NoError(t, m.DeleteMenuItem(ctx, 6))

	s := m.State()
	assert.Equal(t, "Warung A+", s.MyRestaurant.Name)
	require.Len(t, s.MyMenu, 1)
	assert.True(t, newPrice.Equal(s.MyMenu[0].Price))
	backend.AssertExpectations(t)
}

func TestRestaurantManager_DeleteFailureKeepsItem(t *testing.T) {
	ctx := context.Background()
	backend := new(mockRestaurantBackend)
	m := state.NewRestaurantManager(backend, nil)

	backend.On("MyMenu", ctx).Return([]models.MenuItem{{ID: 1, Name: "Sate"}}, nil).Once()
	backend.On("DeleteMenuItem", ctx, int64(1)).Return(rejection(403, api.KindForbidden, `{"detail":"You do not have permission to perform this action."}`)).Once()

	_, err := m.FetchMyMenu(ctx)
	require.NoError(t, err)
	err = m.DeleteMenuItem(ctx, 1)
	require.Error(t, err)

	s := m.State()
	assert.Len(t, s.MyMenu, 1)
	assert.Equal(t, "You do not have permission to perform this action.", s.Error)
}

func TestRestaurantManager_PublicBrowsing(t *testing.T) {
	ctx := context.Background()
	backend := new(mockRestaurantBackend)
	m := state.NewRestaurantManager(backend, nil)

	filter := models.RestaurantFilter{Search: "warung"}
	backend.On("ListRestaurants", ctx, filter).Return([]models.Restaurant{{ID: 1, Name: "Warung A"}, {ID: 2, Name: "Warung B"}}, nil).Once()
	backend.On("GetRestaurant", ctx, int64(2)).Return(&models.Restaurant{ID: 2, Name: "Warung B"}, nil).Once()
	backend.On("RestaurantMenu", ctx, int64(2)).Return([]models.MenuItem{{ID: 9, Restaurant: 2, Name: "Soto"}}, nil).Once()

	list, err := m.ListRestaurants(ctx, filter)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	_, err = m.FetchRestaurant(ctx, 2)
	require.NoError(t, err)
	_, err = m.FetchMenu(ctx, 2)
	require.NoError(t, err)

	s := m.State()
	assert.Equal(t, int64(2), s.Current.ID)
	require.Len(t, s.CurrentMenu, 1)
	assert.Equal(t, "Soto", s.CurrentMenu[0].Name)
}
