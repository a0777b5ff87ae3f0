package services_test

import (
	"context"
	"testing"
	"time"

	"foodfront/internal/api"
	"foodfront/internal/models"
	"foodfront/internal/repositories"
	"foodfront/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessions(store repositories.KeyValueStore) *services.Sessions {
	backend := api.NewBackend(api.Config{BaseURL: "http://127.0.0.1:1/api"}, nil, nil)
	return services.NewSessions(store, backend, nil)
}

func TestSessions_EvictIdleRehydrates(t *testing.T) {
	ctx := context.Background()
	sessions := newSessions(repositories.NewMemoryKeyValueStore())
	sessions.SetIdleTimeout(time.Minute)

	first, err := sessions.New(ctx)
	require.NoError(t, err)
	_, err = sessions.New(ctx)
	require.NoError(t, err)
	item := models.MenuItem{ID: 4, Name: "Nasi Lemak", Price: decimal.NewFromInt(12), IsAvailable: true}
	first.Cart.AddItem(ctx, item, models.RestaurantRef{ID: 1, Name: "Malay Kitchen"})
	require.Equal(t, 2, sessions.Len())

	assert.Zero(t, sessions.EvictIdle(time.Now().Add(30*time.Second)))
	assert.Equal(t, 2, sessions.EvictIdle(time.Now().Add(2*time.Minute)))
	assert.Zero(t, sessions.Len())

	again, err := sessions.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.NotSame(t, first, again)
	line, ok := again.Cart.State().Find(4)
	require.True(t, ok, "the cart survives eviction")
	assert.Equal(t, 1, line.Quantity)
	assert.Equal(t, 1, sessions.Len())
}

func TestSessions_GetKeepsSessionAlive(t *testing.T) {
	ctx := context.Background()
	sessions := newSessions(repositories.NewMemoryKeyValueStore())
	sessions.SetIdleTimeout(100 * time.Millisecond)

	s, err := sessions.New(ctx)
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	_, err = sessions.Get(ctx, s.ID)
	require.NoError(t, err)

	assert.Zero(t, sessions.EvictIdle(time.Now().Add(50*time.Millisecond)))
	assert.Equal(t, 1, sessions.EvictIdle(time.Now().Add(time.Second)))

	sessions.SetIdleTimeout(0)
	_, err = sessions.New(ctx)
	require.NoError(t, err)
	assert.Zero(t, sessions.EvictIdle(time.Now().Add(24*time.Hour)), "zero timeout disables eviction")
}

func TestSessions_RunJanitor(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sessions := newSessions(repositories.NewMemoryKeyValueStore())
	sessions.SetIdleTimeout(time.Millisecond)

	for i := 0; i < 3; i++ {
		_, err := sessions.New(ctx)
		require.NoError(t, err)
	}
	go sessions.RunJanitor(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return sessions.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSessions_GuestIsNotRegistered(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryKeyValueStore()
	sessions := newSessions(store)

	guest := sessions.Guest(ctx)
	assert.Empty(t, guest.ID)
	assert.True(t, guest.Cart.State().Empty())
	assert.False(t, guest.IsAuthenticated(ctx))
	guest.Cart.AddItem(ctx, models.MenuItem{ID: 1, Price: decimal.NewFromInt(5)}, models.RestaurantRef{ID: 1})

	assert.Zero(t, sessions.Len())
	assert.Empty(t, store.Keys())

	_, err := sessions.Get(ctx, "never-issued")
	assert.ErrorIs(t, err, services.ErrSessionNotFound)
}
