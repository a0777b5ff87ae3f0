package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"foodfront/internal/models"
)

// GuestIdentity is the cart identity used while nobody is logged in.
const GuestIdentity = "guest"

// CartIdentity returns the storage identity for a user, or GuestIdentity for nil.
func CartIdentity(user *models.User) string {
	if user == nil {
		return GuestIdentity
	}
	return strconv.FormatInt(user.ID, 10)
}

// CartKey is the storage key holding the line items for identity.
func CartKey(identity string) string { return "cart_" + identity }

// CartRestaurantKey is the storage key holding the selected restaurant for identity.
func CartRestaurantKey(identity string) string { return "cartRestaurant_" + identity }

// CartStore persists cart line items and the selected restaurant per user.
type CartStore struct {
	kv KeyValueStore
}

func NewCartStore(kv KeyValueStore) *CartStore {
	return &CartStore{kv: kv}
}

// Load reads the cart for identity. A missing entry yields an empty cart.
func (s *CartStore) Load(ctx context.Context, identity string) ([]models.CartLineItem, *models.RestaurantRef, error) {
	var items []models.CartLineItem
	if err := s.readJSON(ctx, CartKey(identity), &items); err != nil {
		return nil, nil, err
	}
	var restaurant *models.RestaurantRef
	if err := s.readJSON(ctx, CartRestaurantKey(identity), &restaurant); err != nil {
		return nil, nil, err
	}
	return items, restaurant, nil
}

// SaveItems writes the line items for identity.
func (s *CartStore) SaveItems(ctx context.Context, identity string, items []models.CartLineItem) error {
	if items == nil {
		items = []models.CartLineItem{}
	}
	return s.writeJSON(ctx, CartKey(identity), items)
}

// SaveRestaurant writes the selected restaurant for identity.
func (s *CartStore) SaveRestaurant(ctx context.Context, identity string, restaurant *models.RestaurantRef) error {
	return s.writeJSON(ctx, CartRestaurantKey(identity), restaurant)
}

// Erase removes both cart entries for identity.
func (s *CartStore) Erase(ctx context.Context, identity string) error {
	return s.kv.Delete(ctx, CartKey(identity), CartRestaurantKey(identity))
}

func (s *CartStore) readJSON(ctx context.Context, key string, dst any) error {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *CartStore) writeJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.kv.Set(ctx, key, string(b))
}
