package state

import (
	"context"
	"sync"

	"foodfront/internal/models"
	"foodfront/internal/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartState is the in-memory cart of one session.
type CartState struct {
	Restaurant *models.RestaurantRef
	Items      []models.CartLineItem
	Total      decimal.Decimal
}

// Cart returns the JSON view of s.
func (s CartState) Cart() models.Cart {
	items := s.Items
	if items == nil {
		items = []models.CartLineItem{}
	}
	return models.Cart{Restaurant: s.Restaurant, Items: items, Total: s.Total}
}

func (s CartState) clone() CartState {
	out := CartState{Items: append([]models.CartLineItem(nil), s.Items...), Total: s.Total}
	if s.Restaurant != nil {
		ref := *s.Restaurant
		out.Restaurant = &ref
	}
	return out
}

// Empty reports whether the cart holds no items.
func (s CartState) Empty() bool { return len(s.Items) == 0 }

// Find returns the line item for menuItemID.
func (s CartState) Find(menuItemID int64) (models.CartLineItem, bool) {
	for _, it := range s.Items {
		if it.MenuItemID == menuItemID {
			return it, true
		}
	}
	return models.CartLineItem{}, false
}

// CartAction is an action understood by ReduceCart.
type CartAction interface{ cartAction() }

// AddItem adds one unit of Item from Restaurant.
type AddItem struct {
	Item       models.MenuItem
	Restaurant models.RestaurantRef
}

// RemoveItem drops a line item.
type RemoveItem struct{ MenuItemID int64 }

// UpdateQuantity sets the quantity of a line item.
type UpdateQuantity struct {
	MenuItemID int64
	Quantity   int
}

// ClearCart empties the cart.
type ClearCart struct{}

// LoadCart replaces the cart with previously persisted contents.
type LoadCart struct {
	Items      []models.CartLineItem
	Restaurant *models.RestaurantRef
}

func (AddItem) cartAction()        {}
func (RemoveItem) cartAction()     {}
func (UpdateQuantity) cartAction() {}
func (ClearCart) cartAction()      {}
func (LoadCart) cartAction()       {}

// ReduceCart applies a to s and returns the new state. s is not modified.
func ReduceCart(s CartState, a CartAction) CartState {
	items := append([]models.CartLineItem(nil), s.Items...)
	restaurant := s.Restaurant

	switch a := a.(type) {
	case AddItem:
		if restaurant != nil && restaurant.ID != a.Restaurant.ID {
			items = nil
		}
		ref := a.Restaurant
		restaurant = &ref
		found := false
		for i := range items {
			if items[i].MenuItemID == a.Item.ID {
				items[i].Quantity++
				found = true
				break
			}
		}
		if !found {
			items = append(items, models.CartLineItem{
				MenuItemID: a.Item.ID,
				Name:       a.Item.Name,
				UnitPrice:  a.Item.Price,
				Quantity:   1,
			})
		}

	case RemoveItem:
		kept := items[:0]
		for _, it := range items {
			if it.MenuItemID != a.MenuItemID {
				kept = append(kept, it)
			}
		}
		items = kept
		if len(items) == 0 {
			restaurant = nil
		}

	case UpdateQuantity:
		if a.Quantity < 1 {
			return s
		}
		for i := range items {
			if items[i].MenuItemID == a.MenuItemID {
				items[i].Quantity = a.Quantity
			}
		}

	case ClearCart:
		items = nil
		restaurant = nil

	case LoadCart:
		items = append([]models.CartLineItem(nil), a.Items...)
		restaurant = a.Restaurant
		if len(items) == 0 {
			restaurant = nil
		}

	default:
		return s
	}

	return CartState{Restaurant: restaurant, Items: items, Total: models.CartTotal(items)}
}

// CartManager owns the cart of one session and mirrors it to the cart store
// under the current identity.
type CartManager struct {
	mu       sync.Mutex
	store    *repositories.CartStore
	logger   *zap.Logger
	identity string
	state    CartState
}

// NewCartManager returns an empty guest cart backed by store.
func NewCartManager(store *repositories.CartStore, logger *zap.Logger) *CartManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartManager{
		store:    store,
		logger:   logger,
		identity: repositories.GuestIdentity,
		state:    CartState{Total: decimal.Zero},
	}
}

// State returns a copy of the current cart.
func (m *CartManager) State() CartState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Identity returns the identity the cart is currently persisted under.
func (m *CartManager) Identity() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// Dispatch reduces a into the cart and persists the result. Storage write
// failures are logged and otherwise ignored.
func (m *CartManager) Dispatch(ctx context.Context, a CartAction) CartState {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.state
	m.state = ReduceCart(prev, a)

	var err error
	switch a.(type) {
	case AddItem:
		if err = m.store.SaveItems(ctx, m.identity, m.state.Items); err == nil {
			err = m.store.SaveRestaurant(ctx, m.identity, m.state.Restaurant)
		}
	case RemoveItem:
		if m.state.Empty() {
			err = m.store.Erase(ctx, m.identity)
		} else {
			err = m.store.SaveItems(ctx, m.identity, m.state.Items)
		}
	case UpdateQuantity:
		if quantitiesChanged(prev.Items, m.state.Items) {
			err = m.store.SaveItems(ctx, m.identity, m.state.Items)
		}
	case ClearCart:
		err = m.store.Erase(ctx, m.identity)
	}
	if err != nil {
		m.logger.Warn("failed to persist cart",
			zap.String("identity", m.identity), zap.Error(err))
	}
	return m.state.clone()
}

// AddItem adds one unit of item from restaurant.
func (m *CartManager) AddItem(ctx context.Context, item models.MenuItem, restaurant models.RestaurantRef) CartState {
	return m.Dispatch(ctx, AddItem{Item: item, Restaurant: restaurant})
}

// RemoveItem drops the line item for menuItemID.
func (m *CartManager) RemoveItem(ctx context.Context, menuItemID int64) CartState {
	return m.Dispatch(ctx, RemoveItem{MenuItemID: menuItemID})
}

// UpdateQuantity sets the quantity of menuItemID. Quantities below one are ignored.
func (m *CartManager) UpdateQuantity(ctx context.Context, menuItemID int64, quantity int) CartState {
	return m.Dispatch(ctx, UpdateQuantity{MenuItemID: menuItemID, Quantity: quantity})
}

// Clear empties the cart and erases it from storage.
func (m *CartManager) Clear(ctx context.Context) CartState {
	return m.Dispatch(ctx, ClearCart{})
}

// ClearIfUnchanged empties the cart only if it still holds what snapshot
// holds. It reports whether the cart was cleared.
func (m *CartManager) ClearIfUnchanged(ctx context.Context, snapshot CartState) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !sameCart(m.state, snapshot) {
		m.logger.Debug("cart changed since snapshot, keeping it",
			zap.String("identity", m.identity))
		return false
	}
	m.state = ReduceCart(m.state, ClearCart{})
	if err := m.store.Erase(ctx, m.identity); err != nil {
		m.logger.Warn("failed to persist cart",
			zap.String("identity", m.identity), zap.Error(err))
	}
	return true
}

// Load switches the cart to identity and replaces it with what is stored
// there. Unreadable entries load as an empty cart.
func (m *CartManager) Load(ctx context.Context, identity string) CartState {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.identity = identity
	items, restaurant, err := m.store.Load(ctx, identity)
	if err != nil {
		m.logger.Warn("failed to load stored cart, starting empty",
			zap.String("identity", identity), zap.Error(err))
		items, restaurant = nil, nil
	}
	m.state = ReduceCart(CartState{}, LoadCart{Items: items, Restaurant: restaurant})
	return m.state.clone()
}

func quantitiesChanged(before, after []models.CartLineItem) bool {
	if len(before) != len(after) {
		return true
	}
	for i := range before {
		if before[i].Quantity != after[i].Quantity {
			return true
		}
	}
	return false
}

func sameCart(a, b CartState) bool {
	if (a.Restaurant == nil) != (b.Restaurant == nil) {
		return false
	}
	if a.Restaurant != nil && a.Restaurant.ID != b.Restaurant.ID {
		return false
	}
	if len(a.Items) != len(b.Items) {
		return false
	}
	for i := range a.Items {
		if a.Items[i].MenuItemID != b.Items[i].MenuItemID || a.Items[i].Quantity != b.Items[i].Quantity {
			return false
		}
	}
	return true
}
