package state

import (
	"context"
	"fmt"
	"sync"

	"foodfront/internal/api"
	"foodfront/internal/models"

	"go.uber.org/zap"
)

const (
	OpListRestaurants   = "listRestaurants"
	OpFetchRestaurant   = "fetchRestaurant"
	OpFetchMenu         = "fetchMenu"
	OpFetchMyRestaurant = "fetchMyRestaurant"
	OpCreateRestaurant  = "createRestaurant"
	OpUpdateRestaurant  = "updateRestaurant"
	OpFetchMyMenu       = "fetchMyMenu"
	OpCreateMenuItem    = "createMenuItem"
	OpUpdateMenuItem    = "updateMenuItem"
	OpDeleteMenuItem    = "deleteMenuItem"
)

// RestaurantBackend is the slice of the REST client the restaurant manager needs.
type RestaurantBackend interface {
	ListRestaurants(ctx context.Context, filter models.RestaurantFilter) ([]models.Restaurant, error)
	GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, error)
	RestaurantMenu(ctx context.Context, id int64) ([]models.MenuItem, error)
	MyRestaurant(ctx context.Context) (*models.Restaurant, error)
	CreateRestaurant(ctx context.Context, in models.RestaurantInput) (*models.Restaurant, error)
	UpdateRestaurant(ctx context.Context, id int64, in models.RestaurantInput) (*models.Restaurant, error)
	MyMenu(ctx context.Context) ([]models.MenuItem, error)
	CreateMenuItem(ctx context.Context, in models.MenuItemInput) (*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id int64, in models.MenuItemInput) (*models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id int64) error
}

// RestaurantsState holds public browsing results and the owner's own
// restaurant and menu.
type RestaurantsState struct {
	List         []models.Restaurant `json:"restaurants"`
	Current      *models.Restaurant  `json:"current_restaurant"`
	CurrentMenu  []models.MenuItem   `json:"current_menu"`
	MyRestaurant *models.Restaurant  `json:"my_restaurant"`
	MyMenu       []models.MenuItem   `json:"my_menu"`
	Error        string              `json:"error,omitempty"`
	Requests     Requests            `json:"requests"`
}

// RestaurantManager mirrors restaurant and menu resources for one session.
type RestaurantManager struct {
	mu      sync.Mutex
	backend RestaurantBackend
	logger  *zap.Logger
	state   RestaurantsState
}

// NewRestaurantManager returns a RestaurantManager with empty state.
func NewRestaurantManager(backend RestaurantBackend, logger *zap.Logger) *RestaurantManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RestaurantManager{
		backend: backend,
		logger:  logger,
		state: RestaurantsState{
			List:        []models.Restaurant{},
			CurrentMenu: []models.MenuItem{},
			MyMenu:      []models.MenuItem{},
			Requests:    Requests{},
		},
	}
}

// State returns a copy of the current state.
func (m *RestaurantManager) State() RestaurantsState {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	s.List = append([]models.Restaurant{}, m.state.List...)
	s.CurrentMenu = append([]models.MenuItem{}, m.state.CurrentMenu...)
	s.MyMenu = append([]models.MenuItem{}, m.state.MyMenu...)
	s.Requests = m.state.Requests.clone()
	return s
}

func (m *RestaurantManager) begin(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.state.Requests.begin(op); err != nil {
		return err
	}
	m.state.Error = ""
	return nil
}

func (m *RestaurantManager) end(op string, err error, fn func(s *RestaurantsState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Requests.finish(op, err)
	if err != nil {
		m.state.Error = ErrorMessage(err)
		m.logger.Info("restaurant request rejected", zap.String("op", op), zap.Error(err))
		return
	}
	if fn != nil {
		fn(&m.state)
	}
}

// ListRestaurants replaces the public listing.
func (m *RestaurantManager) ListRestaurants(ctx context.Context, filter models.RestaurantFilter) ([]models.Restaurant, error) {
	if err := m.begin(OpListRestaurants); err != nil {
		return nil, err
	}
	list, err := m.backend.ListRestaurants(ctx, filter)
	m.end(OpListRestaurants, err, func(s *RestaurantsState) {
		s.List = list
		if s.List == nil {
			s.List = []models.Restaurant{}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	return list, nil
}

// FetchRestaurant loads one restaurant as the current one.
func (m *RestaurantManager) FetchRestaurant(ctx context.Context, id int64) (*models.Restaurant, error) {
	if err := m.begin(OpFetchRestaurant); err != nil {
		return nil, err
	}
	r, err := m.backend.GetRestaurant(ctx, id)
	m.end(OpFetchRestaurant, err, func(s *RestaurantsState) {
		if s.Current == nil || s.Current.ID != r.ID {
			s.CurrentMenu = []models.MenuItem{}
		}
		s.Current = r
	})
	if err != nil {
		return nil, fmt.Errorf("fetch restaurant %d: %w", id, err)
	}
	return r, nil
}

// FetchMenu loads the public menu of a restaurant.
func (m *RestaurantManager) FetchMenu(ctx context.Context, restaurantID int64) ([]models.MenuItem, error) {
	if err := m.begin(OpFetchMenu); err != nil {
		return nil, err
	}
	items, err := m.backend.RestaurantMenu(ctx, restaurantID)
	m.end(OpFetchMenu, err, func(s *RestaurantsState) {
		s.CurrentMenu = items
		if s.CurrentMenu == nil {
			s.CurrentMenu = []models.MenuItem{}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("fetch menu of restaurant %d: %w", restaurantID, err)
	}
	return items, nil
}

// FetchMyRestaurant loads the owner's restaurant. An owner without one gets
// nil and no error.
func (m *RestaurantManager) FetchMyRestaurant(ctx context.Context) (*models.Restaurant, error) {
	if err := m.begin(OpFetchMyRestaurant); err != nil {
		return nil, err
	}
	r, err := m.backend.MyRestaurant(ctx)
	if api.IsKind(err, api.KindNotFound) {
		r, err = nil, nil
	}
	m.end(OpFetchMyRestaurant, err, func(s *RestaurantsState) { s.MyRestaurant = r })
	if err != nil {
		return nil, fmt.Errorf("fetch my restaurant: %w", err)
	}
	return r, nil
}

// CreateRestaurant creates the owner's restaurant.
func (m *RestaurantManager) CreateRestaurant(ctx context.Context, in models.RestaurantInput) (*models.Restaurant, error) {
	if err := m.begin(OpCreateRestaurant); err != nil {
		return nil, err
	}
	r, err := m.backend.CreateRestaurant(ctx, in)
	m.end(OpCreateRestaurant, err, func(s *RestaurantsState) { s.MyRestaurant = r })
	if err != nil {
		return nil, fmt.Errorf("create restaurant: %w", err)
	}
	return r, nil
}

// UpdateRestaurant patches the owner's restaurant.
func (m *RestaurantManager) UpdateRestaurant(ctx context.Context, id int64, in models.RestaurantInput) (*models.Restaurant, error) {
	if err := m.begin(OpUpdateRestaurant); err != nil {
		return nil, err
	}
	r, err := m.backend.UpdateRestaurant(ctx, id, in)
	m.end(OpUpdateRestaurant, err, func(s *RestaurantsState) {
		s.MyRestaurant = r
		for i := range s.List {
			if s.List[i].ID == r.ID {
				s.List[i] = *r
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("update restaurant %d: %w", id, err)
	}
	return r, nil
}

// FetchMyMenu loads the owner's menu. An owner without a restaurant gets an
// empty menu.
func (m *RestaurantManager) FetchMyMenu(ctx context.Context) ([]models.MenuItem, error) {
	if err := m.begin(OpFetchMyMenu); err != nil {
		return nil, err
	}
	items, err := m.backend.MyMenu(ctx)
	if api.IsKind(err, api.KindNotFound) {
		items, err = nil, nil
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	m.end(OpFetchMyMenu, err, func(s *RestaurantsState) { s.MyMenu = items })
	if err != nil {
		return nil, fmt.Errorf("fetch my menu: %w", err)
	}
	return items, nil
}

// CreateMenuItem adds an item to the owner's menu.
func (m *RestaurantManager) CreateMenuItem(ctx context.Context, in models.MenuItemInput) (*models.MenuItem, error) {
	if err := m.begin(OpCreateMenuItem); err != nil {
		return nil, err
	}
	item, err := m.backend.CreateMenuItem(ctx, in)
	m.end(OpCreateMenuItem, err, func(s *RestaurantsState) { s.MyMenu = append(s.MyMenu, *item) })
	if err != nil {
		return nil, fmt.Errorf("create menu item: %w", err)
	}
	return item, nil
}

// UpdateMenuItem patches one menu item.
func (m *RestaurantManager) UpdateMenuItem(ctx context.Context, id int64, in models.MenuItemInput) (*models.MenuItem, error) {
	if err := m.begin(OpUpdateMenuItem); err != nil {
		return nil, err
	}
	item, err := m.backend.UpdateMenuItem(ctx, id, in)
	m.end(OpUpdateMenuItem, err, func(s *RestaurantsState) {
		for i := range s.MyMenu {
			if s.MyMenu[i].ID == item.ID {
				s.MyMenu[i] = *item
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("update menu item %d: %w", id, err)
	}
	return item, nil
}

// DeleteMenuItem removes one menu item.
func (m *RestaurantManager) DeleteMenuItem(ctx context.Context, id int64) error {
	if err := m.begin(OpDeleteMenuItem); err != nil {
		return err
	}
	err := m.backend.DeleteMenuItem(ctx, id)
	m.end(OpDeleteMenuItem, err, func(s *RestaurantsState) {
		kept := make([]models.MenuItem, 0, len(s.MyMenu))
		for _, it := range s.MyMenu {
			if it.ID != id {
				kept = append(kept, it)
			}
		}
		s.MyMenu = kept
	})
	if err != nil {
		return fmt.Errorf("delete menu item %d: %w", id, err)
	}
	return nil
}

// Reset drops the owner's restaurant and menu, as on logout. Public
// browsing results are kept.
func (m *RestaurantManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.MyRestaurant = nil
	m.state.MyMenu = []models.MenuItem{}
	m.state.Error = ""
}

// ClearError drops the last error message and resets rejected requests to idle.
func (m *RestaurantManager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Error = ""
	for op, r := range m.state.Requests {
		if r.Status == RequestRejected {
			m.state.Requests[op] = Request{Status: RequestIdle}
		}
	}
}
