package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"foodfront/internal/api"
	"foodfront/internal/models"
	"foodfront/internal/repositories"
	"foodfront/internal/state"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for a session ID that was never issued.
var ErrSessionNotFound = errors.New("session not found")

// sessionMarkerKey records that a session ID was issued.
const sessionMarkerKey = "session_created_at"

// DefaultIdleTimeout is how long an unused session stays in memory.
const DefaultIdleTimeout = 30 * time.Minute

// Session is the client runtime of one browser session.
type Session struct {
	ID          string
	Cart        *state.CartManager
	Orders      *state.OrderManager
	Restaurants *state.RestaurantManager

	client   *api.Client
	tokens   *repositories.TokenStore
	validate *validator.Validate
	logger   *zap.Logger

	lastSeen time.Time // guarded by Sessions.mu
}

// Sessions is the registry of live sessions. Sessions idle for longer than
// the idle timeout are evicted from memory and re-hydrated from the store on
// their next request.
type Sessions struct {
	mu       sync.Mutex
	store    repositories.KeyValueStore
	backend  *api.Backend
	validate *validator.Validate
	logger   *zap.Logger
	idle     time.Duration
	live     map[string]*Session
}

// NewSessions creates a registry persisting session data in store.
func NewSessions(store repositories.KeyValueStore, backend *api.Backend, logger *zap.Logger) *Sessions {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sessions{
		store:    store,
		backend:  backend,
		validate: NewValidator(),
		logger:   logger,
		idle:     DefaultIdleTimeout,
		live:     make(map[string]*Session),
	}
}

// SetIdleTimeout changes the idle timeout. Zero or less disables eviction.
func (r *Sessions) SetIdleTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idle = d
}

// Len returns the number of sessions held in memory.
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// Guest returns a throwaway guest session that is neither persisted nor
// registered. It serves read-only requests of clients without a session.
func (r *Sessions) Guest(ctx context.Context) *Session {
	s := r.build("", repositories.NewMemoryKeyValueStore())
	s.Cart.Load(ctx, repositories.GuestIdentity)
	return s
}

// New allocates a fresh guest session.
func (r *Sessions) New(ctx context.Context) (*Session, error) {
	id := uuid.NewString()
	kv := repositories.Namespaced(r.store, repositories.SessionNamespace(id))
	if err := kv.Set(ctx, sessionMarkerKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s := r.build(id, kv)
	s.Cart.Load(ctx, repositories.GuestIdentity)

	r.mu.Lock()
	s.lastSeen = time.Now()
	r.live[id] = s
	r.mu.Unlock()
	r.logger.Debug("session created", zap.String("session", id))
	return s, nil
}

// Get returns the session for id, re-hydrating it from the store if needed.
func (r *Sessions) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	r.mu.Lock()
	s, ok := r.live[id]
	if ok {
		s.lastSeen = time.Now()
	}
	r.mu.Unlock()
	if ok {
		return s, nil
	}

	kv := repositories.Namespaced(r.store, repositories.SessionNamespace(id))
	if _, err := kv.Get(ctx, sessionMarkerKey); err != nil {
		if errors.Is(err, repositories.ErrKeyNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}

	s = r.build(id, kv)
	user, err := s.CurrentUser(ctx)
	if err != nil {
		r.logger.Warn("failed to read stored identity", zap.String("session", id), zap.Error(err))
	}
	s.Cart.Load(ctx, repositories.CartIdentity(user))

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.live[id]; ok {
		existing.lastSeen = time.Now()
		return existing, nil
	}
	s.lastSeen = time.Now()
	r.live[id] = s
	return s, nil
}

// EvictIdle drops the sessions not seen since now minus the idle timeout and
// returns how many were dropped. Their stored data is kept.
func (r *Sessions) EvictIdle(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.idle <= 0 {
		return 0
	}
	cutoff := now.Add(-r.idle)
	evicted := 0
	for id, s := range r.live {
		if s.lastSeen.Before(cutoff) {
			delete(r.live, id)
			evicted++
		}
	}
	return evicted
}

// RunJanitor evicts idle sessions every interval until ctx is done.
func (r *Sessions) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.EvictIdle(now); n > 0 {
				r.logger.Debug("evicted idle sessions", zap.Int("count", n), zap.Int("live", r.Len()))
			}
		}
	}
}

func (r *Sessions) build(id string, kv repositories.KeyValueStore) *Session {
	logger := r.logger.With(zap.String("session", id))
	s := &Session{
		ID:       id,
		tokens:   repositories.NewTokenStore(kv),
		validate: r.validate,
		logger:   logger,
	}
	s.Cart = state.NewCartManager(repositories.NewCartStore(kv), logger)
	s.client = r.backend.Session(s.tokens, s.onAuthFailure)
	s.Orders = state.NewOrderManager(s.client, logger)
	s.Restaurants = state.NewRestaurantManager(s.client, logger)
	return s
}

// onAuthFailure runs after a failed token refresh has purged the tokens.
func (s *Session) onAuthFailure(ctx context.Context) {
	s.logger.Info("session expired, switching to guest")
	s.resetIdentity(ctx)
}

func (s *Session) resetIdentity(ctx context.Context) {
	s.Orders.Reset()
	s.Restaurants.Reset()
	s.Cart.Load(ctx, repositories.GuestIdentity)
}

// CurrentUser returns the authenticated user, or nil for a guest. Without a
// stored profile the identity is read from the access token claims; the
// backend remains the verifier of the token.
func (s *Session) CurrentUser(ctx context.Context) (*models.User, error) {
	user, err := s.tokens.User(ctx)
	if err != nil || user != nil {
		return user, err
	}
	access, err := s.tokens.AccessToken(ctx)
	if err != nil || access == "" {
		return nil, err
	}
	return userFromToken(access)
}

// IsAuthenticated reports whether the session holds an identity.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	user, err := s.CurrentUser(ctx)
	return err == nil && user != nil
}

func userFromToken(token string) (*models.User, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to decode access token: %w", err)
	}
	id, ok := claims["user_id"].(float64)
	if !ok {
		return nil, errors.New("access token has no user_id claim")
	}
	user := &models.User{ID: int64(id)}
	if role, ok := claims["role"].(string); ok {
		if r, err := models.ParseRole(role); err == nil {
			user.Role = r
		}
	}
	if email, ok := claims["email"].(string); ok {
		user.Email = email
	}
	return user, nil
}

// Login authenticates with the backend and switches the cart to the user's.
func (s *Session) Login(ctx context.Context, in models.LoginInput) (*models.User, error) {
	if err := ValidateStruct(s.validate, in); err != nil {
		return nil, err
	}
	resp, err := s.client.Login(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return s.establish(ctx, resp)
}

// Register creates an account and logs it in.
func (s *Session) Register(ctx context.Context, in models.RegisterInput) (*models.User, error) {
	if err := ValidateStruct(s.validate, in); err != nil {
		return nil, err
	}
	resp, err := s.client.Register(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	return s.establish(ctx, resp)
}

func (s *Session) establish(ctx context.Context, resp *api.AuthResponse) (*models.User, error) {
	if err := s.tokens.SetTokens(ctx, resp.AuthTokens); err != nil {
		return nil, fmt.Errorf("failed to store tokens: %w", err)
	}
	if err := s.tokens.SetUser(ctx, resp.User); err != nil {
		return nil, fmt.Errorf("failed to store user: %w", err)
	}
	s.Orders.Reset()
	s.Restaurants.Reset()
	s.Cart.Load(ctx, repositories.CartIdentity(&resp.User))
	s.logger.Info("user logged in", zap.Int64("user_id", resp.User.ID), zap.String("role", string(resp.User.Role)))
	user := resp.User
	return &user, nil
}

// Logout purges the tokens and switches to the guest cart. The user's cart
// stays in storage for their next login.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.tokens.Purge(ctx); err != nil {
		return fmt.Errorf("failed to purge tokens: %w", err)
	}
	s.resetIdentity(ctx)
	return nil
}

// Profile refreshes the stored profile from the backend.
func (s *Session) Profile(ctx context.Context) (*models.User, error) {
	user, err := s.client.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	if err := s.tokens.SetUser(ctx, *user); err != nil {
		s.logger.Warn("failed to store profile", zap.Error(err))
	}
	return user, nil
}

// UpdateProfile patches the editable profile fields.
func (s *Session) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.User, error) {
	if err := ValidateStruct(s.validate, patch); err != nil {
		return nil, err
	}
	user, err := s.client.UpdateProfile(ctx, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if err := s.tokens.SetUser(ctx, *user); err != nil {
		s.logger.Warn("failed to store profile", zap.Error(err))
	}
	return user, nil
}

// ChangePassword changes the account password. A confirmation mismatch is
// rejected without a request.
func (s *Session) ChangePassword(ctx context.Context, in models.PasswordChange) error {
	if err := ValidateStruct(s.validate, in); err != nil {
		return err
	}
	if err := s.client.ChangePassword(ctx, in); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}
