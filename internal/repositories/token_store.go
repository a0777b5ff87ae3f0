package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"foodfront/internal/models"
)

const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
	UserKey         = "user"
)

// TokenStore keeps the auth tokens and the logged-in user profile.
type TokenStore struct {
	kv KeyValueStore
}

func NewTokenStore(kv KeyValueStore) *TokenStore {
	return &TokenStore{kv: kv}
}

// AccessToken returns the stored access token, or "" when none is stored.
func (s *TokenStore) AccessToken(ctx context.Context) (string, error) {
	return s.get(ctx, AccessTokenKey)
}

// RefreshToken returns the stored refresh token, or "" when none is stored.
func (s *TokenStore) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, RefreshTokenKey)
}

func (s *TokenStore) SetAccessToken(ctx context.Context, token string) error {
	return s.kv.Set(ctx, AccessTokenKey, token)
}

// SetTokens stores both tokens.
func (s *TokenStore) SetTokens(ctx context.Context, tokens models.AuthTokens) error {
	if err := s.kv.Set(ctx, AccessTokenKey, tokens.Access); err != nil {
		return err
	}
	return s.kv.Set(ctx, RefreshTokenKey, tokens.Refresh)
}

// User returns the stored profile, or nil when nobody is logged in.
func (s *TokenStore) User(ctx context.Context) (*models.User, error) {
	raw, err := s.get(ctx, UserKey)
	if err != nil || raw == "" {
		return nil, err
	}
	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

func (s *TokenStore) SetUser(ctx context.Context, user models.User) error {
	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.kv.Set(ctx, UserKey, string(b))
}

// Purge removes tokens and the stored user.
func (s *TokenStore) Purge(ctx context.Context) error {
	return s.kv.Delete(ctx, AccessTokenKey, RefreshTokenKey, UserKey)
}

func (s *TokenStore) get(ctx context.Context, key string) (string, error) {
	v, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return "", nil
	}
	return v, err
}
