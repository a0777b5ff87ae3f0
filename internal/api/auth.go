package api

import (
	"context"
	"net/http"

	"foodfront/internal/models"
)

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Message string      `json:"message,omitempty"`
	User    models.User `json:"user"`
	models.AuthTokens
}

func (c *Client) Register(ctx context.Context, in models.RegisterInput) (*AuthResponse, error) {
	var out AuthResponse
	req := request{method: http.MethodPost, path: "/users/auth/register/", body: in, anonymous: true}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, in models.LoginInput) (*AuthResponse, error) {
	var out AuthResponse
	req := request{method: http.MethodPost, path: "/users/auth/login/", body: in, anonymous: true}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/users/profile/"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, request{method: http.MethodPatch, path: "/users/profile/", body: patch}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChangePassword(ctx context.Context, in models.PasswordChange) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/users/change-password/", body: in}, nil)
}
