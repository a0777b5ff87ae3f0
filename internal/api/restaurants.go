package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"foodfront/internal/models"
)

func (c *Client) ListRestaurants(ctx context.Context, filter models.RestaurantFilter) ([]models.Restaurant, error) {
	q := url.Values{}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.CuisineType != "" {
		q.Set("cuisine_type", filter.CuisineType)
	}
	var out []models.Restaurant
	if err := c.do(ctx, request{method: http.MethodGet, path: "/restaurants/", query: q}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, error) {
	var out models.Restaurant
	if err := c.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/restaurants/%d/", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RestaurantMenu(ctx context.Context, id int64) ([]models.MenuItem, error) {
	var out []models.MenuItem
	if err := c.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/restaurants/%d/menu/", id)}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MyRestaurant(ctx context.Context) (*models.Restaurant, error) {
	var out models.Restaurant
	if err := c.do(ctx, request{method: http.MethodGet, path: "/restaurants/my_restaurant/"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateRestaurant(ctx context.Context, in models.RestaurantInput) (*models.Restaurant, error) {
	var out models.Restaurant
	if err := c.do(ctx, request{method: http.MethodPost, path: "/restaurants/", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateRestaurant(ctx context.Context, id int64, in models.RestaurantInput) (*models.Restaurant, error) {
	var out models.Restaurant
	req := request{method: http.MethodPatch, path: fmt.Sprintf("/restaurants/%d/", id), body: in}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyMenu(ctx context.Context) ([]models.MenuItem, error) {
	var out []models.MenuItem
	if err := c.do(ctx, request{method: http.MethodGet, path: "/menu-items/my_menu/"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateMenuItem(ctx context.Context, in models.MenuItemInput) (*models.MenuItem, error) {
	var out models.MenuItem
	if err := c.do(ctx, request{method: http.MethodPost, path: "/menu-items/", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateMenuItem(ctx context.Context, id int64, in models.MenuItemInput) (*models.MenuItem, error) {
	var out models.MenuItem
	req := request{method: http.MethodPatch, path: fmt.Sprintf("/menu-items/%d/", id), body: in}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteMenuItem(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("/menu-items/%d/", id)}, nil)
}
