package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"foodfront/internal/models"
)

// IdempotencyHeader carries the per-attempt key on order submission.
const IdempotencyHeader = "Idempotency-Key"

func (c *Client) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	q := url.Values{}
	if filter.Restaurant != 0 {
		q.Set("restaurant", strconv.FormatInt(filter.Restaurant, 10))
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	var out []models.Order
	if err := c.do(ctx, request{method: http.MethodGet, path: "/orders/", query: q}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MyOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	if err := c.do(ctx, request{method: http.MethodGet, path: "/orders/my_orders/"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PendingOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	if err := c.do(ctx, request{method: http.MethodGet, path: "/orders/pending_orders/"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var out models.Order
	if err := c.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/orders/%d/", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TrackOrder(ctx context.Context, id int64) (*models.OrderTracking, error) {
	var out models.OrderTracking
	if err := c.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/orders/%d/track/", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateOrder submits a new order. idempotencyKey is sent when non-empty.
func (c *Client) CreateOrder(ctx context.Context, in models.CreateOrderInput, idempotencyKey string) (*models.Order, error) {
	req := request{method: http.MethodPost, path: "/orders/", body: in}
	if idempotencyKey != "" {
		req.headers = map[string]string{IdempotencyHeader: idempotencyKey}
	}
	var out models.Order
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, update models.StatusUpdate) (*models.Order, error) {
	var out models.Order
	req := request{method: http.MethodPost, path: fmt.Sprintf("/orders/%d/update_status/", id), body: update}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AssignRider claims the order for the authenticated rider.
func (c *Client) AssignRider(ctx context.Context, id int64) (*models.Order, error) {
	var out models.Order
	req := request{method: http.MethodPost, path: fmt.Sprintf("/orders/%d/assign_rider/", id)}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
