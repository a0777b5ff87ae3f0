package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Config holds the connection settings for the REST backend.
type Config struct {
	BaseURL string
	// Timeout is the per-request timeout; zero leaves it to the transport defaults.
	Timeout time.Duration
	// BreakerMaxFailures consecutive transport failures open the breaker.
	BreakerMaxFailures uint32
	// BreakerOpenTimeout is how long the breaker stays open before probing again.
	BreakerOpenTimeout time.Duration
}

// Backend is the shared connection to the REST backend. Sessions built from
// it share one HTTP client and one circuit breaker.
type Backend struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*response]
	logger  *zap.Logger
}

type response struct {
	status int
	body   []byte
}

// NewBackend creates a Backend for cfg.
func NewBackend(cfg Config, httpClient *http.Client, logger *zap.Logger) *Backend {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	openTimeout := cfg.BreakerOpenTimeout
	if openTimeout == 0 {
		openTimeout = 30 * time.Second
	}
	settings := gobreaker.Settings{
		Name:    "rest-backend",
		Timeout: openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}
	return &Backend{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		breaker: gobreaker.NewCircuitBreaker[*response](settings),
		logger:  logger,
	}
}

// TokenSource stores the tokens of one session.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	SetAccessToken(ctx context.Context, token string) error
	Purge(ctx context.Context) error
}

// Client issues backend calls on behalf of one session.
type Client struct {
	backend *Backend
	tokens  TokenSource
	// onAuthFailure runs after a failed refresh has purged the tokens.
	onAuthFailure func(ctx context.Context)
	refreshMu     sync.Mutex
}

// Session returns a Client that authenticates with tokens. onAuthFailure may be nil.
func (b *Backend) Session(tokens TokenSource, onAuthFailure func(ctx context.Context)) *Client {
	return &Client{backend: b, tokens: tokens, onAuthFailure: onAuthFailure}
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
	// anonymous requests carry no bearer token and never trigger a refresh.
	anonymous bool
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	var payload []byte
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	token := ""
	if !req.anonymous && c.tokens != nil {
		t, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return fmt.Errorf("read access token: %w", err)
		}
		token = t
	}

	resp, err := c.backend.send(ctx, req, payload, token)
	if err != nil {
		return err
	}

	if resp.status == http.StatusUnauthorized && !req.anonymous && c.tokens != nil {
		fresh, err := c.refresh(ctx, token)
		if err != nil {
			return err
		}
		if fresh != "" {
			resp, err = c.backend.send(ctx, req, payload, fresh)
			if err != nil {
				return err
			}
		}
	}

	if resp.status >= 400 {
		return newStatusError(resp.status, resp.body)
	}
	if out != nil && len(bytes.TrimSpace(resp.body)) > 0 {
		if err := json.Unmarshal(resp.body, out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", req.method, req.path, err)
		}
	}
	return nil
}

// refresh exchanges the refresh token for a new access token. It returns ""
// with a nil error when no refresh token is stored, leaving the first 401
// to surface. Concurrent callers share one refresh.
func (c *Client) refresh(ctx context.Context, rejected string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	current, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("read access token: %w", err)
	}
	if current != "" && current != rejected {
		return current, nil
	}

	refreshToken, err := c.tokens.RefreshToken(ctx)
	if err != nil {
		return "", fmt.Errorf("read refresh token: %w", err)
	}
	if refreshToken == "" {
		return "", nil
	}

	var out struct {
		Access string `json:"access"`
	}
	req := request{
		method:    http.MethodPost,
		path:      "/users/auth/token/refresh/",
		body:      map[string]string{"refresh": refreshToken},
		anonymous: true,
	}
	refreshErr := c.do(ctx, req, &out)
	if refreshErr == nil && out.Access == "" {
		refreshErr = errors.New("refresh response carried no access token")
	}
	if refreshErr == nil {
		refreshErr = c.tokens.SetAccessToken(ctx, out.Access)
	}
	if refreshErr != nil {
		c.backend.logger.Info("token refresh failed, logging out", zap.Error(refreshErr))
		if err := c.tokens.Purge(ctx); err != nil {
			c.backend.logger.Warn("failed to purge tokens", zap.Error(err))
		}
		if c.onAuthFailure != nil {
			c.onAuthFailure(ctx)
		}
		return "", fmt.Errorf("%w: %v", ErrSessionExpired, refreshErr)
	}
	return out.Access, nil
}

func (b *Backend) send(ctx context.Context, req request, payload []byte, token string) (*response, error) {
	target := b.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	resp, err := b.breaker.Execute(func() (*response, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Accept", "application/json")
		if payload != nil {
			httpReq.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
		for k, v := range req.headers {
			httpReq.Header.Set(k, v)
		}

		httpResp, err := b.http.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		return &response{status: httpResp.StatusCode, body: data}, nil
	})
	if err != nil {
		b.logger.Warn("backend request failed",
			zap.String("method", req.method), zap.String("path", req.path), zap.Error(err))
		return nil, transportError(err)
	}

	b.logger.Debug("backend request",
		zap.String("method", req.method), zap.String("path", req.path), zap.Int("status", resp.status))
	return resp, nil
}
