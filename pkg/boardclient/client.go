// Package boardclient is a fasthttp client for the board API.
package boardclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/cheese-board/pkg/boarddto"
)

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the dialer, e.g. with an in-memory listener.
func WithDial(d fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = d }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health returns nil when /healthz answers 200.
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, fasthttp.MethodGet, "/healthz", nil, nil, true)
}

func (c *Client) CreateSession(ctx context.Context, whiteID, blackID string) (*boarddto.SessionView, error) {
	var v boarddto.SessionView
	req := boarddto.CreateRequest{WhiteID: whiteID, BlackID: blackID}
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/sessions", req, &v, false); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) GetSession(ctx context.Context, id string) (*boarddto.SessionView, error) {
	var v boarddto.SessionView
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/sessions/"+url.PathEscape(id), nil, &v, true); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) ListSessions(ctx context.Context, playerID string) ([]*boarddto.SessionView, error) {
	var out boarddto.ListResponse
	path := "/api/sessions?player_id=" + url.QueryEscape(playerID)
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &out, true); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// Interact sends one square click. Interactions are not idempotent and are
// never retried.
func (c *Client) Interact(ctx context.Context, id, playerID string, file, rank int) (*boarddto.InteractResponse, error) {
	var out boarddto.InteractResponse
	req := boarddto.NewInteractRequest(playerID, file, rank)
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/sessions/"+url.PathEscape(id)+"/interact", req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClaimSeat takes the open side color ("white" or "black") for playerID.
func (c *Client) ClaimSeat(ctx context.Context, id, playerID, color string) (*boarddto.SessionView, error) {
	var v boarddto.SessionView
	req := boarddto.SeatRequest{PlayerID: playerID, Color: color}
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/sessions/"+url.PathEscape(id)+"/seat", req, &v, false); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) CloseSession(ctx context.Context, id string) (*boarddto.SessionView, error) {
	var v boarddto.SessionView
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/sessions/"+url.PathEscape(id)+"/close", nil, &v, false); err != nil {
		return nil, err
	}
	return &v, nil
}

// APIError is returned for non-2xx responses. Domain carries the decoded
// error body when the server sent one.
type APIError struct {
	Status int
	Domain boarddto.DomainError
	Body   string
}

func (e *APIError) Error() string {
	if e.Domain.Code != "" {
		return fmt.Sprintf("board api error: status=%d code=%s message=%s", e.Status, e.Domain.Code, e.Domain.Message)
	}
	return fmt.Sprintf("board api error: status=%d body=%s", e.Status, e.Body)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")

	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry {
		attempts = c.retryMax
		if attempts <= 0 {
			attempts = 1
		}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		deadline := c.computeDeadline(ctx)
		err := c.http.DoDeadline(req, resp, deadline)
		if err != nil {
			if attempt == attempts || !retry {
				return fmt.Errorf("request failed: %w", err)
			}
			lastErr = err
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			apiErr := decodeAPIError(status, resp.Body())
			if attempt == attempts || !retry || !shouldRetry(apiErr) {
				return apiErr
			}
			lastErr = apiErr
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func decodeAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status, Body: truncate(string(body), 512)}
	var env boarddto.ErrorEnvelope
	if json.Unmarshal(body, &env) == nil {
		e.Domain = env.Error
	}
	return e
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		clientDL := time.Now().Add(c.defaultTimeout)
		if dl.Before(clientDL) {
			return dl
		}
		return clientDL
	}
	return time.Now().Add(c.defaultTimeout)
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetry(e *APIError) bool {
	switch e.Status {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
