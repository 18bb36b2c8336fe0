// Package gateway is the HTTP client for the presentation backend. It adds
// bearer auth, refreshes an expired access token once per request, and
// normalizes failures into *APIError.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	"slidegenie/internal/config"
)

// Tokens is the credential pair the gateway sends and refreshes.
type Tokens struct {
	Access  string
	Refresh string
}

// TokenSource stores the session's tokens. It is satisfied by
// session.Session.
type TokenSource interface {
	Tokens() Tokens
	UpdateTokens(t Tokens) error
	ClearTokens() error
}

// Options configures a Client. Zero values pick defaults.
type Options struct {
	HTTPClient *http.Client
	Tokens     TokenSource
	// OnUnauthorized runs after a refresh could not recover a 401. The
	// tokens have already been cleared.
	OnUnauthorized func()
	Logger         *slog.Logger
	PollInterval   time.Duration
}

// Client is safe for concurrent use.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenSource
	onUnauthorized func()
	logger         *slog.Logger
	pollInterval   time.Duration
	refreshTimeout time.Duration

	refreshGroup singleflight.Group
}

// New returns a client for the API rooted at baseURL.
func New(baseURL string, opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: config.DefaultHTTPTimeout}
	}
	if opts.Tokens == nil {
		opts.Tokens = &MemoryTokens{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = config.ExportPollInterval
	}
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     opts.HTTPClient,
		tokens:         opts.Tokens,
		onUnauthorized: opts.OnUnauthorized,
		logger:         opts.Logger,
		pollInterval:   opts.PollInterval,
		refreshTimeout: config.DefaultHTTPTimeout,
	}
}

// request describes one call. body is kept as bytes so it can be replayed
// after a token refresh.
type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	anonymous   bool
}

func jsonRequest(method, path string, payload any) (request, error) {
	r := request{method: method, path: path}
	if payload == nil {
		return r, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return r, fmt.Errorf("failed to marshal request: %w", err)
	}
	r.body = data
	r.contentType = "application/json"
	return r, nil
}

// call sends r and decodes the (possibly enveloped) response into out.
func (c *Client) call(ctx context.Context, method, path string, payload, out any, envelope ...string) error {
	r, err := jsonRequest(method, path, payload)
	if err != nil {
		return err
	}
	body, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	return decode(body, out, envelope...)
}

// send runs r, refreshing the access token and retrying once on 401.
func (c *Client) send(ctx context.Context, r request) ([]byte, error) {
	used := c.tokens.Tokens().Access
	status, body, err := c.roundTrip(ctx, r, used)
	if err != nil {
		return nil, err
	}
	if status != http.StatusUnauthorized || r.anonymous {
		return checkStatus(status, body)
	}

	fresh, rerr := c.refresh(ctx, used)
	if errors.Is(rerr, context.Canceled) || errors.Is(rerr, context.DeadlineExceeded) {
		return nil, rerr
	}
	if rerr != nil {
		c.logger.Warn("token refresh failed", "path", r.path, "error", rerr)
		c.unauthorized()
		return nil, responseError(status, body)
	}

	status, body, err = c.roundTrip(ctx, r, fresh)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		c.unauthorized()
	}
	return checkStatus(status, body)
}

func (c *Client) roundTrip(ctx context.Context, r request, token string) (int, []byte, error) {
	u := c.resolve(r.path)
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	var reader io.Reader
	if r.body != nil {
		reader = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if token != "" && !r.anonymous {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, ctxErr
		}
		return 0, nil, networkError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, networkError(err)
	}
	c.logger.Debug("api call", "method", r.method, "path", r.path, "status", resp.StatusCode)
	return resp.StatusCode, body, nil
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + path
}

func checkStatus(status int, body []byte) ([]byte, error) {
	if status < 200 || status >= 300 {
		return nil, responseError(status, body)
	}
	return body, nil
}

// refresh exchanges the refresh token for a new access token. Concurrent
// callers share one request, which runs detached from any caller's ctx so a
// cancelled caller only stops waiting. If the token already changed since
// used was read, that token is returned without calling the backend.
func (c *Client) refresh(ctx context.Context, used string) (string, error) {
	ch := c.refreshGroup.DoChan("refresh", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()
		cur := c.tokens.Tokens()
		if cur.Access != "" && cur.Access != used {
			return cur.Access, nil
		}
		if cur.Refresh == "" {
			return "", errors.New("no refresh token")
		}
		r, err := jsonRequest(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": cur.Refresh})
		if err != nil {
			return "", err
		}
		r.anonymous = true
		body, err := c.send(rctx, r)
		if err != nil {
			return "", err
		}

		next := Tokens{
			Access:  firstString(body, "token", "accessToken", "data.token", "data.accessToken"),
			Refresh: firstString(body, "refreshToken", "data.refreshToken"),
		}
		if next.Access == "" {
			return "", errors.New("refresh response has no token")
		}
		if next.Refresh == "" {
			next.Refresh = cur.Refresh
		}
		if err := c.tokens.UpdateTokens(next); err != nil {
			return "", fmt.Errorf("store refreshed token: %w", err)
		}
		return next.Access, nil
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Client) unauthorized() {
	if err := c.tokens.ClearTokens(); err != nil {
		c.logger.Warn("failed to clear tokens", "error", err)
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

// decode unmarshals body into out, first unwrapping the first envelope key
// present that holds an object or array.
func decode(body []byte, out any, envelope ...string) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrap(body, envelope...), out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func unwrap(body []byte, keys ...string) []byte {
	for _, key := range keys {
		r := gjson.GetBytes(body, key)
		if r.IsObject() || r.IsArray() {
			return []byte(r.Raw)
		}
	}
	return body
}

func firstString(body []byte, paths ...string) string {
	for _, p := range paths {
		if r := gjson.GetBytes(body, p); r.Type == gjson.String && r.Str != "" {
			return r.Str
		}
	}
	return ""
}

// MemoryTokens is a TokenSource that lives only in memory.
type MemoryTokens struct {
	mu sync.Mutex
	t  Tokens
}

func (m *MemoryTokens) Tokens() Tokens {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.t
}

func (m *MemoryTokens) UpdateTokens(t Tokens) error {
	m.mu.Lock()
	m.t = t
	m.mu.Unlock()
	return nil
}

func (m *MemoryTokens) ClearTokens() error { return m.UpdateTokens(Tokens{}) }
