/*
Package apiclient implements the single configured request pipeline used to talk to the backend.

Every request passes through two interception points. On the way out the
current session token is read from the token store and attached as a bearer
credential when it is valid, together with a request id; requests without a
valid token are still sent, unauthenticated. On the way back every non-2xx
response is classified into an errs code, with side effects for 401 (session
eviction and forced navigation to the login view). The original failure is
always returned to the caller.
*/
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"schoolhub/internal/app/tokenstore"
	"schoolhub/internal/pkg/errs"
	"schoolhub/internal/pkg/limiter"
	"schoolhub/internal/pkg/logx"
	"schoolhub/internal/pkg/randx"
)

// LoginPath is the view unauthenticated users are sent to.
const LoginPath = "/login"

// maxBodySize bounds how much of a response body is read.
const maxBodySize int64 = 10 << 20

// Navigator is the client-side navigation sink used to force the login view.
type Navigator interface {
	CurrentPath() string
	Redirect(path string)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient uses a copy of hc for requests. The copy's Timeout is
// overridden by the configured request timeout; hc itself is left untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc == nil {
			return
		}
		cp := *hc
		c.http = &cp
	}
}

// WithRateLimiter throttles outgoing requests.
func WithRateLimiter(l *limiter.HostRateLimiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithNavigator sets the navigation sink used on 401.
func WithNavigator(n Navigator) Option {
	return func(c *Client) { c.navigator = n }
}

// Client is the shared request pipeline.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  *tokenstore.Store
	limiter *limiter.HostRateLimiter

	mu             sync.RWMutex
	navigator      Navigator
	onUnauthorized func(context.Context)
}

// New builds a Client for baseURL. timeout bounds every request; a timed-out
// request surfaces as errs.ErrNetwork.
func New(baseURL string, timeout time.Duration, tokens *tokenstore.Store, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q: missing host", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Transport: logx.Transport(nil)},
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.Timeout = timeout

	return c, nil
}

// SetNavigator sets the navigation sink used on 401.
func (c *Client) SetNavigator(n Navigator) {
	c.mu.Lock()
	c.navigator = n
	c.mu.Unlock()
}

// OnUnauthorized registers fn to run after session data is evicted on a 401.
func (c *Client) OnUnauthorized(fn func(context.Context)) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// Get issues a GET request and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST request with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT request with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete issues a DELETE request and decodes the response into out.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do sends one request. body is JSON-encoded when not nil; a 2xx response body
// is decoded into out when out is not nil. Failures are *errs.CustomError values.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		logx.Error(err, "apiclient: request setup failed", "method", method, "path", path)
		return errs.Wrap(errs.ErrClient, err)
	}

	if err := c.limiter.Wait(ctx, req.URL.Host); err != nil {
		logx.Error(err, "apiclient: request throttled and abandoned", "method", method, "path", path)
		return errs.Wrap(errs.ErrClient, err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		logx.Error(err, "Network error", "method", method, "path", path)
		return errs.Wrap(errs.ErrNetwork, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		logx.Error(err, "Network error while reading response", "method", method, "path", path)
		return errs.Wrap(errs.ErrNetwork, err).WithStatus(res.StatusCode)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return c.handleError(ctx, res.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		logx.Error(err, "apiclient: undecodable response body", "method", method, "path", path)
		return errs.Wrap(errs.ErrAPI, err).
			WithStatus(res.StatusCode).
			WithMessage("Unexpected response from server.")
	}
	return nil
}

// newRequest builds the request and applies the outgoing interception.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(logx.RequestIDHeader, randx.RequestID())

	if token, ok := c.tokens.Token(ctx); ok && tokenstore.IsValid(token) {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, nil
}
