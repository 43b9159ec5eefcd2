// Package api implements the authenticated HTTP client for the ordering
// backend. It owns bearer-token attachment, the CSRF header dance, the
// cookie jar that carries the server session, and the one-shot refresh
// retry on expired access tokens.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"storefront-client/internal/model"
	"storefront-client/internal/token"
	"storefront-client/internal/transport"
)

// userAgent identifies this client upstream. The backend's CDN rate-limits
// requests without one.
const userAgent = "storefront-client/1.0"

// csrfCookie / csrfHeader implement the backend's double-submit CSRF scheme:
// the value of the csrftoken cookie must be echoed back in a header on every
// unsafe method.
const (
	csrfCookie = "csrftoken"
	csrfHeader = "X-CSRFToken"
)

// Config holds client construction settings.
type Config struct {
	// BaseURL is the backend origin, e.g. "https://order.example.com".
	BaseURL string

	// Tokens is the persistent credential store.
	Tokens *token.Store

	// BrowserTLS enables the Chrome-fingerprint transport. Leave off for
	// local backends and tests.
	BrowserTLS bool

	Timeout time.Duration
	Logger  *slog.Logger
}

// Client is the authenticated request client. Safe for concurrent use; a
// single refresh is in flight at a time and concurrent 401s wait for it.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  *token.Store
	log     *slog.Logger

	// refreshMu serializes token refresh. refreshPaths is the ordered list
	// of refresh endpoints to try; deployments moved this route once, so
	// both spellings remain live in the wild. See Probe.
	refreshMu    sync.Mutex
	refreshPaths []string
}

// New creates a client for the given backend.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token store is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// The jar holds the backend's session and csrftoken cookies. Scoping by
	// public suffix keeps a hostile redirect from reading them back.
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Jar:       jar,
			Transport: transport.New(cfg.BrowserTLS, timeout),
		},
		tokens:       cfg.Tokens,
		log:          logger,
		refreshPaths: defaultRefreshPaths(),
	}, nil
}

// BaseURL returns the backend origin the client was built for.
// LoggedIn reports whether an access token is stored. It says nothing about
// the token's validity; the backend decides that.
func (c *Client) LoggedIn() bool {
	return c.tokens.Access() != ""
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Cookies returns the jar's cookies for the backend origin. Used by the
// session bridge to check whether a server session cookie is present.
func (c *Client) Cookies() []*http.Cookie {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil
	}
	return c.http.Jar.Cookies(u)
}

// Get issues an authenticated GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Do issues an authenticated request. On a 401 it refreshes the access token
// once and retries the original request once; if the retry still gets a 401
// that *model.RequestError is returned as-is (it unwraps to
// model.ErrUnauthorized). Every other non-2xx response returns a
// *model.RequestError. Credentials are cleared only when the refresh
// endpoint itself rejects the refresh token.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	err := c.doOnce(ctx, method, path, body, out)
	if err == nil {
		return nil
	}

	reqErr, ok := asRequestError(err)
	if !ok || reqErr.Status != http.StatusUnauthorized {
		return err
	}
	if c.tokens.Refresh() == "" {
		return err
	}

	if refreshErr := c.RefreshTokens(ctx); refreshErr != nil {
		return refreshErr
	}

	c.log.Debug("retrying after token refresh", "method", method, "path", path)
	return c.doOnce(ctx, method, path, body, out)
}

// doOnce performs a single request attempt with no retry.
func (c *Client) doOnce(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return model.NewUpstreamError("backend", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		reqErr := &model.RequestError{Status: resp.StatusCode, Body: respBody}
		if resp.StatusCode == http.StatusTooManyRequests {
			reqErr.RateLimit = parseRateLimit(resp.Header)
			c.logRateLimit(method, path, reqErr.RateLimit)
		}
		return reqErr
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			// Some endpoints answer success with an HTML page or a
			// truncated body; callers treat those as empty results.
			c.log.Debug("ignoring unparsable success body",
				"method", method, "path", path, "error", err)
		}
	}
	return nil
}

// setHeaders attaches the standard header set: JSON content negotiation,
// bearer auth when logged in, and the CSRF echo on unsafe methods.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if access := c.tokens.Access(); access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		if tok := c.cookieValue(csrfCookie); tok != "" {
			req.Header.Set(csrfHeader, tok)
		}
	}
}

// cookieValue returns the named cookie's value from the jar, or "".
func (c *Client) cookieValue(name string) string {
	for _, ck := range c.Cookies() {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

func (c *Client) logRateLimit(method, path string, info *model.RateLimitInfo) {
	if info == nil {
		c.log.Warn("rate limited", "method", method, "path", path)
		return
	}
	c.log.Warn("rate limited",
		"method", method,
		"path", path,
		"limit", info.Limit,
		"remaining", info.Remaining,
		"reset_secs", info.ResetSecs,
	)
}

func asRequestError(err error) (*model.RequestError, bool) {
	var reqErr *model.RequestError
	if errors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}
