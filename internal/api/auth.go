package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/mod/semver"

	"storefront-client/internal/model"
)

// Auth endpoints. The refresh route moved from /api/auth/refresh/ to
// /api/auth/token/refresh/ in backend 2.x; both are kept as candidates and
// tried in order. Probe reorders them when the backend's version is known.
const (
	pathTokenObtain   = "/api/auth/token/"
	pathRefreshNew    = "/api/auth/token/refresh/"
	pathRefreshLegacy = "/api/auth/refresh/"
	pathRegister      = "/api/auth/register/"
	pathLogout        = "/api/auth/logout/"
	pathWhoami        = "/api/auth/whoami/"
	pathVersion       = "/api/version/"
)

// refreshRouteCutover is the backend version that introduced the new refresh
// route.
const refreshRouteCutover = "v2.0.0"

func defaultRefreshPaths() []string {
	return []string{pathRefreshNew, pathRefreshLegacy}
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Identity is the backend's answer to "who am I".
type Identity struct {
	Authenticated bool   `json:"authenticated"`
	ID            int    `json:"id,omitempty"`
	Username      string `json:"username,omitempty"`
	Email         string `json:"email,omitempty"`
}

// Login exchanges credentials for a token pair and stores it.
func (c *Client) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return model.NewValidationError("credentials", "username and password are required")
	}

	var pair tokenPair
	body := map[string]string{"username": username, "password": password}
	if err := c.doOnce(ctx, http.MethodPost, pathTokenObtain, body, &pair); err != nil {
		if reqErr, ok := asRequestError(err); ok && reqErr.Status == http.StatusUnauthorized {
			return model.NewUnauthorizedError(orDefault(reqErr.Detail(), "invalid credentials"))
		}
		return err
	}
	if pair.Access == "" {
		return model.NewUpstreamError("backend", errors.New("token response missing access token"))
	}

	c.log.Info("logged in", "username", username)
	return c.tokens.Set(pair.Access, pair.Refresh)
}

// Register creates an account and stores the token pair the backend returns
// alongside it.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	var resp struct {
		tokenPair
		Detail string `json:"detail"`
	}
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := c.doOnce(ctx, http.MethodPost, pathRegister, body, &resp); err != nil {
		return err
	}
	if resp.Access == "" {
		// Some deployments require a follow-up login after registration.
		return c.Login(ctx, username, password)
	}
	return c.tokens.Set(resp.Access, resp.Refresh)
}

// Logout tells the backend to drop the server session, then clears local
// credentials. The local clear happens even when the backend call fails:
// being unable to reach the server is not a reason to stay logged in.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doOnce(ctx, http.MethodPost, pathLogout, struct{}{}, nil)
	if clearErr := c.tokens.Clear(); clearErr != nil {
		return clearErr
	}
	if err != nil {
		c.log.Warn("backend logout failed, local credentials cleared anyway", "error", err)
	}
	return nil
}

// Whoami asks the backend whether the current session cookie is authenticated.
// Unreachable or erroring backends read as anonymous.
func (c *Client) Whoami(ctx context.Context) Identity {
	var id Identity
	if err := c.doOnce(ctx, http.MethodGet, pathWhoami, nil, &id); err != nil {
		return Identity{}
	}
	return id
}

// RefreshTokens rotates the access token using the stored refresh token.
// Candidates are tried in order; 404 and 405 mean "wrong route on this
// deployment", anything else is the real answer. A refresh rejection clears
// stored credentials so the caller lands in a clean logged-out state.
func (c *Client) RefreshTokens(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	refresh := c.tokens.Refresh()
	if refresh == "" {
		return model.NewUnauthorizedError("no refresh token")
	}

	body := map[string]string{"refresh": refresh}
	for _, path := range c.refreshPaths {
		var pair tokenPair
		err := c.doOnce(ctx, http.MethodPost, path, body, &pair)
		if err == nil {
			if pair.Access == "" {
				// A 2xx without an access token is not a refresh;
				// some routes answer 200 to unknown payloads.
				c.log.Debug("refresh endpoint returned no access token", "path", path)
				continue
			}
			c.log.Debug("access token refreshed", "path", path)
			return c.tokens.Set(pair.Access, pair.Refresh)
		}

		if reqErr, ok := asRequestError(err); ok {
			switch reqErr.Status {
			case http.StatusNotFound, http.StatusMethodNotAllowed:
				continue
			case http.StatusUnauthorized, http.StatusForbidden:
				// Refresh token expired or revoked.
				if clearErr := c.tokens.Clear(); clearErr != nil {
					return clearErr
				}
				return model.NewUnauthorizedError("session expired, please log in again")
			}
		}
		return fmt.Errorf("refreshing token: %w", err)
	}

	if clearErr := c.tokens.Clear(); clearErr != nil {
		return clearErr
	}
	return model.NewUnauthorizedError("no refresh endpoint answered")
}

// Probe asks the backend for its version and reorders the refresh candidates
// accordingly, so the first refresh attempt is the one that will succeed.
// Probe is best-effort: an unreachable or versionless backend leaves the
// default order in place.
func (c *Client) Probe(ctx context.Context) {
	var resp struct {
		APIVersion string `json:"api_version"`
	}
	if err := c.doOnce(ctx, http.MethodGet, pathVersion, nil, &resp); err != nil {
		c.log.Debug("version probe failed, keeping default refresh order", "error", err)
		return
	}

	v := "v" + resp.APIVersion
	if !semver.IsValid(v) {
		c.log.Debug("version probe returned unparseable version", "api_version", resp.APIVersion)
		return
	}

	c.refreshMu.Lock()
	if semver.Compare(v, refreshRouteCutover) >= 0 {
		c.refreshPaths = []string{pathRefreshNew, pathRefreshLegacy}
	} else {
		c.refreshPaths = []string{pathRefreshLegacy, pathRefreshNew}
	}
	first := c.refreshPaths[0]
	c.refreshMu.Unlock()
	c.log.Debug("version probe complete", "api_version", resp.APIVersion, "refresh_path", first)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
