package session

import (
	"context"
	"log/slog"
	"net/http"

	"storefront-client/internal/api"
	"storefront-client/internal/model"
)

const pathSession = "/api/auth/session/"

// Bridge turns token auth into a server cookie session. Server-rendered
// pages (the checkout handoff target in particular) authenticate by session
// cookie, not bearer token, so the bridge must run before any redirect to
// one of them.
type Bridge struct {
	api *api.Client
	log *slog.Logger
}

// NewBridge creates a bridge over the given client.
func NewBridge(client *api.Client, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{api: client, log: logger}
}

// EnsureSession makes sure the backend's cookie session is authenticated.
// Idempotent: an already-authenticated session is left alone. With only a
// bearer token, the session endpoint is called and the backend sets the
// session cookie into the client's jar. With neither, the user must log in.
func (b *Bridge) EnsureSession(ctx context.Context) error {
	// Without an access token there is nothing to exchange; skip the
	// network round trips entirely.
	if !b.api.LoggedIn() {
		return model.NewUnauthorizedError("no access token to exchange for a session")
	}

	if id := b.api.Whoami(ctx); id.Authenticated {
		return nil
	}

	// Best-effort exchange; the verifying re-query is the real answer.
	if err := b.api.Do(ctx, http.MethodPost, pathSession, struct{}{}, nil); err != nil {
		b.log.Warn("session exchange failed", "error", err)
	}

	// Trust but verify: the cookie must actually have landed.
	if id := b.api.Whoami(ctx); !id.Authenticated {
		return model.NewUnauthorizedError("server session not established")
	}
	b.log.Debug("server session established")
	return nil
}

// HasSessionCookie reports whether a session cookie is present in the jar.
// A present cookie may still be expired; EnsureSession is the real check.
func (b *Bridge) HasSessionCookie() bool {
	for _, ck := range b.api.Cookies() {
		if ck.Name == "sessionid" {
			return true
		}
	}
	return false
}
