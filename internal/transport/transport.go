// Package transport builds the HTTP round-trippers the storefront client
// talks to the ordering backend with.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// New returns the round-tripper for the given settings. When browserTLS is
// off this is a plain http.Transport; when on, a transport that presents a
// Chrome ClientHello. The ordering backend commonly sits behind a CDN whose
// bot heuristics flag Go's stock TLS fingerprint, and a flagged client gets
// tarpitted with 429s long before it hits any real rate limit.
func New(browserTLS bool, timeout time.Duration) http.RoundTripper {
	if !browserTLS {
		return &http.Transport{
			DialContext:       (&net.Dialer{Timeout: timeout}).DialContext,
			ForceAttemptHTTP2: true,
		}
	}
	return newBrowserTransport(timeout)
}

// browserTransport pairs an HTTP/2 and an HTTP/1.1 transport that both dial
// TLS through uTLS with HelloChrome_Auto. ALPN is negotiated by the hello
// itself; h2 is tried first and HTTP/1.1 covers origins that never upgraded.
type browserTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

func newBrowserTransport(timeout time.Duration) *browserTransport {
	dialer := &net.Dialer{Timeout: timeout}

	return &browserTransport{
		h2: &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialBrowserTLS(ctx, dialer, network, addr)
			},
		},
		h1: &http.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialBrowserTLS(ctx, dialer, network, addr)
			},
			ForceAttemptHTTP2: false,
		},
	}
}

// RoundTrip tries HTTP/2 first and falls back to HTTP/1.1 when the origin
// refuses h2 framing.
func (t *browserTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	return t.h1.RoundTrip(req)
}

// dialBrowserTLS opens a TCP connection and completes a uTLS handshake with
// Chrome's current ClientHello.
func dialBrowserTLS(ctx context.Context, dialer *net.Dialer, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloChrome_Auto)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake with %s: %w", host, err)
	}
	return tlsConn, nil
}
