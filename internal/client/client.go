// Package client is the data access façade. Every operation attempts the
// backend first and, when the backend is unreachable or failing, transparently
// serves the equivalent operation from the durable local store with the same
// result shape. Genuine application rejections (validation, auth, conflicts)
// are never masked by the fallback.
package client

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

	"go.uber.org/zap"

	"careconnect.org/internal/localstore"
	"careconnect.org/internal/obs"
	"careconnect.org/internal/session"
)

// Client is the façade over the remote API and the local fallback store.
// Fallback operations are serialized by a client-level mutex so two logically
// concurrent calls from the same client cannot interleave a read-modify-write;
// separate processes sharing the store file remain last-write-wins.
type Client struct {
	baseURL string
	http    *http.Client
	local   *localstore.Store
	session *session.Store
	log     *zap.Logger

	// delay simulates remote latency before a fallback answer, so the
	// application behaves the same whether or not the backend is up.
	delay time.Duration

	localMu sync.Mutex
}

// Option tweaks client construction.
type Option func(*Client)

// WithHTTPClient replaces the transport, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithFallbackDelay adds an artificial pause before serving a fallback
// result.
func WithFallbackDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

// New builds a façade talking to baseURL, falling back to local, with the
// session held in sess.
func New(baseURL string, local *localstore.Store, sess *session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		local:   local,
		session: sess,
		log:     obs.Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session exposes the session store so callers can subscribe to identity
// changes.
func (c *Client) Session() *session.Store { return c.session }

// doJSON performs one remote call: marshals body, attaches the bearer token
// when a session exists, and decodes the response into out. Failures come
// back as either a transport error (no usable response) or a status error
// carrying the server's message. A 401 clears the session before the error
// propagates, so every holder of the session observes the forced logout.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return &transportError{err: err}
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.session.Current().Token; tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := decodeErrorMessage(resp.Body)
		if resp.StatusCode == http.StatusUnauthorized {
			c.session.Clear()
		}
		return &statusError{status: resp.StatusCode, message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &transportError{err: err}
	}
	return nil
}

// decodeErrorMessage pulls the human-readable message out of an error
// payload. Both the `error` and `message` envelope styles are accepted;
// anything else yields the fixed generic message so a raw network or JSON
// string never reaches the user.
func decodeErrorMessage(r io.Reader) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&payload); err != nil {
		return genericMessage
	}
	if payload.Error != "" {
		return payload.Error
	}
	if payload.Message != "" {
		return payload.Message
	}
	return genericMessage
}

// pause waits the configured fallback delay, respecting cancellation.
func (c *Client) pause(ctx context.Context) {
	if c.delay <= 0 {
		return
	}
	t := time.NewTimer(c.delay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
