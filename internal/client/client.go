// Package client is the single HTTP entry point to the Bagasi API.
//
// Every request carries the persisted bearer token when one exists. A 401 removes
// the token. A 403 "Account is deactivated" keeps it and resolves the call with a
// payload marking the account inactive, so callers branch on account state
// instead of on an error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/abyuwono/bagasi/internal/domain/account"
	"github.com/abyuwono/bagasi/internal/localstore"
)

// deactivatedPayload is what a deactivated-account 403 resolves to.
var deactivatedPayload = []byte(`{"active":false,"deactivated":true,"user":{"active":false},"message":"` + account.DeactivatedMessage + `"}`)

// APIError is any non-2xx response other than the deactivated-account 403.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

func IsStatus(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == status
}

func IsUnauthorized(err error) bool { return IsStatus(err, http.StatusUnauthorized) }

type Client struct {
	base           string
	http           *http.Client
	store          localstore.Store
	onUnauthorized func()
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithUnauthorizedHook runs after a 401 removed the token.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func New(baseURL string, store localstore.Store, opts ...Option) *Client {
	c := &Client{
		base:  strings.TrimRight(baseURL, "/"),
		http:  &http.Client{Timeout: 30 * time.Second},
		store: store,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.base }

// Token returns the persisted token, empty when logged out.
func (c *Client) Token(ctx context.Context) string {
	tok, ok, err := c.store.Get(ctx, localstore.KeyToken)
	if err != nil {
		slog.WarnContext(ctx, "token read failed", "err", err)
		return ""
	}
	if !ok {
		return ""
	}
	return tok
}

func (c *Client) SetToken(ctx context.Context, token string) error {
	return c.store.Set(ctx, localstore.KeyToken, token)
}

func (c *Client) ClearToken(ctx context.Context) error {
	return c.store.Remove(ctx, localstore.KeyToken)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

// Do sends one request and decodes a successful JSON response into out (when non-nil).
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return decode(raw, out)
	}
	return c.intercept(ctx, resp.StatusCode, raw, out)
}

func (c *Client) intercept(ctx context.Context, status int, raw []byte, out any) error {
	msg := errorMessage(raw)

	switch {
	case status == http.StatusUnauthorized:
		if err := c.ClearToken(ctx); err != nil {
			slog.WarnContext(ctx, "token clear failed", "err", err)
		}
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	case status == http.StatusForbidden && msg == account.DeactivatedMessage:
		// list results have no field for the account state and resolve empty
		var te *json.UnmarshalTypeError
		if err := decode(deactivatedPayload, out); err != nil && !errors.As(err, &te) {
			return err
		}
		return nil
	}

	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: msg}
}

func decode(raw []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return strings.TrimSpace(string(raw))
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

// Stream opens a server-sent-events response. The caller closes the body.
func (c *Client) Stream(ctx context.Context, path string) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	// no client timeout; the context bounds the stream
	h := *c.http
	h.Timeout = 0
	resp, err := h.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		if err := c.intercept(ctx, resp.StatusCode, raw, nil); err != nil {
			return nil, err
		}
		// a deactivated account has no stream to open
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	return resp.Body, nil
}
