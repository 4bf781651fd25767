// Package api implements the typed REST client for the storefront
// backend. Client.Do is the guarded request primitive: it refuses to go
// to the network without a credential, attaches the bearer header, and
// maps authentication and authorization rejections onto the hooks the
// session context installs. Everything else in the package is a thin
// typed wrapper over it.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"storefront-client/internal/domain"
	"storefront-client/internal/store"
)

// AuthFailure tells the OnAuthRequired hook why the credential was
// unusable.
type AuthFailure int

const (
	// AuthMissing means no credential was present before the request.
	AuthMissing AuthFailure = iota
	// AuthRejected means the backend answered 401.
	AuthRejected
)

// Doer is the plain request primitive the guarded fetch composes over.
// *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Client. Hooks are optional; a nil hook is skipped.
type Options struct {
	BaseURL string
	HTTP    Doer
	Tokens  store.TokenStore
	Logger  *zap.Logger

	// OnAuthRequired fires when an authenticated call cannot proceed:
	// either no credential was stored or the backend rejected it.
	OnAuthRequired func(failure AuthFailure)
	// OnForbidden fires on 403; the session survives, the user is told.
	OnForbidden func()
	// OnNetworkError fires when the request never produced a response.
	OnNetworkError func()
}

// Client talks to the storefront backend.
type Client struct {
	baseURL string
	http    Doer
	tokens  store.TokenStore
	logger  *zap.Logger

	onAuthRequired func(AuthFailure)
	onForbidden    func()
	onNetworkError func()
}

func New(opts Options) *Client {
	httpClient := opts.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		http:           httpClient,
		tokens:         opts.Tokens,
		logger:         logger,
		onAuthRequired: opts.OnAuthRequired,
		onForbidden:    opts.OnForbidden,
		onNetworkError: opts.OnNetworkError,
	}
}

// APIError carries an application-level error response from the backend.
type APIError struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("api error (status %d)", e.Status)
}

// envelope covers the response shapes the backend uses: single objects
// and lists under "data", flash text under "message", 422 field errors
// under "errors", paginator info under "meta".
type envelope struct {
	Data    json.RawMessage     `json:"data"`
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
	Meta    *domain.PageMeta    `json:"meta"`
}

// Do performs an authenticated request. A missing credential fails the
// call before any network activity; 401 and 403 are intercepted per the
// session contract; every other response is returned for the caller to
// interpret.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	token := c.tokens.Token()
	if token == "" {
		c.logger.Debug("authenticated call without credential", zap.String("path", path))
		if c.onAuthRequired != nil {
			c.onAuthRequired(AuthMissing)
		}
		return nil, domain.ErrNotAuthenticated
	}

	resp, err := c.send(ctx, method, path, body, token)
	if err != nil {
		if c.onNetworkError != nil {
			c.onNetworkError()
		}
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		drain(resp)
		c.logger.Debug("credential rejected", zap.String("path", path))
		if c.onAuthRequired != nil {
			c.onAuthRequired(AuthRejected)
		}
		return nil, domain.ErrSessionExpired
	case http.StatusForbidden:
		drain(resp)
		if c.onForbidden != nil {
			c.onForbidden()
		}
		return nil, domain.ErrForbidden
	}
	return resp, nil
}

// send is the plain primitive: build, attach headers, fire. Public
// endpoints use it with an empty token.
func (c *Client) send(ctx context.Context, method, path string, body interface{}, token string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.http.Do(req)
}

// decodeEnvelope reads and closes the response body. Non-2xx statuses
// become *APIError carrying the backend's message.
func (c *Client) decodeEnvelope(resp *http.Response) (*envelope, error) {
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &env); err != nil {
				c.logger.Warn("undecodable response body",
					zap.Int("status", resp.StatusCode),
					zap.Error(err))
				env = envelope{}
			}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg, Fields: env.Errors}
	}
	return &env, nil
}

// dataInto unmarshals env.Data into out, degrading a missing or
// malformed payload to the zero value instead of failing the call.
func (c *Client) dataInto(env *envelope, out interface{}) {
	if len(env.Data) == 0 {
		return
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		c.logger.Warn("response data shape mismatch", zap.Error(err))
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
