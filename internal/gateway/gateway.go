// Package gateway is the single chokepoint for all remote calls. It attaches
// credentials, renews them when stale, and normalizes every failure into a
// domain error so downstream consumers match on a closed set of codes.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fastygo/client/api/transport"
	"github.com/fastygo/client/domain"
	"github.com/fastygo/client/internal/notifier"
	"github.com/fastygo/client/repository"
)

const (
	// DefaultSkew is subtracted from the token expiry so renewal happens
	// before the server would actually reject the token.
	DefaultSkew = 30 * time.Second

	DefaultTimeout = 10 * time.Second
)

// Client routes every outbound request. Callers never handle token
// attachment or refresh themselves.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	creds   repository.CredentialRepository
	bus     *notifier.Bus
	logger  *zap.Logger

	skew    time.Duration
	timeout time.Duration
	now     func() time.Time

	refresh singleflight.Group
}

// Option customizes a Client.
type Option func(*Client)

func WithSkew(skew time.Duration) Option {
	return func(c *Client) {
		if skew > 0 {
			c.skew = skew
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithClock overrides the time source; tests use it to age tokens.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a gateway client bound to the given base URL and credential
// store. Events published on the bus are the only side channel.
func New(baseURL string, creds repository.CredentialRepository, bus *notifier.Bus, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &fasthttp.Client{},
		creds:   creds,
		bus:     bus,
		logger:  logger,
		skew:    DefaultSkew,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// JSON performs an authenticated request and decodes the response body into
// out. A successful response with a non-JSON body leaves out untouched.
func (c *Client) JSON(ctx context.Context, method, path string, body, out interface{}) error {
	return c.do(ctx, method, path, body, out, true)
}

// JSONNoAuth performs a request on the credential-exempt path (login, signup,
// refresh), attaching no Authorization header and triggering no refresh.
func (c *Client) JSONNoAuth(ctx context.Context, method, path string, body, out interface{}) error {
	return c.do(ctx, method, path, body, out, false)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, authed bool) error {
	if err := ctx.Err(); err != nil {
		return domain.WrapError(domain.ErrCodeUnavailable, "request aborted", err)
	}

	var token string
	if authed {
		var err error
		token, err = c.usableToken(ctx)
		if err != nil {
			return err
		}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "failed to encode request body", err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	deadline := c.now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		c.logger.Warn("request transport failure",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return domain.WrapError(domain.ErrCodeUnavailable, "request failed", err)
	}

	status := resp.StatusCode()
	respBody := append([]byte(nil), resp.Body()...)

	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		if out == nil || len(respBody) == 0 {
			return nil
		}
		if !isJSON(resp) {
			// Successful non-JSON bodies yield an empty result, not an error.
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "failed to decode response body", err)
		}
		return nil
	}

	if authed && status == http.StatusUnauthorized {
		// The token the server just rejected is never retried. Tear down the
		// session and announce it on the bus.
		c.clearCredentials()
		c.publishExpired()
		return domain.NewAPIError(domain.ErrCodeSessionExpired, "session expired, please login again", status)
	}

	return normalizeError(status, respBody)
}

// usableToken returns an access token valid past the skew window, refreshing
// it first when necessary.
func (c *Client) usableToken(ctx context.Context) (string, error) {
	session, err := c.creds.LoadSession()
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeInternal, "failed to load credentials", err)
	}
	if session == nil {
		return "", domain.ErrNoSession
	}
	if !session.IsExpired(c.now(), c.skew) {
		return session.AccessToken, nil
	}

	refreshed, err := c.refreshSession(ctx)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

func (c *Client) clearCredentials() {
	if err := c.creds.ClearSession(); err != nil {
		c.logger.Warn("failed to clear session", zap.Error(err))
	}
	if err := c.creds.ClearUser(); err != nil {
		c.logger.Warn("failed to clear cached user", zap.Error(err))
	}
}

func (c *Client) publishExpired() {
	if c.bus != nil {
		c.bus.Publish(notifier.EventTokenExpired)
	}
}

// normalizeError maps a failure response onto the closed domain error set.
// Non-JSON failure bodies are synthesized from the HTTP status.
func normalizeError(status int, body []byte) error {
	var parsed transport.ErrorBody
	message := http.StatusText(status)
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		message = parsed.Message
	}

	code := domain.ErrCodeInternal
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		code = domain.ErrCodeInvalid
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		code = domain.ErrCodeUnauthorized
	case status == http.StatusNotFound:
		code = domain.ErrCodeNotFound
	case status == http.StatusConflict:
		code = domain.ErrCodeConflict
	case status >= http.StatusInternalServerError:
		code = domain.ErrCodeInternal
	}
	return domain.NewAPIError(code, message, status)
}

func isJSON(resp *fasthttp.Response) bool {
	return strings.Contains(string(resp.Header.ContentType()), "application/json")
}
