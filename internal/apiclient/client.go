// Package apiclient is the single chokepoint for calls to the upstream
// AG Office API. Every request carries the current bearer token; any
// authentication-rejected response fires the client's unauthorized hook
// before the caller sees ErrUnauthenticated.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/ag-office-console/pkg/errors"
	"github.com/noah-isme/ag-office-console/pkg/middleware/requestid"
)

const defaultTimeout = 15 * time.Second

// TokenSource yields the access token to attach to outgoing requests. An
// empty string means no token.
type TokenSource interface {
	AccessToken(ctx context.Context) string
}

// UnauthorizedFunc is invoked synchronously when a response is rejected with
// 401 outside of a credential check.
type UnauthorizedFunc func(ctx context.Context)

// Config describes how to reach the upstream.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

// NewHTTPClient returns the http.Client shared by every Client built from cfg.
func NewHTTPClient(cfg Config) *http.Client {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Client calls the upstream on behalf of one session.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	tokens    TokenSource
	logger    *zap.Logger

	mu             sync.RWMutex
	onUnauthorized UnauthorizedFunc
}

// New constructs a Client. tokens may be nil for anonymous use.
func New(cfg Config, tokens TokenSource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      NewHTTPClient(cfg),
		tokens:    tokens,
		logger:    logger,
	}
}

// OnUnauthorized registers the hook fired on authentication-rejected
// responses, replacing any previous one.
func (c *Client) OnUnauthorized(fn UnauthorizedFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

type apiRequest struct {
	method  string
	path    string
	query   url.Values
	headers map[string]string
	form    url.Values
	body    interface{}
	respObj interface{}

	// rejected replaces the unauthorized event for endpoints where a 401
	// means "wrong secret" rather than "session lost".
	rejected *appErrors.Error
	// authenticated keeps 401 as session loss on calls made with a bearer
	// token; rejected then covers only 400, 403 and 422.
	authenticated bool
	// malformed is returned when the response body cannot be decoded.
	malformed *appErrors.Error
}

func (c *Client) do(ctx context.Context, req apiRequest) error {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("upstream request failed",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Error(err),
		)
		return appErrors.WrapAs(appErrors.ErrNetworkOrServer, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("upstream request",
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
		zap.String("request_id", requestid.FromContext(ctx)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(ctx, req, resp)
	}

	if req.respObj == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return appErrors.WrapAs(appErrors.ErrNetworkOrServer, fmt.Errorf("read response body: %w", err))
	}
	if err := decode(raw, req.respObj); err != nil {
		malformed := req.malformed
		if malformed == nil {
			malformed = appErrors.ErrNetworkOrServer
		}
		return appErrors.WrapAs(malformed, fmt.Errorf("decode %s %s: %w", req.method, req.path, err))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req apiRequest) (*http.Request, error) {
	var body io.Reader
	contentType := ""
	switch {
	case req.form != nil:
		body = strings.NewReader(req.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.body != nil:
		raw, err := json.Marshal(req.body)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode request body")
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}

	target := c.baseURL + "/" + strings.TrimLeft(req.path, "/")
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build upstream request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if id := requestid.FromContext(ctx); id != "" {
		httpReq.Header.Set(requestid.HeaderKey, id)
	}
	if c.tokens != nil {
		if token := c.tokens.AccessToken(ctx); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

func (c *Client) statusError(ctx context.Context, req apiRequest, resp *http.Response) error {
	// Drain so the connection can be reused; the upstream's message is not
	// surfaced to users.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	cause := fmt.Errorf("%s %s: upstream returned %d", req.method, req.path, resp.StatusCode)

	if req.rejected != nil {
		switch resp.StatusCode {
		case http.StatusBadRequest, http.StatusForbidden, http.StatusUnprocessableEntity:
			return appErrors.WrapAs(req.rejected, cause)
		case http.StatusUnauthorized:
			if !req.authenticated {
				return appErrors.WrapAs(req.rejected, cause)
			}
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.logger.Info("upstream rejected authentication",
			zap.String("method", req.method),
			zap.String("path", req.path),
		)
		c.fireUnauthorized(ctx)
		return appErrors.WrapAs(appErrors.ErrUnauthenticated, cause)
	case resp.StatusCode == http.StatusForbidden:
		return appErrors.WrapAs(appErrors.ErrForbidden, cause)
	case resp.StatusCode == http.StatusNotFound:
		return appErrors.WrapAs(appErrors.ErrNotFound, cause)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return appErrors.WrapAs(appErrors.ErrValidation, cause)
	default:
		return appErrors.WrapAs(appErrors.ErrNetworkOrServer, cause)
	}
}

func (c *Client) fireUnauthorized(ctx context.Context) {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn(ctx)
	}
}

// decode accepts both bare payloads and payloads wrapped in a {"data": ...}
// envelope.
func decode(raw []byte, dest interface{}) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		raw = envelope.Data
	}
	return json.Unmarshal(raw, dest)
}
