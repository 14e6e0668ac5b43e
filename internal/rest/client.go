package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/fasilahammed/snapmob-client/pkg/errors"
	"github.com/fasilahammed/snapmob-client/pkg/metrics"
	"github.com/fasilahammed/snapmob-client/pkg/types"
	"github.com/google/uuid"
)

const errorBodyReadLimit int64 = 2048

var errBaseURLRequired = errors.New("api base URL is required")

// TokenProvider supplies the current bearer token, or "" when signed out.
type TokenProvider func() string

// UnauthorizedHook runs when the backend answers 401 on an authenticated
// route. The session manager registers its teardown here so any stale-token
// response forces a global logout.
type UnauthorizedHook func()

// Client is the single HTTP doorway to the storefront backend. Every request
// carries the bearer token when one exists and an Idempotency-Key on
// mutations; every response is unwrapped from the uniform envelope.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          TokenProvider
	onUnauthorized UnauthorizedHook
	requestMetrics *metrics.RequestMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithTokenProvider wires the bearer-token source.
func WithTokenProvider(provider TokenProvider) Option {
	return func(c *Client) {
		if provider != nil {
			c.token = provider
		}
	}
}

// WithUnauthorizedHook registers the global 401 teardown.
func WithUnauthorizedHook(hook UnauthorizedHook) Option {
	return func(c *Client) {
		if hook != nil {
			c.onUnauthorized = hook
		}
	}
}

// WithMetrics enables request instrumentation.
func WithMetrics(m *metrics.RequestMetrics) Option {
	return func(c *Client) {
		if m != nil {
			c.requestMetrics = m
		}
	}
}

// NewClient builds the API client for the given backend base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		token:      func() string { return "" },
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Request describes one backend call.
type Request struct {
	Method string
	// Route is the metrics label, e.g. "/cart/{lineId}". Defaults to Path.
	Route string
	// Path is the concrete request path under the base URL.
	Path  string
	Query url.Values
	Body  any
	// Out receives the envelope's data payload when non-nil.
	Out any
	// RawOut receives the entire response body when non-nil, for endpoints
	// that put fields next to the envelope instead of inside data.
	RawOut any
	// SkipUnauthorizedHook suppresses the global teardown, used by the auth
	// endpoints themselves.
	SkipUnauthorizedHook bool
}

// Get issues a GET for the given path.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query, Out: out})
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body, Out: out})
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body, Out: out})
}

// Patch issues a PATCH with an optional JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body, Out: out})
}

// Delete issues a DELETE for the given path.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

// Do executes the request and unwraps the response envelope.
func (c *Client) Do(ctx context.Context, req Request) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "api client not configured")
	}
	if req.Method == "" || strings.TrimSpace(req.Path) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "request method and path are required")
	}

	route := req.Route
	if route == "" {
		route = req.Path
	}

	var bodyReader io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal request body")
		}
		bodyReader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.buildURL(req.Path, req.Query), bodyReader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}

	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	if isMutation(req.Method) {
		httpReq.Header.Set("Idempotency-Key", uuid.NewString())
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.requestMetrics.IncFailure(req.Method, route)
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, fmt.Sprintf("%s %s", req.Method, route))
	}
	defer func() { _ = resp.Body.Close() }()

	c.requestMetrics.ObserveRequest(req.Method, route, resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized && !req.SkipUnauthorizedHook && c.onUnauthorized != nil {
		c.onUnauthorized()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFromResponse(resp, req.Method, route)
	}

	if req.RawOut != nil {
		if err := json.NewDecoder(resp.Body).Decode(req.RawOut); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response body")
		}
		return nil
	}

	var envelope types.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response envelope")
	}
	if !envelope.OK() {
		code := pkgerrors.CodeForStatus(envelope.StatusCode)
		message := envelope.Message
		if message == "" {
			message = pkgerrors.MetadataFor(code).PublicMessage
		}
		return pkgerrors.New(code, message)
	}
	if req.Out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, req.Out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode envelope data")
		}
	}
	return nil
}

func (c *Client) errorFromResponse(resp *http.Response, method, route string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))

	code := pkgerrors.CodeForStatus(resp.StatusCode)
	message := pkgerrors.MetadataFor(code).PublicMessage

	var envelope types.Envelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Message != "" {
		message = envelope.Message
	}

	return pkgerrors.
		Wrap(code, fmt.Errorf("%s %s: status %d", method, route, resp.StatusCode), message)
}

func (c *Client) buildURL(path string, query url.Values) string {
	full := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
