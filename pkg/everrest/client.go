package everrest

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

	"github.com/angelmondragon/storefront-core/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/sony/gobreaker/v2"
)

const (
	DefaultBaseURL = "https://api.everrest.educata.dev"

	defaultTimeout         = 10 * time.Second
	errorBodyReadLimit     = 4096
	defaultBreakerFailures = 5
	defaultBreakerTimeout  = 30 * time.Second
)

// Client wraps the EverREST shop endpoints. It carries no business logic.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

// Option configures optional client behavior.
type Option func(*options)

type options struct {
	httpClient      *http.Client
	baseURL         string
	breakerFailures uint32
	breakerTimeout  time.Duration
	onStateChange   func(name string, from, to gobreaker.State)
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithBaseURL overrides the shop API base URL.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			o.baseURL = trimmed
		}
	}
}

// WithBreaker tunes the circuit breaker guarding every call.
func WithBreaker(maxFailures uint32, openTimeout time.Duration) Option {
	return func(o *options) {
		if maxFailures > 0 {
			o.breakerFailures = maxFailures
		}
		if openTimeout > 0 {
			o.breakerTimeout = openTimeout
		}
	}
}

// WithStateChangeHook observes breaker transitions (used for logging).
func WithStateChangeHook(fn func(name string, from, to gobreaker.State)) Option {
	return func(o *options) {
		o.onStateChange = fn
	}
}

// NewClient builds an anonymous client. Use WithToken for bearer calls.
func NewClient(opts ...Option) *Client {
	o := options{
		httpClient:      &http.Client{Timeout: defaultTimeout},
		baseURL:         DefaultBaseURL,
		breakerFailures: defaultBreakerFailures,
		breakerTimeout:  defaultBreakerTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	failures := o.breakerFailures
	settings := gobreaker.Settings{
		Name:        "everrest",
		MaxRequests: 1,
		Timeout:     o.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful:  countsAsHealthy,
		OnStateChange: o.onStateChange,
	}

	return &Client{
		httpClient: o.httpClient,
		baseURL:    strings.TrimRight(o.baseURL, "/"),
		breaker:    gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// NewFromConfig builds a client from the remote section of the config.
func NewFromConfig(cfg config.RemoteConfig, opts ...Option) *Client {
	base := []Option{
		WithBaseURL(cfg.BaseURL),
		WithBreaker(cfg.BreakerMaxFailures, cfg.BreakerOpenTimeout),
	}
	if cfg.Timeout > 0 {
		base = append(base, WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	return NewClient(append(base, opts...)...)
}

// WithToken returns a copy that authenticates with the given bearer token.
// The copy shares the HTTP client and breaker.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = strings.TrimSpace(token)
	return &clone
}

// Token returns the bearer token the client sends, if any.
func (c *Client) Token() string {
	return c.token
}

// countsAsHealthy keeps client-side rejections (4xx) from tripping the breaker.
func countsAsHealthy(err error) bool {
	if err == nil {
		return true
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Status < http.StatusInternalServerError
	}
	return false
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	auth   bool
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "shop client not configured")
	}
	if req.auth && c.token == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required")
	}

	op := fmt.Sprintf("%s %s", req.method, req.path)
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, req)
	})
	if err != nil {
		return classify(op, err)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], body...)
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", op))
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, req request) ([]byte, error) {
	endpoint := c.baseURL + "/" + strings.TrimLeft(req.path, "/")
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	var reader io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if reader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, newRemoteError(resp.StatusCode, msg)
	}

	return io.ReadAll(resp.Body)
}
