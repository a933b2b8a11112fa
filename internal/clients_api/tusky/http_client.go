package tusky

// Transport for the Tusky REST API. Knows endpoints and wire formats,
// not the workflow: callers decide what a missing field means.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"tusky-uploader/internal/common"
	"tusky-uploader/internal/infra/log"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// TestnetAPI is the Tusky testnet (dev) API.
	TestnetAPI = "https://dev-api.tusky.io"

	defaultMaxResponseSize = 10 * 1024 * 1024
)

// Client talks to one Tusky API base URL on behalf of one account.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	jwtToken        string
	rateLimiter     *rate.Limiter
	circuitBreaker  *gobreaker.CircuitBreaker
	maxResponseSize int64
	log             *log.Logger
}

type Option func(*Client)

// WithRateLimit sets requests per second and burst. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.rateLimiter = nil
			return
		}
		c.rateLimiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithMaxResponseSize(n int64) Option {
	return func(c *Client) { c.maxResponseSize = n }
}

// WithoutCircuitBreaker is used by tests that count every request.
func WithoutCircuitBreaker() Option {
	return func(c *Client) { c.circuitBreaker = nil }
}

// NewClient binds the API to httpClient (which carries the account's proxy).
func NewClient(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = TestnetAPI
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	c := &Client{
		baseURL:         baseURL,
		httpClient:      httpClient,
		rateLimiter:     rate.NewLimiter(rate.Limit(10), 20),
		maxResponseSize: defaultMaxResponseSize,
		log:             log.NewNop(),
		circuitBreaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "TuskyAPI",
			MaxRequests: 3,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetJWT(token string) { c.jwtToken = token }

// request describes one call. Exactly one of jsonBody / rawBody is used.
type request struct {
	method   string
	endpoint string
	jsonBody interface{}
	rawBody  []byte
	header   http.Header
}

// MakeRequest sends a JSON request and returns the response body.
func (c *Client) MakeRequest(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	return c.send(ctx, request{method: method, endpoint: endpoint, jsonBody: body})
}

func (c *Client) send(ctx context.Context, r request) ([]byte, error) {
	requestID := log.GenerateRequestID()
	start := time.Now()

	if ctx.Err() != nil {
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	}
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	if c.circuitBreaker == nil {
		return c.do(ctx, requestID, r, start)
	}

	var respBody []byte
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		body, err := c.do(ctx, requestID, r, start)
		if err != nil {
			return nil, err
		}
		respBody = body
		return nil, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.log.Debug("Circuit breaker rejected request", zap.String("request_id", requestID), zap.String("endpoint", r.endpoint), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", common.ErrNetwork, err)
	}
	if err != nil {
		return nil, err
	}
	return respBody, nil
}

func (c *Client) do(ctx context.Context, requestID string, r request, start time.Time) ([]byte, error) {
	var reqBody io.Reader
	switch {
	case r.rawBody != nil:
		reqBody = bytes.NewReader(r.rawBody)
	case r.jsonBody != nil:
		data, err := json.Marshal(r.jsonBody)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	setCommonHeaders(req, c.jwtToken)
	for k, vs := range r.header {
		req.Header[k] = vs
	}

	c.log.LogRequest(requestID, r.method, r.endpoint, zap.String("url", req.URL.String()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.LogResponse(requestID, 0, time.Since(start), zap.String("endpoint", r.endpoint), zap.Error(err))
		return nil, fmt.Errorf("failed to perform request: %w: %w", common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize))
	if err != nil {
		c.log.LogResponse(requestID, resp.StatusCode, time.Since(start), zap.String("endpoint", r.endpoint), zap.Error(err))
		return nil, fmt.Errorf("failed to read response: %w: %w", common.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.LogResponse(requestID, resp.StatusCode, time.Since(start), zap.String("endpoint", r.endpoint))
		return nil, &APIError{StatusCode: resp.StatusCode, Endpoint: r.endpoint, Body: respBody}
	}

	c.log.LogResponse(requestID, resp.StatusCode, time.Since(start), zap.String("endpoint", r.endpoint), zap.String("status", "success"))
	return respBody, nil
}

func decode(body []byte, v interface{}, what string) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s response: %w: %w", what, common.ErrProtocol, err)
	}
	return nil
}
