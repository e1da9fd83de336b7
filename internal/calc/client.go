// Package calc is the transport to the remote calculation service.
// It performs exactly one POST per call and maps every failure onto
// ValidationError, TransportError or ServiceError.
package calc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"calcnerd/internal/logging"
	"calcnerd/internal/types"

	"github.com/google/uuid"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 16 << 20

// Service is anything that can evaluate a calculation request.
type Service interface {
	Calculate(ctx context.Context, req *types.CalculationRequest) (*types.CalculationResponse, error)
}

// Client talks to POST /api/calculate over HTTP.
type Client struct {
	mu      sync.RWMutex
	url     string
	http    *http.Client
	metrics *Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the http.Client timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithMetrics records request counts and latencies.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a client for the absolute endpoint URL.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		url:  endpoint,
		http: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the endpoint the client posts to.
func (c *Client) URL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.url
}

// SetURL points the client at a new endpoint. Safe to call while a
// request is in flight; that request keeps the old URL.
func (c *Client) SetURL(endpoint string) {
	c.mu.Lock()
	c.url = endpoint
	c.mu.Unlock()
}

type requestIDKey struct{}

// ContextWithRequestID attaches a correlation id that is sent as X-Request-ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id set by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Calculate posts req and returns the decoded response. A response with
// success=false is returned alongside a *ServiceError.
func (c *Client) Calculate(ctx context.Context, req *types.CalculationRequest) (*types.CalculationResponse, error) {
	if req == nil || strings.TrimSpace(req.Expression) == "" {
		return nil, ErrEmptyExpression
	}

	reqID := RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	log := logging.WithRequestID(logging.CategoryAPI, reqID)

	start := time.Now()
	resp, err := c.do(ctx, reqID, req)
	elapsed := time.Since(start)
	c.metrics.observe(req.Operation, Kind(err), elapsed)

	if err != nil {
		log.Warn("calculate %s failed after %v: %v", req.Operation, elapsed, describe(err))
		return resp, err
	}
	log.Debug("calculate %s ok in %v", req.Operation, elapsed)
	return resp, nil
}

func (c *Client) do(ctx context.Context, reqID string, req *types.CalculationRequest) (*types.CalculationResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &TransportError{Cause: fmt.Errorf("failed to marshal request: %w", err)}
	}

	url := c.URL()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Cause: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", reqID)

	logging.APIDebug("POST %s (%s)", url, req.Summary())

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Cause: fmt.Errorf("request failed: %w", err)}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Cause: fmt.Errorf("failed to read response: %w", err)}
	}

	ok := httpResp.StatusCode >= 200 && httpResp.StatusCode < 300

	var resp types.CalculationResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		if !ok {
			return nil, &ServiceError{StatusCode: httpResp.StatusCode}
		}
		return nil, &TransportError{Cause: fmt.Errorf("failed to decode response: %w", err)}
	}

	if !ok || !resp.Success {
		return &resp, &ServiceError{StatusCode: httpResp.StatusCode, Message: strings.TrimSpace(resp.Error)}
	}
	return &resp, nil
}

func describe(err error) string {
	switch e := err.(type) {
	case *TransportError:
		return fmt.Sprintf("transport: %v", e.Cause)
	case *ServiceError:
		return e.Detail()
	}
	return err.Error()
}
