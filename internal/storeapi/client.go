// Package storeapi is the HTTP client for the storefront REST backend. It
// covers the three read endpoints the menu needs and normalizes their
// loosely typed payloads into pkg/models values.
package storeapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/HerbHall/storefront/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Endpoint names used in errors, logs and metric labels.
const (
	EndpointLocations        = "locations"
	EndpointProductLocations = "product-locations"
	EndpointProducts         = "products"
)

// maxErrorBody caps how much of a failed response is kept in StatusError.
const maxErrorBody = 512

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("storeapi: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Retryable reports whether the failure is worth retrying.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// IsRetryable reports whether err is a transient backend failure: a 5xx or
// 429 status, a timeout, or a transport error.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}

// Client talks to the storefront backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *Metrics
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests to r per second with the given burst.
// A non-positive r disables limiting.
func WithRateLimit(r float64, burst int) Option {
	return func(c *Client) {
		if r <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a backend client rooted at baseURL.
func NewClient(baseURL string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.Named("storeapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Locations returns the full location collection.
func (c *Client) Locations(ctx context.Context) ([]models.Location, error) {
	body, err := c.get(ctx, EndpointLocations, "/locations", nil)
	if err != nil {
		return nil, err
	}

	var dtos []locationDTO
	if _, err := decodeList(body, &dtos); err != nil {
		return nil, fmt.Errorf("decode locations: %w", err)
	}

	out := make([]models.Location, len(dtos))
	for i := range dtos {
		out[i] = dtos[i].toModel()
	}
	return out, nil
}

// ProductLocations returns the IDs of products assigned to the named
// location, in backend order without duplicates.
func (c *Client) ProductLocations(ctx context.Context, locationName string, limit int) ([]string, error) {
	q := url.Values{}
	q.Set("location_name", locationName)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	body, err := c.get(ctx, EndpointProductLocations, "/product-locations", q)
	if err != nil {
		return nil, err
	}

	var dtos []assignmentDTO
	if _, err := decodeList(body, &dtos); err != nil {
		return nil, fmt.Errorf("decode product locations: %w", err)
	}

	seen := make(map[string]struct{}, len(dtos))
	ids := make([]string, 0, len(dtos))
	for _, d := range dtos {
		id := string(d.ProductID)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// Products runs a product search. When the backend omits a total, the
// number of returned items is used.
func (c *Client) Products(ctx context.Context, pq ProductQuery) (ProductPage, error) {
	body, err := c.get(ctx, EndpointProducts, "/products", pq.Values())
	if err != nil {
		return ProductPage{}, err
	}

	var dtos []productDTO
	total, err := decodeList(body, &dtos)
	if err != nil {
		return ProductPage{}, fmt.Errorf("decode products: %w", err)
	}

	page := ProductPage{Items: make([]models.Product, len(dtos)), Total: total}
	for i := range dtos {
		page.Items[i] = dtos[i].toModel()
	}
	if page.Total < 0 {
		page.Total = len(page.Items)
	}
	return page, nil
}

// get performs a GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, endpoint, path string, q url.Values) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("storeapi: %s: rate limit wait: %w", endpoint, err)
		}
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("storeapi: create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	logger := c.logger.With(zap.String("endpoint", endpoint), zap.String("request_id", requestID))
	logger.Debug("sending request", zap.String("url", u))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(endpoint, "error", time.Since(start))
		logger.Warn("request failed", zap.Error(err))
		return nil, fmt.Errorf("storeapi: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	c.metrics.observe(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
		logger.Warn("backend returned error status", zap.Int("status", resp.StatusCode))
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("storeapi: %s: read body: %w", endpoint, err)
	}
	logger.Debug("request succeeded", zap.Int("bytes", len(body)), zap.Duration("elapsed", time.Since(start)))
	return body, nil
}
