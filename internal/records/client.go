package records

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

	"github.com/muurk/formwizard/internal/logging"
)

const (
	// DefaultBaseURL is the public demo object store
	DefaultBaseURL = "https://api.restful-api.dev/objects"

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 30 * time.Second

	// DefaultCacheDuration is the default list cache validity duration
	DefaultCacheDuration = 30 * time.Second
)

// Client is an HTTP client for the record store
type Client struct {
	// BaseURL is the collection URL (e.g., "https://api.restful-api.dev/objects")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for failed requests
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff doubles the delay after every failed attempt
	UseExponentialBackoff bool

	// CacheDuration is how long List results are cached (0 = no cache)
	CacheDuration time.Duration

	cached     []Record
	cacheTime  time.Time
	cacheMutex sync.RWMutex
}

// NewClient creates a client for the collection at baseURL.
// An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:               strings.TrimRight(baseURL, "/"),
		HTTPClient:            &http.Client{Timeout: DefaultTimeout},
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
		CacheDuration:         DefaultCacheDuration,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// InvalidateCache drops any cached List result
func (c *Client) InvalidateCache() {
	c.cacheMutex.Lock()
	c.cached = nil
	c.cacheTime = time.Time{}
	c.cacheMutex.Unlock()
}

// List returns every record in the collection.
// Uses the cached result if available and fresh.
func (c *Client) List(ctx context.Context) ([]Record, error) {
	if c.CacheDuration > 0 {
		c.cacheMutex.RLock()
		if c.cached != nil && time.Since(c.cacheTime) < c.CacheDuration {
			out := make([]Record, len(c.cached))
			copy(out, c.cached)
			c.cacheMutex.RUnlock()
			return out, nil
		}
		c.cacheMutex.RUnlock()
	}

	var list []Record
	err := c.withRetry(ctx, "list", func() error {
		list = nil
		return c.do(ctx, http.MethodGet, c.BaseURL, nil, &list)
	})
	if err != nil {
		return nil, err
	}

	if c.CacheDuration > 0 {
		c.cacheMutex.Lock()
		c.cached = make([]Record, len(list))
		copy(c.cached, list)
		c.cacheTime = time.Now()
		c.cacheMutex.Unlock()
	}
	return list, nil
}

// Get fetches a single record by id
func (c *Client) Get(ctx context.Context, id string) (*Record, error) {
	if strings.TrimSpace(id) == "" {
		return nil, NewValidationError("record id cannot be empty")
	}

	var rec Record
	err := c.withRetry(ctx, "get", func() error {
		return c.do(ctx, http.MethodGet, c.itemURL(id), nil, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create stores a new record and returns it with the id assigned by the store.
// POST is not idempotent, so it is only retried when the connection was
// refused and the store never saw the request.
func (c *Client) Create(ctx context.Context, rec *Record) (*Record, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	var created Record
	err := c.withRetryIf(ctx, "create", neverSent, func() error {
		return c.do(ctx, http.MethodPost, c.BaseURL, &payload{Name: rec.Name, Data: rec.Data}, &created)
	})
	if err != nil {
		return nil, err
	}

	c.InvalidateCache()
	logging.Info("Record created", zap.String("id", created.ID), zap.String("name", created.Name))
	return &created, nil
}

// Update replaces the record identified by rec.ID
func (c *Client) Update(ctx context.Context, rec *Record) (*Record, error) {
	if strings.TrimSpace(rec.ID) == "" {
		return nil, NewValidationError("record id cannot be empty")
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	var updated Record
	err := c.withRetry(ctx, "update", func() error {
		return c.do(ctx, http.MethodPut, c.itemURL(rec.ID), &payload{Name: rec.Name, Data: rec.Data}, &updated)
	})
	if err != nil {
		return nil, err
	}

	c.InvalidateCache()
	return &updated, nil
}

// Delete removes the record identified by id.
// Returns the confirmation message reported by the store.
func (c *Client) Delete(ctx context.Context, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", NewValidationError("record id cannot be empty")
	}

	var resp deleteResponse
	err := c.withRetry(ctx, "delete", func() error {
		return c.do(ctx, http.MethodDelete, c.itemURL(id), nil, &resp)
	})
	if err != nil {
		return "", err
	}

	c.InvalidateCache()
	return resp.Message, nil
}

func (c *Client) itemURL(id string) string {
	return c.BaseURL + "/" + url.PathEscape(id)
}

// withRetry runs attempt until it succeeds, fails with a non-retryable
// error, or MaxRetries is exhausted
func (c *Client) withRetry(ctx context.Context, op string, attempt func() error) error {
	return c.withRetryIf(ctx, op, IsRetryable, attempt)
}

func (c *Client) withRetryIf(ctx context.Context, op string, retryable func(error) bool, attempt func() error) error {
	var lastErr error
	currentDelay := c.RetryDelay

	for i := 0; i <= c.MaxRetries; i++ {
		if i > 0 {
			logging.Debug("Retrying record request",
				zap.String("op", op),
				zap.Int("attempt", i),
				zap.Duration("delay", currentDelay),
				zap.Error(lastErr))

			select {
			case <-ctx.Done():
				return ClassifyNetworkError(ctx.Err())
			case <-time.After(currentDelay):
			}

			if c.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > c.MaxRetryDelay {
					currentDelay = c.MaxRetryDelay
				}
			}
		}

		err := attempt()
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) {
			return err
		}
	}

	return lastErr
}

// do performs a single request. body (if non-nil) is sent as JSON and a
// 2xx response is decoded into out.
func (c *Client) do(ctx context.Context, method, target string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return NewValidationError(fmt.Sprintf("failed to encode request: %v", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return NewNetworkError(fmt.Sprintf("failed to create %s request", method), err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return NewNetworkError(fmt.Sprintf("%s request failed", method), err)
	}
	defer func() { _ = resp.Body.Close() }()

	logging.Debug("Record store response",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewNetworkError("failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
		var er errorResponse
		if json.Unmarshal(data, &er) == nil && er.Error != "" {
			msg = er.Error
		}
		return NewHTTPError(resp.StatusCode, msg)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return NewParseError("failed to parse JSON response", err)
	}
	return nil
}
