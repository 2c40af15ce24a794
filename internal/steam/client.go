package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL        = "https://store.steampowered.com/appreviews"
	defaultHTTPTimeout    = 20 * time.Second
	defaultRetryAttempts  = 5
	defaultRetryBaseDelay = 500 * time.Millisecond
	defaultRetryMaxDelay  = 15 * time.Second
	defaultJitterMax      = 300 * time.Millisecond

	// MaxPageSize is the storefront's documented num_per_page ceiling.
	MaxPageSize = 100

	// InitialCursor is the sentinel cursor for the first page of a session.
	InitialCursor = "*"
)

// ErrRetriesExhausted marks a page request that failed every retry attempt.
// It is a fatal session error; callers must not retry further.
var ErrRetriesExhausted = errors.New("steam: retries exhausted")

// PageRequest describes one page of the cursor-paged reviews query.
type PageRequest struct {
	Cursor         string
	Language       string
	Filter         string
	OffTopicFilter int
	NumPerPage     int
}

// PageResponse models the storefront reviews envelope. Review payloads stay
// raw so the fetcher can persist them byte-for-byte.
type PageResponse struct {
	Success      int               `json:"success"`
	Reviews      []json.RawMessage `json:"reviews"`
	Cursor       string            `json:"cursor"`
	QuerySummary map[string]any    `json:"query_summary"`
}

// Client talks to the storefront appreviews endpoint with retry and backoff.
type Client struct {
	baseURL    string
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	jitter           func() time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithBaseURL overrides the endpoint base URL (useful for tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count (defaults to 5).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithJitter overrides the backoff jitter source (useful for tests).
func WithJitter(jitter func() time.Duration) Option {
	return func(c *Client) {
		if jitter != nil {
			c.jitter = jitter
		}
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a reviews client. timeout applies per HTTP request.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	client := &Client{
		baseURL:          defaultBaseURL,
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
		jitter: func() time.Duration {
			return rand.N(defaultJitterMax)
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type httpStatusError struct {
	StatusCode int
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("steam request: http %d", e.StatusCode)
}

type envelopeError struct {
	Success int
}

func (e *envelopeError) Error() string {
	return fmt.Sprintf("steam envelope: success=%d", e.Success)
}

// FetchPage requests one page of reviews for appID. Network errors, HTTP 429,
// other non-2xx statuses, and envelope success != 1 are retried with capped
// exponential backoff plus jitter; exhausting the attempts returns an error
// wrapping ErrRetriesExhausted.
func (c *Client) FetchPage(ctx context.Context, appID int64, req PageRequest) (*PageResponse, error) {
	if appID <= 0 {
		return nil, errors.New("steam: app id must be positive")
	}
	if req.Cursor == "" {
		req.Cursor = InitialCursor
	}
	if req.NumPerPage <= 0 || req.NumPerPage > MaxPageSize {
		req.NumPerPage = MaxPageSize
	}

	attempts := c.retryAttempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		page, err := c.fetchPageOnce(ctx, appID, req)
		if err == nil {
			return page, nil
		}
		lastErr = err

		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if attempt == attempts {
			break
		}
		if err := c.sleep(ctx, c.retryDelay(err, attempt)); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: failed after %d attempts: %w", ErrRetriesExhausted, attempts, lastErr)
}

func (c *Client) fetchPageOnce(ctx context.Context, appID int64, req PageRequest) (*PageResponse, error) {
	endpoint, err := url.Parse(c.baseURL + "/" + strconv.FormatInt(appID, 10))
	if err != nil {
		return nil, fmt.Errorf("steam request: build url: %w", err)
	}
	params := url.Values{}
	params.Set("json", "1")
	params.Set("filter", req.Filter)
	params.Set("language", req.Language)
	params.Set("review_type", "all")
	params.Set("purchase_type", "all")
	params.Set("filter_offtopic_activity", strconv.Itoa(req.OffTopicFilter))
	params.Set("num_per_page", strconv.Itoa(req.NumPerPage))
	params.Set("cursor", req.Cursor)
	endpoint.RawQuery = params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("steam request: new request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("steam request: http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, &httpStatusError{StatusCode: resp.StatusCode, RetryAfter: retryAfter}
	}

	var page PageResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("steam request: decode envelope: %w", err)
	}
	if page.Success != 1 {
		return nil, &envelopeError{Success: page.Success}
	}
	return &page, nil
}

func (c *Client) retryAttempts() int {
	if c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

// retryDelay computes the backoff before the next attempt. A server-supplied
// Retry-After wins over the exponential schedule.
func (c *Client) retryDelay(err error, attempt int) time.Duration {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
		return c.capDelay(statusErr.RetryAfter)
	}
	return c.backoffDelay(attempt)
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	base := c.retryBaseDelay
	if base <= 0 {
		return 0
	}

	// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > c.retryMaxDelay/2 {
			delay = c.retryMaxDelay
			break
		}
		delay *= 2
	}
	if c.jitter != nil {
		delay += c.jitter()
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if c.retryMaxDelay > 0 && delay > c.retryMaxDelay {
		return c.retryMaxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(header); err == nil {
		if d := time.Until(when); d > 0 {
			return d
		}
	}
	return 0
}
