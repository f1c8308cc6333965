package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/socialsidekick/socialsidekick/backend/api/pkg/logger"
	"github.com/socialsidekick/socialsidekick/backend/api/pkg/metrics"
)

const defaultBaseURL = "https://graph.facebook.com"

// APIError is a structured Graph API error response.
type APIError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	Subcode   int    `json:"error_subcode"`
	TraceID   string `json:"fbtrace_id"`
	HTTPState int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph api error (code=%d, subcode=%d): %s", e.Code, e.Subcode, e.Message)
}

// Graph error codes. 4 and 17 are application/user rate limits and worth
// retrying after a backoff; 190 and 102 mean the access token is dead and no
// retry can help; 100 and 803 mean the request itself is malformed.
func (e *APIError) retryable() bool {
	switch e.Code {
	case 4, 17, 32, 613:
		return true
	}
	return e.HTTPState >= 500
}

// IsAuthError reports whether err is a Graph token failure.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 190 || apiErr.Code == 102
	}
	return false
}

// IsBadRequest reports whether err is a malformed-request failure.
func IsBadRequest(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 100 || apiErr.Code == 803
	}
	return false
}

// Client is an outbound Graph API client with request pacing and retries.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiVersion  string
	accessToken string
	limiter     *rate.Limiter
	maxRetries  int
	baseDelay   time.Duration
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithRetry(max int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = max
		c.baseDelay = baseDelay
	}
}

// NewClient builds a client paced at callsPerHour outbound requests, with a
// small burst so interactive dashboard loads are not serialized.
func NewClient(accessToken, apiVersion string, callsPerHour int, opts ...Option) *Client {
	if callsPerHour <= 0 {
		callsPerHour = 100
	}
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     defaultBaseURL,
		apiVersion:  apiVersion,
		accessToken: accessToken,
		limiter:     rate.NewLimiter(rate.Limit(float64(callsPerHour)/3600.0), 10),
		maxRetries:  3,
		baseDelay:   time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a GET against the given Graph path (without version prefix)
// and decodes the response body into out.
func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, params, out)
}

// Post performs a POST with form-encoded params.
func (c *Client) Post(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, http.MethodPost, path, params, out)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, out any) error {
	endpoint := endpointLabel(path)
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)
			logger.Warnf("graph: retrying %s %s in %s (attempt %d/%d): %v",
				method, endpoint, delay, attempt, c.maxRetries, lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		err := c.roundTrip(ctx, method, path, params, out)
		if err == nil {
			metrics.GraphAPICalls.WithLabelValues(endpoint, "ok").Inc()
			return nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.retryable() {
			metrics.GraphAPICalls.WithLabelValues(endpoint, "error").Inc()
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	metrics.GraphAPICalls.WithLabelValues(endpoint, "error").Inc()
	return fmt.Errorf("graph request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	// callers pass a page access token for page-scoped reads and publishing;
	// the user token is only the default
	if params.Get("access_token") == "" {
		params.Set("access_token", c.accessToken)
	}

	target := fmt.Sprintf("%s/%s/%s", c.baseURL, c.apiVersion, strings.TrimLeft(path, "/"))

	var req *http.Request
	var err error
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, target+"?"+params.Encode(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, target, strings.NewReader(params.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var wrapper struct {
			Error *APIError `json:"error"`
		}
		if jsonErr := json.Unmarshal(body, &wrapper); jsonErr == nil && wrapper.Error != nil {
			wrapper.Error.HTTPState = resp.StatusCode
			return wrapper.Error
		}
		return &APIError{Message: strings.TrimSpace(string(body)), HTTPState: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

// backoff is exponential with up to 25% jitter.
func (c *Client) backoff(attempt int) time.Duration {
	d := c.baseDelay << (attempt - 1)
	jitter := time.Duration(rand.Int63n(int64(d) / 4))
	return d + jitter
}

// endpointLabel keeps metric cardinality bounded by stripping ids from the
// path.
func endpointLabel(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if len(p) > 0 && p[0] >= '0' && p[0] <= '9' {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}
