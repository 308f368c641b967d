package quotequery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "quote-query").Logger()
}

// HTTPError is returned when an endpoint answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// QuoteQueryClient performs GET requests against an aggregator API with failover support.
// It maintains a primary endpoint and can switch to backup endpoints when the primary is
// unavailable.
type QuoteQueryClient struct {
	httpClient     *http.Client
	primaryURL     string
	backupURLs     []string
	currentURL     string
	headers        http.Header
	mu             sync.RWMutex
	healthChecker  *healthChecker
	failoverConfig FailoverConfig
}

// FailoverConfig controls failover behavior
type FailoverConfig struct {
	// MaxRetries is the number of times to retry a failed request on the current endpoint.
	// Quote fetchers use 0: a failed source is excluded rather than retried.
	MaxRetries int
	// RetryDelay is the initial delay between retries (doubles with each retry)
	RetryDelay time.Duration
	// HealthCheckInterval is how often to check if the primary endpoint is back up
	HealthCheckInterval time.Duration
	// HealthPath is requested on an endpoint to decide whether it is healthy
	HealthPath string
	// Timeout is the HTTP request timeout
	Timeout time.Duration
}

// DefaultFailoverConfig returns the settings used by quote fetchers.
func DefaultFailoverConfig() FailoverConfig {
	return FailoverConfig{
		MaxRetries:          0,
		RetryDelay:          500 * time.Millisecond,
		HealthCheckInterval: 30 * time.Second,
		HealthPath:          "/",
		Timeout:             10 * time.Second,
	}
}

// healthChecker periodically checks if the primary endpoint is healthy
type healthChecker struct {
	client    *QuoteQueryClient
	stopCh    chan struct{}
	stoppedCh chan struct{}
	isRunning bool
	mu        sync.Mutex
}

// NewQuoteQueryClient creates a client for a single endpoint.
func NewQuoteQueryClient(apiURL string) (*QuoteQueryClient, error) {
	return NewQuoteQueryClientWithFailover(apiURL, nil, DefaultFailoverConfig())
}

// NewQuoteQueryClientWithFailover creates a client that falls back to backupURLs.
func NewQuoteQueryClientWithFailover(primaryURL string, backupURLs []string, config FailoverConfig) (*QuoteQueryClient, error) {
	if _, err := url.ParseRequestURI(primaryURL); err != nil {
		return nil, fmt.Errorf("invalid primary API URL %q: %w", primaryURL, err)
	}

	validBackups := make([]string, 0, len(backupURLs))
	for _, u := range backupURLs {
		if _, err := url.ParseRequestURI(u); err != nil {
			log.Warn().Err(err).Str("url", u).Msg("Invalid backup URL, skipping")
			continue
		}
		validBackups = append(validBackups, u)
	}

	client := &QuoteQueryClient{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		primaryURL:     primaryURL,
		backupURLs:     validBackups,
		currentURL:     primaryURL,
		headers:        make(http.Header),
		failoverConfig: config,
	}

	if len(validBackups) > 0 && config.HealthCheckInterval > 0 {
		client.startHealthChecker()
	}

	log.Info().
		Str("primary", primaryURL).
		Int("backups", len(validBackups)).
		Msg("Quote query client initialized")
	return client, nil
}

// SetHeader adds a header sent with every request, e.g. an API key.
func (c *QuoteQueryClient) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers.Set(key, value)
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *QuoteQueryClient) SetHTTPClient(httpClient *http.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.httpClient = httpClient
}

// startHealthChecker starts the background health checker goroutine
func (c *QuoteQueryClient) startHealthChecker() {
	c.healthChecker = &healthChecker{
		client:    c,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
	c.healthChecker.start()
}

func (h *healthChecker) start() {
	h.mu.Lock()
	if h.isRunning {
		h.mu.Unlock()
		return
	}
	h.isRunning = true
	h.mu.Unlock()

	go func() {
		defer close(h.stoppedCh)
		ticker := time.NewTicker(h.client.failoverConfig.HealthCheckInterval)
		defer ticker.Stop()

		for {
			select {
			case <-h.stopCh:
				return
			case <-ticker.C:
				h.checkAndRestore()
			}
		}
	}()
}

func (h *healthChecker) stop() {
	h.mu.Lock()
	if !h.isRunning {
		h.mu.Unlock()
		return
	}
	h.isRunning = false
	h.mu.Unlock()

	close(h.stopCh)
	<-h.stoppedCh
}

// checkAndRestore switches back to the primary endpoint once it is healthy again
func (h *healthChecker) checkAndRestore() {
	h.client.mu.RLock()
	currentURL := h.client.currentURL
	primaryURL := h.client.primaryURL
	h.client.mu.RUnlock()

	if currentURL == primaryURL {
		return
	}

	if h.client.isEndpointHealthy(context.Background(), primaryURL) {
		h.client.mu.Lock()
		h.client.currentURL = primaryURL
		h.client.mu.Unlock()
		log.Info().Str("url", primaryURL).Msg("Restored primary endpoint")
	}
}

func (c *QuoteQueryClient) isEndpointHealthy(ctx context.Context, endpoint string) bool {
	healthURL := endpoint + c.failoverConfig.HealthPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return false
	}
	resp, err := c.client().Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", healthURL).Msg("Health check failed")
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	log.Debug().Str("url", healthURL).Int("status", resp.StatusCode).Msg("Health check response")
	return resp.StatusCode < http.StatusInternalServerError
}

func (c *QuoteQueryClient) client() *http.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.httpClient
}

// CurrentURL returns the active endpoint
func (c *QuoteQueryClient) CurrentURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentURL
}

// failover switches to the next healthy backup endpoint
func (c *QuoteQueryClient) failover(ctx context.Context) bool {
	c.mu.RLock()
	allURLs := append([]string{c.primaryURL}, c.backupURLs...)
	current := c.currentURL
	c.mu.RUnlock()

	currentIdx := 0
	for i, u := range allURLs {
		if u == current {
			currentIdx = i
			break
		}
	}

	for i := 1; i < len(allURLs); i++ {
		nextURL := allURLs[(currentIdx+i)%len(allURLs)]
		if nextURL == current {
			continue
		}
		if c.isEndpointHealthy(ctx, nextURL) {
			c.mu.Lock()
			c.currentURL = nextURL
			c.mu.Unlock()
			log.Info().Str("url", nextURL).Msg("Failover to endpoint")
			return true
		}
	}

	log.Warn().Str("url", current).Msg("All endpoints unhealthy, staying on current")
	return false
}

// Close stops the health checker
func (c *QuoteQueryClient) Close() {
	if c.healthChecker != nil {
		c.healthChecker.stop()
	}
}

func (c *QuoteQueryClient) get(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	for k, v := range c.headers {
		req.Header[k] = v
	}
	c.mu.RUnlock()
	req.Header.Set("Accept", "application/json")

	resp, err := c.client().Do(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// Get performs a GET request for path with the given query on the active endpoint,
// retrying and failing over according to the failover config.
func (c *QuoteQueryClient) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	suffix := path
	if len(query) > 0 {
		suffix += "?" + query.Encode()
	}

	var lastErr error
	retryDelay := c.failoverConfig.RetryDelay

	for attempt := 0; attempt <= c.failoverConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
			retryDelay *= 2
		}

		body, err := c.get(ctx, c.CurrentURL()+suffix)
		if err == nil {
			return body, nil
		}
		lastErr = err

		// client errors will not get better on a retry or another endpoint
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode < http.StatusInternalServerError {
			return nil, err
		}
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if len(c.backupURLs) > 0 && c.failover(ctx) {
		body, err := c.get(ctx, c.CurrentURL()+suffix)
		if err != nil {
			return nil, fmt.Errorf("failover request failed: %w (original: %w)", err, lastErr)
		}
		return body, nil
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.failoverConfig.MaxRetries+1, lastErr)
}
