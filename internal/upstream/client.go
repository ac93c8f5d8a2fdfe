package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yegors/skyguess/pkg/logger"
)

// DefaultTimeout is the per-call ceiling applied to every upstream request
const DefaultTimeout = 10 * time.Second

// maxBodyBytes bounds how much of a response body is read into memory
const maxBodyBytes = 8 << 20

// BrowserHeaders returns a request header set that identifies as a desktop browser.
// Some tracking sites reject requests without one.
func BrowserHeaders(userAgent string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.5")
	return h
}

// Client performs bounded GET requests and classifies failures
type Client struct {
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a client whose requests are abandoned after timeout
func NewClient(timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.Named("upstream"),
	}
}

// NewClientWithHTTP wraps an existing http.Client (e.g. an OAuth2 transport)
func NewClientWithHTTP(httpClient *http.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.Named("upstream"),
	}
}

// Get fetches url and returns the body of a 2xx response.
// Transport errors and other statuses wrap ErrUnavailable; a body over
// maxBodyBytes wraps ErrMalformed.
func (c *Client) Get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Upstream request failed",
			logger.String("url", url),
			logger.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("Unexpected upstream status code",
			logger.String("url", url),
			logger.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("%w: unexpected status code: %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		c.logger.Warn("Failed to read upstream response body",
			logger.String("url", url),
			logger.Error(err))
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrUnavailable, err)
	}
	if len(body) > maxBodyBytes {
		c.logger.Warn("Upstream response body too large",
			logger.String("url", url),
			logger.Int("limit_bytes", maxBodyBytes))
		return nil, fmt.Errorf("%w: response body exceeds %d bytes", ErrMalformed, maxBodyBytes)
	}

	c.logger.Debug("Upstream request completed",
		logger.String("url", url),
		logger.Int("bytes", len(body)),
		logger.Duration("duration", time.Since(start)))

	return body, nil
}
