package moonraker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultRequestTimeout bounds every upstream call.
const defaultRequestTimeout = 8 * time.Second

// maxResponseBytes caps how much of an upstream body is read, protecting
// against a misbehaving controller streaming unbounded output.
const maxResponseBytes = 4 << 20

// Client issues requests against a Moonraker HTTP API.
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
type Client struct {
	defaultBaseURL string
	httpClient     *http.Client
}

// NewClient creates a proxy client.
//
// Parameters:
//   - defaultBaseURL: origin used when a call supplies no base URL; may be
//     blank if every caller provides its own target
//   - timeout: per-request timeout; zero or negative selects the default
//
// Returns:
//   - *Client: ready for use
func NewClient(defaultBaseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		defaultBaseURL: strings.TrimRight(strings.TrimSpace(defaultBaseURL), "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ResolveBaseURL validates an optional caller-supplied origin, falling back
// to the configured default when blank.
//
// Returns:
//   - string: the normalized origin without a trailing slash
//   - error: ErrInvalidBaseURL when neither the override nor the default is
//     a well-formed http/https URL
func (c *Client) ResolveBaseURL(override string) (string, error) {
	base := strings.TrimSpace(override)
	if base == "" {
		base = c.defaultBaseURL
	}
	base = strings.TrimRight(base, "/")
	if base == "" {
		return "", fmt.Errorf("%w: no target origin", ErrInvalidBaseURL)
	}

	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidBaseURL, base)
	}
	return base, nil
}

// getJSON issues a GET against base+path and decodes the 2xx body into out.
func (c *Client) getJSON(ctx context.Context, base, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, base, path, query, out)
}

// postJSON issues a POST against base+path and decodes the 2xx body into out.
// Moonraker control endpoints take their arguments as query parameters and
// expect an empty body.
func (c *Client) postJSON(ctx context.Context, base, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodPost, base, path, query, out)
}

func (c *Client) doJSON(ctx context.Context, method, base, path string, query url.Values, out any) error {
	target := base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %s %s", ErrTimeout, method, path)
		}
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: reading body: %w", ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{Status: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

// isTimeout reports whether a transport error was caused by the request
// deadline rather than an unreachable host.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout()
	}
	return false
}
