package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/harvestkit/harvestkit/internal/search"
)

const maxRedirects = 10

// HTTPConfig configures the direct HTTP fetcher.
type HTTPConfig struct {
	Timeout     time.Duration `json:"timeout"`
	MaxRetries  int           `json:"max_retries"`
	MaxBodySize int64         `json:"max_body_size"`
	Referer     string        `json:"referer"`
}

// DefaultHTTPConfig returns default HTTP fetch settings.
func DefaultHTTPConfig() *HTTPConfig {
	return &HTTPConfig{
		Timeout:     30 * time.Second,
		MaxRetries:  3,
		MaxBodySize: 50 * 1024 * 1024,
		Referer:     "https://www.google.com/",
	}
}

// HTTPFetcher downloads over plain HTTP with browser-like headers,
// pooled connections, and retry with exponential backoff.
type HTTPFetcher struct {
	client *http.Client
	config *HTTPConfig
}

// NewHTTPFetcher creates an HTTP fetcher. Passing the client used during
// the harvest phase shares its transport and any session cookies the
// engine set; pass nil for a standalone client. The caller's client is
// not modified.
func NewHTTPFetcher(client *http.Client, config *HTTPConfig) *HTTPFetcher {
	if config == nil {
		config = DefaultHTTPConfig()
	}

	own := &http.Client{}
	if client != nil {
		own.Transport = client.Transport
		own.Jar = client.Jar
	} else {
		own.Transport = &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
	}
	own.Timeout = config.Timeout
	own.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}
	return &HTTPFetcher{client: own, config: config}
}

func (h *HTTPFetcher) Name() string { return "http" }

func (h *HTTPFetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<uint(attempt-1)) * time.Second
			if delay > 5*time.Second {
				delay = 5 * time.Second
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, retryable, err := h.fetchOnce(ctx, url)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, fmt.Errorf("http fetch failed after %d attempts: %w", h.config.MaxRetries+1, lastErr)
}

func (h *HTTPFetcher) fetchOnce(ctx context.Context, url string) (*Result, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", search.NextUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", h.config.Referer)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= http.StatusInternalServerError:
		return nil, true, fmt.Errorf("server returned status %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, h.config.MaxBodySize+1))
	if err != nil {
		return nil, true, fmt.Errorf("read failed: %w", err)
	}
	if int64(len(body)) > h.config.MaxBodySize {
		return nil, false, &ValidationError{
			Message: fmt.Sprintf("body exceeds size limit of %d bytes", h.config.MaxBodySize),
		}
	}

	return &Result{
		URL:         url,
		FinalURL:    resp.Request.URL.String(),
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		Method:      h.Name(),
	}, false, nil
}
