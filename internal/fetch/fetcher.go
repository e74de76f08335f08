package fetch

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/harvestkit/harvestkit/pkg/logging"
)

// Result holds a downloaded resource.
type Result struct {
	URL         string `json:"url"`
	FinalURL    string `json:"final_url"`
	Body        []byte `json:"-"`
	ContentType string `json:"content_type"`
	StatusCode  int    `json:"status_code"`
	Method      string `json:"method"` // fetcher that produced the result
}

// Fetcher downloads a single URL.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, url string) (*Result, error)
}

// ValidationError marks a download that completed but failed a content
// check (wrong magic bytes, too small, wrong content type). It is not
// retryable with the same fetcher.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Chain tries an ordered list of fetchers until one succeeds. This
// replaces the inline HTTP-then-browser-then-shell fallback sequences of
// ad hoc scrapers.
type Chain struct {
	fetchers []Fetcher
}

// NewChain creates a fetch chain. Order is the fallback order.
func NewChain(fetchers ...Fetcher) *Chain {
	return &Chain{fetchers: fetchers}
}

func (c *Chain) Name() string { return "chain" }

// Fetch tries each fetcher in turn, returning the first success. All
// failures are reported together when every method is exhausted.
func (c *Chain) Fetch(ctx context.Context, url string) (*Result, error) {
	logger := logging.GetLogger("fetch")

	var failures []string
	for _, f := range c.fetchers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := f.Fetch(ctx, url)
		if err == nil {
			result.Method = f.Name()
			return result, nil
		}
		logger.Debug().
			Err(err).
			Str("fetcher", f.Name()).
			Str("url", url).
			Msg("Fetch method failed, trying next")
		failures = append(failures, fmt.Sprintf("%s: %v", f.Name(), err))
	}
	return nil, fmt.Errorf("all fetch methods failed for %s: %s", url, strings.Join(failures, "; "))
}

// pdfMagic is the magic-byte prefix of every well-formed PDF.
var pdfMagic = []byte("%PDF")

// ValidatePDF applies the PDF download heuristics: magic bytes and a
// minimum size threshold.
func ValidatePDF(body []byte, minSize int64) error {
	if int64(len(body)) < minSize {
		return &ValidationError{
			Message: fmt.Sprintf("pdf too small: %d bytes (minimum %d)", len(body), minSize),
		}
	}
	if !bytes.HasPrefix(body, pdfMagic) {
		preview := body
		if len(preview) > 16 {
			preview = preview[:16]
		}
		return &ValidationError{
			Message: fmt.Sprintf("not a valid PDF: content starts with %q", preview),
		}
	}
	return nil
}

// ClassifyContentType maps a Content-Type header (or URL extension as
// fallback) to an extractor type.
func ClassifyContentType(contentType, url string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "application/pdf"):
		return "pdf"
	case strings.Contains(ct, "text/html"), strings.Contains(ct, "application/xhtml"):
		return "html"
	case strings.Contains(ct, "officedocument.wordprocessingml"), strings.Contains(ct, "application/msword"):
		return "docx"
	case strings.Contains(ct, "text/plain"):
		return "text"
	}

	lower := strings.ToLower(url)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return "pdf"
	case strings.HasSuffix(lower, ".docx"), strings.HasSuffix(lower, ".doc"):
		return "docx"
	case strings.HasSuffix(lower, ".txt"):
		return "text"
	}
	return "html"
}
