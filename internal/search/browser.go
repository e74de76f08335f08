package search

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// pageEngine is satisfied by the HTTP engines in this package; the
// browser wrapper reuses their URL construction and result parsing.
type pageEngine interface {
	Engine
	searchURL(Query) string
	parse(io.Reader, Query) ([]Result, error)
}

// RenderedEngine drives a headless browser to load an engine's result
// page. Used when the plain HTTP endpoint serves a JavaScript challenge
// instead of results.
type RenderedEngine struct {
	inner   pageEngine
	timeout time.Duration
}

// NewRenderedEngine wraps an HTTP engine with browser rendering.
func NewRenderedEngine(inner pageEngine, timeout time.Duration) *RenderedEngine {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &RenderedEngine{inner: inner, timeout: timeout}
}

func (r *RenderedEngine) Name() string { return r.inner.Name() + "-browser" }

func (r *RenderedEngine) Search(ctx context.Context, query Query) ([]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(NextUserAgent()),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(r.inner.searchURL(query)),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("%s browser navigation failed: %w", r.inner.Name(), err)
	}

	results, err := r.inner.parse(strings.NewReader(html), query)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Engine = r.Name()
	}
	return results, nil
}
