package fetch

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/harvestkit/harvestkit/internal/search"
)

// blockPattern matches interstitial pages served instead of content by
// bot-protection layers.
var blockPattern = regexp.MustCompile(`(?i)(cf-browser-verification|checking your browser|attention required.{0,40}cloudflare|just a moment|captcha)`)

// BrowserConfig configures the headless-browser fetcher.
type BrowserConfig struct {
	Timeout   time.Duration `json:"timeout"`
	WaitAfter time.Duration `json:"wait_after"` // settle time after body is ready
}

// DefaultBrowserConfig returns default browser fetch settings.
func DefaultBrowserConfig() *BrowserConfig {
	return &BrowserConfig{
		Timeout:   45 * time.Second,
		WaitAfter: 500 * time.Millisecond,
	}
}

// BrowserFetcher renders a page in headless Chrome and returns the final
// DOM. Used as a fallback when direct HTTP gets blocked or returns a
// JavaScript shell.
type BrowserFetcher struct {
	config *BrowserConfig
}

// NewBrowserFetcher creates a browser fetcher.
func NewBrowserFetcher(config *BrowserConfig) *BrowserFetcher {
	if config == nil {
		config = DefaultBrowserConfig()
	}
	return &BrowserFetcher{config: config}
}

func (b *BrowserFetcher) Name() string { return "browser" }

func (b *BrowserFetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(search.NextUserAgent()),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var html, finalURL string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(b.config.WaitAfter),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("browser navigation failed: %w", err)
	}

	if blockPattern.MatchString(html) {
		return nil, &ValidationError{Message: "page served a bot-protection interstitial"}
	}

	return &Result{
		URL:         url,
		FinalURL:    finalURL,
		Body:        []byte(html),
		ContentType: "text/html",
		StatusCode:  200,
		Method:      b.Name(),
	}, nil
}
