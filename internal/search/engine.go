package search

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Result is a single search engine hit.
type Result struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Engine string `json:"engine"`
	Rank   int    `json:"rank"`
}

// Query describes one harvest request against an engine.
type Query struct {
	Text       string `json:"text"`
	PDFOnly    bool   `json:"pdf_only"`
	MaxResults int    `json:"max_results"`
}

// Terms returns the query string sent to the engine, with the filetype
// constraint appended when PDFOnly is set.
func (q Query) Terms() string {
	if q.PDFOnly {
		return q.Text + " filetype:pdf"
	}
	return q.Text
}

// Engine queries one search engine and parses its result page.
type Engine interface {
	Name() string
	Search(ctx context.Context, query Query) ([]Result, error)
}

// userAgents is rotated across requests so repeated harvests do not
// present a single fingerprint.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:123.0) Gecko/20100101 Firefox/123.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
}

var (
	uaMu      sync.Mutex
	uaCurrent int
)

// NextUserAgent returns the next user agent in rotation.
func NextUserAgent() string {
	uaMu.Lock()
	defer uaMu.Unlock()
	ua := userAgents[uaCurrent]
	uaCurrent = (uaCurrent + 1) % len(userAgents)
	return ua
}

// NewHTTPClient builds the client used for engine requests. The cookie
// jar is shared with downstream fetches so session cookies set during the
// harvest are forwarded to result downloads.
func NewHTTPClient(timeout time.Duration) *http.Client {
	jar, _ := cookiejar.New(nil)
	return &http.Client{
		Timeout: timeout,
		Jar:     jar,
	}
}

// engineOwnedHosts are never returned as harvest results; links into the
// engines themselves (caches, ad redirects, settings pages) are noise.
var engineOwnedHosts = []string{
	"duckduckgo.com",
	"bing.com",
	"microsoft.com",
	"go.microsoft.com",
	"startpage.com",
	"google.com",
	"webcache.googleusercontent.com",
}

// acceptableLink reports whether a harvested href is a usable external
// result link.
func acceptableLink(href string) bool {
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return false
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, owned := range engineOwnedHosts {
		if host == owned || strings.HasSuffix(host, "."+owned) {
			return false
		}
	}
	return true
}

// isPDFLink reports whether a URL points at a PDF by extension.
func isPDFLink(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

// setBrowserHeaders makes an engine request look like an ordinary
// browser navigation.
func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", NextUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}
