package compliance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/harvestkit/harvestkit/pkg/logging"
)

// Config configures compliance checking behavior.
type Config struct {
	RespectRobotsTxt bool          `json:"respect_robots_txt"`
	CacheTimeout     time.Duration `json:"cache_timeout"`
	UserAgent        string        `json:"user_agent"`

	// AllowedDomains, when non-empty, restricts harvesting to these
	// domains and their subdomains.
	AllowedDomains []string `json:"allowed_domains"`

	// BlockedDomains are never harvested.
	BlockedDomains []string `json:"blocked_domains"`
}

// DefaultConfig returns default compliance configuration.
func DefaultConfig() *Config {
	return &Config{
		RespectRobotsTxt: true,
		CacheTimeout:     24 * time.Hour,
		UserAgent:        "HarvestKit/1.0 (+https://harvestkit.dev/bot)",
		BlockedDomains: []string{
			"facebook.com",
			"twitter.com",
			"instagram.com",
			"tiktok.com",
		},
	}
}

// Result reports whether a URL may be harvested.
type Result struct {
	URL        string        `json:"url"`
	Domain     string        `json:"domain"`
	Allowed    bool          `json:"allowed"`
	Reason     string        `json:"reason,omitempty"`
	CrawlDelay time.Duration `json:"crawl_delay"`
	CheckedAt  time.Time     `json:"checked_at"`
}

type robotsEntry struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
}

// Checker caches per-host robots.txt data and applies domain allow and
// block lists before harvesting a URL.
type Checker struct {
	config *Config
	client *http.Client

	cache   map[string]*robotsEntry
	cacheMu sync.RWMutex
}

// NewChecker creates a compliance checker. A nil config gets defaults,
// a nil client gets a plain 30s-timeout client.
func NewChecker(config *Config, client *http.Client) *Checker {
	if config == nil {
		config = DefaultConfig()
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Checker{
		config: config,
		client: client,
		cache:  make(map[string]*robotsEntry),
	}
}

// Check decides whether targetURL may be fetched. Robots fetch failures
// deny the URL rather than risk crawling a forbidden path.
func (c *Checker) Check(ctx context.Context, targetURL string) (*Result, error) {
	logger := logging.GetLogger("compliance")

	parsed, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	result := &Result{
		URL:       targetURL,
		Domain:    parsed.Hostname(),
		CheckedAt: time.Now().UTC(),
	}

	if matchesDomain(result.Domain, c.config.BlockedDomains) {
		result.Reason = "domain is blocked"
		return result, nil
	}
	if len(c.config.AllowedDomains) > 0 && !matchesDomain(result.Domain, c.config.AllowedDomains) {
		result.Reason = "domain not in allow list"
		return result, nil
	}

	if !c.config.RespectRobotsTxt {
		result.Allowed = true
		return result, nil
	}

	data, err := c.robotsFor(ctx, parsed)
	if err != nil {
		logger.Warn().Err(err).Str("domain", result.Domain).Msg("Failed to fetch robots.txt")
		result.Reason = "robots.txt unavailable"
		return result, nil
	}

	group := data.FindGroup(c.config.UserAgent)
	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}

	if !group.Test(path) {
		result.Reason = "blocked by robots.txt"
		return result, nil
	}

	result.Allowed = true
	result.CrawlDelay = group.CrawlDelay
	return result, nil
}

// robotsFor returns cached robots.txt data for the URL's host, fetching
// it when missing or stale.
func (c *Checker) robotsFor(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	host := u.Host

	c.cacheMu.RLock()
	entry, ok := c.cache[host]
	c.cacheMu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < c.config.CacheTimeout {
		return entry.data, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("robots.txt fetch failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("robots.txt parse failed: %w", err)
	}

	c.cacheMu.Lock()
	c.cache[host] = &robotsEntry{data: data, fetchedAt: time.Now()}
	c.cacheMu.Unlock()

	return data, nil
}

// matchesDomain reports whether host equals or is a subdomain of any
// listed domain.
func matchesDomain(host string, domains []string) bool {
	host = strings.ToLower(host)
	for _, domain := range domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" {
			continue
		}
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
