package compliance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func robotsServer(t *testing.T, robots string, fetches *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			if fetches != nil {
				atomic.AddInt32(fetches, 1)
			}
			w.Write([]byte(robots))
			return
		}
		w.Write([]byte("page"))
	}))
}

func TestCheckerRespectsDisallow(t *testing.T) {
	srv := robotsServer(t, "User-agent: *\nDisallow: /private/\nCrawl-delay: 2\n", nil)
	defer srv.Close()

	checker := NewChecker(&Config{
		RespectRobotsTxt: true,
		CacheTimeout:     time.Hour,
		UserAgent:        "HarvestKit/1.0",
	}, srv.Client())

	ctx := context.Background()

	result, err := checker.Check(ctx, srv.URL+"/articles/report.html")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 2*time.Second, result.CrawlDelay)

	result, err = checker.Check(ctx, srv.URL+"/private/secret.html")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, "blocked by robots.txt", result.Reason)
}

func TestCheckerCachesRobots(t *testing.T) {
	var fetches int32
	srv := robotsServer(t, "User-agent: *\nAllow: /\n", &fetches)
	defer srv.Close()

	checker := NewChecker(&Config{
		RespectRobotsTxt: true,
		CacheTimeout:     time.Hour,
		UserAgent:        "HarvestKit/1.0",
	}, srv.Client())

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := checker.Check(ctx, srv.URL+"/page")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))
}

func TestCheckerMissingRobotsAllowsAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	checker := NewChecker(&Config{
		RespectRobotsTxt: true,
		CacheTimeout:     time.Hour,
		UserAgent:        "HarvestKit/1.0",
	}, srv.Client())

	result, err := checker.Check(context.Background(), srv.URL+"/anything")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestCheckerDomainLists(t *testing.T) {
	checker := NewChecker(&Config{
		RespectRobotsTxt: false,
		BlockedDomains:   []string{"facebook.com"},
	}, nil)

	ctx := context.Background()

	result, err := checker.Check(ctx, "https://www.facebook.com/some/page")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, "domain is blocked", result.Reason)

	result, err = checker.Check(ctx, "https://example.org/page")
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	allowOnly := NewChecker(&Config{
		RespectRobotsTxt: false,
		AllowedDomains:   []string{"arxiv.org"},
	}, nil)

	result, err = allowOnly.Check(ctx, "https://export.arxiv.org/pdf/1234")
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	result, err = allowOnly.Check(ctx, "https://example.org/page")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
}

func TestCheckerDisabledSkipsFetch(t *testing.T) {
	checker := NewChecker(&Config{RespectRobotsTxt: false}, nil)

	result, err := checker.Check(context.Background(), "https://unreachable.invalid/page")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMatchesDomain(t *testing.T) {
	domains := []string{"example.com"}
	assert.True(t, matchesDomain("example.com", domains))
	assert.True(t, matchesDomain("sub.example.com", domains))
	assert.False(t, matchesDomain("notexample.com", domains))
	assert.False(t, matchesDomain("example.com.evil.org", domains))
}
