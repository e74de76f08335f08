package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// DuckDuckGo queries the HTML (non-JavaScript) DuckDuckGo endpoint.
type DuckDuckGo struct {
	client  *http.Client
	baseURL string
}

// NewDuckDuckGo creates a DuckDuckGo engine using the shared client.
func NewDuckDuckGo(client *http.Client) *DuckDuckGo {
	return &DuckDuckGo{
		client:  client,
		baseURL: "https://html.duckduckgo.com/html/",
	}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) searchURL(query Query) string {
	return d.baseURL + "?q=" + url.QueryEscape(query.Terms())
}

func (d *DuckDuckGo) Search(ctx context.Context, query Query) ([]Result, error) {
	searchURL := d.searchURL(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	setBrowserHeaders(req)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned status %d", resp.StatusCode)
	}

	return d.parse(resp.Body, query)
}

func (d *DuckDuckGo) parse(body io.Reader, query Query) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse duckduckgo results: %w", err)
	}

	var results []Result
	doc.Find(".result__a").Each(func(i int, s *goquery.Selection) {
		if query.MaxResults > 0 && len(results) >= query.MaxResults {
			return
		}
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		decoded, err := decodeRedirect(href)
		if err != nil || !acceptableLink(decoded) {
			return
		}
		if query.PDFOnly && !isPDFLink(decoded) {
			return
		}
		results = append(results, Result{
			Title:  s.Text(),
			URL:    decoded,
			Engine: d.Name(),
			Rank:   len(results) + 1,
		})
	})

	return results, nil
}

// decodeRedirect unwraps DuckDuckGo's redirect URLs, which carry the real
// target in the uddg query parameter. Plain URLs pass through unchanged.
func decodeRedirect(href string) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	real := u.Query().Get("uddg")
	if real == "" {
		return href, nil
	}
	return real, nil
}
