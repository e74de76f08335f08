package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Bing queries bing.com/search.
type Bing struct {
	client  *http.Client
	baseURL string
}

// NewBing creates a Bing engine using the shared client.
func NewBing(client *http.Client) *Bing {
	return &Bing{
		client:  client,
		baseURL: "https://www.bing.com/search",
	}
}

func (b *Bing) Name() string { return "bing" }

func (b *Bing) searchURL(query Query) string {
	return b.baseURL + "?q=" + url.QueryEscape(query.Terms())
}

func (b *Bing) Search(ctx context.Context, query Query) ([]Result, error) {
	searchURL := b.searchURL(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	setBrowserHeaders(req)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bing request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bing returned status %d", resp.StatusCode)
	}

	return b.parse(resp.Body, query)
}

func (b *Bing) parse(body io.Reader, query Query) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bing results: %w", err)
	}

	var results []Result
	doc.Find("li.b_algo h2 a").Each(func(i int, s *goquery.Selection) {
		if query.MaxResults > 0 && len(results) >= query.MaxResults {
			return
		}
		href, ok := s.Attr("href")
		if !ok || !acceptableLink(href) {
			return
		}
		if query.PDFOnly && !isPDFLink(href) {
			return
		}
		results = append(results, Result{
			Title:  strings.TrimSpace(s.Text()),
			URL:    href,
			Engine: b.Name(),
			Rank:   len(results) + 1,
		})
	})

	// Some Bing layouts put organic links outside li.b_algo. Fall back to
	// scanning all anchors when the primary selector matched nothing.
	if len(results) == 0 {
		doc.Find("a").Each(func(i int, s *goquery.Selection) {
			if query.MaxResults > 0 && len(results) >= query.MaxResults {
				return
			}
			href, ok := s.Attr("href")
			if !ok || !acceptableLink(href) {
				return
			}
			if strings.Contains(href, "/search") {
				return
			}
			if query.PDFOnly && !isPDFLink(href) {
				return
			}
			results = append(results, Result{
				Title:  strings.TrimSpace(s.Text()),
				URL:    href,
				Engine: b.Name(),
				Rank:   len(results) + 1,
			})
		})
	}

	return results, nil
}
