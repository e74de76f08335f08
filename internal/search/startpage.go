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

// Startpage queries startpage.com, which proxies Google results without
// the aggressive JavaScript checks of Google itself.
type Startpage struct {
	client  *http.Client
	baseURL string
}

// NewStartpage creates a Startpage engine using the shared client.
func NewStartpage(client *http.Client) *Startpage {
	return &Startpage{
		client:  client,
		baseURL: "https://www.startpage.com/sp/search",
	}
}

func (s *Startpage) Name() string { return "startpage" }

func (s *Startpage) searchURL(query Query) string {
	return s.baseURL + "?query=" + url.QueryEscape(query.Terms())
}

func (s *Startpage) Search(ctx context.Context, query Query) ([]Result, error) {
	searchURL := s.searchURL(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	setBrowserHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("startpage request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("startpage returned status %d", resp.StatusCode)
	}

	return s.parse(resp.Body, query)
}

func (s *Startpage) parse(body io.Reader, query Query) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse startpage results: %w", err)
	}

	var results []Result
	doc.Find("a.result-link, a.w-gl__result-title").Each(func(i int, sel *goquery.Selection) {
		if query.MaxResults > 0 && len(results) >= query.MaxResults {
			return
		}
		href, ok := sel.Attr("href")
		if !ok || !acceptableLink(href) {
			return
		}
		if query.PDFOnly && !isPDFLink(href) {
			return
		}
		results = append(results, Result{
			Title:  strings.TrimSpace(sel.Text()),
			URL:    href,
			Engine: s.Name(),
			Rank:   len(results) + 1,
		})
	})

	return results, nil
}
