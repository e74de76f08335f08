package extractor

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

// ArticleExtractor extracts readable article text from HTML using
// readability, with a plain DOM walk as fallback for pages readability
// cannot handle (index pages, sparse content).
type ArticleExtractor struct {
	sanitizer *bluemonday.Policy
	fallback  *HTMLExtractor
	baseURL   *url.URL // placeholder base for resolving relative links
}

// NewArticleExtractor creates an article extractor.
func NewArticleExtractor() *ArticleExtractor {
	base, _ := url.Parse("https://localhost/")
	return &ArticleExtractor{
		sanitizer: bluemonday.UGCPolicy(),
		fallback:  &HTMLExtractor{},
		baseURL:   base,
	}
}

func (a *ArticleExtractor) Extract(ctx context.Context, content []byte) (string, map[string]string, error) {
	metadata := map[string]string{
		"type": "article",
		"size": fmt.Sprintf("%d", len(content)),
	}

	title, date := a.pageMeta(content)
	if title != "" {
		metadata["title"] = title
	}
	if date != "" {
		metadata["date"] = date
	}

	article, err := readability.FromReader(bytes.NewReader(content), a.baseURL)
	if err == nil {
		text := strings.TrimSpace(article.TextContent)
		if text != "" {
			if article.Title != "" {
				metadata["title"] = article.Title
			}
			if article.Byline != "" {
				metadata["byline"] = article.Byline
			}
			if article.SiteName != "" {
				metadata["site"] = article.SiteName
			}
			metadata["method"] = "readability"
			metadata["word_count"] = fmt.Sprintf("%d", len(strings.Fields(text)))
			return text, metadata, nil
		}
	}

	// Readability came back empty; sanitize and fall back to the DOM walk.
	sanitized := a.sanitizer.SanitizeBytes(content)
	text, fbMeta, fbErr := a.fallback.Extract(ctx, sanitized)
	if fbErr != nil {
		return "", metadata, &ProcessingError{
			Message: fmt.Sprintf("no readable article content: %v", fbErr),
		}
	}
	if metadata["title"] == "" && fbMeta["title"] != "" {
		metadata["title"] = fbMeta["title"]
	}
	metadata["method"] = "dom"
	metadata["word_count"] = fmt.Sprintf("%d", len(strings.Fields(text)))
	return text, metadata, nil
}

// pageMeta pulls title and publication date hints from meta tags.
func (a *ArticleExtractor) pageMeta(content []byte) (title, date string) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", ""
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && og != "" {
		title = strings.TrimSpace(og)
	}

	dateSelectors := []string{
		`meta[property="article:published_time"]`,
		`meta[name="date"]`,
		`meta[name="dc.date"]`,
		`meta[itemprop="datePublished"]`,
	}
	for _, sel := range dateSelectors {
		if v, ok := doc.Find(sel).Attr("content"); ok && v != "" {
			return title, strings.TrimSpace(v)
		}
	}
	if v, ok := doc.Find("time[datetime]").Attr("datetime"); ok && v != "" {
		return title, strings.TrimSpace(v)
	}
	return title, ""
}
