package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLExtractor walks the DOM and collects visible text, skipping
// chrome elements (nav, header, footer) and script/style.
type HTMLExtractor struct{}

func (h *HTMLExtractor) Extract(ctx context.Context, content []byte) (string, map[string]string, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var textBuilder strings.Builder
	var title string
	walkText(doc, &textBuilder, &title)

	text := collapseLines(textBuilder.String())

	metadata := map[string]string{
		"type":       "html",
		"characters": fmt.Sprintf("%d", len(text)),
		"title":      title,
	}
	if text == "" {
		return "", metadata, &ProcessingError{Message: "HTML document contains no visible text"}
	}
	return text, metadata, nil
}

func walkText(n *html.Node, w io.Writer, title *string) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "nav", "header", "footer", "aside":
			return
		case "title":
			if *title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				*title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
	}

	if n.Type == html.TextNode {
		text := strings.TrimSpace(n.Data)
		if text != "" {
			if n.Parent != nil && isBlockElement(n.Parent.Data) {
				fmt.Fprintf(w, "\n%s\n", text)
			} else {
				fmt.Fprintf(w, " %s ", text)
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, w, title)
	}
}

func isBlockElement(tag string) bool {
	switch tag {
	case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "li", "blockquote",
		"article", "section", "main", "pre", "td", "th", "dt", "dd":
		return true
	}
	return false
}

// collapseLines trims each line, drops empties, and joins paragraphs
// with blank lines.
func collapseLines(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, strings.Join(strings.Fields(line), " "))
		}
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n\n"))
}
