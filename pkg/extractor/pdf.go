package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor handles PDF file extraction
type PDFExtractor struct {
	MaxPages int
}

// Extract extracts text and metadata from PDF content
func (p *PDFExtractor) Extract(ctx context.Context, content []byte) (string, map[string]string, error) {
	metadata := map[string]string{
		"type": "pdf",
		"size": fmt.Sprintf("%d", len(content)),
	}

	if len(content) < 4 || string(content[:4]) != "%PDF" {
		preview := content
		if len(preview) > 20 {
			preview = preview[:20]
		}
		return "", metadata, &ProcessingError{
			Message: fmt.Sprintf("not a valid PDF file - content starts with: %q", preview),
		}
	}

	reader := bytes.NewReader(content)
	doc, err := pdf.NewReader(reader, int64(len(content)))
	if err != nil {
		return "", metadata, &ProcessingError{
			Message: fmt.Sprintf("failed to parse PDF: %v", err),
		}
	}

	var textBuilder strings.Builder
	var pageCount int

	for i := 1; i <= doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", metadata, err
		}
		pageCount++
		if p.MaxPages > 0 && pageCount > p.MaxPages {
			break
		}

		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// Damaged page, keep going with the rest
			continue
		}

		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n\n")
	}

	text := strings.TrimSpace(textBuilder.String())

	metadata["pages"] = fmt.Sprintf("%d", doc.NumPage())
	metadata["extracted_pages"] = fmt.Sprintf("%d", pageCount)
	metadata["text_length"] = fmt.Sprintf("%d", len(text))

	if text == "" {
		return "", metadata, &ProcessingError{
			Message: "PDF contains no extractable text",
		}
	}

	metadata["status"] = "success"
	return text, metadata, nil
}
