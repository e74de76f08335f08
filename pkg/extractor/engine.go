package extractor

import (
	"context"
	"fmt"
	"strings"
)

// ProcessingError represents a non-retryable extraction error: the
// content was downloaded fine but cannot yield text.
type ProcessingError struct {
	Message string
}

func (e *ProcessingError) Error() string {
	return e.Message
}

// Extractor converts raw content of one format into text plus metadata.
type Extractor interface {
	Extract(ctx context.Context, content []byte) (string, map[string]string, error)
}

// Engine dispatches extraction by content type.
type Engine struct {
	extractors map[string]Extractor
}

// NewEngine creates an engine with all supported formats registered.
func NewEngine() *Engine {
	article := NewArticleExtractor()
	ocr := NewOCRExtractor()
	return &Engine{
		extractors: map[string]Extractor{
			"text":    &TextExtractor{},
			"txt":     &TextExtractor{},
			"html":    article,
			"article": article,
			"pdf":     &PDFExtractor{MaxPages: 1000},
			"docx":    &DOCXExtractor{},
			"doc":     &DOCXExtractor{},
			"png":     ocr,
			"jpg":     ocr,
			"jpeg":    ocr,
			"tiff":    ocr,
		},
	}
}

// Extract runs the extractor registered for contentType, defaulting to
// plain text for unknown types.
func (e *Engine) Extract(ctx context.Context, content []byte, contentType string) (string, map[string]string, error) {
	extractor, ok := e.extractors[strings.ToLower(contentType)]
	if !ok {
		extractor = e.extractors["text"]
	}
	return extractor.Extract(ctx, content)
}

// TextExtractor handles plain text files
type TextExtractor struct{}

func (t *TextExtractor) Extract(ctx context.Context, content []byte) (string, map[string]string, error) {
	text := strings.TrimSpace(string(content))
	metadata := map[string]string{
		"type":       "text",
		"characters": fmt.Sprintf("%d", len(text)),
		"word_count": fmt.Sprintf("%d", len(strings.Fields(text))),
	}
	if text == "" {
		return "", metadata, &ProcessingError{Message: "document contains no text"}
	}
	return text, metadata, nil
}
