//go:build !ocr

package extractor

import (
	"context"
	"fmt"
)

// OCRExtractor is the stub used when the binary is built without the ocr
// tag (Tesseract not available).
type OCRExtractor struct {
	Language string
}

// NewOCRExtractor creates an OCR extractor stub
func NewOCRExtractor() *OCRExtractor {
	return &OCRExtractor{Language: "eng"}
}

// Extract returns an error indicating OCR is not available
func (o *OCRExtractor) Extract(ctx context.Context, content []byte) (string, map[string]string, error) {
	metadata := map[string]string{
		"type":   "ocr",
		"size":   fmt.Sprintf("%d", len(content)),
		"engine": "tesseract_not_available",
	}
	return "", metadata, &ProcessingError{
		Message: "OCR support not compiled in (build with -tags ocr)",
	}
}
