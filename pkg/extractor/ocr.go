//go:build ocr

package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// OCRExtractor handles text extraction from scanned images via Tesseract.
type OCRExtractor struct {
	Language             string
	PageSegmentationMode gosseract.PageSegMode
}

// NewOCRExtractor creates an OCR extractor with default settings
func NewOCRExtractor() *OCRExtractor {
	return &OCRExtractor{
		Language:             "eng",
		PageSegmentationMode: gosseract.PSM_AUTO,
	}
}

// Extract extracts text from image content using OCR
func (o *OCRExtractor) Extract(ctx context.Context, content []byte) (string, map[string]string, error) {
	metadata := map[string]string{
		"type":     "ocr",
		"size":     fmt.Sprintf("%d", len(content)),
		"language": o.Language,
		"engine":   "tesseract",
	}

	if len(content) == 0 {
		return "", metadata, &ProcessingError{
			Message: "no image content provided for OCR",
		}
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(o.Language); err != nil {
		return "", metadata, &ProcessingError{
			Message: fmt.Sprintf("failed to set OCR language %q: %v", o.Language, err),
		}
	}
	if err := client.SetPageSegMode(o.PageSegmentationMode); err != nil {
		return "", metadata, &ProcessingError{
			Message: fmt.Sprintf("failed to set page segmentation mode: %v", err),
		}
	}
	if err := client.SetImageFromBytes(content); err != nil {
		return "", metadata, &ProcessingError{
			Message: fmt.Sprintf("failed to set OCR image data: %v", err),
		}
	}

	text, err := client.Text()
	if err != nil {
		return "", metadata, &ProcessingError{
			Message: fmt.Sprintf("OCR text extraction failed: %v", err),
		}
	}

	text = strings.TrimSpace(text)
	metadata["text_length"] = fmt.Sprintf("%d", len(text))

	if text == "" {
		return "", metadata, &ProcessingError{
			Message: "OCR produced no text",
		}
	}

	metadata["status"] = "success"
	return text, metadata, nil
}
