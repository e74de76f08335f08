package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPDFExtractorRejectsInvalidContent(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"empty content", []byte{}},
		{"nil content", nil},
		{"not a pdf", []byte("This is not a PDF file")},
		{"html served as pdf", []byte("<html><body>404</body></html>")},
	}

	extractor := &PDFExtractor{MaxPages: 100}
	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, metadata, err := extractor.Extract(ctx, tt.content)
			assert.Error(t, err)
			assert.Empty(t, text)
			assert.Equal(t, "pdf", metadata["type"])

			var perr *ProcessingError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestPDFExtractorRejectsTruncatedPDF(t *testing.T) {
	// Valid magic bytes but no document structure.
	extractor := &PDFExtractor{}
	text, _, err := extractor.Extract(context.Background(), []byte("%PDF-1.7\ngarbage"))
	assert.Error(t, err)
	assert.Empty(t, text)
}
