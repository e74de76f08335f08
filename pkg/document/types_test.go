package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDocumentValidate(t *testing.T) {
	tests := []struct {
		name        string
		doc         Document
		expectError bool
	}{
		{
			name: "valid web document",
			doc: Document{
				ID:     "doc-001",
				Source: Source{Type: "pdf", URL: "https://example.com/paper.pdf"},
			},
			expectError: false,
		},
		{
			name: "valid local document",
			doc: Document{
				ID:     "doc-002",
				Source: Source{Type: "text", Path: "/tmp/notes.txt"},
			},
			expectError: false,
		},
		{
			name:        "missing ID",
			doc:         Document{Source: Source{Type: "html", URL: "https://example.com"}},
			expectError: true,
		},
		{
			name:        "missing type",
			doc:         Document{ID: "doc-003", Source: Source{URL: "https://example.com"}},
			expectError: true,
		},
		{
			name:        "missing URL and path",
			doc:         Document{ID: "doc-004", Source: Source{Type: "html"}},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCountWords(t *testing.T) {
	doc := Document{Content: Content{Text: "the quick   brown fox\njumps"}}
	assert.Equal(t, 5, doc.CountWords())
	assert.Equal(t, 5, doc.WordCount)

	empty := Document{}
	assert.Equal(t, 0, empty.CountWords())
}

func TestStoragePath(t *testing.T) {
	doc := Document{
		ID:        "abc123",
		Source:    Source{Type: "pdf", URL: "https://example.com/x.pdf"},
		CreatedAt: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "documents/pdf/2025/03/abc123", doc.StoragePath())
}

func TestFileNameFromURL(t *testing.T) {
	assert.Equal(t, "paper.pdf", FileNameFromURL("https://example.com/docs/paper.pdf"))
	assert.Equal(t, "paper.pdf", FileNameFromURL("https://example.com/docs/paper.pdf?dl=1#page=2"))
	assert.Equal(t, "docs", FileNameFromURL("https://example.com/docs/"))
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"climate change report 2024", "climate-change-report-2024"},
		{"  Mixed CASE & symbols!!  ", "mixed-case-symbols"},
		{"filetype:pdf machine learning", "filetype-pdf-machine-learning"},
		{"", "untitled"},
		{"///", "untitled"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeName(tt.in), "input %q", tt.in)
	}
}
