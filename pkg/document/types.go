package document

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// Document represents a single harvested document before it is batched
// into a volume.
type Document struct {
	ID        string    `json:"id"`
	Source    Source    `json:"source"`
	Title     string    `json:"title"`
	Date      string    `json:"date,omitempty"` // publication date as found on the page, free-form
	WordCount int       `json:"word_count"`
	Content   Content   `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Source describes where a document came from
type Source struct {
	Type   string `json:"type"`             // Document type: text, html, article, pdf, docx
	URL    string `json:"url,omitempty"`    // Source URL if fetched from web
	Path   string `json:"path,omitempty"`   // Local path if from filesystem
	Engine string `json:"engine,omitempty"` // Search engine that produced the URL
	Query  string `json:"query,omitempty"`  // Query the URL was harvested for
}

// Content holds the document's actual data
type Content struct {
	Raw      []byte            `json:"-"`        // Raw binary content (not serialized to JSON)
	Text     string            `json:"text"`     // Extracted text content
	Metadata map[string]string `json:"metadata"` // Arbitrary metadata
}

// Validate checks if the document has required fields
func (d *Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("document ID cannot be empty")
	}
	if d.Source.Type == "" {
		return fmt.Errorf("document source type cannot be empty")
	}
	if d.Source.URL == "" && d.Source.Path == "" {
		return fmt.Errorf("document must have either URL or path")
	}
	return nil
}

// CountWords recomputes WordCount from the extracted text.
func (d *Document) CountWords() int {
	d.WordCount = len(strings.Fields(d.Content.Text))
	return d.WordCount
}

// StoragePath returns the per-document archive path.
// Format: documents/{type}/{YYYY/MM}/{id}
func (d *Document) StoragePath() string {
	date := d.CreatedAt.Format("2006/01")
	return fmt.Sprintf("documents/%s/%s/%s", d.Source.Type, date, d.ID)
}

// FileNameFromURL returns the last path element of a URL, suitable as a
// local file name. Query strings and fragments are stripped first.
func FileNameFromURL(rawURL string) string {
	name := rawURL
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return path.Base(name)
}

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeName converts an arbitrary string (typically a search query)
// into a safe lowercase file name fragment.
func SanitizeName(s string) string {
	lowered := strings.ToLower(strings.TrimSpace(s))
	lowered = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, lowered)
	cleaned := unsafeNameChars.ReplaceAllString(lowered, "-")
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		return "untitled"
	}
	if len(cleaned) > 80 {
		cleaned = cleaned[:80]
		cleaned = strings.Trim(cleaned, "-")
	}
	return cleaned
}
