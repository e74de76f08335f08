package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<html>
<head>
  <title>Sample Page</title>
  <meta property="article:published_time" content="2024-06-01T10:00:00Z">
  <style>body { color: red }</style>
  <script>console.log("ignore me")</script>
</head>
<body>
  <nav>Home | About | Contact</nav>
  <article>
    <h1>The Heading</h1>
    <p>First paragraph with enough words to matter for extraction purposes,
    describing something reasonably interesting in complete sentences.</p>
    <p>Second paragraph that continues the discussion with more detail and
    still more words so the readable body is clearly the main content.</p>
  </article>
  <footer>Copyright 2024</footer>
</body>
</html>`

func TestHTMLExtractorSkipsChrome(t *testing.T) {
	extractor := &HTMLExtractor{}
	text, metadata, err := extractor.Extract(context.Background(), []byte(samplePage))
	require.NoError(t, err)

	assert.Contains(t, text, "The Heading")
	assert.Contains(t, text, "First paragraph")
	assert.NotContains(t, text, "ignore me")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "Home | About")
	assert.NotContains(t, text, "Copyright 2024")
	assert.Equal(t, "Sample Page", metadata["title"])
}

func TestHTMLExtractorEmptyDocument(t *testing.T) {
	extractor := &HTMLExtractor{}
	_, _, err := extractor.Extract(context.Background(), []byte("<html><body></body></html>"))
	var perr *ProcessingError
	assert.ErrorAs(t, err, &perr)
}

func TestArticleExtractorReadsMeta(t *testing.T) {
	extractor := NewArticleExtractor()
	text, metadata, err := extractor.Extract(context.Background(), []byte(samplePage))
	require.NoError(t, err)

	assert.Contains(t, text, "First paragraph")
	assert.Equal(t, "2024-06-01T10:00:00Z", metadata["date"])
	assert.NotEmpty(t, metadata["title"])
	assert.NotEmpty(t, metadata["word_count"])
}

func TestEngineDispatch(t *testing.T) {
	engine := NewEngine()
	ctx := context.Background()

	text, metadata, err := engine.Extract(ctx, []byte("plain text content here"), "text")
	require.NoError(t, err)
	assert.Equal(t, "plain text content here", text)
	assert.Equal(t, "text", metadata["type"])

	// Unknown types fall back to text extraction.
	text, _, err = engine.Extract(ctx, []byte("mystery bytes"), "weird")
	require.NoError(t, err)
	assert.Equal(t, "mystery bytes", text)

	// PDF dispatch rejects non-PDF bytes.
	_, metadata, err = engine.Extract(ctx, []byte("nope"), "pdf")
	assert.Error(t, err)
	assert.Equal(t, "pdf", metadata["type"])
}

func TestTextExtractorEmpty(t *testing.T) {
	extractor := &TextExtractor{}
	_, _, err := extractor.Extract(context.Background(), []byte("   \n  "))
	var perr *ProcessingError
	assert.ErrorAs(t, err, &perr)
}
