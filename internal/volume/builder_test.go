package volume

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestkit/harvestkit/pkg/document"
)

func testDoc(i int) *document.Document {
	doc := &document.Document{
		ID: fmt.Sprintf("doc-%d", i),
		Source: document.Source{
			Type: "html",
			URL:  fmt.Sprintf("https://example.com/page-%d", i),
		},
		Title: fmt.Sprintf("Page %d", i),
	}
	doc.Content.Text = strings.Repeat(fmt.Sprintf("word%d ", i), 20)
	doc.WordCount = doc.CountWords()
	return doc
}

func TestBuilderCutsAtBatchSize(t *testing.T) {
	b := NewBuilder("climate reports", "text", 3)

	assert.Nil(t, b.Add(testDoc(1)))
	assert.Nil(t, b.Add(testDoc(2)))
	assert.Equal(t, 2, b.Pending())

	vol := b.Add(testDoc(3))
	require.NotNil(t, vol)
	assert.Equal(t, 1, vol.Number)
	assert.Len(t, vol.Documents, 3)
	assert.NotEmpty(t, vol.ID)
	assert.Equal(t, 0, b.Pending())

	// Next batch starts fresh and gets the next number.
	assert.Nil(t, b.Add(testDoc(4)))
	assert.Nil(t, b.Add(testDoc(5)))
	vol2 := b.Add(testDoc(6))
	require.NotNil(t, vol2)
	assert.Equal(t, 2, vol2.Number)
}

func TestBuilderFlushPartial(t *testing.T) {
	b := NewBuilder("climate reports", "text", 10)

	b.Add(testDoc(1))
	b.Add(testDoc(2))

	vol := b.Flush()
	require.NotNil(t, vol)
	assert.Len(t, vol.Documents, 2)
	assert.Equal(t, 1, vol.Number)

	assert.Nil(t, b.Flush(), "empty builder should flush nothing")
}

func TestVolumeFileName(t *testing.T) {
	tests := []struct {
		query  string
		format string
		number int
		want   string
	}{
		{"Climate Reports 2024", "text", 1, "climate-reports-2024-vol-001.txt"},
		{"deep learning", "pdf", 12, "deep-learning-vol-012.pdf"},
		{"!!!", "text", 3, "untitled-vol-003.txt"},
	}
	for _, tt := range tests {
		vol := &Volume{Query: tt.query, Format: tt.format, Number: tt.number}
		assert.Equal(t, tt.want, vol.FileName())
	}
}

func TestTextRendererIncludesHeadersAndBodies(t *testing.T) {
	vol := &Volume{
		Query:     "climate reports",
		Number:    1,
		Format:    "text",
		Documents: []*document.Document{testDoc(1), testDoc(2)},
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	out, err := (&TextRenderer{}).Render(vol)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "VOLUME 1")
	assert.Contains(t, text, "climate reports")
	assert.Contains(t, text, "[1/2] Page 1")
	assert.Contains(t, text, "[2/2] Page 2")
	assert.Contains(t, text, "https://example.com/page-1")
	assert.Contains(t, text, "word1")
	assert.Contains(t, text, "word2")
}

func TestPDFRendererProducesPDF(t *testing.T) {
	vol := &Volume{
		Query:     "climate reports",
		Number:    2,
		Format:    "pdf",
		Documents: []*document.Document{testDoc(1)},
		CreatedAt: time.Now().UTC(),
	}

	out, err := (&PDFRenderer{}).Render(vol)
	require.NoError(t, err)
	require.Greater(t, len(out), 4)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestForFormat(t *testing.T) {
	r, err := ForFormat("text")
	require.NoError(t, err)
	assert.IsType(t, &TextRenderer{}, r)

	r, err = ForFormat("pdf")
	require.NoError(t, err)
	assert.IsType(t, &PDFRenderer{}, r)

	_, err = ForFormat("xml")
	assert.Error(t, err)
}
