package volume

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harvestkit/harvestkit/pkg/document"
)

// Volume is a batch of harvested documents destined for one output file.
type Volume struct {
	ID        string               `json:"id"`
	Query     string               `json:"query"`
	Number    int                  `json:"number"`
	Format    string               `json:"format"` // text or pdf
	Documents []*document.Document `json:"documents"`
	CreatedAt time.Time            `json:"created_at"`
}

// FileName returns the output file name for this volume, derived from
// the sanitized query.
func (v *Volume) FileName() string {
	ext := "txt"
	if v.Format == "pdf" {
		ext = "pdf"
	}
	return fmt.Sprintf("%s-vol-%03d.%s", document.SanitizeName(v.Query), v.Number, ext)
}

// TotalWords sums the word counts of the batched documents.
func (v *Volume) TotalWords() int {
	total := 0
	for _, d := range v.Documents {
		total += d.WordCount
	}
	return total
}

// Builder accumulates documents and emits a volume whenever the batch
// threshold is reached.
type Builder struct {
	mu        sync.Mutex
	query     string
	format    string
	batchSize int
	number    int
	pending   []*document.Document
}

// NewBuilder creates a builder for one harvest query.
func NewBuilder(query, format string, batchSize int) *Builder {
	if batchSize < 1 {
		batchSize = 10
	}
	return &Builder{
		query:     query,
		format:    format,
		batchSize: batchSize,
	}
}

// Add appends a document. When the batch threshold is reached the full
// volume is returned and the builder starts a new batch; otherwise Add
// returns nil.
func (b *Builder) Add(doc *document.Document) *Volume {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending = append(b.pending, doc)
	if len(b.pending) < b.batchSize {
		return nil
	}
	return b.cut()
}

// Flush returns the partial volume of any remaining documents, or nil if
// the batch is empty. Called when the pipeline drains.
func (b *Builder) Flush() *Volume {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pending) == 0 {
		return nil
	}
	return b.cut()
}

// Pending reports the number of documents waiting for the next volume.
func (b *Builder) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// cut closes the current batch as a volume. Caller must hold b.mu.
func (b *Builder) cut() *Volume {
	b.number++
	vol := &Volume{
		ID:        uuid.New().String(),
		Query:     b.query,
		Number:    b.number,
		Format:    b.format,
		Documents: b.pending,
		CreatedAt: time.Now().UTC(),
	}
	b.pending = nil
	return vol
}
