package storage

import (
	"context"
	"time"

	"github.com/harvestkit/harvestkit/internal/volume"
	"github.com/harvestkit/harvestkit/pkg/document"
)

// Backend defines the interface for harvest output storage implementations.
type Backend interface {
	// StoreVolume persists a rendered volume file and returns a backend
	// reference (file path or commit hash).
	StoreVolume(ctx context.Context, vol *volume.Volume, data []byte) (string, error)

	// StoreDocument archives an individual harvested document.
	StoreDocument(ctx context.Context, doc *document.Document) (string, error)

	// ListVolumes returns metadata for every stored volume.
	ListVolumes(ctx context.Context) ([]VolumeInfo, error)

	// ReadVolume returns the raw bytes of a stored volume file.
	ReadVolume(ctx context.Context, fileName string) ([]byte, error)

	Health(ctx context.Context) error
}

// VolumeInfo describes a stored volume without its content.
type VolumeInfo struct {
	FileName  string    `json:"file_name"`
	Query     string    `json:"query"`
	Number    int       `json:"number"`
	Format    string    `json:"format"`
	Documents int       `json:"documents"`
	Words     int       `json:"words"`
	Size      int64     `json:"size_bytes"`
	StoredAt  time.Time `json:"stored_at"`
}

// Metrics provides telemetry for storage operations.
type Metrics struct {
	OperationType string
	Duration      int64 // nanoseconds
	Success       bool
	Backend       string
	Error         error
}

// MetricsCollector receives storage operation metrics.
type MetricsCollector interface {
	RecordMetric(metric Metrics)
}
