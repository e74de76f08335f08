package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/harvestkit/harvestkit/internal/volume"
	"github.com/harvestkit/harvestkit/pkg/document"
)

// HybridConfig defines configuration for the hybrid storage layer.
type HybridConfig struct {
	// Enable fallback to the archive backend when the primary fails.
	EnableFallback bool `json:"enable_fallback"`

	// Timeout for a single backend operation.
	OperationTimeout time.Duration `json:"operation_timeout"`

	// Mirror successful volume stores into the archive backend.
	EnableArchiveMirror bool `json:"enable_archive_mirror"`
}

// DefaultHybridConfig returns sensible defaults for hybrid storage.
func DefaultHybridConfig() *HybridConfig {
	return &HybridConfig{
		EnableFallback:      true,
		OperationTimeout:    10 * time.Second,
		EnableArchiveMirror: true,
	}
}

// HybridStorage writes to a primary backend and keeps a git archive as
// fallback and mirror.
type HybridStorage struct {
	primary          Backend
	archive          Backend
	config           *HybridConfig
	metricsCollector MetricsCollector
}

// NewHybridStorage combines a primary backend with an optional archive
// backend. archive may be nil, which disables fallback and mirroring.
func NewHybridStorage(primary, archive Backend, config *HybridConfig, metrics MetricsCollector) *HybridStorage {
	if config == nil {
		config = DefaultHybridConfig()
	}
	return &HybridStorage{
		primary:          primary,
		archive:          archive,
		config:           config,
		metricsCollector: metrics,
	}
}

func (h *HybridStorage) StoreVolume(ctx context.Context, vol *volume.Volume, data []byte) (string, error) {
	start := time.Now()
	timeoutCtx, cancel := context.WithTimeout(ctx, h.config.OperationTimeout)
	defer cancel()

	ref, err := h.primary.StoreVolume(timeoutCtx, vol, data)
	if err != nil && h.canFallback() {
		log.Warn().Err(err).Str("volume", vol.FileName()).
			Msg("Primary backend failed, storing volume in archive")
		ref, err = h.archive.StoreVolume(timeoutCtx, vol, data)
		h.recordHybridMetric("store_volume", start, err == nil, "fallback")
		return ref, err
	}
	h.recordHybridMetric("store_volume", start, err == nil, "primary")

	if err == nil && h.archive != nil && h.config.EnableArchiveMirror {
		go h.mirrorVolume(vol, data)
	}
	return ref, err
}

// StoreDocument archives a document. Documents are archival data, so
// they go to the archive backend when one is configured and get
// committed there; the primary only serves as fallback.
func (h *HybridStorage) StoreDocument(ctx context.Context, doc *document.Document) (string, error) {
	start := time.Now()
	timeoutCtx, cancel := context.WithTimeout(ctx, h.config.OperationTimeout)
	defer cancel()

	if h.archive == nil {
		ref, err := h.primary.StoreDocument(timeoutCtx, doc)
		h.recordHybridMetric("store_document", start, err == nil, "primary")
		return ref, err
	}

	ref, err := h.archive.StoreDocument(timeoutCtx, doc)
	if err != nil && h.config.EnableFallback {
		log.Warn().Err(err).Str("document_id", doc.ID).
			Msg("Archive backend failed, storing document in primary")
		ref, err = h.primary.StoreDocument(timeoutCtx, doc)
		h.recordHybridMetric("store_document", start, err == nil, "fallback")
		return ref, err
	}
	h.recordHybridMetric("store_document", start, err == nil, "archive")
	return ref, err
}

func (h *HybridStorage) ListVolumes(ctx context.Context) ([]VolumeInfo, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, h.config.OperationTimeout)
	defer cancel()

	infos, err := h.primary.ListVolumes(timeoutCtx)
	if err != nil && h.canFallback() {
		return h.archive.ListVolumes(timeoutCtx)
	}
	return infos, err
}

func (h *HybridStorage) ReadVolume(ctx context.Context, fileName string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, h.config.OperationTimeout)
	defer cancel()

	data, err := h.primary.ReadVolume(timeoutCtx, fileName)
	if err != nil && h.canFallback() {
		return h.archive.ReadVolume(timeoutCtx, fileName)
	}
	return data, err
}

// Health reports healthy when at least one backend is reachable.
func (h *HybridStorage) Health(ctx context.Context) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, h.config.OperationTimeout)
	defer cancel()

	primaryErr := h.primary.Health(timeoutCtx)
	if h.archive == nil {
		return primaryErr
	}
	archiveErr := h.archive.Health(timeoutCtx)

	if primaryErr != nil && archiveErr != nil {
		return fmt.Errorf("both backends unhealthy, primary: %v, archive: %v", primaryErr, archiveErr)
	}
	return nil
}

func (h *HybridStorage) canFallback() bool {
	return h.archive != nil && h.config.EnableFallback
}

func (h *HybridStorage) mirrorVolume(vol *volume.Volume, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.OperationTimeout)
	defer cancel()

	if _, err := h.archive.StoreVolume(ctx, vol, data); err != nil {
		log.Warn().Err(err).Str("volume", vol.FileName()).
			Msg("Failed to mirror volume to archive")
	}
}

func (h *HybridStorage) recordHybridMetric(operation string, start time.Time, success bool, route string) {
	if h.metricsCollector != nil {
		h.metricsCollector.RecordMetric(Metrics{
			OperationType: operation,
			Duration:      time.Since(start).Nanoseconds(),
			Success:       success,
			Backend:       "hybrid_" + route,
		})
	}
}
