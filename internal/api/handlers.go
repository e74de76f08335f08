package api

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/harvestkit/harvestkit/internal/pipeline"
	"github.com/harvestkit/harvestkit/internal/storage"
	"github.com/harvestkit/harvestkit/pkg/logging"
)

// JobRunner executes a harvest job. Satisfied by pipeline.Runner.
type JobRunner interface {
	Run(ctx context.Context, job *pipeline.Job) error
}

// Handlers contains the HTTP handlers for the control API.
type Handlers struct {
	tracker *pipeline.Tracker
	runner  JobRunner
	store   storage.Backend
	metrics *storage.SimpleMetricsCollector
}

// NewHandlers creates a new handlers instance.
func NewHandlers(tracker *pipeline.Tracker, runner JobRunner, store storage.Backend, metrics *storage.SimpleMetricsCollector) *Handlers {
	return &Handlers{
		tracker: tracker,
		runner:  runner,
		store:   store,
		metrics: metrics,
	}
}

// Health returns the service health status.
func (h *Handlers) Health(c *fiber.Ctx) error {
	storageStatus := "healthy"
	if err := h.store.Health(c.Context()); err != nil {
		storageStatus = "unhealthy: " + err.Error()
	}
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"service":   "harvestkit",
		"version":   "0.1.0",
		"storage":   storageStatus,
		"timestamp": time.Now().UTC(),
	})
}

// StartHarvestRequest represents a harvest job request.
type StartHarvestRequest struct {
	Query  string `json:"query"`
	Target string `json:"target"`
}

// StartHarvest registers a harvest job and runs it in the background.
func (h *Handlers) StartHarvest(c *fiber.Ctx) error {
	var req StartHarvestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "query is required",
		})
	}
	switch req.Target {
	case "":
		req.Target = "any"
	case "pdf", "page", "any":
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "target must be one of pdf, page, any",
		})
	}

	job := h.tracker.Create(req.Query, req.Target)

	go func() {
		logger := logging.GetJobLogger(job.ID(), job.Query())
		if err := h.runner.Run(context.Background(), job); err != nil {
			logger.Error().Err(err).Msg("Harvest job failed")
		}
	}()

	return c.Status(fiber.StatusAccepted).JSON(job.Snapshot())
}

// GetHarvest returns the state of one harvest job.
func (h *Handlers) GetHarvest(c *fiber.Ctx) error {
	job, ok := h.tracker.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "harvest job not found",
		})
	}
	return c.JSON(job.Snapshot())
}

// ListHarvests returns all harvest jobs, newest first.
func (h *Handlers) ListHarvests(c *fiber.Ctx) error {
	jobs := h.tracker.List()
	return c.JSON(fiber.Map{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// ListVolumes returns metadata for all stored volumes.
func (h *Handlers) ListVolumes(c *fiber.Ctx) error {
	infos, err := h.store.ListVolumes(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to list volumes",
			"details": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"volumes": infos,
		"count":   len(infos),
	})
}

// GetVolume streams the raw bytes of a volume file.
func (h *Handlers) GetVolume(c *fiber.Ctx) error {
	fileName := c.Params("name")
	data, err := h.store.ReadVolume(c.Context(), fileName)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "volume not found",
		})
	}

	contentType := "text/plain; charset=utf-8"
	if filepath.Ext(fileName) == ".pdf" {
		contentType = "application/pdf"
	}
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}

// StorageStats returns aggregate storage operation metrics.
func (h *Handlers) StorageStats(c *fiber.Ctx) error {
	if h.metrics == nil {
		return c.JSON(fiber.Map{})
	}
	return c.JSON(h.metrics.Summary())
}
