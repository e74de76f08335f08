package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestkit/harvestkit/internal/config"
	"github.com/harvestkit/harvestkit/internal/pipeline"
	"github.com/harvestkit/harvestkit/internal/storage"
	"github.com/harvestkit/harvestkit/internal/volume"
	"github.com/harvestkit/harvestkit/pkg/document"
)

type stubRunner struct {
	ran chan string
}

func (s *stubRunner) Run(ctx context.Context, job *pipeline.Job) error {
	if s.ran != nil {
		s.ran <- job.ID()
	}
	return nil
}

type stubStore struct {
	volumes   []storage.VolumeInfo
	content   map[string][]byte
	unhealthy bool
}

func (s *stubStore) StoreVolume(ctx context.Context, vol *volume.Volume, data []byte) (string, error) {
	return vol.FileName(), nil
}

func (s *stubStore) StoreDocument(ctx context.Context, doc *document.Document) (string, error) {
	return doc.ID, nil
}

func (s *stubStore) ListVolumes(ctx context.Context) ([]storage.VolumeInfo, error) {
	return s.volumes, nil
}

func (s *stubStore) ReadVolume(ctx context.Context, fileName string) ([]byte, error) {
	data, ok := s.content[fileName]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func (s *stubStore) Health(ctx context.Context) error {
	if s.unhealthy {
		return errors.New("storage down")
	}
	return nil
}

func newTestServer(store *stubStore, runner JobRunner) (*fiber.App, *pipeline.Tracker) {
	tracker := pipeline.NewTracker()
	h := NewHandlers(tracker, runner, store, storage.NewSimpleMetricsCollector())
	return NewServer(&config.ServerConfig{}, h), tracker
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, out))
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := newTestServer(&stubStore{}, &stubRunner{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "harvestkit", body["service"])
	assert.Equal(t, "healthy", body["storage"])
}

func TestHealthReportsStorageFailure(t *testing.T) {
	app, _ := newTestServer(&stubStore{unhealthy: true}, &stubRunner{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Contains(t, body["storage"], "unhealthy")
}

func TestStartHarvestCreatesJob(t *testing.T) {
	runner := &stubRunner{ran: make(chan string, 1)}
	app, tracker := newTestServer(&stubStore{}, runner)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/harvests/",
		strings.NewReader(`{"query": "ocean currents", "target": "pdf"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var view pipeline.JobView
	decodeBody(t, resp, &view)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "ocean currents", view.Query)
	assert.Equal(t, "pdf", view.Target)

	_, ok := tracker.Get(view.ID)
	assert.True(t, ok)

	select {
	case ranID := <-runner.ran:
		assert.Equal(t, view.ID, ranID)
	case <-time.After(time.Second):
		t.Fatal("runner was not invoked")
	}
}

func TestStartHarvestValidation(t *testing.T) {
	app, _ := newTestServer(&stubStore{}, &stubRunner{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/harvests/",
		strings.NewReader(`{"query": "   "}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/harvests/",
		strings.NewReader(`{"query": "x", "target": "video"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetHarvestNotFound(t *testing.T) {
	app, _ := newTestServer(&stubStore{}, &stubRunner{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/harvests/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListVolumesAndDownload(t *testing.T) {
	store := &stubStore{
		volumes: []storage.VolumeInfo{
			{FileName: "ocean-currents-vol-001.txt", Query: "ocean currents", Documents: 10},
		},
		content: map[string][]byte{
			"ocean-currents-vol-001.txt": []byte("volume body"),
		},
	}
	app, _ := newTestServer(store, &stubRunner{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/volumes/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Volumes []storage.VolumeInfo `json:"volumes"`
		Count   int                  `json:"count"`
	}
	decodeBody(t, resp, &body)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "ocean-currents-vol-001.txt", body.Volumes[0].FileName)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/volumes/ocean-currents-vol-001.txt", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/plain")
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "volume body", string(data))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/volumes/missing.txt", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
