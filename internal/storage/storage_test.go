package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestkit/harvestkit/internal/volume"
	"github.com/harvestkit/harvestkit/pkg/document"
)

func testVolume() *volume.Volume {
	doc := &document.Document{
		ID: "doc-1",
		Source: document.Source{
			Type: "html",
			URL:  "https://example.com/article",
		},
		Title: "Test Article",
	}
	doc.Content.Text = strings.Repeat("content ", 50)
	doc.WordCount = doc.CountWords()

	return &volume.Volume{
		ID:        "vol-1",
		Query:     "test harvest",
		Number:    1,
		Format:    "text",
		Documents: []*document.Document{doc},
		CreatedAt: time.Now().UTC(),
	}
}

func TestFileBackendStoresAndListsVolumes(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), "", NewSimpleMetricsCollector())
	require.NoError(t, err)

	ctx := context.Background()
	vol := testVolume()
	data := []byte("volume contents")

	path, err := backend.StoreVolume(ctx, vol, data)
	require.NoError(t, err)
	assert.FileExists(t, path)

	infos, err := backend.ListVolumes(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "test-harvest-vol-001.txt", infos[0].FileName)
	assert.Equal(t, "test harvest", infos[0].Query)
	assert.Equal(t, 1, infos[0].Documents)
	assert.Equal(t, int64(len(data)), infos[0].Size)

	got, err := backend.ReadVolume(ctx, infos[0].FileName)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestFileBackendIndexReplacesEntryOnRestore(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), "", nil)
	require.NoError(t, err)

	ctx := context.Background()
	vol := testVolume()

	_, err = backend.StoreVolume(ctx, vol, []byte("first run"))
	require.NoError(t, err)
	_, err = backend.StoreVolume(ctx, vol, []byte("second, longer run"))
	require.NoError(t, err)

	infos, err := backend.ListVolumes(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1, "rerunning a query must not duplicate index entries")
	assert.Equal(t, int64(len("second, longer run")), infos[0].Size)
}

func TestFileBackendIndexFlattensTabsInQuery(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), "", nil)
	require.NoError(t, err)

	ctx := context.Background()
	vol := testVolume()
	vol.Query = "ocean\tcurrents\nand gyres"

	_, err = backend.StoreVolume(ctx, vol, []byte("data"))
	require.NoError(t, err)

	infos, err := backend.ListVolumes(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "ocean currents and gyres", infos[0].Query)
}

func TestFileBackendRejectsPathTraversal(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), "", nil)
	require.NoError(t, err)

	_, err = backend.ReadVolume(context.Background(), "../etc/passwd")
	assert.Error(t, err)

	_, err = backend.ReadVolume(context.Background(), indexFileName)
	assert.Error(t, err)
}

func TestFileBackendArchivesDocuments(t *testing.T) {
	archiveDir := t.TempDir()
	backend, err := NewFileBackend(t.TempDir(), archiveDir, nil)
	require.NoError(t, err)

	vol := testVolume()
	doc := vol.Documents[0]
	doc.CreatedAt = time.Now().UTC()
	doc.UpdatedAt = doc.CreatedAt

	path, err := backend.StoreDocument(context.Background(), doc)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(path, "text.txt"))
	assert.FileExists(t, filepath.Join(path, "metadata.json"))
	assert.True(t, strings.HasPrefix(path, archiveDir))
}

func TestFileBackendEmptyIndex(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), "", nil)
	require.NoError(t, err)

	infos, err := backend.ListVolumes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestGitBackendInitsAndCommits(t *testing.T) {
	repoDir := filepath.Join(t.TempDir(), "archive")
	backend, err := NewGitBackend(repoDir, NewSimpleMetricsCollector())
	require.NoError(t, err)

	ctx := context.Background()
	vol := testVolume()

	ref, err := backend.StoreVolume(ctx, vol, []byte("archived volume"))
	require.NoError(t, err)
	assert.NotEmpty(t, ref)

	infos, err := backend.ListVolumes(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, vol.FileName(), infos[0].FileName)

	data, err := backend.ReadVolume(ctx, vol.FileName())
	require.NoError(t, err)
	assert.Equal(t, []byte("archived volume"), data)

	assert.NoError(t, backend.Health(ctx))

	// Reopening an existing repository must not reinitialize it.
	reopened, err := NewGitBackend(repoDir, nil)
	require.NoError(t, err)
	infos, err = reopened.ListVolumes(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, 1)

	_, err = os.Stat(filepath.Join(repoDir, ".git"))
	assert.NoError(t, err)
}

type stubBackend struct {
	failStore bool
	stored    []string
	volumes   []VolumeInfo
}

func (s *stubBackend) StoreVolume(ctx context.Context, vol *volume.Volume, data []byte) (string, error) {
	if s.failStore {
		return "", errors.New("backend unavailable")
	}
	s.stored = append(s.stored, vol.FileName())
	return vol.FileName(), nil
}

func (s *stubBackend) StoreDocument(ctx context.Context, doc *document.Document) (string, error) {
	if s.failStore {
		return "", errors.New("backend unavailable")
	}
	s.stored = append(s.stored, doc.ID)
	return doc.ID, nil
}

func (s *stubBackend) ListVolumes(ctx context.Context) ([]VolumeInfo, error) {
	return s.volumes, nil
}

func (s *stubBackend) ReadVolume(ctx context.Context, fileName string) ([]byte, error) {
	return []byte("stub"), nil
}

func (s *stubBackend) Health(ctx context.Context) error {
	if s.failStore {
		return errors.New("unhealthy")
	}
	return nil
}

func TestHybridStorageFallsBackToArchive(t *testing.T) {
	primary := &stubBackend{failStore: true}
	archive := &stubBackend{}
	hybrid := NewHybridStorage(primary, archive, &HybridConfig{
		EnableFallback:   true,
		OperationTimeout: time.Second,
	}, nil)

	vol := testVolume()
	ref, err := hybrid.StoreVolume(context.Background(), vol, []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, vol.FileName(), ref)
	assert.Contains(t, archive.stored, vol.FileName())
}

func TestHybridStorageRoutesDocumentsToArchive(t *testing.T) {
	primary := &stubBackend{}
	archive := &stubBackend{}
	hybrid := NewHybridStorage(primary, archive, &HybridConfig{
		EnableFallback:   true,
		OperationTimeout: time.Second,
	}, nil)

	doc := testVolume().Documents[0]
	ref, err := hybrid.StoreDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, ref)
	assert.Contains(t, archive.stored, doc.ID, "documents belong in the archive, not the primary")
	assert.NotContains(t, primary.stored, doc.ID)
}

func TestHybridStorageDocumentFallsBackToPrimary(t *testing.T) {
	primary := &stubBackend{}
	archive := &stubBackend{failStore: true}
	hybrid := NewHybridStorage(primary, archive, &HybridConfig{
		EnableFallback:   true,
		OperationTimeout: time.Second,
	}, nil)

	doc := testVolume().Documents[0]
	_, err := hybrid.StoreDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.Contains(t, primary.stored, doc.ID)
}

func TestHybridStorageNoFallbackWithoutArchive(t *testing.T) {
	primary := &stubBackend{failStore: true}
	hybrid := NewHybridStorage(primary, nil, nil, nil)

	_, err := hybrid.StoreVolume(context.Background(), testVolume(), []byte("data"))
	assert.Error(t, err)
}

func TestHybridStorageHealthDegradedButUp(t *testing.T) {
	hybrid := NewHybridStorage(&stubBackend{failStore: true}, &stubBackend{}, nil, nil)
	assert.NoError(t, hybrid.Health(context.Background()))

	down := NewHybridStorage(&stubBackend{failStore: true}, &stubBackend{failStore: true}, nil, nil)
	assert.Error(t, down.Health(context.Background()))
}

func TestMetricsCollectorSummary(t *testing.T) {
	collector := NewSimpleMetricsCollector()
	collector.RecordMetric(Metrics{OperationType: "store_volume", Backend: "file", Duration: 100, Success: true})
	collector.RecordMetric(Metrics{OperationType: "store_volume", Backend: "file", Duration: 300, Success: false})

	summary := collector.Summary()
	stats := summary["file"]["store_volume"]
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, 1, stats.SuccessCount)
	assert.Equal(t, int64(200), stats.AvgDuration)
	assert.InDelta(t, 50.0, stats.GetSuccessRate(), 0.01)
}
