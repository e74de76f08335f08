package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog/log"

	"github.com/harvestkit/harvestkit/internal/volume"
	"github.com/harvestkit/harvestkit/pkg/document"
)

// GitBackend archives volumes and documents in a git repository, one
// commit per stored item. Volumes live under volumes/ with a JSON
// sidecar for metadata, documents under documents/.
type GitBackend struct {
	repo             *git.Repository
	repoPath         string
	metricsCollector MetricsCollector
}

// NewGitBackend opens the archive repository at repoPath, initializing
// it when it does not exist yet.
func NewGitBackend(repoPath string, metrics MetricsCollector) (*GitBackend, error) {
	repo, err := git.PlainOpen(repoPath)
	if err == git.ErrRepositoryNotExists {
		if mkErr := os.MkdirAll(repoPath, 0755); mkErr != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", mkErr)
		}
		repo, err = git.PlainInit(repoPath, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open archive repository: %w", err)
	}

	return &GitBackend{
		repo:             repo,
		repoPath:         repoPath,
		metricsCollector: metrics,
	}, nil
}

func (g *GitBackend) StoreVolume(ctx context.Context, vol *volume.Volume, data []byte) (string, error) {
	start := time.Now()
	hash, err := g.commitVolume(vol, data)
	g.recordMetric("store_volume", start, err == nil, err)
	return hash, err
}

func (g *GitBackend) StoreDocument(ctx context.Context, doc *document.Document) (string, error) {
	start := time.Now()
	hash, err := g.commitDocument(doc)
	g.recordMetric("store_document", start, err == nil, err)
	return hash, err
}

func (g *GitBackend) ListVolumes(ctx context.Context) ([]VolumeInfo, error) {
	start := time.Now()
	infos, err := g.listVolumeSidecars()
	g.recordMetric("list_volumes", start, err == nil, err)
	return infos, err
}

func (g *GitBackend) ReadVolume(ctx context.Context, fileName string) ([]byte, error) {
	start := time.Now()

	if strings.ContainsAny(fileName, "/\\") {
		err := fmt.Errorf("invalid volume file name: %s", fileName)
		g.recordMetric("read_volume", start, false, err)
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(g.repoPath, "volumes", fileName))
	g.recordMetric("read_volume", start, err == nil, err)
	if err != nil {
		return nil, fmt.Errorf("failed to read volume %s: %w", fileName, err)
	}
	return data, nil
}

func (g *GitBackend) Health(ctx context.Context) error {
	start := time.Now()

	_, err := g.repo.Worktree()
	g.recordMetric("health", start, err == nil, err)
	return err
}

func (g *GitBackend) commitVolume(vol *volume.Volume, data []byte) (string, error) {
	volumesDir := filepath.Join(g.repoPath, "volumes")
	if err := os.MkdirAll(volumesDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create volumes directory: %w", err)
	}

	fileName := vol.FileName()
	if err := os.WriteFile(filepath.Join(volumesDir, fileName), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write volume file: %w", err)
	}

	info := VolumeInfo{
		FileName:  fileName,
		Query:     vol.Query,
		Number:    vol.Number,
		Format:    vol.Format,
		Documents: len(vol.Documents),
		Words:     vol.TotalWords(),
		Size:      int64(len(data)),
		StoredAt:  time.Now().UTC(),
	}
	infoBytes, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal volume metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(volumesDir, fileName+".json"), infoBytes, 0644); err != nil {
		return "", fmt.Errorf("failed to write volume metadata: %w", err)
	}

	return g.commitPath("volumes", fmt.Sprintf("Add volume %s", fileName))
}

func (g *GitBackend) commitDocument(doc *document.Document) (string, error) {
	if err := doc.Validate(); err != nil {
		return "", fmt.Errorf("document validation failed: %w", err)
	}

	docPath := filepath.Join(g.repoPath, doc.StoragePath())
	if err := os.MkdirAll(docPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create document directory: %w", err)
	}

	if len(doc.Content.Raw) > 0 {
		if err := os.WriteFile(filepath.Join(docPath, "raw"), doc.Content.Raw, 0644); err != nil {
			return "", fmt.Errorf("failed to write raw content: %w", err)
		}
	}
	if doc.Content.Text != "" {
		if err := os.WriteFile(filepath.Join(docPath, "text.txt"), []byte(doc.Content.Text), 0644); err != nil {
			return "", fmt.Errorf("failed to write text content: %w", err)
		}
	}

	metadataBytes, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(docPath, "metadata.json"), metadataBytes, 0644); err != nil {
		return "", fmt.Errorf("failed to write metadata: %w", err)
	}

	return g.commitPath(doc.StoragePath(), fmt.Sprintf("Add document %s", doc.ID))
}

func (g *GitBackend) commitPath(path, message string) (string, error) {
	w, err := g.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	if _, err := w.Add(path); err != nil {
		return "", fmt.Errorf("failed to stage %s: %w", path, err)
	}

	commit, err := w.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "HarvestKit",
			Email: "archive@harvestkit.dev",
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	return commit.String(), nil
}

func (g *GitBackend) listVolumeSidecars() ([]VolumeInfo, error) {
	matches, err := filepath.Glob(filepath.Join(g.repoPath, "volumes", "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list volumes: %w", err)
	}

	infos := make([]VolumeInfo, 0, len(matches))
	for _, match := range matches {
		data, err := os.ReadFile(match)
		if err != nil {
			log.Warn().Err(err).Str("path", match).Msg("Failed to read volume metadata")
			continue
		}
		var info VolumeInfo
		if err := json.Unmarshal(data, &info); err != nil {
			log.Warn().Err(err).Str("path", match).Msg("Failed to parse volume metadata")
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (g *GitBackend) recordMetric(operation string, start time.Time, success bool, err error) {
	if g.metricsCollector != nil {
		g.metricsCollector.RecordMetric(Metrics{
			OperationType: operation,
			Duration:      time.Since(start).Nanoseconds(),
			Success:       success,
			Backend:       "git",
			Error:         err,
		})
	}
}
