package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/harvestkit/harvestkit/internal/volume"
	"github.com/harvestkit/harvestkit/pkg/document"
)

const indexFileName = "index.txt"

// FileBackend stores rendered volumes in a flat output directory and
// archives individual documents under an archive directory. A tab
// separated index.txt in the output directory tracks stored volumes.
type FileBackend struct {
	outputDir        string
	archiveDir       string
	metricsCollector MetricsCollector

	indexMu sync.Mutex
}

// NewFileBackend creates a filesystem storage backend. The directories
// are created if they do not exist.
func NewFileBackend(outputDir, archiveDir string, metrics MetricsCollector) (*FileBackend, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if archiveDir != "" {
		if err := os.MkdirAll(archiveDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	return &FileBackend{
		outputDir:        outputDir,
		archiveDir:       archiveDir,
		metricsCollector: metrics,
	}, nil
}

func (f *FileBackend) StoreVolume(ctx context.Context, vol *volume.Volume, data []byte) (string, error) {
	start := time.Now()
	path, err := f.writeVolume(vol, data)
	f.recordMetric("store_volume", start, err == nil, err)
	return path, err
}

func (f *FileBackend) StoreDocument(ctx context.Context, doc *document.Document) (string, error) {
	start := time.Now()
	path, err := f.writeDocument(doc)
	f.recordMetric("store_document", start, err == nil, err)
	return path, err
}

func (f *FileBackend) ListVolumes(ctx context.Context) ([]VolumeInfo, error) {
	start := time.Now()
	infos, err := f.readIndex()
	f.recordMetric("list_volumes", start, err == nil, err)
	return infos, err
}

func (f *FileBackend) ReadVolume(ctx context.Context, fileName string) ([]byte, error) {
	start := time.Now()

	if strings.ContainsAny(fileName, "/\\") || fileName == indexFileName {
		err := fmt.Errorf("invalid volume file name: %s", fileName)
		f.recordMetric("read_volume", start, false, err)
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(f.outputDir, fileName))
	f.recordMetric("read_volume", start, err == nil, err)
	if err != nil {
		return nil, fmt.Errorf("failed to read volume %s: %w", fileName, err)
	}
	return data, nil
}

func (f *FileBackend) Health(ctx context.Context) error {
	info, err := os.Stat(f.outputDir)
	if err != nil {
		return fmt.Errorf("output directory inaccessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output path %s is not a directory", f.outputDir)
	}
	return nil
}

func (f *FileBackend) writeVolume(vol *volume.Volume, data []byte) (string, error) {
	fileName := vol.FileName()
	path := filepath.Join(f.outputDir, fileName)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write volume file: %w", err)
	}

	entry := VolumeInfo{
		FileName:  fileName,
		Query:     vol.Query,
		Number:    vol.Number,
		Format:    vol.Format,
		Documents: len(vol.Documents),
		Words:     vol.TotalWords(),
		Size:      int64(len(data)),
		StoredAt:  time.Now().UTC(),
	}
	if err := f.updateIndex(entry); err != nil {
		return "", err
	}

	return path, nil
}

func (f *FileBackend) writeDocument(doc *document.Document) (string, error) {
	if f.archiveDir == "" {
		return "", fmt.Errorf("document archiving disabled: no archive directory configured")
	}
	if err := doc.Validate(); err != nil {
		return "", fmt.Errorf("document validation failed: %w", err)
	}

	docPath := filepath.Join(f.archiveDir, doc.StoragePath())
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

	return docPath, nil
}

// updateIndex rewrites the tab separated index, keeping one line per
// volume file. Re-storing a file name replaces the previous line, so
// rerunning a query does not leave stale duplicate entries behind.
func (f *FileBackend) updateIndex(entry VolumeInfo) error {
	f.indexMu.Lock()
	defer f.indexMu.Unlock()

	infos, err := f.readIndexLocked()
	if err != nil {
		return err
	}

	replaced := false
	for i := range infos {
		if infos[i].FileName == entry.FileName {
			infos[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		infos = append(infos, entry)
	}

	var buf strings.Builder
	for _, info := range infos {
		buf.WriteString(strings.Join([]string{
			info.FileName,
			flattenField(info.Query),
			strconv.Itoa(info.Number),
			info.Format,
			strconv.Itoa(info.Documents),
			strconv.Itoa(info.Words),
			strconv.FormatInt(info.Size, 10),
			info.StoredAt.Format(time.RFC3339),
		}, "\t"))
		buf.WriteByte('\n')
	}
	if err := os.WriteFile(filepath.Join(f.outputDir, indexFileName), []byte(buf.String()), 0644); err != nil {
		return fmt.Errorf("failed to write volume index: %w", err)
	}
	return nil
}

// flattenField keeps the index one record per line and one field per
// tab stop, whatever characters the query carries.
func flattenField(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\r':
			return ' '
		}
		return r
	}, s)
}

func (f *FileBackend) readIndex() ([]VolumeInfo, error) {
	f.indexMu.Lock()
	defer f.indexMu.Unlock()
	return f.readIndexLocked()
}

func (f *FileBackend) readIndexLocked() ([]VolumeInfo, error) {
	file, err := os.Open(filepath.Join(f.outputDir, indexFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return []VolumeInfo{}, nil
		}
		return nil, fmt.Errorf("failed to open volume index: %w", err)
	}
	defer file.Close()

	var infos []VolumeInfo
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) != 8 {
			continue
		}
		info := VolumeInfo{
			FileName: fields[0],
			Query:    fields[1],
			Format:   fields[3],
		}
		info.Number, _ = strconv.Atoi(fields[2])
		info.Documents, _ = strconv.Atoi(fields[4])
		info.Words, _ = strconv.Atoi(fields[5])
		info.Size, _ = strconv.ParseInt(fields[6], 10, 64)
		info.StoredAt, _ = time.Parse(time.RFC3339, fields[7])
		infos = append(infos, info)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read volume index: %w", err)
	}
	return infos, nil
}

func (f *FileBackend) recordMetric(operation string, start time.Time, success bool, err error) {
	if f.metricsCollector != nil {
		f.metricsCollector.RecordMetric(Metrics{
			OperationType: operation,
			Duration:      time.Since(start).Nanoseconds(),
			Success:       success,
			Backend:       "file",
			Error:         err,
		})
	}
}
