package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/garyellow/program-catalog-go/internal/logger"
	"github.com/garyellow/program-catalog-go/internal/metrics"
	"github.com/garyellow/program-catalog-go/internal/r2client"
	"github.com/garyellow/program-catalog-go/internal/source"
)

// ContentType is the media type of uploaded archives.
const ContentType = "application/zstd"

// ObjectStore is the subset of r2client.Client used for distribution.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
	HeadObject(ctx context.Context, key string) (string, error)
}

var _ ObjectStore = (*r2client.Client)(nil)

// RefreshStatus describes the outcome of Refresh.
type RefreshStatus string

const (
	RefreshUpdated   RefreshStatus = "updated"
	RefreshUnchanged RefreshStatus = "unchanged"
	RefreshMissing   RefreshStatus = "missing"
	RefreshFailed    RefreshStatus = "failed"
)

// RefreshResult reports what Refresh did.
type RefreshResult struct {
	Status RefreshStatus
	ETag   string
	Files  int
}

// Manager publishes content directories to object storage and refreshes
// the local snapshot directory from it.
type Manager struct {
	store   ObjectStore
	key     string
	dir     string
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// New creates a snapshot manager that stores archives under key and
// unpacks them into dir.
func New(store ObjectStore, key, dir string, log *logger.Logger, m *metrics.Metrics) *Manager {
	return &Manager{
		store:   store,
		key:     key,
		dir:     dir,
		logger:  log.WithModule("snapshot"),
		metrics: m,
	}
}

// Dir returns the local snapshot directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Publish packs contentDir and uploads it, returning the new ETag and the
// number of files packed. contentDir must contain an index.
func (m *Manager) Publish(ctx context.Context, contentDir string) (string, int, error) {
	if _, err := os.Stat(filepath.Join(contentDir, source.IndexFile)); err != nil {
		return "", 0, fmt.Errorf("publish: %s: %w", source.IndexFile, err)
	}

	tmp, err := os.CreateTemp("", "catalog-*.tar.zst")
	if err != nil {
		return "", 0, fmt.Errorf("publish: create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	files, err := Pack(os.DirFS(contentDir), tmp)
	if err != nil {
		return "", 0, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", 0, fmt.Errorf("publish: rewind: %w", err)
	}

	etag, err := m.store.Upload(ctx, m.key, tmp, ContentType)
	if err != nil {
		return "", 0, fmt.Errorf("publish: %w", err)
	}

	if err := m.writeETag(etag); err != nil {
		m.logger.WithError(err).Warn("Failed to record published snapshot etag")
	}
	m.logger.WithFields(map[string]any{"key": m.key, "etag": etag, "files": files}).Info("Snapshot published")
	return etag, files, nil
}

// Refresh replaces the local snapshot directory with the latest archive
// when its ETag differs from the one last installed. Any failure leaves
// the existing directory untouched.
func (m *Manager) Refresh(ctx context.Context) (RefreshResult, error) {
	result, err := m.refresh(ctx)
	if err != nil {
		result.Status = RefreshFailed
		m.logger.WithError(err).WarnContext(ctx, "Snapshot refresh failed, keeping existing bundle")
	}
	m.metrics.RecordSnapshotRefresh(string(result.Status))
	return result, err
}

func (m *Manager) refresh(ctx context.Context) (RefreshResult, error) {
	remote, err := m.store.HeadObject(ctx, m.key)
	if errors.Is(err, r2client.ErrNotFound) {
		m.logger.WithField("key", m.key).InfoContext(ctx, "No published snapshot")
		return RefreshResult{Status: RefreshMissing}, nil
	}
	if err != nil {
		return RefreshResult{}, fmt.Errorf("refresh: head: %w", err)
	}

	if remote == m.CurrentETag() && m.hasIndex(m.dir) {
		return RefreshResult{Status: RefreshUnchanged, ETag: remote}, nil
	}

	body, etag, err := m.store.Download(ctx, m.key)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("refresh: download: %w", err)
	}
	defer body.Close()

	parent := filepath.Dir(m.dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return RefreshResult{}, fmt.Errorf("refresh: %w", err)
	}
	staging, err := os.MkdirTemp(parent, ".snapshot-*")
	if err != nil {
		return RefreshResult{}, fmt.Errorf("refresh: staging dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	files, err := Unpack(body, staging)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("refresh: %w", err)
	}
	if !m.hasIndex(staging) {
		return RefreshResult{}, fmt.Errorf("refresh: archive has no %s", source.IndexFile)
	}

	if err := swapDir(staging, m.dir); err != nil {
		return RefreshResult{}, fmt.Errorf("refresh: install: %w", err)
	}
	if etag == "" {
		etag = remote
	}
	if err := m.writeETag(etag); err != nil {
		m.logger.WithError(err).Warn("Failed to record snapshot etag")
	}

	m.logger.WithFields(map[string]any{"etag": etag, "files": files}).InfoContext(ctx, "Snapshot refreshed")
	return RefreshResult{Status: RefreshUpdated, ETag: etag, Files: files}, nil
}

// CurrentETag returns the ETag of the installed snapshot, or "" if unknown.
func (m *Manager) CurrentETag() string {
	data, err := os.ReadFile(m.etagPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (m *Manager) writeETag(etag string) error {
	return os.WriteFile(m.etagPath(), []byte(etag+"\n"), 0o644)
}

func (m *Manager) etagPath() string {
	return filepath.Clean(m.dir) + ".etag"
}

func (m *Manager) hasIndex(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, source.IndexFile))
	return err == nil && info.Mode().IsRegular()
}

// swapDir moves src into place at dst, restoring the previous dst if the
// final rename fails.
func swapDir(src, dst string) error {
	backup := filepath.Clean(dst) + ".old"
	_ = os.RemoveAll(backup)

	hadPrevious := true
	if err := os.Rename(dst, backup); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		hadPrevious = false
	}

	if err := os.Rename(src, dst); err != nil {
		if hadPrevious {
			_ = os.Rename(backup, dst)
		}
		return err
	}

	if hadPrevious {
		_ = os.RemoveAll(backup)
	}
	return nil
}
