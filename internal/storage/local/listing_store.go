// Package local stores listing payloads as JSON files on the local filesystem.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

// Config captures the parameters for the local listing store.
type Config struct {
	// BaseDir is the root directory where listings will be stored.
	BaseDir string
}

// ListingStore writes {BaseDir}/{City}/{source}-{externalid}.json. It
// implements crawler.Publisher.
type ListingStore struct {
	baseDir string
	logger  *zap.Logger
}

// New creates the base directory when needed and checks it is writable.
func New(cfg Config, logger *zap.Logger) (*ListingStore, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to stat base directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	testFile := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingStore{baseDir: cfg.BaseDir, logger: logger.Named("local")}, nil
}

// Path returns the file a record is written to.
func (s *ListingStore) Path(record crawler.Property) (string, error) {
	key, err := record.Key()
	if err != nil {
		return "", err
	}
	// Ids come from scraped attributes; never let them add path segments.
	key = strings.NewReplacer("/", "_", `\`, "_").Replace(key)
	fullPath := filepath.Join(s.baseDir, string(record.City), key+".json")

	cleanBaseDir := filepath.Clean(s.baseDir)
	if !strings.HasPrefix(filepath.Clean(fullPath), cleanBaseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected")
	}
	return fullPath, nil
}

// Publish writes every complete record, replacing earlier versions.
func (s *ListingStore) Publish(_ context.Context, records []crawler.Property) error {
	for _, record := range records {
		if !record.Complete() {
			continue
		}
		fullPath, err := s.Path(record)
		if err != nil {
			return err
		}
		body, err := json.Marshal(crawler.NewPayload(record))
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
			return fmt.Errorf("failed to create parent directories: %w", err)
		}
		if err := os.WriteFile(fullPath, body, 0o600); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		s.logger.Debug("listing stored", zap.String("path", fullPath))
	}
	return nil
}
