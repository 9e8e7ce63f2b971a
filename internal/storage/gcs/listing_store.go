// Package gcs stores listing payloads as JSON objects in a Cloud Storage bucket.
package gcs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

// Config captures the bucket and the object prefix.
type Config struct {
	Bucket string
	Prefix string
}

// Bucket opens object writers.
type Bucket interface {
	NewWriter(ctx context.Context, object string) io.WriteCloser
}

// bucketHandle adapts *storage.BucketHandle to Bucket.
type bucketHandle struct {
	handle *storage.BucketHandle
}

func (b bucketHandle) NewWriter(ctx context.Context, object string) io.WriteCloser {
	w := b.handle.Object(object).NewWriter(ctx)
	w.ContentType = "application/json"
	return w
}

// ListingStore writes one object per record. It implements crawler.Publisher.
type ListingStore struct {
	bucket Bucket
	name   string
	prefix string
	client *storage.Client
	logger *zap.Logger
}

// Connect creates a storage client using application default credentials.
func Connect(ctx context.Context, cfg Config, logger *zap.Logger) (*ListingStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("publish.gcs.bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	store := New(bucketHandle{handle: client.Bucket(cfg.Bucket)}, cfg, logger)
	store.client = client
	return store, nil
}

// New returns a store writing through bucket.
func New(bucket Bucket, cfg Config, logger *zap.Logger) *ListingStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingStore{
		bucket: bucket,
		name:   cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: logger.Named("gcs"),
	}
}

// ObjectName returns "{prefix}/{City}/{source}-{externalid}.json".
func (s *ListingStore) ObjectName(record crawler.Property) (string, error) {
	key, err := record.Key()
	if err != nil {
		return "", err
	}
	return path.Join(s.prefix, string(record.City), key+".json"), nil
}

// Publish uploads every complete record, overwriting earlier versions.
func (s *ListingStore) Publish(ctx context.Context, records []crawler.Property) error {
	for _, record := range records {
		if !record.Complete() {
			continue
		}
		object, err := s.ObjectName(record)
		if err != nil {
			return err
		}
		if err := s.put(ctx, object, record); err != nil {
			return err
		}
		s.logger.Debug("listing stored", zap.String("object", fmt.Sprintf("gs://%s/%s", s.name, object)))
	}
	return nil
}

func (s *ListingStore) put(ctx context.Context, object string, record crawler.Property) error {
	body, err := json.Marshal(crawler.NewPayload(record))
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	writer := s.bucket.NewWriter(ctx, object)
	if _, err := writer.Write(body); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return fmt.Errorf("write object %s: %w (close writer: %v)", object, err, closeErr)
		}
		return fmt.Errorf("write object %s: %w", object, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer %s: %w", object, err)
	}
	return nil
}

// Close closes the client when the store created it.
func (s *ListingStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
