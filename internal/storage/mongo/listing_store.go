// Package mongo stores listings as MongoDB documents whose _id is
// "{source}-{externalid}".
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

// Config selects the server, database and collection.
type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// Collection is the subset of *mongo.Collection the store needs.
type Collection interface {
	BulkWrite(ctx context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error)
}

// document is the stored shape: the payload plus its key.
type document struct {
	ID              string `bson:"_id"`
	crawler.Payload `bson:",inline"`
}

// ListingStore upserts one document per record. It implements crawler.Publisher.
type ListingStore struct {
	collection Collection
	client     *mongo.Client
	logger     *zap.Logger
}

// Connect dials MongoDB and verifies the connection.
func Connect(ctx context.Context, cfg Config, logger *zap.Logger) (*ListingStore, error) {
	if cfg.URI == "" || cfg.Database == "" {
		return nil, fmt.Errorf("publish.mongo.uri and publish.mongo.database are required")
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "flats"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI).SetRetryWrites(true))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	store := New(client.Database(cfg.Database).Collection(collection), logger)
	store.client = client
	return store, nil
}

// New returns a store writing to collection.
func New(collection Collection, logger *zap.Logger) *ListingStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingStore{collection: collection, logger: logger.Named("mongo")}
}

// Publish replaces or inserts the document of every complete record in a
// single unordered bulk write.
func (s *ListingStore) Publish(ctx context.Context, records []crawler.Property) error {
	models := make([]mongo.WriteModel, 0, len(records))
	for _, record := range records {
		key, err := record.Key()
		if err != nil {
			continue
		}
		doc := document{ID: key, Payload: crawler.NewPayload(record)}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": key}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	if len(models) == 0 {
		return nil
	}

	result, err := s.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("bulk upsert %d listings: %w", len(models), err)
	}
	s.logger.Debug("listings stored",
		zap.Int64("upserted", result.UpsertedCount),
		zap.Int64("modified", result.ModifiedCount),
	)
	return nil
}

// Close disconnects the client when the store dialed it.
func (s *ListingStore) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
