// Package pubsub publishes records to a Google Cloud Pub/Sub topic.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

// Message attribute names.
const (
	AttrCity       = "city"
	AttrSource     = "source"
	AttrRoutingKey = "routing_key"
)

// Config selects the project and topic. With Ordered set, messages of one
// city are delivered in publish order.
type Config struct {
	ProjectID string
	TopicID   string
	Ordered   bool
}

// Publisher wraps a Pub/Sub topic.
type Publisher struct {
	client  *pubsub.Client
	topic   *pubsub.Topic
	ordered bool
	logger  *zap.Logger
}

// Connect creates a client for cfg.ProjectID and publishes to cfg.TopicID.
func Connect(ctx context.Context, cfg Config, logger *zap.Logger, opts ...option.ClientOption) (*Publisher, error) {
	if cfg.ProjectID == "" || cfg.TopicID == "" {
		return nil, fmt.Errorf("pubsub project and topic are required")
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	p := New(client.Topic(cfg.TopicID), cfg.Ordered, logger)
	p.client = client
	return p, nil
}

// New returns a Publisher for an existing topic handle.
func New(topic *pubsub.Topic, ordered bool, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	topic.EnableMessageOrdering = ordered
	return &Publisher{topic: topic, ordered: ordered, logger: logger.Named("pubsub")}
}

// Publish sends the batch and waits for every server acknowledgement.
func (p *Publisher) Publish(ctx context.Context, records []crawler.Property) error {
	type pending struct {
		key    string
		result *pubsub.PublishResult
	}
	results := make([]pending, 0, len(records))
	for _, record := range records {
		data, err := json.Marshal(crawler.NewPayload(record))
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		key := crawler.RoutingKey(record.City)
		msg := &pubsub.Message{
			Data: data,
			Attributes: map[string]string{
				AttrCity:       string(record.City),
				AttrSource:     record.Source,
				AttrRoutingKey: key,
			},
		}
		if p.ordered {
			msg.OrderingKey = key
		}
		results = append(results, pending{key: key, result: p.topic.Publish(ctx, msg)})
	}

	var errs []error
	for _, r := range results {
		id, err := r.result.Get(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", r.key, err))
			if p.ordered {
				p.topic.ResumePublish(r.key)
			}
			continue
		}
		p.logger.Debug("published record", zap.String("message_id", id), zap.String("routing_key", r.key))
	}
	return errors.Join(errs...)
}

// Close flushes outstanding messages and closes the client when owned.
func (p *Publisher) Close() error {
	p.topic.Stop()
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
