// Package redis appends records to per-city Redis lists.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

// Config selects the Redis server and the list key prefix.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Pusher is the subset of *redis.Client the publisher needs.
type Pusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// Publisher pushes one JSON payload per record onto {prefix}flats_{City}.
type Publisher struct {
	pusher Pusher
	prefix string
	client *redis.Client
	logger *zap.Logger
}

// Dial connects to Redis and verifies the connection.
func Dial(ctx context.Context, cfg Config, logger *zap.Logger) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	p := New(client, cfg.KeyPrefix, logger)
	p.client = client
	return p, nil
}

// New returns a Publisher using pusher.
func New(pusher Pusher, prefix string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{pusher: pusher, prefix: prefix, logger: logger.Named("redis")}
}

// Key returns the list a city's records are pushed to.
func (p *Publisher) Key(city crawler.City) string {
	return p.prefix + crawler.RoutingKey(city)
}

// Publish issues one RPUSH per city, keeping the batch order within a city.
func (p *Publisher) Publish(ctx context.Context, records []crawler.Property) error {
	var keys []string
	grouped := make(map[string][]interface{})
	for _, record := range records {
		body, err := json.Marshal(crawler.NewPayload(record))
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		key := p.Key(record.City)
		if _, ok := grouped[key]; !ok {
			keys = append(keys, key)
		}
		grouped[key] = append(grouped[key], body)
	}

	for _, key := range keys {
		length, err := p.pusher.RPush(ctx, key, grouped[key]...).Result()
		if err != nil {
			return fmt.Errorf("rpush %s: %w", key, err)
		}
		p.logger.Debug("pushed records", zap.String("key", key), zap.Int("records", len(grouped[key])), zap.Int64("length", length))
	}
	return nil
}

// Close closes the client when the publisher dialed it.
func (p *Publisher) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
