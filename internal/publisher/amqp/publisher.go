// Package amqp publishes records to a RabbitMQ fanout exchange.
package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

// DefaultExchange is the exchange consumers bind their queues to.
const DefaultExchange = "flats_exchange"

// Config selects the broker and exchange.
type Config struct {
	URL      string
	Exchange string
	Durable  bool
}

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends one message per record, routed by city.
type Publisher struct {
	channel  Channel
	exchange string
	conn     *amqp.Connection
	logger   *zap.Logger
}

// Dial connects to the broker and declares the exchange.
func Dial(cfg Config, logger *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	p, err := New(ch, cfg, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// New declares the fanout exchange on ch and returns a Publisher using it.
func New(ch Channel, cfg Config, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	exchange := cfg.Exchange
	if exchange == "" {
		exchange = DefaultExchange
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, cfg.Durable, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{
		channel:  ch,
		exchange: exchange,
		logger:   logger.Named("amqp"),
	}, nil
}

// Publish sends the records in order and stops at the first failure.
func (p *Publisher) Publish(ctx context.Context, records []crawler.Property) error {
	for _, record := range records {
		body, err := json.Marshal(crawler.NewPayload(record))
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		key := crawler.RoutingKey(record.City)
		msg := amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Unix(record.CapturedAt.Unix(), 0),
			Body:        body,
		}
		if err := p.channel.PublishWithContext(ctx, p.exchange, key, false, false, msg); err != nil {
			return fmt.Errorf("publish to %s with key %s: %w", p.exchange, key, err)
		}
	}
	p.logger.Debug("published batch", zap.String("exchange", p.exchange), zap.Int("records", len(records)))
	return nil
}

// Close releases the channel and, when the publisher dialed it, the connection.
func (p *Publisher) Close() error {
	err := p.channel.Close()
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}
