// Package postgres stores listings in a Postgres table keyed by
// "{source}-{externalid}".
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const defaultTable = "listings"

// Config controls the Postgres connection pool used for listing rows.
type Config struct {
	DSN             string
	Table           string
	CreateTable     bool
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// ListingStore upserts listing rows. It implements crawler.Publisher.
type ListingStore struct {
	pool   execCloser
	table  string
	logger *zap.Logger
}

// NewListingStore creates a Postgres-backed ListingStore using the provided config.
func NewListingStore(ctx context.Context, cfg Config, logger *zap.Logger) (*ListingStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("publish.postgres.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := NewListingStoreWithPool(pool, cfg.Table, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if cfg.CreateTable {
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return store, nil
}

// NewListingStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewListingStoreWithPool(pool execCloser, table string, logger *zap.Logger) (*ListingStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingStore{pool: pool, table: table, logger: logger.Named("postgres")}, nil
}

// EnsureSchema creates the listing table when it does not exist.
func (s *ListingStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id                 TEXT PRIMARY KEY,
	source             TEXT NOT NULL,
	city               TEXT NOT NULL,
	captured_at        TIMESTAMPTZ NOT NULL,
	price              DOUBLE PRECISION NOT NULL,
	square_meters      DOUBLE PRECISION NOT NULL,
	rooms              DOUBLE PRECISION NOT NULL,
	address            TEXT NOT NULL,
	title              TEXT NOT NULL,
	external_id        TEXT NOT NULL,
	latitude           DOUBLE PRECISION,
	longitude          DOUBLE PRECISION,
	uncertainty_meters DOUBLE PRECISION,
	payload            JSONB NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *ListingStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// Publish upserts one row per record. Records without data have no key and
// are skipped.
func (s *ListingStore) Publish(ctx context.Context, records []crawler.Property) error {
	for _, record := range records {
		if !record.Complete() {
			continue
		}
		if err := s.upsert(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (s *ListingStore) upsert(ctx context.Context, record crawler.Property) error {
	id, err := record.Key()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(crawler.NewPayload(record))
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	source,
	city,
	captured_at,
	price,
	square_meters,
	rooms,
	address,
	title,
	external_id,
	latitude,
	longitude,
	uncertainty_meters,
	payload
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
)
ON CONFLICT (id) DO UPDATE SET
	captured_at = EXCLUDED.captured_at,
	price = EXCLUDED.price,
	square_meters = EXCLUDED.square_meters,
	rooms = EXCLUDED.rooms,
	address = EXCLUDED.address,
	title = EXCLUDED.title,
	latitude = EXCLUDED.latitude,
	longitude = EXCLUDED.longitude,
	uncertainty_meters = EXCLUDED.uncertainty_meters,
	payload = EXCLUDED.payload`, s.table)

	lat, lon, uncertainty := locationArgs(record.Location)
	args := []any{
		id,
		record.Source,
		string(record.City),
		record.CapturedAt,
		record.Data.Price,
		record.Data.SquareMeters,
		record.Data.Rooms,
		record.Data.Address,
		record.Data.Title,
		record.Data.ExternalID,
		lat,
		lon,
		uncertainty,
		payload,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert listing %s: %w", id, err)
	}
	s.logger.Debug("listing stored", zap.String("id", id))
	return nil
}

// locationArgs returns SQL NULLs for an unlocated record.
func locationArgs(loc *crawler.Location) (any, any, any) {
	if loc == nil {
		return nil, nil, nil
	}
	return loc.Latitude, loc.Longitude, loc.UncertaintyMeters
}
