// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

// EnvPrefix prefixes every environment override, e.g. FLATCRAWLER_CRAWLER_WORKERS.
const EnvPrefix = "FLATCRAWLER"

// Publish transport names.
const (
	TransportStdout   = "stdout"
	TransportAMQP     = "amqp"
	TransportPubSub   = "pubsub"
	TransportRedis    = "redis"
	TransportMongo    = "mongo"
	TransportPostgres = "postgres"
	TransportGCS      = "gcs"
	TransportLocal    = "local"
)

var knownTransports = []string{
	TransportStdout,
	TransportAMQP,
	TransportPubSub,
	TransportRedis,
	TransportMongo,
	TransportPostgres,
	TransportGCS,
	TransportLocal,
}

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	Headless HeadlessConfig `mapstructure:"headless"`
	Round    RoundConfig    `mapstructure:"round"`
	Geocoder GeocoderConfig `mapstructure:"geocoder"`
	Publish  PublishConfig  `mapstructure:"publish"`
	Targets  []TargetConfig `mapstructure:"targets"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// ServerConfig controls the operations HTTP server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// CrawlerConfig governs the worker pool and the HTTP fetcher.
type CrawlerConfig struct {
	Workers               int         `mapstructure:"workers"`
	Scheme                string      `mapstructure:"scheme"`
	UserAgent             string      `mapstructure:"user_agent"`
	RequestTimeoutSeconds int         `mapstructure:"request_timeout_seconds"`
	PerHostRPS            float64     `mapstructure:"per_host_rps"`
	PerHostBurst          int         `mapstructure:"per_host_burst"`
	HostLimits            []HostLimit `mapstructure:"host_limits"`
}

// HostLimit overrides the request rate for one host. It is a list entry
// rather than a map key because Viper splits keys on dots.
type HostLimit struct {
	Host string  `mapstructure:"host"`
	RPS  float64 `mapstructure:"rps"`
}

// HeadlessConfig configures the headless rendering subsystem.
type HeadlessConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	MaxParallel      int  `mapstructure:"max_parallel"`
	NavTimeoutSec    int  `mapstructure:"nav_timeout_seconds"`
	SettleTimeoutSec int  `mapstructure:"settle_timeout_seconds"`
}

// RoundConfig controls round scheduling.
type RoundConfig struct {
	IntervalSeconds int  `mapstructure:"interval_seconds"`
	PrimeFirstRound bool `mapstructure:"prime_first_round"`
}

// GeocoderConfig points at a Nominatim-compatible search endpoint.
type GeocoderConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	URL            string  `mapstructure:"url"`
	UserAgent      string  `mapstructure:"user_agent"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RPS            float64 `mapstructure:"rps"`
}

// PublishConfig selects transports and holds their settings.
type PublishConfig struct {
	Transports []string       `mapstructure:"transports"`
	AMQP       AMQPConfig     `mapstructure:"amqp"`
	PubSub     PubSubConfig   `mapstructure:"pubsub"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Mongo      MongoConfig    `mapstructure:"mongo"`
	Postgres   PostgresConfig `mapstructure:"postgres"`
	GCS        GCSConfig      `mapstructure:"gcs"`
	Local      LocalConfig    `mapstructure:"local"`
}

// AMQPConfig holds RabbitMQ settings.
type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
	Durable  bool   `mapstructure:"durable"`
}

// PubSubConfig holds metadata for Pub/Sub publishing.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
	Ordered   bool   `mapstructure:"ordered"`
}

// RedisConfig holds Redis list settings.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// MongoConfig holds MongoDB settings.
type MongoConfig struct {
	URI            string `mapstructure:"uri"`
	Database       string `mapstructure:"database"`
	Collection     string `mapstructure:"collection"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// PostgresConfig controls access to the relational database.
type PostgresConfig struct {
	DSN         string `mapstructure:"dsn"`
	Table       string `mapstructure:"table"`
	CreateTable bool   `mapstructure:"create_table"`
	MaxConns    int32  `mapstructure:"max_conns"`
}

// GCSConfig holds Cloud Storage settings.
type GCSConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// LocalConfig holds the local listing directory.
type LocalConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// TargetConfig is one configured listing page.
type TargetConfig struct {
	Host     string `mapstructure:"host"`
	Path     string `mapstructure:"path"`
	City     string `mapstructure:"city"`
	Encoding string `mapstructure:"encoding"`
	Adapter  string `mapstructure:"adapter"`
	Fetch    string `mapstructure:"fetch"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", 8080)
	v.SetDefault("crawler.workers", 4)
	v.SetDefault("crawler.scheme", "https")
	v.SetDefault("crawler.user_agent", "flat-crawler/1.0")
	v.SetDefault("crawler.request_timeout_seconds", 30)
	v.SetDefault("crawler.per_host_rps", 1.0)
	v.SetDefault("crawler.per_host_burst", 1)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 25)
	v.SetDefault("headless.settle_timeout_seconds", 5)
	v.SetDefault("round.interval_seconds", 300)
	v.SetDefault("round.prime_first_round", true)
	v.SetDefault("geocoder.enabled", true)
	v.SetDefault("geocoder.url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("geocoder.user_agent", "flat-crawler/1.0")
	v.SetDefault("geocoder.timeout_seconds", 10)
	v.SetDefault("geocoder.rps", 1.0)
	v.SetDefault("publish.transports", []string{TransportStdout})
	v.SetDefault("publish.amqp.exchange", "flats_exchange")
	v.SetDefault("publish.redis.addr", "localhost:6379")
	v.SetDefault("publish.mongo.database", "flats")
	v.SetDefault("publish.mongo.collection", "flats")
	v.SetDefault("publish.mongo.timeout_seconds", 10)
	v.SetDefault("publish.postgres.table", "listings")
	v.SetDefault("publish.local.base_dir", "flats")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.Workers <= 0 {
		return fmt.Errorf("crawler.workers must be > 0")
	}
	if c.Crawler.Scheme != "http" && c.Crawler.Scheme != "https" {
		return fmt.Errorf("crawler.scheme must be http or https, got %q", c.Crawler.Scheme)
	}
	if c.Crawler.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.request_timeout_seconds must be > 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	if c.Round.IntervalSeconds <= 0 {
		return fmt.Errorf("round.interval_seconds must be > 0")
	}
	if c.Geocoder.Enabled {
		if c.Geocoder.URL == "" {
			return fmt.Errorf("geocoder.url must be set when geocoding is enabled")
		}
		if c.Geocoder.TimeoutSeconds <= 0 {
			return fmt.Errorf("geocoder.timeout_seconds must be > 0")
		}
	}
	if err := c.Publish.validate(); err != nil {
		return err
	}
	if _, err := c.ResolveTargets(); err != nil {
		return err
	}
	return nil
}

func (p PublishConfig) validate() error {
	if len(p.Transports) == 0 {
		return fmt.Errorf("publish.transports must name at least one transport")
	}
	for _, t := range p.Transports {
		if !slices.Contains(knownTransports, t) {
			return fmt.Errorf("publish.transports: unknown transport %q", t)
		}
	}
	required := map[string][]struct{ key, value string }{
		TransportAMQP:     {{"publish.amqp.url", p.AMQP.URL}},
		TransportPubSub:   {{"publish.pubsub.project_id", p.PubSub.ProjectID}, {"publish.pubsub.topic_id", p.PubSub.TopicID}},
		TransportRedis:    {{"publish.redis.addr", p.Redis.Addr}},
		TransportMongo:    {{"publish.mongo.uri", p.Mongo.URI}, {"publish.mongo.database", p.Mongo.Database}},
		TransportPostgres: {{"publish.postgres.dsn", p.Postgres.DSN}},
		TransportGCS:      {{"publish.gcs.bucket", p.GCS.Bucket}},
		TransportLocal:    {{"publish.local.base_dir", p.Local.BaseDir}},
	}
	for _, t := range p.Transports {
		for _, field := range required[t] {
			if strings.TrimSpace(field.value) == "" {
				return fmt.Errorf("%s is required when the %s transport is enabled", field.key, t)
			}
		}
	}
	return nil
}

// ResolveTargets converts the configured targets, or returns DefaultTargets
// when none are configured.
func (c Config) ResolveTargets() ([]crawler.Target, error) {
	if len(c.Targets) == 0 {
		return DefaultTargets(), nil
	}
	out := make([]crawler.Target, 0, len(c.Targets))
	for i, tc := range c.Targets {
		target, err := tc.target()
		if err != nil {
			return nil, fmt.Errorf("targets[%d]: %w", i, err)
		}
		out = append(out, target)
	}
	return out, nil
}

func (tc TargetConfig) target() (crawler.Target, error) {
	if tc.Host == "" || tc.Adapter == "" {
		return crawler.Target{}, fmt.Errorf("host and adapter are required")
	}
	city, err := crawler.ParseCity(tc.City)
	if err != nil {
		return crawler.Target{}, err
	}
	enc, err := crawler.ParseEncoding(tc.Encoding)
	if err != nil {
		return crawler.Target{}, err
	}
	fetch := crawler.FetchMode(strings.ToLower(tc.Fetch))
	switch fetch {
	case "":
		fetch = crawler.FetchHTTP
	case crawler.FetchHTTP, crawler.FetchHeadless:
	default:
		return crawler.Target{}, fmt.Errorf("unknown fetch mode %q", tc.Fetch)
	}
	path := tc.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return crawler.Target{
		Host:     tc.Host,
		Path:     path,
		City:     city,
		Encoding: enc,
		Adapter:  tc.Adapter,
		Fetch:    fetch,
	}, nil
}

// PerHost returns the host overrides keyed by host name.
func (c CrawlerConfig) PerHost() map[string]float64 {
	out := make(map[string]float64, len(c.HostLimits))
	for _, l := range c.HostLimits {
		out[l.Host] = l.RPS
	}
	return out
}

// RequestTimeout is the per-request fetch budget.
func (c CrawlerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Interval is the pause between rounds.
func (c RoundConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Timeout is the per-lookup geocoder budget.
func (c GeocoderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
