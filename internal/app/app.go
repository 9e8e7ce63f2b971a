// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/flat-crawler/internal/adapter"
	"github.com/JakeFAU/flat-crawler/internal/api"
	"github.com/JakeFAU/flat-crawler/internal/clock/system"
	"github.com/JakeFAU/flat-crawler/internal/config"
	"github.com/JakeFAU/flat-crawler/internal/crawler"
	"github.com/JakeFAU/flat-crawler/internal/dispatcher"
	collyfetcher "github.com/JakeFAU/flat-crawler/internal/fetcher/colly"
	headlessfetcher "github.com/JakeFAU/flat-crawler/internal/fetcher/headless"
	"github.com/JakeFAU/flat-crawler/internal/geocode"
	"github.com/JakeFAU/flat-crawler/internal/id/uuid"
	"github.com/JakeFAU/flat-crawler/internal/page"
	"github.com/JakeFAU/flat-crawler/internal/policy/ratelimit"
	amqppublisher "github.com/JakeFAU/flat-crawler/internal/publisher/amqp"
	"github.com/JakeFAU/flat-crawler/internal/publisher/multi"
	pubsubpublisher "github.com/JakeFAU/flat-crawler/internal/publisher/pubsub"
	redispublisher "github.com/JakeFAU/flat-crawler/internal/publisher/redis"
	stdoutpublisher "github.com/JakeFAU/flat-crawler/internal/publisher/stdout"
	"github.com/JakeFAU/flat-crawler/internal/round"
	gcsstore "github.com/JakeFAU/flat-crawler/internal/storage/gcs"
	localstore "github.com/JakeFAU/flat-crawler/internal/storage/local"
	mongostore "github.com/JakeFAU/flat-crawler/internal/storage/mongo"
	postgresstore "github.com/JakeFAU/flat-crawler/internal/storage/postgres"
	"github.com/JakeFAU/flat-crawler/internal/worker"
)

// Options adjust how New builds the container.
type Options struct {
	// DryRun replaces every configured transport with stdout.
	DryRun bool
	// Stdout receives the stdout transport output. Defaults to os.Stdout.
	Stdout io.Writer
}

// App holds all the shared, long-lived services for the application.
// It is initialized once at startup and passed to the commands that need it.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	targets   crawler.StaticTargets
	registry  *adapter.Registry
	runner    *round.Runner
	status    *round.Status
	publisher *multi.Publisher
	closers   []namedCloser
}

type namedCloser struct {
	name   string
	closer io.Closer
}

// New builds every service the configuration asks for. It fails fast and
// releases whatever it already opened when a service cannot be initialized.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	a := &App{
		cfg:      cfg,
		logger:   logger,
		registry: adapter.Default(),
		status:   round.NewStatus(),
	}
	if err := a.init(ctx, opts); err != nil {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("cleanup after failed init", zap.Error(closeErr))
		}
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context, opts Options) error {
	cfg := a.cfg
	a.logger.Info("initializing application services")

	targets, err := cfg.ResolveTargets()
	if err != nil {
		return fmt.Errorf("resolve targets: %w", err)
	}
	for _, t := range targets {
		if _, err := a.registry.Lookup(t.Adapter); err != nil {
			return fmt.Errorf("target %s%s: %w", t.Host, t.Path, err)
		}
	}
	a.targets = crawler.StaticTargets(targets)

	limiter := ratelimit.New(ratelimit.Config{
		DefaultRPS:   cfg.Crawler.PerHostRPS,
		DefaultBurst: cfg.Crawler.PerHostBurst,
		PerHost:      cfg.Crawler.PerHost(),
	})
	fetchers := map[crawler.FetchMode]crawler.Fetcher{
		crawler.FetchHTTP: collyfetcher.New(collyfetcher.Config{
			UserAgent: cfg.Crawler.UserAgent,
			Timeout:   cfg.Crawler.RequestTimeout(),
		}, limiter, a.logger),
		crawler.FetchHeadless: headlessfetcher.NewNoop(),
	}
	if cfg.Headless.Enabled {
		headless, err := headlessfetcher.New(headlessfetcher.Config{
			MaxParallel:       cfg.Headless.MaxParallel,
			UserAgent:         cfg.Crawler.UserAgent,
			NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
			SettleTimeout:     time.Duration(cfg.Headless.SettleTimeoutSec) * time.Second,
		}, limiter, a.logger)
		if err != nil {
			a.logger.Warn("headless fetcher init failed", zap.Error(err))
		} else {
			fetchers[crawler.FetchHeadless] = headless
			a.track("headless", headless)
		}
	}

	clock := system.New()
	pipeline := page.NewPipeline(fetchers, page.Config{Scheme: cfg.Crawler.Scheme}, a.logger)
	workers := make([]*worker.Worker, 0, cfg.Crawler.Workers)
	for i := 0; i < cfg.Crawler.Workers; i++ {
		workers = append(workers, worker.New(pipeline, a.registry, clock, a.logger.With(zap.Int("index", i))))
	}
	dispatch, err := dispatcher.New(workers, a.logger)
	if err != nil {
		return fmt.Errorf("build dispatcher: %w", err)
	}

	var enricher round.Enricher
	if cfg.Geocoder.Enabled {
		geoLimiter := ratelimit.New(ratelimit.Config{DefaultRPS: cfg.Geocoder.RPS, DefaultBurst: 1})
		client, err := geocode.NewClient(geocode.Config{
			URL:       cfg.Geocoder.URL,
			UserAgent: cfg.Geocoder.UserAgent,
			Timeout:   cfg.Geocoder.Timeout(),
		}, geoLimiter, nil)
		if err != nil {
			return fmt.Errorf("build geocoder: %w", err)
		}
		enricher = geocode.NewEnricher(client, a.logger)
	}

	transports := cfg.Publish.Transports
	if opts.DryRun {
		transports = []string{config.TransportStdout}
	}
	var selected []multi.Transport
	for _, name := range transports {
		pub, err := a.buildTransport(ctx, name, opts.Stdout)
		if err != nil {
			return fmt.Errorf("init %s transport: %w", name, err)
		}
		selected = append(selected, multi.Transport{Name: name, Publisher: pub})
	}
	a.publisher = multi.New(a.logger, selected...)

	a.runner, err = round.New(round.Deps{
		Targets:   a.targets,
		Crawler:   dispatch,
		Enricher:  enricher,
		Publisher: a.publisher,
		Clock:     clock,
		IDs:       uuid.New(),
		Status:    a.status,
	}, round.Config{
		Interval:        cfg.Round.Interval(),
		PrimeFirstRound: cfg.Round.PrimeFirstRound,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("build round runner: %w", err)
	}

	a.logger.Info("application services initialized",
		zap.Int("targets", len(a.targets)),
		zap.Int("workers", len(workers)),
		zap.Strings("transports", a.publisher.Names()),
		zap.Bool("geocoder", enricher != nil),
	)
	return nil
}

// buildTransport connects one named transport and registers its closer.
func (a *App) buildTransport(ctx context.Context, name string, stdout io.Writer) (crawler.Publisher, error) {
	pc := a.cfg.Publish
	switch name {
	case config.TransportStdout:
		return stdoutpublisher.New(stdout), nil
	case config.TransportAMQP:
		pub, err := amqppublisher.Dial(amqppublisher.Config{
			URL:      pc.AMQP.URL,
			Exchange: pc.AMQP.Exchange,
			Durable:  pc.AMQP.Durable,
		}, a.logger)
		if err != nil {
			return nil, err
		}
		a.track(name, pub)
		return pub, nil
	case config.TransportPubSub:
		pub, err := pubsubpublisher.Connect(ctx, pubsubpublisher.Config{
			ProjectID: pc.PubSub.ProjectID,
			TopicID:   pc.PubSub.TopicID,
			Ordered:   pc.PubSub.Ordered,
		}, a.logger)
		if err != nil {
			return nil, err
		}
		a.track(name, pub)
		return pub, nil
	case config.TransportRedis:
		pub, err := redispublisher.Dial(ctx, redispublisher.Config{
			Addr:      pc.Redis.Addr,
			Password:  pc.Redis.Password,
			DB:        pc.Redis.DB,
			KeyPrefix: pc.Redis.KeyPrefix,
		}, a.logger)
		if err != nil {
			return nil, err
		}
		a.track(name, pub)
		return pub, nil
	case config.TransportMongo:
		store, err := mongostore.Connect(ctx, mongostore.Config{
			URI:        pc.Mongo.URI,
			Database:   pc.Mongo.Database,
			Collection: pc.Mongo.Collection,
			Timeout:    time.Duration(pc.Mongo.TimeoutSeconds) * time.Second,
		}, a.logger)
		if err != nil {
			return nil, err
		}
		a.track(name, store)
		return store, nil
	case config.TransportPostgres:
		store, err := postgresstore.NewListingStore(ctx, postgresstore.Config{
			DSN:         pc.Postgres.DSN,
			Table:       pc.Postgres.Table,
			CreateTable: pc.Postgres.CreateTable,
			MaxConns:    pc.Postgres.MaxConns,
		}, a.logger)
		if err != nil {
			return nil, err
		}
		a.track(name, store)
		return store, nil
	case config.TransportGCS:
		store, err := gcsstore.Connect(ctx, gcsstore.Config{
			Bucket: pc.GCS.Bucket,
			Prefix: pc.GCS.Prefix,
		}, a.logger)
		if err != nil {
			return nil, err
		}
		a.track(name, store)
		return store, nil
	case config.TransportLocal:
		store, err := localstore.New(localstore.Config{BaseDir: pc.Local.BaseDir}, a.logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", name)
	}
}

func (a *App) track(name string, c io.Closer) {
	a.closers = append(a.closers, namedCloser{name: name, closer: c})
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Config returns the configuration the container was built from.
func (a *App) Config() config.Config {
	return a.cfg
}

// Targets returns the targets crawled every round.
func (a *App) Targets() crawler.StaticTargets {
	return a.targets
}

// Runner returns the round runner.
func (a *App) Runner() *round.Runner {
	return a.runner
}

// Status returns the record of finished rounds.
func (a *App) Status() *round.Status {
	return a.status
}

// Transports lists the active publish transports in order.
func (a *App) Transports() []string {
	if a.publisher == nil {
		return nil
	}
	return a.publisher.Names()
}

// Server builds the operations HTTP server.
func (a *App) Server() *api.Server {
	return api.NewServer(a.status, a.targets, a.logger.Named("api"))
}

// Close releases every service in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.closer.Close(); err != nil {
			a.logger.Warn("error closing service", zap.String("service", c.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
