package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"trivia-bot/internal/app"
	"trivia-bot/internal/config"
	"trivia-bot/internal/generators"
	"trivia-bot/internal/infra/ddragon"
	"trivia-bot/internal/infra/memory"
	pgstore "trivia-bot/internal/infra/postgres"
	redisstore "trivia-bot/internal/infra/redis"
	"trivia-bot/internal/infra/sqlite"
	"trivia-bot/internal/logger"
	"trivia-bot/internal/metrics"
	transport "trivia-bot/internal/transport/http"
)

// loadConfig reads the dotenv file, then the YAML config with env overrides.
func loadConfig(path string) (config.Config, error) {
	if err := config.LoadDotEnv(envPath); err != nil {
		return config.Config{}, err
	}
	return config.Load(path)
}

func newLogger(cfg config.Config) *logrus.Entry {
	return logger.NewLogger(cfg.Service, cfg.Log.Level, cfg.Log.Format)
}

// backends holds the shared connections; close releases them in reverse order.
type backends struct {
	redis   *redis.Client
	pool    *pgxpool.Pool
	closers []func()
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = b.redis.Close() })
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.pool = pool
		b.closers = append(b.closers, pool.Close)
	}
	return b, nil
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func (b *backends) topicLoader(cfg config.Config) (memory.TopicLoader, error) {
	switch cfg.Catalog.Source {
	case config.CatalogPostgres:
		return pgstore.NewTopicLoader(b.pool), nil
	case config.CatalogDDragon:
		dd := cfg.Catalog.DDragon
		return ddragon.NewClient(ddragon.Options{
			BaseURL: dd.BaseURL,
			Version: dd.Version,
			Locale:  dd.Locale,
			Rate:    dd.Rate,
			Burst:   dd.Burst,
		}), nil
	default:
		loader, err := memory.LoadTopicsFile(cfg.Catalog.File)
		if err != nil {
			return nil, fmt.Errorf("load topics file: %w", err)
		}
		return loader, nil
	}
}

func (b *backends) catalog(cfg config.Config) (app.Catalog, error) {
	loader, err := b.topicLoader(cfg)
	if err != nil {
		return nil, err
	}
	ttl := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	if b.redis != nil {
		return redisstore.NewCatalog(b.redis, loader, ttl), nil
	}
	return memory.NewCatalog(loader, ttl), nil
}

func (b *backends) scoreStore(cfg config.Config) (app.ScoreStore, error) {
	switch cfg.Scores.Backend {
	case config.ScoresPostgres:
		return pgstore.NewScoreStore(b.pool), nil
	case config.ScoresRedis:
		return redisstore.NewScoreStore(b.redis), nil
	case config.ScoresSQLite:
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = store.Close() })
		return store, nil
	default:
		return memory.NewScoreStore(), nil
	}
}

func (b *backends) roundStore(cfg config.Config, log logrus.FieldLogger) app.RoundRepository {
	if b.redis != nil {
		return redisstore.NewRoundStore(b.redis, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute), log)
	}
	return memory.NewRoundStore()
}

func registry(cfg config.Config) (*app.Registry, error) {
	gens := generators.All()
	if len(cfg.Trivia.Generators) > 0 {
		var err error
		if gens, err = generators.ByName(cfg.Trivia.Generators...); err != nil {
			return nil, err
		}
	}
	return app.NewRegistry(gens, cfg.Trivia.MaxAttempts), nil
}

// service is everything the HTTP server needs.
type service struct {
	engine  *app.Engine
	hub     *transport.Hub
	metrics *metrics.Metrics
}

func (b *backends) service(cfg config.Config, log *logrus.Entry) (*service, error) {
	catalog, err := b.catalog(cfg)
	if err != nil {
		return nil, err
	}
	scores, err := b.scoreStore(cfg)
	if err != nil {
		return nil, err
	}
	reg, err := registry(cfg)
	if err != nil {
		return nil, err
	}

	hub := transport.NewHub()
	var announcer app.Announcer = hub
	if b.redis != nil {
		announcer = app.FanoutAnnouncer{hub, redisstore.NewPublisher(b.redis)}
	}
	m := metrics.NewMetrics(cfg.Service)

	engine := app.NewEngine(app.EngineDeps{
		Registry:  reg,
		Catalog:   catalog,
		Rounds:    b.roundStore(cfg, log),
		Scores:    scores,
		Announcer: announcer,
		Logger:    log,
		Metrics:   m,
	}, app.EngineConfig{
		Points:            cfg.Trivia.Points,
		SideEffectTimeout: config.TTLDuration(cfg.Trivia.SideEffectTimeout, app.DefaultSideEffectTimeout),
	})
	return &service{engine: engine, hub: hub, metrics: m}, nil
}
