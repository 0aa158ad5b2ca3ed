package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	CatalogFile     = "file"
	CatalogPostgres = "postgres"
	CatalogDDragon  = "ddragon"

	ScoresMemory   = "memory"
	ScoresRedis    = "redis"
	ScoresPostgres = "postgres"
	ScoresSQLite   = "sqlite"
)

type Config struct {
	Service  string         `yaml:"service" env:"SERVICE_NAME"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Trivia   TriviaConfig   `yaml:"trivia"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Scores   ScoresConfig   `yaml:"scores"`
}

type ServerConfig struct {
	Port string `yaml:"port" env:"PORT"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	// TTL bounds how long a crashed instance can hold a channel's round slot.
	TTL string `yaml:"ttl" env:"REDIS_TTL"`
}

type PostgresConfig struct {
	URL string `yaml:"url" env:"POSTGRES_URL"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" env:"SQLITE_PATH"`
}

type TriviaConfig struct {
	Command           string `yaml:"command" env:"TRIVIA_COMMAND"`
	AnnounceDelay     string `yaml:"announce_delay" env:"TRIVIA_ANNOUNCE_DELAY"`
	AnswerWindow      string `yaml:"answer_window" env:"TRIVIA_ANSWER_WINDOW"`
	Points            int    `yaml:"points" env:"TRIVIA_POINTS"`
	MaxAttempts       int    `yaml:"max_attempts" env:"TRIVIA_MAX_ATTEMPTS"`
	SideEffectTimeout string `yaml:"side_effect_timeout" env:"TRIVIA_SIDE_EFFECT_TIMEOUT"`
	// Generators restricts the pool by name; empty means all.
	Generators []string `yaml:"generators" env:"TRIVIA_GENERATORS" envSeparator:","`
}

type CatalogConfig struct {
	Source  string        `yaml:"source" env:"CATALOG_SOURCE"`
	File    string        `yaml:"file" env:"CATALOG_FILE"`
	TTL     string        `yaml:"ttl" env:"CATALOG_TTL"`
	DDragon DDragonConfig `yaml:"ddragon"`
}

type DDragonConfig struct {
	BaseURL string  `yaml:"base_url" env:"DDRAGON_BASE_URL"`
	Version string  `yaml:"version" env:"DDRAGON_VERSION"`
	Locale  string  `yaml:"locale" env:"DDRAGON_LOCALE"`
	Rate    float64 `yaml:"rate" env:"DDRAGON_RATE"`
	Burst   int     `yaml:"burst" env:"DDRAGON_BURST"`
}

type ScoresConfig struct {
	// Backend is memory, redis, postgres or sqlite. Empty picks the first configured
	// store in the order postgres, redis, sqlite, memory.
	Backend string `yaml:"backend" env:"SCORES_BACKEND"`
}

// Load reads YAML config from path, then applies environment overrides and defaults.
// A missing file is not an error when path is empty.
func Load(path string) (Config, error) {
	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from path into the process environment without
// overriding variables that are already set. A missing file is ignored.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Service == "" {
		c.Service = "trivia-bot"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Trivia.Command == "" {
		c.Trivia.Command = "!trivia"
	}
	if c.Catalog.Source == "" {
		c.Catalog.Source = CatalogFile
	}
	if c.Catalog.Source == CatalogFile && c.Catalog.File == "" {
		c.Catalog.File = "config/topics.yaml"
	}
	if c.Scores.Backend == "" {
		switch {
		case c.Postgres.URL != "":
			c.Scores.Backend = ScoresPostgres
		case c.Redis.Addr != "":
			c.Scores.Backend = ScoresRedis
		case c.SQLite.Path != "":
			c.Scores.Backend = ScoresSQLite
		default:
			c.Scores.Backend = ScoresMemory
		}
	}
}

// Validate reports settings that would make the service misbehave at runtime.
func (c Config) Validate() error {
	switch c.Catalog.Source {
	case CatalogFile, CatalogDDragon:
	case CatalogPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("catalog source postgres requires postgres.url")
		}
	default:
		return fmt.Errorf("unknown catalog source %q", c.Catalog.Source)
	}

	switch c.Scores.Backend {
	case ScoresMemory:
	case ScoresRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("scores backend redis requires redis.addr")
		}
	case ScoresPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("scores backend postgres requires postgres.url")
		}
	case ScoresSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("scores backend sqlite requires sqlite.path")
		}
	default:
		return fmt.Errorf("unknown scores backend %q", c.Scores.Backend)
	}

	if c.AnnounceDelay() >= c.AnswerWindow() {
		return fmt.Errorf("trivia.answer_window (%s) must be longer than trivia.announce_delay (%s)",
			c.AnswerWindow(), c.AnnounceDelay())
	}
	return nil
}

func (c Config) AnnounceDelay() time.Duration {
	return TTLDuration(c.Trivia.AnnounceDelay, 5*time.Second)
}

func (c Config) AnswerWindow() time.Duration {
	return TTLDuration(c.Trivia.AnswerWindow, 20*time.Second)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
