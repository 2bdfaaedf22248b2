// Package config reads the service configuration from the environment.
package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/redis/go-redis/v9"
)

// Storage backends selectable through STORAGE_BACKEND.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendTables = "tables"
	BackendSQLite = "sqlite"
)

type Config struct {
	Debug bool `env:"DEBUG" env-default:"false"`

	Storage StorageConfig
	Redis   RedisConfig
	Board   BoardConfig
	Auth    AuthConfig
	HTTP    HTTPConfig
}

type StorageConfig struct {
	Backend          string        `env:"STORAGE_BACKEND" env-default:"memory"`
	ConnectionString string        `env:"STORAGE_CONNECTION_STRING"`
	BoardsTable      string        `env:"BOARDS_TABLE" env-default:"boards"`
	EventsQueue      string        `env:"EVENTS_QUEUE"`
	SQLitePath       string        `env:"SQLITE_PATH" env-default:"~/.kanban/board.db"`
	CacheTTL         time.Duration `env:"CACHE_TTL" env-default:"5m"`
}

type RedisConfig struct {
	// ConnectionString is either a redis:// URL or an Azure style
	// "host:port,password=...,ssl=True" string.
	ConnectionString string        `env:"REDIS_CONNECTION_STRING"`
	UpdatesChannel   string        `env:"BOARD_UPDATES_CHANNEL" env-default:"kanban:board-updates"`
	DeduperTTL       time.Duration `env:"DEDUPER_TTL" env-default:"24h"`
}

type BoardConfig struct {
	// HistoryLimit caps the undo log; zero keeps every snapshot.
	HistoryLimit   int           `env:"HISTORY_LIMIT" env-default:"0"`
	DispatchBuffer int           `env:"DISPATCH_BUFFER" env-default:"64"`
	HandoffTimeout time.Duration `env:"DISPATCH_HANDOFF_TIMEOUT" env-default:"50ms"`
}

type AuthConfig struct {
	Audience      string        `env:"AUTH0_AUDIENCE"`
	Domain        string        `env:"AUTH0_DOMAIN"`
	TestMode      bool          `env:"AUTH0_TEST_MODE" env-default:"false"`
	TestJWTSecret string        `env:"TEST_JWT_SECRET"`
	JWKSCacheTTL  time.Duration `env:"JWKS_CACHE_TTL" env-default:"15m"`
}

type HTTPConfig struct {
	ListenAddr string `env:"LISTEN_ADDR" env-default:":8080"`
}

// Load reads and validates the server configuration.
func Load() (Config, error) {
	cfg, err := Read()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read fills a Config from the environment without validating it. Local
// commands use it since they do not authenticate requests.
func Read() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	return cfg, nil
}

// Validate checks that every setting the selected backends need is present.
func (c *Config) Validate() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case BackendMemory, BackendSQLite:
	case BackendRedis:
		if c.Redis.ConnectionString == "" {
			return errors.New("REDIS_CONNECTION_STRING is required for the redis backend")
		}
	case BackendTables:
		if c.Storage.ConnectionString == "" || c.Storage.BoardsTable == "" {
			return errors.New("STORAGE_CONNECTION_STRING and BOARDS_TABLE are required for the tables backend")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.Storage.EventsQueue != "" && c.Storage.ConnectionString == "" {
		return errors.New("STORAGE_CONNECTION_STRING is required when EVENTS_QUEUE is set")
	}
	if c.Board.HistoryLimit < 0 {
		return errors.New("HISTORY_LIMIT must not be negative")
	}
	if c.Board.DispatchBuffer <= 0 {
		return errors.New("DISPATCH_BUFFER must be greater than zero")
	}
	if c.Redis.DeduperTTL <= 0 {
		return errors.New("DEDUPER_TTL must be greater than zero")
	}
	if c.Auth.TestMode {
		if c.Auth.TestJWTSecret == "" {
			return errors.New("TEST_JWT_SECRET must be set when AUTH0_TEST_MODE is enabled")
		}
	} else if c.Auth.Audience == "" || c.Auth.Domain == "" {
		return errors.New("missing Auth0 config")
	}
	return nil
}

// RedisOptions parses the Redis connection string. It returns nil when no
// connection string is configured.
func (c Config) RedisOptions() (*redis.Options, error) {
	return ParseRedisConnection(c.Redis.ConnectionString)
}

// ParseRedisConnection accepts a redis:// URL or an Azure style connection
// string.
func ParseRedisConnection(conn string) (*redis.Options, error) {
	conn = strings.TrimSpace(conn)
	if conn == "" {
		return nil, nil
	}
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts, nil
	}
	parts := strings.Split(conn, ",")
	if strings.Contains(parts[0], "://") || strings.TrimSpace(parts[0]) == "" {
		return nil, fmt.Errorf("invalid redis connection string %q", conn)
	}
	opts := &redis.Options{Addr: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(kv[1], "true") {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts, nil
}

// AuthIssuer returns the token issuer of the configured Auth0 tenant.
func (c Config) AuthIssuer() string {
	if c.Auth.Domain == "" {
		return ""
	}
	return "https://" + c.Auth.Domain + "/"
}

// JWKSURL returns the key set URL of the configured Auth0 tenant.
func (c Config) JWKSURL() string {
	return fmt.Sprintf("https://%s/.well-known/jwks.json", c.Auth.Domain)
}
