package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH0_TEST_MODE", "true")
	t.Setenv("TEST_JWT_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Backend != BackendMemory {
		t.Fatalf("unexpected backend %q", cfg.Storage.Backend)
	}
	if cfg.Board.DispatchBuffer != 64 || cfg.Board.HandoffTimeout != 50*time.Millisecond {
		t.Fatalf("unexpected dispatcher defaults %+v", cfg.Board)
	}
	if cfg.Board.HistoryLimit != 0 {
		t.Fatalf("history must be unlimited by default, got %d", cfg.Board.HistoryLimit)
	}
	if cfg.Redis.DeduperTTL != 24*time.Hour {
		t.Fatalf("unexpected deduper ttl %v", cfg.Redis.DeduperTTL)
	}
	if cfg.HTTP.ListenAddr != ":8080" {
		t.Fatalf("unexpected listen addr %q", cfg.HTTP.ListenAddr)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTH0_AUDIENCE", "api://kanban")
	t.Setenv("AUTH0_DOMAIN", "tenant.example.com")
	t.Setenv("STORAGE_BACKEND", " Redis ")
	t.Setenv("REDIS_CONNECTION_STRING", "localhost:6379")
	t.Setenv("HISTORY_LIMIT", "25")
	t.Setenv("CACHE_TTL", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Backend != BackendRedis {
		t.Fatalf("expected normalized backend, got %q", cfg.Storage.Backend)
	}
	if cfg.Board.HistoryLimit != 25 || cfg.Storage.CacheTTL != 30*time.Second {
		t.Fatalf("overrides not applied: %+v %+v", cfg.Board, cfg.Storage)
	}
	if cfg.AuthIssuer() != "https://tenant.example.com/" {
		t.Fatalf("unexpected issuer %q", cfg.AuthIssuer())
	}
	if cfg.JWKSURL() != "https://tenant.example.com/.well-known/jwks.json" {
		t.Fatalf("unexpected jwks url %q", cfg.JWKSURL())
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Storage: StorageConfig{Backend: BackendMemory, BoardsTable: "boards"},
			Redis:   RedisConfig{DeduperTTL: time.Hour},
			Board:   BoardConfig{DispatchBuffer: 1},
			Auth:    AuthConfig{TestMode: true, TestJWTSecret: "s"},
		}
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknownBackend", mutate: func(c *Config) { c.Storage.Backend = "etcd" }, wantErr: "unsupported STORAGE_BACKEND"},
		{name: "redisWithoutConn", mutate: func(c *Config) { c.Storage.Backend = BackendRedis }, wantErr: "REDIS_CONNECTION_STRING"},
		{name: "tablesWithoutConn", mutate: func(c *Config) { c.Storage.Backend = BackendTables }, wantErr: "STORAGE_CONNECTION_STRING"},
		{name: "queueWithoutConn", mutate: func(c *Config) { c.Storage.EventsQueue = "events" }, wantErr: "EVENTS_QUEUE"},
		{name: "negativeHistory", mutate: func(c *Config) { c.Board.HistoryLimit = -1 }, wantErr: "HISTORY_LIMIT"},
		{name: "zeroBuffer", mutate: func(c *Config) { c.Board.DispatchBuffer = 0 }, wantErr: "DISPATCH_BUFFER"},
		{name: "testModeWithoutSecret", mutate: func(c *Config) { c.Auth.TestJWTSecret = "" }, wantErr: "TEST_JWT_SECRET"},
		{name: "missingAuth0", mutate: func(c *Config) { c.Auth.TestMode = false }, wantErr: "missing Auth0 config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseRedisConnection(t *testing.T) {
	tests := []struct {
		name     string
		conn     string
		addr     string
		password string
		tls      bool
		wantErr  bool
	}{
		{name: "url", conn: "redis://:pw@cache:6380/0", addr: "cache:6380", password: "pw"},
		{name: "azure", conn: "kanban.redis.cache.windows.net:6380,password=secret,ssl=True,abortConnect=False", addr: "kanban.redis.cache.windows.net:6380", password: "secret", tls: true},
		{name: "plain", conn: "localhost:6379", addr: "localhost:6379"},
		{name: "badScheme", conn: "http://localhost", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := ParseRedisConnection(tt.conn)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if opts.Addr != tt.addr || opts.Password != tt.password || (opts.TLSConfig != nil) != tt.tls {
				t.Fatalf("unexpected options addr=%q password=%q tls=%v", opts.Addr, opts.Password, opts.TLSConfig != nil)
			}
		})
	}
	if opts, err := ParseRedisConnection(""); err != nil || opts != nil {
		t.Fatalf("empty connection string must yield nil options, got %v %v", opts, err)
	}
}

func TestReadSkipsValidation(t *testing.T) {
	t.Setenv("AUTH0_TEST_MODE", "false")
	t.Setenv("AUTH0_AUDIENCE", "")
	t.Setenv("AUTH0_DOMAIN", "")
	t.Setenv("SQLITE_PATH", "/tmp/kanban.db")

	if _, err := Load(); err == nil {
		t.Fatal("Load must reject a config without auth")
	}
	cfg, err := Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if cfg.Storage.SQLitePath != "/tmp/kanban.db" {
		t.Fatalf("unexpected sqlite path %q", cfg.Storage.SQLitePath)
	}
}
