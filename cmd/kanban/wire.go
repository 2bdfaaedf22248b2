package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"kanban/board"
	"kanban/config"
	"kanban/storage"
	"kanban/stream"
)

// openRedis connects to Redis when a connection string is configured.
func openRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	opts, err := cfg.RedisOptions()
	if err != nil || opts == nil {
		return nil, err
	}
	rc := redis.NewClient(opts)
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rc, nil
}

// openStore builds the persister selected by STORAGE_BACKEND. The returned
// func releases it.
func openStore(cfg config.Config, rc *redis.Client) (board.Persister, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Storage.Backend {
	case config.BackendMemory, "":
		return storage.NewMemory(), noop, nil
	case config.BackendRedis:
		if rc == nil {
			return nil, nil, fmt.Errorf("redis backend requires REDIS_CONNECTION_STRING")
		}
		return storage.NewRedis(rc), noop, nil
	case config.BackendTables:
		tables, err := storage.NewTables(cfg.Storage.ConnectionString, cfg.Storage.BoardsTable)
		if err != nil {
			return nil, nil, fmt.Errorf("tables: %w", err)
		}
		if rc == nil {
			return tables, noop, nil
		}
		return storage.NewCache(tables, rc, cfg.Storage.CacheTTL), noop, nil
	case config.BackendSQLite:
		db, err := storage.NewSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite: %w", err)
		}
		return db, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.Storage.Backend)
	}
}

// publishers returns the event sinks of the server. With Redis, local
// subscribers are fed through the pub/sub channel so every instance sees
// the same stream.
func publishers(cfg config.Config, rc *redis.Client, broker *stream.Broker) (stream.Fanout, error) {
	var out stream.Fanout
	if rc != nil {
		out = append(out, stream.NewRedisPublisher(rc, cfg.Redis.UpdatesChannel))
	} else {
		out = append(out, broker)
	}
	if cfg.Storage.EventsQueue != "" {
		q, err := storage.NewEventQueue(cfg.Storage.ConnectionString, cfg.Storage.EventsQueue)
		if err != nil {
			return nil, fmt.Errorf("events queue: %w", err)
		}
		out = append(out, q)
	}
	return out, nil
}

func newRegistry(cfg config.Config, store board.Persister, pub board.Publisher, logger *log.Logger) *board.Registry {
	return board.NewRegistry(store, board.Options{
		HistoryLimit: cfg.Board.HistoryLimit,
		Publisher:    pub,
		Logger:       logger,
	}, board.DispatcherConfig{
		Buffer:         cfg.Board.DispatchBuffer,
		HandoffTimeout: cfg.Board.HandoffTimeout,
	})
}
