package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"kanban/api"
	"kanban/config"
	"kanban/stream"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, newLogger(cfg))
		},
	}
}

func newAuth(cfg config.Config) (*api.Auth, error) {
	if cfg.Auth.TestMode {
		return api.NewAuth(nil, "", "", api.AuthOptions{TestSecret: cfg.Auth.TestJWTSecret}), nil
	}
	jwks, err := keyfunc.Get(cfg.JWKSURL(), keyfunc.Options{})
	if err != nil {
		return nil, err
	}
	return api.NewAuth(jwks, cfg.Auth.Audience, cfg.AuthIssuer(), api.AuthOptions{KeyCacheTTL: cfg.Auth.JWKSCacheTTL}), nil
}

func serve(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	rc, err := openRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if rc != nil {
		defer rc.Close()
	}

	store, closeStore, err := openStore(cfg, rc)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.WithError(err).Warn("storage.close.failed")
		}
	}()

	broker := stream.NewBroker()
	pub, err := publishers(cfg, rc, broker)
	if err != nil {
		return err
	}
	registry := newRegistry(cfg, store, pub, logger)
	defer registry.Close()

	if rc != nil {
		go stream.SubscribeUpdates(ctx, logger, rc, cfg.Redis.UpdatesChannel, broker.Publish)
	}

	auth, err := newAuth(cfg)
	if err != nil {
		return err
	}
	deps := api.Deps{
		Sessions: registry,
		Auth:     auth,
		Feed:     broker,
		Logger:   logger,
	}
	if rc != nil {
		deps.Deduper = api.NewRedisDeduper(rc, cfg.Redis.DeduperTTL)
	}
	e := api.NewServer(deps)

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(log.Fields{
			"addr":    cfg.HTTP.ListenAddr,
			"backend": cfg.Storage.Backend,
		}).Info("server.starting")
		errCh <- e.Start(cfg.HTTP.ListenAddr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("server.stopping")
	return e.Shutdown(shutdownCtx)
}
