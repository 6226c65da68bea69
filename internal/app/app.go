// Package app wires the service together and owns its lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kunlesxo/cyriox-storefront/internal/authn"
	"github.com/kunlesxo/cyriox-storefront/internal/config"
	"github.com/kunlesxo/cyriox-storefront/internal/credential"
	handler "github.com/kunlesxo/cyriox-storefront/internal/handler/http"
	"github.com/kunlesxo/cyriox-storefront/internal/session"
	"github.com/kunlesxo/cyriox-storefront/internal/upstream"
	"github.com/kunlesxo/cyriox-storefront/pkg/database"
	"github.com/kunlesxo/cyriox-storefront/pkg/health"
	"github.com/kunlesxo/cyriox-storefront/pkg/tracing"
)

// App is the assembled service.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server

	redisClient *redis.Client
	shutdownOTel func(context.Context) error
}

// New builds every component from configuration.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	healthHandler := health.NewHandler()

	store, err := a.buildStore(ctx, healthHandler)
	if err != nil {
		return nil, err
	}

	upCfg := upstream.DefaultConfig(cfg.UpstreamBaseURL)
	upCfg.Timeout = cfg.UpstreamTimeout
	upCfg.BreakerEnabled = cfg.UpstreamBreakerEnabled
	up, err := upstream.New(upCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build upstream client: %w", err)
	}
	healthHandler.RegisterNonCritical("upstream", func(ctx context.Context) error {
		req, err := up.NewRequest(ctx, http.MethodGet, "/", nil)
		if err != nil {
			return err
		}
		resp, err := up.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		return nil
	})

	shutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  cfg.ServiceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTELEndpoint,
		SampleRate:   1.0,
		Enabled:      cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.shutdownOTel = shutdown

	router := handler.NewRouter(handler.Deps{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Auth:     authn.New(up, store, logger),
		Sessions: session.NewClient(up, store, logger),
		Health:   healthHandler,
	})

	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return a, nil
}

func (a *App) buildStore(ctx context.Context, h *health.Handler) (credential.Store, error) {
	if a.cfg.CredentialBackend != "redis" {
		a.logger.Info("using in-memory credential store")
		return credential.NewMemoryStore(), nil
	}

	client, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     a.cfg.RedisHost,
		Port:     a.cfg.RedisPort,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.redisClient = client
	h.Register("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	return credential.NewRedisStore(client), nil
}

// Run serves HTTP until the listener fails or Shutdown is called.
func (a *App) Run() error {
	a.logger.Info("http server listening", slog.String("addr", a.server.Addr))
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests, flushes traces and closes Redis.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down")

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if a.shutdownOTel != nil {
		if err := a.shutdownOTel(ctx); err != nil {
			a.logger.Warn("tracer shutdown", slog.String("error", err.Error()))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("redis close", slog.String("error", err.Error()))
		}
	}
	return nil
}
