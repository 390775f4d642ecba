// Package main provides the entrypoint for the cloud status dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/cloudstatus/cloudstatus/internal/api"
	"github.com/cloudstatus/cloudstatus/internal/api/middleware"
	"github.com/cloudstatus/cloudstatus/internal/auth"
	"github.com/cloudstatus/cloudstatus/internal/database"
	"github.com/cloudstatus/cloudstatus/internal/history"
	"github.com/cloudstatus/cloudstatus/internal/provider/resilience"
	"github.com/cloudstatus/cloudstatus/internal/refresher"
	"github.com/cloudstatus/cloudstatus/internal/status"
	"github.com/cloudstatus/cloudstatus/internal/status/feed"
	"github.com/cloudstatus/cloudstatus/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = api.DefaultServiceName

func main() {
	mintToken := flag.String("mint-token", "", "print an admin token for `operator` and exit")
	flag.Parse()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	jwtService, err := newJWTService()
	if err != nil && *mintToken != "" {
		log.Fatal().Err(err).Msg("ADMIN_SIGNING_KEY is required to mint tokens")
	}

	if *mintToken != "" {
		token, expiresAt, err := jwtService.GenerateAdminToken(*mintToken)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to mint admin token")
		}
		fmt.Println(token)
		log.Info().Str("operator", *mintToken).Time("expires_at", expiresAt).Msg("admin token minted")
		return
	}

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting cloud status dashboard")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetryCfg := telemetry.ConfigFromEnv(serviceName, Version)
	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()
	if telemetryCfg.Enabled {
		log.Info().
			Str("otlp_endpoint", telemetryCfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize http metrics")
	}
	refreshMetrics, err := refresher.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize refresher metrics")
	}

	registry := resilience.NewRegistry()
	refresherCfg := refresher.ConfigFromEnv()
	source := newSource(log, registry, refresherCfg.ProviderTimeout)

	repo, pool, err := newHistory(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize history")
	}
	if pool != nil {
		defer pool.Close()
	}

	store := status.NewStore()
	r := refresher.New(refresher.Options{
		Config:  refresherCfg,
		Logger:  log,
		Source:  source,
		Store:   store,
		History: repo,
		Metrics: refreshMetrics,
	})

	handle, err := r.Start(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start refresher")
	}

	if pubsubHandler := newPubSub(ctx, log, r); pubsubHandler != nil {
		go func() {
			if err := pubsubHandler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
		defer func() {
			if err := pubsubHandler.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close pubsub client")
			}
		}()
	}

	routerCfg := api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     httpMetrics,
		Store:       store,
		Refresher:   r,
		History:     repo,
		Feeds:       registry,
		SourceName:  source.Name(),
		RequireTLS:  os.Getenv("REQUIRE_TLS") == "true",
	}
	if jwtService != nil {
		routerCfg.TokenValidator = jwtService
		log.Info().Msg("admin endpoints enabled")
	} else {
		log.Warn().Msg("ADMIN_SIGNING_KEY not set - admin endpoints disabled")
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      api.NewRouter(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	handle.Stop()
	select {
	case <-handle.Done():
		log.Info().Msg("refresher stopped")
	case <-shutdownCtx.Done():
		log.Warn().Msg("refresher did not stop before shutdown deadline")
	}

	log.Info().Msg("server stopped")
}

// newJWTService returns nil when ADMIN_SIGNING_KEY is unset.
func newJWTService() (*auth.JWTService, error) {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: os.Getenv("ADMIN_SIGNING_KEY"),
		Issuer:     os.Getenv("ADMIN_TOKEN_ISSUER"),
		Audience:   os.Getenv("ADMIN_TOKEN_AUDIENCE"),
	})
}

// newSource serves the built-in mock data unless STATUS_FEED_URL points at a feed.
func newSource(log zerolog.Logger, registry *resilience.Registry, timeout time.Duration) status.Source {
	feedURL := os.Getenv("STATUS_FEED_URL")
	if feedURL == "" {
		log.Info().Str("source", status.MockSourceName).Msg("using mock status data")
		return status.NewMockSource()
	}

	log.Info().Str("source", feed.SourceName).Str("url", feedURL).Msg("using status feed")
	return feed.NewClient(feed.ClientConfig{
		BaseURL:  feedURL,
		Timeout:  timeout,
		Registry: registry,
		Logger:   log,
	})
}

// newHistory uses PostgreSQL when DB_HOST is set and an in-memory ring otherwise.
func newHistory(ctx context.Context, log zerolog.Logger) (history.Repository, *pgxpool.Pool, error) {
	if !database.Configured() {
		log.Info().Int("capacity", history.DefaultCapacity).Msg("using in-memory cycle history")
		return history.NewInMemoryRepository(history.DefaultCapacity), nil, nil
	}

	dbConfig := database.ConfigFromEnv()
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := database.Connect(connectCtx, dbConfig)
	if err != nil {
		return nil, nil, err
	}

	repo := history.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(connectCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ensure history schema: %w", err)
	}

	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")
	return repo, pool, nil
}

// newPubSub subscribes to refresh triggers when PUBSUB_PROJECT_ID and
// PUBSUB_SUBSCRIPTION are both set. Failures are logged, not fatal.
func newPubSub(ctx context.Context, log zerolog.Logger, r *refresher.Refresher) *refresher.PubSubHandler {
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
	if projectID == "" || subscription == "" {
		return nil
	}

	h, err := refresher.NewPubSubHandler(ctx, refresher.PubSubConfig{
		ProjectID:        projectID,
		SubscriptionName: subscription,
		Processor:        refresher.NewMessageProcessor(r, log),
		Logger:           log,
	})
	if err != nil {
		log.Error().Err(err).Msg("pubsub triggers disabled")
		return nil
	}
	return h
}
