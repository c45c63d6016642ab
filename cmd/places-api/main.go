// Command places-api runs the places gateway: a caching HTTP facade in
// front of the Google Places API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abr13/demo-crud-review/internal/config"
	"github.com/abr13/demo-crud-review/internal/server"
	"github.com/abr13/demo-crud-review/pkg/cache"
	"github.com/abr13/demo-crud-review/pkg/googleplaces"
	"github.com/abr13/demo-crud-review/pkg/logging"
	"github.com/abr13/demo-crud-review/pkg/places"
	"github.com/abr13/demo-crud-review/pkg/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup(logging.DefaultConfig())
		fallback := logging.NewLogger("main")
		fallback.Fatal().Err(err).Msg("Invalid configuration")
	}

	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.IsDevelopment(),
		Output: os.Stderr,
	})
	logger := logging.NewLogger("main")

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})
	defer redisClient.Close()

	// The gateway starts even when Redis is down; the cache reports
	// disconnected and every request goes straight to the provider.
	store := cache.NewStore(redisClient, logging.NewLogger("cache"))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	store.Connect(ctx)
	cancel()

	provider, err := googleplaces.New(googleplaces.DefaultConfig(cfg.GooglePlacesAPIKey))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create places provider")
	}

	svc := places.NewService(provider, store, places.Config{
		SearchTTL:   cfg.SearchCacheTTL,
		PlaceTTL:    cfg.PlaceCacheTTL,
		DeeplinkTTL: cfg.PlaceCacheTTL,
	}, logging.NewLogger("places"))

	limiter := ratelimit.NewLimiter(redisClient, ratelimit.Config{
		Window:      cfg.RateLimitWindow,
		MaxRequests: cfg.RateLimitMax,
	}, logging.NewLogger("ratelimit"))

	srv := server.New(svc, limiter, logging.NewLogger("http"), server.Options{
		Addr: ":" + cfg.Port,
	})

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	case <-stopCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}

	logger.Info().Msg("Places gateway stopped")
}
