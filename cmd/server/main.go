package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nekogravitycat/parts-market-backend/internal/app"
	"github.com/nekogravitycat/parts-market-backend/internal/config"
	"github.com/nekogravitycat/parts-market-backend/internal/db"
	"github.com/nekogravitycat/parts-market-backend/internal/pkg/logger"
	"github.com/nekogravitycat/parts-market-backend/internal/pkg/retry"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{})
		fallback.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(logger.Config{
		IsProduction: cfg.IsProduction,
		Level:        cfg.LogLevel,
	})

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer pool.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = db.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	} else {
		log.Warn().Msg("REDIS_ADDR not set, using in-process session store and broadcast")
	}

	container, err := app.NewContainer(app.Config{
		IsProduction:      cfg.IsProduction,
		ProdOrigins:       cfg.ProdOrigins,
		DBPool:            pool,
		RedisClient:       redisClient,
		JWTSecret:         cfg.JWTSecret,
		JWTAccessTTL:      cfg.JWTAccessTokenTTL,
		JWTRefreshTTL:     cfg.JWTRefreshTokenTTL,
		BcryptCost:        cfg.BcryptCost,
		TokenExpiryMargin: cfg.TokenExpiryMargin,
		RetryPolicy: retry.Policy{
			MaxRetries: cfg.RetryMaxAttempts,
			BaseDelay:  cfg.RetryBaseDelay,
			MaxDelay:   cfg.RetryMaxDelay,
		},
		StorageBasePath:  cfg.StorageBasePath,
		TelegramBotToken: cfg.TelegramBotToken,
		TelegramChatID:   cfg.TelegramChatID,
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build application container")
	}

	// Restore a persisted session if one survives a restart.
	state := container.SessionManager.Init(ctx)
	log.Info().Str("session_state", string(state)).Msg("session manager initialized")
	defer container.SessionManager.Teardown()
	defer container.Broadcaster.Close()

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: container.Router,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("server running")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited gracefully")
}
