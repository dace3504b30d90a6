package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coinsight/coinsight-go/internal/api"
	"github.com/coinsight/coinsight-go/internal/config"
	"github.com/coinsight/coinsight-go/internal/database"
	"github.com/coinsight/coinsight-go/internal/logging"
	"github.com/coinsight/coinsight-go/internal/middleware"
	"github.com/coinsight/coinsight-go/internal/regression"
	"github.com/coinsight/coinsight-go/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.Environment)
	logger.WithField("environment", cfg.Environment).Info("Starting coinsight server")

	db, err := database.NewPostgresConnection(cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	redis, err := database.NewRedisConnection(cfg.Redis, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	prices := database.NewPriceRepository(db.Pool, logger)
	users := database.NewUserRepository(db.Pool, logger)
	store := regression.NewStore(cfg.Model.ArtifactPath, logger)

	deps := api.Dependencies{
		Config:      cfg,
		Logger:      logger,
		DB:          db,
		Redis:       redis,
		Users:       users,
		Analytics:   services.NewAnalyticsService(prices, redis, logger, cfg.CacheTTL()),
		Predictions: services.NewPredictionService(prices, store, logger, cfg.Model.LagDepth),
		Auth:        middleware.NewAuthMiddleware(cfg.Security.JWTSecret, cfg.JWTExpiryDuration()),
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Forced shutdown")
	}
	logger.Info("Server stopped")
}
