package main

import (
	"context"
	"credit-chat/internal/api"
	"credit-chat/internal/app"
	"credit-chat/internal/cache"
	"credit-chat/internal/config"
	"credit-chat/internal/logger"
	"credit-chat/internal/repository/sqlstore"
	"credit-chat/internal/service/llm"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	appConfig, err := config.LoadConfig()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load configuration")
	}

	// Initialize database
	logger.Log.WithField("driver", appConfig.Database.Driver).Info("Initializing database")
	store, err := sqlstore.Open(appConfig.Database, appConfig.Credits.DefaultBalance)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize database")
	}
	defer store.Close()

	// The cache and the daily quota degrade to pass-through without Redis
	var redisClient redis.Cmdable
	client, err := cache.NewRedisClient(appConfig.Redis)
	if err != nil {
		logger.Log.WithError(err).Warn("Redis unavailable, continuing without cache and daily limits")
	} else {
		redisClient = client
		defer client.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := llm.NewProviders(ctx, appConfig)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize AI providers")
	}
	defer providers.Close()

	router := api.NewRouter(app.NewConfig(store, appConfig, redisClient, providers))

	server := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.WithFields(logrus.Fields{
			"port": appConfig.Server.Port,
			"env":  appConfig.Server.Env,
		}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.WithError(err).Error("Server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Graceful shutdown failed")
	}
}
