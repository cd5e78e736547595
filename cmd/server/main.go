package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nuqta-lab/mooda/config"
	"github.com/nuqta-lab/mooda/internal/api"
	"github.com/nuqta-lab/mooda/internal/api/handler"
	"github.com/nuqta-lab/mooda/internal/auth"
	"github.com/nuqta-lab/mooda/internal/cache"
	"github.com/nuqta-lab/mooda/internal/observability"
	"github.com/nuqta-lab/mooda/internal/repository"
	"github.com/nuqta-lab/mooda/internal/service"
	"github.com/nuqta-lab/mooda/pkg/database"
	"github.com/nuqta-lab/mooda/pkg/logger"
)

// @title Mooda API
// @version 1.0
// @description Daily mood submissions and near-real-time aggregate statistics.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Level); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.Setup(ctx, cfg.OTEL)
	if err != nil {
		logger.Error("otel setup failed", zap.Error(err))
	} else {
		defer func() { _ = shutdownOTel(context.Background()) }()
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Error("database init failed", zap.Error(err))
		panic(err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	kv := cache.New(rdb)

	zone, err := time.LoadLocation(cfg.Mood.Timezone)
	if err != nil {
		logger.Warn("invalid timezone, falling back to UTC", zap.String("tz", cfg.Mood.Timezone))
		zone = time.UTC
	}

	moodRepo := repository.NewMoodRepository(db)
	guard := service.NewSubmissionGuard(kv, zone)
	limiter := service.NewRateLimiter(kv, cfg.Mood.RateWindow)
	counters := service.NewCounterStore(kv, cfg.Mood.CounterTTL)
	stats := service.NewStatsService(counters, moodRepo, cfg.Mood.MinSampleCountry)
	countries := service.NewCountryService()
	moods := service.NewMoodService(kv, moodRepo, guard, limiter, counters, stats, countries, cfg.Mood.RateLimit)

	broadcaster := service.NewBroadcaster()
	statsSync := service.NewStatsSync(kv, broadcaster)
	go statsSync.Run(ctx)

	verifier := auth.NewVerifier(cfg.Mood.JWTSecret)
	h := handler.New(moods, stats, broadcaster, countries, verifier, cfg.Mood.SSEHeartbeat)
	router := api.NewRouter(h, verifier, cfg.Server.Mode)

	srv := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
		// WriteTimeout 保持 0：SSE 长连接不能被写超时切断
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
