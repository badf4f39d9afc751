package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nulzo/canteen-api/internal/analytics"
	"github.com/nulzo/canteen-api/internal/auth"
	"github.com/nulzo/canteen-api/internal/cli"
	"github.com/nulzo/canteen-api/internal/config"
	"github.com/nulzo/canteen-api/internal/employees"
	"github.com/nulzo/canteen-api/internal/httpclient"
	"github.com/nulzo/canteen-api/internal/items"
	"github.com/nulzo/canteen-api/internal/orders"
	"github.com/nulzo/canteen-api/internal/platform/logger"
	"github.com/nulzo/canteen-api/internal/platform/otel"
	"github.com/nulzo/canteen-api/internal/server"
	"github.com/nulzo/canteen-api/internal/store/cache"
	"github.com/nulzo/canteen-api/internal/store/lock"
	"github.com/nulzo/canteen-api/internal/store/sqlite"
	"github.com/nulzo/canteen-api/internal/telegram"
	"github.com/nulzo/canteen-api/internal/version"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed to load config: %v\n", cli.CrossMark(), err)
		os.Exit(1)
	}

	logger.Initialize(logger.FromSettings(cfg.Log.Level, cfg.Log.Format))
	defer logger.Sync()
	log := logger.Base()

	if !cfg.IsProduction() {
		fmt.Println(cli.Banner("canteen-api"))
	}
	logger.Info("Starting canteen-api",
		zap.String("version", version.Version),
		zap.String("env", cfg.Server.Env),
	)

	shutdownTracer, err := otel.InitTracer(cfg.Tracing.Enabled, cfg.Tracing.ServiceName, version.Version, log, os.Stdout)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	repo, err := sqlite.NewSQLiteStorage(cfg.Database.DSN, log)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var counterCache cache.CacheService = cache.NewMemoryCache()
	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("Failed to connect to redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		defer rdb.Close()

		counterCache = cache.NewRedisCache(rdb, "canteen:")
		locker = lock.NewRedisLocker(rdb)
		logger.Info("Redis cache and rollup lock enabled", zap.String("addr", cfg.Redis.Addr))
	}

	calendar := analytics.NewCalendar(cfg.Analytics.TimezoneOffsetMinutes, cfg.Analytics.RollupCutoffHour)

	analyticsOpts := []analytics.Option{
		analytics.WithCache(counterCache, cfg.Analytics.CacheTTL),
		analytics.WithLocker(locker),
	}

	var (
		telegramSvc telegram.Service
		notifier    *telegram.Notifier
	)
	if cfg.Telegram.Enabled {
		bot := telegram.NewClient(httpclient.New(15*time.Second), cfg.Telegram.APIBaseURL, cfg.Telegram.BotToken)
		telegramSvc = telegram.NewService(log, repo, bot)

		if cfg.Telegram.NotifyRollups {
			notifier = telegram.NewNotifier(log, telegramSvc)
			notifier.Start(ctx)
			analyticsOpts = append(analyticsOpts, analytics.WithRollupListener(notifier))
		}
	}

	authSvc := auth.NewService(log, repo, auth.Config{
		Secret:           []byte(cfg.Auth.JWTSecret),
		TokenTTL:         cfg.Auth.TokenTTL,
		EmployeeTokenTTL: cfg.Auth.EmployeeTokenTTL,
	})
	analyticsSvc := analytics.NewService(log, repo, calendar, analyticsOpts...)

	services := server.Services{
		Repo:      repo,
		Auth:      authSvc,
		Analytics: analyticsSvc,
		Orders:    orders.NewService(log, repo, analyticsSvc, calendar, authSvc),
		Employees: employees.NewService(log, repo),
		Items:     items.NewService(log, repo),
		Telegram:  telegramSvc,
	}

	if cfg.Update.CheckEnabled {
		checker := version.NewChecker(httpclient.New(5*time.Second), version.DefaultAPIBaseURL, cfg.Update.Repo, version.Version)
		go checker.Warn(ctx, log)
	}

	srv := server.New(cfg, log, services, version.Version).HTTPServer()

	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigc
	logger.Info("Shutdown signal received", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	// in-flight requests are done, flush pending rollup announcements
	cancel()
	if notifier != nil {
		notifier.Stop()
	}

	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error("Tracer shutdown error", zap.Error(err))
	}
	logger.Info("Server stopped")
}
