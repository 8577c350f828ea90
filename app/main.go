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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"statuspage/app/internal/alerts"
	"statuspage/app/internal/cache"
	"statuspage/app/internal/config"
	"statuspage/app/internal/database"
	"statuspage/app/internal/database/postgres"
	"statuspage/app/internal/handlers"
	"statuspage/app/internal/logging"
	"statuspage/app/internal/ratelimit"
	"statuspage/app/internal/stats"
)

// store is the backend selected by DB_DRIVER
type store interface {
	handlers.PageStore
	stats.StatReader
	Close() error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "statuspage:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.BindFlags(pflag.CommandLine)
	pflag.Parse()
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := stats.NewMetrics(reg)

	deps := handlers.Deps{
		Metrics:         promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Log:             log,
		DefaultMaxBeat:  cfg.DefaultMaxBeat,
		AllowAllOrigins: cfg.DevAllowAllOrigins,
		Limiter: ratelimit.New(ratelimit.Config{
			TokensPerMinute: 120,
			MaxTokens:       60,
			ErrorMessage:    "Too many requests, please try again later.",
		}),
	}

	var (
		st        store
		scheduler *stats.Scheduler
	)
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pg, err := postgres.New(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
		st = pg
		// read-only backend: heartbeats and rollups are written by another process
		log.Info("postgres_read_only", zap.Bool("push", false), zap.Bool("rollups", false))
	default:
		if err := database.Init(cfg.DBPath); err != nil {
			return fmt.Errorf("init database: %w", err)
		}
		sqlite := database.NewStore(database.DB)
		st = sqlite
		deps.Recorder = sqlite

		notifier := alerts.NewManager(alerts.Config{
			StatusPageURL:     cfg.StatusPageURL,
			WebhookURL:        cfg.WebhookURL,
			WebhookSecret:     cfg.WebhookSecret,
			DiscordWebhookURL: cfg.DiscordWebhookURL,
			TelegramBotToken:  cfg.TelegramBotToken,
			TelegramChatID:    cfg.TelegramChatID,
		}, nil, log.Named("alerts"))
		if notifier.Enabled() {
			deps.Notifier = notifier
		}
		if cfg.EnableRollups {
			scheduler = stats.NewScheduler(sqlite, log, stats.WithMetrics(metrics))
		}
	}
	defer func() { _ = st.Close() }()

	deps.Store = st
	deps.Downsampler = stats.NewDownsampler(st, stats.WithMetrics(metrics))
	deps.Evaluator = stats.NewEvaluator(st, stats.WithMetrics(metrics))
	deps.Uptime = stats.NewUptimeCalculator(st)
	if cfg.CacheEnabled {
		deps.Cache = cache.New(time.Minute)
	}

	if scheduler != nil {
		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("start rollups: %w", err)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handlers.SetupRoutes(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server_listening",
			zap.String("addr", srv.Addr),
			zap.String("db_driver", cfg.DBDriver),
			zap.Bool("cache", cfg.CacheEnabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("server_shutting_down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	return srv.Shutdown(shutdownCtx)
}
