package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/cleaning-api/config"
	"github.com/jwalitptl/cleaning-api/internal/handler/health"
	promHandler "github.com/jwalitptl/cleaning-api/internal/handler/prometheus"
	"github.com/jwalitptl/cleaning-api/internal/middleware"
	"github.com/jwalitptl/cleaning-api/internal/repository/postgres"
	eventService "github.com/jwalitptl/cleaning-api/internal/service/event"
	priceService "github.com/jwalitptl/cleaning-api/internal/service/price"
	quoteService "github.com/jwalitptl/cleaning-api/internal/service/quote"
	scheduler "github.com/jwalitptl/cleaning-api/internal/worker"
	"github.com/jwalitptl/cleaning-api/pkg/logger"
	"github.com/jwalitptl/cleaning-api/pkg/messaging"
	"github.com/jwalitptl/cleaning-api/pkg/messaging/redis"
	"github.com/jwalitptl/cleaning-api/pkg/metrics"
	"github.com/jwalitptl/cleaning-api/pkg/worker"
)

func newBroker(cfg config.RedisConfig, log *logger.Logger) (messaging.Broker, error) {
	if cfg.URL == "" {
		log.Warn("no redis url configured, publishing to an in-process broker")
		return messaging.NewMemoryBroker(), nil
	}
	return redis.NewRedisBroker(redis.Config{
		URL:          cfg.URL,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	}, log.With("broker").Zerolog())
}

func serveHealth(port int, db health.Pinger, registry *prometheus.Registry, log *logger.Logger) *http.Server {
	engine := gin.New()
	engine.Use(middleware.Recovery(log))
	api := engine.Group("")
	health.NewHandler(db).RegisterRoutes(api)
	api.GET("/health/metrics", promHandler.New(registry).Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err, "health check server failed")
		}
	}()
	return srv
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Pretty:     cfg.Log.Pretty,
	})
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, cfg.Database, cfg.Database.ConnectWait, log)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := newBroker(cfg.Redis, log)
	if err != nil {
		log.Fatal(err, "failed to create message broker")
	}
	defer broker.Close()

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(cfg.Monitoring.Namespace, registry)

	events := eventService.NewService(postgres.NewOutboxRepository(db), broker, eventService.Config{
		Channel:         cfg.Redis.Channel,
		PublishAttempts: 3,
		MaxRetries:      cfg.Outbox.RetryAttempts,
		RetryDelay:      cfg.Outbox.RetryDelay,
	}, m, log)

	processor, err := worker.NewOutboxProcessor(events, worker.OutboxProcessorConfig{
		BatchSize:    cfg.Outbox.BatchSize,
		PollInterval: cfg.Outbox.PollInterval,
	}, log)
	if err != nil {
		log.Fatal(err, "invalid outbox processor configuration")
	}

	// Quote expiry only touches the quote table, so it needs no catalog.
	quotes := quoteService.NewService(postgres.NewQuoteRepository(db), priceService.NewService(nil, m, log), cfg.Pricing, m, log)

	jobs, err := scheduler.NewScheduler(scheduler.SchedulerConfig{
		QuoteExpiry:     cfg.Cron.QuoteExpiry,
		OutboxCleanup:   cfg.Cron.OutboxCleanup,
		OutboxRetention: cfg.Outbox.Retention,
	}, quotes, events, log)
	if err != nil {
		log.Fatal(err, "invalid cron configuration")
	}

	srv := serveHealth(cfg.Monitoring.WorkerPort, db, registry, log)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		jobs.Start(ctx)
	}()

	log.Info("worker started")
	<-ctx.Done()
	log.Info("shutting down worker...")
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "health server forced to shutdown")
	}
	log.Info("worker exited properly")
}
