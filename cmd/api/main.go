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

	"github.com/joho/godotenv"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/cleaning-api/config"
	bookingHandler "github.com/jwalitptl/cleaning-api/internal/handler/booking"
	catalogHandler "github.com/jwalitptl/cleaning-api/internal/handler/catalog"
	"github.com/jwalitptl/cleaning-api/internal/handler/health"
	loyaltyHandler "github.com/jwalitptl/cleaning-api/internal/handler/loyalty"
	priceHandler "github.com/jwalitptl/cleaning-api/internal/handler/price"
	promHandler "github.com/jwalitptl/cleaning-api/internal/handler/prometheus"
	quoteHandler "github.com/jwalitptl/cleaning-api/internal/handler/quote"
	"github.com/jwalitptl/cleaning-api/internal/middleware"
	"github.com/jwalitptl/cleaning-api/internal/repository/postgres"
	"github.com/jwalitptl/cleaning-api/internal/router"
	bookingService "github.com/jwalitptl/cleaning-api/internal/service/booking"
	catalogService "github.com/jwalitptl/cleaning-api/internal/service/catalog"
	loyaltyService "github.com/jwalitptl/cleaning-api/internal/service/loyalty"
	priceService "github.com/jwalitptl/cleaning-api/internal/service/price"
	quoteService "github.com/jwalitptl/cleaning-api/internal/service/quote"
	"github.com/jwalitptl/cleaning-api/pkg/logger"
	"github.com/jwalitptl/cleaning-api/pkg/metrics"
	"github.com/jwalitptl/cleaning-api/pkg/validator"
)

func main() {
	// A missing .env is normal outside local development.
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, cfg.Database, cfg.Database.ConnectWait, log)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(cfg.Monitoring.Namespace, registry)

	// Repositories
	catalogRepo := postgres.NewCatalogRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	quoteRepo := postgres.NewQuoteRepository(db)
	loyaltyRepo := postgres.NewLoyaltyRepository(db)

	// Services
	catalogCache := cache.New(cfg.Cache.CatalogTTL, cfg.Cache.CleanupInterval)
	catalogSvc := catalogService.NewService(catalogRepo, catalogCache, m, log, cfg.Pricing.Currency)
	priceSvc := priceService.NewService(catalogSvc, m, log)
	loyaltySvc := loyaltyService.NewService(loyaltyRepo, cfg.Loyalty.MinorUnitsPerPoint, m, log)
	bookingSvc := bookingService.NewService(bookingRepo, priceSvc, loyaltySvc, cfg.Pricing, m, log)
	quoteSvc := quoteService.NewService(quoteRepo, priceSvc, cfg.Pricing, m, log)

	// Handlers
	v := validator.New()
	handlers := router.Handlers{
		Health:  health.NewHandler(db),
		Price:   priceHandler.NewHandler(priceSvc, v),
		Catalog: catalogHandler.NewHandler(catalogSvc, v),
		Quote:   quoteHandler.NewHandler(quoteSvc, v),
		Booking: bookingHandler.NewHandler(bookingSvc, v),
		Loyalty: loyaltyHandler.NewHandler(loyaltySvc),
	}
	if cfg.Monitoring.PrometheusEnabled {
		handlers.Metrics = promHandler.New(registry).Handler()
	}

	r := router.NewRouter(handlers, m, log, router.RouterConfig{
		Mode:             cfg.Server.Mode,
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		CORSConfig:       middleware.DefaultCORSConfig(cfg.Server.CORSOrigins),
		RequestTimeout:   cfg.Server.RequestTimeout,
		MaxBodyBytes:     cfg.Server.MaxBodyBytes,
	})
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "server forced to shutdown")
	}

	log.Info("server exited properly")
}
