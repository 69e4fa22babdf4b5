package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sohojincome/backend/config"
	apierrors "github.com/sohojincome/backend/pkg/api/errors"
	"github.com/sohojincome/backend/pkg/api/handlers"
	apimiddleware "github.com/sohojincome/backend/pkg/api/middleware"
	"github.com/sohojincome/backend/pkg/cache"
	"github.com/sohojincome/backend/pkg/database"
	"github.com/sohojincome/backend/pkg/logger"
	"github.com/sohojincome/backend/pkg/metrics"
	custommiddleware "github.com/sohojincome/backend/pkg/middleware"
	"github.com/sohojincome/backend/pkg/referral"
	"github.com/sohojincome/backend/pkg/repository"
	"github.com/sohojincome/backend/pkg/users"
	"github.com/sohojincome/backend/pkg/withdrawal"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("configuration loaded", "environment", cfg.Environment, "version", cfg.Version)

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          cfg.Version,
			Debug:            cfg.SentryDebug,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Warn("failed to initialize sentry", "error", err)
		} else {
			log.Info("sentry initialized")
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Database and schema
	databaseURL, err := database.WithTLS(cfg.DatabaseURL, database.TLSOptions{
		Mode:     cfg.DatabaseSSLMode,
		Cert:     cfg.DatabaseSSLCert,
		Key:      cfg.DatabaseSSLKey,
		RootCert: cfg.DatabaseSSLRootCert,
	})
	if err != nil {
		log.Error("invalid database TLS settings", "error", err)
		os.Exit(1)
	}

	version, err := database.MigrateUp(databaseURL)
	if err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied", "version", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(ctx, databaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)
	go reportPoolStats(ctx, db, appMetrics)

	health := handlers.NewHealthHandler(db, cfg.Environment, cfg.Version)

	// Rate limiting: Redis when configured so limits hold across instances
	var limiter custommiddleware.Limiter
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		limiter = custommiddleware.NewRedisRateLimiter(redisClient, cfg.RateLimitRequests, cfg.RateLimitWindow, log)
		health.WithCache(redisClient)
		log.Info("using redis rate limiter")
	} else {
		local := custommiddleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
		defer local.Stop()
		limiter = local
	}

	// Services
	errs := apierrors.NewResponder(log, cfg.IsProduction())

	userService := users.NewService(repository.NewUserRepository(db), log, appMetrics, users.Rewards{
		Ad:      cfg.AdReward,
		BonusAd: cfg.BonusAdReward,
	})
	referralService := referral.NewService(repository.NewReferralRepository(db), log, appMetrics)
	withdrawalService := withdrawal.NewService(repository.NewWithdrawalRepository(db), log, appMetrics)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = errs.HTTPErrorHandler

	ipExtractor, err := custommiddleware.ClientIPExtractor(cfg.TrustedProxies)
	if err != nil {
		log.Error("invalid TRUSTED_PROXIES", "error", err)
		os.Exit(1)
	}
	e.IPExtractor = ipExtractor

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	}

	e.Use(appMetrics.Middleware())
	e.Use(middleware.Secure())
	e.Use(custommiddleware.SecurityHeaders(custommiddleware.DefaultSecurityHeadersConfig()))
	e.Use(middleware.CORSWithConfig(custommiddleware.CORSConfig(cfg.CORSAllowedOrigins)))
	e.Use(middleware.Gzip())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(custommiddleware.RateLimit(limiter, appMetrics.RecordRateLimited))

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(e, handlers.Handlers{
		Health:      health,
		Users:       handlers.NewUserHandler(userService, errs),
		Referrals:   handlers.NewReferralHandler(referralService, errs),
		Withdrawals: handlers.NewWithdrawalHandler(withdrawalService, errs),
	}, apimiddleware.Gate(apimiddleware.AllowAll))

	// Start server
	go func() {
		log.Info("server starting", "address", cfg.Address())
		if err := e.Start(cfg.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("server stopped")
}

// reportPoolStats publishes the pool's connection count until ctx ends.
func reportPoolStats(ctx context.Context, db *database.DB, m *metrics.Metrics) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		m.UpdateDBConnections(float64(db.Stat().TotalConns()))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
