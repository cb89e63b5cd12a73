package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kevin07696/payments-admin/internal/adapters/paypal"
	"github.com/kevin07696/payments-admin/internal/adapters/postgres"
	"github.com/kevin07696/payments-admin/internal/auth"
	"github.com/kevin07696/payments-admin/internal/config"
	"github.com/kevin07696/payments-admin/internal/domain/ports"
	adminhandler "github.com/kevin07696/payments-admin/internal/handlers/paymentsadmin"
	"github.com/kevin07696/payments-admin/internal/middleware"
	"github.com/kevin07696/payments-admin/internal/services/paymentsadmin"
	pkgmiddleware "github.com/kevin07696/payments-admin/pkg/middleware"
	"github.com/kevin07696/payments-admin/pkg/observability"
	"github.com/kevin07696/payments-admin/pkg/resilience"
	"github.com/kevin07696/payments-admin/pkg/security"
	"github.com/kevin07696/payments-admin/pkg/shutdown"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logger)
	defer func() { _ = logger.Sync() }()
	appLogger := security.NewZapLogger(logger)

	logger.Info("Starting payments admin",
		zap.String("environment", cfg.Environment),
		zap.Int("port", cfg.Server.Port),
	)

	if err := run(cfg, logger, appLogger); err != nil {
		logger.Fatal("Payments admin stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger, appLogger ports.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := initSecretStore(ctx, cfg.Secrets, appLogger)
	if err != nil {
		return fmt.Errorf("init secret store: %w", err)
	}
	if err := resolveSecrets(ctx, store, cfg, appLogger); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	shutdownManager := shutdown.NewManager(logger, cfg.Server.ShutdownTimeout)

	// Database
	poolConfig := postgres.DefaultPoolConfig(cfg.Database.ConnectionString())
	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns
	pool, err := postgres.NewPool(ctx, poolConfig, appLogger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	shutdownManager.RegisterNoErr("database", pool.Close)
	postgres.StartPoolMonitoring(ctx, pool, 30*time.Second, appLogger)

	db := postgres.NewDBExecutor(pool)
	payments := postgres.NewPaymentRepository(db)
	orders := postgres.NewOrderRepository(db)
	users := postgres.NewAdminUserRepository(db)

	// Provider
	paypalConfig := paypal.DefaultConfig()
	paypalConfig.BaseURL = cfg.PayPal.BaseURL
	paypalConfig.ClientID = cfg.PayPal.ClientID
	paypalConfig.ClientSecret = cfg.PayPal.ClientSecret
	paypalConfig.Timeout = cfg.PayPal.Timeout
	if !paypalConfig.Configured() {
		logger.Warn("PayPal credentials missing; refunds will fail until configured",
			zap.String("mode", cfg.PayPal.Mode))
	}
	gateway := paypal.NewRefundClient(paypalConfig, nil, appLogger)

	// Credentials
	sessions := auth.NewSessionCodec(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL)
	siteAdmins := auth.NewSessionAuthenticator(cfg.Auth.SiteAdminUsers)
	chain := auth.NewChain(appLogger,
		auth.NewTokenAuthenticator(cfg.Auth.AdminToken),
		siteAdmins,
		auth.NewAdminUserAuthenticator(users, appLogger),
		auth.NewAllowListAuthenticator(cfg.Auth.AllowListJSON, appLogger),
	)
	gate := middleware.NewPaymentsAdminAuth(chain, sessions, siteAdmins, cfg.Auth.SessionCookieName, appLogger)

	service := paymentsadmin.NewService(db, payments, orders, gateway, appLogger)
	userService := paymentsadmin.NewUserService(db, users, appLogger)
	handler := adminhandler.NewHandler(service, userService, logger)

	// Operational endpoints
	healthChecker := observability.NewHealthChecker(db)
	healthChecker.AddCheck("paypal", false, func(context.Context) error {
		if !paypalConfig.Configured() {
			return errors.New("credentials not configured")
		}
		return nil
	})
	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), healthChecker, logger)
	shutdownManager.Register("metrics-server", func(context.Context) error {
		return observability.ShutdownMetricsServer(metricsServer)
	})

	// HTTP
	inflight := shutdown.NewInFlightTracker("payments-admin", logger)
	router := chi.NewRouter()
	router.Use(middleware.RequestContext)
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.AccessLog(logger))
	router.Use(observability.HTTPMetricsMiddleware)
	router.Use(middleware.NewSecurityHeaders(!cfg.IsProduction()).Middleware)
	router.Use(pkgmiddleware.HandlerTimeout(resilience.DefaultTimeoutConfig(), logger))
	router.Use(chimw.Compress(5, "application/json", "text/html"))
	if cfg.RateLimit.Enabled {
		limiter := pkgmiddleware.NewRateLimiter(
			pkgmiddleware.DefaultRateLimiterConfig(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst), logger)
		shutdownManager.RegisterNoErr("rate-limiter", limiter.Shutdown)
		router.Use(limiter.Middleware)
	}
	router.Use(inflight.Middleware)
	router.Mount("/payments-admin", handler.Routes(gate))

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	// Stopped first: readiness fails, new requests get 503, in-flight
	// actions finish, then the listener closes.
	shutdownManager.Register("http-server", func(ctx context.Context) error {
		healthChecker.SetDraining()
		drainErr := inflight.Shutdown(ctx)
		return errors.Join(drainErr, httpServer.Shutdown(ctx))
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	waitCtx, stopWaiting := context.WithCancel(ctx)
	defer stopWaiting()
	go func() {
		if err, ok := <-serverErr; ok && err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
			stopWaiting()
		}
	}()

	if err := shutdownManager.WaitForSignal(waitCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func initLogger(cfg config.LoggerConfig) *zap.Logger {
	level := zapcore.InfoLevel
	if err := level.Set(cfg.Level); err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		return zap.NewNop()
	}
	return logger
}
