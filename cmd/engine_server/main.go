package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/SscSPs/fleet_finance_engine/internal/core/services"
	"github.com/SscSPs/fleet_finance_engine/internal/handlers"
	"github.com/SscSPs/fleet_finance_engine/internal/middleware"
	"github.com/SscSPs/fleet_finance_engine/internal/platform/config"
	"github.com/SscSPs/fleet_finance_engine/internal/platform/lock"
	"github.com/SscSPs/fleet_finance_engine/internal/platform/metrics"
	"github.com/SscSPs/fleet_finance_engine/internal/repositories/database/pgsql"
	"github.com/SscSPs/fleet_finance_engine/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// @title Fleet Finance Engine API
// @version 1.0
// @description Ledger posting, reconciliation and legal collection provisioning.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	if err := database.RunMigrations(cfg.DatabaseURL, database.DefaultMigrationsPath, logger); err != nil {
		logger.Error("Database migrations failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	locker, closeLocker, err := lock.FromConfig(ctx, cfg.RedisURL, cfg.LockTTL)
	if err != nil {
		logger.Error("Failed to initialize locker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeLocker()
	logger.Info("Locker ready", slog.Bool("redis", cfg.RedisURL != ""))

	engineMetrics := metrics.New()
	container := services.NewServiceContainer(cfg, pgsql.NewRepositoryProvider(dbPool),
		services.WithLocker(locker),
		services.WithMetrics(engineMetrics),
	)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	rateLimiter, err := middleware.NewLimiter(cfg.RateLimit)
	if err != nil {
		logger.Error("Failed to create rate limiter", slog.String("error", err.Error()))
		os.Exit(1)
	}

	r := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-Request-ID")
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"}

	// Global middleware (logging, recovery, CORS, rate limiting)
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		cors.New(corsConfig),
		middleware.RateLimit(rateLimiter),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, container, engineMetrics)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
