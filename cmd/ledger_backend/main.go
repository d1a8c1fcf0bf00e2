package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	portssvc "github.com/SscSPs/account_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/account_ledger_app/internal/core/services"
	"github.com/SscSPs/account_ledger_app/internal/handlers"
	"github.com/SscSPs/account_ledger_app/internal/middleware"
	"github.com/SscSPs/account_ledger_app/internal/notify"
	"github.com/SscSPs/account_ledger_app/internal/platform/config"
	"github.com/SscSPs/account_ledger_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/account_ledger_app/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// @title Account Ledger Backend API
// @version 1.0
// @description Account ledger with atomic transactions, amendments and an audit trail.

// @host localhost:8080
// @BasePath /

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

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	r.Use(cors.Default())

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid rate limit format", slog.String("rate", cfg.RateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}
	r.Use(middleware.RateLimit(limiter.New(memory.NewStore(), rate)))

	// Wire repositories, services and routes
	repos := pgsql.NewRepositoryProvider(dbPool)
	notifier := notify.NewLogNotifier(logger)
	serviceContainer := services.NewServiceContainer(cfg, repos, notifier)

	// Registration only creates customers, so the administrative identity is
	// provisioned here from config.
	if cfg.AdminAccountNumber != "" {
		if err := serviceContainer.Account.EnsureAdminAccount(context.Background(), cfg.AdminAccountNumber, cfg.AdminName, cfg.AdminPassword, cfg.AdminPIN); err != nil {
			logger.Error("Failed to provision admin account", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	registerRoutes(r, cfg, serviceContainer)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func registerRoutes(r *gin.Engine, cfg *config.Config, serviceContainer *portssvc.ServiceContainer) {
	handlers.RegisterRoutes(r, cfg, serviceContainer)
}

// runMigrations applies all pending "up" migrations before the server starts
// accepting traffic. It opens a temporary database/sql connection via the
// pgx stdlib driver, which migrate requires.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
