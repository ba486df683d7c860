package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/finance-tracker/internal"
	"github.com/frahmantamala/finance-tracker/internal/auth"
	"github.com/frahmantamala/finance-tracker/internal/badi"
	"github.com/frahmantamala/finance-tracker/internal/budget"
	budgetPostgres "github.com/frahmantamala/finance-tracker/internal/budget/postgres"
	"github.com/frahmantamala/finance-tracker/internal/category"
	"github.com/frahmantamala/finance-tracker/internal/core/events"
	"github.com/frahmantamala/finance-tracker/internal/report"
	reportPostgres "github.com/frahmantamala/finance-tracker/internal/report/postgres"
	"github.com/frahmantamala/finance-tracker/internal/rule"
	"github.com/frahmantamala/finance-tracker/internal/transaction"
	transactionPostgres "github.com/frahmantamala/finance-tracker/internal/transaction/postgres"
	"github.com/frahmantamala/finance-tracker/internal/transport"
	"github.com/frahmantamala/finance-tracker/internal/transport/rest"
	"github.com/frahmantamala/finance-tracker/internal/upload"
	uploadPostgres "github.com/frahmantamala/finance-tracker/internal/upload/postgres"
	"github.com/frahmantamala/finance-tracker/internal/user"
	userPostgres "github.com/frahmantamala/finance-tracker/internal/user/postgres"
	"github.com/frahmantamala/finance-tracker/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *Database
	EventBus *events.EventBus
	Router   *chi.Mux
	Logger   *slog.Logger
}

// Database exposes one connection pool through both access layers:
// gorm for the resource repositories and sqlx for report queries.
type Database struct {
	Gorm *gorm.DB
	SQLX *sqlx.DB
}

func (d *Database) Close() error {
	return d.SQLX.Close()
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "base_url", deps.Config.Server.BaseURL)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		// let in-flight activity handlers finish before the pool goes away
		deps.EventBus.Wait()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	cfg := deps.Config
	lg := deps.Logger
	base := transport.NewBaseHandler(lg)

	ruleService, categoryService := newRuleService(deps.DB, deps.EventBus, lg)
	transactionService := transaction.NewService(transactionPostgres.NewTransactionRepository(deps.DB.Gorm), ruleService, categoryService, lg)
	budgetService := budget.NewService(budgetPostgres.NewBudgetRepository(deps.DB.Gorm), categoryService, lg)
	uploadService := upload.NewService(uploadPostgres.NewUploadRepository(deps.DB.Gorm), ruleService, categoryService, deps.EventBus, cfg.Uploads, lg)
	reportService := report.NewService(reportPostgres.NewReportRepository(deps.DB.SQLX), lg)

	userRepo := userPostgres.NewUserRepository(deps.DB.Gorm)
	userService := user.NewService(userRepo, cfg.Security.BCryptCost, lg)
	authService := auth.NewService(userRepo, auth.NewJWTTokenGenerator(cfg.Security), lg)

	handlers := rest.Handlers{
		Auth:        auth.NewHandler(base, authService),
		RBAC:        auth.NewRBACAuthorization(auth.NewPermissionChecker(), lg),
		User:        user.NewHandler(base, userService),
		Rule:        rule.NewHandler(base, ruleService),
		Category:    category.NewHandler(base, categoryService),
		Transaction: transaction.NewHandler(base, transactionService),
		Budget:      budget.NewHandler(base, budgetService),
		Upload:      upload.NewHandler(base, uploadService, cfg.Uploads.MaxSizeMB),
		Report:      report.NewHandler(base, reportService),
		Calendar:    badi.NewHandler(),
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.SQLX.DB, rest.Options{
		UploadDir:      cfg.Uploads.Dir,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, handlers, lg)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lg := logger.LoggerWrapper()

	if err := os.MkdirAll(config.Uploads.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	bus := events.NewEventBus(lg)
	events.RegisterActivityLogger(bus, lg)

	return &Dependencies{
		Config:   config,
		DB:       db,
		EventBus: bus,
		Router:   chi.NewRouter(),
		Logger:   lg,
	}, nil
}

// initDB opens the postgres pool once and shares it between gorm and sqlx.
func initDB(cfg internal.DatabaseConfig) (*Database, error) {
	const driver = "pgx"

	gormDB, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access db pool: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		Gorm: gormDB,
		SQLX: sqlx.NewDb(sqlDB, driver),
	}, nil
}
