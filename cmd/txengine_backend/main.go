package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/paygrid/tx_engine_app/internal/adapters/csvio"
	"github.com/paygrid/tx_engine_app/internal/adapters/database/pgsql"
	portsrepo "github.com/paygrid/tx_engine_app/internal/core/ports/repositories"
	"github.com/paygrid/tx_engine_app/internal/core/services"
	"github.com/paygrid/tx_engine_app/internal/handlers"
	"github.com/paygrid/tx_engine_app/internal/middleware"
	"github.com/paygrid/tx_engine_app/internal/platform/config"
	"github.com/paygrid/tx_engine_app/pkg/database"
	"github.com/redis/go-redis/v9"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// With a CSV path argument the engine runs one batch over the file and
	// prints snapshots to stdout; without it the HTTP ingest API is served.
	if len(os.Args) > 1 {
		if err := runBatch(logger, cfg, os.Args[1]); err != nil {
			logger.Error("Batch run failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	if err := runServer(logger, cfg); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func runBatch(logger *slog.Logger, cfg *config.Config, path string) error {
	ctx := middleware.ContextWithLogger(context.Background(), logger)

	input, err := os.Open(path)
	if err != nil {
		return err
	}
	defer input.Close()

	container := services.NewContainer(cfg.ProcessorLanes, nil)

	if err := container.Processor.ProcessAll(ctx, csvio.NewReader(input)); err != nil {
		return err
	}

	snapshots := container.Processor.Snapshots()
	if err := csvio.NewWriter(os.Stdout).WriteSnapshots(snapshots); err != nil {
		return err
	}

	stats := container.Processor.Stats()
	logger.Info("Stream processed",
		slog.Int("accounts", len(snapshots)),
		slog.Int64("applied", stats.Applied),
		slog.Int64("rejected", stats.TotalRejected()))

	if cfg.DatabaseURL == "" {
		return nil
	}
	return persistRun(ctx, logger, cfg, container)
}

// persistRun stores the final snapshots and the audit trail of a finished
// run under a fresh run id.
func persistRun(ctx context.Context, logger *slog.Logger, cfg *config.Config, container *services.Container) error {
	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	if err := runMigrations(logger, cfg.DatabaseURL); err != nil {
		return err
	}

	repos := &portsrepo.RepositoryProvider{
		SnapshotRepo: pgsql.NewSnapshotRepository(dbPool),
		AuditRepo:    pgsql.NewAuditRepository(dbPool),
	}

	runID := uuid.NewString()
	if err := repos.SnapshotRepo.SaveSnapshots(ctx, runID, container.Processor.Snapshots()); err != nil {
		return err
	}
	if err := repos.AuditRepo.SaveAuditEntries(ctx, runID, container.Processor.AuditTrail()); err != nil {
		return err
	}

	logger.Info("Run persisted", slog.String("run_id", runID))
	return nil
}

func runServer(logger *slog.Logger, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL != "" {
		if err := runMigrations(logger, cfg.DatabaseURL); err != nil {
			return err
		}
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		var err error
		cache, err = database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer cache.Close()
		logger.Info("Redis connection established, ingest idempotency enabled.")
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), cors.Default())

	if err := r.SetTrustedProxies(nil); err != nil {
		return err
	}

	container := services.NewContainer(cfg.ProcessorLanes, nil)
	handlers.RegisterRoutes(r, cfg, container, cache)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(middleware.ContextWithLogger(context.Background(), logger), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// Flush what the stream produced before the process goes away.
	if cfg.DatabaseURL != "" {
		return persistRun(shutdownCtx, logger, cfg, container)
	}
	return nil
}

func runMigrations(logger *slog.Logger, databaseURL string) error {
	logger.Info("Running database migrations...")

	// Open a standard sql.DB connection for migrations, using the
	// pgx/v5/stdlib driver to be compatible with the main pool.
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

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
