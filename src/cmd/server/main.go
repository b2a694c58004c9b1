package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/lexhub/caseflow/src/internal/actions"
	api2 "github.com/lexhub/caseflow/src/internal/api"
	"github.com/lexhub/caseflow/src/internal/config"
	"github.com/lexhub/caseflow/src/internal/gateway"
	"github.com/lexhub/caseflow/src/internal/store"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)
	sugar := logger.Sugar()

	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("config: %v", err)
	}

	var gw gateway.Gateway
	switch cfg.StorageBackend {
	case "memory":
		sugar.Info("using in-memory storage backend")
		gw = gateway.NewMemory()
	default:
		db, err := connectDBWithRetry(cfg.DatabaseURL, 15, 2*time.Second, sugar)
		if err != nil {
			sugar.Fatalf("failed to connect to db: %v", err)
		}
		defer func(db *sql.DB) {
			if err := db.Close(); err != nil {
				sugar.Errorf("failed to close db: %v", err)
			}
		}(db)

		if err := runMigrations(cfg.DatabaseURL, cfg.MigrationsDir, sugar); err != nil {
			sugar.Fatalf("migrations failed: %v", err)
		}
		sugar.Info("migrations applied")
		gw = gateway.NewPostgres(db, sugar.Desugar())
	}

	if cfg.CacheTTL > 0 {
		gw = gateway.NewCached(gw, cfg.CacheTTL, sugar.Desugar())
	}

	st := store.New()
	acts := actions.New(gw, st, sugar.Desugar())
	h := api2.NewHandler(acts, sugar.Desugar())

	r := chi.NewRouter()
	r.Use(api2.RequestIDMiddleware, api2.LoggerMiddleware(logger), api2.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	api2.RegisterRoutes(r, h, cfg.JWTSecret)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sugar.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	sugar.Infof("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		sugar.Fatalf("server forced to shutdown: %v", err)
	}
	sugar.Info("server stopped")
}

func connectDBWithRetry(dsn string, attempts int, delay time.Duration, sugar *zap.SugaredLogger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	for i := 0; i < attempts; i++ {
		db, err = sql.Open("postgres", dsn)
		if err == nil {
			if err = db.Ping(); err == nil {
				return db, nil
			}
		}
		sugar.Warnf("db ping error: %v (attempt %d/%d)", err, i+1, attempts)
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("db connect failed: %w", err)
}

func runMigrations(dsn, migrationsDir string, sugar *zap.SugaredLogger) error {
	sugar.Infof("running migrations from %s", migrationsDir)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("migration open db: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://"+migrationsDir,
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("migration init: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up: %w", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		sugar.Info("no new migrations to apply")
	}

	return nil
}
