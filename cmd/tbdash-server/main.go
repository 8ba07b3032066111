package main

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/migranthealth/tbdash/internal/config"
	"github.com/migranthealth/tbdash/internal/dataset"
	"github.com/migranthealth/tbdash/internal/domain/patient"
	"github.com/migranthealth/tbdash/internal/domain/surveillance"
	"github.com/migranthealth/tbdash/internal/platform/db"
	"github.com/migranthealth/tbdash/internal/platform/middleware"
	"github.com/migranthealth/tbdash/internal/platform/openapi"
	"github.com/migranthealth/tbdash/migrations"
)

const version = "1.0.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "tbdash-server",
		Short: "TB surveillance dashboard API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// newLogger writes JSON to stdout, or console output in development.
// Production drops debug events.
func newLogger(cfg *config.Config) zerolog.Logger {
	var logger zerolog.Logger
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	if cfg.IsProduction() {
		return logger.Level(zerolog.InfoLevel)
	}
	return logger.Level(zerolog.DebugLevel)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// sourceFor picks the roster source for cfg. repo is only consulted when
// DATABASE_URL is set.
func sourceFor(cfg *config.Config, repo patient.Repository) patient.Source {
	switch cfg.Source() {
	case config.SourcePostgres:
		return patient.RepoSource{Repo: repo}
	case config.SourceFile:
		return patient.FileSource{Path: cfg.DataFile}
	default:
		return dataset.Source{}
	}
}

// openRoster connects to Postgres when configured and loads the initial
// snapshot. The returned pool is nil for file and embedded sources.
func openRoster(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*patient.Store, *pgxpool.Pool, error) {
	var (
		pool *pgxpool.Pool
		repo patient.Repository
	)
	if cfg.Source() == config.SourcePostgres {
		p, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, err
		}
		pool = p
		repo = patient.NewPatientRepoPG(pool)
		logger.Info().Msg("connected to database")
	}

	store := patient.NewStore(sourceFor(cfg, repo))
	snap, err := store.Reload(ctx)
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, nil, err
	}
	patient.LogIssues(logger, snap.Issues)
	logger.Info().
		Str("source", snap.Source).
		Int("records", len(snap.Records)).
		Int("issues", len(snap.Issues)).
		Msg("roster loaded")
	return store, pool, nil
}

func newServer(cfg *config.Config, logger zerolog.Logger, store *patient.Store, pool *pgxpool.Pool) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"records": len(store.Snapshot().Records),
		})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool, func() *db.PoolStats { return db.GetPoolStats(pool) }))
	}

	measureIDs := make([]string, 0, len(surveillance.PredefinedMeasures))
	for _, m := range surveillance.PredefinedMeasures {
		measureIDs = append(measureIDs, m.ID)
	}
	openapi.NewGenerator(measureIDs, version, "http://localhost:"+cfg.Port).RegisterRoutes(e.Group("/api"))

	apiV1 := e.Group("/api/v1")
	patient.NewHandler(store, logger).RegisterRoutes(apiV1)
	svc := surveillance.NewService(store, cfg.RecentLimit)
	surveillance.NewHandler(svc).RegisterRoutes(apiV1)
	logger.Debug().Int("recent_limit", svc.RecentLimit()).Msg("dashboard routes registered")

	return e
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)

	store, pool, err := openRoster(context.Background(), cfg, logger)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	if pool != nil {
		defer pool.Close()
	}

	e := newServer(cfg, logger, store, pool)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a JSON roster and upsert it into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			if file == "" {
				return fmt.Errorf("--file is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for import")
			}

			res, err := patient.LoadFile(file)
			if err != nil {
				return err
			}
			patient.LogIssues(newLogger(cfg), res.Issues)

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			n, err := patient.NewPatientRepoPG(pool).Upsert(ctx, res.Records)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			fmt.Printf("Imported %d record(s), %d with data issues.\n", n, res.Skipped())
			return nil
		},
	}
	cmd.Flags().String("file", "", "Path to a patients.json roster")
	return cmd
}

// migrationFiles returns the embedded migrations unless dir is set.
func migrationFiles(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	withMigrator := func(cmd *cobra.Command, fn func(ctx context.Context, m *db.Migrator) error) error {
		dir, _ := cmd.Flags().GetString("dir")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for migrations")
		}

		ctx := context.Background()
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return err
		}
		defer pool.Close()

		return fn(ctx, db.NewMigrator(pool, migrationFiles(dir)))
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *db.Migrator) error {
				count, err := m.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Printf("Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (default: bundled migrations)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				printMigrationStatus(os.Stdout, statuses)
				return nil
			})
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (default: bundled migrations)")
	cmd.AddCommand(statusCmd)

	return cmd
}
