package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/ferredist/catalog-service/config"
	_ "github.com/ferredist/catalog-service/docs"
	"github.com/ferredist/catalog-service/internal/database"
	"github.com/ferredist/catalog-service/internal/handlers"
	"github.com/ferredist/catalog-service/internal/middleware"
	"github.com/ferredist/catalog-service/internal/pricing"
	"github.com/ferredist/catalog-service/internal/reconcile"
	"github.com/ferredist/catalog-service/internal/storage"
	"github.com/ferredist/catalog-service/internal/store"
	"github.com/ferredist/catalog-service/internal/sweepers"
	"github.com/ferredist/catalog-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting catalog service")

	ctx := context.Background()

	telemetryCleanup, err := telemetry.Init(ctx, telemetry.GetConfigFromEnv())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}

	mode, err := store.ParseMode(cfg.Catalog.Store)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid catalog store configuration")
	}

	catalogStore, runStore, err := buildStores(ctx, cfg, mode, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize catalog store")
	}
	defer catalogStore.Close()

	uploads, err := storage.NewLocalStorage(cfg.Storage.BasePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize upload storage")
	}

	schedule, err := pricing.NewSchedule(cfg.Reconcile.MarginTiers)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid margin schedule")
	}

	engine, err := reconcile.NewEngine(catalogStore, runStore, schedule, reconcile.Options{
		Template:        cfg.Reconcile.Template,
		DefaultDiscount: cfg.Reconcile.DefaultDiscount,
		MaxDiscount:     cfg.Reconcile.MaxDiscount,
		ExchangeRate:    cfg.Reconcile.ExchangeRate,
		MaxRowErrors:    cfg.Reconcile.MaxRowErrors,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build reconcile engine")
	}

	// Runs left in running state by a crash get swept to interrupted;
	// finished runs past retention get purged on the same loop.
	retention := time.Duration(cfg.Reconcile.RunRetentionDays) * 24 * time.Hour
	runSweeper := sweepers.NewRunSweeper(runStore, logger, 5*time.Minute, 2*time.Hour, retention)
	go runSweeper.Start(ctx)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	h := handlers.New(catalogStore, engine, uploads, cfg.Storage.UploadKey, mode)
	router := buildRouter(h, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Str("store", string(mode)).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	runSweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := telemetryCleanup(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Telemetry shutdown failed")
	}
	if mode == store.ModePostgres {
		database.Close()
	}

	logger.Info().Msg("Server exited")
}

// buildStores wires the catalog and run stores for the configured mode.
// Document mode keeps both as JSON files in the catalog directory;
// postgres mode shares one connection pool.
func buildStores(ctx context.Context, cfg *config.Config, mode store.Mode, logger *zerolog.Logger) (store.Store, reconcile.RunStore, error) {
	switch mode {
	case store.ModePostgres:
		dbURL := config.GetDatabaseURL()
		if dbURL == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL not set")
		}
		if err := database.Connect(
			ctx,
			dbURL,
			cfg.Database.MaxConnections,
			cfg.Database.MinConnections,
			cfg.Database.MaxConnLifetime,
			cfg.Database.MaxConnIdleTime,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.EnsureSchema(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to ensure schema: %w", err)
		}
		logger.Info().Msg("Database connected")

		catalogStore, err := store.NewPostgresStore(database.Pool())
		if err != nil {
			return nil, nil, err
		}
		runStore, err := reconcile.NewPgRunStore(database.Pool())
		if err != nil {
			return nil, nil, err
		}
		return catalogStore, runStore, nil

	default:
		catalogStore, err := store.NewDocumentStore(cfg.Catalog.DocumentPath)
		if err != nil {
			return nil, nil, err
		}
		runsPath := filepath.Join(filepath.Dir(cfg.Catalog.DocumentPath), "reconcile_runs.json")
		runStore, err := reconcile.NewFileRunStore(runsPath)
		if err != nil {
			return nil, nil, err
		}
		return catalogStore, runStore, nil
	}
}

func buildRouter(h *handlers.Handlers, logger *zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	setupRequestLogging(router, logger)

	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	public := router.Group("/")
	public.Use(middleware.RateLimitMiddleware())
	{
		public.GET("/catalog", h.GetCatalog)
		public.GET("/catalog/search", h.SearchCatalog)
		public.GET("/catalog/:code", h.GetCatalogEntry)
	}

	internal := router.Group("/internal")
	internal.Use(middleware.AdminAuthMiddleware())
	internal.Use(middleware.AdminRateLimitMiddleware(10, 20))
	{
		internal.GET("/health", h.HealthCheck)

		admin := internal.Group("/admin")
		{
			admin.POST("/reconcile", h.TriggerReconcile)
			admin.GET("/templates", h.ListTemplates)
			admin.POST("/workbooks", h.UploadWorkbook)
			admin.GET("/workbooks", h.GetWorkbookInfo)
		}

		runs := internal.Group("/reconcile")
		{
			runs.GET("/runs", h.ListRuns)
			runs.GET("/runs/:runId", h.GetRun)
		}

		curation := internal.Group("/catalog")
		{
			curation.GET("/:code/override", h.GetOverride)
			curation.PUT("/:code/override", h.PutOverride)
		}
	}

	return router
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "catalog-service").Logger()
	return &logger
}

func setupRequestLogging(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
