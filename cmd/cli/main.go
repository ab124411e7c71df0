package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ferredist/catalog-service/config"
	"github.com/ferredist/catalog-service/internal/database"
	"github.com/ferredist/catalog-service/internal/reconcile"
	"github.com/ferredist/catalog-service/internal/store"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "catalog-service",
	Short: "Catalog Service CLI - supplier price reconciliation tool",
	Long: `A CLI tool for reconciling supplier price lists into the product catalog.
Extracts Excel or CSV price lists, normalizes codes and discounts, recomputes
web prices with the tiered margin schedule and merges the result into the
catalog without touching curated fields.`,
	PersistentPreRunE: persistentPreRun,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml or ./config.yaml)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
	}
}

// persistentPreRun runs before each command and initializes dependencies
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	logger = initLogger()

	return nil
}

func initLogger() *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if cfg != nil && cfg.Logging.Level != "" {
		if parsedLevel, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			level = parsedLevel
		}
	}

	// Always use console format for CLI
	noColor := false
	if cfg != nil {
		noColor = cfg.Logging.NoColor
	}
	output := io.Writer(zerolog.ConsoleWriter{Out: os.Stdout, NoColor: noColor})

	log := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &log
}

// openStores builds the catalog and run stores for the configured mode,
// connecting to postgres when needed. The caller must Close the returned
// store and, in postgres mode, database.Close().
func openStores(ctx context.Context) (store.Store, reconcile.RunStore, store.Mode, error) {
	if cfg == nil {
		return nil, nil, "", fmt.Errorf("config required but not loaded")
	}

	mode, err := store.ParseMode(cfg.Catalog.Store)
	if err != nil {
		return nil, nil, "", err
	}

	if mode == store.ModePostgres {
		dbURL := config.GetDatabaseURL()
		if dbURL == "" {
			return nil, nil, "", fmt.Errorf("DATABASE_URL not set")
		}
		if err := database.Connect(
			ctx,
			dbURL,
			cfg.Database.MaxConnections,
			cfg.Database.MinConnections,
			cfg.Database.MaxConnLifetime,
			cfg.Database.MaxConnIdleTime,
		); err != nil {
			return nil, nil, "", fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.EnsureSchema(ctx); err != nil {
			return nil, nil, "", fmt.Errorf("failed to ensure schema: %w", err)
		}

		catalogStore, err := store.NewPostgresStore(database.Pool())
		if err != nil {
			return nil, nil, "", err
		}
		runStore, err := reconcile.NewPgRunStore(database.Pool())
		if err != nil {
			return nil, nil, "", err
		}
		return catalogStore, runStore, mode, nil
	}

	catalogStore, err := store.NewDocumentStore(cfg.Catalog.DocumentPath)
	if err != nil {
		return nil, nil, "", err
	}
	runsPath := filepath.Join(filepath.Dir(cfg.Catalog.DocumentPath), "reconcile_runs.json")
	runStore, err := reconcile.NewFileRunStore(runsPath)
	if err != nil {
		return nil, nil, "", err
	}
	return catalogStore, runStore, mode, nil
}

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
