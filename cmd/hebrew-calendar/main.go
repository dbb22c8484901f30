package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/belphemur/hebrew-calendar/internal/canonical"
	"github.com/belphemur/hebrew-calendar/internal/config"
	"github.com/belphemur/hebrew-calendar/internal/database"
	"github.com/belphemur/hebrew-calendar/internal/dataset"
	"github.com/belphemur/hebrew-calendar/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cfg is loaded once by the root command before any subcommand runs
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "hebrew-calendar",
	Short:         "Verify and serve the precomputed Hebrew calendar dataset",
	Long:          "hebrew-calendar verifies the integrity of the calendar dataset, serves day, month and scripture lookups over HTTP, and publishes feast days to Google Calendar.",
	Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.Service.LogLevel
		if flagLevel, _ := cmd.Flags().GetString("log-level"); flagLevel != "" {
			if !logging.IsValidLevel(flagLevel) {
				return fmt.Errorf("invalid --log-level: %s", flagLevel)
			}
			level = flagLevel
		}
		logging.SetLogLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", os.Getenv("CONFIG_FILE"), "TOML config file (defaults and HCAL_ environment variables when empty)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (trace, debug, info, warn, error)")
}

func main() {
	// A missing .env is fine; the environment may already be set
	_ = godotenv.Load()

	isDev := os.Getenv("ENV") != "production"
	logging.Initialize(isDev)
	logger := logging.GetLogger("main")

	// Create context that's canceled on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("Received signal, initiating shutdown")
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newVerifier builds the integrity verifier the configuration asks for
func newVerifier() *dataset.Verifier {
	return dataset.NewVerifier(canonical.Encoder{EscapeNonASCII: cfg.Dataset.ASCIIEscape}, cfg.Dataset.RequireDigest)
}

// fileLoader returns a loader and resource name for path, or for the
// configured dataset when path is empty
func fileLoader(path string) (*dataset.Loader, string) {
	dir, name := cfg.Dataset.Dir, cfg.Dataset.Name
	if path != "" {
		dir, name = filepath.Dir(path), filepath.Base(path)
	}
	return dataset.NewLoader(dataset.NewFileProvider(dir), newVerifier()), name
}

// openDatabase opens and migrates the state database
func openDatabase() (*database.DB, error) {
	logger := logging.GetLogger("main")

	if err := os.MkdirAll(filepath.Dir(cfg.Service.StateFile), 0o755); err != nil {
		logger.Error().Err(err).Str("path", filepath.Dir(cfg.Service.StateFile)).Msg("Failed to create data directory")
		return nil, err
	}

	db, err := database.New(database.NewDefaultOptions(cfg.Service.StateFile))
	if err != nil {
		wrappedErr := fmt.Errorf("failed to initialize database: %w", err)
		logger.Error().Err(wrappedErr).Str("db_path", cfg.Service.StateFile).Msg("Database initialization failed")
		return nil, wrappedErr
	}

	if err := db.MigrateDatabase(); err != nil {
		_ = db.Close()
		wrappedErr := fmt.Errorf("failed to initialize database schema: %w", err)
		logger.Error().Err(wrappedErr).Msg("Database schema initialization failed")
		return nil, wrappedErr
	}
	return db, nil
}

// openStateReadOnly opens the state database for inspection next to a
// running server; it never migrates
func openStateReadOnly() (*database.DB, error) {
	if _, err := os.Stat(cfg.Service.StateFile); err != nil {
		return nil, fmt.Errorf("no state database at %s: %w", cfg.Service.StateFile, err)
	}
	return database.New(database.NewReadOnlyOptions(cfg.Service.StateFile))
}
