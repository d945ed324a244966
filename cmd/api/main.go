package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/lira-intern-api/internal/config"
	"github.com/noah-isme/lira-intern-api/internal/database"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "lira-api",
		Short:         "LIRA internship portal API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCommand(), newMigrateCommand())
	return root
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the portal tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger := newLogger(cfg)

			db, err := database.ConnectPostgres(cmd.Context(), cfg.DatabaseURL, poolOptions(cfg), logger)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			logger.Info().Msg("database migrated")
			return nil
		},
	}
}

func poolOptions(cfg config.Config) database.PoolOptions {
	return database.PoolOptions{
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnLifetime,
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.AppEnv == "development" {
		level = zerolog.DebugLevel
	}
	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()
}
