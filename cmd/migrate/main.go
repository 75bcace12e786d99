package main

import (
	"os"

	"github.com/Rrens/teamspace/internal/config"
	"github.com/Rrens/teamspace/internal/logger"
	"github.com/Rrens/teamspace/internal/repository/postgres"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var sourceURL string

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back teamspace database migrations",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env file if it exists
		_ = godotenv.Load()
		return nil
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := load()
		if err != nil {
			return err
		}
		return postgres.RunMigrations(cfg.Database.DSN(), source(cfg))
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := load()
		if err != nil {
			return err
		}
		return postgres.RollbackMigration(cfg.Database.DSN(), source(cfg))
	},
}

func load() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if _, err := logger.Setup(cfg.Logging, cfg.App.Env); err != nil {
		return nil, err
	}
	log.Info().Str("host", cfg.Database.Host).Int("port", cfg.Database.Port).Msg("Connecting to database")
	return cfg, nil
}

func source(cfg *config.Config) string {
	if sourceURL != "" {
		return sourceURL
	}
	if cfg.Database.MigrationsSource != "" {
		return cfg.Database.MigrationsSource
	}
	return "file://migrations"
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sourceURL, "source", "", "migration source URL (defaults to database.migrations_source)")
	rootCmd.AddCommand(upCmd, downCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Migration failed")
		os.Exit(1)
	}
}
