package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"timeclock/internal/config"
	"timeclock/internal/db"
	"timeclock/internal/logging"
)

func main() {
	var configPath string

	cmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply the embedded database migrations",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				log.Info().Msg("No .env file found")
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging, os.Stderr)
			if err != nil {
				return err
			}

			database, err := db.New(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer database.Close()

			applied, err := database.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range applied {
				logger.Info().Str("migration", name).Msg("applied")
			}
			logger.Info().Msg("Migration completed successfully")
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
