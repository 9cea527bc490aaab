package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"timeclock/internal/attendance"
	"timeclock/internal/auth"
	"timeclock/internal/clock"
	"timeclock/internal/config"
	"timeclock/internal/db"
	"timeclock/internal/feed"
	"timeclock/internal/logging"
	"timeclock/internal/roster"
)

var configPath string

func Execute() error {
	root := &cobra.Command{
		Use:           "timeclock",
		Short:         "Employee attendance tracking service",
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional; real environments set variables directly
			_ = godotenv.Load()
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")

	root.AddCommand(serveCmd(), botCmd(), hashPasswordCmd(), createAdminCmd())
	return root.Execute()
}

// app holds the wired services shared by the serve and bot commands.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	db     *db.DB
	clock  clock.Clock
	feed   *feed.Hub
	engine *attendance.Engine
	query  *attendance.QueryService
	roster *roster.Service
	tokens *auth.Tokens
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Info().Str("host", cfg.Database.Host).Str("dbname", cfg.Database.DBName).Msg("database connected")

	clk := clock.System{}
	hub := feed.NewHub(32, logger)
	return &app{
		cfg:    cfg,
		log:    logger,
		db:     database,
		clock:  clk,
		feed:   hub,
		engine: attendance.NewEngine(database, clk, logger, attendance.WithNotifier(hub)),
		query:  attendance.NewQueryService(database, logger),
		roster: roster.NewService(database, logger),
		tokens: auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, clk),
	}, nil
}

func (a *app) Close() {
	a.db.Close()
}
