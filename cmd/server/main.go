package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"taskboard/internal/config"
	"taskboard/internal/database"
	"taskboard/internal/logger"
	"taskboard/internal/server"
)

// @title           Task Board API
// @version         1.0
// @description     Collaborative task board with optimistic concurrency, smart assignment and live updates

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "taskboard",
		Short:         "Collaborative task board server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg = config.Load()
			if err := logger.Init(cfg.Log); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfg)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfg)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return database.MigrateUp(cfg.MigrationURL())
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return database.MigrateDown(cfg.MigrationURL())
			},
		},
	)

	root.AddCommand(serveCmd, migrateCmd)
	return root
}

func serve(cfg *config.Config) error {
	if cfg.StorageDriver != "memory" {
		if err := database.MigrateUp(cfg.MigrationURL()); err != nil {
			slog.Error("❌ Migration failed", "error", err)
			return err
		}
	}

	s, err := server.Init(cfg)
	if err != nil {
		slog.Error("❌ Server initialization failed", "error", err)
		return err
	}
	return s.Run()
}
