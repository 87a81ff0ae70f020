package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rentwise/internal/config"
	"github.com/evcraddock/rentwise/internal/db"
	"github.com/evcraddock/rentwise/internal/logging"
	"github.com/evcraddock/rentwise/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API server.

Configuration comes from RW_* environment variables, optionally loaded from
a .env file: RW_PORT, RW_DB, RW_DEV_MODE, RW_LOG_LEVEL, RW_SHUTDOWN_TIMEOUT
and RW_POLL_INTERVAL. --port and --db override them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnvFiles(); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if flagDB != "" {
				cfg.DBPath = flagDB
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if err := logging.Setup(cfg.DevMode, cfg.LogLevel); err != nil {
		return err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer closeDB(database)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("database ready", "path", cfg.DBPath)
	srv := web.NewServer(database, web.Options{PollInterval: cfg.PollInterval})
	return srv.ListenAndServe(ctx, cfg.Addr(), cfg.ShutdownTimeout)
}
