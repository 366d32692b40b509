package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"campus/cmd/internal/app"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server. Without a database url every store is
kept in memory and is lost on exit.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default 0.0.0.0:8000)")
	cmd.Flags().String("log-level", "", "log level: debug, info, warn, error")
	cmd.Flags().String("log-format", "", "log format: json or text")
	cmd.Flags().String("database-url", "", "PostgreSQL connection url")
	cmd.Flags().Bool("auto-migrate", false, "apply pending migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	log := app.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("server.init.fail", "err", err)
		return oops.Code("STARTUP_FAILED").Wrap(err)
	}

	if err := a.Run(ctx); err != nil {
		return oops.Code("SERVER_FAILED").Wrap(err)
	}
	return nil
}

// commandContext returns the command's context, or Background when run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
