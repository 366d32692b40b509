package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"campus/cmd/internal/app"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the campus CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campus",
		Short: "Campus backend: accounts, sessions and the faculty catalog",
		Long: `campus serves the account, session and faculty/program catalog API
and ships the operational commands that go with it.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewUserCmd())

	return cmd
}

// loadConfig layers the config file, environment and the command's own flags.
func loadConfig(flags *pflag.FlagSet) (app.Config, error) {
	cfg, err := app.LoadConfig(app.LoadOptions{File: configFile, Flags: flags})
	if err != nil {
		return app.Config{}, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return cfg, nil
}

// requireDatabase fails unless db.url is set.
func requireDatabase(cfg app.Config) error {
	if cfg.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database url is required (DATABASE_URL, db.url or --database-url)")
	}
	return nil
}
