package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/JonMunkholm/demoimport/internal/config"
	"github.com/JonMunkholm/demoimport/internal/core"
	"github.com/JonMunkholm/demoimport/internal/database"
	"github.com/JonMunkholm/demoimport/internal/logging"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// app holds what the subcommands share. The pool is opened on demand so
// commands can validate their flags without a database.
type app struct {
	envFile string
	verbose bool

	cfg  *config.Config
	pool *pgxpool.Pool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "demoimport",
		Short: "Import colon-delimited demographic files into PostgreSQL",
		Long: `demoimport loads FIRST:LAST:ADDRESS:CITY:STATE:ZIP:SSN[:DOB] files into the
demographic_records table, upserting on SSN, and queries what was loaded.

Configuration comes from the environment (DATABASE_URL, IMPORT_*, SEARCH_*),
optionally seeded from an env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "env file to load before reading configuration")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newImportCmd(a),
		newSearchCmd(a),
		newHistoryCmd(a),
		newMigrateCmd(a),
		newResetCmd(a),
	)
	return root
}

// setup loads configuration and routes logs to stderr so stdout carries
// only command output.
func (a *app) setup(cmd *cobra.Command) error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	slog.SetDefault(slog.New(logging.NewHandler(cmd.ErrOrStderr(), level, cfg.Logging.Format)))
	return nil
}

// open connects to the database once per invocation.
func (a *app) open(ctx context.Context) (*pgxpool.Pool, error) {
	if a.pool != nil {
		return a.pool, nil
	}
	pool, err := database.Connect(ctx, a.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	a.pool = pool
	slog.Debug("connected to database", "name", database.Name(a.cfg.Database.URL))
	return pool, nil
}

func (a *app) service(ctx context.Context) (*core.Service, error) {
	pool, err := a.open(ctx)
	if err != nil {
		return nil, err
	}
	return core.NewService(pool, a.cfg)
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}
