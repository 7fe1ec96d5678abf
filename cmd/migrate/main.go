package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/duebook/internal/infrastructure/config"
	"github.com/iho/duebook/internal/infrastructure/logger"
	"github.com/iho/duebook/internal/infrastructure/postgres"
	"github.com/iho/duebook/internal/infrastructure/sqlite"
)

func main() {
	if err := newRootCmd(os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// migrator applies or rolls back the schema of one store.
type migrator struct {
	up   func() error
	down func() error
}

func newMigrator(cfg *config.Config, l zerolog.Logger) (*migrator, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return &migrator{
			up:   func() error { return postgres.RunMigrations(cfg.DatabaseURL, l) },
			down: func() error { return postgres.RunMigrationsDown(cfg.DatabaseURL, l) },
		}, nil
	case config.DriverSQLite:
		return &migrator{
			up:   func() error { return sqlite.RunMigrations(cfg.SQLitePath) },
			down: func() error { return sqlite.RunMigrationsDown(cfg.SQLitePath) },
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "duebook-migrate",
		Short:         "Apply or roll back the duebook schema",
		Long:          `Migrates the store selected by STORE_DRIVER using the same environment as the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Read configuration from this .env file")

	load := func() (*migrator, zerolog.Logger, error) {
		var (
			cfg *config.Config
			err error
		)
		if envFile != "" {
			cfg, err = config.LoadFile(envFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return nil, zerolog.Nop(), err
		}

		l := logger.New(logger.Config{
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Service: "duebook-migrate",
			Output:  logOut,
		}).With().Str("store", cfg.StoreDriver).Logger()

		m, err := newMigrator(cfg, l)
		return m, l, err
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, l, err := load()
				if err != nil {
					return err
				}
				if err := m.up(); err != nil {
					return err
				}
				l.Info().Msg("schema is up to date")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, l, err := load()
				if err != nil {
					return err
				}
				if err := m.down(); err != nil {
					return err
				}
				l.Info().Msg("rolled back one migration")
				return nil
			},
		},
	)

	return rootCmd
}
