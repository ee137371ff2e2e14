package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/aktp/portal/internal/pkg/env"
	"github.com/gofiber/fiber/v2/log"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var source string

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply or inspect portal database migrations",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			env.SetupEnvFile()
		},
	}
	root.PersistentFlags().StringVar(&source, "path", "file://migrations", "migration source URL")

	open := func() (*migrate.Migrate, error) {
		log.Infof("[Migrate] Connecting to %s@%s:%s/%s",
			env.GetEnv("DB_USER", "portal"),
			env.GetEnv("DB_HOST", "db"),
			env.GetEnv("DB_PORT", "3306"),
			env.GetEnv("DB_NAME", "portal_db"),
		)
		m, err := migrate.New(source, databaseURL())
		if err != nil {
			return nil, fmt.Errorf("initialize migrations: %w", err)
		}
		return m, nil
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := open()
				if err != nil {
					return err
				}
				defer closeMigrate(m)
				return reportChange(m.Up(), "Migrations applied")
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := open()
				if err != nil {
					return err
				}
				defer closeMigrate(m)
				return reportChange(m.Steps(-1), "Rolled back the last migration")
			},
		},
		&cobra.Command{
			Use:   "goto VERSION",
			Short: "Migrate up or down to VERSION",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				m, err := open()
				if err != nil {
					return err
				}
				defer closeMigrate(m)
				return reportChange(m.Migrate(uint(version)), fmt.Sprintf("Migrated to version %d", version))
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the current migration version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := open()
				if err != nil {
					return err
				}
				defer closeMigrate(m)

				version, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					log.Info("[Migrate] No migrations have been applied yet")
					return nil
				}
				if err != nil {
					return fmt.Errorf("read version: %w", err)
				}
				suffix := ""
				if dirty {
					suffix = " (dirty)"
				}
				log.Infof("[Migrate] Current version: %d%s", version, suffix)
				return nil
			},
		},
	)
	return root
}

func databaseURL() string {
	return fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true",
		env.GetEnv("DB_USER", "portal"),
		env.GetEnv("DB_PASSWORD", "portal"),
		env.GetEnv("DB_HOST", "db"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", "portal_db"),
	)
}

func reportChange(err error, success string) error {
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("[Migrate] No change: database is up to date")
		return nil
	}
	if err != nil {
		return err
	}
	log.Infof("[Migrate] %s", success)
	return nil
}

func closeMigrate(m *migrate.Migrate) {
	if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
		log.Warnf("[Migrate] Failed to close migration resources: %v, %v", sourceErr, dbErr)
	}
}
