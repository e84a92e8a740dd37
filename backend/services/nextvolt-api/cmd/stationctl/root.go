package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nextvolt/backend/services/nextvolt-api/internal/config"
	"nextvolt/backend/services/nextvolt-api/internal/db"
)

func newRootCmd() *cobra.Command {
	var dsn string

	root := &cobra.Command{
		Use:           "stationctl",
		Short:         "Operator tooling for the nextvolt station catalogue",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dsn, "dsn", "", "postgres DSN (defaults to database.dsn from config)")

	open := func() (*sql.DB, error) {
		target := dsn
		if target == "" {
			cfg, err := config.Load()
			if err != nil {
				return nil, fmt.Errorf("load config: %w", err)
			}
			target = cfg.Database.DSN
		}
		if target == "" {
			return nil, errors.New("no postgres dsn: pass --dsn or set NEXTVOLT_POSTGRES_DSN")
		}
		return db.NewPostgres(target)
	}

	root.AddCommand(newMigrateCmd(open), newSeedCmd(open), newRangeCmd())
	return root
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
