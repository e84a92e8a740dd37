package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"nextvolt/backend/services/nextvolt-api/internal/db"
)

func newMigrateCmd(open func() (*sql.DB, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := open()
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, stop := signalContext()
			defer stop()
			if err := db.Migrate(ctx, conn); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d statements\n", len(db.Statements()))
			return nil
		},
	}
}
