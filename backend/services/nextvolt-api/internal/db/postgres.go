package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	libdb "nextvolt/backend/libs/db"
)

//go:embed schema.sql
var schema string

// NewPostgres connects to Postgres using shared library helper.
func NewPostgres(dsn string) (*sql.DB, error) {
	return libdb.NewPostgresDB(dsn)
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	return libdb.WithTx(ctx, db, func(tx *sql.Tx) error {
		for i, stmt := range Statements() {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migrate: statement %d: %w", i+1, err)
			}
		}
		return nil
	})
}

// Statements splits the embedded schema into individual statements.
func Statements() []string {
	var out []string
	for _, part := range strings.Split(schema, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
