package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"
)

//go:embed scripts/initdb.sql
var initSQL string

// schemaVersion is the row scripts/initdb.sql writes into docvault_meta.
const schemaVersion = 1

// EnsureBootstrapped brings the schema to schemaVersion. initdb.sql only uses
// IF NOT EXISTS statements, so a partial earlier run is simply applied again.
func EnsureBootstrapped(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	current, err := appliedVersion(ctx, db)
	if err != nil {
		return err
	}
	if current >= schemaVersion {
		slog.Debug("postgres schema up to date", "version", current)
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, initSQL); err != nil {
		return fmt.Errorf("apply initdb.sql: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}

	slog.Info("postgres schema applied", "from", current, "to", schemaVersion)
	return nil
}

// appliedVersion reports the highest recorded schema version, or 0 on a fresh
// database.
func appliedVersion(ctx context.Context, db *sql.DB) (int, error) {
	var table sql.NullString
	if err := db.QueryRowContext(ctx, `SELECT to_regclass('docvault_meta')::text`).Scan(&table); err != nil {
		return 0, fmt.Errorf("look up docvault_meta: %w", err)
	}
	if !table.Valid {
		return 0, nil
	}

	var v sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT max(version) FROM docvault_meta`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(v.Int64), nil
}
