// Package db owns the PostgreSQL connection pool and the schema migrations.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var Migrations embed.FS

const migrationsDir = "migrations"

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

var gooseDownContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.DownContext(ctx, db, dir, opts...)
}

var gooseStatusContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.StatusContext(ctx, db, dir, opts...)
}

func setupGoose() error {
	goose.SetBaseFS(Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("db: goose dialect: %w", err)
	}
	return nil
}

// Migrate runs the given goose command ("up", "down" or "status") against db.
func Migrate(ctx context.Context, db *sql.DB, command string) error {
	if err := setupGoose(); err != nil {
		return err
	}

	var err error
	switch command {
	case "", "up":
		err = gooseUpContext(ctx, db, migrationsDir)
	case "down":
		err = gooseDownContext(ctx, db, migrationsDir)
	case "status":
		err = gooseStatusContext(ctx, db, migrationsDir)
	default:
		return fmt.Errorf("db: unknown migrate command %q", command)
	}
	if err != nil {
		return fmt.Errorf("db: migrate %s: %w", command, err)
	}
	return nil
}

// MigratePool applies all pending migrations through a database/sql handle
// opened over the pool's configuration.
func MigratePool(ctx context.Context, pool *pgxpool.Pool, command string) error {
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()
	return Migrate(ctx, sqlDB, command)
}
