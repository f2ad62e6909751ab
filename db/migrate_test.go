package db

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_DispatchesCommands(t *testing.T) {
	origUp, origDown, origStatus := gooseUpContext, gooseDownContext, gooseStatusContext
	t.Cleanup(func() {
		gooseUpContext, gooseDownContext, gooseStatusContext = origUp, origDown, origStatus
	})

	var called []string
	record := func(name string) func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return func(_ context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
			assert.Equal(t, migrationsDir, dir)
			called = append(called, name)
			return nil
		}
	}
	gooseUpContext = record("up")
	gooseDownContext = record("down")
	gooseStatusContext = record("status")

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, nil, ""))
	require.NoError(t, Migrate(ctx, nil, "up"))
	require.NoError(t, Migrate(ctx, nil, "down"))
	require.NoError(t, Migrate(ctx, nil, "status"))
	assert.Equal(t, []string{"up", "up", "down", "status"}, called)

	assert.Error(t, Migrate(ctx, nil, "redo"))
}

func TestMigrate_WrapsError(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	boom := errors.New("boom")
	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error { return boom }

	err := Migrate(context.Background(), nil, "up")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestMigrations_Embedded(t *testing.T) {
	entries, err := fs.ReadDir(Migrations, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	data, err := fs.ReadFile(Migrations, migrationsDir+"/"+entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(data), "-- +goose Up")
	assert.Contains(t, string(data), "CREATE TABLE users")
}

func TestMigrations_Ordered(t *testing.T) {
	entries, err := fs.ReadDir(Migrations, migrationsDir)
	require.NoError(t, err)

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	assert.Equal(t, []string{
		"00001_init.sql",
		"00002_user_reset_version.sql",
		"00003_portfolio_items.sql",
	}, names)

	data, err := fs.ReadFile(Migrations, migrationsDir+"/00003_portfolio_items.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "REFERENCES professionals(id) ON DELETE CASCADE")
}
