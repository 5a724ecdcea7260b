package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrate(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "nested", "tetris.db")

	db, err := OpenAndMigrate(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"users", "highscores", "tournaments"} {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
	}

	var applied int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(1) FROM _migrations`).Scan(&applied))
	assert.Equal(t, 1, applied)

	// second run is a no-op
	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(1) FROM _migrations`).Scan(&applied))
	assert.Equal(t, 1, applied)
}

func TestForeignKeysEnforced(t *testing.T) {
	ctx := context.Background()
	db, err := OpenAndMigrate(ctx, filepath.Join(t.TempDir(), "fk.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx,
		`INSERT INTO highscores (player_id, score, created_at) VALUES ('nobody', 10, '2024-01-01T00:00:00Z')`)
	assert.Error(t, err)
}
