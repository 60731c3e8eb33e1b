package database

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMigratesAndTunes(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "salmon.db"), zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	for _, table := range []string{"shifts", "matches", "match_members", "waves", "players"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "salmon.db"), zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, Migrate(db, zerolog.Nop()))
}

func TestForeignKeysEnforced(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "salmon.db"), zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO match_members (match_id, player_id) VALUES ('missing', 'p1')`)
	assert.Error(t, err)
}
