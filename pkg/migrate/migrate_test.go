package migrate

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestMigrateUp(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/001_create_stations.up.sql":   {Data: []byte(`CREATE TABLE stations (id TEXT PRIMARY KEY);`)},
		"migrations/001_create_stations.down.sql": {Data: []byte(`DROP TABLE stations;`)},
		"migrations/002_add_area.up.sql":          {Data: []byte(`ALTER TABLE stations ADD COLUMN area REAL;`)},
		"migrations/README.md":                    {Data: []byte(`ignored`)},
	}

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	provider := NewFSProvider(fsys, "migrations", "")
	migrations, err := provider.GetMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, "create stations", migrations[0].Name)
	assert.NotEmpty(t, migrations[0].Down)

	m := NewMigrator(db, provider, nil)
	pending, err := m.GetPendingMigrations()
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, m.MigrateUp())

	version, err := m.GetCurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	_, err = db.Exec(`INSERT INTO stations (id, area) VALUES ('08MF005', 217000)`)
	assert.NoError(t, err)

	// A second run is a no-op
	require.NoError(t, m.MigrateUp())
	pending, err = m.GetPendingMigrations()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMigrateUpRollsBackFailedMigration(t *testing.T) {
	fsys := fstest.MapFS{
		"m/001_broken.up.sql": {Data: []byte(`CREATE TABLE ok (id INTEGER); CREATE TABLE;`)},
	}

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	m := NewMigrator(db, NewFSProvider(fsys, "m", "versions"), nil)
	require.Error(t, m.MigrateUp())

	version, err := m.GetCurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 0, version)
}
