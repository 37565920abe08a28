package db

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations_SortsAndSkips(t *testing.T) {
	files := fstest.MapFS{
		"010_late.sql":  {Data: []byte("SELECT 10;")},
		"002_next.sql":  {Data: []byte("SELECT 2;")},
		"001_first.sql": {Data: []byte("SELECT 1;")},
		"README.md":     {Data: []byte("docs")},
		"notes.sql":     {Data: []byte("no version")},
		"abc_bad.sql":   {Data: []byte("bad prefix")},
	}

	migrations, err := LoadMigrations(files)
	require.NoError(t, err)

	require.Len(t, migrations, 3)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "001_first.sql", migrations[0].Name)
	assert.Equal(t, "SELECT 1;", migrations[0].SQL)
	assert.Equal(t, 2, migrations[1].Version)
	assert.Equal(t, 10, migrations[2].Version)
}

func TestEmbeddedSchema(t *testing.T) {
	m := NewMigrator(nil, zerolog.Nop())

	migrations, err := LoadMigrations(m.files)
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	schema := migrations[0].SQL
	for _, table := range []string{"doctors", "patients", "appointments", "event_logs"} {
		assert.True(t, strings.Contains(schema, "CREATE TABLE IF NOT EXISTS "+table), table)
	}
	assert.Contains(t, schema, "WHERE status IN ('CREATED', 'CONFIRMED')")
}
