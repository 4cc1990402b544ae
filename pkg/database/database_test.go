package database

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/openedx-sample-plugin/pkg/config"
)

func TestOpenSQLiteInMemoryAndMigrate(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: DriverSQLite})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(context.Background(), db))
	// Applying twice is a no-op.
	require.NoError(t, Migrate(context.Background(), db))

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM sample_plugin_coursearchivestatus`))
	assert.Zero(t, count)
}

func TestSQLiteUsesQuestionBinds(t *testing.T) {
	assert.Equal(t, sqlx.QUESTION, sqlx.BindType(DriverSQLite))
	assert.Equal(t, sqlx.DOLLAR, sqlx.BindType(DriverPostgres))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}
