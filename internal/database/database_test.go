package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

type pingRow struct {
	ID   int64 `gorm:"primaryKey"`
	Name string
}

func TestIsPostgres(t *testing.T) {
	assert.True(t, IsPostgres("postgres://u:p@localhost:5432/db"))
	assert.True(t, IsPostgres("postgresql://u:p@localhost/db"))
	assert.False(t, IsPostgres("imagevault.db"))
	assert.False(t, IsPostgres("file:test?mode=memory&cache=shared"))
}

func TestConnectAndMigrate_SQLite(t *testing.T) {
	dsn := "file:database_test?mode=memory&cache=shared"
	db, err := ConnectWithLogLevel(dsn, logger.Silent)
	require.NoError(t, err)

	require.NoError(t, Migrate(db, dsn, &pingRow{}))
	require.NoError(t, db.Create(&pingRow{Name: "a"}).Error)

	var count int64
	require.NoError(t, db.Model(&pingRow{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
