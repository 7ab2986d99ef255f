package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/model"
)

func TestInitDBSqliteMigrate(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"}}
	db, err := InitDB(cfg)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, m := range model.All() {
		assert.True(t, db.Migrator().HasTable(m))
	}
}

func TestInitDBUnknownDriver(t *testing.T) {
	_, err := InitDB(&config.Config{Database: config.DatabaseConfig{Driver: "mysql"}})
	assert.Error(t, err)
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, logLevel("SILENT"))
	assert.Equal(t, gormlogger.Info, logLevel("info"))
	assert.Equal(t, gormlogger.Warn, logLevel(""))
}
