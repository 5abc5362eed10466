package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "secret")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, "bdHomeFinders", cfg.Database.Name)
	assert.True(t, cfg.Database.Transactions)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 5.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, "@every 10m", cfg.Payment.ReconcileSchedule)
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	os.Unsetenv("ACCESS_TOKEN_SECRET")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "secret")
	t.Setenv("DB_DRIVER", "cassandra")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadConfigReadsDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ACCESS_TOKEN_SECRET=from-file\nDB_DRIVER=memory\n"), 0o600))
	// godotenv does not override variables that are already set.
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	os.Unsetenv("ACCESS_TOKEN_SECRET")
	t.Setenv("DB_DRIVER", "")
	os.Unsetenv("DB_DRIVER")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Token.AccessTokenSecret)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
}

func TestDatabaseURIs(t *testing.T) {
	db := DatabaseConfig{Scheme: "mongodb", Host: "db", User: "u", Password: "p@ss", Name: "homes"}
	assert.Equal(t, "mongodb://u:p%40ss@db:27017/?retryWrites=true&w=majority", db.MongoURI())

	srv := DatabaseConfig{Scheme: "mongodb+srv", Host: "cluster0.example.net"}
	assert.Equal(t, "mongodb+srv://cluster0.example.net/?retryWrites=true&w=majority", srv.MongoURI())

	override := DatabaseConfig{URI: "mongodb://elsewhere"}
	assert.Equal(t, "mongodb://elsewhere", override.MongoURI())

	pg := DatabaseConfig{Host: "db", User: "u", Password: "p", Name: "homes"}
	assert.Equal(t, "host=db user=u password=p dbname=homes port=5432 sslmode=disable TimeZone=UTC", pg.PostgresDSN())
}
