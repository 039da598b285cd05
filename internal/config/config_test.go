package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("APP_ENV", "development")
	t.Setenv("APP_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.True(t, cfg.Postgres.UsesMemoryStore())
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Equal(t, 20<<20, cfg.Ingest.MaxUploadBytes)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("POSTGRES_DSN", "postgres://roster@localhost/roster")
	t.Setenv("POSTGRES_MAX_CONNS", "25")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "15")
	t.Setenv("INGEST_MAX_ROWS", "500")
	t.Setenv("ADMIN_USERNAME", "registry")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.False(t, cfg.Postgres.UsesMemoryStore())
	assert.EqualValues(t, 25, cfg.Postgres.MaxConns)
	assert.Equal(t, 15, cfg.Auth.AccessTokenTTLMinutes)
	assert.Equal(t, 500, cfg.Ingest.MaxRows)
	assert.Equal(t, "registry", cfg.Admin.Username)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("INGEST_MAX_ROWS", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 100000, cfg.Ingest.MaxRows)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "one")

	_, err := Load()
	assert.ErrorContains(t, err, "invalid REDIS_DB")
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestRequestTimeout_Disabled(t *testing.T) {
	assert.Equal(t, time.Duration(0), AppConfig{RequestTimeoutSeconds: 0}.RequestTimeout())
}
