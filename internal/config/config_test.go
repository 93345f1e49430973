package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/taskflow")
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "taskflow.notifications", cfg.NotificationQueue)
	assert.Equal(t, "0 3 * * 1", cfg.ArchiveCron)
	assert.Len(t, cfg.JWTSecret, 64, "development falls back to a random secret")
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.EqualError(t, err, "DATABASE_URL is required")
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/taskflow")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/taskflow")
	t.Setenv("TOKEN_TTL", "forever")

	_, err := Load()
	assert.ErrorContains(t, err, "TOKEN_TTL")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/taskflow")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("APP_BASE_URL", "https://taskflow.example.com/")
	t.Setenv("MINIO_ENDPOINT", "minio:9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "https://taskflow.example.com", cfg.AppBaseURL)
	assert.True(t, cfg.MinioEnabled())
}
