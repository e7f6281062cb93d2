package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithRequiredSecrets(t *testing.T) {
	t.Setenv("MINIO_ACCESS_KEY_ID", "minio")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "minio-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "formularios", cfg.MinIO.Bucket)
	assert.Equal(t, int64(10485760), cfg.MinIO.MaxUploadBytes)
	assert.Equal(t, 8*time.Hour, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Empty(t, cfg.Clamd.Addr)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MINIO_ACCESS_KEY_ID", "minio")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "minio-secret")
	t.Setenv("API_PORT", "9090")
	t.Setenv("POSTGRES_DB", "intake_test")
	t.Setenv("MINIO_BUCKET", "intake-files")
	t.Setenv("API_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, "intake_test", cfg.Database.Name)
	assert.Equal(t, "intake-files", cfg.MinIO.Bucket)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.API.Origins())
}

func TestLoad_MissingMinIOSecret(t *testing.T) {
	t.Setenv("MINIO_ACCESS_KEY_ID", "minio")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minio secret access key is required")
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, Name: "n", User: "u", Password: "p", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=n sslmode=disable", d.DSN())
}
