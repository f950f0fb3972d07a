package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("NOTION_TOKEN", "secret_test")
	t.Setenv("NOTION_DATABASE_ID", "db-123")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, "https://api.notion.com", cfg.NotionAPIURL)
	assert.Equal(t, 100, cfg.IncrementalPageSize)
	assert.Equal(t, 24*time.Hour, cfg.IncrementalWindow)
	assert.Equal(t, 3.0, cfg.NotionRateLimit)
	assert.False(t, cfg.SkipAuth)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_BACKEND", "mongodb")
	t.Setenv("INCREMENTAL_WINDOW", "6h")
	t.Setenv("INCREMENTAL_PAGE_SIZE", "25")
	t.Setenv("SKIP_AUTH", "true")
	t.Setenv("SYNC_FULL_SCHEDULE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, BackendMongoDB, cfg.StoreBackend)
	assert.Equal(t, 6*time.Hour, cfg.IncrementalWindow)
	assert.Equal(t, 25, cfg.IncrementalPageSize)
	assert.True(t, cfg.SkipAuth)
	assert.Empty(t, cfg.FullSchedule)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown backend", env: map[string]string{"STORE_BACKEND": "mysql"}},
		{name: "bad window", env: map[string]string{"INCREMENTAL_WINDOW": "yesterday"}},
		{name: "zero page size", env: map[string]string{"INCREMENTAL_PAGE_SIZE": "0"}},
		{name: "missing token", env: map[string]string{"NOTION_TOKEN": ""}},
		{name: "negative rate", env: map[string]string{"NOTION_RATE_LIMIT": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadSkipsValidation(t *testing.T) {
	t.Setenv("NOTION_TOKEN", "")
	t.Setenv("JWT_SECRET", "cli-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "cli-secret", cfg.JWTSecret)
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsDefaultSecretInProduction(t *testing.T) {
	setRequired(t)
	t.Setenv("ENVIRONMENT", "production")

	t.Setenv("JWT_SECRET", "")
	_, err := LoadConfig()
	assert.Error(t, err, "unset secret falls back to the default")

	t.Setenv("JWT_SECRET", DefaultJWTSecret)
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a-long-random-production-secret")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())

	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("JWT_SECRET", DefaultJWTSecret)
	_, err = LoadConfig()
	assert.NoError(t, err, "the default is fine for local development")
}
