package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "production", c.Mode)
	assert.False(t, c.Dev())
	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, BackendExcel, c.Backend)
	assert.Equal(t, 30*time.Second, c.CacheTTL)
	assert.Empty(t, c.RedisAddr)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ROLLCALL_MODE", "Development")
	t.Setenv("ROLLCALL_BACKEND", "google")
	t.Setenv("ROLLCALL_GOOGLE_SPREADSHEET_ID", "sheet-123")
	t.Setenv("ROLLCALL_REDIS_DB", "3")
	t.Setenv("ROLLCALL_CACHE_TTL", "2m")
	t.Setenv("ROLLCALL_SEED_ON_START", "true")

	c, err := Load(New())
	require.NoError(t, err)
	assert.True(t, c.Dev())
	assert.Equal(t, BackendGoogle, c.Backend)
	assert.Equal(t, "sheet-123", c.GoogleSpreadsheetID)
	assert.Equal(t, 3, c.RedisDB)
	assert.Equal(t, 2*time.Minute, c.CacheTTL)
	assert.True(t, c.SeedOnStart)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad mode", map[string]string{"ROLLCALL_MODE": "staging"}},
		{"bad backend", map[string]string{"ROLLCALL_BACKEND": "postgres"}},
		{"google without id", map[string]string{"ROLLCALL_BACKEND": "google"}},
		{"negative ttl", map[string]string{"ROLLCALL_CACHE_TTL": "-1s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(New())
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ROLLCALL_ADDR=:9999\n"), 0o644))
	t.Setenv("ROLLCALL_ADDR", "") // registers cleanup; godotenv does not override set vars
	require.NoError(t, os.Unsetenv("ROLLCALL_ADDR"))

	require.NoError(t, LoadDotEnv(path))
	c, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, ":9999", c.Addr)
}
