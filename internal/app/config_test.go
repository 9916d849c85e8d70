package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.com, https://admin.example.com")
	t.Setenv("CATALOG_CACHE_TTL_SECONDS", "60")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("PAYMENTS_MODE", "offline")

	cfg, err := LoadConfig(testLogger(t))
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
	require.Equal(t, time.Minute, cfg.CatalogCacheTTL)
	require.Equal(t, "db", cfg.Postgres.Host)
	require.Equal(t, "offline", cfg.Payments.Mode)
	require.Equal(t, 20, cfg.AuthRateLimit)
}

func TestLoadConfigFileOverridesOnlyPresentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "7070"
catalog_cache_ttl: 2m
postgres:
  name: shop
media_bucket:
  name: product-media
  emulator_host: http://fake-gcs:4443
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9090")
	t.Setenv("POSTGRES_HOST", "db")

	cfg, err := LoadConfig(testLogger(t))
	require.NoError(t, err)
	require.Equal(t, "7070", cfg.Port)
	require.Equal(t, 2*time.Minute, cfg.CatalogCacheTTL)
	require.Equal(t, "shop", cfg.Postgres.Name)
	require.Equal(t, "db", cfg.Postgres.Host, "env value survives when the file omits the key")
	require.Equal(t, "product-media", cfg.MediaBucket.Name)
	require.True(t, cfg.MediaBucket.Enabled())
}

func TestLoadConfigRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unterminated"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := LoadConfig(testLogger(t))
	require.Error(t, err)

	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = LoadConfig(testLogger(t))
	require.Error(t, err)
}
