package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "STORAGE_DRIVER", "CATALOG_TIMEOUT", "OTEL_EXPORTER_OTLP_ENDPOINT"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "memory", cfg.StorageDriver)
	require.Equal(t, 5*time.Second, cfg.CatalogTimeout)
	require.Empty(t, cfg.OTLPEndpoint)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "Redis")
	t.Setenv("CATALOG_TIMEOUT", "250ms")
	t.Setenv("SESSION_TTL", "3600")

	cfg := Load()

	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "redis", cfg.StorageDriver)
	require.Equal(t, 250*time.Millisecond, cfg.CatalogTimeout)
	require.Equal(t, time.Hour, cfg.SessionTTL)
}

func TestLoad_BadDurationFallsBack(t *testing.T) {
	t.Setenv("CATALOG_TIMEOUT", "soon")

	require.Equal(t, 5*time.Second, Load().CatalogTimeout)
}

func TestLoad_AllowedOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://shop.example.com, ,http://localhost:3000 ")

	require.Equal(t, []string{"https://shop.example.com", "http://localhost:3000"}, Load().AllowedOrigins)

	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	require.Empty(t, Load().AllowedOrigins)
}
