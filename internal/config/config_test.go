package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg := Load()

	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, "development", cfg.Server.Env)
	require.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	require.Equal(t, "public", cfg.Database.Schema)
	require.False(t, cfg.Redis.Enabled)
	require.Equal(t, 5*time.Minute, cfg.StatusCache.TTL)
	require.Equal(t, 10*time.Second, cfg.Discount.Timeout)
	require.True(t, cfg.IsDevelopment())
	require.Empty(t, cfg.CORS.AllowedOrigins)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_ENV", "production")
	t.Setenv("DISCOUNT_BASE_URL", "http://discounts.internal/api")
	t.Setenv("STATUS_CACHE_TTL", "90s")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg := Load()

	require.Equal(t, "9090", cfg.Server.Port)
	require.False(t, cfg.IsDevelopment())
	require.Equal(t, "http://discounts.internal/api", cfg.Discount.BaseURL)
	require.Equal(t, 90*time.Second, cfg.StatusCache.TTL)
	require.True(t, cfg.Redis.Enabled)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "app",
		Password: "p@ss",
		Database: "products",
		Schema:   "public",
		SSLMode:  "disable",
	}

	dsn := db.DSN()

	require.True(t, strings.HasPrefix(dsn, "postgres://app:p%40ss@db:5432/products?"), dsn)
	require.Contains(t, dsn, "sslmode=disable")
	require.Contains(t, dsn, "search_path=public")
}
