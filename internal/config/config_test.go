package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/user-management-api/internal/config"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "users")
	t.Setenv("TOKEN_SECRET", "test-secret")
}

// unsetEnv removes key for the duration of the test and restores it afterwards.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestNewConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.NewConfig()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.App.Port)
	require.False(t, cfg.App.Debug)
	require.Equal(t, "info", cfg.App.LogLevel)
	require.Equal(t, "disable", cfg.Postgres.SSLMode)
	require.Equal(t, int32(10), cfg.Postgres.MaxConns)
	require.Equal(t, int32(2), cfg.Postgres.MinConns)
	require.Equal(t, 30*time.Minute, cfg.Postgres.MaxConnLifetime)
	require.True(t, cfg.Postgres.Migrate)
	require.Equal(t, config.TokenStorePostgres, cfg.Auth.TokenStore)
	require.Equal(t, 8760*time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, 10, cfg.Auth.BcryptCost)
	require.Equal(t,
		"host=localhost port=5432 user=postgres password=secret dbname=users sslmode=disable",
		cfg.Postgres.DSN())
}

func TestNewConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_DEBUG", "true")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("TOKEN_STORE", "redis")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("SEED_DEMO_USERS", "true")

	cfg, err := config.NewConfig()
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.App.Port)
	require.True(t, cfg.App.Debug)
	require.True(t, cfg.App.SeedDemo)
	require.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, config.TokenStoreRedis, cfg.Auth.TokenStore)
	require.Equal(t, "cache:6379", cfg.Redis.Addr())
}

func TestNewConfig_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	unsetEnv(t, "TOKEN_SECRET")

	cfg, err := config.NewConfig()
	require.Error(t, err)
	require.Nil(t, cfg)
}

func TestNewConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown token store", key: "TOKEN_STORE", val: "memcached"},
		{name: "redis without host", key: "TOKEN_STORE", val: "redis"},
		{name: "bcrypt cost too low", key: "BCRYPT_COST", val: "2"},
		{name: "negative ttl", key: "TOKEN_TTL", val: "-1h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			unsetEnv(t, "REDIS_HOST")
			t.Setenv(tt.key, tt.val)

			_, err := config.NewConfig()
			require.Error(t, err)
		})
	}
}

func TestNewConfig_LoadsEnvFile(t *testing.T) {
	setRequiredEnv(t)
	unsetEnv(t, "TOKEN_SECRET")

	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("TOKEN_SECRET=from-file\n"), 0o600))
	t.Setenv("CONFIG_ENV_FILE", envFile)

	cfg, err := config.NewConfig()
	require.NoError(t, err)
	require.Equal(t, "from-file", cfg.Auth.TokenSecret)
}
