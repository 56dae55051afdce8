package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvRequiresHashKey(t *testing.T) {
	t.Setenv("HASH_KEY", "")
	_, err := FromEnv()
	require.Error(t, err)
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("HASH_KEY", "s3cret")
	t.Setenv("BIND_ADDR", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_MAX_CONNECTIONS", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8000", cfg.BindAddr)
	assert.Equal(t, "s3cret", cfg.HashSecret)
	assert.Equal(t, 30, cfg.DB.MaxConns)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HASH_KEY", "s3cret")
	t.Setenv("BIND_ADDR", "0.0.0.0:9000")
	t.Setenv("DATABASE_URL", "postgres://app@db:5432/hnstar")
	t.Setenv("DATABASE_MAX_CONNECTIONS", "10")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.BindAddr)
	assert.Equal(t, "postgres://app@db:5432/hnstar", cfg.DB.DSN)
	assert.Equal(t, 10, cfg.DB.MaxConns)
}
