package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("SF_STR", "x")
	t.Setenv("SF_INT", "42")
	t.Setenv("SF_BAD_INT", "forty")
	t.Setenv("SF_BOOL", "true")
	t.Setenv("SF_DUR", "90s")

	assert.Equal(t, "x", EnvDefault("SF_STR", "d"))
	assert.Equal(t, "d", EnvDefault("SF_MISSING", "d"))
	assert.Equal(t, 42, EnvIntDefault("SF_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("SF_BAD_INT", 1))
	assert.True(t, EnvBoolDefault("SF_BOOL", false))
	assert.Equal(t, 90*time.Second, EnvDurationDefault("SF_DUR", time.Second))
	assert.Equal(t, time.Second, EnvDurationDefault("SF_MISSING", time.Second))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := Load()
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "products", cfg.ESIndex)
	assert.Equal(t, 24*time.Hour, cfg.PaymentTTL)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SF_DOTENV_VALUE=from-file\n"), 0o600))
	t.Setenv("SF_DOTENV_VALUE", "")
	require.NoError(t, os.Unsetenv("SF_DOTENV_VALUE"))

	LoadDotEnv(filepath.Join(dir, "missing.env"), path)
	assert.Equal(t, "from-file", os.Getenv("SF_DOTENV_VALUE"))
}
