package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PURPLEAIR_API_KEY", "test-key")
	t.Setenv("PURPLEAIR_SENSOR_IDS", "100,200")
	t.Setenv("PURPLEAIR_PRIVATE_KEYS", "")
	t.Setenv("PURPLEAIR_BASE_URL", "")
	t.Setenv("LISTEN_PORT", "")
	t.Setenv("REFRESH_SECONDS", "")
	t.Setenv("REQUEST_TIMEOUT", "")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.ReadAPIKey)
	assert.Equal(t, []string{"100", "200"}, cfg.SensorIDs)
	assert.Equal(t, []string{"", ""}, cfg.PrivateKeys)
	assert.Equal(t, "https://api.purpleair.com/v1", cfg.BaseURL)
	assert.Equal(t, 9760, cfg.ListenPort)
	assert.Equal(t, 60*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, ":9760", cfg.ListenAddr())
}

func TestLoadPrivateKeySentinel(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PURPLEAIR_PRIVATE_KEYS", "none,secret-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"", "secret-key"}, cfg.PrivateKeys)
}

func TestLoadPrivateKeyCardinalityMismatch(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PURPLEAIR_PRIVATE_KEYS", "none")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PURPLEAIR_PRIVATE_KEYS")
}

func TestLoadMissingAPIKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PURPLEAIR_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadMissingSensorIDs(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PURPLEAIR_SENSOR_IDS", " ")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PURPLEAIR_BASE_URL", "http://localhost:8080/v1/")
	t.Setenv("LISTEN_PORT", "9999")
	t.Setenv("REFRESH_SECONDS", "15")
	t.Setenv("REQUEST_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/v1", cfg.BaseURL)
	assert.Equal(t, 9999, cfg.ListenPort)
	assert.Equal(t, 15*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "LISTEN_PORT", "abc"},
		{"port out of range", "LISTEN_PORT", "70000"},
		{"bad refresh", "REFRESH_SECONDS", "soon"},
		{"zero refresh", "REFRESH_SECONDS", "0"},
		{"bad timeout", "REQUEST_TIMEOUT", "fast"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			require.Error(t, err)
		})
	}
}
