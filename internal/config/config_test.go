package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://api.local:3000/")
	t.Setenv("DB_DSN", "postgres://portal@localhost/portal")
	t.Setenv("SESSION_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://api.local:3000", cfg.BackendURL)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.SessionSecure)
	assert.Empty(t, cfg.SessionEncryptionKey)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("SESSION_SECURE", "true")
	t.Setenv("SESSION_ENCRYPTION_KEY", "0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.SessionSecure)
	assert.Equal(t, "0123456789abcdef", cfg.SessionEncryptionKey)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_MissingRequired(t *testing.T) {
	for _, key := range []string{"BACKEND_URL", "DB_DSN", "SESSION_SECRET"} {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, "")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_BadEncryptionKeyLength(t *testing.T) {
	setRequired(t)
	t.Setenv("SESSION_ENCRYPTION_KEY", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_ENCRYPTION_KEY")
}

func TestSessionKeys(t *testing.T) {
	cfg := &Config{SessionSecret: "secret"}
	auth, enc := cfg.SessionKeys()
	assert.Equal(t, []byte("secret"), auth)
	assert.Len(t, enc, 32)
	assert.NotEqual(t, auth, enc)

	_, again := cfg.SessionKeys()
	assert.Equal(t, enc, again, "derived key is stable across restarts")

	_, other := (&Config{SessionSecret: "other"}).SessionKeys()
	assert.NotEqual(t, enc, other)

	cfg.SessionEncryptionKey = "0123456789abcdef"
	_, enc = cfg.SessionKeys()
	assert.Equal(t, []byte("0123456789abcdef"), enc)
}
