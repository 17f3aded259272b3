package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
server:
  port: 8080
  allowedOrigins: ["https://app.nexura.io"]
  publicUrl: https://app.nexura.io
database:
  uri: mongodb://localhost:27017/nexura
jwt:
  secret: from-file
relay:
  interval: 30s
  maxAttempts: 3
  badgeContract: "0x00000000000000000000000000000000000000b1"
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.nexura.io"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "mongodb://localhost:27017/nexura", cfg.Database.URI)
	assert.Equal(t, 30*time.Second, cfg.Relay.Interval)
	assert.Equal(t, 3, cfg.Relay.MaxAttempts)

	_, err = Parse([]byte("server: ["))
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)
	cfg.applyDefaults()
	assert.Equal(t, 1313, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "memory", cfg.Database.URI)
	assert.Equal(t, 24*60, cfg.JWT.ExpiryMinutes)
	assert.Equal(t, 30, cfg.JWT.RefreshExpiryDays)
	assert.Equal(t, 15*time.Second, cfg.Relay.Interval)
	assert.Equal(t, 5, cfg.Relay.MaxAttempts)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "us-east-1", cfg.AWS.Region)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("PORT", "9090")
	t.Setenv("MONGODB_URI", "memory")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.URI)
	assert.Equal(t, 30*time.Second, cfg.Relay.Interval)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
