package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestReadAppliesDefaults(t *testing.T) {
	p := writeConfig(t, `
jwt:
  secret: "0123456789abcdef0123456789abcdef"
db:
  driver: sqlite
  dsn: "file.db"
`)
	c, err := Read(p)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, c.JWT.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, c.JWT.RefreshTTL())
	assert.Equal(t, 600*time.Second, c.Cache.TTL())
	assert.False(t, c.Cache.InvalidateOnWrite)
	assert.Equal(t, "report.created", c.RabbitMQ.RoutingKey)
	assert.Equal(t, "sqlite", c.DB.Driver)
	assert.Equal(t, 8080, c.App.HTTP.Port)
}

func TestReadEnvOverride(t *testing.T) {
	p := writeConfig(t, `
jwt:
  secret: "0123456789abcdef0123456789abcdef"
`)
	t.Setenv("APP_CACHE_INVALIDATEONWRITE", "true")
	t.Setenv("APP_RABBITMQ_EXCHANGE", "audit")
	t.Setenv("APP_JWT_SECRET", "ffffffffffffffffffffffffffffffffffff")

	c, err := Read(p)
	require.NoError(t, err)
	assert.True(t, c.Cache.InvalidateOnWrite)
	assert.Equal(t, "audit", c.RabbitMQ.Exchange)
	assert.Equal(t, "ffffffffffffffffffffffffffffffffffff", c.JWT.Secret)
}

func TestReadRejectsShortSecret(t *testing.T) {
	p := writeConfig(t, `
jwt:
  secret: "short"
`)
	_, err := Read(p)
	assert.Error(t, err)
}
