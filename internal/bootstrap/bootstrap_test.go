package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reportdesk/internal/core/config"
	"reportdesk/internal/core/database"
	"reportdesk/internal/domain"
	"reportdesk/internal/service"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		JWT: config.JWT{
			Secret:              "0123456789abcdef0123456789abcdef",
			Issuer:              "reportdesk",
			Audience:            "reportdesk-clients",
			AccessTokenTTLMin:   10,
			RefreshTokenTTLDays: 7,
			LeewaySec:           30,
		},
		DB: config.DB{
			Driver:       "sqlite",
			DSN:          filepath.Join(t.TempDir(), "boot.db") + "?_pragma=busy_timeout(5000)",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
			AutoMigrate:  true,
			LogLevel:     "silent",
		},
		Cache:    config.Cache{Enabled: false, TTLSec: 600},
		RabbitMQ: config.RabbitMQ{Exchange: "reports", RoutingKey: "report.created", Queue: "reports.created", Prefetch: 10},
	}
}

func TestJWTFromConfig(t *testing.T) {
	j := JWT(testConfig(t).JWT)
	assert.Equal(t, 10*time.Minute, j.TTL)
	assert.Equal(t, 30*time.Second, j.Leeway)
	assert.Equal(t, "reportdesk-clients", j.Audience)
}

func TestCacheDisabledIsNil(t *testing.T) {
	assert.Nil(t, Cache(*testConfig(t)))
}

func TestQueueOptions(t *testing.T) {
	o := QueueOptions(testConfig(t).RabbitMQ)
	assert.Equal(t, "reports.created", o.Queue)
	assert.Equal(t, 10, o.Prefetch)
}

func TestOpenDBMigratesAndWiresServices(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	db, err := OpenDB(ctx, cfg.DB, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	svc := NewServices(cfg, db, nil, nil, zap.NewNop())
	assert.Contains(t, svc.Checks, "db")
	assert.NotContains(t, svc.Checks, "cache")
	require.NoError(t, svc.Checks["db"](ctx))

	_, err = svc.Auth.Register(ctx, service.RegisterInput{Login: "boot", Password: "pw", PasswordConfirm: "pw"})
	require.NoError(t, err)
	require.NoError(t, svc.Roles.EnsureAdmin(ctx, "boot"))
	require.NoError(t, svc.Roles.EnsureAdmin(ctx, "boot"))

	me, err := svc.Auth.Me(ctx, "boot")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{domain.DefaultRoleName, domain.AdminRoleName}, me.Roles)

	assert.ErrorIs(t, svc.Roles.EnsureAdmin(ctx, "ghost"), domain.ErrUserNotFound)
}
