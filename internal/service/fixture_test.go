package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"reportdesk/internal/core/auth"
	"reportdesk/internal/core/cache"
	"reportdesk/internal/core/queue"
	"reportdesk/internal/repo"
	"reportdesk/internal/repo/repotest"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	db     *gorm.DB
	store  *repo.Store
	jwt    *auth.JWTer
	tokens *TokenService
	auth   *AuthService
	roles  *RoleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := repotest.NewDB(t)
	store := repo.NewStore(db)
	j := &auth.JWTer{
		Secret:   []byte(testSecret),
		Issuer:   "reportdesk",
		Audience: "reportdesk-clients",
		TTL:      10 * time.Minute,
	}
	l := zap.NewNop()
	tokens := NewTokenService(store, j, 7*24*time.Hour, l)
	return &fixture{
		db:     db,
		store:  store,
		jwt:    j,
		tokens: tokens,
		auth:   NewAuthService(store, tokens, l),
		roles:  NewRoleService(store, l),
	}
}

func (f *fixture) register(t *testing.T, login, password string) UserView {
	t.Helper()
	u, err := f.auth.Register(context.Background(), RegisterInput{Login: login, Password: password, PasswordConfirm: password})
	require.NoError(t, err)
	return u
}

// staleAccessToken signs a token for login/roles that expired a minute ago.
func (f *fixture) staleAccessToken(t *testing.T, login string, roles ...string) string {
	t.Helper()
	stale := *f.jwt
	stale.TTL = -time.Minute
	tok, err := stale.IssueAccessToken(login, roles)
	require.NoError(t, err)
	return tok
}

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.NewWithClient(rdb, "test"), mr
}

type recordingPublisher struct {
	events []queue.ReportCreatedEvent
	err    error
}

func (p *recordingPublisher) PublishReportCreated(_ context.Context, ev queue.ReportCreatedEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

var errBroker = errors.New("broker unreachable")
