package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportdesk/internal/domain"
	"reportdesk/internal/repo/repotest"
)

func TestRegisterAndLoginScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	u, err := f.auth.Register(ctx, RegisterInput{Login: "alice", Password: "p@ss", PasswordConfirm: "p@ss"})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Login)
	assert.NotZero(t, u.ID)

	me, err := f.auth.Me(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{domain.DefaultRoleName}, me.Roles)

	_, err = f.auth.Register(ctx, RegisterInput{Login: "alice", Password: "p@ss", PasswordConfirm: "p@ss"})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	_, err = f.auth.Login(ctx, LoginInput{Login: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrWrongPassword)

	pair, err := f.auth.Login(ctx, LoginInput{Login: "alice", Password: "p@ss"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := f.jwt.Parse(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Name)
	assert.Equal(t, []string{"User"}, claims.Roles)
}

func TestRegisterRejectsMismatchedConfirmation(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Register(context.Background(), RegisterInput{Login: "bob", Password: "a", PasswordConfirm: "b"})
	assert.ErrorIs(t, err, domain.ErrPasswordsNotEqual)

	ok, err := f.store.Users().ExistsByLogin(context.Background(), "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegisterIsAtomic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	restore := repotest.FailCreatesOn(t, f.db, "user_roles")

	_, err := f.auth.Register(ctx, RegisterInput{Login: "carol", Password: "pw", PasswordConfirm: "pw"})
	assert.ErrorIs(t, err, domain.ErrInternal)

	u, err := f.store.Users().FindByLogin(ctx, "carol")
	require.NoError(t, err)
	assert.Nil(t, u, "user row must roll back with the membership")

	restore()
	_, err = f.auth.Register(ctx, RegisterInput{Login: "carol", Password: "pw", PasswordConfirm: "pw"})
	require.NoError(t, err)
}

func TestRegisterWithoutDefaultRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.db.Where("name = ?", domain.DefaultRoleName).Delete(&domain.Role{}).Error)

	_, err := f.auth.Register(ctx, RegisterInput{Login: "dan", Password: "pw", PasswordConfirm: "pw"})
	assert.ErrorIs(t, err, domain.ErrRoleNotFound)
	ok, err := f.store.Users().ExistsByLogin(ctx, "dan")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoginUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Login(context.Background(), LoginInput{Login: "ghost", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestWrongPasswordIssuesNoToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.register(t, "erin", "pw")

	_, err := f.auth.Login(ctx, LoginInput{Login: "erin", Password: "nope"})
	require.ErrorIs(t, err, domain.ErrWrongPassword)

	tok, err := f.store.Tokens().FindByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, tok)
}

func TestLoginClaimsCarryEveryRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "frank", "pw")
	_, err := f.roles.AddRoleForUser(ctx, UserRoleInput{Login: "frank", RoleName: "Moderator"})
	require.NoError(t, err)

	pair, err := f.auth.Login(ctx, LoginInput{Login: "frank", Password: "pw"})
	require.NoError(t, err)
	claims, err := f.jwt.Parse(pair.AccessToken)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"User", "Moderator"}, claims.Roles)
	assert.Equal(t, "frank", claims.Subject)
}

func TestRefreshRotates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "alice", "p@ss")
	pair, err := f.auth.Login(ctx, LoginInput{Login: "alice", Password: "p@ss"})
	require.NoError(t, err)

	stale := f.staleAccessToken(t, "alice", "User")
	_, err = f.jwt.Parse(stale)
	require.Error(t, err, "precondition: access token must be expired")

	next, err := f.tokens.Refresh(ctx, RefreshInput{AccessToken: stale, RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	claims, err := f.jwt.Parse(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Name)
	assert.Equal(t, []string{"User"}, claims.Roles)

	_, err = f.tokens.Refresh(ctx, RefreshInput{AccessToken: stale, RefreshToken: pair.RefreshToken})
	assert.ErrorIs(t, err, domain.ErrInvalidClientRequest)

	_, err = f.tokens.Refresh(ctx, RefreshInput{AccessToken: stale, RefreshToken: next.RefreshToken})
	assert.NoError(t, err)
}

func TestRefreshFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "gina", "pw")
	pair, err := f.auth.Login(ctx, LoginInput{Login: "gina", Password: "pw"})
	require.NoError(t, err)
	stale := f.staleAccessToken(t, "gina", "User")

	t.Run("tampered access token", func(t *testing.T) {
		_, err := f.tokens.Refresh(ctx, RefreshInput{AccessToken: stale + "x", RefreshToken: pair.RefreshToken})
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})
	t.Run("unknown principal", func(t *testing.T) {
		_, err := f.tokens.Refresh(ctx, RefreshInput{AccessToken: f.staleAccessToken(t, "nobody"), RefreshToken: pair.RefreshToken})
		assert.ErrorIs(t, err, domain.ErrInvalidClientRequest)
	})
	t.Run("user without stored token", func(t *testing.T) {
		f.register(t, "hank", "pw")
		_, err := f.tokens.Refresh(ctx, RefreshInput{AccessToken: f.staleAccessToken(t, "hank"), RefreshToken: pair.RefreshToken})
		assert.ErrorIs(t, err, domain.ErrInvalidClientRequest)
	})
	t.Run("expired refresh token", func(t *testing.T) {
		require.NoError(t, f.db.Model(&domain.UserToken{}).
			Where("refresh_token = ?", pair.RefreshToken).
			Update("refresh_token_expire_time", f.tokens.now().Add(-time.Hour)).Error)
		_, err := f.tokens.Refresh(ctx, RefreshInput{AccessToken: stale, RefreshToken: pair.RefreshToken})
		assert.ErrorIs(t, err, domain.ErrInvalidClientRequest)
	})
}

func TestConcurrentRefreshHasSingleWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "ivy", "pw")
	pair, err := f.auth.Login(ctx, LoginInput{Login: "ivy", Password: "pw"})
	require.NoError(t, err)
	in := RefreshInput{AccessToken: f.staleAccessToken(t, "ivy", "User"), RefreshToken: pair.RefreshToken}

	const n = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		rejected int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.tokens.Refresh(ctx, in)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case assert.ErrorIs(t, err, domain.ErrInvalidClientRequest):
				rejected++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, rejected)
}
