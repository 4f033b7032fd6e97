package service

import (
	"context"
	"crypto/subtle"
	"time"

	"go.uber.org/zap"

	"reportdesk/internal/core/auth"
	"reportdesk/internal/domain"
	"reportdesk/internal/repo"
)

type RefreshInput struct {
	AccessToken  string `json:"accessToken" binding:"required"`
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type TokenService struct {
	store      *repo.Store
	jwt        *auth.JWTer
	refreshTTL time.Duration
	log        *zap.Logger
	now        func() time.Time
}

func NewTokenService(store *repo.Store, j *auth.JWTer, refreshTTL time.Duration, l *zap.Logger) *TokenService {
	return &TokenService{store: store, jwt: j, refreshTTL: refreshTTL, log: l.Named("token"), now: time.Now}
}

func (s *TokenService) issuePair(name string, roles []string) (TokenPair, error) {
	access, err := s.jwt.IssueAccessToken(name, roles)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := auth.IssueRefreshToken()
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *TokenService) refreshExpiry() time.Time { return s.now().Add(s.refreshTTL) }

// Refresh exchanges an expired access token plus the stored refresh token
// for a new pair. The stored token is swapped with a compare-and-update, so
// of several concurrent calls presenting the same token only one succeeds.
func (s *TokenService) Refresh(ctx context.Context, in RefreshInput) (TokenPair, error) {
	claims, err := s.jwt.ValidateExpiredToken(in.AccessToken)
	if err != nil {
		return TokenPair{}, domain.Wrap(domain.ErrInvalidToken, err)
	}

	u, err := s.store.Users().FindByLoginWithToken(ctx, claims.Name)
	if err != nil {
		return TokenPair{}, fail(s.log, "refresh: load user", err)
	}
	if u == nil || u.Token == nil {
		return TokenPair{}, domain.ErrInvalidClientRequest
	}
	if subtle.ConstantTimeCompare([]byte(u.Token.RefreshToken), []byte(in.RefreshToken)) != 1 {
		return TokenPair{}, domain.ErrInvalidClientRequest
	}
	if u.Token.Expired(s.now()) {
		return TokenPair{}, domain.ErrInvalidClientRequest
	}

	pair, err := s.issuePair(claims.Name, claims.Roles)
	if err != nil {
		return TokenPair{}, fail(s.log, "refresh: issue", err)
	}
	ok, err := s.store.Tokens().Rotate(ctx, u.ID, in.RefreshToken, pair.RefreshToken, s.refreshExpiry())
	if err != nil {
		return TokenPair{}, fail(s.log, "refresh: rotate", err)
	}
	if !ok {
		return TokenPair{}, domain.ErrInvalidClientRequest
	}
	return pair, nil
}
