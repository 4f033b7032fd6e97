package service

import (
	"context"

	"go.uber.org/zap"

	"reportdesk/internal/domain"
	"reportdesk/internal/repo"
	"reportdesk/pkg/utils"
)

type RegisterInput struct {
	Login           string `json:"login" binding:"required,max=191"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required"`
}

type LoginInput struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserView struct {
	ID    uint64   `json:"id"`
	Login string   `json:"login"`
	Roles []string `json:"roles,omitempty"`
}

type AuthService struct {
	store  *repo.Store
	tokens *TokenService
	log    *zap.Logger
}

func NewAuthService(store *repo.Store, tokens *TokenService, l *zap.Logger) *AuthService {
	return &AuthService{store: store, tokens: tokens, log: l.Named("auth")}
}

// Register creates the user and its default role membership in one
// transaction.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (UserView, error) {
	if in.Password != in.PasswordConfirm {
		return UserView{}, domain.ErrPasswordsNotEqual
	}
	exists, err := s.store.Users().ExistsByLogin(ctx, in.Login)
	if err != nil {
		return UserView{}, fail(s.log, "register: lookup", err)
	}
	if exists {
		return UserView{}, domain.ErrUserAlreadyExists
	}

	u := &domain.User{Login: in.Login}
	err = s.store.Tx(ctx, func(tx *repo.Store) error {
		hash, err := utils.HashPassword(in.Password)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
		if err := tx.Users().Create(ctx, u); err != nil {
			return err
		}
		role, err := tx.Roles().FindByName(ctx, domain.DefaultRoleName)
		if err != nil {
			return err
		}
		if role == nil {
			return domain.ErrRoleNotFound
		}
		return tx.Roles().AddToUser(ctx, u.ID, role.ID)
	})
	if repo.IsDuplicateKey(err) {
		return UserView{}, domain.ErrUserAlreadyExists
	}
	if err != nil {
		return UserView{}, fail(s.log, "register", err)
	}
	s.log.Info("user registered", zap.Uint64("id", u.ID), zap.String("login", u.Login))
	return UserView{ID: u.ID, Login: u.Login, Roles: []string{domain.DefaultRoleName}}, nil
}

// Login verifies the password and issues a token pair carrying the user's
// roles. The refresh token is stored, replacing any previous one.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (TokenPair, error) {
	u, err := s.store.Users().FindByLoginWithRoles(ctx, in.Login)
	if err != nil {
		return TokenPair{}, fail(s.log, "login: load user", err)
	}
	if u == nil {
		return TokenPair{}, domain.ErrUserNotFound
	}
	ok, err := utils.VerifyPassword(in.Password, u.PasswordHash)
	if err != nil {
		return TokenPair{}, fail(s.log, "login: verify", err)
	}
	if !ok {
		return TokenPair{}, domain.ErrWrongPassword
	}

	pair, err := s.tokens.issuePair(u.Login, u.RoleNames())
	if err != nil {
		return TokenPair{}, fail(s.log, "login: issue", err)
	}
	if err := s.store.Tokens().Upsert(ctx, u.ID, pair.RefreshToken, s.tokens.refreshExpiry()); err != nil {
		return TokenPair{}, fail(s.log, "login: store refresh token", err)
	}
	return pair, nil
}

// Me returns the user behind an authenticated login.
func (s *AuthService) Me(ctx context.Context, login string) (UserView, error) {
	u, err := s.store.Users().FindByLoginWithRoles(ctx, login)
	if err != nil {
		return UserView{}, fail(s.log, "me", err)
	}
	if u == nil {
		return UserView{}, domain.ErrUserNotFound
	}
	return UserView{ID: u.ID, Login: u.Login, Roles: u.RoleNames()}, nil
}
