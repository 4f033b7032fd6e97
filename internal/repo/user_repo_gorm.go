package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"reportdesk/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Omit("Roles", "Token", "Reports").Create(u).Error
}

// FindByLogin returns nil, nil when no user has that login.
func (r *UserRepo) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	return r.first(r.db.WithContext(ctx), "login = ?", login)
}

func (r *UserRepo) FindByLoginWithRoles(ctx context.Context, login string) (*domain.User, error) {
	return r.first(r.db.WithContext(ctx).Preload("Roles", func(db *gorm.DB) *gorm.DB {
		return db.Order("roles.id")
	}), "login = ?", login)
}

func (r *UserRepo) FindByLoginWithToken(ctx context.Context, login string) (*domain.User, error) {
	return r.first(r.db.WithContext(ctx).Preload("Token").Preload("Roles"), "login = ?", login)
}

func (r *UserRepo) FindByID(ctx context.Context, id uint64) (*domain.User, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

func (r *UserRepo) ExistsByLogin(ctx context.Context, login string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("login = ?", login).Count(&n).Error
	return n > 0, err
}

func (r *UserRepo) first(q *gorm.DB, cond string, args ...any) (*domain.User, error) {
	var u domain.User
	err := q.Where(cond, args...).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
