package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reportdesk/internal/domain"
)

type TokenRepo struct{ db *gorm.DB }

func NewTokenRepo(db *gorm.DB) *TokenRepo { return &TokenRepo{db: db} }

// Upsert stores the user's refresh token, replacing any previous one.
func (r *TokenRepo) Upsert(ctx context.Context, userID uint64, token string, expires time.Time) error {
	t := domain.UserToken{UserID: userID, RefreshToken: token, RefreshTokenExpireTime: expires}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"refresh_token", "refresh_token_expire_time"}),
		}).
		Create(&t).Error
}

// Rotate swaps old for next only if old is still the stored value. It
// returns false when another rotation got there first.
func (r *TokenRepo) Rotate(ctx context.Context, userID uint64, old, next string, expires time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.UserToken{}).
		Where("user_id = ? AND refresh_token = ?", userID, old).
		Updates(map[string]any{
			"refresh_token":             next,
			"refresh_token_expire_time": expires,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *TokenRepo) FindByUserID(ctx context.Context, userID uint64) (*domain.UserToken, error) {
	var t domain.UserToken
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&t)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &t, nil
}
