package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"reportdesk/internal/domain"
)

type RoleRepo struct{ db *gorm.DB }

func NewRoleRepo(db *gorm.DB) *RoleRepo { return &RoleRepo{db: db} }

func (r *RoleRepo) Create(ctx context.Context, role *domain.Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *RoleRepo) FindByID(ctx context.Context, id uint64) (*domain.Role, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *RoleRepo) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	return r.first(ctx, "name = ?", name)
}

func (r *RoleRepo) first(ctx context.Context, cond string, args ...any) (*domain.Role, error) {
	var role domain.Role
	err := r.db.WithContext(ctx).Where(cond, args...).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepo) List(ctx context.Context) ([]domain.Role, error) {
	var roles []domain.Role
	err := r.db.WithContext(ctx).Order("id").Find(&roles).Error
	return roles, err
}

func (r *RoleRepo) Rename(ctx context.Context, id uint64, name string) error {
	return r.db.WithContext(ctx).Model(&domain.Role{}).Where("id = ?", id).Update("name", name).Error
}

// Delete removes the role and every membership referencing it.
func (r *RoleRepo) Delete(ctx context.Context, id uint64) (int64, error) {
	db := r.db.WithContext(ctx)
	if err := db.Where("role_id = ?", id).Delete(&domain.UserRole{}).Error; err != nil {
		return 0, err
	}
	res := db.Where("id = ?", id).Delete(&domain.Role{})
	return res.RowsAffected, res.Error
}

func (r *RoleRepo) AddToUser(ctx context.Context, userID, roleID uint64) error {
	return r.db.WithContext(ctx).Create(&domain.UserRole{UserID: userID, RoleID: roleID}).Error
}

// RemoveFromUser reports how many memberships were deleted (0 or 1).
func (r *RoleRepo) RemoveFromUser(ctx context.Context, userID, roleID uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&domain.UserRole{})
	return res.RowsAffected, res.Error
}
