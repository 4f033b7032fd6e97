package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"reportdesk/internal/domain"
)

type ReportRepo struct{ db *gorm.DB }

func NewReportRepo(db *gorm.DB) *ReportRepo { return &ReportRepo{db: db} }

func (r *ReportRepo) Create(ctx context.Context, rep *domain.Report) error {
	return r.db.WithContext(ctx).Create(rep).Error
}

func (r *ReportRepo) FindByID(ctx context.Context, id uint64) (*domain.Report, error) {
	var rep domain.Report
	err := r.db.WithContext(ctx).First(&rep, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *ReportRepo) ListByUser(ctx context.Context, userID uint64) ([]domain.Report, error) {
	var out []domain.Report
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&out).Error
	return out, err
}

// NameTaken reports whether another report (not exceptID) already uses name.
func (r *ReportRepo) NameTaken(ctx context.Context, name string, exceptID uint64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Report{}).
		Where("name = ? AND id <> ?", name, exceptID).
		Count(&n).Error
	return n > 0, err
}

func (r *ReportRepo) Update(ctx context.Context, rep *domain.Report) error {
	return r.db.WithContext(ctx).Model(rep).
		Select("name", "description", "updated_by", "updated_at").
		Updates(rep).Error
}

func (r *ReportRepo) Delete(ctx context.Context, id uint64) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Report{})
	return res.RowsAffected, res.Error
}
