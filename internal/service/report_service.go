package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"reportdesk/internal/core/cache"
	"reportdesk/internal/core/queue"
	"reportdesk/internal/domain"
	"reportdesk/internal/repo"
)

// EventPublisher emits report events. Implementations may fail; report
// writes never depend on the outcome.
type EventPublisher interface {
	PublishReportCreated(ctx context.Context, ev queue.ReportCreatedEvent) error
}

type CreateReportInput struct {
	UserID      uint64 `json:"userId" binding:"required"`
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description" binding:"required"`
}

type UpdateReportInput struct {
	ID          uint64 `json:"id" binding:"required"`
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description" binding:"required"`
}

// ReportCacheOptions sets the read cache contract. With InvalidateOnWrite
// off, reads may return a value up to TTL old after an update or delete.
type ReportCacheOptions struct {
	TTL               time.Duration
	InvalidateOnWrite bool
}

type ReportService struct {
	store *repo.Store
	cache *cache.Cache
	opts  ReportCacheOptions
	pub   EventPublisher
	log   *zap.Logger
}

func NewReportService(store *repo.Store, c *cache.Cache, opts ReportCacheOptions, pub EventPublisher, l *zap.Logger) *ReportService {
	return &ReportService{store: store, cache: c, opts: opts, pub: pub, log: l.Named("report")}
}

func (s *ReportService) idKey(id uint64) string {
	return s.cache.Key("report", "id", strconv.FormatUint(id, 10))
}

func (s *ReportService) userKey(userID uint64) string {
	return s.cache.Key("report", "user", strconv.FormatUint(userID, 10))
}

func (s *ReportService) GetReport(ctx context.Context, id uint64) (domain.ReportView, error) {
	v, err := cache.GetOrLoadJSON(s.cache, ctx, s.idKey(id), s.opts.TTL, func(ctx context.Context) (*domain.ReportView, error) {
		r, err := s.store.Reports().FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, domain.ErrReportNotFound
		}
		view := r.View()
		return &view, nil
	})
	if err != nil {
		return domain.ReportView{}, fail(s.log, "get report", err)
	}
	return *v, nil
}

// GetUserReports lists a user's reports. An empty result is reported as
// ReportsNotFound and is not cached.
func (s *ReportService) GetUserReports(ctx context.Context, userID uint64) ([]domain.ReportView, error) {
	v, err := cache.GetOrLoadJSON(s.cache, ctx, s.userKey(userID), s.opts.TTL, func(ctx context.Context) (*[]domain.ReportView, error) {
		list, err := s.store.Reports().ListByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return nil, domain.ErrReportsNotFound
		}
		views := make([]domain.ReportView, 0, len(list))
		for i := range list {
			views = append(views, list[i].View())
		}
		return &views, nil
	})
	if err != nil {
		return nil, fail(s.log, "get user reports", err)
	}
	return *v, nil
}

// CreateReport stores the report, then publishes a ReportCreatedEvent on a
// best-effort basis.
func (s *ReportService) CreateReport(ctx context.Context, in CreateReportInput, actor string) (domain.ReportView, error) {
	owner, err := s.store.Users().FindByID(ctx, in.UserID)
	if err != nil {
		return domain.ReportView{}, fail(s.log, "create report: load owner", err)
	}
	if owner == nil {
		return domain.ReportView{}, domain.ErrUserNotFound
	}
	taken, err := s.store.Reports().NameTaken(ctx, in.Name, 0)
	if err != nil {
		return domain.ReportView{}, fail(s.log, "create report: check name", err)
	}
	if taken {
		return domain.ReportView{}, domain.ErrReportAlreadyExists
	}

	r := &domain.Report{
		UserID:      in.UserID,
		Name:        in.Name,
		Description: in.Description,
		CreatedBy:   actor,
		UpdatedBy:   actor,
	}
	if err := s.store.Reports().Create(ctx, r); err != nil {
		if repo.IsDuplicateKey(err) {
			return domain.ReportView{}, domain.ErrReportAlreadyExists
		}
		return domain.ReportView{}, fail(s.log, "create report", err)
	}
	s.invalidate(ctx, s.userKey(r.UserID))
	s.publishCreated(ctx, r)
	return r.View(), nil
}

func (s *ReportService) publishCreated(ctx context.Context, r *domain.Report) {
	if s.pub == nil {
		return
	}
	ev := queue.ReportCreatedEvent{
		ID:          r.ID,
		UserID:      r.UserID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		CreatedBy:   r.CreatedBy,
	}
	if err := s.pub.PublishReportCreated(ctx, ev); err != nil {
		s.log.Warn("report created event not published", zap.Uint64("id", r.ID), zap.Error(err))
	}
}

func (s *ReportService) UpdateReport(ctx context.Context, in UpdateReportInput, actor string) (domain.ReportView, error) {
	r, err := s.store.Reports().FindByID(ctx, in.ID)
	if err != nil {
		return domain.ReportView{}, fail(s.log, "update report: load", err)
	}
	if r == nil {
		return domain.ReportView{}, domain.ErrReportNotFound
	}
	taken, err := s.store.Reports().NameTaken(ctx, in.Name, in.ID)
	if err != nil {
		return domain.ReportView{}, fail(s.log, "update report: check name", err)
	}
	if taken {
		return domain.ReportView{}, domain.ErrReportAlreadyExists
	}

	r.Name = in.Name
	r.Description = in.Description
	r.UpdatedBy = actor
	if err := s.store.Reports().Update(ctx, r); err != nil {
		if repo.IsDuplicateKey(err) {
			return domain.ReportView{}, domain.ErrReportAlreadyExists
		}
		return domain.ReportView{}, fail(s.log, "update report", err)
	}
	s.invalidate(ctx, s.idKey(r.ID), s.userKey(r.UserID))
	return r.View(), nil
}

func (s *ReportService) DeleteReport(ctx context.Context, id uint64) (domain.ReportView, error) {
	r, err := s.store.Reports().FindByID(ctx, id)
	if err != nil {
		return domain.ReportView{}, fail(s.log, "delete report: load", err)
	}
	if r == nil {
		return domain.ReportView{}, domain.ErrReportNotFound
	}
	if _, err := s.store.Reports().Delete(ctx, id); err != nil {
		return domain.ReportView{}, fail(s.log, "delete report", err)
	}
	s.invalidate(ctx, s.idKey(r.ID), s.userKey(r.UserID))
	return r.View(), nil
}

// invalidate drops cached entries after a committed write. It is a no-op
// unless invalidate-on-write is enabled.
func (s *ReportService) invalidate(ctx context.Context, keys ...string) {
	if !s.opts.InvalidateOnWrite {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
