package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reportdesk/internal/domain"
	"reportdesk/internal/service"
	httpez "reportdesk/internal/transport/http/ez"
)

type ReportHandler struct{ svc *service.ReportService }

func NewReportHandler(s *service.ReportService) *ReportHandler { return &ReportHandler{svc: s} }

type idURI struct {
	ID uint64 `uri:"id" binding:"required"`
}

type userIDURI struct {
	UserID uint64 `uri:"userId" binding:"required"`
}

// Mount registers the report endpoints on an authenticated group.
func (h *ReportHandler) Mount(g *gin.RouterGroup) {
	ez := httpez.New(g)

	httpez.RegisterAction(ez, httpez.Action[idURI, domain.ReportView]{
		Method: http.MethodGet,
		Path:   "/reports/:id",
		Binder: httpez.BindURI,
		Handler: func(c *gin.Context, in *idURI) (domain.ReportView, error) {
			return h.svc.GetReport(c.Request.Context(), in.ID)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[userIDURI, []domain.ReportView]{
		Method: http.MethodGet,
		Path:   "/reports/users/:userId",
		Binder: httpez.BindURI,
		Handler: func(c *gin.Context, in *userIDURI) ([]domain.ReportView, error) {
			return h.svc.GetUserReports(c.Request.Context(), in.UserID)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.CreateReportInput, domain.ReportView]{
		Method: http.MethodPost,
		Path:   "/reports",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *service.CreateReportInput) (domain.ReportView, error) {
			return h.svc.CreateReport(c.Request.Context(), *in, httpez.Login(c))
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.UpdateReportInput, domain.ReportView]{
		Method: http.MethodPut,
		Path:   "/reports",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *service.UpdateReportInput) (domain.ReportView, error) {
			return h.svc.UpdateReport(c.Request.Context(), *in, httpez.Login(c))
		},
	})

	httpez.RegisterAction(ez, httpez.Action[idURI, domain.ReportView]{
		Method: http.MethodDelete,
		Path:   "/reports/:id",
		Binder: httpez.BindURI,
		Handler: func(c *gin.Context, in *idURI) (domain.ReportView, error) {
			return h.svc.DeleteReport(c.Request.Context(), in.ID)
		},
	})
}
