package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campushq/staff-attend-api/internal/service"
	"github.com/campushq/staff-attend-api/pkg/response"
)

// DashboardHandler exposes the aggregated dashboard and metrics snapshot.
type DashboardHandler struct {
	dashboard *service.DashboardService
	metrics   *service.MetricsService
	logger    *zap.Logger
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService, metrics *service.MetricsService, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{dashboard: dashboard, metrics: metrics, logger: logger}
}

// Summary returns headcount, today's attendance and pending leave counts.
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Metrics returns the process counter snapshot.
func (h *DashboardHandler) Metrics(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
