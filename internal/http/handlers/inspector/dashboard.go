package inspector

import (
	"github.com/cargo-inspection/internal/http/handlers/shared"
	"github.com/cargo-inspection/internal/http/response"
	"github.com/cargo-inspection/internal/service"

	"github.com/gin-gonic/gin"
)

func dashboardQuery(c *gin.Context) service.DashboardQuery {
	page, pageSize := shared.QueryPagination(c)
	return service.DashboardQuery{
		Page:      page,
		PageSize:  pageSize,
		Site:      c.Query("site"),
		Status:    c.Query("status"),
		Abnormal:  c.Query("abnormal"),
		Search:    c.Query("search"),
		Inspector: c.Query("inspector"),
		DateFrom:  c.Query("date_from"),
		DateTo:    c.Query("date_to"),
	}
}

// ListOutbounds 仪表盘出库单列表
func (h *Handler) ListOutbounds(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	query := dashboardQuery(c)
	rows, total, err := h.DashboardService.List(c.Request.Context(), principal, query)
	if err != nil {
		shared.RespondServiceError(c, err, nil, "error.internal_error")
		return
	}
	response.SuccessWithPage(c, rows, shared.BuildPagination(query.Page, query.PageSize, total))
}

// GetDashboardStats 仪表盘状态统计
func (h *Handler) GetDashboardStats(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	stats, err := h.DashboardService.Stats(c.Request.Context(), principal, dashboardQuery(c))
	if err != nil {
		shared.RespondServiceError(c, err, nil, "error.internal_error")
		return
	}
	response.Success(c, stats)
}
