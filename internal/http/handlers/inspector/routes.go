package inspector

import (
	"github.com/cargo-inspection/internal/http/handlers/shared"
	"github.com/cargo-inspection/internal/http/response"
	"github.com/cargo-inspection/internal/service"

	"github.com/gin-gonic/gin"
)

var routeErrorRules = []shared.MappedError{
	{Target: service.ErrNotFound, Code: response.CodeNotFound, Key: "error.not_found"},
}

// GetRouteInfo 线路预填信息
func (h *Handler) GetRouteInfo(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	info, err := h.RouteService.Info(c.Request.Context(), principal, c.Param("routeNumber"))
	if err != nil {
		shared.RespondServiceError(c, err, routeErrorRules, "error.internal_error")
		return
	}
	response.Success(c, info)
}

// GetCoverage 待检查线路覆盖报告
// view 取 daily / weekly / monthly / yearly，date 为锚定日期
func (h *Handler) GetCoverage(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	report, err := h.RouteService.Coverage(c.Request.Context(), principal, c.Query("site"), c.Query("view"), c.Query("date"))
	if err != nil {
		shared.RespondServiceError(c, err, routeErrorRules, "error.internal_error")
		return
	}
	response.Success(c, report)
}
