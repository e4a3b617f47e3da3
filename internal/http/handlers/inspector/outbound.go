package inspector

import (
	"context"

	"github.com/cargo-inspection/internal/http/handlers/shared"
	"github.com/cargo-inspection/internal/http/response"
	"github.com/cargo-inspection/internal/identity"
	"github.com/cargo-inspection/internal/models"
	"github.com/cargo-inspection/internal/service"

	"github.com/gin-gonic/gin"
)

// GetOutbound 读取出库单，不存在时返回新建占位
func (h *Handler) GetOutbound(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	view, err := h.OutboundService.Load(c.Request.Context(), principal, c.Param("routeNumber"))
	if err != nil {
		shared.RespondServiceError(c, err, outboundErrorRules, "error.internal_error")
		return
	}
	response.Success(c, view)
}

// SaveOutbound 暂存出库单
func (h *Handler) SaveOutbound(c *gin.Context) {
	h.applyOutbound(c, h.OutboundService.Save)
}

// SubmitOutbound 提交出库单
func (h *Handler) SubmitOutbound(c *gin.Context) {
	h.applyOutbound(c, h.OutboundService.Submit)
}

type outboundAction func(ctx context.Context, principal identity.Principal, input *models.OutboundRecord) (*service.OutboundResult, error)

func (h *Handler) applyOutbound(c *gin.Context, action outboundAction) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	var input models.OutboundRecord
	if err := c.ShouldBindJSON(&input); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	result, err := action(c.Request.Context(), principal, &input)
	if err != nil {
		shared.RespondServiceError(c, err, outboundErrorRules, "error.internal_error")
		return
	}
	response.Success(c, result)
}

// ExportOutbound 导出出库单 PDF
func (h *Handler) ExportOutbound(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	ack, err := h.OutboundService.Export(c.Request.Context(), principal, c.Param("routeNumber"))
	if err != nil {
		shared.RespondServiceError(c, err, outboundErrorRules, "error.export_failed")
		return
	}
	response.Success(c, ack)
}
