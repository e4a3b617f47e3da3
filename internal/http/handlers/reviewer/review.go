package reviewer

import (
	"github.com/cargo-inspection/internal/http/handlers/shared"
	"github.com/cargo-inspection/internal/http/response"
	"github.com/cargo-inspection/internal/service"

	"github.com/gin-gonic/gin"
)

// ApproveRequest 审批请求
type ApproveRequest struct {
	Site      string `json:"site" binding:"required"`
	Period    string `json:"period" binding:"required"`
	Signature string `json:"signature"`
}

func (r ApproveRequest) toInput() service.ApproveInput {
	return service.ApproveInput{Site: r.Site, Period: r.Period, Signature: r.Signature}
}

// GetVerification 月度复核页面
func (h *Handler) GetVerification(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	view, err := h.VerificationService.View(c.Request.Context(), principal, c.Param("site"), c.Param("yearMonth"))
	if err != nil {
		shared.RespondServiceError(c, err, nil, "error.internal_error")
		return
	}
	response.Success(c, view)
}

// ApproveVerification 批准月度复核
func (h *Handler) ApproveVerification(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	ack, err := h.VerificationService.Approve(c.Request.Context(), principal, req.toInput())
	if err != nil {
		shared.RespondServiceError(c, err, nil, "error.internal_error")
		return
	}
	response.Success(c, ack)
}

// GetVerificationYear 年度 12 个月复核概览
func (h *Handler) GetVerificationYear(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	view, err := h.VerificationService.YearOverview(c.Request.Context(), principal, c.Param("site"), c.Param("year"))
	if err != nil {
		shared.RespondServiceError(c, err, nil, "error.internal_error")
		return
	}
	response.Success(c, view)
}

// GetValidation 年度确认页面
func (h *Handler) GetValidation(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	view, err := h.ValidationService.View(c.Request.Context(), principal, c.Param("site"), c.Param("year"))
	if err != nil {
		shared.RespondServiceError(c, err, nil, "error.internal_error")
		return
	}
	response.Success(c, view)
}

// ApproveValidation 批准年度确认
func (h *Handler) ApproveValidation(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	ack, err := h.ValidationService.Approve(c.Request.Context(), principal, req.toInput())
	if err != nil {
		shared.RespondServiceError(c, err, nil, "error.internal_error")
		return
	}
	response.Success(c, ack)
}

// GetValidationYears 有出库记录的年份，倒序
func (h *Handler) GetValidationYears(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	years, err := h.ValidationService.Years(c.Request.Context(), principal)
	if err != nil {
		shared.RespondServiceError(c, err, nil, "error.internal_error")
		return
	}
	response.Success(c, years)
}
