package shared

import (
	"errors"

	"github.com/cargo-inspection/internal/backend"
	"github.com/cargo-inspection/internal/http/response"
	"github.com/cargo-inspection/internal/i18n"
	"github.com/cargo-inspection/internal/logger"
	"github.com/cargo-inspection/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回国际化错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	RespondErrorWithData(c, code, key, err, nil)
}

// RespondErrorWithData 返回带数据的国际化错误响应。
func RespondErrorWithData(c *gin.Context, code int, key string, err error, data interface{}) {
	locale := i18n.ResolveLocale(c)
	msg := i18n.T(locale, key)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", code,
			"key", key,
			"error", err,
		)
	}
	response.ErrorWithData(c, code, msg, data)
}

// MappedError 定义业务错误到接口错误响应的映射关系。
type MappedError struct {
	Target error
	Code   int
	Key    string
}

// CommonErrorRules 各业务共用的错误映射
var CommonErrorRules = []MappedError{
	{Target: service.ErrInvalidSite, Code: response.CodeBadRequest, Key: "error.invalid_site"},
	{Target: service.ErrInvalidPeriod, Code: response.CodeBadRequest, Key: "error.invalid_period"},
	{Target: service.ErrInvalidStatus, Code: response.CodeBadRequest, Key: "error.invalid_status"},
	{Target: service.ErrRouteNumberRequired, Code: response.CodeBadRequest, Key: "error.route_number_required"},
	{Target: service.ErrActionNotAllowed, Code: response.CodeConflict, Key: "error.action_not_allowed"},
	{Target: service.ErrRequestInFlight, Code: response.CodeTooManyRequests, Key: "error.request_in_flight"},
	{Target: service.ErrExportNotAllowed, Code: response.CodeConflict, Key: "error.export_not_allowed"},
	{Target: service.ErrNotFound, Code: response.CodeNotFound, Key: "error.not_found"},
	{Target: service.ErrForbidden, Code: response.CodeForbidden, Key: "error.forbidden"},
	{Target: backend.ErrUnauthorized, Code: response.CodeUnauthorized, Key: "error.token_invalid"},
}

// RespondServiceError 按错误类型返回响应：校验、审批阻塞、存储失败、其余按映射表
func RespondServiceError(c *gin.Context, err error, rules []MappedError, fallbackKey string) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		RespondErrorWithData(c, response.CodeBadRequest, "error.validation_failed", nil, gin.H{
			"fields":      validationErr.Fields,
			"first_field": validationErr.Fields.First(),
		})
		return
	}
	var blockedErr *service.BlockedError
	if errors.As(err, &blockedErr) {
		RespondErrorWithData(c, response.CodeConflict, "error.review_blocked", nil, gin.H{
			"reasons": blockedErr.Reasons,
		})
		return
	}
	for _, rule := range append(rules, CommonErrorRules...) {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	var apiErr *service.ApiError
	if errors.As(err, &apiErr) {
		data := gin.H{"op": apiErr.Op}
		if apiErr.Input != nil {
			data["input"] = apiErr.Input
		}
		RespondErrorWithData(c, response.CodeBadGateway, "error.backend_unavailable", err, data)
		return
	}
	RespondError(c, response.CodeInternal, fallbackKey, err)
}
