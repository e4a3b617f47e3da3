package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 业务状态码，与 HTTP 语义保持一致，传输层始终返回 200
const (
	CodeOK              = 0
	CodeBadRequest      = 400 // 字段校验失败、站点或期间非法
	CodeUnauthorized    = 401
	CodeForbidden       = 403 // 角色不允许当前操作
	CodeNotFound        = 404
	CodeConflict        = 409 // 状态不允许或审批被阻塞
	CodeTooManyRequests = 429 // 同一记录已有请求在处理中
	CodeInternal        = 500
	CodeBadGateway      = 502 // 远端接口失败
)

// Envelope 统一响应结构
type Envelope struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
}

// PagedEnvelope 看板列表响应
type PagedEnvelope struct {
	Envelope
	Pagination Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"total_page"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{StatusCode: CodeOK, Msg: "success", Data: data})
}

func SuccessWithPage(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, PagedEnvelope{
		Envelope:   Envelope{StatusCode: CodeOK, Msg: "success", Data: data},
		Pagination: pagination,
	})
}

// Error 错误响应，data 中附带 request_id 便于排查
func Error(c *gin.Context, code int, msg string) {
	ErrorWithData(c, code, msg, nil)
}

// ErrorWithData 错误响应（带字段错误、阻塞原因等数据）
func ErrorWithData(c *gin.Context, code int, msg string, data interface{}) {
	c.JSON(http.StatusOK, Envelope{StatusCode: code, Msg: msg, Data: withRequestID(c, data)})
}

func Unauthorized(c *gin.Context, msg string) {
	Error(c, CodeUnauthorized, msg)
}

func Forbidden(c *gin.Context, msg string) {
	Error(c, CodeForbidden, msg)
}

func withRequestID(c *gin.Context, data interface{}) interface{} {
	if c == nil {
		return data
	}
	id := c.GetString("request_id")
	if id == "" {
		return data
	}
	switch v := data.(type) {
	case nil:
		return gin.H{"request_id": id}
	case gin.H:
		if _, exists := v["request_id"]; !exists {
			v["request_id"] = id
		}
		return v
	}
	return gin.H{"request_id": id, "data": data}
}
