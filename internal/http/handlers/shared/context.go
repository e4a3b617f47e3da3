package shared

import (
	"github.com/cargo-inspection/internal/http/response"
	"github.com/cargo-inspection/internal/identity"

	"github.com/gin-gonic/gin"
)

// PrincipalContextKey gin 上下文中的身份键
const PrincipalContextKey = "principal"

// SetPrincipal 写入当前身份
func SetPrincipal(c *gin.Context, p identity.Principal) {
	c.Set(PrincipalContextKey, p)
	c.Request = c.Request.WithContext(identity.NewContext(c.Request.Context(), p))
}

// GetPrincipal 从上下文读取身份并统一处理错误响应。
func GetPrincipal(c *gin.Context) (identity.Principal, bool) {
	value, exists := c.Get(PrincipalContextKey)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return identity.Principal{}, false
	}
	p, ok := value.(identity.Principal)
	if !ok || p.IsZero() {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return identity.Principal{}, false
	}
	return p, true
}
