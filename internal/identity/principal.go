package identity

import (
	"context"
	"strings"
)

// Principal 当前登录身份（由外部认证服务签发的令牌解析而来）
// 显式传入每个业务操作，不依赖全局会话状态
type Principal struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
	Token    string   `json:"-"`
}

// IsZero 是否为空身份
func (p Principal) IsZero() bool {
	return strings.TrimSpace(p.Username) == "" && len(p.Roles) == 0
}

// HasRole 是否具备指定角色（忽略大小写）
func (p Principal) HasRole(role string) bool {
	target := strings.TrimSpace(role)
	for _, item := range p.Roles {
		if strings.EqualFold(strings.TrimSpace(item), target) {
			return true
		}
	}
	return false
}

// DisplayName 操作人展示名
func (p Principal) DisplayName() string {
	if name := strings.TrimSpace(p.Username); name != "" {
		return name
	}
	return strings.TrimSpace(p.Email)
}

type principalContextKey struct{}

// NewContext 将身份写入 context，供远端存储透传令牌
func NewContext(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalContextKey{}, p)
}

// FromContext 从 context 读取身份
func FromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
