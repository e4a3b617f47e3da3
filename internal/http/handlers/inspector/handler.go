package inspector

import "github.com/cargo-inspection/internal/provider"

// Handler 出库检查员接口处理器
type Handler struct {
	*provider.Container
}

// New 创建检查员处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
