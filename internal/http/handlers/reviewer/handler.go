package reviewer

import "github.com/cargo-inspection/internal/provider"

// Handler 复核人员接口处理器
// 月度复核、年度确认与人员目录维护
type Handler struct {
	*provider.Container
}

// New 创建复核处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
