package pos

import "github.com/revisit-loyalty/internal/provider"

// Handler 收银台接口处理器入口
// 说明：员工身份来自已校验的令牌，租户取自令牌声明。
type Handler struct {
	*provider.Container
}

// New 创建收银台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
