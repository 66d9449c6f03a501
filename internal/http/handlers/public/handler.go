package public

import (
	"github.com/revisit-loyalty/internal/provider"
)

// Handler 会员自助接口，租户已由 slug 中间件写入上下文
type Handler struct {
	*provider.Container
}

// New 创建公开处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
