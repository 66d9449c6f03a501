package owner

import (
	"strings"
	"time"

	"github.com/revisit-loyalty/internal/http/handlers/shared"
	"github.com/revisit-loyalty/internal/provider"

	"github.com/gin-gonic/gin"
)

// Handler 商户后台接口处理器入口
// 说明：仅 owner 角色可写，manager 只读会员数据（由 RBAC 控制）。
type Handler struct {
	*provider.Container
}

// New 创建商户后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func respondError(c *gin.Context, code int, key string, err error) {
	shared.RespondError(c, code, key, err)
}

func parseTimeNullable(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
