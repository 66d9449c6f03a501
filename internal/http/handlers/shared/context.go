package shared

import (
	"strconv"
	"strings"

	"github.com/revisit-loyalty/internal/constants"
	"github.com/revisit-loyalty/internal/http/response"
	"github.com/revisit-loyalty/internal/service"

	"github.com/gin-gonic/gin"
)

// GetRestaurantID 从上下文读取租户 ID，缺失时直接返回错误响应。
func GetRestaurantID(c *gin.Context) (string, bool) {
	rid := strings.TrimSpace(c.GetString(constants.ContextKeyRestaurantID))
	if rid == "" {
		RespondTaggedError(c, response.CodeBadRequest, "error.tenant_required", service.ErrorTag(service.ErrTenantRequired), nil, nil)
		return "", false
	}
	return rid, true
}

// GetActor 从上下文读取已验证的员工身份。
func GetActor(c *gin.Context) (service.Actor, bool) {
	actor := service.Actor{
		RestaurantID: strings.TrimSpace(c.GetString(constants.ContextKeyRestaurantID)),
		UserID:       strings.TrimSpace(c.GetString(constants.ContextKeyStaffUserID)),
		Role:         strings.TrimSpace(c.GetString(constants.ContextKeyStaffRole)),
	}
	if actor.RestaurantID == "" || actor.UserID == "" {
		RespondTaggedError(c, response.CodeUnauthorized, "error.unauthorized", service.ErrorTag(service.ErrNotAuthenticated), nil, nil)
		return service.Actor{}, false
	}
	return actor, true
}

// QueryInt 读取整数查询参数，非法值使用默认值。
func QueryInt(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// QueryBool 读取布尔查询参数。
func QueryBool(c *gin.Context, key string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	return err == nil && value
}
