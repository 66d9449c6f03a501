package shared

import (
	"github.com/revisit-loyalty/internal/constants"
	"github.com/revisit-loyalty/internal/http/response"
	"github.com/revisit-loyalty/internal/i18n"
	"github.com/revisit-loyalty/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 与 restaurant_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	kv := make([]interface{}, 0, 4)
	if id := c.GetString(constants.ContextKeyRequestID); id != "" {
		kv = append(kv, "request_id", id)
	}
	if rid := c.GetString(constants.ContextKeyRestaurantID); rid != "" {
		kv = append(kv, "restaurant_id", rid)
	}
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

// RespondError 返回国际化错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	RespondAppError(c, response.WrapError(code, i18n.T(i18n.ResolveLocale(c), key), err))
}

// RespondTaggedError 返回携带错误标签的国际化错误响应。
func RespondTaggedError(c *gin.Context, code int, key, tag string, fields map[string]string, err error) {
	appErr := response.WrapError(code, i18n.T(i18n.ResolveLocale(c), key), err)
	RespondAppError(c, appErr.WithTag(tag, fields))
}

// RespondAppError 输出 AppError，有原始错误时记录 handler_error。
func RespondAppError(c *gin.Context, appErr *response.AppError) {
	if appErr.Err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"tag", appErr.Tag,
			"message", appErr.Message,
			"error", appErr.Err,
		)
	}
	response.Fail(c, appErr)
}
