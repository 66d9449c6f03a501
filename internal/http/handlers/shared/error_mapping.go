package shared

import (
	"errors"

	"github.com/revisit-loyalty/internal/http/response"
	"github.com/revisit-loyalty/internal/repository"
	"github.com/revisit-loyalty/internal/service"

	"github.com/gin-gonic/gin"
)

// MappedHandlerError 定义业务错误到接口错误响应的映射关系。
type MappedHandlerError struct {
	Target error
	Code   int
	Key    string
}

// ConcatMappedHandlerErrors 合并多组映射规则，靠前的优先命中。
func ConcatMappedHandlerErrors(groups ...[]MappedHandlerError) []MappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

// LoyaltyErrorRules 积分业务通用错误映射
var LoyaltyErrorRules = []MappedHandlerError{
	{Target: service.ErrTenantRequired, Code: response.CodeBadRequest, Key: "error.tenant_required"},
	{Target: repository.ErrTenantRequired, Code: response.CodeBadRequest, Key: "error.tenant_required"},
	{Target: service.ErrRestaurantNotFound, Code: response.CodeNotFound, Key: "error.tenant_not_found"},
	{Target: service.ErrNotAuthenticated, Code: response.CodeUnauthorized, Key: "error.not_authenticated"},
	{Target: service.ErrInvalidCardFormat, Code: response.CodeBadRequest, Key: "error.invalid_card_format"},
	{Target: service.ErrCustomerNotFound, Code: response.CodeNotFound, Key: "error.customer_not_found"},
	{Target: service.ErrRewardNotFound, Code: response.CodeNotFound, Key: "error.reward_not_found"},
	{Target: service.ErrInsufficientPoints, Code: response.CodeConflict, Key: "error.insufficient_points"},
	{Target: service.ErrCardCapacityExhausted, Code: response.CodeConflict, Key: "error.card_capacity_exhausted"},
	{Target: service.ErrPointsOverflow, Code: response.CodeConflict, Key: "error.points_overflow"},
	{Target: service.ErrSaleAmountInvalid, Code: response.CodeBadRequest, Key: "error.invalid_amount"},
	{Target: service.ErrInvalidStaffID, Code: response.CodeBadRequest, Key: "error.invalid_staff_id"},
	{Target: service.ErrInvalidRewardType, Code: response.CodeBadRequest, Key: "error.invalid_reward_type"},
	{Target: service.ErrCustomerNameInvalid, Code: response.CodeBadRequest, Key: "error.customer_name_invalid"},
	{Target: service.ErrCustomerPhoneInvalid, Code: response.CodeBadRequest, Key: "error.customer_phone_invalid"},
	{Target: service.ErrSettingsInvalid, Code: response.CodeBadRequest, Key: "error.settings_invalid"},
	{Target: service.ErrRanksInvalid, Code: response.CodeBadRequest, Key: "error.ranks_invalid"},
	{Target: service.ErrRewardConfigInvalid, Code: response.CodeBadRequest, Key: "error.reward_config_invalid"},
	{Target: service.ErrAdjustmentInvalid, Code: response.CodeBadRequest, Key: "error.adjustment_invalid"},
	{Target: service.ErrSlugTaken, Code: response.CodeConflict, Key: "error.slug_taken"},
	{Target: service.ErrStaffRoleInvalid, Code: response.CodeBadRequest, Key: "error.staff_role_invalid"},
	{Target: service.ErrCaptchaRequired, Code: response.CodeBadRequest, Key: "error.captcha_required"},
	{Target: service.ErrCaptchaInvalid, Code: response.CodeBadRequest, Key: "error.captcha_invalid"},
}

// RespondWithMappedError 按规则返回业务错误，data.error 携带稳定的错误标签。
// 未命中的错误按 fallback 返回并记录原始错误。
func RespondWithMappedError(c *gin.Context, err error, rules []MappedHandlerError, fallbackCode int, fallbackKey string) {
	var fields map[string]string
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		fields = validationErr.FieldTags()
	}
	tag := service.ErrorTag(err)
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondTaggedError(c, rule.Code, rule.Key, tag, fields, nil)
			return
		}
	}
	RespondTaggedError(c, fallbackCode, fallbackKey, tag, fields, err)
}

// RespondServiceError 使用积分业务通用规则返回错误。
func RespondServiceError(c *gin.Context, err error) {
	RespondWithMappedError(c, err, LoyaltyErrorRules, response.CodeInternal, "error.internal")
}
