package public

import (
	"github.com/revisit-loyalty/internal/http/handlers/shared"
	"github.com/revisit-loyalty/internal/http/response"
	"github.com/revisit-loyalty/internal/i18n"
	"github.com/revisit-loyalty/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterCustomerRequest 会员自助注册请求
type RegisterCustomerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	CaptchaFields
}

// GetProgram 获取商户积分计划概要
func (h *Handler) GetProgram(c *gin.Context) {
	tenant, err := h.RestaurantService.ResolveSlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, tenant)
}

// RegisterCustomer 会员自助注册（同一手机号幂等）
func (h *Handler) RegisterCustomer(c *gin.Context) {
	restaurantID, ok := shared.GetRestaurantID(c)
	if !ok {
		return
	}
	var req RegisterCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if h.CaptchaService != nil {
		if err := h.CaptchaService.Verify(req.payload()); err != nil {
			shared.RespondServiceError(c, err)
			return
		}
	}

	result, err := h.CustomerService.Register(c.Request.Context(), service.RegisterCustomerInput{
		RestaurantID: restaurantID,
		Name:         req.Name,
		Phone:        req.Phone,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}

	key := "customer.registered"
	if result.IsExisting {
		key = "customer.already_registered"
	}
	response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), key), result)
}

// GetCardBalance 查询会员卡余额与最近流水
func (h *Handler) GetCardBalance(c *gin.Context) {
	restaurantID, ok := shared.GetRestaurantID(c)
	if !ok {
		return
	}
	balance, err := h.CustomerService.GetCardBalance(c.Request.Context(), restaurantID, c.Param("card"))
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, balance)
}

// CheckReward 查询会员当前可用奖励
func (h *Handler) CheckReward(c *gin.Context) {
	restaurantID, ok := shared.GetRestaurantID(c)
	if !ok {
		return
	}
	info, err := h.RedemptionService.CheckReward(c.Request.Context(), restaurantID, c.Param("card"))
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, info)
}
