package pos

import (
	"github.com/revisit-loyalty/internal/http/handlers/shared"
	"github.com/revisit-loyalty/internal/http/response"
	"github.com/revisit-loyalty/internal/i18n"
	"github.com/revisit-loyalty/internal/service"

	"github.com/gin-gonic/gin"
)

// RedeemRequest 兑换请求
type RedeemRequest struct {
	CardNumber     string `json:"card_number"`
	RewardType     string `json:"reward_type"`
	RewardConfigID string `json:"reward_config_id"`
}

// CheckReward 查询会员当前可用奖励
func (h *Handler) CheckReward(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	info, err := h.RedemptionService.CheckReward(c.Request.Context(), actor.RestaurantID, c.Param("card"))
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, info)
}

// ListActiveRewards 列出可兑换的奖励配置
func (h *Handler) ListActiveRewards(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	configs, err := h.RewardConfigService.List(c.Request.Context(), actor.RestaurantID, true)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, configs)
}

// Redeem 登记兑换并扣减积分
func (h *Handler) Redeem(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	result, err := h.RedemptionService.Redeem(c.Request.Context(), actor, service.RedeemInput{
		CardNumber:     req.CardNumber,
		RewardType:     req.RewardType,
		RewardConfigID: req.RewardConfigID,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), "redemption.registered"), result)
}
