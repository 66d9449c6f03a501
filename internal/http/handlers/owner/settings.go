package owner

import (
	"github.com/revisit-loyalty/internal/http/handlers/shared"
	"github.com/revisit-loyalty/internal/http/response"
	"github.com/revisit-loyalty/internal/service"

	"github.com/gin-gonic/gin"
)

// GetSettings 获取商户积分设置
func (h *Handler) GetSettings(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	restaurant, err := h.RestaurantService.GetRestaurant(c.Request.Context(), actor.RestaurantID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, restaurant)
}

// UpdateSettings 更新商户积分设置
func (h *Handler) UpdateSettings(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	var req service.SettingsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	restaurant, err := h.RestaurantService.UpdateSettings(c.Request.Context(), actor.RestaurantID, req)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, restaurant)
}

// ListRanks 获取等级列表
func (h *Handler) ListRanks(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	ranks, err := h.RankService.ListRanks(c.Request.Context(), actor.RestaurantID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, ranks)
}

// ReplaceRanksRequest 整体替换等级请求
type ReplaceRanksRequest struct {
	Ranks []service.RankInput `json:"ranks"`
}

// ReplaceRanks 整体替换等级并重新挂接会员
func (h *Handler) ReplaceRanks(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	var req ReplaceRanksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	ranks, err := h.RankService.ReplaceRanks(c.Request.Context(), actor.RestaurantID, req.Ranks)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, ranks)
}
