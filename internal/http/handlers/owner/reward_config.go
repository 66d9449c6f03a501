package owner

import (
	"github.com/revisit-loyalty/internal/http/handlers/shared"
	"github.com/revisit-loyalty/internal/http/response"
	"github.com/revisit-loyalty/internal/service"

	"github.com/gin-gonic/gin"
)

// ListRewardConfigs 获取奖励配置列表
func (h *Handler) ListRewardConfigs(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	configs, err := h.RewardConfigService.List(c.Request.Context(), actor.RestaurantID, shared.QueryBool(c, "active"))
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, configs)
}

// CreateRewardConfig 创建奖励配置
func (h *Handler) CreateRewardConfig(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	var req service.RewardConfigInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	config, err := h.RewardConfigService.Create(c.Request.Context(), actor.RestaurantID, req)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, config)
}

// UpdateRewardConfig 更新奖励配置
func (h *Handler) UpdateRewardConfig(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	var req service.RewardConfigInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	config, err := h.RewardConfigService.Update(c.Request.Context(), actor.RestaurantID, c.Param("id"), req)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, config)
}
