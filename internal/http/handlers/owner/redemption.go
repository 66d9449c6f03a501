package owner

import (
	"strings"

	"github.com/revisit-loyalty/internal/http/handlers/shared"
	"github.com/revisit-loyalty/internal/http/response"
	"github.com/revisit-loyalty/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListRedemptions 分页查询兑换记录
func (h *Handler) ListRedemptions(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	page, pageSize := shared.ReadPagination(c)
	redemptions, total, err := h.RedemptionService.ListRedemptions(c.Request.Context(), actor.RestaurantID, repository.RedemptionListFilter{
		Page:       page,
		PageSize:   pageSize,
		CustomerID: strings.TrimSpace(c.Query("customer_id")),
		RewardType: strings.TrimSpace(c.Query("reward_type")),
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, redemptions, response.NewPagination(page, pageSize, total))
}
