package owner

import (
	"github.com/revisit-loyalty/internal/http/handlers/shared"
	"github.com/revisit-loyalty/internal/http/response"
	"github.com/revisit-loyalty/internal/service"

	"github.com/gin-gonic/gin"
)

// AddStaffRequest 添加员工请求
type AddStaffRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role" binding:"required"`
}

// ListStaff 获取员工列表
func (h *Handler) ListStaff(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	staff, err := h.StaffService.ListStaff(c.Request.Context(), actor.RestaurantID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, staff)
}

// AddStaff 添加员工（同一用户幂等）
func (h *Handler) AddStaff(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	var req AddStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	staff, err := h.StaffService.AddStaff(c.Request.Context(), service.AddStaffInput{
		RestaurantID: actor.RestaurantID,
		UserID:       req.UserID,
		DisplayName:  req.DisplayName,
		Role:         req.Role,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, staff)
}
