package pos

import (
	"github.com/revisit-loyalty/internal/http/handlers/shared"
	"github.com/revisit-loyalty/internal/http/response"
	"github.com/revisit-loyalty/internal/i18n"
	"github.com/revisit-loyalty/internal/service"

	"github.com/gin-gonic/gin"
)

// PreviewSaleRequest 消费预览请求
type PreviewSaleRequest struct {
	CardNumber string `json:"card_number"`
	Amount     string `json:"amount"`
}

// RegisterSaleRequest 消费登记请求
type RegisterSaleRequest struct {
	CardNumber  string `json:"card_number"`
	AmountCents int64  `json:"amount_cents"`
	StaffID     string `json:"staff_id"`
}

// PreviewSale 查询会员并预估本次积分（只读）
func (h *Handler) PreviewSale(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	var req PreviewSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	preview, err := h.SaleService.Lookup(c.Request.Context(), actor, service.LookupSaleInput{
		CardNumber: req.CardNumber,
		Amount:     req.Amount,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, preview)
}

// RegisterSale 登记消费并累积积分
func (h *Handler) RegisterSale(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	var req RegisterSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	result, err := h.SaleService.RegisterSale(c.Request.Context(), actor, service.RegisterSaleInput{
		CardNumber:  req.CardNumber,
		AmountCents: req.AmountCents,
		StaffID:     req.StaffID,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), "sale.registered"), result)
}

// GetCardBalance 收银台查询会员卡余额
func (h *Handler) GetCardBalance(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	balance, err := h.CustomerService.GetCardBalance(c.Request.Context(), actor.RestaurantID, c.Param("card"))
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, balance)
}
