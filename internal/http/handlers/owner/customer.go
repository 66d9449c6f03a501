package owner

import (
	"strings"

	"github.com/revisit-loyalty/internal/http/handlers/shared"
	"github.com/revisit-loyalty/internal/http/response"
	"github.com/revisit-loyalty/internal/repository"
	"github.com/revisit-loyalty/internal/service"

	"github.com/gin-gonic/gin"
)

// ListCustomers 分页查询会员
func (h *Handler) ListCustomers(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	page, pageSize := shared.ReadPagination(c)
	customers, total, err := h.CustomerService.ListCustomers(c.Request.Context(), actor.RestaurantID, repository.CustomerListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   strings.TrimSpace(c.Query("search")),
		RankID:   strings.TrimSpace(c.Query("rank_id")),
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, customers, response.NewPagination(page, pageSize, total))
}

// GetCustomer 获取会员详情
func (h *Handler) GetCustomer(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	customer, err := h.CustomerService.GetCustomer(c.Request.Context(), actor.RestaurantID, c.Param("id"))
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	rank, err := h.RankService.ResolveForCustomer(c.Request.Context(), actor.RestaurantID, customer)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"customer": customer,
		"rank":     rank,
	})
}

// ListCustomerTransactions 分页查询会员积分流水
func (h *Handler) ListCustomerTransactions(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	createdFrom, err := parseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	createdTo, err := parseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	page, pageSize := shared.ReadPagination(c)
	txns, total, err := h.CustomerService.ListTransactions(c.Request.Context(), actor.RestaurantID, repository.PointTransactionListFilter{
		Page:            page,
		PageSize:        pageSize,
		CustomerID:      c.Param("id"),
		TransactionType: strings.TrimSpace(c.Query("type")),
		CreatedFrom:     createdFrom,
		CreatedTo:       createdTo,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, txns, response.NewPagination(page, pageSize, total))
}

// AdjustPointsRequest 手工调整积分请求
type AdjustPointsRequest struct {
	Delta int64  `json:"delta"`
	Note  string `json:"note"`
}

// AdjustPoints 手工调整会员积分
func (h *Handler) AdjustPoints(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	var req AdjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	result, err := h.LedgerService.Adjust(c.Request.Context(), actor, service.AdjustInput{
		CustomerID: c.Param("id"),
		Delta:      req.Delta,
		Note:       req.Note,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// VerifyLedger 重放会员流水并核对余额
func (h *Handler) VerifyLedger(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	report, err := h.LedgerService.VerifyLedger(c.Request.Context(), actor.RestaurantID, c.Param("id"))
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, report)
}

// ExpirePoints 立即执行本商户积分过期
func (h *Handler) ExpirePoints(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	result, err := h.LedgerService.ExpireRestaurant(c.Request.Context(), actor.RestaurantID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, result)
}
