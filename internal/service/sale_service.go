package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/revisit-loyalty/internal/cardnumber"
	"github.com/revisit-loyalty/internal/constants"
	"github.com/revisit-loyalty/internal/logger"
	"github.com/revisit-loyalty/internal/metrics"
	"github.com/revisit-loyalty/internal/models"
	"github.com/revisit-loyalty/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var saleAmountMax = decimal.RequireFromString(constants.SaleAmountMaxString)

// SaleService 消费登记服务
type SaleService struct {
	db             *gorm.DB
	restaurantRepo repository.RestaurantRepository
	customerRepo   repository.CustomerRepository
	rankRepo       repository.RankRepository
	staffRepo      repository.StaffRepository
	saleRepo       repository.SaleRepository
	txnRepo        repository.PointTransactionRepository
	staffSvc       *StaffService
	now            func() time.Time
}

// LookupSaleInput 消费预览输入，金额为货币单位的十进制字符串
type LookupSaleInput struct {
	CardNumber string
	Amount     string
}

// SalePreview 消费预览结果
type SalePreview struct {
	CustomerName  string `json:"customer_name"`
	CurrentRank   string `json:"current_rank"`
	PointsBalance int64  `json:"points_balance"`
	PointsPreview int64  `json:"points_preview"`
	CardNumber    string `json:"card_number"`
	AmountCents   int64  `json:"amount_cents"`
	StaffID       string `json:"staff_id"`
}

// RegisterSaleInput 消费登记输入
type RegisterSaleInput struct {
	CardNumber  string
	AmountCents int64
	StaffID     string
}

// SaleResult 消费登记结果
type SaleResult struct {
	SaleID       string `json:"sale_id"`
	PointsEarned int64  `json:"points_earned"`
	NewBalance   int64  `json:"new_balance"`
	CustomerName string `json:"customer_name"`
	RankPromoted bool   `json:"rank_promoted"`
	NewRankName  string `json:"new_rank_name"`
}

// NewSaleService 创建消费登记服务
func NewSaleService(
	db *gorm.DB,
	restaurantRepo repository.RestaurantRepository,
	customerRepo repository.CustomerRepository,
	rankRepo repository.RankRepository,
	staffRepo repository.StaffRepository,
	saleRepo repository.SaleRepository,
	txnRepo repository.PointTransactionRepository,
	staffSvc *StaffService,
) *SaleService {
	return &SaleService{
		db:             db,
		restaurantRepo: restaurantRepo,
		customerRepo:   customerRepo,
		rankRepo:       rankRepo,
		staffRepo:      staffRepo,
		saleRepo:       saleRepo,
		txnRepo:        txnRepo,
		staffSvc:       staffSvc,
		now:            time.Now,
	}
}

// ComputePoints 积分 = round(金额 × earn_rate × 倍率)，金额以分为单位
func ComputePoints(amountCents int64, earnRate int, multiplier decimal.Decimal) int64 {
	return decimal.NewFromInt(amountCents).Shift(-2).
		Mul(decimal.NewFromInt(int64(earnRate))).
		Mul(multiplier).
		Round(0).
		IntPart()
}

// ParseSaleAmount 解析金额并转为分，要求 0 < amount <= 99999.99
func ParseSaleAmount(raw string) (int64, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrSaleAmountInvalid
	}
	if !amount.IsPositive() || amount.GreaterThan(saleAmountMax) {
		return 0, ErrSaleAmountInvalid
	}
	cents := amount.Shift(2).Round(0).IntPart()
	if cents < 1 {
		return 0, ErrSaleAmountInvalid
	}
	return cents, nil
}

// Lookup 只读预览：会员信息与本次可得积分
func (s *SaleService) Lookup(ctx context.Context, actor Actor, input LookupSaleInput) (*SalePreview, error) {
	card := cardnumber.Normalize(input.CardNumber)
	if !cardnumber.Validate(card) {
		return nil, ErrInvalidCardFormat
	}
	amountCents, err := ParseSaleAmount(input.Amount)
	if err != nil {
		return nil, err
	}
	staff, err := s.staffSvc.ResolveStaff(ctx, actor)
	if err != nil {
		return nil, err
	}

	customer, err := s.customerRepo.WithContext(ctx).GetByCardNumber(actor.RestaurantID, card)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	restaurant, err := s.restaurantRepo.WithContext(ctx).GetByID(actor.RestaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, ErrRestaurantNotFound
	}
	var rank *models.Rank
	if customer.CurrentRankID != nil {
		if rank, err = s.rankRepo.WithContext(ctx).GetByID(actor.RestaurantID, *customer.CurrentRankID); err != nil {
			return nil, err
		}
	}
	info := ResolveRank(rank)
	return &SalePreview{
		CustomerName:  customer.Name,
		CurrentRank:   info.Name,
		PointsBalance: customer.PointsBalance,
		PointsPreview: ComputePoints(amountCents, restaurant.EarnRate, info.Multiplier),
		CardNumber:    customer.CardNumber,
		AmountCents:   amountCents,
		StaffID:       staff.ID,
	}, nil
}

// RegisterSale 原子登记消费：记录销售、发放积分、累计到店并按需晋升
func (s *SaleService) RegisterSale(ctx context.Context, actor Actor, input RegisterSaleInput) (*SaleResult, error) {
	start := time.Now()
	defer metrics.ObserveSince("sale_register", start)

	result, card, err := s.registerSale(ctx, actor, input)
	if err != nil {
		outcome := metrics.OutcomeError
		if ErrorTag(err) != "internal_error" {
			outcome = metrics.OutcomeRejected
		}
		metrics.SalesRegistered.WithLabelValues(outcome).Inc()
		logger.Card(actor.RestaurantID, input.CardNumber).Warnw("sale_register_failed",
			"amount_cents", input.AmountCents,
			"error", err,
		)
		return nil, err
	}
	metrics.SalesRegistered.WithLabelValues(metrics.OutcomeOK).Inc()
	if result.RankPromoted {
		metrics.RankPromotions.Inc()
	}
	invalidateCardCache(ctx, actor.RestaurantID, card)
	logger.Card(actor.RestaurantID, card).Infow("sale_registered",
		"sale_id", result.SaleID,
		"amount_cents", input.AmountCents,
		"points_earned", result.PointsEarned,
		"new_balance", result.NewBalance,
		"rank_promoted", result.RankPromoted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (s *SaleService) registerSale(ctx context.Context, actor Actor, input RegisterSaleInput) (*SaleResult, string, error) {
	if strings.TrimSpace(actor.RestaurantID) == "" {
		return nil, "", ErrTenantRequired
	}
	card := cardnumber.Normalize(input.CardNumber)
	if !cardnumber.Validate(card) {
		return nil, "", ErrInvalidCardFormat
	}
	if input.AmountCents < 1 || input.AmountCents > constants.SaleAmountMaxCents {
		return nil, "", ErrSaleAmountInvalid
	}
	staffID := strings.TrimSpace(input.StaffID)
	if staffID == "" {
		operator, err := s.staffSvc.ResolveStaff(ctx, actor)
		if err != nil {
			return nil, "", err
		}
		staffID = operator.ID
	} else if !models.IsUUID(staffID) {
		return nil, "", ErrInvalidStaffID
	}

	var result SaleResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		staff, err := s.staffRepo.WithTx(tx).GetByID(actor.RestaurantID, staffID)
		if err != nil {
			return err
		}
		if staff == nil || (actor.UserID != "" && staff.UserID != actor.UserID && actor.Role != constants.StaffRoleOwner) {
			return ErrNotAuthenticated
		}

		customerRepo := s.customerRepo.WithTx(tx)
		customer, err := customerRepo.GetByCardNumberForUpdate(actor.RestaurantID, card)
		if err != nil {
			return err
		}
		if customer == nil {
			return ErrCustomerNotFound
		}
		restaurant, err := s.restaurantRepo.WithTx(tx).GetByID(actor.RestaurantID)
		if err != nil {
			return err
		}
		if restaurant == nil {
			return ErrRestaurantNotFound
		}
		ranks, err := s.rankRepo.WithTx(tx).ListByRestaurant(actor.RestaurantID)
		if err != nil {
			return err
		}
		current := findRank(ranks, customer.CurrentRankID)
		points := ComputePoints(input.AmountCents, restaurant.EarnRate, ResolveRank(current).Multiplier)

		sale := &models.Sale{
			RestaurantID: actor.RestaurantID,
			CustomerID:   customer.ID,
			StaffID:      staff.ID,
			AmountCents:  input.AmountCents,
			PointsEarned: points,
		}
		if err := s.saleRepo.WithTx(tx).Create(sale); err != nil {
			return err
		}
		saleID := sale.ID
		if _, err := appendLedgerEntry(s.txnRepo.WithTx(tx), customer, ledgerEntry{
			Delta:       points,
			Type:        constants.PointTxnTypeEarn,
			ReferenceID: &saleID,
			StaffID:     &staff.ID,
		}); err != nil {
			return err
		}

		if customer.TotalSpend > math.MaxInt64-input.AmountCents {
			return ErrPointsOverflow
		}
		now := s.now()
		customer.VisitCount++
		customer.TotalSpend += input.AmountCents
		customer.LastVisitAt = &now

		result = SaleResult{
			SaleID:       sale.ID,
			PointsEarned: points,
			CustomerName: customer.Name,
			NewRankName:  ResolveRank(current).Name,
		}
		if target := TargetRank(ranks, customer.VisitCount); shouldPromote(current, target) {
			rankID := target.ID
			customer.CurrentRankID = &rankID
			result.RankPromoted = true
			result.NewRankName = target.Name
		}
		if err := customerRepo.UpdateLedgerState(customer); err != nil {
			return err
		}
		result.NewBalance = customer.PointsBalance
		return nil
	})
	if err != nil {
		return nil, card, err
	}
	return &result, card, nil
}
