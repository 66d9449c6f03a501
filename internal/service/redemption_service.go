package service

import (
	"context"
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

// RedemptionService 奖励查询与兑换服务
type RedemptionService struct {
	db             *gorm.DB
	restaurantRepo repository.RestaurantRepository
	customerRepo   repository.CustomerRepository
	rankRepo       repository.RankRepository
	rewardRepo     repository.RewardRepository
	txnRepo        repository.PointTransactionRepository
	staffSvc       *StaffService
	opts           LoyaltyOptions
}

// RewardInfo 会员当前可用奖励
type RewardInfo struct {
	Type            string           `json:"type"`
	Available       bool             `json:"available"`
	PointsBalance   int64            `json:"points_balance"`
	AvailableCredit int64            `json:"available_credit,omitempty"`
	RewardConfigID  string           `json:"reward_config_id,omitempty"`
	RewardName      string           `json:"reward_name,omitempty"`
	PointsRequired  int64            `json:"points_required,omitempty"`
	RankName        string           `json:"rank_name,omitempty"`
	DiscountPct     *decimal.Decimal `json:"discount_pct,omitempty"`
}

// RedeemInput 兑换输入
type RedeemInput struct {
	CardNumber     string
	RewardType     string
	RewardConfigID string
}

// RedemptionResult 兑换结果
type RedemptionResult struct {
	RedemptionID string `json:"redemption_id"`
	RewardType   string `json:"reward_type"`
	PointsSpent  int64  `json:"points_spent"`
	CreditCents  int64  `json:"credit_cents"`
	NewBalance   int64  `json:"new_balance"`
}

// NewRedemptionService 创建兑换服务
func NewRedemptionService(
	db *gorm.DB,
	restaurantRepo repository.RestaurantRepository,
	customerRepo repository.CustomerRepository,
	rankRepo repository.RankRepository,
	rewardRepo repository.RewardRepository,
	txnRepo repository.PointTransactionRepository,
	staffSvc *StaffService,
	opts LoyaltyOptions,
) *RedemptionService {
	return &RedemptionService{
		db:             db,
		restaurantRepo: restaurantRepo,
		customerRepo:   customerRepo,
		rankRepo:       rankRepo,
		rewardRepo:     rewardRepo,
		txnRepo:        txnRepo,
		staffSvc:       staffSvc,
		opts:           opts,
	}
}

// CheckReward 只读查询会员可用奖励
func (s *RedemptionService) CheckReward(ctx context.Context, restaurantID, cardNumber string) (*RewardInfo, error) {
	if strings.TrimSpace(restaurantID) == "" {
		return nil, ErrTenantRequired
	}
	card := cardnumber.Normalize(cardNumber)
	if !cardnumber.Validate(card) {
		return nil, ErrInvalidCardFormat
	}
	restaurant, err := s.restaurantRepo.WithContext(ctx).GetByID(restaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return &RewardInfo{Type: constants.RewardTypeNone}, nil
	}
	customer, err := s.customerRepo.WithContext(ctx).GetByCardNumber(restaurantID, card)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return &RewardInfo{Type: constants.RewardTypeNone}, nil
	}

	info := &RewardInfo{Type: restaurant.RewardType, PointsBalance: customer.PointsBalance}
	switch restaurant.RewardType {
	case constants.RewardTypeCashback:
		info.AvailableCredit = customer.PointsBalance / int64(restaurant.EarnRate)
		info.Available = info.AvailableCredit >= 1
	case constants.RewardTypeFreeProduct:
		config, err := s.rewardRepo.WithContext(ctx).FirstAffordableConfig(restaurantID, customer.PointsBalance)
		if err != nil {
			return nil, err
		}
		if config != nil {
			info.Available = true
			info.RewardConfigID = config.ID
			info.RewardName = config.Name
			info.PointsRequired = config.PointsRequired
		}
	case constants.RewardTypeProgressiveDiscount:
		var rank *models.Rank
		if customer.CurrentRankID != nil {
			if rank, err = s.rankRepo.WithContext(ctx).GetByID(restaurantID, *customer.CurrentRankID); err != nil {
				return nil, err
			}
		}
		resolved := ResolveRank(rank)
		discount := resolved.DiscountPct
		info.RankName = resolved.Name
		info.DiscountPct = &discount
		info.Available = discount.IsPositive()
	default:
		info.Type = constants.RewardTypeNone
	}
	return info, nil
}

// Redeem 原子兑换：校验余额、扣减积分、记录兑换与流水
func (s *RedemptionService) Redeem(ctx context.Context, actor Actor, input RedeemInput) (*RedemptionResult, error) {
	start := time.Now()
	defer metrics.ObserveSince("redeem", start)

	rewardType := strings.TrimSpace(input.RewardType)
	result, card, err := s.redeem(ctx, actor, rewardType, input)
	if err != nil {
		outcome := metrics.OutcomeError
		if ErrorTag(err) != "internal_error" {
			outcome = metrics.OutcomeRejected
		}
		metrics.Redemptions.WithLabelValues(rewardType, outcome).Inc()
		logger.Card(actor.RestaurantID, input.CardNumber).Warnw("redemption_failed",
			"reward_type", rewardType,
			"error", err,
		)
		return nil, err
	}
	metrics.Redemptions.WithLabelValues(rewardType, metrics.OutcomeOK).Inc()
	invalidateCardCache(ctx, actor.RestaurantID, card)
	logger.Card(actor.RestaurantID, card).Infow("redemption_registered",
		"redemption_id", result.RedemptionID,
		"reward_type", rewardType,
		"points_spent", result.PointsSpent,
		"new_balance", result.NewBalance,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (s *RedemptionService) redeem(ctx context.Context, actor Actor, rewardType string, input RedeemInput) (*RedemptionResult, string, error) {
	if strings.TrimSpace(actor.RestaurantID) == "" {
		return nil, "", ErrTenantRequired
	}
	card := cardnumber.Normalize(input.CardNumber)
	if !cardnumber.Validate(card) {
		return nil, "", ErrInvalidCardFormat
	}
	if !IsValidRewardType(rewardType) {
		return nil, card, ErrInvalidRewardType
	}
	configID := strings.TrimSpace(input.RewardConfigID)
	if rewardType == constants.RewardTypeFreeProduct && configID == "" {
		return nil, card, ErrRewardNotFound
	}
	staff, err := s.staffSvc.ResolveStaff(ctx, actor)
	if err != nil {
		return nil, card, err
	}

	var result RedemptionResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		restaurant, err := s.restaurantRepo.WithTx(tx).GetByID(actor.RestaurantID)
		if err != nil {
			return err
		}
		if restaurant == nil {
			return ErrRestaurantNotFound
		}
		if restaurant.RewardType != rewardType {
			return ErrInvalidRewardType
		}
		customerRepo := s.customerRepo.WithTx(tx)
		customer, err := customerRepo.GetByCardNumberForUpdate(actor.RestaurantID, card)
		if err != nil {
			return err
		}
		if customer == nil {
			return ErrCustomerNotFound
		}

		redemption := &models.RewardRedemption{
			RestaurantID: actor.RestaurantID,
			CustomerID:   customer.ID,
			RewardType:   rewardType,
			StaffID:      staff.ID,
		}
		entry := ledgerEntry{Type: constants.PointTxnTypeRedeem, StaffID: &staff.ID}

		switch rewardType {
		case constants.RewardTypeProgressiveDiscount:
			redemption.RankID = customer.CurrentRankID
			entry.Note = s.opts.ProgressiveDiscountNote
		default:
			cost, credit, note, err := s.pointCost(tx, restaurant, customer, configID)
			if err != nil {
				return err
			}
			if configID != "" {
				redemption.RewardConfigID = &configID
			}
			redemption.PointsSpent = cost
			redemption.CreditCents = credit * 100
			entry.Delta = -cost
			entry.Note = note
		}

		if err := s.rewardRepo.WithTx(tx).CreateRedemption(redemption); err != nil {
			return err
		}
		redemptionID := redemption.ID
		entry.ReferenceID = &redemptionID
		if _, err := appendLedgerEntry(s.txnRepo.WithTx(tx), customer, entry); err != nil {
			return err
		}
		if err := customerRepo.UpdateLedgerState(customer); err != nil {
			return err
		}
		result = RedemptionResult{
			RedemptionID: redemption.ID,
			RewardType:   rewardType,
			PointsSpent:  redemption.PointsSpent,
			CreditCents:  redemption.CreditCents,
			NewBalance:   customer.PointsBalance,
		}
		return nil
	})
	if err != nil {
		return nil, card, err
	}
	return &result, card, nil
}

// pointCost 计算积分类兑换的消耗与返现（货币单位）
func (s *RedemptionService) pointCost(tx *gorm.DB, restaurant *models.Restaurant, customer *models.Customer, configID string) (int64, int64, string, error) {
	earnRate := int64(restaurant.EarnRate)
	if configID != "" {
		config, err := s.rewardRepo.WithTx(tx).GetActiveConfig(restaurant.ID, configID)
		if err != nil {
			return 0, 0, "", err
		}
		if config == nil {
			return 0, 0, "", ErrRewardNotFound
		}
		if customer.PointsBalance < config.PointsRequired {
			return 0, 0, "", ErrInsufficientPoints
		}
		var credit int64
		if restaurant.RewardType == constants.RewardTypeCashback {
			credit = config.PointsRequired / earnRate
		}
		return config.PointsRequired, credit, config.Name, nil
	}
	credit := customer.PointsBalance / earnRate
	if credit < 1 {
		return 0, 0, "", ErrInsufficientPoints
	}
	return credit * earnRate, credit, "Cashback", nil
}

// ListRedemptions 分页查询兑换记录
func (s *RedemptionService) ListRedemptions(ctx context.Context, restaurantID string, filter repository.RedemptionListFilter) ([]models.RewardRedemption, int64, error) {
	if strings.TrimSpace(restaurantID) == "" {
		return nil, 0, ErrTenantRequired
	}
	return s.rewardRepo.WithContext(ctx).ListRedemptions(restaurantID, filter)
}
