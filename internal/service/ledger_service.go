package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/revisit-loyalty/internal/cache"
	"github.com/revisit-loyalty/internal/constants"
	"github.com/revisit-loyalty/internal/logger"
	"github.com/revisit-loyalty/internal/metrics"
	"github.com/revisit-loyalty/internal/models"
	"github.com/revisit-loyalty/internal/repository"

	"gorm.io/gorm"
)

const expiryBatchSize = 200

// ledgerEntry 待追加的积分变动
type ledgerEntry struct {
	Delta       int64
	Type        string
	ReferenceID *string
	StaffID     *string
	Note        string
}

// appendLedgerEntry 在持有会员行锁的事务内追加流水并更新内存中的余额
//
// 调用方负责随后持久化会员状态。
func appendLedgerEntry(txnRepo *repository.GormPointTransactionRepository, customer *models.Customer, entry ledgerEntry) (*models.PointTransaction, error) {
	if entry.Delta > 0 && customer.PointsBalance > math.MaxInt64-entry.Delta {
		return nil, ErrPointsOverflow
	}
	after := customer.PointsBalance + entry.Delta
	if after < 0 {
		return nil, ErrInsufficientPoints
	}
	txn := &models.PointTransaction{
		RestaurantID:    customer.RestaurantID,
		CustomerID:      customer.ID,
		PointsDelta:     entry.Delta,
		BalanceAfter:    after,
		TransactionType: entry.Type,
		ReferenceID:     entry.ReferenceID,
		StaffID:         entry.StaffID,
		Note:            entry.Note,
	}
	if err := txnRepo.Create(txn); err != nil {
		return nil, err
	}
	customer.PointsBalance = after
	switch {
	case entry.Delta > 0 && entry.Type == constants.PointTxnTypeEarn:
		metrics.PointsIssued.Add(float64(entry.Delta))
	case entry.Delta < 0:
		metrics.PointsDebited.WithLabelValues(entry.Type).Add(float64(-entry.Delta))
	}
	return txn, nil
}

// invalidateCardCache 提交后清理会员卡余额缓存
func invalidateCardCache(ctx context.Context, restaurantID, cardNumber string) {
	if err := cache.Del(ctx, cache.CardBalanceKey(restaurantID, cardNumber)); err != nil {
		logger.Warnw("card_cache_invalidate_failed",
			"restaurant_id", restaurantID,
			"card_number", cardNumber,
			"error", err,
		)
	}
}

// invalidateTenantCards 等级或商户配置变化后清理该租户全部会员卡缓存
var invalidateTenantCards = func(ctx context.Context, restaurantID string) {
	deleted, err := cache.DelPrefix(ctx, cache.CardBalancePrefix(restaurantID))
	if err != nil {
		logger.Tenant(restaurantID).Warnw("card_cache_invalidate_failed", "deleted", deleted, "error", err)
		return
	}
	if deleted > 0 {
		logger.Tenant(restaurantID).Debugw("card_cache_invalidated", "deleted", deleted)
	}
}

// LedgerService 积分流水服务（人工调整、过期、对账）
type LedgerService struct {
	db             *gorm.DB
	restaurantRepo repository.RestaurantRepository
	customerRepo   repository.CustomerRepository
	txnRepo        repository.PointTransactionRepository
	staffSvc       *StaffService
	now            func() time.Time
}

// AdjustInput 人工调整输入
type AdjustInput struct {
	CustomerID string
	Delta      int64
	Note       string
}

// AdjustResult 人工调整结果
type AdjustResult struct {
	TransactionID uint  `json:"transaction_id"`
	NewBalance    int64 `json:"new_balance"`
}

// ExpiryResult 积分过期扫描结果
type ExpiryResult struct {
	RestaurantID     string `json:"restaurant_id"`
	CustomersExpired int    `json:"customers_expired"`
	PointsExpired    int64  `json:"points_expired"`
}

// LedgerReport 对账结果
type LedgerReport struct {
	CustomerID    string `json:"customer_id"`
	Entries       int    `json:"entries"`
	ReplayedTotal int64  `json:"replayed_total"`
	PointsBalance int64  `json:"points_balance"`
	Consistent    bool   `json:"consistent"`
	FirstMismatch *uint  `json:"first_mismatch,omitempty"`
	NegativeSeen  bool   `json:"negative_balance_seen"`
}

// NewLedgerService 创建积分流水服务
func NewLedgerService(
	db *gorm.DB,
	restaurantRepo repository.RestaurantRepository,
	customerRepo repository.CustomerRepository,
	txnRepo repository.PointTransactionRepository,
	staffSvc *StaffService,
) *LedgerService {
	return &LedgerService{
		db:             db,
		restaurantRepo: restaurantRepo,
		customerRepo:   customerRepo,
		txnRepo:        txnRepo,
		staffSvc:       staffSvc,
		now:            time.Now,
	}
}

// Adjust 人工调整积分，结果不得为负
func (s *LedgerService) Adjust(ctx context.Context, actor Actor, input AdjustInput) (*AdjustResult, error) {
	note := strings.TrimSpace(input.Note)
	if input.Delta == 0 || note == "" || len(note) > 255 {
		return nil, ErrAdjustmentInvalid
	}
	staff, err := s.staffSvc.ResolveStaff(ctx, actor)
	if err != nil {
		return nil, err
	}

	var (
		result     AdjustResult
		cardNumber string
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customerRepo := s.customerRepo.WithTx(tx)
		customer, err := customerRepo.GetByIDForUpdate(actor.RestaurantID, input.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return ErrCustomerNotFound
		}
		staffID := staff.ID
		txn, err := appendLedgerEntry(s.txnRepo.WithTx(tx), customer, ledgerEntry{
			Delta:   input.Delta,
			Type:    constants.PointTxnTypeAdjustment,
			StaffID: &staffID,
			Note:    note,
		})
		if err != nil {
			return err
		}
		if err := customerRepo.UpdateLedgerState(customer); err != nil {
			return err
		}
		result = AdjustResult{TransactionID: txn.ID, NewBalance: customer.PointsBalance}
		cardNumber = customer.CardNumber
		return nil
	})
	if err != nil {
		return nil, err
	}
	invalidateCardCache(ctx, actor.RestaurantID, cardNumber)
	logger.Tenant(actor.RestaurantID).Infow("points_adjusted",
		"customer_id", input.CustomerID,
		"delta", input.Delta,
		"new_balance", result.NewBalance,
		"staff_id", staff.ID,
	)
	return &result, nil
}

// ExpireRestaurant 将超过有效期未到店会员的余额清零
func (s *LedgerService) ExpireRestaurant(ctx context.Context, restaurantID string) (*ExpiryResult, error) {
	if strings.TrimSpace(restaurantID) == "" {
		return nil, ErrTenantRequired
	}
	restaurant, err := s.restaurantRepo.WithContext(ctx).GetByID(restaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, ErrRestaurantNotFound
	}
	result := &ExpiryResult{RestaurantID: restaurantID}
	if !restaurant.ExpiryEnabled() {
		return result, nil
	}
	cutoff := s.now().AddDate(0, 0, -*restaurant.PointExpiryDays)

	for {
		batch, err := s.customerRepo.WithContext(ctx).ListExpirable(restaurantID, cutoff, expiryBatchSize)
		if err != nil {
			return result, err
		}
		expiredInBatch := 0
		for _, candidate := range batch {
			points, card, err := s.expireCustomer(ctx, restaurantID, candidate.ID, cutoff)
			if err != nil {
				return result, err
			}
			if points == 0 {
				continue
			}
			expiredInBatch++
			result.CustomersExpired++
			result.PointsExpired += points
			invalidateCardCache(ctx, restaurantID, card)
		}
		if len(batch) < expiryBatchSize || expiredInBatch == 0 {
			break
		}
	}

	if result.CustomersExpired > 0 {
		logger.Tenant(restaurantID).Infow("points_expired",
			"customers", result.CustomersExpired,
			"points", result.PointsExpired,
			"cutoff", cutoff,
		)
	}
	return result, nil
}

func (s *LedgerService) expireCustomer(ctx context.Context, restaurantID, customerID string, cutoff time.Time) (int64, string, error) {
	var (
		expired int64
		card    string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customerRepo := s.customerRepo.WithTx(tx)
		customer, err := customerRepo.GetByIDForUpdate(restaurantID, customerID)
		if err != nil || customer == nil {
			return err
		}
		if customer.PointsBalance <= 0 || !customer.LastActivityAt().Before(cutoff) {
			return nil
		}
		amount := customer.PointsBalance
		if _, err := appendLedgerEntry(s.txnRepo.WithTx(tx), customer, ledgerEntry{
			Delta: -amount,
			Type:  constants.PointTxnTypeExpiry,
			Note:  "Pontos expirados",
		}); err != nil {
			return err
		}
		if err := customerRepo.UpdateLedgerState(customer); err != nil {
			return err
		}
		expired = amount
		card = customer.CardNumber
		return nil
	})
	return expired, card, err
}

// VerifyLedger 重放会员流水并与余额对账
func (s *LedgerService) VerifyLedger(ctx context.Context, restaurantID, customerID string) (*LedgerReport, error) {
	if strings.TrimSpace(restaurantID) == "" {
		return nil, ErrTenantRequired
	}
	customer, err := s.customerRepo.WithContext(ctx).GetByID(restaurantID, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	txns, err := s.txnRepo.WithContext(ctx).ListAllByCustomer(restaurantID, customerID)
	if err != nil {
		return nil, err
	}
	report := &LedgerReport{
		CustomerID:    customerID,
		Entries:       len(txns),
		PointsBalance: customer.PointsBalance,
		Consistent:    true,
	}
	var running int64
	for _, txn := range txns {
		running += txn.PointsDelta
		if running < 0 {
			report.NegativeSeen = true
		}
		if running != txn.BalanceAfter && report.FirstMismatch == nil {
			id := txn.ID
			report.FirstMismatch = &id
			report.Consistent = false
		}
	}
	report.ReplayedTotal = running
	if running != customer.PointsBalance || report.NegativeSeen {
		report.Consistent = false
	}
	return report, nil
}
