package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/revisit-loyalty/internal/cache"
	"github.com/revisit-loyalty/internal/cardnumber"
	"github.com/revisit-loyalty/internal/constants"
	"github.com/revisit-loyalty/internal/logger"
	"github.com/revisit-loyalty/internal/metrics"
	"github.com/revisit-loyalty/internal/models"
	"github.com/revisit-loyalty/internal/repository"

	"gorm.io/gorm"
)

var (
	nonDigitPattern = regexp.MustCompile(`\D`)
	phonePattern    = regexp.MustCompile(`^\d{10,11}$`)
)

// CustomerService 会员登记与查询服务
type CustomerService struct {
	db             *gorm.DB
	restaurantRepo repository.RestaurantRepository
	customerRepo   repository.CustomerRepository
	rankRepo       repository.RankRepository
	txnRepo        repository.PointTransactionRepository
	opts           LoyaltyOptions
}

// RegisterCustomerInput 会员登记输入
type RegisterCustomerInput struct {
	RestaurantID string
	Name         string
	Phone        string
}

// RegisterResult 会员登记结果
type RegisterResult struct {
	CustomerID string `json:"customer_id"`
	CardNumber string `json:"card_number"`
	Name       string `json:"name"`
	RankName   string `json:"rank_name"`
	IsExisting bool   `json:"is_existing"`
}

// CardBalance 公开会员卡查询结果
type CardBalance struct {
	CardNumber    string                    `json:"card_number"`
	Name          string                    `json:"name"`
	ProgramName   string                    `json:"program_name"`
	PointsBalance int64                     `json:"points_balance"`
	VisitCount    int                       `json:"visit_count"`
	Rank          RankInfo                  `json:"rank"`
	Recent        []models.PointTransaction `json:"recent_transactions"`
}

// NewCustomerService 创建会员服务
func NewCustomerService(
	db *gorm.DB,
	restaurantRepo repository.RestaurantRepository,
	customerRepo repository.CustomerRepository,
	rankRepo repository.RankRepository,
	txnRepo repository.PointTransactionRepository,
	opts LoyaltyOptions,
) *CustomerService {
	return &CustomerService{
		db:             db,
		restaurantRepo: restaurantRepo,
		customerRepo:   customerRepo,
		rankRepo:       rankRepo,
		txnRepo:        txnRepo,
		opts:           opts,
	}
}

// NormalizePhone 仅保留数字
func NormalizePhone(phone string) string {
	return nonDigitPattern.ReplaceAllString(phone, "")
}

func validateRegistration(name, phone string) error {
	fields := fieldErrors{}
	length := utf8.RuneCountInString(name)
	if length < constants.CustomerNameMinLen || length > constants.CustomerNameMaxLen {
		fields.add("name", ErrCustomerNameInvalid)
	}
	if !phonePattern.MatchString(phone) {
		fields.add("phone", ErrCustomerPhoneInvalid)
	}
	return fields.err()
}

func phoneSuffix(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return phone[len(phone)-4:]
}

// Register 幂等登记会员：同一商户同一手机号只会生成一张卡
func (s *CustomerService) Register(ctx context.Context, input RegisterCustomerInput) (*RegisterResult, error) {
	start := time.Now()
	name := strings.TrimSpace(input.Name)
	phone := NormalizePhone(input.Phone)
	if err := validateRegistration(name, phone); err != nil {
		metrics.CustomerRegistrations.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, err
	}
	if strings.TrimSpace(input.RestaurantID) == "" {
		return nil, ErrTenantRequired
	}
	log := logger.Tenant(input.RestaurantID, "phone_last4", phoneSuffix(phone))
	log.Infow("customer_registration_started")
	defer metrics.ObserveSince("customer_register", start)

	result, err := s.register(ctx, input.RestaurantID, name, phone)
	if err != nil {
		metrics.CustomerRegistrations.WithLabelValues(metrics.OutcomeError).Inc()
		log.Warnw("customer_registration_failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}
	outcome := metrics.OutcomeOK
	if result.IsExisting {
		outcome = metrics.OutcomeExisting
	}
	metrics.CustomerRegistrations.WithLabelValues(outcome).Inc()
	log.Infow("customer_registration_completed",
		"card_number", result.CardNumber,
		"is_existing", result.IsExisting,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (s *CustomerService) register(ctx context.Context, restaurantID, name, phone string) (*RegisterResult, error) {
	customerRepo := s.customerRepo.WithContext(ctx)
	existing, err := customerRepo.GetByPhone(restaurantID, phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.buildRegisterResult(ctx, existing, true)
	}

	restaurant, err := s.restaurantRepo.WithContext(ctx).GetByID(restaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, ErrRestaurantNotFound
	}

	var (
		created *models.Customer
		entry   *models.Rank
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := s.restaurantRepo.WithTx(tx).NextCardSequence(restaurantID)
		if err != nil {
			return err
		}
		card, err := cardnumber.Encode(seq)
		if err != nil {
			if errors.Is(err, cardnumber.ErrSequenceOutOfRange) {
				return ErrCardCapacityExhausted
			}
			return err
		}
		entry, err = s.rankRepo.WithTx(tx).GetEntryRank(restaurantID)
		if err != nil {
			return err
		}
		customer := &models.Customer{
			RestaurantID: restaurantID,
			Name:         name,
			Phone:        phone,
			CardNumber:   card,
		}
		if entry != nil {
			rankID := entry.ID
			customer.CurrentRankID = &rankID
		}
		if err := s.customerRepo.WithTx(tx).Create(customer); err != nil {
			return err
		}
		created = customer
		return nil
	})
	if err != nil {
		if !repository.IsUniqueViolation(err) {
			return nil, err
		}
		// 并发登记同一手机号：读取胜出的一方
		winner, fetchErr := customerRepo.GetByPhone(restaurantID, phone)
		if fetchErr != nil {
			return nil, fetchErr
		}
		if winner == nil {
			return nil, err
		}
		return s.buildRegisterResult(ctx, winner, true)
	}

	rankName := s.opts.DefaultEntryRankName
	if entry != nil {
		rankName = entry.Name
	}
	return &RegisterResult{
		CustomerID: created.ID,
		CardNumber: created.CardNumber,
		Name:       created.Name,
		RankName:   rankName,
	}, nil
}

func (s *CustomerService) buildRegisterResult(ctx context.Context, customer *models.Customer, existing bool) (*RegisterResult, error) {
	rankName := s.opts.DefaultEntryRankName
	if customer.CurrentRankID != nil {
		rank, err := s.rankRepo.WithContext(ctx).GetByID(customer.RestaurantID, *customer.CurrentRankID)
		if err != nil {
			return nil, err
		}
		if rank != nil {
			rankName = rank.Name
		}
	}
	return &RegisterResult{
		CustomerID: customer.ID,
		CardNumber: customer.CardNumber,
		Name:       customer.Name,
		RankName:   rankName,
		IsExisting: existing,
	}, nil
}

// GetCardBalance 公开查询会员卡余额与最近流水
func (s *CustomerService) GetCardBalance(ctx context.Context, restaurantID, cardNumber string) (*CardBalance, error) {
	if strings.TrimSpace(restaurantID) == "" {
		return nil, ErrTenantRequired
	}
	cardNumber = cardnumber.Normalize(cardNumber)
	if !cardnumber.Validate(cardNumber) {
		return nil, ErrInvalidCardFormat
	}
	return cache.Remember(ctx, cache.CardBalanceKey(restaurantID, cardNumber), s.opts.CardCacheTTL, func(ctx context.Context) (*CardBalance, error) {
		return s.loadCardBalance(ctx, restaurantID, cardNumber)
	})
}

func (s *CustomerService) loadCardBalance(ctx context.Context, restaurantID, cardNumber string) (*CardBalance, error) {
	customer, err := s.customerRepo.WithContext(ctx).GetByCardNumber(restaurantID, cardNumber)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	restaurant, err := s.restaurantRepo.WithContext(ctx).GetByID(restaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, ErrRestaurantNotFound
	}
	var rank *models.Rank
	if customer.CurrentRankID != nil {
		if rank, err = s.rankRepo.WithContext(ctx).GetByID(restaurantID, *customer.CurrentRankID); err != nil {
			return nil, err
		}
	}
	recent, err := s.txnRepo.WithContext(ctx).ListRecent(restaurantID, customer.ID, s.opts.RecentTransactions)
	if err != nil {
		return nil, err
	}
	return &CardBalance{
		CardNumber:    customer.CardNumber,
		Name:          customer.Name,
		ProgramName:   restaurant.ProgramName,
		PointsBalance: customer.PointsBalance,
		VisitCount:    customer.VisitCount,
		Rank:          ResolveRank(rank),
		Recent:        recent,
	}, nil
}

// GetCustomer 获取商户内会员
func (s *CustomerService) GetCustomer(ctx context.Context, restaurantID, customerID string) (*models.Customer, error) {
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
	return customer, nil
}

// ListCustomers 分页查询会员
func (s *CustomerService) ListCustomers(ctx context.Context, restaurantID string, filter repository.CustomerListFilter) ([]models.Customer, int64, error) {
	if strings.TrimSpace(restaurantID) == "" {
		return nil, 0, ErrTenantRequired
	}
	return s.customerRepo.WithContext(ctx).List(restaurantID, filter)
}

// ListTransactions 分页查询会员积分流水
func (s *CustomerService) ListTransactions(ctx context.Context, restaurantID string, filter repository.PointTransactionListFilter) ([]models.PointTransaction, int64, error) {
	if _, err := s.GetCustomer(ctx, restaurantID, filter.CustomerID); err != nil {
		return nil, 0, err
	}
	return s.txnRepo.WithContext(ctx).List(restaurantID, filter)
}
