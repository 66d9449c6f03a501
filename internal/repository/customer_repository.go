package repository

import (
	"context"
	"strings"
	"time"

	"github.com/revisit-loyalty/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CustomerRepository 会员数据访问接口
type CustomerRepository interface {
	GetByID(restaurantID, customerID string) (*models.Customer, error)
	GetByIDForUpdate(restaurantID, customerID string) (*models.Customer, error)
	GetByPhone(restaurantID, phone string) (*models.Customer, error)
	GetByCardNumber(restaurantID, cardNumber string) (*models.Customer, error)
	GetByCardNumberForUpdate(restaurantID, cardNumber string) (*models.Customer, error)
	Create(customer *models.Customer) error
	UpdateLedgerState(customer *models.Customer) error
	List(restaurantID string, filter CustomerListFilter) ([]models.Customer, int64, error)
	ListExpirable(restaurantID string, cutoff time.Time, limit int) ([]models.Customer, error)
	ListForRankRemap(restaurantID string) ([]models.Customer, error)
	SetRank(restaurantID, customerID string, rankID *string) error
	WithTx(tx *gorm.DB) *GormCustomerRepository
	WithContext(ctx context.Context) *GormCustomerRepository
}

// GormCustomerRepository GORM 会员仓储实现
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository 创建会员仓储
func NewCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCustomerRepository) WithTx(tx *gorm.DB) *GormCustomerRepository {
	if tx == nil {
		return r
	}
	return &GormCustomerRepository{db: tx}
}

// WithContext 绑定请求上下文
func (r *GormCustomerRepository) WithContext(ctx context.Context) *GormCustomerRepository {
	if ctx == nil {
		return r
	}
	return &GormCustomerRepository{db: r.db.WithContext(ctx)}
}

func (r *GormCustomerRepository) first(query *gorm.DB) (*models.Customer, error) {
	var customer models.Customer
	if err := query.First(&customer).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &customer, nil
}

// GetByID 获取商户内会员
func (r *GormCustomerRepository) GetByID(restaurantID, customerID string) (*models.Customer, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, err
	}
	if customerID == "" {
		return nil, nil
	}
	return r.first(r.db.Scopes(tenantScope(restaurantID)).Where("id = ?", customerID))
}

// GetByIDForUpdate 加锁获取商户内会员
func (r *GormCustomerRepository) GetByIDForUpdate(restaurantID, customerID string) (*models.Customer, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, err
	}
	if customerID == "" {
		return nil, nil
	}
	return r.first(r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenantScope(restaurantID)).
		Where("id = ?", customerID))
}

// GetByPhone 按手机号获取未删除会员
func (r *GormCustomerRepository) GetByPhone(restaurantID, phone string) (*models.Customer, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, err
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, nil
	}
	return r.first(r.db.Scopes(tenantScope(restaurantID)).Where("phone = ?", phone))
}

// GetByCardNumber 按卡号获取会员
func (r *GormCustomerRepository) GetByCardNumber(restaurantID, cardNumber string) (*models.Customer, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, err
	}
	if cardNumber == "" {
		return nil, nil
	}
	return r.first(r.db.Scopes(tenantScope(restaurantID)).Where("card_number = ?", cardNumber))
}

// GetByCardNumberForUpdate 按卡号加锁获取会员
func (r *GormCustomerRepository) GetByCardNumberForUpdate(restaurantID, cardNumber string) (*models.Customer, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, err
	}
	if cardNumber == "" {
		return nil, nil
	}
	return r.first(r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenantScope(restaurantID)).
		Where("card_number = ?", cardNumber))
}

// Create 创建会员
func (r *GormCustomerRepository) Create(customer *models.Customer) error {
	if err := requireTenant(customer.RestaurantID); err != nil {
		return err
	}
	return r.db.Create(customer).Error
}

// UpdateLedgerState 写回余额、到店次数、消费与等级
func (r *GormCustomerRepository) UpdateLedgerState(customer *models.Customer) error {
	if err := requireTenant(customer.RestaurantID); err != nil {
		return err
	}
	return r.db.Model(&models.Customer{}).
		Scopes(tenantScope(customer.RestaurantID)).
		Where("id = ?", customer.ID).
		Updates(map[string]interface{}{
			"points_balance":  customer.PointsBalance,
			"visit_count":     customer.VisitCount,
			"total_spend":     customer.TotalSpend,
			"current_rank_id": customer.CurrentRankID,
			"last_visit_at":   customer.LastVisitAt,
			"updated_at":      time.Now(),
		}).Error
}

// List 分页查询会员
func (r *GormCustomerRepository) List(restaurantID string, filter CustomerListFilter) ([]models.Customer, int64, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, 0, err
	}
	query := r.db.Model(&models.Customer{}).Scopes(
		tenantScope(restaurantID),
		keywordScope(filter.Search, "name", "phone", "card_number"),
	)
	if filter.RankID != "" {
		query = query.Where("current_rank_id = ?", filter.RankID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Scopes(paginateScope(filter.Page, filter.PageSize))

	var customers []models.Customer
	if err := query.Order("card_number asc").Find(&customers).Error; err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

// ListExpirable 获取最近活跃早于 cutoff 且仍有余额的会员
func (r *GormCustomerRepository) ListExpirable(restaurantID string, cutoff time.Time, limit int) ([]models.Customer, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, err
	}
	query := r.db.Scopes(tenantScope(restaurantID)).
		Where("points_balance > 0").
		Where("(last_visit_at IS NOT NULL AND last_visit_at < ?) OR (last_visit_at IS NULL AND created_at < ?)", cutoff, cutoff).
		Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var customers []models.Customer
	if err := query.Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

// ListForRankRemap 获取商户全部会员的等级相关字段
func (r *GormCustomerRepository) ListForRankRemap(restaurantID string) ([]models.Customer, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, err
	}
	var customers []models.Customer
	if err := r.db.Scopes(tenantScope(restaurantID)).
		Select("id", "restaurant_id", "visit_count", "current_rank_id").
		Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

// SetRank 更新会员等级
func (r *GormCustomerRepository) SetRank(restaurantID, customerID string, rankID *string) error {
	if err := requireTenant(restaurantID); err != nil {
		return err
	}
	return r.db.Model(&models.Customer{}).
		Scopes(tenantScope(restaurantID)).
		Where("id = ?", customerID).
		UpdateColumn("current_rank_id", rankID).Error
}
