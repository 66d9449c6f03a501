package repository

import (
	"context"

	"github.com/revisit-loyalty/internal/models"

	"gorm.io/gorm"
)

// PointTransactionRepository 积分流水数据访问接口
type PointTransactionRepository interface {
	Create(txn *models.PointTransaction) error
	List(restaurantID string, filter PointTransactionListFilter) ([]models.PointTransaction, int64, error)
	ListRecent(restaurantID, customerID string, limit int) ([]models.PointTransaction, error)
	ListAllByCustomer(restaurantID, customerID string) ([]models.PointTransaction, error)
	WithTx(tx *gorm.DB) *GormPointTransactionRepository
	WithContext(ctx context.Context) *GormPointTransactionRepository
}

// GormPointTransactionRepository GORM 积分流水仓储实现
type GormPointTransactionRepository struct {
	db *gorm.DB
}

// NewPointTransactionRepository 创建积分流水仓储
func NewPointTransactionRepository(db *gorm.DB) *GormPointTransactionRepository {
	return &GormPointTransactionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPointTransactionRepository) WithTx(tx *gorm.DB) *GormPointTransactionRepository {
	if tx == nil {
		return r
	}
	return &GormPointTransactionRepository{db: tx}
}

// WithContext 绑定请求上下文
func (r *GormPointTransactionRepository) WithContext(ctx context.Context) *GormPointTransactionRepository {
	if ctx == nil {
		return r
	}
	return &GormPointTransactionRepository{db: r.db.WithContext(ctx)}
}

// Create 追加积分流水
func (r *GormPointTransactionRepository) Create(txn *models.PointTransaction) error {
	if err := requireTenant(txn.RestaurantID); err != nil {
		return err
	}
	return r.db.Create(txn).Error
}

// List 分页查询积分流水（新到旧）
func (r *GormPointTransactionRepository) List(restaurantID string, filter PointTransactionListFilter) ([]models.PointTransaction, int64, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, 0, err
	}
	query := r.db.Model(&models.PointTransaction{}).Scopes(tenantScope(restaurantID))
	if filter.CustomerID != "" {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.TransactionType != "" {
		query = query.Where("transaction_type = ?", filter.TransactionType)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Scopes(paginateScope(filter.Page, filter.PageSize))

	var txns []models.PointTransaction
	if err := query.Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// ListRecent 获取会员最近的流水
func (r *GormPointTransactionRepository) ListRecent(restaurantID, customerID string, limit int) ([]models.PointTransaction, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	var txns []models.PointTransaction
	if err := r.db.Scopes(tenantScope(restaurantID)).
		Where("customer_id = ?", customerID).
		Order("id desc").
		Limit(limit).
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// ListAllByCustomer 按写入顺序返回会员全部流水
func (r *GormPointTransactionRepository) ListAllByCustomer(restaurantID, customerID string) ([]models.PointTransaction, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, err
	}
	var txns []models.PointTransaction
	if err := r.db.Scopes(tenantScope(restaurantID)).
		Where("customer_id = ?", customerID).
		Order("id asc").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
