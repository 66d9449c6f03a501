package repository

import (
	"context"

	"github.com/revisit-loyalty/internal/models"

	"gorm.io/gorm"
)

// SaleRepository 消费记录数据访问接口
type SaleRepository interface {
	Create(sale *models.Sale) error
	GetByID(restaurantID, saleID string) (*models.Sale, error)
	CountByCustomer(restaurantID, customerID string) (int64, error)
	WithTx(tx *gorm.DB) *GormSaleRepository
	WithContext(ctx context.Context) *GormSaleRepository
}

// GormSaleRepository GORM 消费记录仓储实现
type GormSaleRepository struct {
	db *gorm.DB
}

// NewSaleRepository 创建消费记录仓储
func NewSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSaleRepository) WithTx(tx *gorm.DB) *GormSaleRepository {
	if tx == nil {
		return r
	}
	return &GormSaleRepository{db: tx}
}

// WithContext 绑定请求上下文
func (r *GormSaleRepository) WithContext(ctx context.Context) *GormSaleRepository {
	if ctx == nil {
		return r
	}
	return &GormSaleRepository{db: r.db.WithContext(ctx)}
}

// Create 创建消费记录
func (r *GormSaleRepository) Create(sale *models.Sale) error {
	if err := requireTenant(sale.RestaurantID); err != nil {
		return err
	}
	return r.db.Create(sale).Error
}

// GetByID 获取商户内消费记录
func (r *GormSaleRepository) GetByID(restaurantID, saleID string) (*models.Sale, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, err
	}
	var sale models.Sale
	if err := r.db.Scopes(tenantScope(restaurantID)).Where("id = ?", saleID).First(&sale).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &sale, nil
}

// CountByCustomer 统计会员消费次数
func (r *GormSaleRepository) CountByCustomer(restaurantID, customerID string) (int64, error) {
	if err := requireTenant(restaurantID); err != nil {
		return 0, err
	}
	var count int64
	err := r.db.Model(&models.Sale{}).Scopes(tenantScope(restaurantID)).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	return count, err
}
