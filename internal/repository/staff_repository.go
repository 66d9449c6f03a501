package repository

import (
	"context"
	"strings"

	"github.com/revisit-loyalty/internal/models"

	"gorm.io/gorm"
)

// StaffRepository 员工数据访问接口
type StaffRepository interface {
	GetByUserID(restaurantID, userID string) (*models.Staff, error)
	GetByID(restaurantID, staffID string) (*models.Staff, error)
	Create(staff *models.Staff) error
	ListByRestaurant(restaurantID string) ([]models.Staff, error)
	WithTx(tx *gorm.DB) *GormStaffRepository
	WithContext(ctx context.Context) *GormStaffRepository
}

// GormStaffRepository GORM 员工仓储实现
type GormStaffRepository struct {
	db *gorm.DB
}

// NewStaffRepository 创建员工仓储
func NewStaffRepository(db *gorm.DB) *GormStaffRepository {
	return &GormStaffRepository{db: db}
}

// WithTx 绑定事务
func (r *GormStaffRepository) WithTx(tx *gorm.DB) *GormStaffRepository {
	if tx == nil {
		return r
	}
	return &GormStaffRepository{db: tx}
}

// WithContext 绑定请求上下文
func (r *GormStaffRepository) WithContext(ctx context.Context) *GormStaffRepository {
	if ctx == nil {
		return r
	}
	return &GormStaffRepository{db: r.db.WithContext(ctx)}
}

// GetByUserID 按外部身份ID获取商户员工
func (r *GormStaffRepository) GetByUserID(restaurantID, userID string) (*models.Staff, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}
	var staff models.Staff
	if err := r.db.Scopes(tenantScope(restaurantID)).Where("user_id = ?", userID).First(&staff).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &staff, nil
}

// GetByID 获取商户内员工
func (r *GormStaffRepository) GetByID(restaurantID, staffID string) (*models.Staff, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, err
	}
	if staffID == "" {
		return nil, nil
	}
	var staff models.Staff
	if err := r.db.Scopes(tenantScope(restaurantID)).Where("id = ?", staffID).First(&staff).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &staff, nil
}

// Create 创建员工
func (r *GormStaffRepository) Create(staff *models.Staff) error {
	if err := requireTenant(staff.RestaurantID); err != nil {
		return err
	}
	return r.db.Create(staff).Error
}

// ListByRestaurant 获取商户全部员工
func (r *GormStaffRepository) ListByRestaurant(restaurantID string) ([]models.Staff, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, err
	}
	var staff []models.Staff
	if err := r.db.Scopes(tenantScope(restaurantID)).Order("created_at asc").Find(&staff).Error; err != nil {
		return nil, err
	}
	return staff, nil
}
