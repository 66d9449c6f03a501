package repository

import (
	"context"
	"time"

	"github.com/revisit-loyalty/internal/models"

	"gorm.io/gorm"
)

// RewardRepository 奖励配置与兑换记录数据访问接口
type RewardRepository interface {
	ListConfigs(restaurantID string, onlyActive bool) ([]models.RewardConfig, error)
	GetConfig(restaurantID, configID string) (*models.RewardConfig, error)
	GetActiveConfig(restaurantID, configID string) (*models.RewardConfig, error)
	FirstAffordableConfig(restaurantID string, balance int64) (*models.RewardConfig, error)
	CreateConfig(config *models.RewardConfig) error
	UpdateConfig(config *models.RewardConfig) error
	CreateRedemption(redemption *models.RewardRedemption) error
	ListRedemptions(restaurantID string, filter RedemptionListFilter) ([]models.RewardRedemption, int64, error)
	WithTx(tx *gorm.DB) *GormRewardRepository
	WithContext(ctx context.Context) *GormRewardRepository
}

// GormRewardRepository GORM 奖励仓储实现
type GormRewardRepository struct {
	db *gorm.DB
}

// NewRewardRepository 创建奖励仓储
func NewRewardRepository(db *gorm.DB) *GormRewardRepository {
	return &GormRewardRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRewardRepository) WithTx(tx *gorm.DB) *GormRewardRepository {
	if tx == nil {
		return r
	}
	return &GormRewardRepository{db: tx}
}

// WithContext 绑定请求上下文
func (r *GormRewardRepository) WithContext(ctx context.Context) *GormRewardRepository {
	if ctx == nil {
		return r
	}
	return &GormRewardRepository{db: r.db.WithContext(ctx)}
}

// ListConfigs 按所需积分升序返回奖励配置
func (r *GormRewardRepository) ListConfigs(restaurantID string, onlyActive bool) ([]models.RewardConfig, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, err
	}
	query := r.db.Scopes(tenantScope(restaurantID))
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var configs []models.RewardConfig
	if err := query.Order("points_required asc").Order("created_at asc").Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

// GetConfig 获取商户内奖励配置
func (r *GormRewardRepository) GetConfig(restaurantID, configID string) (*models.RewardConfig, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, err
	}
	if configID == "" {
		return nil, nil
	}
	var config models.RewardConfig
	if err := r.db.Scopes(tenantScope(restaurantID)).Where("id = ?", configID).First(&config).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &config, nil
}

// GetActiveConfig 获取商户内启用的奖励配置
func (r *GormRewardRepository) GetActiveConfig(restaurantID, configID string) (*models.RewardConfig, error) {
	config, err := r.GetConfig(restaurantID, configID)
	if err != nil || config == nil {
		return nil, err
	}
	if !config.IsActive {
		return nil, nil
	}
	return config, nil
}

// FirstAffordableConfig 返回余额可兑换的最便宜奖励
func (r *GormRewardRepository) FirstAffordableConfig(restaurantID string, balance int64) (*models.RewardConfig, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, err
	}
	var config models.RewardConfig
	if err := r.db.Scopes(tenantScope(restaurantID)).
		Where("is_active = ? AND points_required <= ?", true, balance).
		Order("points_required asc").Order("created_at asc").
		First(&config).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &config, nil
}

// CreateConfig 创建奖励配置
func (r *GormRewardRepository) CreateConfig(config *models.RewardConfig) error {
	if err := requireTenant(config.RestaurantID); err != nil {
		return err
	}
	return r.db.Create(config).Error
}

// UpdateConfig 更新奖励配置
func (r *GormRewardRepository) UpdateConfig(config *models.RewardConfig) error {
	if err := requireTenant(config.RestaurantID); err != nil {
		return err
	}
	return r.db.Model(&models.RewardConfig{}).
		Scopes(tenantScope(config.RestaurantID)).
		Where("id = ?", config.ID).
		Updates(map[string]interface{}{
			"name":            config.Name,
			"points_required": config.PointsRequired,
			"is_active":       config.IsActive,
			"updated_at":      time.Now(),
		}).Error
}

// CreateRedemption 创建兑换记录
func (r *GormRewardRepository) CreateRedemption(redemption *models.RewardRedemption) error {
	if err := requireTenant(redemption.RestaurantID); err != nil {
		return err
	}
	return r.db.Create(redemption).Error
}

// ListRedemptions 分页查询兑换记录
func (r *GormRewardRepository) ListRedemptions(restaurantID string, filter RedemptionListFilter) ([]models.RewardRedemption, int64, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, 0, err
	}
	query := r.db.Model(&models.RewardRedemption{}).Scopes(tenantScope(restaurantID))
	if filter.CustomerID != "" {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.RewardType != "" {
		query = query.Where("reward_type = ?", filter.RewardType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Scopes(paginateScope(filter.Page, filter.PageSize))

	var redemptions []models.RewardRedemption
	if err := query.Order("created_at desc").Find(&redemptions).Error; err != nil {
		return nil, 0, err
	}
	return redemptions, total, nil
}
