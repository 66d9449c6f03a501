package repository

import (
	"context"

	"github.com/revisit-loyalty/internal/models"

	"gorm.io/gorm"
)

// RankRepository 会员等级数据访问接口
type RankRepository interface {
	ListByRestaurant(restaurantID string) ([]models.Rank, error)
	GetByID(restaurantID, rankID string) (*models.Rank, error)
	GetEntryRank(restaurantID string) (*models.Rank, error)
	ReplaceAll(restaurantID string, ranks []models.Rank) error
	WithTx(tx *gorm.DB) *GormRankRepository
	WithContext(ctx context.Context) *GormRankRepository
}

// GormRankRepository GORM 等级仓储实现
type GormRankRepository struct {
	db *gorm.DB
}

// NewRankRepository 创建等级仓储
func NewRankRepository(db *gorm.DB) *GormRankRepository {
	return &GormRankRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRankRepository) WithTx(tx *gorm.DB) *GormRankRepository {
	if tx == nil {
		return r
	}
	return &GormRankRepository{db: tx}
}

// WithContext 绑定请求上下文
func (r *GormRankRepository) WithContext(ctx context.Context) *GormRankRepository {
	if ctx == nil {
		return r
	}
	return &GormRankRepository{db: r.db.WithContext(ctx)}
}

// ListByRestaurant 按 sort_order 升序返回商户全部等级
func (r *GormRankRepository) ListByRestaurant(restaurantID string) ([]models.Rank, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, err
	}
	var ranks []models.Rank
	if err := r.db.Scopes(tenantScope(restaurantID)).
		Order("sort_order asc").Order("min_visits asc").
		Find(&ranks).Error; err != nil {
		return nil, err
	}
	return ranks, nil
}

// GetByID 获取商户内的等级
func (r *GormRankRepository) GetByID(restaurantID, rankID string) (*models.Rank, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, err
	}
	if rankID == "" {
		return nil, nil
	}
	var rank models.Rank
	if err := r.db.Scopes(tenantScope(restaurantID)).Where("id = ?", rankID).First(&rank).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &rank, nil
}

// GetEntryRank 获取入门等级（sort_order 最小）
func (r *GormRankRepository) GetEntryRank(restaurantID string) (*models.Rank, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, err
	}
	var rank models.Rank
	if err := r.db.Scopes(tenantScope(restaurantID)).
		Order("sort_order asc").Order("min_visits asc").
		First(&rank).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &rank, nil
}

// ReplaceAll 整体替换商户等级，调用方需在事务中执行
func (r *GormRankRepository) ReplaceAll(restaurantID string, ranks []models.Rank) error {
	if err := requireTenant(restaurantID); err != nil {
		return err
	}
	if err := r.db.Scopes(tenantScope(restaurantID)).Delete(&models.Rank{}).Error; err != nil {
		return err
	}
	if len(ranks) == 0 {
		return nil
	}
	for i := range ranks {
		ranks[i].RestaurantID = restaurantID
	}
	return r.db.Create(&ranks).Error
}
