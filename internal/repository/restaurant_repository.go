package repository

import (
	"context"
	"strings"
	"time"

	"github.com/revisit-loyalty/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RestaurantRepository 商户数据访问接口
type RestaurantRepository interface {
	GetByID(restaurantID string) (*models.Restaurant, error)
	GetBySlug(slug string) (*models.Restaurant, error)
	Create(restaurant *models.Restaurant) error
	UpdateSettings(restaurant *models.Restaurant) error
	ListExpiryEnabled() ([]models.Restaurant, error)
	NextCardSequence(restaurantID string) (int, error)
	WithTx(tx *gorm.DB) *GormRestaurantRepository
	WithContext(ctx context.Context) *GormRestaurantRepository
}

// GormRestaurantRepository GORM 商户仓储实现
type GormRestaurantRepository struct {
	db *gorm.DB
}

// NewRestaurantRepository 创建商户仓储
func NewRestaurantRepository(db *gorm.DB) *GormRestaurantRepository {
	return &GormRestaurantRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRestaurantRepository) WithTx(tx *gorm.DB) *GormRestaurantRepository {
	if tx == nil {
		return r
	}
	return &GormRestaurantRepository{db: tx}
}

// WithContext 绑定请求上下文
func (r *GormRestaurantRepository) WithContext(ctx context.Context) *GormRestaurantRepository {
	if ctx == nil {
		return r
	}
	return &GormRestaurantRepository{db: r.db.WithContext(ctx)}
}

// GetByID 按ID获取商户
func (r *GormRestaurantRepository) GetByID(restaurantID string) (*models.Restaurant, error) {
	if err := requireTenant(restaurantID); err != nil {
		return nil, err
	}
	var restaurant models.Restaurant
	if err := r.db.Where("id = ?", restaurantID).First(&restaurant).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &restaurant, nil
}

// GetBySlug 按 slug 获取商户
func (r *GormRestaurantRepository) GetBySlug(slug string) (*models.Restaurant, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, nil
	}
	var restaurant models.Restaurant
	if err := r.db.Where("slug = ?", slug).First(&restaurant).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &restaurant, nil
}

// Create 创建商户及其卡号计数器
func (r *GormRestaurantRepository) Create(restaurant *models.Restaurant) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(restaurant).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.CardSequence{RestaurantID: restaurant.ID}).Error
	})
}

// UpdateSettings 更新商户积分配置
func (r *GormRestaurantRepository) UpdateSettings(restaurant *models.Restaurant) error {
	if err := requireTenant(restaurant.ID); err != nil {
		return err
	}
	return r.db.Model(&models.Restaurant{}).
		Where("id = ?", restaurant.ID).
		Updates(map[string]interface{}{
			"name":              restaurant.Name,
			"program_name":      restaurant.ProgramName,
			"earn_rate":         restaurant.EarnRate,
			"reward_type":       restaurant.RewardType,
			"point_expiry_days": restaurant.PointExpiryDays,
			"updated_at":        time.Now(),
		}).Error
}

// ListExpiryEnabled 获取开启积分过期的商户
func (r *GormRestaurantRepository) ListExpiryEnabled() ([]models.Restaurant, error) {
	var restaurants []models.Restaurant
	if err := r.db.Where("point_expiry_days IS NOT NULL AND point_expiry_days > 0").
		Order("created_at asc").
		Find(&restaurants).Error; err != nil {
		return nil, err
	}
	return restaurants, nil
}

// NextCardSequence 原子递增并返回商户下一个卡号序号
//
// 计数器行被 UPDATE 锁住直到外层事务结束，跨进程安全。
func (r *GormRestaurantRepository) NextCardSequence(restaurantID string) (int, error) {
	if err := requireTenant(restaurantID); err != nil {
		return 0, err
	}
	var next int
	err := r.db.Transaction(func(tx *gorm.DB) error {
		increment := func() (int64, error) {
			result := tx.Model(&models.CardSequence{}).
				Where("restaurant_id = ?", restaurantID).
				UpdateColumn("last_value", gorm.Expr("last_value + 1"))
			return result.RowsAffected, result.Error
		}
		affected, err := increment()
		if err != nil {
			return err
		}
		if affected == 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.CardSequence{RestaurantID: restaurantID}).Error; err != nil {
				return err
			}
			if _, err := increment(); err != nil {
				return err
			}
		}
		var seq models.CardSequence
		if err := tx.Where("restaurant_id = ?", restaurantID).First(&seq).Error; err != nil {
			return err
		}
		next = seq.LastValue
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}
