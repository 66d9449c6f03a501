package models

import (
	"time"

	"gorm.io/gorm"
)

// Restaurant 商户（租户）
type Restaurant struct {
	ID              string         `gorm:"primaryKey;type:varchar(36)" json:"id"`                           // 主键
	Slug            string         `gorm:"type:varchar(80);uniqueIndex;not null" json:"slug"`               // 公开访问标识
	Name            string         `gorm:"type:varchar(120);not null" json:"name"`                          // 商户名称
	ProgramName     string         `gorm:"type:varchar(100);not null;default:''" json:"program_name"`       // 积分计划名称
	EarnRate        int            `gorm:"not null;default:1" json:"earn_rate"`                             // 每货币单位积分数
	RewardType      string         `gorm:"type:varchar(32);not null;default:'cashback'" json:"reward_type"` // 奖励策略
	PointExpiryDays *int           `json:"point_expiry_days"`                                               // 积分有效天数，空或 0 表示不过期
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                                                      // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                                  // 软删除时间
}

// TableName 指定表名
func (Restaurant) TableName() string {
	return "restaurants"
}

// BeforeCreate 生成主键
func (r *Restaurant) BeforeCreate(*gorm.DB) error {
	ensureUUID(&r.ID)
	return nil
}

// ExpiryEnabled 是否开启积分过期
func (r *Restaurant) ExpiryEnabled() bool {
	return r != nil && r.PointExpiryDays != nil && *r.PointExpiryDays > 0
}

// CardSequence 租户卡号计数器
type CardSequence struct {
	RestaurantID string    `gorm:"primaryKey;type:varchar(36)" json:"restaurant_id"` // 商户ID
	LastValue    int       `gorm:"not null;default:0" json:"last_value"`             // 最近分配的序号
	UpdatedAt    time.Time `json:"updated_at"`                                       // 更新时间
}

// TableName 指定表名
func (CardSequence) TableName() string {
	return "card_sequences"
}
