package models

import (
	"time"

	"gorm.io/gorm"
)

// RewardConfig 奖励配置
type RewardConfig struct {
	ID             string         `gorm:"primaryKey;type:varchar(36)" json:"id"`                // 主键
	RestaurantID   string         `gorm:"type:varchar(36);index;not null" json:"restaurant_id"` // 商户ID
	Name           string         `gorm:"type:varchar(120);not null" json:"name"`               // 奖励名称
	PointsRequired int64          `gorm:"not null" json:"points_required"`                      // 所需积分
	IsActive       bool           `gorm:"not null;index" json:"is_active"`                      // 是否启用
	CreatedAt      time.Time      `json:"created_at"`                                           // 创建时间
	UpdatedAt      time.Time      `json:"updated_at"`                                           // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                       // 软删除时间
}

// TableName 指定表名
func (RewardConfig) TableName() string {
	return "reward_configs"
}

// BeforeCreate 生成主键
func (r *RewardConfig) BeforeCreate(*gorm.DB) error {
	ensureUUID(&r.ID)
	return nil
}

// RewardRedemption 兑换记录（不可变）
type RewardRedemption struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`                // 主键
	RestaurantID   string    `gorm:"type:varchar(36);index;not null" json:"restaurant_id"` // 商户ID
	CustomerID     string    `gorm:"type:varchar(36);index;not null" json:"customer_id"`   // 会员ID
	RewardType     string    `gorm:"type:varchar(32);not null" json:"reward_type"`         // 奖励策略
	RewardConfigID *string   `gorm:"type:varchar(36);index" json:"reward_config_id"`       // 奖励配置
	RankID         *string   `gorm:"type:varchar(36)" json:"rank_id"`                      // 折扣所依据的等级
	PointsSpent    int64     `gorm:"not null;default:0" json:"points_spent"`               // 消耗积分
	CreditCents    int64     `gorm:"not null;default:0" json:"credit_cents"`               // 返现金额（分）
	StaffID        string    `gorm:"type:varchar(36);index;not null" json:"staff_id"`      // 操作员工
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                              // 创建时间
}

// TableName 指定表名
func (RewardRedemption) TableName() string {
	return "reward_redemptions"
}

// BeforeCreate 生成主键
func (r *RewardRedemption) BeforeCreate(*gorm.DB) error {
	ensureUUID(&r.ID)
	return nil
}
