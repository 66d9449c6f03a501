package models

import (
	"time"

	"gorm.io/gorm"
)

// Rank 会员等级
type Rank struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`                    // 主键
	RestaurantID string    `gorm:"type:varchar(36);index;not null" json:"restaurant_id"`     // 商户ID
	Name         string    `gorm:"type:varchar(50);not null" json:"name"`                    // 等级名称
	SortOrder    int       `gorm:"not null;default:0" json:"sort_order"`                     // 排序，0 为入门等级
	MinVisits    int       `gorm:"not null;default:0" json:"min_visits"`                     // 升级所需到店次数
	Multiplier   Rate      `gorm:"type:decimal(6,2);not null;default:1" json:"multiplier"`   // 积分倍率
	DiscountPct  Rate      `gorm:"type:decimal(5,2);not null;default:0" json:"discount_pct"` // 折扣百分比
	CreatedAt    time.Time `json:"created_at"`                                               // 创建时间
}

// TableName 指定表名
func (Rank) TableName() string {
	return "ranks"
}

// BeforeCreate 生成主键
func (r *Rank) BeforeCreate(*gorm.DB) error {
	ensureUUID(&r.ID)
	return nil
}
