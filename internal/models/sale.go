package models

import (
	"time"

	"gorm.io/gorm"
)

// Sale 消费记录（不可变）
type Sale struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`                // 主键
	RestaurantID string    `gorm:"type:varchar(36);index;not null" json:"restaurant_id"` // 商户ID
	CustomerID   string    `gorm:"type:varchar(36);index;not null" json:"customer_id"`   // 会员ID
	StaffID      string    `gorm:"type:varchar(36);index;not null" json:"staff_id"`      // 收银员工
	AmountCents  int64     `gorm:"not null" json:"amount_cents"`                         // 消费金额（分）
	PointsEarned int64     `gorm:"not null;default:0" json:"points_earned"`              // 获得积分
	CreatedAt    time.Time `gorm:"index" json:"created_at"`                              // 创建时间
}

// TableName 指定表名
func (Sale) TableName() string {
	return "sales"
}

// BeforeCreate 生成主键
func (s *Sale) BeforeCreate(*gorm.DB) error {
	ensureUUID(&s.ID)
	return nil
}
