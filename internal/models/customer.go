package models

import (
	"time"

	"gorm.io/gorm"
)

// Customer 会员
type Customer struct {
	ID            string         `gorm:"primaryKey;type:varchar(36)" json:"id"`                                                                                                              // 主键
	RestaurantID  string         `gorm:"type:varchar(36);not null;uniqueIndex:idx_customer_tenant_phone,where:deleted_at IS NULL;uniqueIndex:idx_customer_tenant_card" json:"restaurant_id"` // 商户ID
	Name          string         `gorm:"type:varchar(100);not null" json:"name"`                                                                                                             // 姓名
	Phone         string         `gorm:"type:varchar(20);not null;uniqueIndex:idx_customer_tenant_phone,where:deleted_at IS NULL" json:"phone"`                                              // 手机号（仅数字）
	CardNumber    string         `gorm:"type:varchar(8);not null;uniqueIndex:idx_customer_tenant_card" json:"card_number"`                                                                   // 会员卡号
	PointsBalance int64          `gorm:"not null;default:0" json:"points_balance"`                                                                                                           // 积分余额
	VisitCount    int            `gorm:"not null;default:0" json:"visit_count"`                                                                                                              // 到店次数
	TotalSpend    int64          `gorm:"not null;default:0" json:"total_spend"`                                                                                                              // 累计消费（分）
	CurrentRankID *string        `gorm:"type:varchar(36);index" json:"current_rank_id"`                                                                                                      // 当前等级
	LastVisitAt   *time.Time     `gorm:"index" json:"last_visit_at"`                                                                                                                         // 最近到店时间
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                                                                                                            // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                                                                                                                                         // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                                                                                                                     // 软删除时间
}

// TableName 指定表名
func (Customer) TableName() string {
	return "customers"
}

// BeforeCreate 生成主键
func (c *Customer) BeforeCreate(*gorm.DB) error {
	ensureUUID(&c.ID)
	return nil
}

// LastActivityAt 最近活跃时间（无到店记录时取注册时间）
func (c *Customer) LastActivityAt() time.Time {
	if c.LastVisitAt != nil {
		return *c.LastVisitAt
	}
	return c.CreatedAt
}
