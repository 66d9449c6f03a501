package models

import "time"

// PointTransaction 积分流水（只追加）
type PointTransaction struct {
	ID              uint      `gorm:"primarykey" json:"id"`                                     // 主键，全序
	RestaurantID    string    `gorm:"type:varchar(36);index;not null" json:"restaurant_id"`     // 商户ID
	CustomerID      string    `gorm:"type:varchar(36);index;not null" json:"customer_id"`       // 会员ID
	PointsDelta     int64     `gorm:"not null" json:"points_delta"`                             // 积分变动
	BalanceAfter    int64     `gorm:"not null" json:"balance_after"`                            // 变动后余额
	TransactionType string    `gorm:"type:varchar(16);index;not null" json:"transaction_type"` // 类型 earn/redeem/adjustment/expiry
	ReferenceID     *string   `gorm:"type:varchar(36);index" json:"reference_id,omitempty"`     // 关联销售或兑换
	StaffID         *string   `gorm:"type:varchar(36)" json:"staff_id,omitempty"`               // 操作员工
	Note            string    `gorm:"type:varchar(255);not null;default:''" json:"note"`        // 备注
	CreatedAt       time.Time `gorm:"index" json:"created_at"`                                  // 创建时间
}

// TableName 指定表名
func (PointTransaction) TableName() string {
	return "point_transactions"
}
