package models

import (
	"time"

	"gorm.io/gorm"
)

// Staff 商户员工（映射外部身份到租户）
type Staff struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)" json:"id"`                                            // 主键
	RestaurantID string         `gorm:"type:varchar(36);uniqueIndex:idx_staff_tenant_user;not null" json:"restaurant_id"` // 商户ID
	UserID       string         `gorm:"type:varchar(120);uniqueIndex:idx_staff_tenant_user;not null" json:"user_id"`      // 外部身份ID
	DisplayName  string         `gorm:"type:varchar(100);not null;default:''" json:"display_name"`                        // 展示名
	Role         string         `gorm:"type:varchar(16);not null" json:"role"`                                            // 角色 owner/manager
	CreatedAt    time.Time      `json:"created_at"`                                                                       // 创建时间
	UpdatedAt    time.Time      `json:"updated_at"`                                                                       // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                                                   // 软删除时间
}

// TableName 指定表名
func (Staff) TableName() string {
	return "restaurant_staff"
}

// BeforeCreate 生成主键
func (s *Staff) BeforeCreate(*gorm.DB) error {
	ensureUUID(&s.ID)
	return nil
}
