package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrTenantRequired 未提供商户ID
var ErrTenantRequired = errors.New("restaurant id is required")

// tenantScope 限定查询只落在单个商户内
func tenantScope(restaurantID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("restaurant_id = ?", restaurantID)
	}
}

func requireTenant(restaurantID string) error {
	if strings.TrimSpace(restaurantID) == "" {
		return ErrTenantRequired
	}
	return nil
}

// IsUniqueViolation 判断是否为唯一约束冲突（兼容 sqlite 与 postgres）
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "23505")
}

func notFoundAsNil(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
