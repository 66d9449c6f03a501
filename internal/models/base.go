package models

import (
	"strings"

	"github.com/google/uuid"
)

// ensureUUID 为空主键生成 UUID
func ensureUUID(id *string) {
	if strings.TrimSpace(*id) == "" {
		*id = uuid.NewString()
	}
}

// IsUUID 判断字符串是否为合法 UUID
func IsUUID(value string) bool {
	_, err := uuid.Parse(strings.TrimSpace(value))
	return err == nil
}
