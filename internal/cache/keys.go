package cache

import (
	"fmt"
	"strings"
)

// TenantSlugKey 租户 slug 解析缓存键
func TenantSlugKey(slug string) string {
	return fmt.Sprintf("tenant:slug:%s", strings.ToLower(strings.TrimSpace(slug)))
}

// CardBalanceKey 会员卡余额缓存键
func CardBalanceKey(restaurantID, cardNumber string) string {
	return fmt.Sprintf("card:%s:%s", restaurantID, strings.TrimPrefix(cardNumber, "#"))
}

// CardBalancePrefix 某租户全部会员卡缓存键的公共前缀
func CardBalancePrefix(restaurantID string) string {
	return fmt.Sprintf("card:%s:", restaurantID)
}

// RateLimitKey 限流计数键
func RateLimitKey(scope, subject string) string {
	return fmt.Sprintf("ratelimit:%s:%s", scope, subject)
}

// RateLimitBlockKey 限流封禁键
func RateLimitBlockKey(scope, subject string) string {
	return fmt.Sprintf("ratelimit:%s:%s:block", scope, subject)
}

// BuildKey 拼接带前缀的完整键名（用于直接操作 Redis 客户端的场景）
func BuildKey(key string) string {
	return buildKey(key)
}
