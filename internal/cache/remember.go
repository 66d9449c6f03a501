package cache

import (
	"context"
	"strings"
	"time"

	"github.com/revisit-loyalty/internal/logger"
	"github.com/revisit-loyalty/internal/metrics"
)

// Remember 读穿缓存：命中直接返回，未命中调用 load 并回写。
// 缓存读写失败只记录日志，不影响 load 的结果；load 返回 nil 时不回写。
func Remember[T any](ctx context.Context, key string, ttl time.Duration, load func(ctx context.Context) (*T, error)) (*T, error) {
	space := keyspace(key)
	if Enabled() {
		var cached T
		hit, err := GetJSON(ctx, key, &cached)
		switch {
		case err != nil:
			logger.Warnw("cache_read_failed", "keyspace", space, "error", err)
		case hit:
			metrics.CacheLookups.WithLabelValues(space, "hit").Inc()
			return &cached, nil
		default:
			metrics.CacheLookups.WithLabelValues(space, "miss").Inc()
		}
	}

	value, err := load(ctx)
	if err != nil || value == nil {
		return value, err
	}
	if err := SetJSON(ctx, key, value, ttl); err != nil {
		logger.Warnw("cache_write_failed", "keyspace", space, "error", err)
	}
	return value, nil
}

// keyspace 取键名第一段作为指标标签，避免高基数
func keyspace(key string) string {
	head, _, _ := strings.Cut(strings.TrimSpace(key), ":")
	if head == "" {
		return "unknown"
	}
	return head
}
