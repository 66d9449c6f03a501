// Package cache Redis 读缓存与限流计数
//
// 未启用或启动时探测失败都退化为空操作，调用方无需判空。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/revisit-loyalty/internal/config"
	"github.com/revisit-loyalty/internal/constants"
	"github.com/revisit-loyalty/internal/logger"

	"github.com/redis/go-redis/v9"
)

const (
	startupProbeTimeout = 3 * time.Second
	scanBatchSize       = 200
)

var (
	redisClient  *redis.Client
	redisPrefix  string
	redisEnabled bool
)

// InitRedis 初始化 Redis 客户端；启动探测失败时关闭缓存并继续运行
func InitRedis(cfg *config.RedisConfig) error {
	redisEnabled = false
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	redisPrefix = strings.TrimSpace(cfg.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr(cfg),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), startupProbeTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warnw("cache_disabled_unreachable", "addr", client.Options().Addr, "error", err)
		_ = client.Close()
		return nil
	}
	redisClient = client
	redisEnabled = true
	return nil
}

func redisAddr(cfg *config.RedisConfig) string {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// Close 关闭 Redis 连接
func Close() error {
	if !Enabled() {
		return nil
	}
	redisEnabled = false
	return redisClient.Close()
}

// Ping 健康检查用
func Ping(ctx context.Context) error {
	if !Enabled() {
		return nil
	}
	return redisClient.Ping(ctx).Err()
}

// Enabled 缓存是否可用
func Enabled() bool {
	return redisEnabled && redisClient != nil
}

// Client 返回底层客户端，未启用时为 nil
func Client() *redis.Client {
	if !Enabled() {
		return nil
	}
	return redisClient
}

// GetJSON 读取并反序列化；键不存在返回 false
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !Enabled() {
		return false, nil
	}
	raw, err := redisClient.Get(ctx, buildKey(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return true, nil
}

// SetJSON 序列化后写入
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !Enabled() {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	return redisClient.Set(ctx, buildKey(key), payload, ttl).Err()
}

// Del 批量删除
func Del(ctx context.Context, keys ...string) error {
	if !Enabled() || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = buildKey(key)
	}
	return redisClient.Del(ctx, full...).Err()
}

// DelPrefix 按前缀 SCAN 删除，返回删除数量
func DelPrefix(ctx context.Context, prefix string) (int, error) {
	if !Enabled() || strings.TrimSpace(prefix) == "" {
		return 0, nil
	}
	iter := redisClient.Scan(ctx, 0, buildKey(prefix)+"*", scanBatchSize).Iterator()
	batch := make([]string, 0, scanBatchSize)
	deleted := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := redisClient.Del(ctx, batch...).Result()
		deleted += int(n)
		batch = batch[:0]
		return err
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatchSize {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	return deleted, flush()
}

func buildKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return redisPrefix
	}
	return redisPrefix + ":" + key
}
