package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/revisit-loyalty/internal/config"
	"github.com/revisit-loyalty/internal/constants"
	"github.com/revisit-loyalty/internal/logger"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault

	expiryMaxRetry    = 3
	expiryTaskTimeout = 10 * time.Minute
)

// Client 积分任务投递客户端，队列关闭时投递为空操作
type Client struct {
	client *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{client: asynq.NewClient(RedisOpt(cfg))}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueuePointsExpiry 投递商户积分过期任务，同一商户在 window 内只入队一次。
// 返回是否新入队；重复投递不视为错误。
func (c *Client) EnqueuePointsExpiry(ctx context.Context, payload PointsExpiryPayload, window time.Duration) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	task, err := NewPointsExpiryTask(payload)
	if err != nil {
		return false, err
	}
	options := []asynq.Option{
		asynq.Queue(DefaultQueue),
		asynq.MaxRetry(expiryMaxRetry),
		asynq.Timeout(expiryTaskTimeout),
	}
	if window > 0 {
		options = append(options, asynq.Unique(window))
	}
	if _, err := c.client.EnqueueContext(ctx, task, options...); err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			return false, nil
		}
		return false, fmt.Errorf("enqueue %s for %s: %w", task.Type(), payload.RestaurantID, err)
	}
	return true, nil
}

// BuildServerConfig 生成消费端配置，任务失败与 asynq 内部日志统一输出到 zap
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := 10
	queues := map[string]int{DefaultQueue: 1}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			queues = cfg.Queues
		}
	}
	return RedisOpt(cfg), asynq.Config{
		Concurrency:  concurrency,
		Queues:       queues,
		Logger:       logger.S(),
		LogLevel:     asynq.WarnLevel,
		ErrorHandler: asynq.ErrorHandlerFunc(logTaskFailure),
	}
}

func logTaskFailure(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	kv := []interface{}{
		"task_type", task.Type(),
		"retried", retried,
		"max_retry", maxRetry,
		"error", err,
	}
	if task.Type() == TaskPointsExpiry {
		if payload, parseErr := ParsePointsExpiryPayload(task); parseErr == nil {
			kv = append(kv, "restaurant_id", payload.RestaurantID)
		}
	}
	logger.Warnw("queue_task_failed", kv...)
}

// RedisOpt 队列使用的 Redis 连接参数
func RedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = fmt.Sprintf("%s:%d", host, port)
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
