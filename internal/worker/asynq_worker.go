package worker

import (
	"context"
	"errors"

	"github.com/revisit-loyalty/internal/logger"
	"github.com/revisit-loyalty/internal/provider"
	"github.com/revisit-loyalty/internal/queue"
	"github.com/revisit-loyalty/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPointsExpiry, c.handlePointsExpiry)
}

func (c *Consumer) handlePointsExpiry(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_points_expiry_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParsePointsExpiryPayload(task)
	if err != nil {
		logger.Warnw("worker_points_expiry_unmarshal_failed", "error", err)
		return err
	}
	if payload.RestaurantID == "" {
		logger.Debugw("worker_points_expiry_skip_invalid_payload")
		return nil
	}
	return c.expireRestaurant(ctx, payload.RestaurantID)
}

// expireRestaurant 执行单个商户的积分过期，已删除的商户视为完成
func (c *Consumer) expireRestaurant(ctx context.Context, restaurantID string) error {
	if c.LedgerService == nil {
		logger.Warnw("worker_points_expiry_skip_ledger_service_nil", "restaurant_id", restaurantID)
		return nil
	}
	result, err := c.LedgerService.ExpireRestaurant(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, service.ErrRestaurantNotFound) {
			logger.Debugw("worker_points_expiry_skip_restaurant_not_found", "restaurant_id", restaurantID)
			return nil
		}
		logger.Warnw("worker_points_expiry_failed", "restaurant_id", restaurantID, "error", err)
		return err
	}
	logger.Tenant(restaurantID).Debugw("worker_points_expiry_done",
		"customers", result.CustomersExpired,
		"points", result.PointsExpired,
	)
	return nil
}
