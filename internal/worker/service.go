package worker

import (
	"context"
	"errors"
	"time"

	"github.com/revisit-loyalty/internal/config"
	"github.com/revisit-loyalty/internal/logger"
	"github.com/revisit-loyalty/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 异步队列服务
//
// 队列启用时运行 asynq 消费者，并周期性为每个开启过期的商户入队过期任务；
// 队列未启用时只运行周期扫描，在进程内直接执行过期。
type Service struct {
	name          string
	server        *asynq.Server
	mux           *asynq.ServeMux
	consumer      *Consumer
	sweepInterval time.Duration
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, sweepInterval time.Duration, consumer *Consumer) (*Service, error) {
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	if sweepInterval <= 0 {
		sweepInterval = time.Hour
	}
	svc := &Service{
		name:          "worker",
		consumer:      consumer,
		sweepInterval: sweepInterval,
	}
	if cfg == nil || !cfg.Enabled {
		svc.name = "expiry-sweeper"
		return svc, nil
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	svc.server = asynq.NewServer(opt, serverCfg)
	svc.mux = asynq.NewServeMux()
	consumer.Register(svc.mux)
	return svc, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.consumer == nil {
		return errors.New("worker not initialized")
	}
	if s.server == nil {
		s.runExpirySweepLoop(ctx)
		return nil
	}
	go s.runExpirySweepLoop(ctx)
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func (s *Service) runExpirySweepLoop(ctx context.Context) {
	s.sweepOnce(ctx)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

// sweepOnce 为开启过期的商户分发过期任务，队列不可用时就地执行
func (s *Service) sweepOnce(ctx context.Context) {
	if s.consumer.RestaurantService == nil {
		return
	}
	restaurants, err := s.consumer.RestaurantService.ListExpiryEnabled(ctx)
	if err != nil {
		logger.Warnw("worker_expiry_sweep_list_failed", "error", err)
		return
	}
	enqueued, duplicate, inline := 0, 0, 0
	for _, restaurant := range restaurants {
		if ctx.Err() != nil {
			return
		}
		if s.server != nil && s.consumer.QueueClient.Enabled() {
			added, err := s.consumer.QueueClient.EnqueuePointsExpiry(ctx, queue.PointsExpiryPayload{RestaurantID: restaurant.ID}, s.sweepInterval)
			if err == nil {
				if added {
					enqueued++
				} else {
					duplicate++
				}
				continue
			}
			logger.Warnw("worker_expiry_enqueue_failed", "restaurant_id", restaurant.ID, "error", err)
		}
		if err := s.consumer.expireRestaurant(ctx, restaurant.ID); err == nil {
			inline++
		}
	}
	logger.Debugw("worker_expiry_sweep_done",
		"restaurants", len(restaurants),
		"enqueued", enqueued,
		"duplicate", duplicate,
		"inline", inline,
	)
}
