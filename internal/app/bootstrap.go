package app

import (
	"context"
	"errors"

	"github.com/revisit-loyalty/internal/cache"
	"github.com/revisit-loyalty/internal/config"
	"github.com/revisit-loyalty/internal/provider"
	"github.com/revisit-loyalty/internal/router"
	"github.com/revisit-loyalty/internal/worker"
)

// BuildRunner 按模式装配 API 与 worker
func BuildRunner(cfg *config.Config, opts Options) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	container := provider.NewContainer(cfg)

	services := []Service{&resourceService{container: container}}
	if servesAPI(opts.Mode) {
		services = append(services, NewHTTPService(cfg.Server, router.SetupRouter(cfg, container)))
	}
	if runsWorker(opts.Mode) {
		// 队列关闭时 worker 以内联方式执行积分过期扫描
		workerService, err := worker.NewService(&cfg.Queue, cfg.Loyalty.ExpirySweepInterval(), worker.NewConsumer(container))
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	}
	return NewRunner(cfg.Server.ShutdownTimeout(), opts.Logger, services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts, err := normalizeOptions(opts)
	if err != nil {
		return err
	}
	if opts.Config == nil {
		return errors.New("config is nil")
	}
	runner, err := BuildRunner(opts.Config, opts)
	if err != nil {
		return err
	}
	opts.Logger.Infow("app_start",
		"mode", opts.Mode,
		"addr", opts.Config.Server.Addr(),
		"queue_enabled", opts.Config.Queue.Enabled,
		"redis_enabled", cache.Enabled(),
	)
	return runner.RunUntilSignal(opts.Signals...)
}

// resourceService 在其他组件停止后释放队列与 Redis 连接
type resourceService struct {
	container *provider.Container
}

func (s *resourceService) Name() string {
	return "resources"
}

func (s *resourceService) Start(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (s *resourceService) Stop(ctx context.Context) error {
	var errs []error
	if s.container.QueueClient != nil {
		errs = append(errs, s.container.QueueClient.Close())
	}
	errs = append(errs, cache.Close())
	return errors.Join(errs...)
}
