package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"
)

// Service 可独立启停的进程组件（HTTP、worker、资源回收）
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Runner 并发启动组件，任一组件退出即按启动逆序关闭全部组件
type Runner struct {
	services    []Service
	stopTimeout time.Duration
	log         *zap.SugaredLogger
}

// NewRunner 创建服务运行器
func NewRunner(stopTimeout time.Duration, log *zap.SugaredLogger, services ...Service) *Runner {
	if stopTimeout <= 0 {
		stopTimeout = 15 * time.Second
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Runner{services: services, stopTimeout: stopTimeout, log: log}
}

// RunUntilSignal 运行直至收到任一信号
func (r *Runner) RunUntilSignal(signals ...os.Signal) error {
	ctx := context.Background()
	if len(signals) > 0 {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(ctx, signals...)
		defer cancel()
	}
	return r.Run(ctx)
}

// Run 启动全部组件并阻塞，ctx 取消视为正常退出
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || len(r.services) == 0 {
		return errors.New("no services to run")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type exit struct {
		name string
		err  error
	}
	exits := make(chan exit, len(r.services))
	for _, svc := range r.services {
		go func(svc Service) {
			r.log.Infow("service_start", "service", svc.Name())
			exits <- exit{name: svc.Name(), err: svc.Start(ctx)}
		}(svc)
	}

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case first := <-exits:
		runErr = first.err
		if runErr != nil {
			r.log.Errorw("service_failed", "service", first.name, "error", runErr)
		} else {
			r.log.Infow("service_exit", "service", first.name)
		}
	}
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), r.stopTimeout)
	defer stopCancel()
	var stopErrs []error
	for i := len(r.services) - 1; i >= 0; i-- {
		svc := r.services[i]
		if err := svc.Stop(stopCtx); err != nil {
			r.log.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
			stopErrs = append(stopErrs, err)
		}
	}

	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	return errors.Join(append([]error{runErr}, stopErrs...)...)
}
