package app

import (
	"context"
	"errors"
	"os/signal"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service 可独立启停的进程内服务（HTTP 接口、导出 worker）
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var errServiceExited = errors.New("service exited")

// Runner 同时运行多个服务，任一退出即整体关闭
type Runner struct {
	services []Service
	cleanups []func() error
}

func NewRunner(services ...Service) *Runner {
	return &Runner{services: services}
}

// OnShutdown 注册服务全部停止后执行的资源释放
func (r *Runner) OnShutdown(fn func() error) {
	if r == nil || fn == nil {
		return
	}
	r.cleanups = append(r.cleanups, fn)
}

// RunWithOptions 按信号运行服务
func RunWithOptions(runner *Runner, opts Options) error {
	if runner == nil {
		return errors.New("runner is nil")
	}
	opts = opts.withDefaults()
	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, opts.Signals...)
		defer stop()
	}
	return runner.Run(ctx, opts.ShutdownTimeout, opts.Logger)
}

// Run 启动全部服务，ctx 结束或任一服务返回后按 stopTimeout 停止其余服务
func (r *Runner) Run(ctx context.Context, stopTimeout time.Duration, log *zap.SugaredLogger) error {
	if r == nil || len(r.services) == 0 {
		return errors.New("no services to run")
	}
	if stopTimeout <= 0 {
		stopTimeout = defaultShutdownTimeout
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, svc := range r.services {
		if svc == nil {
			return errors.New("service is nil")
		}
		svc := svc
		g.Go(func() error {
			logw(log, "service_start", svc.Name())
			err := svc.Start(gctx)
			logw(log, "service_exit", svc.Name())
			if err == nil {
				err = errServiceExited
			}
			return err
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		for _, svc := range r.services {
			if err := svc.Stop(stopCtx); err != nil && log != nil {
				log.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
			}
		}
		return nil
	})

	runErr := g.Wait()
	for _, cleanup := range r.cleanups {
		if err := cleanup(); err != nil && log != nil {
			log.Warnw("service_cleanup_failed", "error", err)
		}
	}
	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, errServiceExited) {
		return nil
	}
	return runErr
}

func logw(log *zap.SugaredLogger, event, name string) {
	if log != nil {
		log.Infow(event, "service", name)
	}
}
