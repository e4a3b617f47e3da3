package app

import (
	"errors"
	"net"

	"github.com/cargo-inspection/internal/config"
	"github.com/cargo-inspection/internal/logger"
	"github.com/cargo-inspection/internal/provider"
	"github.com/cargo-inspection/internal/router"
	"github.com/cargo-inspection/internal/worker"
)

// BuildRunner 按模式装配接口服务与导出 worker
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	mode, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}

	container := provider.NewContainer(cfg)
	services, err := buildServices(cfg, container, mode)
	if err != nil {
		_ = container.Close()
		return nil, err
	}

	runner := NewRunner(services...)
	runner.OnShutdown(container.Close)
	return runner, nil
}

func buildServices(cfg *config.Config, container *provider.Container, mode string) ([]Service, error) {
	var services []Service
	if mode != ModeWorker {
		services = append(services, NewAPIServer(listenAddr(cfg), router.SetupRouter(cfg, container)))
	}

	switch {
	case mode == ModeAPI:
	case mode == ModeAll && !cfg.Queue.Enabled:
		// 队列关闭时导出由接口进程同步执行
		logger.Infow("worker_skipped_queue_disabled", "mode", mode)
	default:
		workerService, err := worker.NewService(&cfg.Queue, worker.NewConsumer(container))
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and queue config)")
	}
	return services, nil
}

func listenAddr(cfg *config.Config) string {
	return net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = opts.withDefaults()
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "addr", listenAddr(opts.Config), "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
