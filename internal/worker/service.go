package worker

import (
	"context"
	"errors"
	"time"

	"github.com/cargo-inspection/internal/config"
	"github.com/cargo-inspection/internal/logger"
	"github.com/cargo-inspection/internal/queue"

	"github.com/hibiken/asynq"
)

const dropdownRefreshInterval = 5 * time.Minute

// Service 导出 worker：消费 PDF 导出任务，并定时预热下拉参考数据
type Service struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		server:   asynq.NewServer(opt, serverCfg),
		mux:      mux,
		consumer: consumer,
	}, nil
}

func (s *Service) Name() string { return "worker" }

// Start 非阻塞启动 asynq，随后阻塞到 ctx 结束；信号由 Runner 统一处理
func (s *Service) Start(ctx context.Context) error {
	if s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	logger.Infow("worker_started", "task_types", exportTaskTypes())
	if s.consumer.Directory != nil {
		go s.refreshDropdownsEvery(ctx, dropdownRefreshInterval)
	}
	<-ctx.Done()
	return ctx.Err()
}

// Stop 等待进行中的导出任务结束
func (s *Service) Stop(context.Context) error {
	if s.server != nil {
		s.server.Shutdown()
	}
	return nil
}

func (s *Service) refreshDropdownsEvery(ctx context.Context, interval time.Duration) {
	s.consumer.refreshDropdowns(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.consumer.refreshDropdowns(ctx)
		}
	}
}
