package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/cargo-inspection/internal/identity"
	"github.com/cargo-inspection/internal/logger"
	"github.com/cargo-inspection/internal/provider"
	"github.com/cargo-inspection/internal/queue"
	"github.com/cargo-inspection/internal/service"

	"github.com/hibiken/asynq"
)

// workerPrincipal 后台任务身份，远端调用使用服务令牌
var workerPrincipal = identity.Principal{Username: "cargo-worker"}

// Consumer 异步任务消费者
type Consumer struct {
	Exporter      service.PDFExporter
	Directory     *service.DirectoryService
	ExportTimeout time.Duration
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	consumer := &Consumer{}
	if c == nil {
		return consumer
	}
	if c.Exporter != nil {
		consumer.Exporter = c.Exporter
	}
	consumer.Directory = c.DirectoryService
	if c.Config != nil && c.Config.Export.TimeoutSeconds > 0 {
		consumer.ExportTimeout = time.Duration(c.Config.Export.TimeoutSeconds) * time.Second
	}
	return consumer
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	for _, taskType := range exportTaskTypes() {
		mux.HandleFunc(taskType, c.handleExport)
	}
}

func exportTaskTypes() []string {
	return []string{queue.TaskExportOutbound, queue.TaskExportVerification, queue.TaskExportValidation}
}

func (c *Consumer) handleExport(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.DecodeExportPayload(task.Payload())
	if err != nil {
		logger.Warnw("worker_export_payload_invalid", "task_type", task.Type(), "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	expected, err := queue.TaskTypeForKind(payload.Kind)
	if err != nil || expected != task.Type() {
		logger.Warnw("worker_export_kind_mismatch",
			"task_type", task.Type(),
			"kind", payload.Kind,
			"job_id", payload.JobID,
		)
		return fmt.Errorf("%w: export kind %q on task %s", asynq.SkipRetry, payload.Kind, task.Type())
	}
	if c.Exporter == nil || !c.Exporter.Enabled() {
		logger.Warnw("worker_export_unavailable", "job_id", payload.JobID, "kind", payload.Kind)
		return fmt.Errorf("%w: exporter not configured", asynq.SkipRetry)
	}

	principal := workerPrincipal
	if payload.RequestedBy != "" {
		principal = identity.Principal{Username: payload.RequestedBy}
	}
	ctx = identity.NewContext(ctx, principal)
	if c.ExportTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.ExportTimeout)
		defer cancel()
	}

	if err := c.Exporter.Export(ctx, payload.Kind, payload.Body); err != nil {
		logger.Warnw("worker_export_failed",
			"job_id", payload.JobID,
			"kind", payload.Kind,
			"requested_by", payload.RequestedBy,
			"error", err,
		)
		return err
	}
	logger.Infow("worker_export_done",
		"job_id", payload.JobID,
		"kind", payload.Kind,
		"requested_by", payload.RequestedBy,
	)
	return nil
}

// refreshDropdowns 预热各站点下拉快照
func (c *Consumer) refreshDropdowns(ctx context.Context) {
	if c == nil || c.Directory == nil {
		return
	}
	refreshed, err := c.Directory.RefreshDropdowns(ctx, workerPrincipal)
	if err != nil {
		logger.Warnw("worker_dropdown_refresh_failed", "refreshed", refreshed, "error", err)
		return
	}
	logger.Debugw("worker_dropdown_refreshed", "sites", refreshed)
}
