package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cargo-inspection/internal/config"
	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/identity"
	"github.com/cargo-inspection/internal/logger"
	"github.com/cargo-inspection/internal/queue"
)

// PDFExporter 远端 PDF 生成接口
type PDFExporter interface {
	Enabled() bool
	Export(ctx context.Context, kind string, body []byte) error
}

// ExportAck 导出结果，失败不影响已持久化的数据
type ExportAck struct {
	State string `json:"state"`
	JobID string `json:"jobId,omitempty"`
	Error string `json:"error,omitempty"`
}

// ExportDispatcher 导出分发：队列可用时异步入队，否则同步调用远端
type ExportDispatcher struct {
	queue    *queue.Client
	exporter PDFExporter
	enabled  bool
	timeout  time.Duration
}

// NewExportDispatcher 创建导出分发器
func NewExportDispatcher(queueClient *queue.Client, exporter PDFExporter, cfg config.ExportConfig) *ExportDispatcher {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ExportDispatcher{
		queue:    queueClient,
		exporter: exporter,
		enabled:  cfg.Enabled,
		timeout:  timeout,
	}
}

// Enabled 是否可导出
func (d *ExportDispatcher) Enabled() bool {
	return d != nil && d.enabled && d.exporter != nil && d.exporter.Enabled()
}

// Dispatch 分发导出请求，错误只记录在回执中
func (d *ExportDispatcher) Dispatch(ctx context.Context, principal identity.Principal, kind string, body interface{}) ExportAck {
	if !d.Enabled() {
		return ExportAck{State: constants.ExportStateDisabled}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return d.fail(kind, "", err)
	}
	jobID := exportJobID(kind, raw)

	if d.queue.Enabled() {
		if err := d.queue.EnqueueExport(queue.ExportPayload{
			JobID:       jobID,
			Kind:        kind,
			Body:        raw,
			RequestedBy: principal.DisplayName(),
		}); err != nil {
			return d.fail(kind, jobID, err)
		}
		logger.Infow("export_enqueued", "kind", kind, "job_id", jobID, "requested_by", principal.DisplayName())
		return ExportAck{State: constants.ExportStateQueued, JobID: jobID}
	}

	// 请求结束后仍需完成导出，脱离请求取消但保留身份
	exportCtx, cancel := context.WithTimeout(identity.NewContext(context.WithoutCancel(ctx), principal), d.timeout)
	defer cancel()
	if err := d.exporter.Export(exportCtx, kind, raw); err != nil {
		return d.fail(kind, jobID, err)
	}
	return ExportAck{State: constants.ExportStateSent, JobID: jobID}
}

func (d *ExportDispatcher) fail(kind, jobID string, err error) ExportAck {
	exportErr := &ExportError{Kind: kind, Err: err}
	logger.Errorw("export_dispatch_failed", "kind", kind, "job_id", jobID, "error", exportErr)
	return ExportAck{State: constants.ExportStateFailed, JobID: jobID, Error: exportErr.Error()}
}
