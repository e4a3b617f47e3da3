package queue

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"

	"github.com/cargo-inspection/internal/config"
	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/logger"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 审批类导出队列
	CriticalQueue = constants.QueueCritical
)

// Client 队列客户端封装
type Client struct {
	client   *asynq.Client
	enabled  bool
	maxRetry int
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false}, nil
	}
	opt := buildRedisOpt(cfg)
	return &Client{
		client:   asynq.NewClient(opt),
		enabled:  true,
		maxRetry: cfg.MaxRetry,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueExport 推送 PDF 导出任务
// 以 JobID 作为任务 ID 去重，重复推送视为成功
func (c *Client) EnqueueExport(payload ExportPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewExportTask(payload)
	if err != nil {
		return err
	}
	options := []asynq.Option{asynq.Queue(QueueForKind(payload.Kind))}
	if id := strings.TrimSpace(payload.JobID); id != "" {
		options = append(options, asynq.TaskID(id))
	}
	if c.maxRetry > 0 {
		options = append(options, asynq.MaxRetry(c.maxRetry))
	}
	options = append(options, opts...)
	_, err = c.client.Enqueue(task, options...)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

// QueueForKind 审批导出走高优先级队列
func QueueForKind(kind string) string {
	if kind == constants.ExportKindVerification || kind == constants.ExportKindValidation {
		return CriticalQueue
	}
	return DefaultQueue
}

// BuildServerConfig 生成 worker 配置，审批导出队列权重更高
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency:  10,
		Queues:       map[string]int{DefaultQueue: 1, CriticalQueue: 2},
		ErrorHandler: asynq.ErrorHandlerFunc(logTaskFailure),
	}
	if cfg != nil && cfg.Concurrency > 0 {
		serverCfg.Concurrency = cfg.Concurrency
	}
	if cfg != nil && len(cfg.Queues) > 0 {
		serverCfg.Queues = cfg.Queues
	}
	return buildRedisOpt(cfg), serverCfg
}

func logTaskFailure(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	logger.Warnw("export_task_failed",
		"task_type", task.Type(),
		"retried", retried,
		"max_retry", maxRetry,
		"error", err,
	)
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	if cfg == nil {
		return asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	return asynq.RedisClientOpt{
		Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}
