package queue

import (
	"errors"
	"fmt"

	"github.com/cargo-inspection/internal/constants"

	"github.com/fxamacker/cbor/v2"
	"github.com/hibiken/asynq"
)

const (
	// TaskExportOutbound 出库单 PDF 导出任务
	TaskExportOutbound = constants.TaskExportOutbound
	// TaskExportVerification 月度复核 PDF 导出任务
	TaskExportVerification = constants.TaskExportVerification
	// TaskExportValidation 年度确认 PDF 导出任务
	TaskExportValidation = constants.TaskExportValidation
)

// ErrUnknownExportKind 未知导出类型
var ErrUnknownExportKind = errors.New("unknown export kind")

// ExportPayload PDF 导出任务载荷
// Body 为发往 PDF 服务的 JSON 请求体，含签名图片，使用 CBOR 避免二次 base64 膨胀
type ExportPayload struct {
	JobID       string `cbor:"1,keyasint" json:"job_id"`
	Kind        string `cbor:"2,keyasint" json:"kind"`
	Body        []byte `cbor:"3,keyasint" json:"body"`
	RequestedBy string `cbor:"4,keyasint,omitempty" json:"requested_by,omitempty"`
}

var encMode, _ = cbor.CoreDetEncOptions().EncMode()

// TaskTypeForKind 导出类型对应的任务类型
func TaskTypeForKind(kind string) (string, error) {
	switch kind {
	case constants.ExportKindOutbound:
		return TaskExportOutbound, nil
	case constants.ExportKindVerification:
		return TaskExportVerification, nil
	case constants.ExportKindValidation:
		return TaskExportValidation, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownExportKind, kind)
}

// NewExportTask 创建导出任务
func NewExportTask(payload ExportPayload) (*asynq.Task, error) {
	taskType, err := TaskTypeForKind(payload.Kind)
	if err != nil {
		return nil, err
	}
	body, err := encMode.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body), nil
}

// DecodeExportPayload 解析导出任务载荷
func DecodeExportPayload(raw []byte) (ExportPayload, error) {
	var payload ExportPayload
	if err := cbor.Unmarshal(raw, &payload); err != nil {
		return ExportPayload{}, err
	}
	return payload, nil
}
