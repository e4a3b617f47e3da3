package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cargo-inspection/internal/constants"
)

// exportEndpoints 导出类型到远端 PDF 接口
var exportEndpoints = map[string]string{
	constants.ExportKindOutbound:     "pdfOutbound",
	constants.ExportKindVerification: "pdfVerification",
	constants.ExportKindValidation:   "pdfValidation",
}

// Exporter 远端 PDF 生成
type Exporter struct {
	client *Client
}

// NewExporter 创建导出器
func NewExporter(client *Client) *Exporter {
	return &Exporter{client: client}
}

// Enabled 是否可用
func (e *Exporter) Enabled() bool {
	return e != nil && e.client.Enabled()
}

// Export 提交 PDF 生成请求，body 为已编码的 JSON
func (e *Exporter) Export(ctx context.Context, kind string, body []byte) error {
	path, ok := exportEndpoints[kind]
	if !ok {
		return fmt.Errorf("unknown export kind: %s", kind)
	}
	if !json.Valid(body) {
		return fmt.Errorf("export body for %s is not valid json", kind)
	}
	return e.client.send(ctx, http.MethodPost, path, json.RawMessage(body), nil)
}
