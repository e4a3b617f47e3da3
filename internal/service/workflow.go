package service

import (
	"strings"
	"time"

	"github.com/cargo-inspection/internal/config"
	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/inspection"
	"github.com/cargo-inspection/internal/logger"

	"github.com/shopspring/decimal"
)

// Workflow 业务流程参数（时区、温度阈值、时钟）
type Workflow struct {
	Location  *time.Location
	Threshold decimal.Decimal
	Now       func() time.Time
}

// NewWorkflow 由配置创建流程参数
func NewWorkflow(cfg config.WorkflowConfig) Workflow {
	loc := time.UTC
	if name := strings.TrimSpace(cfg.Timezone); name != "" {
		if loaded, err := time.LoadLocation(name); err == nil {
			loc = loaded
		} else {
			logger.Warnw("workflow_timezone_invalid", "timezone", name, "error", err)
		}
	}
	threshold := inspection.DefaultTemperatureThreshold
	if cfg.TemperatureThreshold != nil {
		threshold = decimal.NewFromFloat(*cfg.TemperatureThreshold)
	}
	return Workflow{Location: loc, Threshold: threshold, Now: time.Now}
}

func (w Workflow) now() time.Time {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	loc := w.Location
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc)
}

func (w Workflow) today() string {
	return w.now().Format(constants.DateLayout)
}

func normalizeSite(site string) (string, error) {
	normalized := constants.NormalizeSite(site)
	if normalized == "" {
		return "", ErrInvalidSite
	}
	return normalized, nil
}
