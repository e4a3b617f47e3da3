package inspection

import (
	"errors"

	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/models"
)

// ErrActionNotAllowed 当前状态不允许该操作
var ErrActionNotAllowed = errors.New("outbound action not allowed")

// Mode 校验模式
type Mode string

const (
	ModeIncomplete Mode = constants.ValidationModeIncomplete
	ModeWaiting    Mode = constants.ValidationModeWaiting
	ModeCompleted  Mode = constants.ValidationModeCompleted
	ModeNew        Mode = constants.ValidationModeNew
)

// transitions 出库单状态流转表
var transitions = map[models.OutboundStatus]map[string]models.OutboundStatus{
	models.OutboundStatusNew: {
		constants.OutboundActionSave:   models.OutboundStatusIncomplete,
		constants.OutboundActionSubmit: models.OutboundStatusWaiting,
	},
	models.OutboundStatusIncomplete: {
		constants.OutboundActionSave:   models.OutboundStatusIncomplete,
		constants.OutboundActionSubmit: models.OutboundStatusWaiting,
	},
	models.OutboundStatusWaiting: {
		constants.OutboundActionSubmit: models.OutboundStatusCompleted,
	},
	models.OutboundStatusCompleted: {
		constants.OutboundActionSubmit: models.OutboundStatusCompleted,
	},
}

// NextStatus 计算操作后的状态
func NextStatus(current models.OutboundStatus, action string) (models.OutboundStatus, error) {
	next, ok := transitions[current][action]
	if !ok {
		return current, ErrActionNotAllowed
	}
	return next, nil
}

// ModeFor 按当前状态与操作选择校验模式
func ModeFor(current models.OutboundStatus, action string) (Mode, error) {
	if _, err := NextStatus(current, action); err != nil {
		return "", err
	}
	if action == constants.OutboundActionSave {
		return ModeIncomplete, nil
	}
	switch current {
	case models.OutboundStatusNew:
		return ModeNew, nil
	case models.OutboundStatusIncomplete:
		return ModeWaiting, nil
	default:
		return ModeCompleted, nil
	}
}

// AllowedActions 当前状态可用操作
func AllowedActions(current models.OutboundStatus) []string {
	actions := make([]string, 0, 3)
	if _, ok := transitions[current][constants.OutboundActionSave]; ok {
		actions = append(actions, constants.OutboundActionSave)
	}
	if _, ok := transitions[current][constants.OutboundActionSubmit]; ok {
		actions = append(actions, constants.OutboundActionSubmit)
	}
	if CanExport(current) {
		actions = append(actions, constants.OutboundActionExport)
	}
	return actions
}

// ShowLoadingReturn 回程信息仅在待复核/已完成时展示与录入
func ShowLoadingReturn(current models.OutboundStatus) bool {
	return current == models.OutboundStatusWaiting || current == models.OutboundStatusCompleted
}

// CanExport 是否可导出 PDF
func CanExport(current models.OutboundStatus) bool {
	return current == models.OutboundStatusWaiting || current == models.OutboundStatusCompleted
}
