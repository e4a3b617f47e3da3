package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cargo-inspection/internal/cache"
	"github.com/cargo-inspection/internal/inspection"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidSite         = errors.New("invalid site")
	ErrInvalidPeriod       = inspection.ErrInvalidPeriod
	ErrInvalidStatus       = errors.New("invalid outbound status")
	ErrActionNotAllowed    = inspection.ErrActionNotAllowed
	ErrRequestInFlight     = errors.New("request already in flight")
	ErrRouteNumberRequired = errors.New("route number required")
	ErrExportNotAllowed    = errors.New("export not allowed for current status")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrProfileExists       = errors.New("profile already exists")
	ErrProfileInvalid      = errors.New("profile invalid")
)

// ValidationError 表单校验失败，Fields 按表单顺序排列
type ValidationError struct {
	Fields inspection.ValidationErrors
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %d field(s), first %s", len(e.Fields), e.Fields.First())
}

// BlockedError 审批条件不满足
type BlockedError struct {
	Reasons []string
}

func (e *BlockedError) Error() string {
	if e == nil || len(e.Reasons) == 0 {
		return "approval blocked"
	}
	return "approval blocked: " + strings.Join(e.Reasons, "; ")
}

// ApiError 存储或远端调用失败，Input 原样返回供客户端重试
type ApiError struct {
	Op    string
	Err   error
	Input interface{}
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

// ExportError PDF 导出失败，只记录不回滚
type ExportError struct {
	Kind string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s failed: %v", e.Kind, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// storeError 将存储错误包装为 ApiError
func storeError(op string, err error, input interface{}) error {
	if err == nil {
		return nil
	}
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return err
	}
	return &ApiError{Op: op, Err: err, Input: input}
}

// lockError 锁冲突映射为请求进行中
func lockError(err error) error {
	if errors.Is(err, cache.ErrLockHeld) {
		return ErrRequestInFlight
	}
	return &ApiError{Op: "acquire_lock", Err: err}
}
