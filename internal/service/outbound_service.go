package service

import (
	"context"
	"strings"

	"github.com/cargo-inspection/internal/cache"
	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/identity"
	"github.com/cargo-inspection/internal/inspection"
	"github.com/cargo-inspection/internal/logger"
	"github.com/cargo-inspection/internal/models"
	"github.com/cargo-inspection/internal/repository"

	"gorm.io/datatypes"
)

// OutboundService 出库单流程服务
type OutboundService struct {
	repo     repository.OutboundRepository
	locker   *cache.Locker
	exports  *ExportDispatcher
	workflow Workflow
}

// NewOutboundService 创建出库单服务
func NewOutboundService(repo repository.OutboundRepository, locker *cache.Locker, exports *ExportDispatcher, workflow Workflow) *OutboundService {
	return &OutboundService{
		repo:     repo,
		locker:   locker,
		exports:  exports,
		workflow: workflow,
	}
}

// OutboundView 出库单页面数据
type OutboundView struct {
	Record            *models.OutboundRecord `json:"record"`
	IsNew             bool                   `json:"isNew"`
	Status            string                 `json:"status"`
	AllowedActions    []string               `json:"allowedActions"`
	ShowLoadingReturn bool                   `json:"showLoadingReturn"`
}

// OutboundResult 保存/提交结果
type OutboundResult struct {
	Record         *models.OutboundRecord `json:"record"`
	PreviousStatus string                 `json:"previousStatus"`
	Status         string                 `json:"status"`
	Flags          inspection.Flags       `json:"flags"`
	AllowedActions []string               `json:"allowedActions"`
}

// Load 读取出库单，不存在时返回新建占位
func (s *OutboundService) Load(ctx context.Context, principal identity.Principal, routeNumber string) (*OutboundView, error) {
	routeNumber = strings.TrimSpace(routeNumber)
	if routeNumber == "" {
		return nil, ErrRouteNumberRequired
	}
	record, err := s.repo.GetByRouteNumber(identity.NewContext(ctx, principal), routeNumber)
	if err != nil {
		return nil, storeError("outbound_load", err, nil)
	}
	isNew := record == nil
	if isNew {
		record = newOutboundPlaceholder(routeNumber)
	}
	return &OutboundView{
		Record:            record,
		IsNew:             isNew,
		Status:            record.OutboundStatus.String(),
		AllowedActions:    inspection.AllowedActions(record.OutboundStatus),
		ShowLoadingReturn: inspection.ShowLoadingReturn(record.OutboundStatus),
	}, nil
}

// Save 暂存（未完成）
func (s *OutboundService) Save(ctx context.Context, principal identity.Principal, input *models.OutboundRecord) (*OutboundResult, error) {
	return s.apply(ctx, principal, constants.OutboundActionSave, input)
}

// Submit 提交，推进到下一状态
func (s *OutboundService) Submit(ctx context.Context, principal identity.Principal, input *models.OutboundRecord) (*OutboundResult, error) {
	return s.apply(ctx, principal, constants.OutboundActionSubmit, input)
}

func (s *OutboundService) apply(ctx context.Context, principal identity.Principal, action string, input *models.OutboundRecord) (*OutboundResult, error) {
	if input == nil || strings.TrimSpace(input.RouteNumber) == "" {
		return nil, &ValidationError{Fields: inspection.Validate(nil, inspection.ModeIncomplete, nil)}
	}
	ctx = identity.NewContext(ctx, principal)
	routeNumber := strings.TrimSpace(input.RouteNumber)

	release, err := s.locker.Acquire(ctx, "outbound:"+routeNumber)
	if err != nil {
		return nil, lockError(err)
	}
	defer release()

	current, err := s.repo.GetByRouteNumber(ctx, routeNumber)
	if err != nil {
		return nil, storeError("outbound_load", err, input)
	}
	currentStatus := models.OutboundStatusNew
	if current != nil {
		currentStatus = current.OutboundStatus
	}

	next, err := inspection.NextStatus(currentStatus, action)
	if err != nil {
		return nil, err
	}
	mode, err := inspection.ModeFor(currentStatus, action)
	if err != nil {
		return nil, err
	}

	// 已落库的 New 记录按 waiting 规则提交，线路号重复只在首次创建时检查
	var exists inspection.RouteExistsFunc
	if current == nil {
		exists = func(number string) (bool, error) {
			return s.repo.Exists(ctx, number)
		}
	} else if mode == inspection.ModeNew {
		mode = inspection.ModeWaiting
	}
	record := s.normalize(input, currentStatus)
	if errs := inspection.Validate(record, mode, exists); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	flags := inspection.ApplyFlags(record, s.workflow.Threshold)
	record.OutboundStatus = next
	record.LastModifiedBy = principal.DisplayName()
	if current != nil {
		record.ID = current.ID
		record.CreatedAt = current.CreatedAt
	}

	if err := s.repo.Upsert(ctx, record); err != nil {
		logger.Errorw("outbound_"+action+"_persist_failed",
			"route_number", routeNumber,
			"status", next.String(),
			"user", principal.DisplayName(),
			"error", err,
		)
		return nil, storeError("outbound_"+action, err, input)
	}
	logger.Infow("outbound_"+action+"_persisted",
		"route_number", routeNumber,
		"from", currentStatus.String(),
		"to", next.String(),
		"require_attention", flags.RequireAttention,
		"temp_exc", flags.TempExc,
		"user", principal.DisplayName(),
	)

	return &OutboundResult{
		Record:         record,
		PreviousStatus: currentStatus.String(),
		Status:         next.String(),
		Flags:          flags,
		AllowedActions: inspection.AllowedActions(next),
	}, nil
}

// normalize 复制输入并对齐检查表结构；客户端传入的状态与标记一律忽略
func (s *OutboundService) normalize(input *models.OutboundRecord, current models.OutboundStatus) *models.OutboundRecord {
	catalog := inspection.DefaultCatalog()
	record := *input
	record.ID = 0
	record.RouteNumber = strings.TrimSpace(input.RouteNumber)
	if site := constants.NormalizeSite(input.Site); site != "" {
		record.Site = site
	} else {
		record.Site = strings.TrimSpace(input.Site)
	}
	record.DeliveryDate = strings.TrimSpace(input.DeliveryDate)
	record.OutboundStatus = current
	record.RequireAttention = false
	record.TempExc = false
	record.PoweredPalletJackInspection = datatypes.NewJSONType(catalog.AlignPallet(input.PoweredPalletJackInspection.Data()))
	record.TrailerInspectionChecklist = datatypes.NewJSONType(catalog.AlignTrailer(input.TrailerInspectionChecklist.Data()))
	record.LoadingSummary = datatypes.NewJSONType(catalog.AlignPositions(input.LoadingSummary.Data()))
	if !inspection.ShowLoadingReturn(current) {
		record.LoadingReturn = datatypes.NewJSONType(models.LoadingReturn{})
	}
	return &record
}

// outboundPDFBody pdfOutbound 请求体：表单数据 + 收件邮箱
type outboundPDFBody struct {
	*models.OutboundRecord
	Email string `json:"email"`
}

// Export 请求出库单 PDF，仅待复核/已完成可导出
func (s *OutboundService) Export(ctx context.Context, principal identity.Principal, routeNumber string) (*ExportAck, error) {
	routeNumber = strings.TrimSpace(routeNumber)
	if routeNumber == "" {
		return nil, ErrRouteNumberRequired
	}
	ctx = identity.NewContext(ctx, principal)
	record, err := s.repo.GetByRouteNumber(ctx, routeNumber)
	if err != nil {
		return nil, storeError("outbound_export_load", err, nil)
	}
	if record == nil {
		return nil, ErrNotFound
	}
	if !inspection.CanExport(record.OutboundStatus) {
		return nil, ErrExportNotAllowed
	}
	ack := s.exports.Dispatch(ctx, principal, constants.ExportKindOutbound, outboundPDFBody{
		OutboundRecord: record,
		Email:          principal.Email,
	})
	return &ack, nil
}

func newOutboundPlaceholder(routeNumber string) *models.OutboundRecord {
	catalog := inspection.DefaultCatalog()
	return &models.OutboundRecord{
		RouteNumber:                 routeNumber,
		OutboundStatus:              models.OutboundStatusNew,
		PoweredPalletJackInspection: datatypes.NewJSONType(catalog.BlankPalletInspection()),
		TrailerInspectionChecklist:  datatypes.NewJSONType(catalog.BlankTrailerInspection()),
		LoadingSummary:              datatypes.NewJSONType(catalog.BlankLoadingSummary()),
	}
}
