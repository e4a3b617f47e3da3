package service

import (
	"context"
	"time"

	"github.com/cargo-inspection/internal/cache"
	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/identity"
	"github.com/cargo-inspection/internal/inspection"
	"github.com/cargo-inspection/internal/logger"
	"github.com/cargo-inspection/internal/models"
	"github.com/cargo-inspection/internal/repository"
)

// VerificationService 月度复核服务
type VerificationService struct {
	outbounds     repository.OutboundRepository
	verifications repository.VerificationRepository
	locker        *cache.Locker
	exports       *ExportDispatcher
	workflow      Workflow
}

// NewVerificationService 创建月度复核服务
func NewVerificationService(
	outbounds repository.OutboundRepository,
	verifications repository.VerificationRepository,
	locker *cache.Locker,
	exports *ExportDispatcher,
	workflow Workflow,
) *VerificationService {
	return &VerificationService{
		outbounds:     outbounds,
		verifications: verifications,
		locker:        locker,
		exports:       exports,
		workflow:      workflow,
	}
}

// VerificationView 月度复核页面数据
type VerificationView struct {
	Name           string                     `json:"name"`
	Year           int                        `json:"year"`
	Month          string                     `json:"month"`
	Site           string                     `json:"site"`
	Record         *models.VerificationRecord `json:"record"`
	State          models.ReviewState         `json:"state"`
	Outbounds      []models.OutboundRecord    `json:"outbounds"`
	TotalOutbounds int                        `json:"totalOutbounds"`
	Eligible       bool                       `json:"eligible"`
	Blockers       []string                   `json:"blockers"`
	Link           string                     `json:"link"`
}

// VerificationYearView 年度内 12 个月的复核概览
type VerificationYearView struct {
	Year   int        `json:"year"`
	Site   string     `json:"site"`
	Months []MonthRow `json:"months"`
}

// ListOutboundsForPeriod 站点某月全部出库单
func (s *VerificationService) ListOutboundsForPeriod(ctx context.Context, principal identity.Principal, site string, period inspection.Period) ([]models.OutboundRecord, error) {
	site, err := normalizeSite(site)
	if err != nil {
		return nil, err
	}
	from, to := period.DateRange()
	records, err := s.outbounds.ListByPeriod(identity.NewContext(ctx, principal), site, from, to)
	if err != nil {
		return nil, storeError("verification_list_outbounds", err, nil)
	}
	if records == nil {
		records = []models.OutboundRecord{}
	}
	return records, nil
}

// View 月度复核页面：记录、出库单与审批条件
func (s *VerificationService) View(ctx context.Context, principal identity.Principal, site, periodValue string) (*VerificationView, error) {
	site, err := normalizeSite(site)
	if err != nil {
		return nil, err
	}
	period, err := inspection.ParsePeriod(periodValue)
	if err != nil {
		return nil, err
	}
	outbounds, err := s.ListOutboundsForPeriod(ctx, principal, site, period)
	if err != nil {
		return nil, err
	}
	record, err := s.verifications.Get(identity.NewContext(ctx, principal), period.Name(), site)
	if err != nil {
		return nil, storeError("verification_load", err, nil)
	}
	var stored *models.ReviewStatus
	if record != nil {
		stored = record.VerificationStatus
	}
	now := s.workflow.now()
	blockers := inspection.VerificationPeriodBlockers(period, now, outbounds)
	eligible := len(blockers) == 0
	return &VerificationView{
		Name:           period.Name(),
		Year:           period.Year,
		Month:          period.MonthString(),
		Site:           site,
		Record:         record,
		State:          inspection.ReviewState(stored, eligible),
		Outbounds:      outbounds,
		TotalOutbounds: len(outbounds),
		Eligible:       eligible,
		Blockers:       blockers,
		Link:           inspection.VerificationPath(period, site),
	}, nil
}

// CanApprove 校验审批条件，不满足时返回 BlockedError
func (s *VerificationService) CanApprove(ctx context.Context, principal identity.Principal, site string, period inspection.Period, signature string) error {
	_, err := s.check(ctx, principal, site, period, signature)
	return err
}

func (s *VerificationService) check(ctx context.Context, principal identity.Principal, site string, period inspection.Period, signature string) ([]models.OutboundRecord, error) {
	outbounds, err := s.ListOutboundsForPeriod(ctx, principal, site, period)
	if err != nil {
		return nil, err
	}
	if reasons := inspection.VerificationBlockers(period, s.workflow.now(), signature, outbounds); len(reasons) > 0 {
		return outbounds, &BlockedError{Reasons: reasons}
	}
	return outbounds, nil
}

// verificationPDFBody pdfVerification 请求体
type verificationPDFBody struct {
	Name       string                  `json:"name"`
	Data       []models.OutboundRecord `json:"data"`
	Email      string                  `json:"email"`
	VerifiedBy string                  `json:"verifiedBy"`
	Signature  string                  `json:"signature"`
	Site       string                  `json:"site"`
}

// Approve 批准月度复核；已批准时幂等返回
func (s *VerificationService) Approve(ctx context.Context, principal identity.Principal, input ApproveInput) (*ApprovalAck, error) {
	site, err := normalizeSite(input.Site)
	if err != nil {
		return nil, err
	}
	period, err := inspection.ParsePeriod(input.Period)
	if err != nil {
		return nil, err
	}
	ctx = identity.NewContext(ctx, principal)

	release, err := s.locker.Acquire(ctx, "verification:"+site+":"+period.Name())
	if err != nil {
		return nil, lockError(err)
	}
	defer release()

	existing, err := s.verifications.Get(ctx, period.Name(), site)
	if err != nil {
		return nil, storeError("verification_load", err, nil)
	}
	if existing.IsApproved() {
		same := SameSignature(existing.SignatureDigest, existing.Signature, input.Signature)
		logger.Infow("verification_already_approved", "name", period.Name(), "site", site, "same_signature", same, "user", principal.DisplayName())
		return &ApprovalAck{AlreadyApproved: true, SameSignature: same, State: string(models.ReviewStateApproved), Record: existing}, nil
	}

	outbounds, err := s.check(ctx, principal, site, period, input.Signature)
	if err != nil {
		return nil, err
	}

	now := s.workflow.now()
	approvedAt := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	record := &models.VerificationRecord{
		Name:               period.Name(),
		Site:               site,
		Year:               period.Year,
		Month:              period.Month,
		VerificationStatus: models.ReviewStatusPtr(models.ReviewStatusApproved),
		VerificationDate:   &approvedAt,
		VerifiedBy:         principal.DisplayName(),
		Signature:          input.Signature,
		SignatureDigest:    SignatureDigest(input.Signature),
		TotalOutbounds:     len(outbounds),
	}
	if existing != nil {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	}
	if err := s.verifications.Upsert(ctx, record); err != nil {
		logger.Errorw("verification_persist_failed", "name", period.Name(), "site", site, "error", err)
		return nil, storeError("verification_approve", err, input)
	}
	logger.Infow("verification_approved",
		"name", period.Name(),
		"site", site,
		"total_outbounds", len(outbounds),
		"user", principal.DisplayName(),
	)

	ack := s.exports.Dispatch(ctx, principal, constants.ExportKindVerification, verificationPDFBody{
		Name:       period.Name(),
		Data:       outbounds,
		Email:      principal.Email,
		VerifiedBy: principal.DisplayName(),
		Signature:  input.Signature,
		Site:       site,
	})
	if ack.State == constants.ExportStateFailed {
		logger.Warnw("verification_export_failed", "name", period.Name(), "site", site, "error", ack.Error)
	}
	return &ApprovalAck{State: string(models.ReviewStateApproved), Record: record, Export: &ack}, nil
}

// YearOverview 年度内各月复核状态，每行附带跳转链接
func (s *VerificationService) YearOverview(ctx context.Context, principal identity.Principal, site, yearValue string) (*VerificationYearView, error) {
	site, err := normalizeSite(site)
	if err != nil {
		return nil, err
	}
	year, err := inspection.ParseYear(yearValue)
	if err != nil {
		return nil, err
	}
	records, err := s.verifications.ListByYear(identity.NewContext(ctx, principal), year, site)
	if err != nil {
		return nil, storeError("verification_list_year", err, nil)
	}
	return &VerificationYearView{Year: year, Site: site, Months: buildMonthRows(year, site, records)}, nil
}

func buildMonthRows(year int, site string, records []models.VerificationRecord) []MonthRow {
	byName := make(map[string]*models.VerificationRecord, len(records))
	for i := range records {
		byName[records[i].Name] = &records[i]
	}
	rows := make([]MonthRow, 0, 12)
	for _, period := range inspection.MonthsOf(year) {
		row := MonthRow{
			Name:  period.Name(),
			Month: period.MonthString(),
			Site:  site,
			State: models.ReviewStatePending,
			Link:  inspection.VerificationPath(period, site),
		}
		if record, ok := byName[period.Name()]; ok {
			row.State = record.State()
			row.VerifiedBy = record.VerifiedBy
			row.TotalOutbounds = record.TotalOutbounds
			if record.VerificationDate != nil {
				row.VerificationDate = record.VerificationDate.Format(constants.DateLayout)
			}
		}
		rows = append(rows, row)
	}
	return rows
}
