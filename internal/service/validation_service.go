package service

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/cargo-inspection/internal/cache"
	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/identity"
	"github.com/cargo-inspection/internal/inspection"
	"github.com/cargo-inspection/internal/logger"
	"github.com/cargo-inspection/internal/models"
	"github.com/cargo-inspection/internal/repository"
)

// ValidationService 年度确认服务
type ValidationService struct {
	outbounds     repository.OutboundRepository
	verifications repository.VerificationRepository
	validations   repository.ValidationRepository
	locker        *cache.Locker
	exports       *ExportDispatcher
	workflow      Workflow
}

// NewValidationService 创建年度确认服务
func NewValidationService(
	outbounds repository.OutboundRepository,
	verifications repository.VerificationRepository,
	validations repository.ValidationRepository,
	locker *cache.Locker,
	exports *ExportDispatcher,
	workflow Workflow,
) *ValidationService {
	return &ValidationService{
		outbounds:     outbounds,
		verifications: verifications,
		validations:   validations,
		locker:        locker,
		exports:       exports,
		workflow:      workflow,
	}
}

// ValidationView 年度确认页面数据
type ValidationView struct {
	Year          int                      `json:"year"`
	Site          string                   `json:"site"`
	Record        *models.ValidationRecord `json:"record"`
	State         models.ReviewState       `json:"state"`
	Months        []MonthRow               `json:"months"`
	PendingMonths []string                 `json:"pendingMonths"`
	Eligible      bool                     `json:"eligible"`
	Blockers      []string                 `json:"blockers"`
	Link          string                   `json:"link"`
}

// ListVerificationsForYear 站点某年全部月度复核
func (s *ValidationService) ListVerificationsForYear(ctx context.Context, principal identity.Principal, site string, year int) ([]models.VerificationRecord, error) {
	site, err := normalizeSite(site)
	if err != nil {
		return nil, err
	}
	records, err := s.verifications.ListByYear(identity.NewContext(ctx, principal), year, site)
	if err != nil {
		return nil, storeError("validation_list_verifications", err, nil)
	}
	if records == nil {
		records = []models.VerificationRecord{}
	}
	return records, nil
}

// View 年度确认页面：记录、12 个月复核与审批条件
func (s *ValidationService) View(ctx context.Context, principal identity.Principal, site, yearValue string) (*ValidationView, error) {
	site, err := normalizeSite(site)
	if err != nil {
		return nil, err
	}
	year, err := inspection.ParseYear(yearValue)
	if err != nil {
		return nil, err
	}
	verifications, err := s.ListVerificationsForYear(ctx, principal, site, year)
	if err != nil {
		return nil, err
	}
	record, err := s.validations.Get(identity.NewContext(ctx, principal), year, site)
	if err != nil {
		return nil, storeError("validation_load", err, nil)
	}
	var stored *models.ReviewStatus
	if record != nil {
		stored = record.ValidationStatus
	}
	now := s.workflow.now()
	blockers := inspection.ValidationPeriodBlockers(year, now, verifications)
	eligible := len(blockers) == 0
	return &ValidationView{
		Year:          year,
		Site:          site,
		Record:        record,
		State:         inspection.ReviewState(stored, eligible),
		Months:        buildMonthRows(year, site, verifications),
		PendingMonths: inspection.PendingMonths(year, verifications),
		Eligible:      eligible,
		Blockers:      blockers,
		Link:          inspection.ValidationPath(year, site),
	}, nil
}

// CanApprove 校验审批条件，不满足时返回 BlockedError
func (s *ValidationService) CanApprove(ctx context.Context, principal identity.Principal, site string, year int, signature string) error {
	_, err := s.check(ctx, principal, site, year, signature)
	return err
}

func (s *ValidationService) check(ctx context.Context, principal identity.Principal, site string, year int, signature string) ([]models.VerificationRecord, error) {
	verifications, err := s.ListVerificationsForYear(ctx, principal, site, year)
	if err != nil {
		return nil, err
	}
	if reasons := inspection.ValidationBlockers(year, s.workflow.now(), signature, verifications); len(reasons) > 0 {
		return verifications, &BlockedError{Reasons: reasons}
	}
	return verifications, nil
}

// validationPDFBody pdfValidation 请求体
type validationPDFBody struct {
	Year           string                      `json:"year"`
	Data           []models.VerificationRecord `json:"data"`
	Email          string                      `json:"email"`
	ValidatedBy    string                      `json:"validatedBy"`
	ValidationDate string                      `json:"validationDate"`
	Signature      string                      `json:"signature"`
	Site           string                      `json:"site"`
}

// Approve 批准年度确认；已批准时幂等返回
func (s *ValidationService) Approve(ctx context.Context, principal identity.Principal, input ApproveInput) (*ApprovalAck, error) {
	site, err := normalizeSite(input.Site)
	if err != nil {
		return nil, err
	}
	year, err := inspection.ParseYear(input.Period)
	if err != nil {
		return nil, err
	}
	ctx = identity.NewContext(ctx, principal)

	release, err := s.locker.Acquire(ctx, "validation:"+site+":"+strconv.Itoa(year))
	if err != nil {
		return nil, lockError(err)
	}
	defer release()

	existing, err := s.validations.Get(ctx, year, site)
	if err != nil {
		return nil, storeError("validation_load", err, nil)
	}
	if existing.IsApproved() {
		same := SameSignature(existing.SignatureDigest, existing.Signature, input.Signature)
		logger.Infow("validation_already_approved", "year", year, "site", site, "same_signature", same, "user", principal.DisplayName())
		return &ApprovalAck{AlreadyApproved: true, SameSignature: same, State: string(models.ReviewStateApproved), Record: existing}, nil
	}

	verifications, err := s.check(ctx, principal, site, year, input.Signature)
	if err != nil {
		return nil, err
	}

	now := s.workflow.now()
	approvedAt := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	record := &models.ValidationRecord{
		Year:             year,
		Site:             site,
		ValidationStatus: models.ReviewStatusPtr(models.ReviewStatusApproved),
		ValidationDate:   &approvedAt,
		ValidatedBy:      principal.DisplayName(),
		Signature:        input.Signature,
		SignatureDigest:  SignatureDigest(input.Signature),
	}
	if existing != nil {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	}
	if err := s.validations.Upsert(ctx, record); err != nil {
		logger.Errorw("validation_persist_failed", "year", year, "site", site, "error", err)
		return nil, storeError("validation_approve", err, input)
	}
	logger.Infow("validation_approved", "year", year, "site", site, "user", principal.DisplayName())

	ack := s.exports.Dispatch(ctx, principal, constants.ExportKindValidation, validationPDFBody{
		Year:           strconv.Itoa(year),
		Data:           verifications,
		Email:          principal.Email,
		ValidatedBy:    principal.DisplayName(),
		ValidationDate: approvedAt.Format(constants.DateLayout),
		Signature:      input.Signature,
		Site:           site,
	})
	if ack.State == constants.ExportStateFailed {
		logger.Warnw("validation_export_failed", "year", year, "site", site, "error", ack.Error)
	}
	return &ApprovalAck{State: string(models.ReviewStateApproved), Record: record, Export: &ack}, nil
}

// Years 有出库单或复核数据的年份，新到旧
func (s *ValidationService) Years(ctx context.Context, principal identity.Principal) ([]int, error) {
	ctx = identity.NewContext(ctx, principal)
	outboundYears, err := s.outbounds.ListYears(ctx)
	if err != nil {
		return nil, storeError("validation_years", err, nil)
	}
	verificationYears, err := s.verifications.ListYears(ctx)
	if err != nil {
		return nil, storeError("validation_years", err, nil)
	}
	seen := make(map[int]struct{})
	years := make([]int, 0, len(outboundYears)+len(verificationYears))
	for _, year := range append(outboundYears, verificationYears...) {
		if year <= 0 {
			continue
		}
		if _, ok := seen[year]; ok {
			continue
		}
		seen[year] = struct{}{}
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}
