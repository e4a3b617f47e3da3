package inspection

import (
	"fmt"
	"strings"
	"time"

	"github.com/cargo-inspection/internal/models"
)

// 审批阻塞原因
const (
	ReasonVerificationUnsigned = "Please sign before verifying outbound!"
	ReasonVerificationTooEarly = "Verification can only be done for months that have passed."
	ReasonOutboundsAbnormal    = "Some outbounds don't meet the requirements."
	ReasonValidationUnsigned   = "Please sign before validating outbound!"
	ReasonValidationTooEarly   = "Validation can only be done for years that have passed."
)

// VerificationBlockers 月度复核的阻塞原因，空列表表示可批准
// 周期内无出库单时不阻塞
func VerificationBlockers(period Period, now time.Time, signature string, outbounds []models.OutboundRecord) []string {
	reasons := make([]string, 0, 4)
	if strings.TrimSpace(signature) == "" {
		reasons = append(reasons, ReasonVerificationUnsigned)
	}
	return append(reasons, VerificationPeriodBlockers(period, now, outbounds)...)
}

// VerificationPeriodBlockers 与签名无关的月度复核阻塞原因
func VerificationPeriodBlockers(period Period, now time.Time, outbounds []models.OutboundRecord) []string {
	reasons := make([]string, 0, 3)
	if !period.Before(PeriodOf(now)) {
		reasons = append(reasons, ReasonVerificationTooEarly)
	}
	notCompleted := 0
	abnormal := false
	for i := range outbounds {
		if outbounds[i].OutboundStatus != models.OutboundStatusCompleted {
			notCompleted++
		}
		if outbounds[i].IsAbnormal() {
			abnormal = true
		}
	}
	if notCompleted > 0 {
		reasons = append(reasons, fmt.Sprintf("%d of %d outbounds are not Completed", notCompleted, len(outbounds)))
	}
	if abnormal {
		reasons = append(reasons, ReasonOutboundsAbnormal)
	}
	return reasons
}

// ValidationBlockers 年度确认的阻塞原因，空列表表示可批准
func ValidationBlockers(year int, now time.Time, signature string, verifications []models.VerificationRecord) []string {
	reasons := make([]string, 0, 3)
	if strings.TrimSpace(signature) == "" {
		reasons = append(reasons, ReasonValidationUnsigned)
	}
	return append(reasons, ValidationPeriodBlockers(year, now, verifications)...)
}

// ValidationPeriodBlockers 与签名无关的年度确认阻塞原因
func ValidationPeriodBlockers(year int, now time.Time, verifications []models.VerificationRecord) []string {
	reasons := make([]string, 0, 2)
	if year >= now.Year() {
		reasons = append(reasons, ReasonValidationTooEarly)
	}
	if months := PendingMonths(year, verifications); len(months) > 0 {
		reasons = append(reasons, "Verifications missing or not approved for months: "+strings.Join(months, ", "))
	}
	return reasons
}

// PendingMonths 缺失或未批准的月份（两位月份，升序）
func PendingMonths(year int, verifications []models.VerificationRecord) []string {
	approved := make(map[string]bool, len(verifications))
	for i := range verifications {
		if verifications[i].IsApproved() {
			approved[verifications[i].Name] = true
		}
	}
	pending := make([]string, 0)
	for _, period := range MonthsOf(year) {
		if !approved[period.Name()] {
			pending = append(pending, period.MonthString())
		}
	}
	return pending
}

// VerificationEligible 不考虑签名时月度复核是否满足审批条件
func VerificationEligible(period Period, now time.Time, outbounds []models.OutboundRecord) bool {
	return len(VerificationPeriodBlockers(period, now, outbounds)) == 0
}

// ValidationEligible 不考虑签名时年度确认是否满足审批条件
func ValidationEligible(year int, now time.Time, verifications []models.VerificationRecord) bool {
	return len(ValidationPeriodBlockers(year, now, verifications)) == 0
}

// ReviewState 审核状态：已批准为终态，已标记待批准或满足条件为待批准，其余为待处理
func ReviewState(stored *models.ReviewStatus, eligible bool) models.ReviewState {
	state := models.StateOf(stored)
	if state != models.ReviewStatePending {
		return state
	}
	if eligible {
		return models.ReviewStateWaitingForApproval
	}
	return models.ReviewStatePending
}
