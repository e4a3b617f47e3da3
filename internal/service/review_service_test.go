package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/identity"
	"github.com/cargo-inspection/internal/inspection"
	"github.com/cargo-inspection/internal/models"
)

var testReviewer = identity.Principal{Username: "louis", Email: "louis@example.com", Roles: []string{constants.ClaimRoleReviewer}}

// marchOutbounds MD 站 2024-03 的出库单，前 completed 条已完成，其余未完成
func marchOutbounds(total, completed int) []*models.OutboundRecord {
	records := make([]*models.OutboundRecord, 0, total)
	for i := 0; i < total; i++ {
		status := models.OutboundStatusIncomplete
		if i < completed {
			status = models.OutboundStatusCompleted
		}
		date := fmt.Sprintf("2024-03-%02d", i%28+1)
		records = append(records, storedOutbound(fmt.Sprintf("R%03d", i), constants.SiteMD, date, status))
	}
	return records
}

func newTestVerificationService(outbounds *outboundRepoStub, verifications *verificationRepoStub, exporter PDFExporter, now time.Time) *VerificationService {
	return NewVerificationService(outbounds, verifications, newTestLocker(), newInlineDispatcher(exporter), fixedWorkflow(now))
}

func TestVerificationBlockedByIncompleteOutbounds(t *testing.T) {
	svc := newTestVerificationService(newOutboundRepoStub(marchOutbounds(20, 18)...), newVerificationRepoStub(), &exporterStub{}, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))

	err := svc.CanApprove(context.Background(), testReviewer, "MD", inspection.Period{Year: 2024, Month: 3}, "data:image/png;base64,AAA")
	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("want BlockedError, got %v", err)
	}
	if len(blocked.Reasons) != 1 || blocked.Reasons[0] != "2 of 20 outbounds are not Completed" {
		t.Fatalf("unexpected reasons: %v", blocked.Reasons)
	}
}

func TestVerificationBlockedForCurrentMonthAndMissingSignature(t *testing.T) {
	svc := newTestVerificationService(newOutboundRepoStub(marchOutbounds(3, 3)...), newVerificationRepoStub(), &exporterStub{}, time.Date(2024, 3, 28, 12, 0, 0, 0, time.UTC))

	err := svc.CanApprove(context.Background(), testReviewer, "md", inspection.Period{Year: 2024, Month: 3}, " ")
	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("want BlockedError, got %v", err)
	}
	want := []string{inspection.ReasonVerificationUnsigned, inspection.ReasonVerificationTooEarly}
	if strings.Join(blocked.Reasons, "|") != strings.Join(want, "|") {
		t.Fatalf("reasons want %v, got %v", want, blocked.Reasons)
	}
}

func TestVerificationAbnormalOutboundBlocks(t *testing.T) {
	records := marchOutbounds(2, 2)
	records[1].TempExc = true
	svc := newTestVerificationService(newOutboundRepoStub(records...), newVerificationRepoStub(), &exporterStub{}, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))

	err := svc.CanApprove(context.Background(), testReviewer, "MD", inspection.Period{Year: 2024, Month: 3}, "sig")
	var blocked *BlockedError
	if !errors.As(err, &blocked) || blocked.Reasons[0] != inspection.ReasonOutboundsAbnormal {
		t.Fatalf("abnormal outbound should block, got %v", err)
	}
}

func TestVerificationApproveWritesAndExports(t *testing.T) {
	verifications := newVerificationRepoStub()
	exporter := &exporterStub{}
	svc := newTestVerificationService(newOutboundRepoStub(marchOutbounds(4, 4)...), verifications, exporter, time.Date(2024, 4, 10, 18, 30, 0, 0, time.UTC))

	ack, err := svc.Approve(context.Background(), testReviewer, ApproveInput{Site: "md", Period: "2024-03", Signature: "data:image/png;base64,AAA"})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if ack.AlreadyApproved || ack.Export == nil || ack.Export.State != constants.ExportStateSent {
		t.Fatalf("unexpected ack: %+v", ack)
	}
	stored := verifications.records["202403/MD"]
	if !stored.IsApproved() || stored.VerifiedBy != "louis" || stored.TotalOutbounds != 4 {
		t.Fatalf("unexpected stored record: %+v", stored)
	}
	if stored.SignatureDigest != SignatureDigest("data:image/png;base64,AAA") {
		t.Fatalf("signature digest mismatch")
	}
	if stored.VerificationDate == nil || stored.VerificationDate.Format(constants.DateLayout) != "2024-04-10" {
		t.Fatalf("verification date want 2024-04-10, got %v", stored.VerificationDate)
	}

	var body verificationPDFBody
	if err := json.Unmarshal(exporter.bodies[0], &body); err != nil {
		t.Fatalf("decode export body failed: %v", err)
	}
	if body.Name != "202403" || body.Site != "MD" || len(body.Data) != 4 || body.Email != "louis@example.com" {
		t.Fatalf("unexpected export body: %+v", body)
	}
}

func TestVerificationApproveAllowsEmptyPeriod(t *testing.T) {
	verifications := newVerificationRepoStub()
	svc := newTestVerificationService(newOutboundRepoStub(), verifications, &exporterStub{}, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC))

	if _, err := svc.Approve(context.Background(), testReviewer, ApproveInput{Site: "IL", Period: "202403", Signature: "sig"}); err != nil {
		t.Fatalf("empty period should be approvable: %v", err)
	}
	if verifications.records["202403/IL"].TotalOutbounds != 0 {
		t.Fatalf("total outbounds want 0")
	}
}

func TestVerificationReapproveIsIdempotent(t *testing.T) {
	verifications := newVerificationRepoStub(approvedVerification(2024, 3, constants.SiteMD))
	exporter := &exporterStub{}
	svc := newTestVerificationService(newOutboundRepoStub(marchOutbounds(2, 1)...), verifications, exporter, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC))

	ack, err := svc.Approve(context.Background(), testReviewer, ApproveInput{Site: "MD", Period: "202403", Signature: "sig"})
	if err != nil {
		t.Fatalf("re-approve failed: %v", err)
	}
	if !ack.AlreadyApproved || ack.Export != nil {
		t.Fatalf("re-approve should be a no-op: %+v", ack)
	}
	if verifications.upserts != 0 || len(exporter.kinds) != 0 {
		t.Fatalf("re-approve must not write or export")
	}
}

func TestVerificationReapproveComparesSignatureDigest(t *testing.T) {
	stored := approvedVerification(2024, 3, constants.SiteMD)
	stored.Signature = "data:image/png;base64,AAA"
	stored.SignatureDigest = SignatureDigest(stored.Signature)
	svc := newTestVerificationService(newOutboundRepoStub(), newVerificationRepoStub(stored), &exporterStub{}, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	ack, err := svc.Approve(ctx, testReviewer, ApproveInput{Site: "MD", Period: "202403", Signature: " data:image/png;base64,AAA "})
	if err != nil || !ack.AlreadyApproved || !ack.SameSignature {
		t.Fatalf("identical signature should be recognised: %+v %v", ack, err)
	}
	ack, err = svc.Approve(ctx, testReviewer, ApproveInput{Site: "MD", Period: "202403", Signature: "data:image/png;base64,BBB"})
	if err != nil || !ack.AlreadyApproved || ack.SameSignature {
		t.Fatalf("different signature must not match: %+v %v", ack, err)
	}
}

func TestSameSignatureFallsBackToStoredImage(t *testing.T) {
	if !SameSignature("", "sig-a", "sig-a") {
		t.Fatalf("missing digest should be derived from the stored signature")
	}
	if SameSignature(SignatureDigest("sig-a"), "", "sig-b") {
		t.Fatalf("different signatures must not match")
	}
	if SameSignature("", "", "") {
		t.Fatalf("empty signatures never match")
	}
}

func TestVerificationExportFailureKeepsApproval(t *testing.T) {
	verifications := newVerificationRepoStub()
	svc := newTestVerificationService(newOutboundRepoStub(), verifications, &exporterStub{err: errStoreDown}, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC))

	ack, err := svc.Approve(context.Background(), testReviewer, ApproveInput{Site: "SC", Period: "202403", Signature: "sig"})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if ack.Export.State != constants.ExportStateFailed {
		t.Fatalf("export state want failed, got %+v", ack.Export)
	}
	stored := verifications.records["202403/SC"]
	if !stored.IsApproved() {
		t.Fatalf("approval must stand when export fails")
	}
}

func TestVerificationViewState(t *testing.T) {
	waitingStatus := models.ReviewStatusPtr(models.ReviewStatusWaitingForApproval)
	verifications := newVerificationRepoStub(models.VerificationRecord{Name: "202402", Site: "MD", Year: 2024, Month: 2, VerificationStatus: waitingStatus})
	svc := newTestVerificationService(newOutboundRepoStub(marchOutbounds(3, 3)...), verifications, &exporterStub{}, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	march, err := svc.View(ctx, testReviewer, "MD", "202403")
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if march.State != models.ReviewStateWaitingForApproval || !march.Eligible || march.TotalOutbounds != 3 {
		t.Fatalf("eligible month should wait for approval: %+v", march)
	}
	if march.Link != "/verification/2024/03/MD" {
		t.Fatalf("unexpected link %q", march.Link)
	}

	april, err := svc.View(ctx, testReviewer, "MD", "2024-04")
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if april.State != models.ReviewStatePending || april.Eligible {
		t.Fatalf("current month should stay pending: %+v", april)
	}

	feb, err := svc.View(ctx, testReviewer, "MD", "202402")
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if feb.State != models.ReviewStateWaitingForApproval {
		t.Fatalf("stored waiting status should be kept, got %s", feb.State)
	}

	if _, err := svc.View(ctx, testReviewer, "NY", "202402"); !errors.Is(err, ErrInvalidSite) {
		t.Fatalf("want ErrInvalidSite, got %v", err)
	}
	if _, err := svc.View(ctx, testReviewer, "MD", "2024-13"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("want ErrInvalidPeriod, got %v", err)
	}
}

func TestVerificationYearOverview(t *testing.T) {
	verifications := newVerificationRepoStub(approvedVerification(2023, 5, constants.SiteSC))
	svc := newTestVerificationService(newOutboundRepoStub(), verifications, &exporterStub{}, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC))

	view, err := svc.YearOverview(context.Background(), testReviewer, "SC", "2023")
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if len(view.Months) != 12 {
		t.Fatalf("want 12 months, got %d", len(view.Months))
	}
	if view.Months[4].State != models.ReviewStateApproved || view.Months[0].State != models.ReviewStatePending {
		t.Fatalf("unexpected month states: %+v", view.Months)
	}
	if view.Months[11].Link != "/verification/2023/12/SC" {
		t.Fatalf("unexpected link %q", view.Months[11].Link)
	}
}

func fullYear(year int, site string) []models.VerificationRecord {
	records := make([]models.VerificationRecord, 0, 12)
	for month := 1; month <= 12; month++ {
		records = append(records, approvedVerification(year, month, site))
	}
	return records
}

func newTestValidationService(outbounds *outboundRepoStub, verifications *verificationRepoStub, validations *validationRepoStub, exporter PDFExporter, now time.Time) *ValidationService {
	return NewValidationService(outbounds, verifications, validations, newTestLocker(), newInlineDispatcher(exporter), fixedWorkflow(now))
}

func TestValidationApprovableAfterYearEnds(t *testing.T) {
	svc := newTestValidationService(newOutboundRepoStub(), newVerificationRepoStub(fullYear(2023, constants.SiteSC)...), newValidationRepoStub(), &exporterStub{}, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))

	if err := svc.CanApprove(context.Background(), testReviewer, "SC", 2023, "sig"); err != nil {
		t.Fatalf("want approvable, got %v", err)
	}
}

func TestValidationBlockedByMissingMonthsAndCurrentYear(t *testing.T) {
	records := fullYear(2024, constants.SiteSC)
	records = append(records[:2], records[4:]...)
	svc := newTestValidationService(newOutboundRepoStub(), newVerificationRepoStub(records...), newValidationRepoStub(), &exporterStub{}, time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC))

	err := svc.CanApprove(context.Background(), testReviewer, "SC", 2024, "sig")
	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("want BlockedError, got %v", err)
	}
	want := []string{inspection.ReasonValidationTooEarly, "Verifications missing or not approved for months: 03, 04"}
	if strings.Join(blocked.Reasons, "|") != strings.Join(want, "|") {
		t.Fatalf("reasons want %v, got %v", want, blocked.Reasons)
	}
}

func TestValidationApproveWritesAndExports(t *testing.T) {
	validations := newValidationRepoStub()
	exporter := &exporterStub{}
	svc := newTestValidationService(newOutboundRepoStub(), newVerificationRepoStub(fullYear(2023, constants.SiteSC)...), validations, exporter, time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC))

	ack, err := svc.Approve(context.Background(), testReviewer, ApproveInput{Site: "sc", Period: "2023", Signature: "sig"})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if ack.Export == nil || ack.Export.State != constants.ExportStateSent {
		t.Fatalf("unexpected ack: %+v", ack)
	}
	stored := validations.records["SC/2023"]
	if !stored.IsApproved() || stored.ValidatedBy != "louis" {
		t.Fatalf("unexpected stored record: %+v", stored)
	}
	var body validationPDFBody
	if err := json.Unmarshal(exporter.bodies[0], &body); err != nil {
		t.Fatalf("decode export body failed: %v", err)
	}
	if body.Year != "2023" || body.ValidationDate != "2025-02-03" || len(body.Data) != 12 {
		t.Fatalf("unexpected export body: %+v", body)
	}

	again, err := svc.Approve(context.Background(), testReviewer, ApproveInput{Site: "SC", Period: "2023", Signature: "sig"})
	if err != nil || !again.AlreadyApproved || !again.SameSignature {
		t.Fatalf("second approve should be idempotent with the same signature: %+v %v", again, err)
	}
	if validations.upserts != 1 || len(exporter.kinds) != 1 {
		t.Fatalf("second approve must not write or export")
	}

	other, err := svc.Approve(context.Background(), testReviewer, ApproveInput{Site: "SC", Period: "2023", Signature: "other"})
	if err != nil || !other.AlreadyApproved || other.SameSignature {
		t.Fatalf("a different signature must be reported: %+v %v", other, err)
	}
	if validations.upserts != 1 {
		t.Fatalf("a different signature must not overwrite the approval")
	}
}

func TestValidationViewAndYears(t *testing.T) {
	outbounds := newOutboundRepoStub(storedOutbound("A1", "MD", "2022-06-01", models.OutboundStatusCompleted), storedOutbound("A2", "MD", "2024-06-01", models.OutboundStatusNew))
	svc := newTestValidationService(outbounds, newVerificationRepoStub(fullYear(2023, constants.SiteMD)...), newValidationRepoStub(), &exporterStub{}, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	view, err := svc.View(ctx, testReviewer, "MD", "2023")
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if view.State != models.ReviewStateWaitingForApproval || len(view.PendingMonths) != 0 || view.Link != "/validation/2023/MD" {
		t.Fatalf("unexpected view: %+v", view)
	}

	years, err := svc.Years(ctx, testReviewer)
	if err != nil {
		t.Fatalf("years failed: %v", err)
	}
	if fmt.Sprint(years) != "[2024 2023 2022]" {
		t.Fatalf("years want [2024 2023 2022], got %v", years)
	}
}
