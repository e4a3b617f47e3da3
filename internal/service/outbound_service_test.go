package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/inspection"
	"github.com/cargo-inspection/internal/models"

	"gorm.io/datatypes"
)

func newTestOutboundService(repo *outboundRepoStub, exporter PDFExporter) *OutboundService {
	return NewOutboundService(repo, newTestLocker(), newInlineDispatcher(exporter), fixedWorkflow(time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)))
}

func markTrailer(record *models.OutboundRecord, area, item int, value string) {
	trailer := record.TrailerInspectionChecklist.Data()
	trailer.Checklist[area].Items[item].Value = value
	record.TrailerInspectionChecklist = datatypes.NewJSONType(trailer)
}

func TestSubmitFreshRouteMovesToWaiting(t *testing.T) {
	repo := newOutboundRepoStub()
	svc := newTestOutboundService(repo, &exporterStub{})

	result, err := svc.Submit(context.Background(), testInspector, completeOutbound("042", 28))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	stored := repo.records["042"]
	if stored.OutboundStatus != models.OutboundStatusWaiting || stored.OutboundStatus.Code() != 2 {
		t.Fatalf("status want waiting(2), got %v", stored.OutboundStatus)
	}
	if stored.RequireAttention || stored.TempExc {
		t.Fatalf("clean record should carry no flags: %+v", result.Flags)
	}
	if result.PreviousStatus != "new" || result.Status != "waiting" {
		t.Fatalf("unexpected transition %s -> %s", result.PreviousStatus, result.Status)
	}
	if stored.LastModifiedBy != "louis" {
		t.Fatalf("last modified by want louis, got %q", stored.LastModifiedBy)
	}
}

func TestResubmitFromWaitingCompletesWithFlags(t *testing.T) {
	repo := newOutboundRepoStub()
	svc := newTestOutboundService(repo, &exporterStub{})
	ctx := context.Background()

	if _, err := svc.Submit(ctx, testInspector, completeOutbound("042", 28)); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	again := withLoadingReturn(completeOutbound("042", 35))
	markTrailer(again, 1, 2, constants.TrailerCheckNo)
	result, err := svc.Submit(ctx, testInspector, again)
	if err != nil {
		t.Fatalf("second submit failed: %v", err)
	}
	stored := repo.records["042"]
	if stored.OutboundStatus != models.OutboundStatusCompleted || stored.OutboundStatus.Code() != 0 {
		t.Fatalf("status want completed(0), got %v", stored.OutboundStatus)
	}
	if !stored.RequireAttention || !stored.TempExc {
		t.Fatalf("flags want both true, got attention=%v temp=%v", stored.RequireAttention, stored.TempExc)
	}
	want := []string{constants.OutboundActionSubmit, constants.OutboundActionExport}
	if len(result.AllowedActions) != len(want) || result.AllowedActions[0] != want[0] || result.AllowedActions[1] != want[1] {
		t.Fatalf("completed record should allow %v, got %v", want, result.AllowedActions)
	}
	if stored.LoadingReturn.Data().ReturnLB != "2" {
		t.Fatalf("loading return should be kept once waiting")
	}
}

func TestSubmitFromWaitingRequiresLoadingReturn(t *testing.T) {
	waiting := completeOutbound("042", 28)
	waiting.OutboundStatus = models.OutboundStatusWaiting
	repo := newOutboundRepoStub(waiting)
	svc := newTestOutboundService(repo, &exporterStub{})

	_, err := svc.Submit(context.Background(), testInspector, completeOutbound("042", 28))
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if validationErr.Fields.First() != "returnDateTime" {
		t.Fatalf("first field want returnDateTime, got %v", validationErr.Fields.Fields())
	}
	if repo.upserts != 0 {
		t.Fatalf("invalid submit must not persist")
	}
}

func TestSaveFromWaitingNotAllowed(t *testing.T) {
	waiting := completeOutbound("042", 28)
	waiting.OutboundStatus = models.OutboundStatusWaiting
	repo := newOutboundRepoStub(waiting)
	svc := newTestOutboundService(repo, &exporterStub{})

	if _, err := svc.Save(context.Background(), testInspector, completeOutbound("042", 28)); !errors.Is(err, ErrActionNotAllowed) {
		t.Fatalf("want ErrActionNotAllowed, got %v", err)
	}
	if repo.upserts != 0 {
		t.Fatalf("rejected save must not persist")
	}
}

func TestSaveOnlyChecksBaseFields(t *testing.T) {
	repo := newOutboundRepoStub()
	svc := newTestOutboundService(repo, &exporterStub{})

	draft := &models.OutboundRecord{
		RouteNumber:  "042",
		Site:         "md",
		DeliveryDate: "2024-03-05",
		Carrier:      "EFC Fleet",
		RouteName:    "Baltimore North",
		Tractor:      "T-17",
		Trailer:      "R-204",
		Driver:       "Sam Ortiz",
	}
	result, err := svc.Save(context.Background(), testInspector, draft)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if result.Status != "incomplete" {
		t.Fatalf("status want incomplete, got %s", result.Status)
	}
	if repo.records["042"].Site != constants.SiteMD {
		t.Fatalf("site should be normalized, got %q", repo.records["042"].Site)
	}
}

func TestSubmitReportsFieldsInFormOrder(t *testing.T) {
	repo := newOutboundRepoStub()
	svc := newTestOutboundService(repo, &exporterStub{})

	input := completeOutbound("042", 28)
	input.Carrier = ""
	input.Driver = ""
	markTrailer(input, 0, 0, "")

	_, err := svc.Submit(context.Background(), testInspector, input)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	fields := validationErr.Fields.Fields()
	want := []string{"carrier", "driver", "trailer-check-0-0"}
	if len(fields) != len(want) {
		t.Fatalf("fields want %v, got %v", want, fields)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Fatalf("fields want %v, got %v", want, fields)
		}
	}
}

func TestSubmitIgnoresClientFlagsAndDropsEarlyReturn(t *testing.T) {
	repo := newOutboundRepoStub()
	svc := newTestOutboundService(repo, &exporterStub{})

	input := withLoadingReturn(completeOutbound("042", 28))
	input.RequireAttention = true
	input.TempExc = true
	input.OutboundStatus = models.OutboundStatusCompleted

	if _, err := svc.Submit(context.Background(), testInspector, input); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	stored := repo.records["042"]
	if stored.RequireAttention || stored.TempExc {
		t.Fatalf("flags must be derived from the record, not the request")
	}
	if stored.OutboundStatus != models.OutboundStatusWaiting {
		t.Fatalf("client status must be ignored, got %v", stored.OutboundStatus)
	}
	if !stored.LoadingReturn.Data().IsEmpty() {
		t.Fatalf("loading return must be dropped before waiting")
	}
}

func TestSubmitRejectsDuplicateRouteWhenCreating(t *testing.T) {
	repo := newOutboundRepoStub()
	svc := newTestOutboundService(repo, &exporterStub{})
	// 读取时不存在，校验时已被他人创建
	svc.repo = &racingRepo{outboundRepoStub: repo}
	input := completeOutbound("042", 28)

	_, err := svc.Submit(context.Background(), testInspector, input)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if validationErr.Fields[0].Message != inspection.RouteNumberExistsMessage {
		t.Fatalf("unexpected message %q", validationErr.Fields[0].Message)
	}
}

func TestSubmitStoredNewRecordMovesToWaiting(t *testing.T) {
	repo := newOutboundRepoStub(storedOutbound("042", "MD", "2024-03-04", models.OutboundStatusNew))
	svc := newTestOutboundService(repo, &exporterStub{})

	result, err := svc.Submit(context.Background(), testInspector, completeOutbound("042", 28))
	if err != nil {
		t.Fatalf("submit of stored new record failed: %v", err)
	}
	if result.PreviousStatus != models.OutboundStatusNew.String() {
		t.Fatalf("previous status want New, got %s", result.PreviousStatus)
	}
	if got := repo.records["042"].OutboundStatus; got != models.OutboundStatusWaiting {
		t.Fatalf("status want waiting, got %v", got)
	}
}

type racingRepo struct {
	*outboundRepoStub
}

func (r *racingRepo) Exists(context.Context, string) (bool, error) {
	return true, nil
}

func TestPersistFailureKeepsInput(t *testing.T) {
	repo := newOutboundRepoStub()
	repo.upsertErr = errStoreDown
	svc := newTestOutboundService(repo, &exporterStub{})

	input := completeOutbound("042", 28)
	_, err := svc.Submit(context.Background(), testInspector, input)
	var apiErr *ApiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want ApiError, got %v", err)
	}
	if apiErr.Input != input || !errors.Is(err, errStoreDown) {
		t.Fatalf("api error should wrap cause and keep input: %+v", apiErr)
	}
}

func TestConcurrentSubmitRejected(t *testing.T) {
	repo := newOutboundRepoStub()
	svc := newTestOutboundService(repo, &exporterStub{})

	release, err := svc.locker.Acquire(context.Background(), "outbound:042")
	if err != nil {
		t.Fatalf("acquire lock failed: %v", err)
	}
	defer release()

	if _, err := svc.Submit(context.Background(), testInspector, completeOutbound("042", 28)); !errors.Is(err, ErrRequestInFlight) {
		t.Fatalf("want ErrRequestInFlight, got %v", err)
	}
}

func TestLoadMissingRouteReturnsPlaceholder(t *testing.T) {
	svc := newTestOutboundService(newOutboundRepoStub(), &exporterStub{})

	view, err := svc.Load(context.Background(), testInspector, " 042 ")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !view.IsNew || view.Status != "new" || view.ShowLoadingReturn {
		t.Fatalf("unexpected placeholder view: %+v", view)
	}
	if len(view.AllowedActions) != 2 {
		t.Fatalf("new record should allow save and submit, got %v", view.AllowedActions)
	}
	if got := len(view.Record.TrailerInspectionChecklist.Data().Checklist); got != len(inspection.DefaultCatalog().Trailer) {
		t.Fatalf("placeholder trailer areas want catalog size, got %d", got)
	}
	if _, err := svc.Load(context.Background(), testInspector, ""); !errors.Is(err, ErrRouteNumberRequired) {
		t.Fatalf("want ErrRouteNumberRequired, got %v", err)
	}
}

func TestExportOutbound(t *testing.T) {
	waiting := completeOutbound("042", 28)
	waiting.OutboundStatus = models.OutboundStatusWaiting
	incomplete := completeOutbound("043", 28)
	incomplete.OutboundStatus = models.OutboundStatusIncomplete
	exporter := &exporterStub{}
	svc := newTestOutboundService(newOutboundRepoStub(waiting, incomplete), exporter)
	ctx := context.Background()

	ack, err := svc.Export(ctx, testInspector, "042")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if ack.State != constants.ExportStateSent || ack.JobID == "" {
		t.Fatalf("unexpected ack: %+v", ack)
	}
	if len(exporter.kinds) != 1 || exporter.kinds[0] != constants.ExportKindOutbound {
		t.Fatalf("exporter kinds: %v", exporter.kinds)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(exporter.bodies[0], &body); err != nil {
		t.Fatalf("decode body failed: %v", err)
	}
	if body["routeNumber"] != "042" || body["email"] != "louis@example.com" {
		t.Fatalf("unexpected export body: %v", body)
	}
	if len(exporter.tokens) != 1 || exporter.tokens[0] != "louis" {
		t.Fatalf("export should run with caller identity, got %v", exporter.tokens)
	}

	if _, err := svc.Export(ctx, testInspector, "043"); !errors.Is(err, ErrExportNotAllowed) {
		t.Fatalf("want ErrExportNotAllowed, got %v", err)
	}
	if _, err := svc.Export(ctx, testInspector, "999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestExportFailureIsReported(t *testing.T) {
	waiting := completeOutbound("042", 28)
	waiting.OutboundStatus = models.OutboundStatusCompleted
	exporter := &exporterStub{err: errStoreDown}
	svc := newTestOutboundService(newOutboundRepoStub(waiting), exporter)

	ack, err := svc.Export(context.Background(), testInspector, "042")
	if err != nil {
		t.Fatalf("export failure should only be reported in the ack: %v", err)
	}
	if ack.State != constants.ExportStateFailed || ack.Error == "" {
		t.Fatalf("unexpected ack: %+v", ack)
	}
}
