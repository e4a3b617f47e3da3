package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/models"
)

var tuesday = time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)

func weekSchedules() *routeRepoStub {
	return &routeRepoStub{schedules: []models.RouteSchedule{
		{RouteNumber: "042", RouteName: "Baltimore North", Site: constants.SiteMD, DeliveryDate: "2024-03-05", Driver: "Sam"},
		{RouteNumber: "050", RouteName: "Towson", Site: constants.SiteMD, DeliveryDate: "2024-03-04"},
		{RouteNumber: "051", RouteName: "Dundalk", Site: constants.SiteMD, DeliveryDate: "2024-03-05"},
		{RouteNumber: "052", RouteName: "Columbia", Site: constants.SiteMD, DeliveryDate: "2024-03-08"},
		{RouteNumber: "060", RouteName: "Laurel", Site: constants.SiteMD, DeliveryDate: "2024-03-12"},
		{RouteNumber: "S10", RouteName: "Charleston", Site: constants.SiteSC, DeliveryDate: "2024-03-05"},
	}}
}

func TestCoverageWeeklyStartsOnMonday(t *testing.T) {
	outbounds := newOutboundRepoStub(storedOutbound("042", constants.SiteMD, "2024-03-05", models.OutboundStatusWaiting))
	svc := NewRouteService(weekSchedules(), outbounds, time.Minute, fixedWorkflow(tuesday))

	report, err := svc.Coverage(context.Background(), testInspector, "md", "weekly", "")
	if err != nil {
		t.Fatalf("coverage failed: %v", err)
	}
	if report.From != "2024-03-04" || report.To != "2024-03-10" {
		t.Fatalf("week window want 2024-03-04..2024-03-10, got %s..%s", report.From, report.To)
	}
	if report.Scheduled != 4 || report.Processed != 1 || report.CompletionRate != 0.25 {
		t.Fatalf("unexpected totals: %+v", report)
	}
	if report.Overdue != 1 || report.DueToday != 1 || report.Upcoming != 1 || len(report.Routes) != 3 {
		t.Fatalf("unexpected due buckets: %+v", report)
	}
	if report.Routes[0].RouteNumber != "050" || report.Routes[0].DueStatus != constants.DueStatusOverdue || report.Routes[0].Link != "/outbound/050" {
		t.Fatalf("unexpected first route: %+v", report.Routes[0])
	}
}

func TestCoverageWindows(t *testing.T) {
	sunday := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		view     string
		from, to string
	}{
		{constants.CoverageViewDaily, "2024-03-10", "2024-03-10"},
		{constants.CoverageViewWeekly, "2024-03-04", "2024-03-10"},
		{constants.CoverageViewMonthly, "2024-03-01", "2024-03-31"},
		{constants.CoverageViewYearly, "2024-01-01", "2024-12-31"},
	}
	for _, tc := range cases {
		start, end, err := coverageWindow(tc.view, sunday)
		if err != nil {
			t.Fatalf("%s: %v", tc.view, err)
		}
		if start.Format(constants.DateLayout) != tc.from || end.Format(constants.DateLayout) != tc.to {
			t.Fatalf("%s window want %s..%s, got %s..%s", tc.view, tc.from, tc.to, start.Format(constants.DateLayout), end.Format(constants.DateLayout))
		}
	}
	if _, _, err := coverageWindow("hourly", sunday); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("want ErrInvalidPeriod, got %v", err)
	}
}

func TestCoverageWithoutSchedules(t *testing.T) {
	svc := NewRouteService(&routeRepoStub{}, newOutboundRepoStub(), time.Minute, fixedWorkflow(tuesday))

	report, err := svc.Coverage(context.Background(), testInspector, "IL", "", "2024-03-01")
	if err != nil {
		t.Fatalf("coverage failed: %v", err)
	}
	if report.View != constants.CoverageViewDaily || report.Scheduled != 0 || report.CompletionRate != 0 {
		t.Fatalf("unexpected empty report: %+v", report)
	}
	if _, err := svc.Coverage(context.Background(), testInspector, "IL", "daily", "03/01/2024"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("want ErrInvalidPeriod, got %v", err)
	}
}

func TestRouteInfoCached(t *testing.T) {
	useMiniredis(t)
	routes := weekSchedules()
	svc := NewRouteService(routes, newOutboundRepoStub(), time.Minute, fixedWorkflow(tuesday))
	ctx := context.Background()

	info, err := svc.Info(ctx, testInspector, "042")
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	if info.RouteName != "Baltimore North" || info.Driver != "Sam" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if _, err := svc.Info(ctx, testInspector, "042"); err != nil {
		t.Fatalf("info failed: %v", err)
	}
	if routes.lookups != 1 {
		t.Fatalf("second lookup should hit the cache, lookups=%d", routes.lookups)
	}
	if _, err := svc.Info(ctx, testInspector, "999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestDashboardStatsCountsUnprocessedRoutes(t *testing.T) {
	outbounds := newOutboundRepoStub(
		storedOutbound("042", constants.SiteMD, "2024-03-05", models.OutboundStatusWaiting),
		storedOutbound("040", constants.SiteMD, "2024-03-01", models.OutboundStatusCompleted),
		storedOutbound("041", constants.SiteMD, "2024-03-02", models.OutboundStatusIncomplete),
	)
	svc := NewDashboardService(outbounds, weekSchedules(), fixedWorkflow(tuesday))

	stats, err := svc.Stats(context.Background(), testInspector, DashboardQuery{Site: "md"})
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Total != 3 || stats.Waiting != 1 || stats.Completed != 1 || stats.Incomplete != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	// 当天排班 042 已检查，051 未检查
	if stats.New != 1 {
		t.Fatalf("new want 1, got %d", stats.New)
	}

	if _, err := svc.Stats(context.Background(), testInspector, DashboardQuery{DateFrom: "2024/03/01"}); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("want ErrInvalidPeriod, got %v", err)
	}
}

func TestDashboardListByStatus(t *testing.T) {
	record := completeOutbound("042", 35)
	record.OutboundStatus = models.OutboundStatusWaiting
	record.TempExc = true
	outbounds := newOutboundRepoStub(record, storedOutbound("041", constants.SiteMD, "2024-03-02", models.OutboundStatusIncomplete))
	svc := NewDashboardService(outbounds, nil, fixedWorkflow(tuesday))

	rows, total, err := svc.List(context.Background(), testInspector, DashboardQuery{Status: "Waiting"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("want one waiting row, got %d", total)
	}
	row := rows[0]
	if row.Status != "waiting" || row.StatusCode != 2 || !row.TempExc || row.Inspector != "Di" || row.Link != "/outbound/042" {
		t.Fatalf("unexpected row: %+v", row)
	}

	if _, _, err := svc.List(context.Background(), testInspector, DashboardQuery{Status: "archived"}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("want ErrInvalidStatus, got %v", err)
	}
}
