package service

import (
	"context"
	"strings"
	"time"

	"github.com/cargo-inspection/internal/cache"
	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/identity"
	"github.com/cargo-inspection/internal/inspection"
	"github.com/cargo-inspection/internal/logger"
	"github.com/cargo-inspection/internal/repository"
)

// RouteService 线路预填与检查覆盖
type RouteService struct {
	routes    repository.RouteScheduleRepository
	outbounds repository.OutboundRepository
	cacheTTL  time.Duration
	workflow  Workflow
}

// NewRouteService 创建线路服务
func NewRouteService(routes repository.RouteScheduleRepository, outbounds repository.OutboundRepository, cacheTTL time.Duration, workflow Workflow) *RouteService {
	return &RouteService{routes: routes, outbounds: outbounds, cacheTTL: cacheTTL, workflow: workflow}
}

// CoverageRoute 待检查线路
type CoverageRoute struct {
	RouteNumber  string `json:"routeNumber"`
	RouteName    string `json:"routeName"`
	DeliveryDate string `json:"deliveryDate"`
	Driver       string `json:"driver"`
	DueStatus    string `json:"dueStatus"`
	Link         string `json:"link"`
}

// CoverageReport 检查覆盖报告
type CoverageReport struct {
	Site           string          `json:"site"`
	View           string          `json:"view"`
	From           string          `json:"from"`
	To             string          `json:"to"`
	Scheduled      int             `json:"scheduled"`
	Processed      int             `json:"processed"`
	CompletionRate float64         `json:"completionRate"`
	Overdue        int             `json:"overdue"`
	DueToday       int             `json:"dueToday"`
	Upcoming       int             `json:"upcoming"`
	Routes         []CoverageRoute `json:"routes"`
}

// Info 线路预填信息，不存在返回 ErrNotFound
func (s *RouteService) Info(ctx context.Context, principal identity.Principal, routeNumber string) (*cache.RouteInfo, error) {
	routeNumber = strings.TrimSpace(routeNumber)
	if routeNumber == "" {
		return nil, ErrRouteNumberRequired
	}
	if info, ok, err := cache.GetRouteInfo(ctx, routeNumber); err == nil && ok {
		return info, nil
	} else if err != nil {
		logger.Warnw("route_info_cache_read_failed", "route_number", routeNumber, "error", err)
	}
	schedule, err := s.routes.GetByRouteNumber(identity.NewContext(ctx, principal), routeNumber)
	if err != nil {
		return nil, storeError("route_info", err, nil)
	}
	if schedule == nil {
		return nil, ErrNotFound
	}
	info := &cache.RouteInfo{
		RouteNumber:  schedule.RouteNumber,
		RouteName:    schedule.RouteName,
		Site:         schedule.Site,
		DeliveryDate: schedule.DeliveryDate,
		Driver:       schedule.Driver,
		Helper:       schedule.Helper,
	}
	if err := cache.SetRouteInfo(ctx, info, s.cacheTTL); err != nil {
		logger.Warnw("route_info_cache_write_failed", "route_number", routeNumber, "error", err)
	}
	return info, nil
}

// coverageWindow 按视图计算日期区间，周视图从周一开始
func coverageWindow(view string, anchor time.Time) (time.Time, time.Time, error) {
	day := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)
	switch view {
	case constants.CoverageViewDaily:
		return day, day, nil
	case constants.CoverageViewWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 6), nil
	case constants.CoverageViewMonthly:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1), nil
	case constants.CoverageViewYearly:
		start := time.Date(day.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, -1), nil
	}
	return time.Time{}, time.Time{}, ErrInvalidPeriod
}

// Coverage 排班线路中尚未检查的线路，按到期状态分类
func (s *RouteService) Coverage(ctx context.Context, principal identity.Principal, site, view, date string) (*CoverageReport, error) {
	site, err := normalizeSite(site)
	if err != nil {
		return nil, err
	}
	view = strings.ToLower(strings.TrimSpace(view))
	if view == "" {
		view = constants.CoverageViewDaily
	}
	today := s.workflow.today()
	anchor, err := inspection.ParseDate(today)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(date) != "" {
		if anchor, err = inspection.ParseDate(date); err != nil {
			return nil, ErrInvalidPeriod
		}
	}
	start, end, err := coverageWindow(view, anchor)
	if err != nil {
		return nil, err
	}
	from, to := start.Format(constants.DateLayout), end.Format(constants.DateLayout)

	ctx = identity.NewContext(ctx, principal)
	schedules, err := s.routes.ListBySite(ctx, site, from, to)
	if err != nil {
		return nil, storeError("coverage_routes", err, nil)
	}
	outbounds, err := s.outbounds.ListByPeriod(ctx, site, from, to)
	if err != nil {
		return nil, storeError("coverage_outbounds", err, nil)
	}
	processed := make(map[string]struct{}, len(outbounds))
	for i := range outbounds {
		processed[outbounds[i].RouteNumber] = struct{}{}
	}

	report := &CoverageReport{
		Site:      site,
		View:      view,
		From:      from,
		To:        to,
		Scheduled: len(schedules),
		Routes:    make([]CoverageRoute, 0),
	}
	for i := range schedules {
		schedule := &schedules[i]
		if _, ok := processed[schedule.RouteNumber]; ok {
			report.Processed++
			continue
		}
		due := dueStatus(schedule.DeliveryDate, today)
		switch due {
		case constants.DueStatusOverdue:
			report.Overdue++
		case constants.DueStatusToday:
			report.DueToday++
		default:
			report.Upcoming++
		}
		report.Routes = append(report.Routes, CoverageRoute{
			RouteNumber:  schedule.RouteNumber,
			RouteName:    schedule.RouteName,
			DeliveryDate: schedule.DeliveryDate,
			Driver:       schedule.Driver,
			DueStatus:    due,
			Link:         "/outbound/" + schedule.RouteNumber,
		})
	}
	if report.Scheduled > 0 {
		report.CompletionRate = float64(report.Processed) / float64(report.Scheduled)
	}
	return report, nil
}

func dueStatus(deliveryDate, today string) string {
	switch {
	case deliveryDate < today:
		return constants.DueStatusOverdue
	case deliveryDate == today:
		return constants.DueStatusToday
	}
	return constants.DueStatusUpcoming
}
