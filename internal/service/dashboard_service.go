package service

import (
	"context"
	"strings"

	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/identity"
	"github.com/cargo-inspection/internal/inspection"
	"github.com/cargo-inspection/internal/models"
	"github.com/cargo-inspection/internal/repository"
)

// DashboardService 仪表盘统计与列表
type DashboardService struct {
	outbounds repository.OutboundRepository
	routes    repository.RouteScheduleRepository
	workflow  Workflow
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(outbounds repository.OutboundRepository, routes repository.RouteScheduleRepository, workflow Workflow) *DashboardService {
	return &DashboardService{outbounds: outbounds, routes: routes, workflow: workflow}
}

// DashboardQuery 仪表盘查询参数
type DashboardQuery struct {
	Page      int
	PageSize  int
	Site      string
	Status    string // new / incomplete / waiting / completed
	Abnormal  string
	Search    string
	Inspector string
	DateFrom  string
	DateTo    string
}

// DashboardStats 各状态数量
// New 为排班中尚无出库单的线路数量
type DashboardStats struct {
	Total            int64 `json:"total"`
	New              int64 `json:"new"`
	Incomplete       int64 `json:"incomplete"`
	Waiting          int64 `json:"waiting"`
	Completed        int64 `json:"completed"`
	RequireAttention int64 `json:"requireAttention"`
	TempExc          int64 `json:"tempExc"`
}

// DashboardRow 列表行
type DashboardRow struct {
	RouteNumber      string `json:"routeNumber"`
	RouteName        string `json:"routeName"`
	Site             string `json:"site"`
	DeliveryDate     string `json:"deliveryDate"`
	Status           string `json:"status"`
	StatusCode       int    `json:"statusCode"`
	RequireAttention bool   `json:"requireAttention"`
	TempExc          bool   `json:"tempExc"`
	Inspector        string `json:"inspector"`
	LastModifiedBy   string `json:"lastModifiedBy"`
	Link             string `json:"link"`
}

func (s *DashboardService) normalizeQuery(query DashboardQuery) (DashboardQuery, error) {
	if strings.TrimSpace(query.Site) != "" {
		site, err := normalizeSite(query.Site)
		if err != nil {
			return query, err
		}
		query.Site = site
	}
	for _, value := range []string{query.DateFrom, query.DateTo} {
		if value == "" {
			continue
		}
		if _, err := inspection.ParseDate(value); err != nil {
			return query, ErrInvalidPeriod
		}
	}
	switch query.Abnormal {
	case "", constants.AbnormalFilterAttention, constants.AbnormalFilterTemp, constants.AbnormalFilterAny:
	default:
		query.Abnormal = ""
	}
	return query, nil
}

// Stats 状态统计
func (s *DashboardService) Stats(ctx context.Context, principal identity.Principal, query DashboardQuery) (*DashboardStats, error) {
	query, err := s.normalizeQuery(query)
	if err != nil {
		return nil, err
	}
	ctx = identity.NewContext(ctx, principal)
	row, err := s.outbounds.Stats(ctx, repository.OutboundStatsFilter{
		Site:     query.Site,
		DateFrom: query.DateFrom,
		DateTo:   query.DateTo,
	})
	if err != nil {
		return nil, storeError("dashboard_stats", err, nil)
	}
	stats := &DashboardStats{
		Total:            row.Total,
		New:              row.New,
		Incomplete:       row.Incomplete,
		Waiting:          row.Waiting,
		Completed:        row.Completed,
		RequireAttention: row.RequireAttention,
		TempExc:          row.TempExc,
	}
	unprocessed, err := s.unprocessedRoutes(ctx, query)
	if err != nil {
		return nil, err
	}
	stats.New += unprocessed
	return stats, nil
}

// unprocessedRoutes 排班中尚无出库单的线路数，未指定日期时取当天
func (s *DashboardService) unprocessedRoutes(ctx context.Context, query DashboardQuery) (int64, error) {
	if s.routes == nil {
		return 0, nil
	}
	from, to := query.DateFrom, query.DateTo
	if from == "" && to == "" {
		from = s.workflow.today()
		to = from
	}
	sites := constants.Sites
	if query.Site != "" {
		sites = []string{query.Site}
	}
	var count int64
	for _, site := range sites {
		schedules, err := s.routes.ListBySite(ctx, site, from, to)
		if err != nil {
			return 0, storeError("dashboard_routes", err, nil)
		}
		for i := range schedules {
			exists, err := s.outbounds.Exists(ctx, schedules[i].RouteNumber)
			if err != nil {
				return 0, storeError("dashboard_routes", err, nil)
			}
			if !exists {
				count++
			}
		}
	}
	return count, nil
}

// List 出库单列表
func (s *DashboardService) List(ctx context.Context, principal identity.Principal, query DashboardQuery) ([]DashboardRow, int64, error) {
	query, err := s.normalizeQuery(query)
	if err != nil {
		return nil, 0, err
	}
	filter := repository.OutboundListFilter{
		Page:      query.Page,
		PageSize:  query.PageSize,
		Site:      query.Site,
		Abnormal:  query.Abnormal,
		Search:    query.Search,
		Inspector: query.Inspector,
		DateFrom:  query.DateFrom,
		DateTo:    query.DateTo,
	}
	if strings.TrimSpace(query.Status) != "" {
		status, ok := models.ParseOutboundStatusName(query.Status)
		if !ok {
			return nil, 0, ErrInvalidStatus
		}
		filter.Status = &status
	}
	records, total, err := s.outbounds.List(identity.NewContext(ctx, principal), filter)
	if err != nil {
		return nil, 0, storeError("dashboard_list", err, nil)
	}
	rows := make([]DashboardRow, 0, len(records))
	for i := range records {
		record := &records[i]
		rows = append(rows, DashboardRow{
			RouteNumber:      record.RouteNumber,
			RouteName:        record.RouteName,
			Site:             record.Site,
			DeliveryDate:     record.DeliveryDate,
			Status:           record.OutboundStatus.String(),
			StatusCode:       record.OutboundStatus.Code(),
			RequireAttention: record.RequireAttention,
			TempExc:          record.TempExc,
			Inspector:        record.LoadInformation.Data().InspectorName,
			LastModifiedBy:   record.LastModifiedBy,
			Link:             "/outbound/" + record.RouteNumber,
		})
	}
	return rows, total, nil
}
