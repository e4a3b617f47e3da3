package backend

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/cargo-inspection/internal/models"
	"github.com/cargo-inspection/internal/repository"
)

// RouteStore 远端 ERP 排班线路（只读）
type RouteStore struct {
	client *Client
}

// NewRouteStore 创建远端排班线路存储
func NewRouteStore(client *Client) *RouteStore {
	return &RouteStore{client: client}
}

var _ repository.RouteScheduleRepository = (*RouteStore)(nil)

// GetByRouteNumber 线路信息，不存在返回 nil
func (s *RouteStore) GetByRouteNumber(ctx context.Context, routeNumber string) (*models.RouteSchedule, error) {
	routeNumber = strings.TrimSpace(routeNumber)
	var raw json.RawMessage
	if err := s.client.get(ctx, "routeInfo/"+url.PathEscape(routeNumber), nil, &raw); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	row, ok, err := decodeOne[routeInfoRow](raw)
	if err != nil || !ok {
		return nil, err
	}
	schedule := row.toModel(routeNumber)
	if schedule.RouteName == "" && schedule.DeliveryDate == "" {
		return nil, nil
	}
	return schedule, nil
}

// ListBySite 站点在日期区间内的排班线路
func (s *RouteStore) ListBySite(ctx context.Context, site, dateFrom, dateTo string) ([]models.RouteSchedule, error) {
	query := url.Values{}
	if dateFrom != "" {
		query.Set("from", dateFrom)
	}
	if dateTo != "" {
		query.Set("to", dateTo)
	}
	var rows []routeInfoRow
	if err := s.client.get(ctx, "routes/"+url.PathEscape(site), query, &rows); err != nil {
		return nil, err
	}
	schedules := make([]models.RouteSchedule, 0, len(rows))
	for i := range rows {
		schedule := rows[i].toModel("")
		if schedule.Site == "" {
			schedule.Site = site
		}
		schedules = append(schedules, *schedule)
	}
	return schedules, nil
}

// Upsert 排班由 ERP 维护
func (s *RouteStore) Upsert(ctx context.Context, schedule *models.RouteSchedule) error {
	return ErrReadOnly
}
