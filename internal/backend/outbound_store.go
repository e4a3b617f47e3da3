package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/models"
	"github.com/cargo-inspection/internal/repository"
)

// OutboundStore 远端出库单存储，实现 repository.OutboundRepository
type OutboundStore struct {
	client *Client
}

// NewOutboundStore 创建远端出库单存储
func NewOutboundStore(client *Client) *OutboundStore {
	return &OutboundStore{client: client}
}

var _ repository.OutboundRepository = (*OutboundStore)(nil)

// GetByRouteNumber 按线路号获取，不存在返回 nil
func (s *OutboundStore) GetByRouteNumber(ctx context.Context, routeNumber string) (*models.OutboundRecord, error) {
	var raw json.RawMessage
	if err := s.client.get(ctx, "outbound/"+url.PathEscape(strings.TrimSpace(routeNumber)), nil, &raw); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	row, ok, err := decodeOne[outboundRow](raw)
	if err != nil || !ok || strings.TrimSpace(row.RouteNumber) == "" {
		return nil, err
	}
	return row.toModel(), nil
}

// Exists 线路号是否已有记录
func (s *OutboundStore) Exists(ctx context.Context, routeNumber string) (bool, error) {
	record, err := s.GetByRouteNumber(ctx, routeNumber)
	return record != nil, err
}

// Upsert 写入出库单
func (s *OutboundStore) Upsert(ctx context.Context, record *models.OutboundRecord) error {
	return s.client.upsert(ctx, "outbound", newOutboundPayload(record))
}

func (s *OutboundStore) listAll(ctx context.Context) ([]models.OutboundRecord, error) {
	var rows []outboundRow
	if err := s.client.get(ctx, "outbounds", nil, &rows); err != nil {
		return nil, err
	}
	return toOutboundModels(rows), nil
}

// List 远端不支持服务端筛选，拉取后在本地过滤分页
func (s *OutboundStore) List(ctx context.Context, filter repository.OutboundListFilter) ([]models.OutboundRecord, int64, error) {
	all, err := s.listAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	matched := make([]models.OutboundRecord, 0, len(all))
	for i := range all {
		if matchOutbound(&all[i], filter) {
			matched = append(matched, all[i])
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].DeliveryDate != matched[j].DeliveryDate {
			return matched[i].DeliveryDate > matched[j].DeliveryDate
		}
		return matched[i].RouteNumber < matched[j].RouteNumber
	})
	total := int64(len(matched))
	return paginate(matched, filter.Page, filter.PageSize), total, nil
}

// ListByPeriod 按月份逐月拉取后按日期区间过滤
func (s *OutboundStore) ListByPeriod(ctx context.Context, site, dateFrom, dateTo string) ([]models.OutboundRecord, error) {
	from, err := time.Parse(constants.DateLayout, dateFrom)
	if err != nil {
		return nil, err
	}
	to, err := time.Parse(constants.DateLayout, dateTo)
	if err != nil {
		return nil, err
	}
	records := make([]models.OutboundRecord, 0)
	for month := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC); !month.After(to); month = month.AddDate(0, 1, 0) {
		var rows []outboundRow
		path := "outbounds/" + month.Format("200601") + "/" + url.PathEscape(site)
		if err := s.client.get(ctx, path, nil, &rows); err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		for _, record := range toOutboundModels(rows) {
			if record.DeliveryDate >= dateFrom && record.DeliveryDate <= dateTo {
				records = append(records, record)
			}
		}
	}
	return records, nil
}

// Stats 本地统计
func (s *OutboundStore) Stats(ctx context.Context, filter repository.OutboundStatsFilter) (repository.OutboundStatsRow, error) {
	var row repository.OutboundStatsRow
	all, err := s.listAll(ctx)
	if err != nil {
		return row, err
	}
	listFilter := repository.OutboundListFilter{Site: filter.Site, DateFrom: filter.DateFrom, DateTo: filter.DateTo}
	for i := range all {
		record := &all[i]
		if !matchOutbound(record, listFilter) {
			continue
		}
		row.Total++
		switch record.OutboundStatus {
		case models.OutboundStatusIncomplete:
			row.Incomplete++
		case models.OutboundStatusWaiting:
			row.Waiting++
		case models.OutboundStatusCompleted:
			row.Completed++
		case models.OutboundStatusNew:
			row.New++
		}
		if record.RequireAttention {
			row.RequireAttention++
		}
		if record.TempExc {
			row.TempExc++
		}
	}
	return row, nil
}

// ListYears 出库单涉及的交付年份
func (s *OutboundStore) ListYears(ctx context.Context) ([]int, error) {
	all, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[int]struct{})
	years := make([]int, 0)
	for i := range all {
		year := all[i].DeliveryYear()
		if year == 0 {
			continue
		}
		if _, ok := seen[year]; ok {
			continue
		}
		seen[year] = struct{}{}
		years = append(years, year)
	}
	return years, nil
}

func toOutboundModels(rows []outboundRow) []models.OutboundRecord {
	records := make([]models.OutboundRecord, 0, len(rows))
	for i := range rows {
		records = append(records, *rows[i].toModel())
	}
	return records
}

func matchOutbound(record *models.OutboundRecord, filter repository.OutboundListFilter) bool {
	if filter.Site != "" && record.Site != filter.Site {
		return false
	}
	if filter.Status != nil && record.OutboundStatus != *filter.Status {
		return false
	}
	switch filter.Abnormal {
	case constants.AbnormalFilterAttention:
		if !record.RequireAttention {
			return false
		}
	case constants.AbnormalFilterTemp:
		if !record.TempExc {
			return false
		}
	case constants.AbnormalFilterAny:
		if !record.IsAbnormal() {
			return false
		}
	}
	if filter.DateFrom != "" && record.DeliveryDate < filter.DateFrom {
		return false
	}
	if filter.DateTo != "" && record.DeliveryDate > filter.DateTo {
		return false
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		if !strings.Contains(strings.ToLower(record.RouteNumber), search) &&
			!strings.Contains(strings.ToLower(record.RouteName), search) {
			return false
		}
	}
	if inspector := strings.TrimSpace(filter.Inspector); inspector != "" {
		if record.LoadInformation.Data().InspectorName != inspector {
			return false
		}
	}
	return true
}

func paginate[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// decodeOne 远端单条查询可能返回对象或数组
func decodeOne[T any](raw json.RawMessage) (T, bool, error) {
	var zero T
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return zero, false, nil
	}
	if trimmed[0] == '[' {
		var rows []T
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return zero, false, err
		}
		if len(rows) == 0 {
			return zero, false, nil
		}
		return rows[0], true, nil
	}
	var row T
	if err := json.Unmarshal(trimmed, &row); err != nil {
		return zero, false, err
	}
	return row, true, nil
}
