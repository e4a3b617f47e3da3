package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OutboundRepository 出库单数据访问接口
type OutboundRepository interface {
	GetByRouteNumber(ctx context.Context, routeNumber string) (*models.OutboundRecord, error)
	Exists(ctx context.Context, routeNumber string) (bool, error)
	Upsert(ctx context.Context, record *models.OutboundRecord) error
	List(ctx context.Context, filter OutboundListFilter) ([]models.OutboundRecord, int64, error)
	ListByPeriod(ctx context.Context, site, dateFrom, dateTo string) ([]models.OutboundRecord, error)
	Stats(ctx context.Context, filter OutboundStatsFilter) (OutboundStatsRow, error)
	ListYears(ctx context.Context) ([]int, error)
}

// outboundUpsertColumns 冲突时覆盖的列（最后写入生效）
var outboundUpsertColumns = []string{
	"site", "delivery_date", "outbound_status", "carrier", "route_name", "tractor", "trailer", "driver", "helper",
	"assigned_load_equipment", "powered_plt_jack_inspection", "load_info", "trailer_inspection",
	"loading_summary", "loading_return", "require_attention", "temp_exc", "last_modified_by", "updated_at",
}

// GormOutboundRepository GORM 实现
type GormOutboundRepository struct {
	db *gorm.DB
}

// NewOutboundRepository 创建出库单仓库
func NewOutboundRepository(db *gorm.DB) *GormOutboundRepository {
	return &GormOutboundRepository{db: db}
}

// GetByRouteNumber 按线路号获取，不存在返回 nil
func (r *GormOutboundRepository) GetByRouteNumber(ctx context.Context, routeNumber string) (*models.OutboundRecord, error) {
	var record models.OutboundRecord
	if err := r.db.WithContext(ctx).Where("route_number = ?", strings.TrimSpace(routeNumber)).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Exists 线路号是否已有记录
func (r *GormOutboundRepository) Exists(ctx context.Context, routeNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OutboundRecord{}).
		Where("route_number = ?", strings.TrimSpace(routeNumber)).
		Count(&count).Error
	return count > 0, err
}

// Upsert 按线路号幂等写入
func (r *GormOutboundRepository) Upsert(ctx context.Context, record *models.OutboundRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "route_number"}},
		DoUpdates: clause.AssignmentColumns(outboundUpsertColumns),
	}).Create(record).Error
}

// List 出库单列表
func (r *GormOutboundRepository) List(ctx context.Context, filter OutboundListFilter) ([]models.OutboundRecord, int64, error) {
	var records []models.OutboundRecord
	query := r.db.WithContext(ctx).Model(&models.OutboundRecord{})

	if filter.Site != "" {
		query = query.Where("site = ?", filter.Site)
	}
	if filter.Status != nil {
		query = query.Where("outbound_status = ?", int(*filter.Status))
	}
	switch filter.Abnormal {
	case constants.AbnormalFilterAttention:
		query = query.Where("require_attention = ?", true)
	case constants.AbnormalFilterTemp:
		query = query.Where("temp_exc = ?", true)
	case constants.AbnormalFilterAny:
		query = query.Where("(require_attention = ? OR temp_exc = ?)", true, true)
	}
	if filter.DateFrom != "" {
		query = query.Where("delivery_date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		query = query.Where("delivery_date <= ?", filter.DateTo)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		operator := likeOperatorByDialect(dbDialectName(r.db))
		query = query.Where("(route_number "+operator+" ? OR route_name "+operator+" ?)", like, like)
	}

	if inspector := strings.TrimSpace(filter.Inspector); inspector != "" {
		query = query.Where(jsonTextExpr(r.db, "load_info", "inspectorName")+" = ?", inspector)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Scopes(paginate(filter.Page, filter.PageSize)).Order("delivery_date DESC, route_number ASC").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListByPeriod 站点在交付日期区间内的全部出库单
func (r *GormOutboundRepository) ListByPeriod(ctx context.Context, site, dateFrom, dateTo string) ([]models.OutboundRecord, error) {
	var records []models.OutboundRecord
	err := r.db.WithContext(ctx).
		Where("site = ? AND delivery_date >= ? AND delivery_date <= ?", site, dateFrom, dateTo).
		Order("delivery_date ASC, route_number ASC").
		Find(&records).Error
	return records, err
}

// Stats 出库单状态统计
func (r *GormOutboundRepository) Stats(ctx context.Context, filter OutboundStatsFilter) (OutboundStatsRow, error) {
	var row OutboundStatsRow
	query := r.db.WithContext(ctx).Model(&models.OutboundRecord{})
	if filter.Site != "" {
		query = query.Where("site = ?", filter.Site)
	}
	if filter.DateFrom != "" {
		query = query.Where("delivery_date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		query = query.Where("delivery_date <= ?", filter.DateTo)
	}
	err := query.Select(
		"COUNT(*) AS total, "+
			"COALESCE(SUM(CASE WHEN outbound_status = ? THEN 1 ELSE 0 END), 0) AS incomplete, "+
			"COALESCE(SUM(CASE WHEN outbound_status = ? THEN 1 ELSE 0 END), 0) AS waiting, "+
			"COALESCE(SUM(CASE WHEN outbound_status = ? THEN 1 ELSE 0 END), 0) AS completed, "+
			"COALESCE(SUM(CASE WHEN outbound_status = ? THEN 1 ELSE 0 END), 0) AS new_count, "+
			"COALESCE(SUM(CASE WHEN require_attention THEN 1 ELSE 0 END), 0) AS require_attention, "+
			"COALESCE(SUM(CASE WHEN temp_exc THEN 1 ELSE 0 END), 0) AS temp_exc",
		int(models.OutboundStatusIncomplete),
		int(models.OutboundStatusWaiting),
		int(models.OutboundStatusCompleted),
		int(models.OutboundStatusNew),
	).Scan(&row).Error
	return row, err
}

// ListYears 出库单涉及的交付年份
func (r *GormOutboundRepository) ListYears(ctx context.Context) ([]int, error) {
	var raw []string
	if err := r.db.WithContext(ctx).Model(&models.OutboundRecord{}).
		Select("DISTINCT SUBSTR(delivery_date, 1, 4)").
		Scan(&raw).Error; err != nil {
		return nil, err
	}
	years := make([]int, 0, len(raw))
	for _, item := range raw {
		if year, err := strconv.Atoi(strings.TrimSpace(item)); err == nil {
			years = append(years, year)
		}
	}
	return years, nil
}

// paginate 看板分页，pageSize 非正时返回全部
func paginate(page, pageSize int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if pageSize <= 0 {
			return db
		}
		if page < 1 {
			page = 1
		}
		return db.Limit(pageSize).Offset((page - 1) * pageSize)
	}
}
