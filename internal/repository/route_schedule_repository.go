package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/cargo-inspection/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RouteScheduleRepository 排班线路数据访问接口
type RouteScheduleRepository interface {
	GetByRouteNumber(ctx context.Context, routeNumber string) (*models.RouteSchedule, error)
	ListBySite(ctx context.Context, site, dateFrom, dateTo string) ([]models.RouteSchedule, error)
	Upsert(ctx context.Context, schedule *models.RouteSchedule) error
}

// GormRouteScheduleRepository GORM 实现
type GormRouteScheduleRepository struct {
	db *gorm.DB
}

// NewRouteScheduleRepository 创建排班线路仓库
func NewRouteScheduleRepository(db *gorm.DB) *GormRouteScheduleRepository {
	return &GormRouteScheduleRepository{db: db}
}

// GetByRouteNumber 按线路号获取，不存在返回 nil
func (r *GormRouteScheduleRepository) GetByRouteNumber(ctx context.Context, routeNumber string) (*models.RouteSchedule, error) {
	var schedule models.RouteSchedule
	if err := r.db.WithContext(ctx).Where("route_number = ?", strings.TrimSpace(routeNumber)).First(&schedule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &schedule, nil
}

// ListBySite 站点在交付日期区间内的排班线路
func (r *GormRouteScheduleRepository) ListBySite(ctx context.Context, site, dateFrom, dateTo string) ([]models.RouteSchedule, error) {
	var schedules []models.RouteSchedule
	query := r.db.WithContext(ctx).Where("site = ?", site)
	if dateFrom != "" {
		query = query.Where("delivery_date >= ?", dateFrom)
	}
	if dateTo != "" {
		query = query.Where("delivery_date <= ?", dateTo)
	}
	err := query.Order("delivery_date ASC, route_number ASC").Find(&schedules).Error
	return schedules, err
}

// Upsert 按线路号写入排班
func (r *GormRouteScheduleRepository) Upsert(ctx context.Context, schedule *models.RouteSchedule) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "route_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"route_name", "site", "delivery_date", "driver", "helper", "updated_at"}),
	}).Create(schedule).Error
}
