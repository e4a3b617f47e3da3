package models

import "time"

// RouteSchedule 排班线路（来自 ERP 同步）
type RouteSchedule struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	RouteNumber  string    `gorm:"size:64;not null;uniqueIndex" json:"routeNumber"`
	RouteName    string    `gorm:"size:255" json:"routeName"`
	Site         string    `gorm:"size:8;not null;index" json:"site"`
	DeliveryDate string    `gorm:"size:10;not null;index" json:"deliveryDate"`
	Driver       string    `gorm:"size:128" json:"driver"`
	Helper       string    `gorm:"size:128" json:"helper"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (RouteSchedule) TableName() string {
	return "route_schedules"
}
