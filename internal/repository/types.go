package repository

import "github.com/cargo-inspection/internal/models"

// OutboundListFilter 查询出库单列表的过滤条件
type OutboundListFilter struct {
	Page      int
	PageSize  int
	Site      string
	Status    *models.OutboundStatus
	Abnormal  string // attention / temp / any
	Search    string // 线路号或线路名
	Inspector string // 检查人（load_info.inspectorName）
	DateFrom  string // YYYY-MM-DD，含
	DateTo    string // YYYY-MM-DD，含
}

// OutboundStatsFilter 出库单统计过滤条件
type OutboundStatsFilter struct {
	Site     string
	DateFrom string
	DateTo   string
}

// OutboundStatsRow 出库单状态统计
type OutboundStatsRow struct {
	Total            int64 `json:"total"`
	Incomplete       int64 `json:"incomplete"`
	Waiting          int64 `json:"waiting"`
	Completed        int64 `json:"completed"`
	New              int64 `gorm:"column:new_count" json:"new"`
	RequireAttention int64 `json:"requireAttention"`
	TempExc          int64 `json:"tempExc"`
}
