package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// OutboundStatus 出库单状态
// 编码沿用既有数据（0=已完成 1=未完成 2=待复核 3=新建），编码大小与流程先后无关，禁止按数值比较先后
type OutboundStatus int

const (
	OutboundStatusCompleted  OutboundStatus = 0
	OutboundStatusIncomplete OutboundStatus = 1
	OutboundStatusWaiting    OutboundStatus = 2
	OutboundStatusNew        OutboundStatus = 3
)

// ParseOutboundStatus 解析状态编码
func ParseOutboundStatus(code int) (OutboundStatus, bool) {
	status := OutboundStatus(code)
	if !status.Valid() {
		return 0, false
	}
	return status, true
}

// ParseOutboundStatusName 按名称解析状态（new/incomplete/waiting/completed）
func ParseOutboundStatusName(name string) (OutboundStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "new":
		return OutboundStatusNew, true
	case "incomplete":
		return OutboundStatusIncomplete, true
	case "waiting":
		return OutboundStatusWaiting, true
	case "completed":
		return OutboundStatusCompleted, true
	}
	return 0, false
}

// Valid 是否为已知状态
func (s OutboundStatus) Valid() bool {
	switch s {
	case OutboundStatusCompleted, OutboundStatusIncomplete, OutboundStatusWaiting, OutboundStatusNew:
		return true
	}
	return false
}

// Code 对外编码
func (s OutboundStatus) Code() int {
	return int(s)
}

func (s OutboundStatus) String() string {
	switch s {
	case OutboundStatusCompleted:
		return "completed"
	case OutboundStatusIncomplete:
		return "incomplete"
	case OutboundStatusWaiting:
		return "waiting"
	case OutboundStatusNew:
		return "new"
	}
	return "unknown"
}

// LoadEquipment 装车设备
type LoadEquipment struct {
	HandTruckNo         string  `json:"handTruckNo"`
	PoweredPalletJackNo string  `json:"poweredPalletJackNo"`
	LoadBarCount        Measure `json:"loadBarCount"`
}

// PalletJackInspection 电动托盘车点检（8 项，ok/problem）
type PalletJackInspection struct {
	Checklist []string `json:"checklist"`
	Notes     string   `json:"notes"`
}

// LoadInformation 装车信息
type LoadInformation struct {
	CheckerName                   string  `json:"checkerName"`
	MergerName                    string  `json:"mergerName"`
	LoaderName                    string  `json:"loaderName"`
	InspectorName                 string  `json:"inspectorName"`
	InspectionDateTime            string  `json:"inspectionDateTime"`
	LoadingDockNo                 string  `json:"loadingDockNo"`
	RefrigeratorThermostat        string  `json:"refrigeratorThermostat"`
	RefrigeratorUnitTemperature   Measure `json:"refrigeratorUnitTemperature"`
	ReeferTurningOnTime           string  `json:"reeferTurningOnTime"`
	ReeferTurningOnTemperature    Measure `json:"reeferTurningOnTemperature"`
	ReeferAfterLoadingTemperature Measure `json:"reeferAfterLoadingTemperature"`
	StartLoadingTime              string  `json:"startLoadingTime"`
	FinishedLoadingTime           string  `json:"finishedLoadingTime"`
}

// TrailerChecklistItem 车厢检查项（yes/no）
type TrailerChecklistItem struct {
	Description string `json:"description"`
	Value       string `json:"value"`
}

// TrailerChecklistArea 车厢检查区域
type TrailerChecklistArea struct {
	Area  string                 `json:"area"`
	Items []TrailerChecklistItem `json:"items"`
}

// TrailerInspection 车厢检查表
type TrailerInspection struct {
	Checklist []TrailerChecklistArea `json:"checklist"`
	Comment   string                 `json:"comment"`
}

// LoadingPosition 装载位（重量 + 停靠点）
type LoadingPosition struct {
	Weight string `json:"weight"`
	Stop   string `json:"stop"`
}

// LoadingSummary 装载汇总
type LoadingSummary struct {
	DateRecord  string            `json:"dateRecord"`
	Positions   []LoadingPosition `json:"positions"`
	TotalWeight Measure           `json:"totalWeight"`
	TotalPallet Measure           `json:"totalPallet"`
	IceCream    string            `json:"iceCream"`
	FoilCount   Measure           `json:"foilCount"`
}

// LoadingReturn 回程信息，仅待复核/已完成状态有效
type LoadingReturn struct {
	ReturnDateTime string `json:"returnDateTime"`
	ReturnLB       string `json:"returnLB"`
	ReturnPW       string `json:"returnPW"`
	ReturnHT       string `json:"returnHT"`
}

// IsEmpty 是否未填写任何回程字段
func (r LoadingReturn) IsEmpty() bool {
	return strings.TrimSpace(r.ReturnDateTime) == "" &&
		strings.TrimSpace(r.ReturnLB) == "" &&
		strings.TrimSpace(r.ReturnPW) == "" &&
		strings.TrimSpace(r.ReturnHT) == ""
}

// OutboundRecord 出库检查单（每条线路每个交付日一条）
type OutboundRecord struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	RouteNumber    string         `gorm:"size:64;not null;uniqueIndex" json:"routeNumber"`       // 线路号
	Site           string         `gorm:"size:8;not null;index" json:"site"`                     // 站点
	DeliveryDate   string         `gorm:"size:10;not null;index" json:"deliveryDate"`            // 交付日期 YYYY-MM-DD
	OutboundStatus OutboundStatus `gorm:"column:outbound_status;not null" json:"outboundStatus"` // 状态
	Carrier        string         `gorm:"size:128" json:"carrier"`
	RouteName      string         `gorm:"size:255" json:"routeName"`
	Tractor        string         `gorm:"size:64" json:"tractor"`
	Trailer        string         `gorm:"size:64" json:"trailer"`
	Driver         string         `gorm:"size:128" json:"driver"`
	Helper         string         `gorm:"size:128" json:"helper"`

	AssignedLoadEquipment       datatypes.JSONType[LoadEquipment]        `gorm:"column:assigned_load_equipment" json:"assignedLoadEquipment"`
	PoweredPalletJackInspection datatypes.JSONType[PalletJackInspection] `gorm:"column:powered_plt_jack_inspection" json:"poweredPalletJackInspection"`
	LoadInformation             datatypes.JSONType[LoadInformation]      `gorm:"column:load_info" json:"loadInformation"`
	TrailerInspectionChecklist  datatypes.JSONType[TrailerInspection]    `gorm:"column:trailer_inspection" json:"trailerInspectionChecklist"`
	LoadingSummary              datatypes.JSONType[LoadingSummary]       `gorm:"column:loading_summary" json:"loadingSummary"`
	LoadingReturn               datatypes.JSONType[LoadingReturn]        `gorm:"column:loading_return" json:"loadingReturn"`

	RequireAttention bool      `gorm:"not null;default:false;index" json:"requireAttention"` // 需关注（检查项异常）
	TempExc          bool      `gorm:"not null;default:false;index" json:"tempExc"`          // 温度超标
	LastModifiedBy   string    `gorm:"size:128" json:"lastModifiedBy"`
	CreatedAt        time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt        time.Time `gorm:"index" json:"updatedAt"`
}

// TableName 指定表名
func (OutboundRecord) TableName() string {
	return "outbounds"
}

// IsAbnormal 是否存在异常标记
func (r *OutboundRecord) IsAbnormal() bool {
	return r != nil && (r.RequireAttention || r.TempExc)
}

// DeliveryYear 交付年份，日期非法时返回 0
func (r *OutboundRecord) DeliveryYear() int {
	if r == nil {
		return 0
	}
	date, err := time.Parse("2006-01-02", strings.TrimSpace(r.DeliveryDate))
	if err != nil {
		return 0
	}
	return date.Year()
}
